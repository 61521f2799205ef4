// Package render turns embedded assets into display markup.
package render

import (
	"bytes"
	"fmt"
	"html/template"

	"EmbeddedAssets/internal/core/embeds"
)

var embedTemplate = template.Must(template.New("embed").Parse(
	`{{- if .Code -}}
<div class="embedded-asset embedded-asset--{{.Kind}}">{{.Code}}</div>
{{- else if .Image -}}
<a class="embedded-asset embedded-asset--image" href="{{.URL}}"><img src="{{.Image}}" alt="{{.Title}}"{{if .Width}} width="{{.Width}}"{{end}}{{if .Height}} height="{{.Height}}"{{end}}></a>
{{- else -}}
<a class="embedded-asset embedded-asset--link" href="{{.URL}}">{{.Title}}</a>
{{- end -}}`))

type view struct {
	Kind   string
	Code   template.HTML
	URL    string
	Image  string
	Title  string
	Width  int
	Height int
}

// Renderer implements embeds.Renderer. Code is emitted unescaped only when
// the safety evaluator accepts the asset; otherwise an image or link
// fallback is rendered.
type Renderer struct {
	safety embeds.SafetyEvaluator
}

// NewRenderer creates a renderer. A nil evaluator treats every asset as unsafe.
func NewRenderer(safety embeds.SafetyEvaluator) *Renderer {
	return &Renderer{safety: safety}
}

// RenderEmbedHTML renders the asset.
func (r *Renderer) RenderEmbedHTML(a *embeds.EmbeddedAsset) (template.HTML, error) {
	if a == nil {
		return "", nil
	}

	v := view{
		Kind:  a.Type,
		URL:   embeds.WithDefaultScheme(a.URL),
		Image: embeds.WithDefaultScheme(a.Image),
		Title: a.Title,
	}
	if v.Kind == "" {
		v.Kind = embeds.TypeLink
	}
	if v.Title == "" {
		v.Title = v.URL
	}
	if a.ImageWidth > 0 && a.ImageHeight > 0 {
		v.Width, v.Height = a.ImageWidth, a.ImageHeight
	}
	if a.Code != "" && r.safety != nil && r.safety.IsEmbedSafe(a) {
		v.Code = template.HTML(a.Code)
	}

	var buf bytes.Buffer
	if err := embedTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render embed: %w", err)
	}
	return template.HTML(buf.String()), nil
}
