package embeds

import (
	"context"
	"html/template"
)

// Delegates bundles the capabilities an asset hands off to collaborators.
// Nil collaborators make the matching accessor report absent.
type Delegates struct {
	Safety   SafetyEvaluator
	Renderer Renderer
	Images   ImageResolver
}

// IsSafe reports whether the asset's code may be emitted unescaped.
func (d Delegates) IsSafe(a *EmbeddedAsset) bool {
	if d.Safety == nil || a == nil {
		return false
	}
	return d.Safety.IsEmbedSafe(a)
}

// HTML renders the asset through the configured renderer.
func (d Delegates) HTML(a *EmbeddedAsset) (template.HTML, error) {
	if d.Renderer == nil || a == nil {
		return "", nil
	}
	return d.Renderer.RenderEmbedHTML(a)
}

// ImageToSize resolves the asset's best image source for size. It returns
// nil when the asset has no image.
func (d Delegates) ImageToSize(ctx context.Context, a *EmbeddedAsset, size int) (*ImageSize, error) {
	if a == nil {
		return nil, nil
	}
	candidates := append([]ImageRef{{URL: a.Image, Width: a.ImageWidth, Height: a.ImageHeight}}, a.Images...)
	return d.resolve(ctx, candidates, size)
}

// ProviderIconToSize resolves the asset's best provider icon for size.
func (d Delegates) ProviderIconToSize(ctx context.Context, a *EmbeddedAsset, size int) (*ImageSize, error) {
	if a == nil {
		return nil, nil
	}
	candidates := append([]ImageRef{{URL: a.ProviderIcon}}, a.ProviderIcons...)
	return d.resolve(ctx, candidates, size)
}

func (d Delegates) resolve(ctx context.Context, candidates []ImageRef, size int) (*ImageSize, error) {
	if d.Images == nil {
		return nil, nil
	}
	best, ok := SelectImage(candidates, size)
	if !ok {
		return nil, nil
	}
	return d.Images.ResolveImage(ctx, best.URL, size)
}

// SelectImage picks the smallest candidate whose larger side is at least
// size, or the largest candidate when none is big enough. Candidates with an
// empty URL are skipped; unknown dimensions count as zero.
func SelectImage(candidates []ImageRef, size int) (ImageRef, bool) {
	var (
		fit, largest       ImageRef
		haveFit, haveLarge bool
	)

	for _, c := range candidates {
		if c.URL == "" {
			continue
		}
		side := max(c.Width, c.Height)

		if side >= size && (!haveFit || side < max(fit.Width, fit.Height)) {
			fit, haveFit = c, true
		}
		if !haveLarge || side > max(largest.Width, largest.Height) {
			largest, haveLarge = c, true
		}
	}

	if haveFit {
		return fit, true
	}
	return largest, haveLarge
}
