package embeds

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// ParseAttribute returns the value of the named attribute on the first tag
// found in markup. Entity references in the value are decoded. The second
// result is false when markup holds no tag or the tag lacks the attribute.
func ParseAttribute(markup, name string) (string, bool) {
	_, _, attrs, ok := firstTag(markup)
	if !ok {
		return "", false
	}

	name = strings.ToLower(name)
	for _, attr := range attrs {
		if attr.Key == name {
			return attr.Val, true
		}
	}
	return "", false
}

// SetAttribute returns markup with the named attribute of its first tag set
// to value. Every other byte of the markup, including the other attributes
// and their order, is left untouched. When the tag lacks the attribute it is
// appended to the end of the tag's attribute list.
func SetAttribute(markup, name, value string) (string, error) {
	start, raw, _, ok := firstTag(markup)
	if !ok {
		return "", ErrNoTag
	}

	replacement := name + `="` + html.EscapeString(value) + `"`

	var rewritten string
	if span, found := findAttribute(raw, name); found {
		rewritten = raw[:span.start] + replacement + raw[span.end:]
	} else {
		at := tagCloseIndex(raw)
		rewritten = raw[:at] + " " + replacement + raw[at:]
	}

	return markup[:start] + rewritten + markup[start+len(raw):], nil
}

// firstTag locates the first start (or self-closing) tag in markup and
// returns its byte offset, raw text and parsed attributes.
func firstTag(markup string) (int, string, []xhtml.Attribute, bool) {
	z := xhtml.NewTokenizer(strings.NewReader(markup))
	offset := 0

	for {
		tt := z.Next()
		switch tt {
		case xhtml.ErrorToken:
			return 0, "", nil, false
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			return offset, raw, tok.Attr, true
		default:
			offset += len(z.Raw())
		}
	}
}

type attrSpan struct {
	start int
	end   int
}

// findAttribute scans the raw text of an opening tag for the first attribute
// called name (case-insensitive) and returns the span covering its name and value.
func findAttribute(raw, name string) (attrSpan, bool) {
	i := 1
	// tag name
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '>' && raw[i] != '/' {
		i++
	}

	for i < len(raw) {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			break
		}

		start := i
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '=' && raw[i] != '>' && raw[i] != '/' {
			i++
		}
		attrName := raw[start:i]

		j := i
		for j < len(raw) && isSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '"' || raw[j] == '\'') {
				quote := raw[j]
				j++
				for j < len(raw) && raw[j] != quote {
					j++
				}
				if j < len(raw) {
					j++
				}
			} else {
				for j < len(raw) && !isSpace(raw[j]) && raw[j] != '>' {
					j++
				}
			}
			i = j
		}

		if strings.EqualFold(attrName, name) {
			return attrSpan{start: start, end: i}, true
		}
	}

	return attrSpan{}, false
}

// tagCloseIndex returns the index of the closing ">" or "/>" of an opening tag.
func tagCloseIndex(raw string) int {
	at := len(raw)
	if strings.HasSuffix(raw, ">") {
		at--
		if at > 0 && raw[at-1] == '/' {
			at--
		}
	}
	return at
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
