// ABOUTME: Markdown to HTML rendering for generated long-form copy
// ABOUTME: Raw HTML in the source is omitted from the output

package content

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// RenderMarkdown converts markdown to an HTML fragment
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
