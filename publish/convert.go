package publish

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// Matches a whole <img> tag, capturing its src attribute.  Goldmark always
// emits src as the first attribute, but the pattern tolerates others before
// it.
var imgTagRe = regexp.MustCompile(`<img\b[^>]*?\bsrc="([^"]*)"[^>]*?/?>`)

// Converter renders markdown to Confluence storage format: a goldmark pass to
// HTML, then mapped <img> tags rewritten to ac:image elements referencing
// uploaded attachments.
type Converter struct {
	Logger Logger
}

// Convert runs the document through goldmark (GFM extensions plus footnotes,
// raw HTML allowed) and rewrites every image tag whose src is in the registry
// mapping.  Unmapped tags -- typically remote URLs -- stay as plain <img> so
// the wiki renders them from their original location.
func (c *Converter) Convert(text string, reg *Registry) (string, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("publish: markdown conversion failed: %w", err)
	}

	converted := imgTagRe.ReplaceAllStringFunc(buf.String(), func(tag string) string {
		src := imgTagRe.FindStringSubmatch(tag)[1]
		name, ok := reg.Lookup(src)
		if !ok {
			return tag
		}
		return fmt.Sprintf(`<ac:image><ri:attachment ri:filename="%s" /></ac:image>`, html.EscapeString(name))
	})

	return converted, nil
}
