package report

import (
	"bytes"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlRenderer = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify))

const pageHead = `<!doctype html>
<html><head><meta charset="utf-8"><title>Crisis replay</title>
<style>body{font-family:sans-serif;max-width:52rem;margin:2rem auto;padding:0 1rem}
table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.25rem .6rem}
td:last-child{text-align:right}img{max-width:100%}</style></head><body>
`

// HTML converts report markdown into a standalone page. Extra markup (chart
// images) is appended after the report body.
func HTML(markdown string, extra ...string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(pageHead)
	if err := htmlRenderer.Convert([]byte(markdown), &buf); err != nil {
		return nil, err
	}
	for _, e := range extra {
		buf.WriteString(e)
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}

// Terminal styles report markdown for a terminal of the given width.
func Terminal(markdown string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
