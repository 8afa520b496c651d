package api

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/core"
	"unibio.dev/workbench/internal/markdown"
	"unibio.dev/workbench/internal/sequence"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"markdown": markdown.Render,
	"svg":      svgMarkup,
	"abbrev":   func(seq string) string { return sequence.Abbreviate(seq, 30) },
	"fixed":    func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	"title":    func(t core.ActiveTool) string { return t.Title() },
}

func parseTemplates() (*template.Template, error) {
	t, err := template.New("workbench").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	return t, nil
}

// svgMarkup inlines a chart. svgo writes a full document, so the XML prolog and doctype
// are cut before the <svg> element.
func svgMarkup(c chart.Chart) template.HTML {
	s := chart.SVG(c)
	if i := strings.Index(s, "<svg"); i > 0 {
		s = s[i:]
	}
	return template.HTML(s)
}
