// Package chart turns numbers into chart geometry and renders that geometry as SVG.
//
// Every constructor is a pure function of its input: the same data yields the same
// geometry and byte-identical SVG.
package chart

import (
	"bytes"
	"io"
	"math"
)

type Kind string

const (
	KindBar        Kind = "bar"
	KindGroupedBar Kind = "grouped-bar"
	KindPie        Kind = "pie"
	KindHeatmap    Kind = "heatmap"
	KindLine       Kind = "line"
	KindSiteMap    Kind = "site-map"
)

type Chart interface {
	Kind() Kind
	Title() string
	Render(w io.Writer)
}

// Datum is one labeled value. An empty Color means "next palette color".
type Datum struct {
	Label string
	Value float64
	Color string
}

var Palette = []string{
	"#4f46e5", "#0ea5e9", "#10b981", "#f59e0b",
	"#ef4444", "#8b5cf6", "#ec4899", "#14b8a6",
}

const (
	ColorDanger  = "#ef4444"
	ColorOK      = "#10b981"
	ColorAxis    = "#94a3b8"
	ColorText    = "#334155"
	ColorForward = "#4f46e5"
	ColorReverse = "#0ea5e9"
)

func paletteColor(i int) string {
	return Palette[i%len(Palette)]
}

type Layout struct {
	Width, Height                                    float64
	MarginTop, MarginRight, MarginBottom, MarginLeft float64
}

func DefaultLayout() Layout {
	return Layout{
		Width: 480, Height: 260,
		MarginTop: 28, MarginRight: 16, MarginBottom: 44, MarginLeft: 48,
	}
}

func (l Layout) InnerWidth() float64 {
	return l.Width - l.MarginLeft - l.MarginRight
}

func (l Layout) InnerHeight() float64 {
	return l.Height - l.MarginTop - l.MarginBottom
}

// Domain is a closed value interval mapped onto pixels.
type Domain struct {
	Min, Max float64
}

func (d Domain) Span() float64 {
	return d.Max - d.Min
}

// Fraction places v in the domain, 0 at Min and 1 at Max.
func (d Domain) Fraction(v float64) float64 {
	if d.Span() == 0 {
		return 0
	}
	return (v - d.Min) / d.Span()
}

// Ticks splits the domain into n equal steps, n+1 values.
func (d Domain) Ticks(n int) []float64 {
	if n < 1 {
		n = 1
	}
	out := make([]float64, n+1)
	for i := range out {
		out[i] = d.Min + d.Span()*float64(i)/float64(n)
	}
	return out
}

// SVG renders c to a standalone SVG document.
func SVG(c Chart) string {
	var buf bytes.Buffer
	c.Render(&buf)
	return buf.String()
}

func round(v float64) int {
	return int(math.Round(v))
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
