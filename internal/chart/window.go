package chart

import (
	"unibio.dev/workbench/internal/sequence"
)

// WindowStep is how far the window advances: a quarter window, at least one base.
func WindowStep(window int) int {
	return max(1, window/4)
}

type WindowPoint struct {
	Position int
	Value    float64
}

// SlidingWindow applies metric to each window of seq and reports it at the window's
// midpoint. Sequences shorter than the window yield no points.
func SlidingWindow(seq string, window int, metric func(string) float64) []WindowPoint {
	if window <= 0 || len(seq) < window {
		return nil
	}
	step := WindowStep(window)
	points := make([]WindowPoint, 0, (len(seq)-window)/step+1)
	for start := 0; start+window <= len(seq); start += step {
		points = append(points, WindowPoint{
			Position: start + window/2,
			Value:    metric(seq[start : start+window]),
		})
	}
	return points
}

type Point struct {
	X, Y float64
}

type LinePlot struct {
	title   string
	Layout  Layout
	Length  int
	Window  int
	YDomain Domain
	Points  []WindowPoint
	Path    []Point
	Ticks   []YTick
	YLabel  string
}

func (l *LinePlot) Kind() Kind    { return KindLine }
func (l *LinePlot) Title() string { return l.title }

// NewGCPlot plots GC percent over a sliding window.
func NewGCPlot(title, seq string, window int, layout Layout) *LinePlot {
	l := &LinePlot{
		title:   title,
		Layout:  layout,
		Length:  len(seq),
		Window:  window,
		YDomain: Domain{Min: 0, Max: 100},
		Points:  SlidingWindow(seq, window, sequence.GCPercent),
		YLabel:  "GC %",
	}
	y := func(v float64) float64 {
		return layout.MarginTop + layout.InnerHeight()*(1-l.YDomain.Fraction(v))
	}
	for _, v := range l.YDomain.Ticks(4) {
		l.Ticks = append(l.Ticks, YTick{Value: v, Y: y(v)})
	}
	if l.Length == 0 {
		return l
	}
	for _, p := range l.Points {
		l.Path = append(l.Path, Point{
			X: layout.MarginLeft + layout.InnerWidth()*float64(p.Position)/float64(l.Length),
			Y: y(p.Value),
		})
	}
	return l
}

// DefaultGCWindow picks a window that gives a readable curve for a sequence length.
func DefaultGCWindow(length int) int {
	switch {
	case length >= 10000:
		return 500
	case length >= 2000:
		return 100
	case length >= 500:
		return 50
	default:
		return 20
	}
}
