package chart

import "math"

const (
	DefaultTickCount = 10
	maxTicks         = 10
)

// TickPositions spaces ticks ceil(length/tickCount/100)*100 apart, at most 10 ticks,
// and always ends on length itself.
func TickPositions(length, tickCount int) []int {
	if length <= 0 {
		return nil
	}
	if tickCount <= 0 {
		tickCount = DefaultTickCount
	}
	spacing := int(math.Ceil(float64(length)/float64(tickCount)/100)) * 100

	ticks := make([]int, 0, maxTicks)
	for pos := spacing; pos < length && len(ticks) < maxTicks-1; pos += spacing {
		ticks = append(ticks, pos)
	}
	return append(ticks, length)
}

type SiteMarker struct {
	Label    string
	Position int
}

type Site struct {
	Label    string
	Position int
	X        float64
	Color    string
	// Lane staggers labels of neighbouring sites.
	Lane int
}

type Tick struct {
	Position int
	X        float64
}

type SiteMap struct {
	title  string
	Layout Layout
	Length int
	AxisY  float64
	Sites  []Site
	Ticks  []Tick
}

func (m *SiteMap) Kind() Kind    { return KindSiteMap }
func (m *SiteMap) Title() string { return m.title }

// NewSiteMap places markers on a linear backbone of the given length. Positions outside
// 0..length are clamped.
func NewSiteMap(title string, length int, markers []SiteMarker, layout Layout) *SiteMap {
	m := &SiteMap{title: title, Layout: layout, Length: length, AxisY: layout.MarginTop + layout.InnerHeight()*0.6}
	if length <= 0 {
		return m
	}
	x := func(pos int) float64 {
		pos = min(max(pos, 0), length)
		return layout.MarginLeft + layout.InnerWidth()*float64(pos)/float64(length)
	}
	for _, p := range TickPositions(length, DefaultTickCount) {
		m.Ticks = append(m.Ticks, Tick{Position: p, X: x(p)})
	}
	for i, mk := range markers {
		m.Sites = append(m.Sites, Site{
			Label:    mk.Label,
			Position: mk.Position,
			X:        x(mk.Position),
			Color:    paletteColor(i),
			Lane:     i % 3,
		})
	}
	return m
}
