package chart

import "math"

// Headroom above the tallest bar.
const barHeadroom = 1.15

type Rect struct {
	X, Y, Width, Height float64
	Value               float64
	Label               string
	Color               string
}

type AxisLabel struct {
	Text string
	X    float64
}

type YTick struct {
	Value float64
	Y     float64
}

type BarChart struct {
	title      string
	grouped    bool
	Layout     Layout
	Domain     Domain
	ZeroY      float64
	Bars       []Rect
	Categories []AxisLabel
	Ticks      []YTick
	Series     []string
	Unit       string
}

func (b *BarChart) Kind() Kind {
	if b.grouped {
		return KindGroupedBar
	}
	return KindBar
}

func (b *BarChart) Title() string {
	return b.title
}

// BarDomain is [min(0, min(values)), max(values)*1.15]. A degenerate interval is widened
// by one unit so the scale stays finite.
func BarDomain(values []float64) Domain {
	lo, hi := minMax(values)
	d := Domain{Min: math.Min(0, lo), Max: hi * barHeadroom}
	if d.Max <= d.Min {
		d.Max = d.Min + 1
	}
	return d
}

func (b *BarChart) y(v float64) float64 {
	return b.Layout.MarginTop + b.Layout.InnerHeight()*(1-b.Domain.Fraction(v))
}

// baseline is zero, or the domain edge nearest to it when zero is outside the domain.
func (b *BarChart) baseline() float64 {
	return math.Min(math.Max(0, b.Domain.Min), b.Domain.Max)
}

func (b *BarChart) setup(values []float64) {
	b.Domain = BarDomain(values)
	b.ZeroY = b.y(b.baseline())
	for _, v := range b.Domain.Ticks(4) {
		b.Ticks = append(b.Ticks, YTick{Value: v, Y: b.y(v)})
	}
}

func (b *BarChart) bar(x, width, v float64, label, color string) Rect {
	base := b.baseline()
	top := b.y(math.Max(v, base))
	bottom := b.y(math.Min(v, base))
	return Rect{X: x, Y: top, Width: width, Height: bottom - top, Value: v, Label: label, Color: color}
}

// NewBar lays out one bar per datum in input order.
func NewBar(title string, data []Datum, layout Layout) *BarChart {
	b := &BarChart{title: title, Layout: layout}
	values := make([]float64, len(data))
	for i, d := range data {
		values[i] = d.Value
	}
	b.setup(values)
	if len(data) == 0 {
		return b
	}

	slot := layout.InnerWidth() / float64(len(data))
	width := slot * 0.7
	for i, d := range data {
		color := d.Color
		if color == "" {
			color = paletteColor(i)
		}
		x := layout.MarginLeft + slot*float64(i) + (slot-width)/2
		b.Bars = append(b.Bars, b.bar(x, width, d.Value, d.Label, color))
		b.Categories = append(b.Categories, AxisLabel{Text: d.Label, X: x + width/2})
	}
	return b
}

// NewGroupedBar draws two adjacent bars per category on one shared scale. Missing values
// in the shorter series count as zero.
func NewGroupedBar(title string, categories []string, series [2]string, first, second []float64, layout Layout) *BarChart {
	b := &BarChart{title: title, grouped: true, Layout: layout, Series: series[:]}

	at := func(vs []float64, i int) float64 {
		if i < len(vs) {
			return vs[i]
		}
		return 0
	}
	values := make([]float64, 0, 2*len(categories))
	for i := range categories {
		values = append(values, at(first, i), at(second, i))
	}
	b.setup(values)
	if len(categories) == 0 {
		return b
	}

	slot := layout.InnerWidth() / float64(len(categories))
	width := slot * 0.35
	for i, cat := range categories {
		x := layout.MarginLeft + slot*float64(i) + (slot-2*width)/2
		b.Bars = append(b.Bars,
			b.bar(x, width, at(first, i), series[0], ColorForward),
			b.bar(x+width, width, at(second, i), series[1], ColorReverse),
		)
		b.Categories = append(b.Categories, AxisLabel{Text: cat, X: x + width})
	}
	return b
}
