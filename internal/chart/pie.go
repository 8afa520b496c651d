package chart

import (
	"fmt"
	"math"
)

const (
	pieStartAngle = -90.0
	// Slices at or below this share of the total get no percentage label.
	pieLabelMinShare = 0.05
)

type Slice struct {
	Label      string
	Value      float64
	Share      float64
	StartAngle float64
	EndAngle   float64
	Color      string
	ShowLabel  bool
	LabelX     float64
	LabelY     float64
	Path       string
}

func (s Slice) Percent() float64 {
	return s.Share * 100
}

type PieChart struct {
	title       string
	Size        float64
	CX, CY      float64
	Radius      float64
	InnerRadius float64
	Total       float64
	Slices      []Slice
}

func (p *PieChart) Kind() Kind    { return KindPie }
func (p *PieChart) Title() string { return p.title }
func (p *PieChart) IsDonut() bool { return p.InnerRadius > 0 }

// NewPie lays slices out clockwise from the top in input order. Non-positive values are
// dropped. total <= 0 means "sum of the values". donut > 0 is the inner radius as a
// fraction of the outer one.
func NewPie(title string, data []Datum, total float64, donut float64) *PieChart {
	const size = 260.0
	p := &PieChart{title: title, Size: size, CX: size / 2, CY: size / 2, Radius: size/2 - 10}
	if donut > 0 && donut < 1 {
		p.InnerRadius = p.Radius * donut
	}

	var sum float64
	for _, d := range data {
		if d.Value > 0 {
			sum += d.Value
		}
	}
	if total <= 0 {
		total = sum
	}
	p.Total = total
	if total <= 0 {
		return p
	}

	angle := pieStartAngle
	for i, d := range data {
		if d.Value <= 0 {
			continue
		}
		color := d.Color
		if color == "" {
			color = paletteColor(i)
		}
		share := d.Value / total
		s := Slice{
			Label:      d.Label,
			Value:      d.Value,
			Share:      share,
			StartAngle: angle,
			EndAngle:   angle + share*360,
			Color:      color,
			ShowLabel:  share > pieLabelMinShare,
		}
		mid := (s.StartAngle + s.EndAngle) / 2
		labelR := p.Radius * 0.65
		if p.InnerRadius > 0 {
			labelR = (p.Radius + p.InnerRadius) / 2
		}
		s.LabelX, s.LabelY = p.point(labelR, mid)
		s.Path = p.slicePath(s.StartAngle, s.EndAngle)
		p.Slices = append(p.Slices, s)
		angle = s.EndAngle
	}
	return p
}

func (p *PieChart) point(r, deg float64) (float64, float64) {
	rad := deg * math.Pi / 180
	return p.CX + r*math.Cos(rad), p.CY + r*math.Sin(rad)
}

func (p *PieChart) slicePath(start, end float64) string {
	// A full circle cannot be drawn as one arc.
	if end-start >= 359.999 {
		end = start + 359.99
	}
	large := 0
	if end-start > 180 {
		large = 1
	}
	x1, y1 := p.point(p.Radius, start)
	x2, y2 := p.point(p.Radius, end)
	if p.InnerRadius == 0 {
		return fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f Z",
			p.CX, p.CY, x1, y1, p.Radius, p.Radius, large, x2, y2)
	}
	ix1, iy1 := p.point(p.InnerRadius, end)
	ix2, iy2 := p.point(p.InnerRadius, start)
	return fmt.Sprintf("M%.2f,%.2f A%.2f,%.2f 0 %d 1 %.2f,%.2f L%.2f,%.2f A%.2f,%.2f 0 %d 0 %.2f,%.2f Z",
		x1, y1, p.Radius, p.Radius, large, x2, y2,
		ix1, iy1, p.InnerRadius, p.InnerRadius, large, ix2, iy2)
}
