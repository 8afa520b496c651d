package chart

import (
	"fmt"
	"io"
	"strconv"

	svg "github.com/ajstarks/svgo"
)

const (
	styleTitle  = "font-family:sans-serif;font-size:13px;font-weight:600;fill:" + ColorText
	styleLabel  = "font-family:sans-serif;font-size:10px;text-anchor:middle;fill:" + ColorText
	styleYLabel = "font-family:sans-serif;font-size:10px;text-anchor:end;fill:" + ColorText
	styleLegend = "font-family:sans-serif;font-size:11px;fill:" + ColorText
	styleAxis   = "stroke:" + ColorAxis + ";stroke-width:1"
	styleGrid   = "stroke:#e2e8f0;stroke-width:1"
)

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func fill(color string) string {
	return "fill:" + color
}

func start(w io.Writer, width, height float64, title string) *svg.SVG {
	canvas := svg.New(w)
	canvas.Start(round(width), round(height))
	canvas.Title(title)
	canvas.Text(8, 18, title, styleTitle)
	return canvas
}

func (b *BarChart) Render(w io.Writer) {
	l := b.Layout
	canvas := start(w, l.Width, l.Height, b.title)

	left, right := round(l.MarginLeft), round(l.MarginLeft+l.InnerWidth())
	for _, t := range b.Ticks {
		canvas.Line(left, round(t.Y), right, round(t.Y), styleGrid)
		canvas.Text(left-6, round(t.Y)+3, formatValue(t.Value), styleYLabel)
	}
	canvas.Line(left, round(b.ZeroY), right, round(b.ZeroY), styleAxis)

	for _, r := range b.Bars {
		canvas.Rect(round(r.X), round(r.Y), max(round(r.Width), 1), round(r.Height), fill(r.Color))
		canvas.Text(round(r.X+r.Width/2), round(r.Y)-3, formatValue(r.Value), styleLabel)
	}
	for _, c := range b.Categories {
		canvas.Text(round(c.X), round(l.Height-l.MarginBottom)+14, c.Text, styleLabel)
	}

	for i, s := range b.Series {
		color := ColorForward
		if i == 1 {
			color = ColorReverse
		}
		x := round(l.Width) - 110
		y := 10 + i*14
		canvas.Rect(x, y, 10, 10, fill(color))
		canvas.Text(x+14, y+9, s, styleLegend)
	}
	canvas.End()
}

func (p *PieChart) Render(w io.Writer) {
	legendWidth := 150.0
	canvas := start(w, p.Size+legendWidth, p.Size+10, p.title)

	canvas.Gtransform("translate(0,10)")
	for _, s := range p.Slices {
		canvas.Path(s.Path, fill(s.Color)+";stroke:#fff;stroke-width:1")
	}
	for _, s := range p.Slices {
		if s.ShowLabel {
			canvas.Text(round(s.LabelX), round(s.LabelY)+4, fmt.Sprintf("%.1f%%", s.Percent()),
				"font-family:sans-serif;font-size:11px;text-anchor:middle;fill:#fff")
		}
	}
	if p.IsDonut() {
		canvas.Text(round(p.CX), round(p.CY)+4, formatValue(p.Total), "font-family:sans-serif;font-size:14px;text-anchor:middle;fill:"+ColorText)
	}
	canvas.Gend()

	for i, s := range p.Slices {
		x := round(p.Size) + 8
		y := 30 + i*16
		canvas.Rect(x, y, 10, 10, fill(s.Color))
		canvas.Text(x+14, y+9, fmt.Sprintf("%s (%s)", s.Label, formatValue(s.Value)), styleLegend)
	}
	canvas.End()
}

func (l *LinePlot) Render(w io.Writer) {
	lay := l.Layout
	canvas := start(w, lay.Width, lay.Height, l.title)

	left, right := round(lay.MarginLeft), round(lay.MarginLeft+lay.InnerWidth())
	for _, t := range l.Ticks {
		canvas.Line(left, round(t.Y), right, round(t.Y), styleGrid)
		canvas.Text(left-6, round(t.Y)+3, formatValue(t.Value), styleYLabel)
	}
	bottom := round(lay.MarginTop + lay.InnerHeight())
	canvas.Line(left, bottom, right, bottom, styleAxis)
	canvas.Text(left, bottom+14, "1", styleLabel)
	canvas.Text(right, bottom+14, strconv.Itoa(l.Length), styleLabel)
	canvas.Text(round(lay.MarginLeft+lay.InnerWidth()/2), bottom+28,
		fmt.Sprintf("Position (bp), window %d", l.Window), styleLabel)

	if len(l.Path) > 0 {
		xs := make([]int, len(l.Path))
		ys := make([]int, len(l.Path))
		for i, p := range l.Path {
			xs[i], ys[i] = round(p.X), round(p.Y)
		}
		canvas.Polyline(xs, ys, "fill:none;stroke:"+ColorForward+";stroke-width:1.5")
	}
	canvas.End()
}

func (m *SiteMap) Render(w io.Writer) {
	lay := m.Layout
	canvas := start(w, lay.Width, lay.Height, m.title)

	axisY := round(m.AxisY)
	left, right := round(lay.MarginLeft), round(lay.MarginLeft+lay.InnerWidth())
	canvas.Line(left, axisY, right, axisY, "stroke:"+ColorText+";stroke-width:3")
	canvas.Text(left, axisY+28, "1", styleLabel)
	for _, t := range m.Ticks {
		canvas.Line(round(t.X), axisY, round(t.X), axisY+6, styleAxis)
		canvas.Text(round(t.X), axisY+28, strconv.Itoa(t.Position), styleLabel)
	}
	for _, s := range m.Sites {
		top := axisY - 20 - s.Lane*16
		canvas.Line(round(s.X), top, round(s.X), axisY, "stroke:"+s.Color+";stroke-width:2")
		canvas.Text(round(s.X), top-4, fmt.Sprintf("%s (%d)", s.Label, s.Position), styleLabel)
	}
	canvas.End()
}

func (h *Heatmap) Render(w io.Writer) {
	lay := h.Layout
	canvas := start(w, lay.Width, lay.Height, h.title)

	for _, c := range h.Cells {
		canvas.Rect(round(c.X), round(c.Y), round(c.Width), round(c.Height), fill(c.Color)+";stroke:#fff;stroke-width:1")
		textColor := ColorText
		if c.Intensity > 0.5 {
			textColor = "#fff"
		}
		canvas.Text(round(c.X+c.Width/2), round(c.Y+c.Height/2)+4, formatValue(c.Value),
			"font-family:sans-serif;font-size:10px;text-anchor:middle;fill:"+textColor)
	}
	if len(h.Rows) > 0 {
		ch := lay.InnerHeight() / float64(len(h.Rows))
		for i, r := range h.Rows {
			canvas.Text(round(lay.MarginLeft)-6, round(lay.MarginTop+ch*float64(i)+ch/2)+4, r, styleYLabel)
		}
	}
	if len(h.Cols) > 0 {
		cw := lay.InnerWidth() / float64(len(h.Cols))
		for i, c := range h.Cols {
			canvas.Text(round(lay.MarginLeft+cw*float64(i)+cw/2), round(lay.Height-lay.MarginBottom)+14, c, styleLabel)
		}
	}
	canvas.End()
}
