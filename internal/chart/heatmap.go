package chart

import (
	"fmt"
	"math"
)

const (
	heatLow  = 0xe0e7ff
	heatHigh = 0x312e81
)

type Cell struct {
	Row, Col            int
	X, Y, Width, Height float64
	Value               float64
	Intensity           float64
	Color               string
}

type Heatmap struct {
	title  string
	Layout Layout
	Rows   []string
	Cols   []string
	Cells  []Cell
	Min    float64
	Max    float64
}

func (h *Heatmap) Kind() Kind    { return KindHeatmap }
func (h *Heatmap) Title() string { return h.title }

// NewHeatmap maps values[row][col] to cells. With perColumn set each column is scaled on
// its own range, which keeps columns of different units comparable.
func NewHeatmap(title string, rows, cols []string, values [][]float64, perColumn bool, layout Layout) *Heatmap {
	h := &Heatmap{title: title, Layout: layout, Rows: rows, Cols: cols}
	if len(rows) == 0 || len(cols) == 0 {
		return h
	}

	var all []float64
	colValues := make([][]float64, len(cols))
	for r := range rows {
		for c := range cols {
			v := cellValue(values, r, c)
			all = append(all, v)
			colValues[c] = append(colValues[c], v)
		}
	}
	h.Min, h.Max = minMax(all)

	cw := layout.InnerWidth() / float64(len(cols))
	ch := layout.InnerHeight() / float64(len(rows))
	for r := range rows {
		for c := range cols {
			v := cellValue(values, r, c)
			lo, hi := h.Min, h.Max
			if perColumn {
				lo, hi = minMax(colValues[c])
			}
			t := Domain{Min: lo, Max: hi}.Fraction(v)
			h.Cells = append(h.Cells, Cell{
				Row: r, Col: c,
				X:         layout.MarginLeft + cw*float64(c),
				Y:         layout.MarginTop + ch*float64(r),
				Width:     cw,
				Height:    ch,
				Value:     v,
				Intensity: t,
				Color:     interpolate(heatLow, heatHigh, t),
			})
		}
	}
	return h
}

func cellValue(values [][]float64, r, c int) float64 {
	if r < len(values) && c < len(values[r]) {
		return values[r][c]
	}
	return 0
}

func interpolate(lo, hi int, t float64) string {
	t = math.Min(math.Max(t, 0), 1)
	channel := func(shift uint) int {
		a := float64((lo >> shift) & 0xff)
		b := float64((hi >> shift) & 0xff)
		return int(math.Round(a + (b-a)*t))
	}
	return fmt.Sprintf("#%02x%02x%02x", channel(16), channel(8), channel(0))
}
