package core

import (
	"context"
	"strconv"
	"strings"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/toolcalls"
)

const (
	GroupSingleCutters   = "Single Cutters"
	GroupDoubleCutters   = "Double Cutters"
	GroupMultipleCutters = "Multiple Cutters"
)

type EnzymeRow struct {
	Name      string
	CutCount  int
	Positions string
}

type EnzymeGroup struct {
	Title   string
	Enzymes []EnzymeRow
}

type RestrictionView struct {
	Length  int
	Total   int
	Groups  []EnzymeGroup
	Message string
	Charts  []chart.Chart
	Error   string
}

type RestrictionPanel struct {
	panelBase
	backend Backend
	view    RestrictionView
}

func NewRestrictionPanel(b Backend) *RestrictionPanel {
	return &RestrictionPanel{panelBase: panelBase{name: "restriction"}, backend: b}
}

func (p *RestrictionPanel) View() RestrictionView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

func (p *RestrictionPanel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
	p.view = RestrictionView{}
}

func (p *RestrictionPanel) Analyze(ctx context.Context, f RestrictionForm) error {
	seq := sequence.Sanitize(f.Sequence)
	if err := sequence.RequireMinLength("sequence", seq, sequence.MinRestrictionLength); err != nil {
		return p.reject(err)
	}

	req := backend.RestrictionRequest{Sequence: seq}
	return submit(ctx, &p.panelBase, "analyze",
		func(ctx context.Context) (*backend.RestrictionResponse, error) {
			return p.backend.FindRestrictionSites(ctx, req)
		},
		func(resp *backend.RestrictionResponse) {
			p.view = RestrictionView{
				Length:  len(seq),
				Total:   resp.TotalEnzymesFound,
				Groups:  GroupEnzymes(resp.Enzymes),
				Message: resp.Message,
			}
			if len(resp.Enzymes) == 0 && p.view.Message == "" {
				p.view.Message = "No restriction sites found."
			}
			p.view.Charts, _ = toolcalls.ChartsFor(toolcalls.ToolFindRestrictionSites, req, resp)
		})
}

// GroupEnzymes sorts enzymes into single, double and multiple cutters, keeping the
// backend's order inside each group. Empty groups are left out.
func GroupEnzymes(enzymes []backend.RestrictionEnzyme) []EnzymeGroup {
	groups := []EnzymeGroup{
		{Title: GroupSingleCutters},
		{Title: GroupDoubleCutters},
		{Title: GroupMultipleCutters},
	}
	for _, e := range enzymes {
		var i int
		switch {
		case e.CutCount <= 0:
			continue
		case e.CutCount == 1:
			i = 0
		case e.CutCount == 2:
			i = 1
		default:
			i = 2
		}
		groups[i].Enzymes = append(groups[i].Enzymes, EnzymeRow{
			Name:      e.EnzymeName,
			CutCount:  e.CutCount,
			Positions: PositionLabel(e.CutPositions),
		})
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.Enzymes) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// PositionLabel renders "Position: n" for one cut and "Positions: a, b" for several.
func PositionLabel(positions []int) string {
	switch len(positions) {
	case 0:
		return ""
	case 1:
		return "Position: " + strconv.Itoa(positions[0])
	}
	parts := make([]string, len(positions))
	for i, pos := range positions {
		parts[i] = strconv.Itoa(pos)
	}
	return "Positions: " + strings.Join(parts, ", ")
}
