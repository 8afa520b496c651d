package core

import (
	"context"
	"strings"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
	"unibio.dev/workbench/internal/toolcalls"
)

const (
	minPaperResults = 1
	maxPaperResults = 50
)

// PaperSorts are the orderings PubMed accepts.
var PaperSorts = []string{"relevance", "pub_date", "first_author"}

type PaperView struct {
	Results       []backend.Paper
	SearchMessage string
	Details       *backend.PaperDetails
	Charts        []chart.Chart
	Error         string
}

type PaperPanel struct {
	panelBase
	backend Backend
	view    PaperView
}

func NewPaperPanel(b Backend) *PaperPanel {
	return &PaperPanel{panelBase: panelBase{name: "papers"}, backend: b}
}

func (p *PaperPanel) View() PaperView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Error = p.err
	return v
}

func (p *PaperPanel) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidate()
	p.view = PaperView{}
}

func (p *PaperPanel) Search(ctx context.Context, f PaperForm) error {
	query := strings.TrimSpace(f.Query)
	if err := sequence.Required("query", query, "Enter a search query"); err != nil {
		return p.reject(err)
	}

	req := backend.PaperSearchRequest{
		Query:      query,
		MaxResults: clamp(f.MaxResults, minPaperResults, maxPaperResults),
		Sort:       normalizeSort(f.Sort),
	}
	return submit(ctx, &p.panelBase, "search",
		func(ctx context.Context) (*backend.PaperSearchResponse, error) {
			resp, err := p.backend.SearchPapers(ctx, req)
			if err == nil && !resp.Success {
				return nil, resultError(resp.Message, "Paper search failed")
			}
			return resp, err
		},
		func(resp *backend.PaperSearchResponse) {
			p.view.Results = resp.Results
			p.view.SearchMessage = ""
			if len(resp.Results) == 0 {
				p.view.SearchMessage = "No papers found for this query."
			}
			p.view.Charts, _ = toolcalls.ChartsFor(toolcalls.ToolSearchPapers, req, resp)
		})
}

func (p *PaperPanel) Fetch(ctx context.Context, f PaperForm) error {
	pmid := strings.TrimSpace(f.PMID)
	if err := sequence.Required("pmid", pmid, "Enter a PubMed ID"); err != nil {
		return p.reject(err)
	}

	req := backend.PaperFetchRequest{PMID: pmid}
	return submit(ctx, &p.panelBase, "fetch",
		func(ctx context.Context) (*backend.PaperDetails, error) {
			resp, err := p.backend.FetchPaper(ctx, req)
			if err == nil && !resp.Success {
				return nil, resultError(resp.Message, "Paper not found")
			}
			return resp, err
		},
		func(resp *backend.PaperDetails) {
			p.view.Details = resp
		})
}

func normalizeSort(s string) string {
	for _, allowed := range PaperSorts {
		if s == allowed {
			return s
		}
	}
	return PaperSorts[0]
}
