package core

import (
	"encoding/json"
	"fmt"
	"sync"

	"unibio.dev/workbench/internal/sequence"
)

// ActiveTool selects the panel shown in the main area.
type ActiveTool string

const (
	ToolDashboard   ActiveTool = "dashboard"
	ToolPrimer      ActiveTool = "primer"
	ToolRestriction ActiveTool = "restriction"
	ToolGibson      ActiveTool = "gibson"
	ToolNCBI        ActiveTool = "ncbi"
	ToolPapers      ActiveTool = "papers"
)

// ActiveTools lists the tools in navigation order.
var ActiveTools = []ActiveTool{ToolDashboard, ToolPrimer, ToolRestriction, ToolGibson, ToolNCBI, ToolPapers}

func ParseActiveTool(s string) (ActiveTool, bool) {
	for _, t := range ActiveTools {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func (t ActiveTool) Title() string {
	switch t {
	case ToolDashboard:
		return "Dashboard"
	case ToolPrimer:
		return "Primer Design"
	case ToolRestriction:
		return "Restriction Analyzer"
	case ToolGibson:
		return "Gibson Assembly"
	case ToolNCBI:
		return "NCBI Search"
	case ToolPapers:
		return "Paper Search"
	}
	return string(t)
}

type PrimerForm struct {
	Sequence            string  `json:"sequence"`
	MinTm               float64 `json:"min_tm"`
	MaxTm               float64 `json:"max_tm"`
	ProdMin             int     `json:"prod_min"`
	ProdMax             int     `json:"prod_max"`
	AnalyzeSequence     string  `json:"analyze_sequence"`
	ForwardSeq          string  `json:"forward_seq"`
	ReverseSeq          string  `json:"reverse_seq"`
	SpecificityPrimer   string  `json:"specificity_primer"`
	SpecificityTemplate string  `json:"specificity_template"`
}

type RestrictionForm struct {
	Sequence string `json:"sequence"`
}

type GibsonForm struct {
	VectorSeq     string `json:"vector_seq"`
	InsertSeq     string `json:"insert_seq"`
	OverlapLength int    `json:"overlap_length"`
}

type NCBIForm struct {
	Query       string `json:"query"`
	Retmax      int    `json:"retmax"`
	AccessionID string `json:"accession_id"`
}

type PaperForm struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Sort       string `json:"sort"`
	PMID       string `json:"pmid"`
}

type Forms struct {
	Primer      PrimerForm      `json:"primer"`
	Restriction RestrictionForm `json:"restriction"`
	Gibson      GibsonForm      `json:"gibson"`
	NCBI        NCBIForm        `json:"ncbi"`
	Papers      PaperForm       `json:"papers"`
}

func DefaultForms() Forms {
	return Forms{
		Primer: PrimerForm{MinTm: 57, MaxTm: 63, ProdMin: 100, ProdMax: 300},
		Gibson: GibsonForm{OverlapLength: sequence.DefaultOverlapLength},
		NCBI:   NCBIForm{Retmax: 5},
		Papers: PaperForm{MaxResults: 10, Sort: "relevance"},
	}
}

// AppState is the session-wide state: which tool is active, every panel's form data and
// the chat model. Each slice has exactly one setter.
type AppState struct {
	mu     sync.RWMutex
	active ActiveTool
	forms  Forms
	model  string
}

func NewAppState() *AppState {
	return &AppState{active: ToolDashboard, forms: DefaultForms()}
}

// RestoreAppState rebuilds state from its persisted form. Unknown tools fall back to the
// dashboard and missing form fields keep their defaults.
func RestoreAppState(active string, forms []byte, model string) (*AppState, error) {
	s := NewAppState()
	if t, ok := ParseActiveTool(active); ok {
		s.active = t
	}
	s.model = model
	if len(forms) > 0 {
		if err := json.Unmarshal(forms, &s.forms); err != nil {
			return s, fmt.Errorf("failed to decode saved forms: %w", err)
		}
	}
	return s, nil
}

func (s *AppState) MarshalForms() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.forms)
}

func (s *AppState) Active() ActiveTool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *AppState) Forms() Forms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.forms
}

func (s *AppState) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *AppState) SetActiveTool(t ActiveTool) {
	s.mu.Lock()
	s.active = t
	s.mu.Unlock()
}

func (s *AppState) SetModel(model string) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// The form setters report whether anything changed.

func (s *AppState) SetPrimerForm(f PrimerForm) bool {
	return setForm(s, &s.forms.Primer, f)
}

func (s *AppState) SetRestrictionForm(f RestrictionForm) bool {
	return setForm(s, &s.forms.Restriction, f)
}

func (s *AppState) SetGibsonForm(f GibsonForm) bool {
	return setForm(s, &s.forms.Gibson, f)
}

func (s *AppState) SetNCBIForm(f NCBIForm) bool {
	return setForm(s, &s.forms.NCBI, f)
}

func (s *AppState) SetPaperForm(f PaperForm) bool {
	return setForm(s, &s.forms.Papers, f)
}

func setForm[F comparable](s *AppState, slot *F, f F) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if *slot == f {
		return false
	}
	*slot = f
	return true
}
