package backend

import "encoding/json"

type HealthResponse struct {
	Status             string   `json:"status"`
	Version            string   `json:"version"`
	AvailableEndpoints []string `json:"available_endpoints"`
}

type PrimerDesignRequest struct {
	Sequence string  `json:"sequence"`
	MinTm    float64 `json:"min_tm"`
	MaxTm    float64 `json:"max_tm"`
	ProdMin  int     `json:"prod_min"`
	ProdMax  int     `json:"prod_max"`
}

type PrimerPair struct {
	PairID        int     `json:"pair_id"`
	LeftSequence  string  `json:"left_sequence"`
	RightSequence string  `json:"right_sequence"`
	LeftTm        float64 `json:"left_tm"`
	RightTm       float64 `json:"right_tm"`
	LeftGC        float64 `json:"left_gc"`
	RightGC       float64 `json:"right_gc"`
	ProductSize   int     `json:"product_size"`
	Penalty       float64 `json:"penalty"`
}

type PrimerDesignResponse struct {
	Success     bool         `json:"success"`
	PrimerPairs []PrimerPair `json:"primer_pairs"`
	Message     string       `json:"message,omitempty"`
}

type PrimerAnalysisRequest struct {
	Sequence string `json:"sequence"`
}

type PrimerAnalysisResponse struct {
	Sequence    string   `json:"sequence"`
	Tm          float64  `json:"tm"`
	HairpinTm   float64  `json:"hairpin_tm"`
	HomodimerTm float64  `json:"homodimer_tm"`
	Warnings    []string `json:"warnings"`
}

type CompatibilityRequest struct {
	ForwardSeq string `json:"forward_seq"`
	ReverseSeq string `json:"reverse_seq"`
}

type CompatibilityResponse struct {
	HasDimerRisk   bool    `json:"has_dimer_risk"`
	DimerTm        float64 `json:"dimer_tm"`
	Recommendation string  `json:"recommendation"`
}

type SpecificityRequest struct {
	PrimerSeq   string `json:"primer_seq"`
	TemplateSeq string `json:"template_seq"`
}

type SpecificityResponse struct {
	IsSpecific     bool   `json:"is_specific"`
	Count          int    `json:"count"`
	Warning        string `json:"warning,omitempty"`
	Recommendation string `json:"recommendation"`
}

type RestrictionRequest struct {
	Sequence string `json:"sequence"`
}

type RestrictionEnzyme struct {
	EnzymeName   string `json:"enzyme_name"`
	CutCount     int    `json:"cut_count"`
	CutPositions []int  `json:"cut_positions"`
}

type RestrictionResponse struct {
	TotalEnzymesFound int                 `json:"total_enzymes_found"`
	Enzymes           []RestrictionEnzyme `json:"enzymes"`
	Message           string              `json:"message,omitempty"`
}

type GibsonRequest struct {
	VectorSeq     string `json:"vector_seq"`
	InsertSeq     string `json:"insert_seq"`
	OverlapLength int    `json:"overlap_length"`
}

type GibsonResponse struct {
	ForwardPrimer    string `json:"forward_primer"`
	ReversePrimer    string `json:"reverse_primer"`
	OverlapLength    int    `json:"overlap_length"`
	VectorOverlapFwd string `json:"vector_overlap_fwd"`
	VectorOverlapRev string `json:"vector_overlap_rev"`
	InsertBindingFwd string `json:"insert_binding_fwd"`
	InsertBindingRev string `json:"insert_binding_rev"`
	Message          string `json:"message,omitempty"`
}

type NCBISearchRequest struct {
	Query  string `json:"query"`
	Retmax int    `json:"retmax"`
}

type NCBIRecord struct {
	Accession string `json:"accession"`
	Title     string `json:"title"`
	ID        string `json:"id"`
	Length    int    `json:"length"`
}

type NCBISearchResponse struct {
	Success bool         `json:"success"`
	Results []NCBIRecord `json:"results"`
	Message string       `json:"message,omitempty"`
}

type NCBIFetchRequest struct {
	AccessionID string `json:"accession_id"`
}

type NCBISequence struct {
	Success     bool   `json:"success"`
	Accession   string `json:"accession"`
	Description string `json:"description"`
	Sequence    string `json:"sequence"`
	Length      int    `json:"length"`
	Message     string `json:"message,omitempty"`
}

type PaperSearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
	Sort       string `json:"sort"`
}

type Paper struct {
	PMID            string `json:"pmid"`
	Title           string `json:"title"`
	Authors         string `json:"authors"`
	Journal         string `json:"journal"`
	JournalAbbrev   string `json:"journal_abbrev,omitempty"`
	Year            string `json:"year"`
	Date            string `json:"date,omitempty"`
	AbstractPreview string `json:"abstract_preview,omitempty"`
	DOI             string `json:"doi,omitempty"`
	PubMedURL       string `json:"pubmed_url,omitempty"`
}

type PaperSearchResponse struct {
	Success bool    `json:"success"`
	Results []Paper `json:"results"`
	Message string  `json:"message,omitempty"`
}

type PaperFetchRequest struct {
	PMID string `json:"pmid"`
}

type PaperDetails struct {
	Success         bool     `json:"success"`
	PMID            string   `json:"pmid"`
	Title           string   `json:"title"`
	Authors         string   `json:"authors"`
	AuthorsList     []string `json:"authors_list,omitempty"`
	Journal         string   `json:"journal"`
	Year            string   `json:"year"`
	Date            string   `json:"date,omitempty"`
	Abstract        string   `json:"abstract"`
	DOI             string   `json:"doi,omitempty"`
	PubMedURL       string   `json:"pubmed_url,omitempty"`
	Keywords        []string `json:"keywords"`
	MeshTerms       []string `json:"mesh_terms"`
	PublicationType []string `json:"publication_type,omitempty"`
	Language        []string `json:"language,omitempty"`
	Source          string   `json:"source,omitempty"`
	Message         string   `json:"message,omitempty"`
}

type ChatHistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type ChatRequest struct {
	Message string             `json:"message"`
	History []ChatHistoryEntry `json:"history"`
	Model   string             `json:"model,omitempty"`
}

// FunctionCall is one backend tool invocation reported by the chat endpoint.
// Arguments and Result are kept raw; their shape depends on Function.
type FunctionCall struct {
	Function  string          `json:"function"`
	Arguments json.RawMessage `json:"arguments"`
	Result    json.RawMessage `json:"result"`
}

// ChatResponse.Success is optional; a turn failed when Error is set or Success is
// present and false.
type ChatResponse struct {
	Success       *bool          `json:"success,omitempty"`
	Response      string         `json:"response"`
	Model         string         `json:"model,omitempty"`
	FunctionCalls []FunctionCall `json:"function_calls"`
	Iterations    int            `json:"iterations"`
	Error         string         `json:"error,omitempty"`
}

type ModelsResponse struct {
	AvailableModels []string                   `json:"available_models"`
	ModelDetails    map[string]json.RawMessage `json:"model_details"`
	DefaultModel    string                     `json:"default_model"`
}

func (r *ChatResponse) Failed() bool {
	return r.Error != "" || (r.Success != nil && !*r.Success)
}
