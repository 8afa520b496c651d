// Package toolcalls turns the tool invocations reported by the chat endpoint into charts.
package toolcalls

// Tool is a backend tool the chat model can call.
type Tool int

const (
	ToolUnknown Tool = iota
	ToolDesignPrimers
	ToolAnalyzePrimer
	ToolCheckCompatibility
	ToolCheckSpecificity
	ToolFindRestrictionSites
	ToolDesignGibson
	ToolSearchNCBI
	ToolFetchNCBI
	ToolSearchPapers
	ToolFetchPaper
)

var tools = []struct {
	tool    Tool
	name    string
	display string
}{
	{ToolDesignPrimers, "design_primers", "Primer Design"},
	{ToolAnalyzePrimer, "analyze_primer", "Primer Analysis"},
	{ToolCheckCompatibility, "check_primer_compatibility", "Primer Compatibility"},
	{ToolCheckSpecificity, "check_specificity", "Specificity Check"},
	{ToolFindRestrictionSites, "find_restriction_sites", "Restriction Analysis"},
	{ToolDesignGibson, "design_gibson_primers", "Gibson Assembly"},
	{ToolSearchNCBI, "search_ncbi_nucleotide", "NCBI Search"},
	{ToolFetchNCBI, "fetch_ncbi_sequence", "NCBI Sequence Fetch"},
	{ToolSearchPapers, "search_research_papers", "Paper Search"},
	{ToolFetchPaper, "fetch_paper_details", "Paper Details"},
}

// ParseTool maps a backend function name to its Tool. ok is false for names this
// front end does not know.
func ParseTool(name string) (Tool, bool) {
	for _, t := range tools {
		if t.name == name {
			return t.tool, true
		}
	}
	return ToolUnknown, false
}

func (t Tool) String() string {
	for _, e := range tools {
		if e.tool == t {
			return e.name
		}
	}
	return "unknown"
}

// DisplayName is the human label used in chat markers.
func (t Tool) DisplayName() string {
	for _, e := range tools {
		if e.tool == t {
			return e.display
		}
	}
	return "Unknown Tool"
}

// DisplayName resolves a raw function name, falling back to the name itself.
func DisplayName(function string) string {
	if t, ok := ParseTool(function); ok {
		return t.DisplayName()
	}
	return function
}
