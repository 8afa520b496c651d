package toolcalls

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
	"unibio.dev/workbench/internal/sequence"
)

const (
	maxPrimerPairs   = 5
	maxEnzymeBars    = 8
	maxNCBIRecords   = 8
	gcPlotMinLength  = 100
	riskThresholdTmC = 40.0
)

// Skip records a call that produced no chart and why.
type Skip struct {
	Function string
	Reason   string
}

type Result struct {
	Charts  []chart.Chart
	Skipped []Skip
}

type builder func(args, result gjson.Result) ([]chart.Chart, error)

// Tools that deliberately have no chart map to nil.
var builders = map[Tool]builder{
	ToolDesignPrimers:        primerTmChart,
	ToolAnalyzePrimer:        primerRiskChart,
	ToolCheckCompatibility:   nil,
	ToolCheckSpecificity:     nil,
	ToolFindRestrictionSites: restrictionCharts,
	ToolDesignGibson:         gibsonChart,
	ToolSearchNCBI:           ncbiLengthChart,
	ToolFetchNCBI:            sequenceCharts,
	ToolSearchPapers:         papersPerYearChart,
	ToolFetchPaper:           nil,
}

// Dispatch builds the charts for calls in order. Calls that cannot be charted are
// listed in Skipped with a reason.
func Dispatch(calls []backend.FunctionCall) Result {
	var res Result
	for _, call := range calls {
		charts, err := dispatchOne(call)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Function: call.Function, Reason: err.Error()})
			continue
		}
		res.Charts = append(res.Charts, charts...)
	}
	return res
}

func dispatchOne(call backend.FunctionCall) ([]chart.Chart, error) {
	tool, ok := ParseTool(call.Function)
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", call.Function)
	}
	result := gjson.ParseBytes(call.Result)
	if msg := resultError(result); msg != "" {
		return nil, fmt.Errorf("tool returned an error: %s", msg)
	}
	build := builders[tool]
	if build == nil {
		return nil, fmt.Errorf("%s has no chart", tool)
	}
	return build(gjson.ParseBytes(call.Arguments), result)
}

// ChartsFor charts a typed request/response pair the same way a chat tool call with
// those arguments and that result would be charted.
func ChartsFor(tool Tool, args, result any) ([]chart.Chart, error) {
	a, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding %s arguments: %w", tool, err)
	}
	r, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding %s result: %w", tool, err)
	}
	return dispatchOne(backend.FunctionCall{Function: tool.String(), Arguments: a, Result: r})
}

// resultError returns a non-empty message when the result reports a failure.
func resultError(result gjson.Result) string {
	if !result.Exists() || !result.IsObject() {
		return "empty result"
	}
	if e := result.Get("error"); e.Exists() && e.Type != gjson.Null {
		if s := e.String(); s != "" {
			return s
		}
		return "error"
	}
	if s := result.Get("success"); s.Exists() && s.Type == gjson.False {
		if m := result.Get("message").String(); m != "" {
			return m
		}
		return "success is false"
	}
	return ""
}

var errNoData = errors.New("no data to chart")

func primerTmChart(_, result gjson.Result) ([]chart.Chart, error) {
	pairs := result.Get("primer_pairs").Array()
	if len(pairs) == 0 {
		return nil, errNoData
	}
	if len(pairs) > maxPrimerPairs {
		pairs = pairs[:maxPrimerPairs]
	}
	categories := make([]string, len(pairs))
	fwd := make([]float64, len(pairs))
	rev := make([]float64, len(pairs))
	for i, p := range pairs {
		categories[i] = "Pair " + strconv.Itoa(i+1)
		fwd[i] = p.Get("left_tm").Float()
		rev[i] = p.Get("right_tm").Float()
	}
	return []chart.Chart{
		chart.NewGroupedBar("Primer Melting Temperatures (°C)", categories,
			[2]string{"Forward", "Reverse"}, fwd, rev, chart.DefaultLayout()),
	}, nil
}

// primerRiskChart compares Tm with the hairpin and homodimer temperatures. The secondary
// structure bars turn red above the risk threshold.
func primerRiskChart(_, result gjson.Result) ([]chart.Chart, error) {
	if !result.Get("tm").Exists() {
		return nil, errNoData
	}
	risk := func(v float64) string {
		if v > riskThresholdTmC {
			return chart.ColorDanger
		}
		return chart.ColorOK
	}
	hairpin := result.Get("hairpin_tm").Float()
	homodimer := result.Get("homodimer_tm").Float()
	data := []chart.Datum{
		{Label: "Tm", Value: result.Get("tm").Float(), Color: chart.ColorForward},
		{Label: "Hairpin", Value: hairpin, Color: risk(hairpin)},
		{Label: "Homodimer", Value: homodimer, Color: risk(homodimer)},
	}
	return []chart.Chart{chart.NewBar("Primer Temperatures (°C)", data, chart.DefaultLayout())}, nil
}

func restrictionCharts(args, result gjson.Result) ([]chart.Chart, error) {
	enzymes := result.Get("enzymes").Array()
	if len(enzymes) == 0 {
		return nil, errNoData
	}

	bars := enzymes
	if len(bars) > maxEnzymeBars {
		bars = bars[:maxEnzymeBars]
	}
	data := make([]chart.Datum, len(bars))
	for i, e := range bars {
		data[i] = chart.Datum{Label: e.Get("enzyme_name").String(), Value: e.Get("cut_count").Float()}
	}
	charts := []chart.Chart{chart.NewBar("Cut Sites per Enzyme", data, chart.DefaultLayout())}

	seq := sequence.Sanitize(args.Get("sequence").String())
	if seq == "" {
		return charts, nil
	}
	var markers []chart.SiteMarker
	for _, e := range enzymes {
		positions := e.Get("cut_positions").Array()
		if e.Get("cut_count").Int() != 1 || len(positions) == 0 {
			continue
		}
		markers = append(markers, chart.SiteMarker{
			Label:    e.Get("enzyme_name").String(),
			Position: int(positions[0].Int()),
		})
	}
	if len(markers) > 0 {
		charts = append(charts, chart.NewSiteMap("Single Cutter Map", len(seq), markers, chart.DefaultLayout()))
	}
	return charts, nil
}

func gibsonChart(_, result gjson.Result) ([]chart.Chart, error) {
	if !result.Get("forward_primer").Exists() {
		return nil, errNoData
	}
	overlap := []float64{
		float64(len(result.Get("vector_overlap_fwd").String())),
		float64(len(result.Get("vector_overlap_rev").String())),
	}
	binding := []float64{
		float64(len(result.Get("insert_binding_fwd").String())),
		float64(len(result.Get("insert_binding_rev").String())),
	}
	return []chart.Chart{
		chart.NewGroupedBar("Gibson Primer Composition (bp)", []string{"Forward", "Reverse"},
			[2]string{"Vector overlap", "Insert binding"}, overlap, binding, chart.DefaultLayout()),
	}, nil
}

func ncbiLengthChart(_, result gjson.Result) ([]chart.Chart, error) {
	records := result.Get("results").Array()
	if len(records) == 0 {
		return nil, errNoData
	}
	if len(records) > maxNCBIRecords {
		records = records[:maxNCBIRecords]
	}
	data := make([]chart.Datum, len(records))
	for i, r := range records {
		data[i] = chart.Datum{Label: r.Get("accession").String(), Value: r.Get("length").Float()}
	}
	return []chart.Chart{chart.NewBar("Sequence Length (bp)", data, chart.DefaultLayout())}, nil
}

// sequenceCharts shows the base composition and, for longer sequences, GC content along
// the sequence.
func sequenceCharts(_, result gjson.Result) ([]chart.Chart, error) {
	seq := sequence.Sanitize(result.Get("sequence").String())
	if seq == "" {
		return nil, errNoData
	}
	return SequenceCharts(result.Get("accession").String(), seq), nil
}

// SequenceCharts is shared with the NCBI panel.
func SequenceCharts(accession, seq string) []chart.Chart {
	comp := sequence.Count(seq)
	title := "Base Composition"
	if accession != "" {
		title += " (" + accession + ")"
	}
	charts := []chart.Chart{chart.NewPie(title, []chart.Datum{
		{Label: "A", Value: float64(comp.A)},
		{Label: "T", Value: float64(comp.T)},
		{Label: "G", Value: float64(comp.G)},
		{Label: "C", Value: float64(comp.C)},
		{Label: "Other", Value: float64(comp.Other)},
	}, 0, 0.55)}

	if len(seq) > gcPlotMinLength {
		charts = append(charts, chart.NewGCPlot("GC Content (%)", seq, chart.DefaultGCWindow(len(seq)), chart.DefaultLayout()))
	}
	return charts
}

func papersPerYearChart(_, result gjson.Result) ([]chart.Chart, error) {
	papers := result.Get("results").Array()
	counts := map[string]int{}
	for _, p := range papers {
		if year := p.Get("year").String(); year != "" {
			counts[year]++
		}
	}
	if len(counts) == 0 {
		return nil, errNoData
	}
	years := make([]string, 0, len(counts))
	for y := range counts {
		years = append(years, y)
	}
	sort.Strings(years)
	data := make([]chart.Datum, len(years))
	for i, y := range years {
		data[i] = chart.Datum{Label: y, Value: float64(counts[y])}
	}
	return []chart.Chart{chart.NewBar("Papers per Year", data, chart.DefaultLayout())}, nil
}
