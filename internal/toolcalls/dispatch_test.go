package toolcalls

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/chart"
)

func call(function, args, result string) backend.FunctionCall {
	return backend.FunctionCall{
		Function:  function,
		Arguments: json.RawMessage(args),
		Result:    json.RawMessage(result),
	}
}

func TestParseTool(t *testing.T) {
	for _, e := range tools {
		got, ok := ParseTool(e.name)
		require.True(t, ok, e.name)
		assert.Equal(t, e.tool, got)
		assert.Equal(t, e.name, got.String())
	}
	_, ok := ParseTool("launch_rocket")
	assert.False(t, ok)
	assert.Equal(t, "unknown", ToolUnknown.String())
	assert.Equal(t, "Primer Design", DisplayName("design_primers"))
	assert.Equal(t, "launch_rocket", DisplayName("launch_rocket"))
}

func TestDispatch_DesignPrimersSinglePair(t *testing.T) {
	res := Dispatch([]backend.FunctionCall{
		call("design_primers", `{}`, `{"primer_pairs":[{"pair_id":0,"left_tm":58.2,"right_tm":59.1}]}`),
	})

	require.Len(t, res.Charts, 1)
	assert.Empty(t, res.Skipped)
	bar, ok := res.Charts[0].(*chart.BarChart)
	require.True(t, ok)
	assert.Equal(t, chart.KindGroupedBar, bar.Kind())
	require.Len(t, bar.Bars, 2)
	assert.Equal(t, 58.2, bar.Bars[0].Value)
	assert.Equal(t, 59.1, bar.Bars[1].Value)
}

func TestDispatch_DesignPrimersCapsPairs(t *testing.T) {
	var pairs []string
	for i := 0; i < 7; i++ {
		pairs = append(pairs, `{"left_tm":60,"right_tm":61}`)
	}
	res := Dispatch([]backend.FunctionCall{
		call("design_primers", `{}`, `{"success":true,"primer_pairs":[`+strings.Join(pairs, ",")+`]}`),
	})
	require.Len(t, res.Charts, 1)
	assert.Len(t, res.Charts[0].(*chart.BarChart).Categories, maxPrimerPairs)
}

func TestDispatch_RestrictionSites(t *testing.T) {
	seq := strings.Repeat("A", 120) + "GAATTC" + strings.Repeat("T", 174)
	enzymes := []string{`{"enzyme_name":"EcoRI","cut_count":1,"cut_positions":[120]}`}
	for i := 0; i < 9; i++ {
		enzymes = append(enzymes, `{"enzyme_name":"X","cut_count":3,"cut_positions":[1,2,3]}`)
	}
	result := `{"total_enzymes_found":10,"enzymes":[` + strings.Join(enzymes, ",") + `]}`

	t.Run("with sequence", func(t *testing.T) {
		res := Dispatch([]backend.FunctionCall{call("find_restriction_sites", `{"sequence":"`+seq+`"}`, result)})
		require.Len(t, res.Charts, 2)
		bar := res.Charts[0].(*chart.BarChart)
		assert.Len(t, bar.Bars, maxEnzymeBars)
		assert.Equal(t, "EcoRI", bar.Bars[0].Label)

		m := res.Charts[1].(*chart.SiteMap)
		require.Len(t, m.Sites, 1)
		assert.Equal(t, "EcoRI", m.Sites[0].Label)
		assert.Equal(t, len(seq), m.Ticks[len(m.Ticks)-1].Position)
	})

	t.Run("without sequence", func(t *testing.T) {
		res := Dispatch([]backend.FunctionCall{call("find_restriction_sites", `{}`, result)})
		require.Len(t, res.Charts, 1)
		assert.Equal(t, chart.KindBar, res.Charts[0].Kind())
	})
}

func TestDispatch_FetchSequence(t *testing.T) {
	tests := []struct {
		name   string
		seq    string
		charts []chart.Kind
	}{
		{"short", strings.Repeat("ATGC", 25), []chart.Kind{chart.KindPie}},
		{"long", strings.Repeat("ATGC", 26), []chart.Kind{chart.KindPie, chart.KindLine}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Dispatch([]backend.FunctionCall{
				call("fetch_ncbi_sequence", `{"accession_id":"NM_1"}`,
					`{"success":true,"accession":"NM_1","sequence":"`+tt.seq+`","length":`+jsonInt(len(tt.seq))+`}`),
			})
			var kinds []chart.Kind
			for _, c := range res.Charts {
				kinds = append(kinds, c.Kind())
			}
			assert.Equal(t, tt.charts, kinds)
		})
	}
}

func TestDispatch_AnalyzePrimerRiskColors(t *testing.T) {
	res := Dispatch([]backend.FunctionCall{
		call("analyze_primer", `{"sequence":"ATGC"}`, `{"tm":60.1,"hairpin_tm":45.3,"homodimer_tm":12}`),
	})
	require.Len(t, res.Charts, 1)
	bars := res.Charts[0].(*chart.BarChart).Bars
	require.Len(t, bars, 3)
	assert.Equal(t, chart.ColorForward, bars[0].Color)
	assert.Equal(t, chart.ColorDanger, bars[1].Color)
	assert.Equal(t, chart.ColorOK, bars[2].Color)
}

func TestDispatch_PapersPerYear(t *testing.T) {
	res := Dispatch([]backend.FunctionCall{
		call("search_research_papers", `{"query":"crispr"}`,
			`{"success":true,"results":[{"year":"2021"},{"year":"2019"},{"year":"2021"},{"year":""}]}`),
	})
	require.Len(t, res.Charts, 1)
	bars := res.Charts[0].(*chart.BarChart).Bars
	require.Len(t, bars, 2)
	assert.Equal(t, "2019", bars[0].Label)
	assert.Equal(t, 2.0, bars[1].Value)
}

func TestDispatch_Skipped(t *testing.T) {
	res := Dispatch([]backend.FunctionCall{
		call("launch_rocket", `{}`, `{"ok":true}`),
		call("design_primers", `{}`, `{"error":"primer3 failed","success":false}`),
		call("search_ncbi_nucleotide", `{}`, `{"success":false,"message":"NCBI unavailable"}`),
		call("check_specificity", `{}`, `{"is_specific":true}`),
		call("fetch_paper_details", `{}`, `{"success":true,"pmid":"1"}`),
		call("design_primers", `{}`, `{"primer_pairs":[]}`),
		call("analyze_primer", `{}`, ``),
	})

	assert.Empty(t, res.Charts)
	require.Len(t, res.Skipped, 7)
	assert.Contains(t, res.Skipped[0].Reason, "unknown tool")
	assert.Contains(t, res.Skipped[1].Reason, "primer3 failed")
	assert.Contains(t, res.Skipped[2].Reason, "NCBI unavailable")
	assert.Contains(t, res.Skipped[3].Reason, "no chart")
	assert.Contains(t, res.Skipped[4].Reason, "no chart")
	assert.Equal(t, errNoData.Error(), res.Skipped[5].Reason)
	assert.Contains(t, res.Skipped[6].Reason, "empty result")
}

func TestDispatch_KeepsOrder(t *testing.T) {
	res := Dispatch([]backend.FunctionCall{
		call("analyze_primer", `{}`, `{"tm":60,"hairpin_tm":1,"homodimer_tm":1}`),
		call("design_primers", `{}`, `{"primer_pairs":[{"left_tm":58,"right_tm":59}]}`),
	})
	require.Len(t, res.Charts, 2)
	assert.Equal(t, chart.KindBar, res.Charts[0].Kind())
	assert.Equal(t, chart.KindGroupedBar, res.Charts[1].Kind())
}

func TestChartsFor(t *testing.T) {
	charts, err := ChartsFor(ToolDesignGibson, backend.GibsonRequest{}, backend.GibsonResponse{
		ForwardPrimer:    "AAAACCCC",
		VectorOverlapFwd: "AAAA",
		InsertBindingFwd: "CCCC",
	})
	require.NoError(t, err)
	require.Len(t, charts, 1)
	assert.Equal(t, 4.0, charts[0].(*chart.BarChart).Bars[0].Value)
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
