package api

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"unibio.dev/workbench/internal/core"
	"unibio.dev/workbench/internal/logging"
)

// Pinger reports whether the session database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	manager   *core.Manager
	db        Pinger
	pages     *template.Template
	secret    []byte
	cookieTTL time.Duration
}

func NewHandler(m *core.Manager, db Pinger, secret []byte, cookieTTL time.Duration) (*Handler, error) {
	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handler{manager: m, db: db, pages: pages, secret: secret, cookieTTL: cookieTTL}, nil
}

// page is everything the workbench template reads.
type page struct {
	Active     core.ActiveTool
	Tools      []core.ActiveTool
	Forms      core.Forms
	Model      string
	PaperSorts []string

	Dashboard   core.DashboardView
	Primer      core.PrimerView
	Restriction core.RestrictionView
	Gibson      core.GibsonView
	NCBI        core.NCBIView
	Papers      core.PaperView
	Chat        core.ChatView
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, wb *core.Workbench) {
	active := wb.State.Active()
	if active == core.ToolDashboard {
		// Failures show on the dashboard itself.
		_ = wb.Dashboard.Refresh(r.Context())
	}

	data := page{
		Active:      active,
		Tools:       core.ActiveTools,
		Forms:       wb.State.Forms(),
		Model:       wb.State.Model(),
		PaperSorts:  core.PaperSorts,
		Dashboard:   wb.Dashboard.View(),
		Primer:      wb.Primer.View(),
		Restriction: wb.Restriction.View(),
		Gibson:      wb.Gibson.View(),
		NCBI:        wb.NCBI.View(),
		Papers:      wb.Papers.View(),
		Chat:        wb.Chat.View(),
	}

	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, "page", data); err != nil {
		logging.Logger.Error("failed to render page", "session", wb.ID, "tool", active, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, workbenchFrom(r.Context()))
}

func (h *Handler) ToolHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	tool, ok := core.ParseActiveTool(chi.URLParam(r, "tool"))
	if !ok {
		http.Error(w, "Tool not found", http.StatusNotFound)
		return
	}
	if !h.selectTool(w, r, wb, tool) {
		return
	}
	h.render(w, r, wb)
}

// selectTool switches the visible panel and parses the posted form, if any. It answers
// the request itself and returns false when something went wrong.
func (h *Handler) selectTool(w http.ResponseWriter, r *http.Request, wb *core.Workbench, tool core.ActiveTool) bool {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
			return false
		}
	}
	if err := wb.SelectTool(r.Context(), tool); err != nil {
		logging.Logger.Error("failed to select tool", "session", wb.ID, "tool", tool, "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *Handler) saveFailed(w http.ResponseWriter, wb *core.Workbench, err error) {
	logging.Logger.Error("failed to save form", "session", wb.ID, "error", err)
	http.Error(w, "Failed to save session", http.StatusInternalServerError)
}

func (h *Handler) PrimerHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	ctx := r.Context()

	var run func(context.Context, core.PrimerForm) error
	switch chi.URLParam(r, "action") {
	case "design":
		run = wb.Primer.Design
	case "analyze":
		run = wb.Primer.Analyze
	case "compatibility":
		run = wb.Primer.CheckCompatibility
	case "specificity":
		run = wb.Primer.CheckSpecificity
	default:
		http.Error(w, "Unknown primer action", http.StatusNotFound)
		return
	}
	if !h.selectTool(w, r, wb, core.ToolPrimer) {
		return
	}

	f := wb.State.Forms().Primer
	f.Sequence = formString(r, "sequence", f.Sequence)
	f.MinTm = formFloat(r, "min_tm", f.MinTm)
	f.MaxTm = formFloat(r, "max_tm", f.MaxTm)
	f.ProdMin = formInt(r, "prod_min", f.ProdMin)
	f.ProdMax = formInt(r, "prod_max", f.ProdMax)
	f.AnalyzeSequence = formString(r, "analyze_sequence", f.AnalyzeSequence)
	f.ForwardSeq = formString(r, "forward_seq", f.ForwardSeq)
	f.ReverseSeq = formString(r, "reverse_seq", f.ReverseSeq)
	f.SpecificityPrimer = formString(r, "specificity_primer", f.SpecificityPrimer)
	f.SpecificityTemplate = formString(r, "specificity_template", f.SpecificityTemplate)
	if err := wb.UpdatePrimerForm(ctx, f); err != nil {
		h.saveFailed(w, wb, err)
		return
	}

	// Panel errors are part of the view.
	_ = run(ctx, f)
	h.render(w, r, wb)
}

func (h *Handler) RestrictionHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	if !h.selectTool(w, r, wb, core.ToolRestriction) {
		return
	}

	f := wb.State.Forms().Restriction
	f.Sequence = formString(r, "sequence", f.Sequence)
	if err := wb.UpdateRestrictionForm(r.Context(), f); err != nil {
		h.saveFailed(w, wb, err)
		return
	}
	_ = wb.Restriction.Analyze(r.Context(), f)
	h.render(w, r, wb)
}

func (h *Handler) GibsonHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	if !h.selectTool(w, r, wb, core.ToolGibson) {
		return
	}

	f := wb.State.Forms().Gibson
	f.VectorSeq = formString(r, "vector_seq", f.VectorSeq)
	f.InsertSeq = formString(r, "insert_seq", f.InsertSeq)
	f.OverlapLength = formInt(r, "overlap_length", f.OverlapLength)
	if err := wb.UpdateGibsonForm(r.Context(), f); err != nil {
		h.saveFailed(w, wb, err)
		return
	}
	_ = wb.Gibson.Design(r.Context(), f)
	h.render(w, r, wb)
}

func (h *Handler) NCBIHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())

	var run func(context.Context, core.NCBIForm) error
	switch chi.URLParam(r, "action") {
	case "search":
		run = wb.NCBI.Search
	case "fetch":
		run = wb.NCBI.Fetch
	default:
		http.Error(w, "Unknown NCBI action", http.StatusNotFound)
		return
	}
	if !h.selectTool(w, r, wb, core.ToolNCBI) {
		return
	}

	f := wb.State.Forms().NCBI
	f.Query = formString(r, "query", f.Query)
	f.Retmax = formInt(r, "retmax", f.Retmax)
	f.AccessionID = formString(r, "accession_id", f.AccessionID)
	if err := wb.UpdateNCBIForm(r.Context(), f); err != nil {
		h.saveFailed(w, wb, err)
		return
	}
	_ = run(r.Context(), f)
	h.render(w, r, wb)
}

func (h *Handler) PapersHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())

	var run func(context.Context, core.PaperForm) error
	switch chi.URLParam(r, "action") {
	case "search":
		run = wb.Papers.Search
	case "fetch":
		run = wb.Papers.Fetch
	default:
		http.Error(w, "Unknown paper action", http.StatusNotFound)
		return
	}
	if !h.selectTool(w, r, wb, core.ToolPapers) {
		return
	}

	f := wb.State.Forms().Papers
	f.Query = formString(r, "query", f.Query)
	f.MaxResults = formInt(r, "max_results", f.MaxResults)
	f.Sort = formString(r, "sort", f.Sort)
	f.PMID = formString(r, "pmid", f.PMID)
	if err := wb.UpdatePaperForm(r.Context(), f); err != nil {
		h.saveFailed(w, wb, err)
		return
	}
	_ = run(r.Context(), f)
	h.render(w, r, wb)
}

func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	_ = wb.Chat.Send(r.Context(), r.PostFormValue("message"), wb.State.Model())
	h.render(w, r, wb)
}

func (h *Handler) ClearChatHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	if err := wb.Chat.Clear(r.Context()); err != nil {
		logging.Logger.Error("failed to clear chat", "session", wb.ID, "error", err)
		http.Error(w, "Failed to clear chat", http.StatusInternalServerError)
		return
	}
	h.render(w, r, wb)
}

func (h *Handler) ModelHandler(w http.ResponseWriter, r *http.Request) {
	wb := workbenchFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := wb.SelectModel(r.Context(), strings.TrimSpace(r.PostFormValue("model"))); err != nil {
		h.saveFailed(w, wb, err)
		return
	}
	h.render(w, r, wb)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := h.db.Ping(r.Context()); err != nil {
		logging.Logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// formString returns the posted value for key, or cur when the field was not sent.
func formString(r *http.Request, key, cur string) string {
	if v, ok := r.PostForm[key]; ok && len(v) > 0 {
		return v[0]
	}
	return cur
}

// formFloat keeps cur when the field is missing or not a number.
func formFloat(r *http.Request, key string, cur float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(formString(r, key, "")), 64)
	if err != nil {
		return cur
	}
	return v
}

func formInt(r *http.Request, key string, cur int) int {
	v, err := strconv.Atoi(strings.TrimSpace(formString(r, key, "")))
	if err != nil {
		return cur
	}
	return v
}
