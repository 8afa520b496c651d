package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/store"
)

var errNotStubbed = errors.New("not stubbed")

// fakeBackend answers from per-method stubs and counts calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	health        func() (*backend.HealthResponse, error)
	models        func() (*backend.ModelsResponse, error)
	designPrimers func(backend.PrimerDesignRequest) (*backend.PrimerDesignResponse, error)
	analyze       func(backend.PrimerAnalysisRequest) (*backend.PrimerAnalysisResponse, error)
	restriction   func(backend.RestrictionRequest) (*backend.RestrictionResponse, error)
	gibson        func(backend.GibsonRequest) (*backend.GibsonResponse, error)
	ncbiSearch    func(backend.NCBISearchRequest) (*backend.NCBISearchResponse, error)
	ncbiFetch     func(backend.NCBIFetchRequest) (*backend.NCBISequence, error)
	paperSearch   func(backend.PaperSearchRequest) (*backend.PaperSearchResponse, error)
	chat          func(backend.ChatRequest) (*backend.ChatResponse, error)
}

func (f *fakeBackend) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeBackend) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func stub[Req, Resp any](f *fakeBackend, op string, fn func(Req) (*Resp, error), req Req) (*Resp, error) {
	f.count(op)
	if fn == nil {
		return nil, errNotStubbed
	}
	return fn(req)
}

func (f *fakeBackend) Health(ctx context.Context) (*backend.HealthResponse, error) {
	f.count("health")
	if f.health == nil {
		return nil, errNotStubbed
	}
	return f.health()
}

func (f *fakeBackend) ListModels(ctx context.Context) (*backend.ModelsResponse, error) {
	f.count("models")
	if f.models == nil {
		return nil, errNotStubbed
	}
	return f.models()
}

func (f *fakeBackend) DesignPrimers(ctx context.Context, req backend.PrimerDesignRequest) (*backend.PrimerDesignResponse, error) {
	return stub(f, "design-primers", f.designPrimers, req)
}

func (f *fakeBackend) AnalyzePrimer(ctx context.Context, req backend.PrimerAnalysisRequest) (*backend.PrimerAnalysisResponse, error) {
	return stub(f, "analyze-primer", f.analyze, req)
}

func (f *fakeBackend) CheckCompatibility(ctx context.Context, req backend.CompatibilityRequest) (*backend.CompatibilityResponse, error) {
	return stub[backend.CompatibilityRequest, backend.CompatibilityResponse](f, "check-compatibility", nil, req)
}

func (f *fakeBackend) CheckSpecificity(ctx context.Context, req backend.SpecificityRequest) (*backend.SpecificityResponse, error) {
	return stub[backend.SpecificityRequest, backend.SpecificityResponse](f, "check-specificity", nil, req)
}

func (f *fakeBackend) FindRestrictionSites(ctx context.Context, req backend.RestrictionRequest) (*backend.RestrictionResponse, error) {
	return stub(f, "find-restriction-sites", f.restriction, req)
}

func (f *fakeBackend) DesignGibson(ctx context.Context, req backend.GibsonRequest) (*backend.GibsonResponse, error) {
	return stub(f, "design-gibson", f.gibson, req)
}

func (f *fakeBackend) SearchNCBI(ctx context.Context, req backend.NCBISearchRequest) (*backend.NCBISearchResponse, error) {
	return stub(f, "ncbi-search", f.ncbiSearch, req)
}

func (f *fakeBackend) FetchNCBI(ctx context.Context, req backend.NCBIFetchRequest) (*backend.NCBISequence, error) {
	return stub(f, "ncbi-fetch", f.ncbiFetch, req)
}

func (f *fakeBackend) SearchPapers(ctx context.Context, req backend.PaperSearchRequest) (*backend.PaperSearchResponse, error) {
	return stub(f, "papers-search", f.paperSearch, req)
}

func (f *fakeBackend) FetchPaper(ctx context.Context, req backend.PaperFetchRequest) (*backend.PaperDetails, error) {
	return stub[backend.PaperFetchRequest, backend.PaperDetails](f, "papers-fetch", nil, req)
}

func (f *fakeBackend) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	return stub(f, "chat", f.chat, req)
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestWorkbench opens a fresh session backed by an in-memory store.
func newTestWorkbench(t *testing.T, b Backend) (*Workbench, *store.SQLiteStore) {
	t.Helper()
	s := newTestStore(t)
	m := NewManager(s, b, 0, 50)
	wb, err := m.Open(context.Background(), "")
	require.NoError(t, err)
	return wb, s
}
