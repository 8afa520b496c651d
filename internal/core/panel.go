package core

import (
	"context"
	"errors"
	"sync"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/logging"
)

// Backend is the subset of the tools service the workbench uses. *backend.Client
// implements it.
type Backend interface {
	Health(ctx context.Context) (*backend.HealthResponse, error)
	DesignPrimers(ctx context.Context, req backend.PrimerDesignRequest) (*backend.PrimerDesignResponse, error)
	AnalyzePrimer(ctx context.Context, req backend.PrimerAnalysisRequest) (*backend.PrimerAnalysisResponse, error)
	CheckCompatibility(ctx context.Context, req backend.CompatibilityRequest) (*backend.CompatibilityResponse, error)
	CheckSpecificity(ctx context.Context, req backend.SpecificityRequest) (*backend.SpecificityResponse, error)
	FindRestrictionSites(ctx context.Context, req backend.RestrictionRequest) (*backend.RestrictionResponse, error)
	DesignGibson(ctx context.Context, req backend.GibsonRequest) (*backend.GibsonResponse, error)
	SearchNCBI(ctx context.Context, req backend.NCBISearchRequest) (*backend.NCBISearchResponse, error)
	FetchNCBI(ctx context.Context, req backend.NCBIFetchRequest) (*backend.NCBISequence, error)
	SearchPapers(ctx context.Context, req backend.PaperSearchRequest) (*backend.PaperSearchResponse, error)
	FetchPaper(ctx context.Context, req backend.PaperFetchRequest) (*backend.PaperDetails, error)
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
	ListModels(ctx context.Context) (*backend.ModelsResponse, error)
}

var _ Backend = (*backend.Client)(nil)

// ResultError is a well-formed backend answer that carries no usable result, such as
// "success": false or an empty search.
type ResultError struct {
	Message string
}

func (e *ResultError) Error() string {
	return e.Message
}

func resultError(message, fallback string) error {
	if message == "" {
		message = fallback
	}
	return &ResultError{Message: message}
}

// panelBase is the request bookkeeping every tool panel shares.
type panelBase struct {
	name  string
	track tracker

	mu  sync.Mutex
	err string
}

func (p *panelBase) setError(err error) {
	p.mu.Lock()
	p.err = UserMessage(err)
	p.mu.Unlock()
}

// invalidate drops in-flight responses and clears the error. The caller holds p.mu and
// clears its own results.
func (p *panelBase) invalidate() {
	p.track.bump()
	p.err = ""
}

// Busy reports whether action has a request in flight.
func (p *panelBase) Busy(action string) bool {
	return p.track.busy(action)
}

// submit runs call as action. On success apply runs under the panel lock and the error is
// cleared; on failure the error is set and prior results stay. A response that arrives
// after the form changed is dropped.
func submit[T any](ctx context.Context, p *panelBase, action string, call func(context.Context) (T, error), apply func(T)) error {
	gen, err := p.track.begin(action)
	if err != nil {
		p.setError(err)
		return err
	}

	v, err := call(ctx)
	if !p.track.end(action, gen) {
		logging.Logger.Debug("dropping stale response", "panel", p.name, "action", action)
		return ErrStale
	}
	if err != nil {
		var rerr *ResultError
		if !errors.As(err, &rerr) {
			logging.Logger.Warn("backend call failed", "panel", p.name, "action", action, "error", err)
		}
		p.setError(err)
		return err
	}

	p.mu.Lock()
	apply(v)
	p.err = ""
	p.mu.Unlock()
	return nil
}

// reject records a validation failure without touching the backend.
func (p *panelBase) reject(err error) error {
	p.setError(err)
	return err
}
