package core

import (
	"errors"
	"sync"

	"unibio.dev/workbench/internal/backend"
	"unibio.dev/workbench/internal/sequence"
)

var (
	ErrBusy = errors.New("A request is already in progress")
	// ErrStale means the form changed while the request was in flight; its response was dropped.
	ErrStale = errors.New("response superseded by a newer form state")
)

// tracker enforces one in-flight request per panel and last-write-wins ordering: every
// form change bumps the generation and responses started under an older one are dropped.
// inflight names the running action so views can mark the right button.
type tracker struct {
	mu       sync.Mutex
	inflight map[string]bool
	gen      uint64
}

func (t *tracker) begin(action string) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > 0 {
		return 0, ErrBusy
	}
	if t.inflight == nil {
		t.inflight = make(map[string]bool)
	}
	t.inflight[action] = true
	return t.gen, nil
}

// end releases action and reports whether gen is still current.
func (t *tracker) end(action string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inflight, action)
	return gen == t.gen
}

func (t *tracker) bump() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}

func (t *tracker) busy(action string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inflight[action]
}

// UserMessage is the short inline text shown for err.
func UserMessage(err error) string {
	var verr *sequence.ValidationError
	var berr *backend.Error
	var rerr *ResultError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &berr):
		return berr.UserMessage()
	case errors.As(err, &rerr):
		return rerr.Message
	case errors.Is(err, ErrBusy):
		return ErrBusy.Error()
	default:
		return "An unexpected error occurred."
	}
}
