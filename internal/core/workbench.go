package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"unibio.dev/workbench/internal/logging"
	"unibio.dev/workbench/internal/store"
)

// SessionStore persists workbench sessions. *store.SQLiteStore implements it.
type SessionStore interface {
	MessageStore
	CreateSession(ctx context.Context, activeTool string) (*store.Session, error)
	GetSession(ctx context.Context, id string) (*store.Session, error)
	SaveSession(ctx context.Context, sess *store.Session) error
	TouchSession(ctx context.Context, id string) error
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ SessionStore = (*store.SQLiteStore)(nil)

// Workbench is everything one browser session sees: the shared state, every tool panel
// and the chat sidebar. Form changes go through the Update methods so the owning panel
// can drop its stale results.
type Workbench struct {
	ID    string
	State *AppState

	Dashboard   *DashboardPanel
	Primer      *PrimerPanel
	Restriction *RestrictionPanel
	Gibson      *GibsonPanel
	NCBI        *NCBIPanel
	Papers      *PaperPanel
	Chat        *ChatSidebar

	store SessionStore
	saveM sync.Mutex

	// touched is when the store last saw activity; guarded by Manager.mu.
	touched time.Time
}

func newWorkbench(id string, state *AppState, b Backend, s SessionStore, maxHistory int) *Workbench {
	return &Workbench{
		ID:          id,
		State:       state,
		Dashboard:   NewDashboardPanel(b),
		Primer:      NewPrimerPanel(b),
		Restriction: NewRestrictionPanel(b),
		Gibson:      NewGibsonPanel(b),
		NCBI:        NewNCBIPanel(b),
		Papers:      NewPaperPanel(b),
		Chat:        NewChatSidebar(id, b, s, maxHistory),
		store:       s,
	}
}

func (w *Workbench) SelectTool(ctx context.Context, t ActiveTool) error {
	if w.State.Active() == t {
		return nil
	}
	w.State.SetActiveTool(t)
	return w.save(ctx)
}

func (w *Workbench) SelectModel(ctx context.Context, model string) error {
	if w.State.Model() == model {
		return nil
	}
	w.State.SetModel(model)
	return w.save(ctx)
}

func (w *Workbench) UpdatePrimerForm(ctx context.Context, f PrimerForm) error {
	return w.formChanged(ctx, w.State.SetPrimerForm(f), w.Primer.Reset)
}

func (w *Workbench) UpdateRestrictionForm(ctx context.Context, f RestrictionForm) error {
	return w.formChanged(ctx, w.State.SetRestrictionForm(f), w.Restriction.Reset)
}

func (w *Workbench) UpdateGibsonForm(ctx context.Context, f GibsonForm) error {
	return w.formChanged(ctx, w.State.SetGibsonForm(f), w.Gibson.Reset)
}

func (w *Workbench) UpdateNCBIForm(ctx context.Context, f NCBIForm) error {
	return w.formChanged(ctx, w.State.SetNCBIForm(f), w.NCBI.Reset)
}

func (w *Workbench) UpdatePaperForm(ctx context.Context, f PaperForm) error {
	return w.formChanged(ctx, w.State.SetPaperForm(f), w.Papers.Reset)
}

func (w *Workbench) formChanged(ctx context.Context, changed bool, reset func()) error {
	if !changed {
		return nil
	}
	reset()
	return w.save(ctx)
}

func (w *Workbench) save(ctx context.Context) error {
	w.saveM.Lock()
	defer w.saveM.Unlock()

	forms, err := w.State.MarshalForms()
	if err != nil {
		return fmt.Errorf("failed to encode forms: %w", err)
	}
	sess := &store.Session{ID: w.ID, ActiveTool: string(w.State.Active()), Forms: forms, Model: w.State.Model()}
	if err := w.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session %s: %w", w.ID, err)
	}
	return nil
}

// touchInterval limits how often Open writes activity to the store.
const touchInterval = time.Minute

// Manager hands out workbenches by session id. Live workbenches stay in memory until
// idle for the configured TTL; after that they are rebuilt from the store on demand.
type Manager struct {
	store      SessionStore
	backend    Backend
	maxHistory int
	idleTTL    time.Duration

	mu   sync.Mutex
	live *cache.Cache
}

func NewManager(s SessionStore, b Backend, idleTTL time.Duration, maxHistory int) *Manager {
	return &Manager{
		store:      s,
		backend:    b,
		maxHistory: maxHistory,
		idleTTL:    idleTTL,
		live:       cache.New(idleTTL, idleTTL/2),
	}
}

// Open returns the workbench for id, creating a new session when id is empty or unknown.
func (m *Manager) Open(ctx context.Context, id string) (*Workbench, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if v, ok := m.live.Get(id); ok {
			m.live.SetDefault(id, v)
			wb := v.(*Workbench)
			m.touch(ctx, wb)
			return wb, nil
		}
		sess, err := m.store.GetSession(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if sess != nil {
			wb, err := m.restore(ctx, sess)
			if err != nil {
				return nil, err
			}
			m.touch(ctx, wb)
			return wb, nil
		}
	}

	sess, err := m.store.CreateSession(ctx, string(ToolDashboard))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logging.Logger.Info("session created", "session", sess.ID)
	return m.restore(ctx, sess)
}

func (m *Manager) restore(ctx context.Context, sess *store.Session) (*Workbench, error) {
	state, err := RestoreAppState(sess.ActiveTool, sess.Forms, sess.Model)
	if err != nil {
		logging.Logger.Warn("resetting unreadable session forms", "session", sess.ID, "error", err)
		state = NewAppState()
	}
	wb := newWorkbench(sess.ID, state, m.backend, m.store, m.maxHistory)
	wb.touched = sess.UpdatedAt
	if err := wb.Chat.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load chat for session %s: %w", sess.ID, err)
	}
	m.live.SetDefault(sess.ID, wb)
	return wb, nil
}

// touch records activity on wb so retention sweeps skip sessions that are in use. A
// failure only costs retention time, so it is logged and the request goes on.
func (m *Manager) touch(ctx context.Context, wb *Workbench) {
	now := time.Now()
	if now.Sub(wb.touched) < touchInterval {
		return
	}
	if err := m.store.TouchSession(ctx, wb.ID); err != nil {
		logging.Logger.Warn("failed to touch session", "session", wb.ID, "error", err)
		return
	}
	wb.touched = now
}

// Live is the number of workbenches held in memory.
func (m *Manager) Live() int {
	return m.live.ItemCount()
}

// Sweep deletes sessions idle for longer than retention from the store.
func (m *Manager) Sweep(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := m.store.DeleteSessionsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.Logger.Info("expired sessions removed", "count", n)
	}
	return n, nil
}
