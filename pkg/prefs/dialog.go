package prefs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoSession  = errors.New("session settings not loaded yet")
	ErrNotCurrent = errors.New("preferences dialog is no longer open")
)

// Dispatcher sends a session-set request to the daemon.
type Dispatcher interface {
	SessionSet(ctx context.Context, args map[string]any) error
}

type Dialog struct {
	ID       string    `json:"id"`
	OpenedAt time.Time `json:"openedAt"`
	Form     *Form     `json:"form"`
}

func (d *Dialog) snapshot() *Dialog {
	return &Dialog{ID: d.ID, OpenedAt: d.OpenedAt, Form: d.Form.clone()}
}

// Manager keeps at most one preferences dialog open for its owner and hands
// the same one back to every Open until it is answered. Callers get copies;
// the live form is only touched under mu.
type Manager struct {
	mu       sync.Mutex
	current  *Dialog
	settings *Cache
	dispatch Dispatcher
	logger   *zap.Logger
}

func NewManager(settings *Cache, dispatch Dispatcher, logger *zap.Logger) *Manager {
	return &Manager{settings: settings, dispatch: dispatch, logger: logger}
}

func (m *Manager) Open() (*Dialog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return m.current.snapshot(), nil
	}
	s, ok := m.settings.Load()
	if !ok {
		return nil, ErrNoSession
	}
	m.current = &Dialog{ID: uuid.NewString(), OpenedAt: time.Now(), Form: FromSettings(s)}
	m.logger.Info("prefs_dialog_opened", zap.String("dialog", m.current.ID))
	return m.current.snapshot(), nil
}

func (m *Manager) Current() (*Dialog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, false
	}
	return m.current.snapshot(), true
}

// Edit applies values to the open dialog's form.
func (m *Manager) Edit(id string, values map[string]any) (*Dialog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.ID != id {
		return nil, ErrNotCurrent
	}
	err := m.current.Form.SetAll(values)
	return m.current.snapshot(), err
}

// Respond closes the dialog. On accept the form is sent as session-set first;
// the dialog is released whether or not that succeeds.
func (m *Manager) Respond(ctx context.Context, id string, accept bool) error {
	m.mu.Lock()
	d := m.current
	if d == nil || d.ID != id {
		m.mu.Unlock()
		return ErrNotCurrent
	}
	m.current = nil
	m.mu.Unlock()

	if !accept {
		m.logger.Info("prefs_dialog_closed", zap.String("dialog", id))
		return nil
	}
	args := d.Form.Args()
	if err := m.dispatch.SessionSet(ctx, args); err != nil {
		m.logger.Warn("prefs_session_set_failed", zap.String("dialog", id), zap.Error(err))
		return err
	}
	m.logger.Info("prefs_session_set", zap.String("dialog", id), zap.Int("fields", len(args)))
	return nil
}
