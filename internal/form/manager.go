package form

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/schedlab/internal/logging"
	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Manager owns the live form stores, one per browser session or API form id.
// Stores never share state; the manager only tracks their lifetime.
type Manager struct {
	mu     sync.Mutex
	forms  map[string]*entry
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// NewManager creates an empty form manager.
func NewManager(opts Options, logger *slog.Logger) *Manager {
	return &Manager{
		forms:  make(map[string]*entry),
		opts:   opts.withDefaults(),
		logger: logging.Component(logger, "form-manager"),
		now:    time.Now,
	}
}

// Create allocates a new store with a generated id.
func (m *Manager) Create() *Store {
	return m.GetOrCreate("form_" + uuid.New().String())
}

// Get returns the store with the given id.
func (m *Manager) Get(id string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.forms[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.store, true
}

// GetOrCreate returns the store with the given id, creating it if needed.
func (m *Manager) GetOrCreate(id string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.forms[id]; ok {
		e.lastSeen = m.now()
		return e.store
	}
	st := NewStore(id, m.opts, m.logger)
	m.forms[id] = &entry{store: st, lastSeen: m.now()}
	metrics.ActiveForms.Inc()
	return st
}

// Delete unloads and forgets a store.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	e, ok := m.forms[id]
	if ok {
		delete(m.forms, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.store.Unload()
	metrics.ActiveForms.Dec()
	return true
}

// Len returns the number of live stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forms)
}

// ReloadAlgorithm resets every form bound to def.Name onto the new definition.
// Values are discarded and in-flight submissions become stale.
func (m *Manager) ReloadAlgorithm(def *model.AlgorithmDefinition) int {
	m.mu.Lock()
	stores := make([]*Store, 0, len(m.forms))
	for _, e := range m.forms {
		stores = append(stores, e.store)
	}
	m.mu.Unlock()

	n := 0
	for _, st := range stores {
		schema := st.Schema()
		if schema == nil || schema.Name() != def.Name {
			continue
		}
		if err := st.Load(def); err != nil {
			m.logger.Warn("reload failed, unloading form", "form_id", st.ID(), "algorithm", def.Name, "error", err)
			st.Unload()
			continue
		}
		n++
	}
	if n > 0 {
		m.logger.Info("forms reloaded", "algorithm", def.Name, "count", n)
	}
	return n
}

// Sweep removes stores idle for longer than ttl and returns how many it removed.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	var idle []string
	m.mu.Lock()
	for id, e := range m.forms {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.Unlock()

	n := 0
	for _, id := range idle {
		if m.Delete(id) {
			n++
		}
	}
	if n > 0 {
		m.logger.Debug("swept idle forms", "count", n)
	}
	return n
}
