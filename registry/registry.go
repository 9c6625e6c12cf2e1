// Package registry tracks execution sessions for the lifetime of a run.
package registry

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testinfra/run-aggregator/types"
)

// ErrSessionNotFound is returned by Get when no session has been registered
// under the requested identifier.
var ErrSessionNotFound = errors.New("session not found")

// Session is one environment/platform instance executing a root suite.
// The empty identifier is a valid sentinel for a single-environment
// client run. Sessions are never destroyed; a session whose root suite
// never ends stays Active and is still counted at run end.
type Session struct {
	ID          string
	Root        *types.Suite
	HasCoverage bool
	Completed   bool
}

// Registry maps session identifiers to their root suites. Sessions are
// created lazily on the first top-level suite-start event.
type Registry struct {
	config   Config
	sessions map[string]*Session
	order    []string
	mu       sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger
}

// NewRegistry creates a new registry instance
func NewRegistry(cfg Config) *Registry {
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Registry{
		config:   cfg,
		sessions: make(map[string]*Session),
	}
}

// RegisterRoot registers the root suite for a session. The host does not
// guarantee a single start event per identifier, so re-registration simply
// overwrites the previous root. Identifier order of first registration is
// preserved for deterministic iteration.
func (r *Registry) RegisterRoot(sessionID string, root *types.Suite) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID != "" {
		r.config.Log.Info("Session connected", "session", sessionID)
	}

	session, exists := r.sessions[sessionID]
	if !exists {
		session = &Session{ID: sessionID}
		r.sessions[sessionID] = session
		r.order = append(r.order, sessionID)
	}
	session.Root = root
	session.Completed = false
	return session
}

// Get returns the session registered under sessionID. Callers must only
// call this after a start event for that identifier.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// MarkCoverage flags the session as having delivered at least one coverage
// snapshot. Unknown identifiers are ignored.
func (r *Registry) MarkCoverage(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[sessionID]; exists {
		session.HasCoverage = true
	}
}

// MarkCompleted records that the session's root suite has ended.
func (r *Registry) MarkCompleted(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, exists := r.sessions[sessionID]; exists {
		session.Completed = true
	}
}

// Sessions returns every registered session in first-registration order.
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
