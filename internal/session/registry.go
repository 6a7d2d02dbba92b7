// Package session maps dashboard sessions to their stores.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/google/uuid"
	"github.com/jon4hz/gradeboard/internal/cache"
	"github.com/jon4hz/gradeboard/internal/dashboard"
)

// ErrInvalidID is returned for session ids that were not minted by NewID.
var ErrInvalidID = errors.New("invalid session id")

// StateCache is the subset of the session cache the registry needs.
type StateCache interface {
	Get(ctx context.Context, key any) (dashboard.State, error)
	Set(ctx context.Context, key any, object dashboard.State, options ...store.Option) error
	Delete(ctx context.Context, key any) error
}

// Registry hands out one dashboard store per session. Stores only live as
// long as their session: they are kept in the cache with the session's max age.
type Registry struct {
	cache StateCache
	ttl   time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewRegistry creates a registry on top of the given cache.
func NewRegistry(c StateCache, ttl time.Duration) *Registry {
	return &Registry{
		cache: c,
		ttl:   ttl,
		locks: make(map[string]*sessionLock),
	}
}

// NewID mints a new session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a session id.
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}

// Load returns the store of a session. Unknown or expired sessions get a fresh empty store.
func (r *Registry) Load(ctx context.Context, id string) (*dashboard.Store, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}
	return r.load(ctx, id)
}

// Update runs fn against the session's store and saves the result.
// Calls for the same session are serialized. If fn fails nothing is saved.
func (r *Registry) Update(ctx context.Context, id string, fn func(*dashboard.Store) error) (*dashboard.Store, error) {
	if !ValidID(id) {
		return nil, ErrInvalidID
	}

	unlock := r.lock(id)
	defer unlock()

	s, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := r.save(ctx, id, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Delete discards the store of a session.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if !ValidID(id) {
		return ErrInvalidID
	}

	unlock := r.lock(id)
	defer unlock()

	if err := r.cache.Delete(ctx, id); err != nil && !errors.Is(err, cache.ErrMiss) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	log.Debug("Session discarded", "session", id)
	return nil
}

func (r *Registry) load(ctx context.Context, id string) (*dashboard.Store, error) {
	state, err := r.cache.Get(ctx, id)
	if errors.Is(err, cache.ErrMiss) {
		log.Debug("Starting new dashboard session", "session", id)
		return dashboard.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return dashboard.Restore(state), nil
}

func (r *Registry) save(ctx context.Context, id string, s *dashboard.Store) error {
	if err := r.cache.Set(ctx, id, s.Snapshot(), store.WithExpiration(r.ttl)); err != nil {
		return fmt.Errorf("failed to save session %s: %w", id, err)
	}
	return nil
}

// lock takes the per-session lock and returns its release function.
// Lock entries are dropped once no caller holds or waits for them.
func (r *Registry) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sessionLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

// Target returns an import target that persists every transition of the
// session immediately, so concurrent readers observe the loading state.
func (r *Registry) Target(ctx context.Context, id string) *Target {
	return &Target{
		registry: r,
		ctx:      context.WithoutCancel(ctx),
		id:       id,
	}
}

// Target applies import transitions to a stored session. The first failure
// to persist a transition is kept and returned by Err.
type Target struct {
	registry *Registry
	ctx      context.Context
	id       string

	mu  sync.Mutex
	err error
}

var _ dashboard.Target = (*Target)(nil)

func (t *Target) SetLoading(status bool) {
	t.apply(func(s *dashboard.Store) { s.SetLoading(status) })
}

func (t *Target) SetUsers(users []dashboard.UserRecord) {
	t.apply(func(s *dashboard.Store) { s.SetUsers(users) })
}

func (t *Target) SetError(message string) {
	t.apply(func(s *dashboard.Store) { s.SetError(message) })
}

// Err returns the first persistence failure, if any.
func (t *Target) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Target) apply(fn func(*dashboard.Store)) {
	_, err := t.registry.Update(t.ctx, t.id, func(s *dashboard.Store) error {
		fn(s)
		return nil
	})
	if err == nil {
		return
	}
	log.Error("Failed to persist session transition", "session", t.id, "error", err)
	t.mu.Lock()
	if t.err == nil {
		t.err = err
	}
	t.mu.Unlock()
}
