package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/arbiter"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/identity"
	"github.com/aretw0/sitescript/pkg/ports"
	"github.com/aretw0/sitescript/pkg/schema"
)

// ErrTextPending is returned by Save while a text edit is still waiting for quiescence or
// validation.
var ErrTextPending = errors.New("text edit pending")

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates editing sessions, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.ScriptStore
	gate  *schema.Gate

	mu       sync.Mutex            // Global lock for the maps
	locks    map[string]*lockEntry // Map of active locks
	sessions map[string]*Session

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	compact bool
	arbOpts []arbiter.Option
	hooks   func(id string) domain.LifecycleHooks
	ids     func() identity.Generator
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager and the arbiters it creates.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithArbiterOptions appends options applied to every arbiter the Manager creates.
func WithArbiterOptions(opts ...arbiter.Option) Option {
	return func(m *Manager) {
		m.arbOpts = append(m.arbOpts, opts...)
	}
}

// WithHooks registers a factory of lifecycle hooks for the arbiter of each opened script.
// They run after any hooks given through WithArbiterOptions.
func WithHooks(hooks func(id string) domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithIdentities sets the identity generator factory used for each opened session.
// The default is a fresh identity.Sequence per session.
func WithIdentities(newGenerator func() identity.Generator) Option {
	return func(m *Manager) {
		m.ids = newGenerator
	}
}

// WithCompactContent saves script content in JCS form instead of the indented display form.
func WithCompactContent(compact bool) Option {
	return func(m *Manager) {
		m.compact = compact
	}
}

// NewManager creates a new Manager over the given store. Documents are shaped by the
// gate's catalog.
func NewManager(store ports.ScriptStore, gate *schema.Gate, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		gate:     gate,
		locks:    make(map[string]*lockEntry),
		sessions: make(map[string]*Session),
		lockTTL:  DefaultLockTTL,
		ids:      func() identity.Generator { return identity.NewSequence() },
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Create persists a new, empty script and returns it.
func (m *Manager) Create(ctx context.Context, title, description string) (*domain.SiteScript, error) {
	script := domain.NewSiteScript(title, description)
	script.Version = 1
	err := m.WithLock(ctx, script.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, script)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create script: %w", err)
	}
	return script, nil
}

// Open returns the session of a script, loading it on first use. A script missing from
// the store starts empty and is persisted by the first Save.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	var sess *Session
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		if existing, ok := m.lookup(id); ok {
			sess = existing
			return nil
		}

		script, err := m.store.Load(ctx, id)
		if errors.Is(err, domain.ErrScriptNotFound) {
			script = domain.NewSiteScript("", "")
			script.ID = id
		} else if err != nil {
			return fmt.Errorf("failed to load script: %w", err)
		}

		docOpts := []domain.DocumentOption{
			domain.WithGenerator(m.ids()),
			domain.WithChildPolicy(m.gate.Catalog()),
		}
		doc, err := codec.Decode(script.Content, docOpts...)
		if err != nil {
			return fmt.Errorf("script %s: %w", id, err)
		}

		opts := append([]arbiter.Option{
			arbiter.WithDocumentOptions(docOpts...),
			arbiter.WithLogger(m.logger.With("script_id", id)),
		}, m.arbOpts...)
		if m.hooks != nil {
			opts = append(opts, arbiter.WithLifecycleHooks(m.hooks(id)))
		}
		arb, err := arbiter.New(doc, m.gate, opts...)
		if err != nil {
			return err
		}

		sess = &Session{script: script, arb: arb}
		m.mu.Lock()
		m.sessions[id] = sess
		m.mu.Unlock()
		m.logger.Debug("session opened", "script_id", id, "version", script.Version)
		return nil
	})
	return sess, err
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	sess, ok := m.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Sessions returns the IDs of the open sessions, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Save writes the session's document to the store and bumps the script version. It is
// refused while the text view holds invalid or not yet validated text.
func (m *Manager) Save(ctx context.Context, id string) (*domain.SiteScript, error) {
	var saved *domain.SiteScript
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		sess, ok := m.lookup(id)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}

		arb := sess.arb
		if !arb.Valid() {
			if err := arb.Err(); err != nil {
				return err
			}
			return domain.ErrInvalidText
		}
		if arb.State() != arbiter.StateIdle {
			return ErrTextPending
		}

		content, err := m.render(arb.Document())
		if err != nil {
			return err
		}

		sess.mu.Lock()
		defer sess.mu.Unlock()
		next := sess.script.Clone()
		next.Content = content
		next.Version++
		if err := m.store.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save script: %w", err)
		}
		sess.script = next
		saved = next.Clone()
		m.logger.Info("script saved", "script_id", id, "version", next.Version)
		return nil
	})
	return saved, err
}

// Close discards a session without saving.
func (m *Manager) Close(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		sess, ok := m.sessions[id]
		delete(m.sessions, id)
		m.mu.Unlock()
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		sess.arb.Close()
		return nil
	})
}

// Delete removes the script from the store and discards its session, if any.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.mu.Lock()
		sess, ok := m.sessions[id]
		delete(m.sessions, id)
		m.mu.Unlock()
		if ok {
			sess.arb.Close()
		}
		return m.store.Delete(ctx, id)
	})
}

// Load reads a script from the store under the script lock.
func (m *Manager) Load(ctx context.Context, id string) (*domain.SiteScript, error) {
	var script *domain.SiteScript
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		script, err = m.store.Load(ctx, id)
		return err
	})
	return script, err
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying script store.
func (m *Manager) Store() ports.ScriptStore {
	return m.store
}

// Gate returns the schema gate documents are validated against.
func (m *Manager) Gate() *schema.Gate {
	return m.gate
}

// WithLock executes a function while holding the lock for the script.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"script_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

func (m *Manager) render(doc *domain.Document) ([]byte, error) {
	if m.compact {
		return codec.EncodeCompact(doc)
	}
	return codec.Encode(doc)
}
