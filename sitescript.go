package sitescript

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/arbiter"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/ports"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/aretw0/sitescript/pkg/session"
)

// Editor is the high-level entry point for the library. It wires a verb catalog, its
// schema gate, a script store and the session manager that edits scripts from it.
type Editor struct {
	catalog  *schema.Catalog
	gate     *schema.Gate
	store    ports.ScriptStore
	sessions *session.Manager

	locker     ports.DistributedLocker
	hooks      domain.LifecycleHooks
	metrics    *arbiter.Metrics
	clock      arbiter.Clock
	quiescence time.Duration
	compact    bool
	logger     *slog.Logger
	sessOpts   []session.Option
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithCatalog replaces the built-in verb catalog.
func WithCatalog(c *schema.Catalog) Option {
	return func(e *Editor) {
		e.catalog = c
	}
}

// WithStore injects a script store. The default keeps scripts in memory.
func WithStore(s ports.ScriptStore) Option {
	return func(e *Editor) {
		e.store = s
	}
}

// WithLocker enables distributed locking of scripts across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Editor) {
		e.locker = l
	}
}

// WithLifecycleHooks registers hooks fired by every session's arbiter.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Editor) {
		e.hooks = hooks
	}
}

// WithMetrics records arbiter activity of every session on m.
func WithMetrics(m *arbiter.Metrics) Option {
	return func(e *Editor) {
		e.metrics = m
	}
}

// WithClock replaces the clock driving the quiescence window.
func WithClock(c arbiter.Clock) Option {
	return func(e *Editor) {
		e.clock = c
	}
}

// WithQuiescence sets how long text must stay unchanged before it is validated.
func WithQuiescence(d time.Duration) Option {
	return func(e *Editor) {
		e.quiescence = d
	}
}

// WithCompactContent stores script content in JCS form.
func WithCompactContent(compact bool) Option {
	return func(e *Editor) {
		e.compact = compact
	}
}

// WithSessionOptions appends raw session manager options, e.g. session.WithHooks.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Editor) {
		e.sessOpts = append(e.sessOpts, opts...)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// New initializes an Editor.
func New(opts ...Option) (*Editor, error) {
	e := &Editor{
		quiescence: arbiter.DefaultQuiescence,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.catalog == nil {
		e.catalog = schema.DefaultCatalog()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	gate, err := schema.NewGate(e.catalog, schema.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema gate: %w", err)
	}
	e.gate = gate

	arbOpts := []arbiter.Option{
		arbiter.WithQuiescence(e.quiescence),
		arbiter.WithLifecycleHooks(e.hooks),
		arbiter.WithMetrics(e.metrics),
	}
	if e.clock != nil {
		arbOpts = append(arbOpts, arbiter.WithClock(e.clock))
	}

	sessOpts := []session.Option{
		session.WithLogger(e.logger),
		session.WithArbiterOptions(arbOpts...),
		session.WithCompactContent(e.compact),
	}
	if e.locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(e.locker))
	}
	sessOpts = append(sessOpts, e.sessOpts...)
	e.sessions = session.NewManager(e.store, e.gate, sessOpts...)

	return e, nil
}

// Catalog returns the verb catalog.
func (e *Editor) Catalog() *schema.Catalog {
	return e.catalog
}

// Gate returns the schema gate built from the catalog.
func (e *Editor) Gate() *schema.Gate {
	return e.gate
}

// Store returns the script store.
func (e *Editor) Store() ports.ScriptStore {
	return e.store
}

// Sessions returns the session manager.
func (e *Editor) Sessions() *session.Manager {
	return e.sessions
}

// Validate checks raw script text against the catalog.
func (e *Editor) Validate(ctx context.Context, text []byte) error {
	return e.gate.Validate(ctx, text)
}

// Format validates text and re-emits it in canonical form.
func (e *Editor) Format(ctx context.Context, text []byte, compact bool) ([]byte, error) {
	if err := e.gate.Validate(ctx, text); err != nil {
		return nil, err
	}
	doc, err := e.Decode(text)
	if err != nil {
		return nil, err
	}
	if compact {
		return codec.EncodeCompact(doc)
	}
	return codec.Encode(doc)
}

// Decode parses text into a Document shaped by the catalog.
func (e *Editor) Decode(text []byte) (*domain.Document, error) {
	return codec.Decode(text, domain.WithChildPolicy(e.catalog))
}

// Open starts or resumes the editing session of a script.
func (e *Editor) Open(ctx context.Context, id string) (*session.Session, error) {
	return e.sessions.Open(ctx, id)
}
