package arbiter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/ports"
)

// DefaultQuiescence is how long the text must stay unchanged before it is validated.
const DefaultQuiescence = 500 * time.Millisecond

// State is the arbiter's position in the text acceptance cycle.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingQuiescence State = "awaiting-quiescence"
	StateValidating         State = "validating"
)

// Arbiter mediates between structured edits and raw-text edits of one Document.
// All methods are safe for concurrent use; hooks run outside the internal lock.
type Arbiter struct {
	mu sync.Mutex

	doc   *domain.Document
	text  []byte
	valid bool
	err   error

	// echo is the text emitted by the latest structured edit, until the next text change
	// consumes it.
	echo        []byte
	echoPending bool

	source     domain.ChangeSource
	state      State
	timer      Timer
	generation uint64

	gate       ports.SchemaGate
	clock      Clock
	quiescence time.Duration
	docOpts    []domain.DocumentOption
	hooks      domain.LifecycleHooks
	metrics    *Metrics
	logger     *slog.Logger
	baseCtx    context.Context
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithClock replaces the wall clock, typically with a ManualClock in tests.
func WithClock(c Clock) Option {
	return func(a *Arbiter) {
		a.clock = c
	}
}

// WithQuiescence sets the quiescence window.
func WithQuiescence(d time.Duration) Option {
	return func(a *Arbiter) {
		a.quiescence = d
	}
}

// WithDocumentOptions sets the options used when accepted text is decoded.
func WithDocumentOptions(opts ...domain.DocumentOption) Option {
	return func(a *Arbiter) {
		a.docOpts = append(a.docOpts, opts...)
	}
}

// WithLifecycleHooks registers event callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(a *Arbiter) {
		a.hooks = domain.ChainHooks(a.hooks, hooks)
	}
}

// WithMetrics records activity on m.
func WithMetrics(m *Metrics) Option {
	return func(a *Arbiter) {
		a.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		a.logger = logger
	}
}

// WithContext sets the context passed to the gate and to hooks fired from the timer.
func WithContext(ctx context.Context) Option {
	return func(a *Arbiter) {
		a.baseCtx = ctx
	}
}

// New creates an arbiter around doc. The text view starts as the encoded document.
func New(doc *domain.Document, gate ports.SchemaGate, opts ...Option) (*Arbiter, error) {
	a := &Arbiter{
		doc:        doc,
		valid:      true,
		state:      StateIdle,
		gate:       gate,
		clock:      realClock{},
		quiescence: DefaultQuiescence,
		logger:     logging.NewNop(),
		baseCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}

	text, err := codec.Encode(doc)
	if err != nil {
		return nil, err
	}
	a.text = text
	return a, nil
}

// Document returns the current document.
func (a *Arbiter) Document() *domain.Document {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc
}

// Text returns the current content of the text view, which may be invalid or not yet
// accepted.
func (a *Arbiter) Text() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return bytes.Clone(a.text)
}

// Valid reports whether the text view holds accepted text. Saving must be blocked while it
// is false.
func (a *Arbiter) Valid() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valid
}

// Err returns why the text view was rejected, or nil.
func (a *Arbiter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// State returns the current state.
func (a *Arbiter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Source returns the origin tag of the latest change, or domain.SourceNone after an echo
// was consumed.
func (a *Arbiter) Source() domain.ChangeSource {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source
}

// ApplyStructured applies a structured edit. On success the document is replaced, the text
// view is regenerated and the regenerated text is returned for display. A pending text
// edit is superseded. When edit fails the arbiter is left untouched and the error is
// returned.
func (a *Arbiter) ApplyStructured(ctx context.Context, edit func(*domain.Document) (*domain.Document, error)) ([]byte, error) {
	a.mu.Lock()
	prev := a.doc
	next, err := edit(prev)
	if err != nil {
		a.mu.Unlock()
		return nil, err
	}
	text, err := codec.Encode(next)
	if err != nil {
		a.mu.Unlock()
		return nil, fmt.Errorf("failed to render text view: %w", err)
	}

	a.noteStructuredEdit(next, text)
	a.mu.Unlock()

	a.metrics.structuredEdit()
	a.logger.Debug("structured edit applied", "actions", next.Len())

	changed := a.event(domain.EventStructuredEdit, domain.SourceStructured, next, "")
	changed.Diff = domain.Diff(prev, next)
	a.fire(ctx, a.hooks.OnDocumentChanged, changed)
	a.fire(ctx, a.hooks.OnTextRendered, a.event(domain.EventTextRendered, domain.SourceStructured, next, string(text)))
	return bytes.Clone(text), nil
}

// noteStructuredEdit records the edit and its regenerated text. Caller holds a.mu.
func (a *Arbiter) noteStructuredEdit(doc *domain.Document, text []byte) {
	a.stopTimer()
	a.generation++
	a.doc = doc
	a.text = text
	a.echo = text
	a.echoPending = true
	a.valid = true
	a.err = nil
	a.source = domain.SourceStructured
	a.state = StateIdle
}

// OnTextChanged reports that the text view now holds text. The echo of the latest
// structured edit is discarded; any other text restarts the quiescence window.
func (a *Arbiter) OnTextChanged(ctx context.Context, text []byte) {
	a.mu.Lock()
	if a.echoPending {
		a.echoPending = false
		if bytes.Equal(text, a.echo) {
			a.echo = nil
			a.source = domain.SourceNone
			doc := a.doc
			a.mu.Unlock()

			a.metrics.echoSuppressed()
			a.logger.Debug("echo suppressed")
			a.fire(ctx, a.hooks.OnEchoSuppressed, a.event(domain.EventEchoSuppressed, domain.SourceStructured, doc, string(text)))
			return
		}
		a.echo = nil
	}

	if a.state == StateIdle && bytes.Equal(text, a.text) {
		a.mu.Unlock()
		return
	}

	if a.stopTimer() {
		a.metrics.debounceReset()
	}
	a.generation++
	gen := a.generation
	a.text = bytes.Clone(text)
	prevState := a.state
	a.state = StateAwaitingQuiescence
	a.timer = a.clock.AfterFunc(a.quiescence, func() { a.settle(gen) })
	a.mu.Unlock()

	a.logger.Debug("text changed", "from", prevState, "to", StateAwaitingQuiescence)
}

// settle validates the text pending since generation gen. Results superseded by a later
// change are discarded.
func (a *Arbiter) settle(gen uint64) {
	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.state = StateValidating
	text := a.text
	a.mu.Unlock()

	ctx := a.baseCtx
	a.logger.Debug("validating text", "bytes", len(text))

	err := a.gate.Validate(ctx, text)
	var doc *domain.Document
	if err == nil {
		doc, err = codec.Decode(text, a.docOpts...)
	}
	if err != nil && !errors.Is(err, domain.ErrInvalidText) {
		err = fmt.Errorf("%w: %w", domain.ErrInvalidText, err)
	}

	a.mu.Lock()
	if gen != a.generation {
		a.mu.Unlock()
		a.metrics.textEdit(ResultStale)
		a.logger.Debug("validation result discarded", "reason", "superseded")
		return
	}
	a.state = StateIdle

	if err != nil {
		a.valid = false
		a.err = err
		current := a.doc
		a.mu.Unlock()

		a.metrics.textEdit(ResultRejected)
		a.logger.Warn("text rejected", "err", err)
		rejected := a.event(domain.EventTextRejected, domain.SourceText, current, string(text))
		rejected.Err = err
		a.fire(ctx, a.hooks.OnTextRejected, rejected)
		return
	}

	prev := a.doc
	a.doc = doc
	a.valid = true
	a.err = nil
	a.source = domain.SourceText
	a.mu.Unlock()

	a.metrics.textEdit(ResultAccepted)
	a.logger.Info("text accepted", "actions", doc.Len())
	accepted := a.event(domain.EventTextAccepted, domain.SourceText, doc, string(text))
	accepted.Diff = domain.Diff(prev, doc)
	a.fire(ctx, a.hooks.OnDocumentChanged, accepted)
}

// stopTimer cancels the pending quiescence timer and reports whether one was pending.
// Caller holds a.mu.
func (a *Arbiter) stopTimer() bool {
	if a.timer == nil {
		return false
	}
	stopped := a.timer.Stop()
	a.timer = nil
	return stopped
}

func (a *Arbiter) event(typ domain.EventType, src domain.ChangeSource, doc *domain.Document, text string) *domain.ChangeEvent {
	return &domain.ChangeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: typ},
		Source:    src,
		Document:  doc,
		Text:      text,
	}
}

func (a *Arbiter) fire(ctx context.Context, hook func(context.Context, *domain.ChangeEvent), e *domain.ChangeEvent) {
	if hook != nil {
		hook(ctx, e)
	}
}

// Close cancels any pending quiescence window. A text edit in flight is discarded.
func (a *Arbiter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopTimer()
	a.generation++
	a.state = StateIdle
}
