package domain

import (
	"context"
	"time"
)

// ChangeSource tags which editor produced a document change.
type ChangeSource string

const (
	SourceNone       ChangeSource = ""
	SourceStructured ChangeSource = "structured"
	SourceText       ChangeSource = "text"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStructuredEdit  EventType = "structured_edit"
	EventTextAccepted    EventType = "text_accepted"
	EventTextRejected    EventType = "text_rejected"
	EventEchoSuppressed  EventType = "echo_suppressed"
	EventTextRendered    EventType = "text_rendered"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ChangeEvent describes one step of the dual-editor synchronization.
type ChangeEvent struct {
	EventBase
	Source ChangeSource `json:"source"`

	// Document is the current document after the event.
	Document *Document `json:"-"`

	// Text is the regenerated text (structured edits) or the submitted text (text edits).
	Text string `json:"text,omitempty"`

	// Diff is set for accepted changes.
	Diff *DocumentDiff `json:"diff,omitempty"`

	// Err is set for rejected text.
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks fired by the edit arbiter.
// Hooks run synchronously on the goroutine that produced the event and must not call back
// into the arbiter.
type LifecycleHooks struct {
	// OnDocumentChanged fires after the current document was replaced, from either source.
	OnDocumentChanged func(context.Context, *ChangeEvent)
	// OnTextRendered fires when a structured edit produced new text for the text view.
	OnTextRendered func(context.Context, *ChangeEvent)
	// OnTextRejected fires when pending text failed parsing or validation.
	OnTextRejected func(context.Context, *ChangeEvent)
	// OnEchoSuppressed fires when a text change was recognized as the echo of a
	// structured edit and discarded.
	OnEchoSuppressed func(context.Context, *ChangeEvent)
}

// ChainHooks combines hook sets. Each callback runs the non-nil callbacks of every set in
// order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	pick := func(get func(LifecycleHooks) func(context.Context, *ChangeEvent)) func(context.Context, *ChangeEvent) {
		var fns []func(context.Context, *ChangeEvent)
		for _, h := range sets {
			if fn := get(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		switch len(fns) {
		case 0:
			return nil
		case 1:
			return fns[0]
		}
		return func(ctx context.Context, ev *ChangeEvent) {
			for _, fn := range fns {
				fn(ctx, ev)
			}
		}
	}
	return LifecycleHooks{
		OnDocumentChanged: pick(func(h LifecycleHooks) func(context.Context, *ChangeEvent) { return h.OnDocumentChanged }),
		OnTextRendered:    pick(func(h LifecycleHooks) func(context.Context, *ChangeEvent) { return h.OnTextRendered }),
		OnTextRejected:    pick(func(h LifecycleHooks) func(context.Context, *ChangeEvent) { return h.OnTextRejected }),
		OnEchoSuppressed:  pick(func(h LifecycleHooks) func(context.Context, *ChangeEvent) { return h.OnEchoSuppressed }),
	}
}
