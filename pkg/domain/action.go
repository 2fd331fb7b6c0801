package domain

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Action is one step of a site script.
type Action struct {
	// Identity addresses the node inside one Document. Never persisted.
	Identity string

	// Verb selects the action type; the schema catalog resolves labels and properties.
	Verb string

	// Properties holds every canonical key except verb and subactions.
	Properties map[string]any

	// Subactions is nil when the action carries no "subactions" key. An empty non-nil
	// slice is kept distinct so that `"subactions": []` round-trips.
	Subactions []Action
}

// NewAction creates an action with the given verb and properties.
func NewAction(verb string, props map[string]any, subactions ...Action) Action {
	a := Action{Verb: verb, Properties: props}
	if len(subactions) > 0 {
		a.Subactions = subactions
	}
	return a
}

// HasSubactions reports whether the action carries a subactions list (possibly empty).
func (a Action) HasSubactions() bool {
	return a.Subactions != nil
}

// Clone returns a deep copy of the action, identities included.
func (a Action) Clone() Action {
	out := Action{
		Identity:   a.Identity,
		Verb:       a.Verb,
		Properties: cloneMap(a.Properties),
	}
	if a.Subactions != nil {
		out.Subactions = make([]Action, len(a.Subactions))
		for i, sub := range a.Subactions {
			out.Subactions[i] = sub.Clone()
		}
	}
	return out
}

// Walk visits the action and its descendants depth-first, pre-order. Returning false from
// fn stops the walk below that node.
func (a Action) Walk(fn func(Action) bool) {
	if !fn(a) {
		return
	}
	for _, sub := range a.Subactions {
		sub.Walk(fn)
	}
}

// Canonical returns the persisted shape of the action as generic JSON values.
func (a Action) Canonical() map[string]any {
	out := make(map[string]any, len(a.Properties)+2)
	for k, v := range a.Properties {
		out[k] = v
	}
	out[KeyVerb] = a.Verb
	if a.Subactions != nil {
		subs := make([]any, len(a.Subactions))
		for i, sub := range a.Subactions {
			subs[i] = sub.Canonical()
		}
		out[KeySubactions] = subs
	}
	return out
}

// SameShape reports whether two actions are equal ignoring identities. Property values are
// compared by their JSON encoding, so 13 and json.Number("13") or []string{"a"} and
// []any{"a"} are the same value.
func SameShape(a, b Action) bool {
	if a.Verb != b.Verb {
		return false
	}
	if len(a.Properties) != len(b.Properties) {
		return false
	}
	if len(a.Properties) > 0 && !SameValue(a.Properties, b.Properties) {
		return false
	}
	if (a.Subactions == nil) != (b.Subactions == nil) || len(a.Subactions) != len(b.Subactions) {
		return false
	}
	for i := range a.Subactions {
		if !SameShape(a.Subactions[i], b.Subactions[i]) {
			return false
		}
	}
	return true
}

// SameValue reports whether a and b encode to the same JSON. Values that cannot be encoded
// fall back to reflect.DeepEqual.
func SameValue(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ja, jb)
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
