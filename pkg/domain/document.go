package domain

import (
	"fmt"
	"sort"

	"github.com/aretw0/sitescript/pkg/identity"
)

// ChildPolicy decides which verbs may carry subactions. The schema catalog implements it.
type ChildPolicy interface {
	AllowsChildren(verb string) bool
}

// AllowAll is a ChildPolicy that accepts subactions under every verb.
type AllowAll struct{}

// AllowsChildren implements ChildPolicy.
func (AllowAll) AllowsChildren(string) bool { return true }

// Document is the editable, in-memory view of a site script.
// A Document is never modified after construction; every edit returns a new one.
type Document struct {
	actions []Action
	open    map[string]struct{}
	extras  map[string]any

	// index maps each identity to its position path (root index, child index, ...).
	index map[string][]int

	ids    identity.Generator
	policy ChildPolicy
}

// DocumentOption configures a Document at construction.
type DocumentOption func(*Document)

// WithGenerator injects the identity generator.
func WithGenerator(g identity.Generator) DocumentOption {
	return func(d *Document) {
		d.ids = g
	}
}

// WithChildPolicy injects the policy consulted before subactions are added.
func WithChildPolicy(p ChildPolicy) DocumentOption {
	return func(d *Document) {
		d.policy = p
	}
}

// WithExtras keeps top-level canonical keys other than "actions" (e.g. "$schema",
// "version") so they survive a round trip.
func WithExtras(extras map[string]any) DocumentOption {
	return func(d *Document) {
		d.extras = cloneMap(extras)
	}
}

// NewDocument builds a Document from actions, assigning a fresh identity to every node
// depth-first in positional order. Identities already present on the input are ignored.
// The open set starts empty.
func NewDocument(actions []Action, opts ...DocumentOption) *Document {
	d := &Document{
		open:   make(map[string]struct{}),
		ids:    identity.Default,
		policy: AllowAll{},
	}
	for _, opt := range opts {
		opt(d)
	}

	d.actions = make([]Action, len(actions))
	for i, a := range actions {
		d.actions[i] = d.rekey(a.Clone(), identity.DefaultPrefix, nil, true)
	}
	d.reindex()
	return d
}

// Actions returns a deep copy of the root actions.
func (d *Document) Actions() []Action {
	out := make([]Action, len(d.actions))
	for i, a := range d.actions {
		out[i] = a.Clone()
	}
	return out
}

// Len returns the number of root actions.
func (d *Document) Len() int {
	return len(d.actions)
}

// Extras returns a copy of the top-level canonical keys other than "actions".
func (d *Document) Extras() map[string]any {
	return cloneMap(d.extras)
}

// Find returns a copy of the node with the given identity, at any depth.
func (d *Document) Find(id string) (Action, bool) {
	path, ok := d.index[id]
	if !ok {
		return Action{}, false
	}
	return d.at(path).Clone(), true
}

// Contains reports whether a node with the identity exists.
func (d *Document) Contains(id string) bool {
	_, ok := d.index[id]
	return ok
}

// Identities returns every identity in depth-first order.
func (d *Document) Identities() []string {
	var out []string
	for _, a := range d.actions {
		a.Walk(func(n Action) bool {
			out = append(out, n.Identity)
			return true
		})
	}
	return out
}

// Open returns the open identities, sorted.
func (d *Document) Open() []string {
	out := make([]string, 0, len(d.open))
	for id := range d.open {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsOpen reports whether the node is open for editing.
func (d *Document) IsOpen(id string) bool {
	_, ok := d.open[id]
	return ok
}

// Canonical returns the persisted shape of the document: the extras plus the ordered
// "actions" list, with every identity and editing flag stripped.
func (d *Document) Canonical() map[string]any {
	out := cloneMap(d.extras)
	if out == nil {
		out = make(map[string]any, 1)
	}
	list := make([]any, len(d.actions))
	for i, a := range d.actions {
		list[i] = a.Canonical()
	}
	out[KeyActions] = list
	return out
}

// AddAction appends a root action and returns the new Document and the identity of the
// added node. A node keeps its identity when it has one that is not already in use.
func (d *Document) AddAction(a Action) (*Document, string, error) {
	if err := d.checkChildren(a); err != nil {
		return d, "", err
	}
	node := d.rekey(a.Clone(), identity.DefaultPrefix, d.taken(nil), false)

	actions := make([]Action, len(d.actions), len(d.actions)+1)
	copy(actions, d.actions)
	actions = append(actions, node)
	return d.derive(actions, d.open), node.Identity, nil
}

// RemoveAction removes the root action with the identity. Identities of the node and its
// descendants leave the open set.
func (d *Document) RemoveAction(id string) (*Document, error) {
	path, ok := d.index[id]
	if !ok || len(path) != 1 {
		return d, fmt.Errorf("%w: root action %s", ErrNotFound, id)
	}
	removed := d.actions[path[0]]
	actions := removeAt(d.actions, path[0])
	return d.derive(actions, withoutSubtree(d.open, removed)), nil
}

// ReplaceAction swaps the node with the identity, at any depth, keeping its position.
// The replacement keeps the old identity unless it carries a different one, in which
// case the old identity stops resolving.
func (d *Document) ReplaceAction(id string, updated Action) (*Document, error) {
	path, ok := d.index[id]
	if !ok {
		return d, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := d.checkChildren(updated); err != nil {
		return d, err
	}
	old := d.at(path)

	repl := updated.Clone()
	if repl.Identity == "" {
		repl.Identity = id
	}
	prefix := identity.DefaultPrefix
	if len(path) > 1 {
		prefix = identity.ChildPrefix(d.at(path[:len(path)-1]).Identity)
	}
	repl = d.rekey(repl, prefix, d.taken(&old), false)

	actions, err := d.updateAt(path, func(Action) (Action, error) { return repl, nil })
	if err != nil {
		return d, err
	}

	open := make(map[string]struct{}, len(d.open))
	replaced, kept := subtreeIDs(old), subtreeIDs(repl)
	for k := range d.open {
		if _, inOld := replaced[k]; inOld {
			if _, inNew := kept[k]; !inNew {
				continue
			}
		}
		open[k] = struct{}{}
	}
	return d.derive(actions, open), nil
}

// ReorderActions moves the root action at from to position to.
func (d *Document) ReorderActions(from, to int) (*Document, error) {
	moved, err := move(d.actions, from, to)
	if err != nil {
		return d, err
	}
	if from == to {
		return d, nil
	}
	return d.derive(moved, d.open), nil
}

// AddSubAction appends a node, under a fresh identity, to the children of parentID.
func (d *Document) AddSubAction(parentID string, a Action) (*Document, string, error) {
	path, ok := d.index[parentID]
	if !ok {
		return d, "", fmt.Errorf("%w: parent %s", ErrNotFound, parentID)
	}
	parent := d.at(path)
	if !d.policy.AllowsChildren(parent.Verb) {
		return d, "", fmt.Errorf("%w: verb %q does not accept subactions", ErrStructuralViolation, parent.Verb)
	}
	if err := d.checkChildren(a); err != nil {
		return d, "", err
	}

	node := a.Clone()
	node.Identity = ""
	node = d.rekey(node, identity.ChildPrefix(parentID), d.taken(nil), false)

	actions, err := d.updateAt(path, func(p Action) (Action, error) {
		subs := make([]Action, len(p.Subactions), len(p.Subactions)+1)
		copy(subs, p.Subactions)
		p.Subactions = append(subs, node)
		return p, nil
	})
	if err != nil {
		return d, "", err
	}
	return d.derive(actions, d.open), node.Identity, nil
}

// RemoveSubAction removes childID from the children of parentID.
func (d *Document) RemoveSubAction(parentID, childID string) (*Document, error) {
	path, ok := d.index[parentID]
	if !ok {
		return d, fmt.Errorf("%w: parent %s", ErrNotFound, parentID)
	}
	childPath, ok := d.index[childID]
	if !ok || !isChildPath(path, childPath) {
		return d, fmt.Errorf("%w: %s is not a subaction of %s", ErrNotFound, childID, parentID)
	}
	idx := childPath[len(childPath)-1]
	removed := d.at(childPath)

	actions, err := d.updateAt(path, func(p Action) (Action, error) {
		p.Subactions = removeAt(p.Subactions, idx)
		return p, nil
	})
	if err != nil {
		return d, err
	}
	return d.derive(actions, withoutSubtree(d.open, removed)), nil
}

// ReorderSubActions moves a child of parentID from one position to another.
func (d *Document) ReorderSubActions(parentID string, from, to int) (*Document, error) {
	path, ok := d.index[parentID]
	if !ok {
		return d, fmt.Errorf("%w: parent %s", ErrNotFound, parentID)
	}
	if _, err := move(d.at(path).Subactions, from, to); err != nil {
		return d, err
	}
	if from == to {
		return d, nil
	}
	actions, err := d.updateAt(path, func(p Action) (Action, error) {
		subs, err := move(p.Subactions, from, to)
		if err != nil {
			return p, err
		}
		p.Subactions = subs
		return p, nil
	})
	if err != nil {
		return d, err
	}
	return d.derive(actions, d.open), nil
}

// ToggleEditing opens a closed node or closes an open one. Other nodes are unaffected.
func (d *Document) ToggleEditing(id string) (*Document, error) {
	if _, ok := d.index[id]; !ok {
		return d, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	open := make(map[string]struct{}, len(d.open)+1)
	for k := range d.open {
		open[k] = struct{}{}
	}
	if _, ok := open[id]; ok {
		delete(open, id)
	} else {
		open[id] = struct{}{}
	}
	return d.derive(d.actions, open), nil
}

// derive builds a sibling Document sharing configuration with d. Untouched subtrees are
// shared between the two; they are never mutated in place.
func (d *Document) derive(actions []Action, open map[string]struct{}) *Document {
	next := &Document{
		actions: actions,
		extras:  d.extras,
		ids:     d.ids,
		policy:  d.policy,
		open:    make(map[string]struct{}, len(open)),
	}
	for k := range open {
		next.open[k] = struct{}{}
	}
	next.reindex()
	return next
}

// reindex rebuilds the identity index and enforces the uniqueness invariant.
func (d *Document) reindex() {
	d.index = make(map[string][]int)
	var visit func(a Action, path []int)
	visit = func(a Action, path []int) {
		if _, dup := d.index[a.Identity]; dup || a.Identity == "" {
			panic(&CorruptionError{Identity: a.Identity})
		}
		d.index[a.Identity] = path
		for i, sub := range a.Subactions {
			visit(sub, appendPath(path, i))
		}
	}
	for i, a := range d.actions {
		visit(a, []int{i})
	}
	for k := range d.open {
		if _, ok := d.index[k]; !ok {
			delete(d.open, k)
		}
	}
}

func (d *Document) at(path []int) Action {
	a := d.actions[path[0]]
	for _, i := range path[1:] {
		a = a.Subactions[i]
	}
	return a
}

// updateAt copies every slice along path and replaces the node at its end with fn's
// result. Siblings off the path are shared.
func (d *Document) updateAt(path []int, fn func(Action) (Action, error)) ([]Action, error) {
	var rec func(list []Action, depth int) ([]Action, error)
	rec = func(list []Action, depth int) ([]Action, error) {
		out := make([]Action, len(list))
		copy(out, list)
		i := path[depth]
		if depth == len(path)-1 {
			n, err := fn(out[i])
			if err != nil {
				return nil, err
			}
			out[i] = n
			return out, nil
		}
		subs, err := rec(out[i].Subactions, depth+1)
		if err != nil {
			return nil, err
		}
		out[i].Subactions = subs
		return out, nil
	}
	return rec(d.actions, 0)
}

// taken returns the identities in use, excluding the subtree of except.
func (d *Document) taken(except *Action) map[string]struct{} {
	var skip map[string]struct{}
	if except != nil {
		skip = subtreeIDs(*except)
	}
	out := make(map[string]struct{}, len(d.index))
	for id := range d.index {
		if _, ok := skip[id]; !ok {
			out[id] = struct{}{}
		}
	}
	return out
}

// rekey assigns identities within a detached subtree. With fresh set every node gets a new
// identity; otherwise a node keeps its identity when it is non-empty and not taken.
// taken is extended with every identity handed out.
func (d *Document) rekey(a Action, prefix string, taken map[string]struct{}, fresh bool) Action {
	if taken == nil {
		taken = make(map[string]struct{})
	}
	_, used := taken[a.Identity]
	if fresh || a.Identity == "" || used {
		a.Identity = d.ids.Next(prefix)
	}
	taken[a.Identity] = struct{}{}
	for i := range a.Subactions {
		a.Subactions[i] = d.rekey(a.Subactions[i], identity.ChildPrefix(a.Identity), taken, fresh)
	}
	return a
}

// checkChildren rejects a subactions list, even an empty one, below verbs the policy
// forbids, at any depth.
func (d *Document) checkChildren(a Action) error {
	var err error
	a.Walk(func(n Action) bool {
		if err != nil {
			return false
		}
		if n.HasSubactions() && !d.policy.AllowsChildren(n.Verb) {
			err = fmt.Errorf("%w: verb %q does not accept subactions", ErrStructuralViolation, n.Verb)
			return false
		}
		return true
	})
	return err
}

// StructurallyEqual reports whether two documents hold the same script, ignoring
// identities and open state.
func StructurallyEqual(a, b *Document) bool {
	if len(a.actions) != len(b.actions) {
		return false
	}
	for i := range a.actions {
		if !SameShape(a.actions[i], b.actions[i]) {
			return false
		}
	}
	if len(a.extras) != len(b.extras) {
		return false
	}
	return len(a.extras) == 0 || SameValue(a.extras, b.extras)
}

func move(list []Action, from, to int) ([]Action, error) {
	if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
		return nil, fmt.Errorf("%w: move %d -> %d in list of %d", ErrIndexOutOfBounds, from, to, len(list))
	}
	out := make([]Action, 0, len(list))
	item := list[from]
	for i, a := range list {
		if i != from {
			out = append(out, a)
		}
	}
	out = append(out[:to], append([]Action{item}, out[to:]...)...)
	return out, nil
}

func removeAt(list []Action, i int) []Action {
	out := make([]Action, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func appendPath(path []int, i int) []int {
	out := make([]int, len(path)+1)
	copy(out, path)
	out[len(path)] = i
	return out
}

func isChildPath(parent, child []int) bool {
	if len(child) != len(parent)+1 {
		return false
	}
	for i := range parent {
		if parent[i] != child[i] {
			return false
		}
	}
	return true
}

func subtreeIDs(a Action) map[string]struct{} {
	out := make(map[string]struct{})
	a.Walk(func(n Action) bool {
		out[n.Identity] = struct{}{}
		return true
	})
	return out
}

func withoutSubtree(open map[string]struct{}, removed Action) map[string]struct{} {
	gone := subtreeIDs(removed)
	out := make(map[string]struct{}, len(open))
	for k := range open {
		if _, ok := gone[k]; !ok {
			out[k] = struct{}{}
		}
	}
	return out
}
