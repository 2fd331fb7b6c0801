package domain

// DocumentDiff represents the changes between two Documents.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	// Added lists identities present only in the new document.
	Added []string `json:"added,omitempty"`

	// Removed lists identities present only in the old document.
	Removed []string `json:"removed,omitempty"`

	// Modified lists identities whose verb or properties changed.
	Modified []string `json:"modified,omitempty"`

	// Moved lists identities whose parent or relative position among surviving
	// siblings changed.
	Moved []string `json:"moved,omitempty"`

	Opened []string `json:"opened,omitempty"`
	Closed []string `json:"closed,omitempty"`
}

type nodeInfo struct {
	parent string
	node   Action
}


// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, it returns a diff representing the entire newDoc (initial load).
// It returns nil when nothing changed. Identities are the join key, so a document rebuilt
// from text (fresh identities) diffs as a full replacement.
func Diff(oldDoc, newDoc *Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}
	diff := &DocumentDiff{}

	newNodes := flatten(newDoc)
	if oldDoc == nil {
		diff.Added = newDoc.Identities()
		diff.Opened = newDoc.Open()
		if diff.IsEmpty() {
			return nil
		}
		return diff
	}
	oldNodes := flatten(oldDoc)

	for _, id := range oldDoc.Identities() {
		if _, ok := newNodes[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	for _, id := range newDoc.Identities() {
		n := newNodes[id]
		o, ok := oldNodes[id]
		if !ok {
			diff.Added = append(diff.Added, id)
			continue
		}
		if !sameOwnFields(o.node, n.node) {
			diff.Modified = append(diff.Modified, id)
		}
		if o.parent != n.parent {
			diff.Moved = append(diff.Moved, id)
		}
	}
	diff.Moved = append(diff.Moved, reordered(oldDoc, newDoc, oldNodes, newNodes)...)

	for _, id := range newDoc.Open() {
		if !oldDoc.IsOpen(id) {
			diff.Opened = append(diff.Opened, id)
		}
	}
	for _, id := range oldDoc.Open() {
		if !newDoc.IsOpen(id) {
			diff.Closed = append(diff.Closed, id)
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// flatten indexes every node by identity.
func flatten(d *Document) map[string]nodeInfo {
	out := make(map[string]nodeInfo)
	var visit func(list []Action, parent string)
	visit = func(list []Action, parent string) {
		for _, a := range list {
			out[a.Identity] = nodeInfo{parent: parent, node: a}
			visit(a.Subactions, a.Identity)
		}
	}
	visit(d.actions, "")
	return out
}

// reordered returns nodes that kept their parent but changed rank among the siblings that
// exist in both documents. Insertions and removals alone never count as moves.
func reordered(oldDoc, newDoc *Document, oldNodes, newNodes map[string]nodeInfo) []string {
	survivors := func(d *Document, own, other map[string]nodeInfo) map[string][]string {
		out := make(map[string][]string)
		for _, id := range d.Identities() {
			parent := own[id].parent
			if o, ok := other[id]; ok && o.parent == parent {
				out[parent] = append(out[parent], id)
			}
		}
		return out
	}
	before := survivors(oldDoc, oldNodes, newNodes)
	after := survivors(newDoc, newNodes, oldNodes)

	var moved []string
	for _, id := range newDoc.Identities() {
		info := newNodes[id]
		ids := after[info.parent]
		prev := before[info.parent]
		for i, sid := range ids {
			if sid == id && (i >= len(prev) || prev[i] != id) {
				moved = append(moved, id)
				break
			}
		}
	}
	return moved
}

func sameOwnFields(a, b Action) bool {
	a.Subactions, b.Subactions = nil, nil
	return SameShape(a, b)
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return len(d.Added) == 0 &&
		len(d.Removed) == 0 &&
		len(d.Modified) == 0 &&
		len(d.Moved) == 0 &&
		len(d.Opened) == 0 &&
		len(d.Closed) == 0
}
