package domain_test

import (
	"sort"
	"testing"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/identity"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func docFromVerbs(verbs []string) *domain.Document {
	actions := make([]domain.Action, len(verbs))
	for i, v := range verbs {
		actions[i] = domain.NewAction(v, map[string]any{"n": i}, domain.NewAction("child", nil))
	}
	return domain.NewDocument(actions, domain.WithGenerator(identity.NewSequence()))
}

// TestReorderIsPermutation verifies reordering never changes the multiset of identities.
// Property: sort(ids(reorder(d, i, j))) == sort(ids(d))
func TestReorderIsPermutation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("reorder keeps identities", prop.ForAll(
		func(verbs []string, from, to int) bool {
			if len(verbs) == 0 {
				return true
			}
			doc := docFromVerbs(verbs)
			from, to = from%len(verbs), to%len(verbs)

			next, err := doc.ReorderActions(from, to)
			if err != nil {
				return false
			}
			before, after := doc.Identities(), next.Identities()
			sort.Strings(before)
			sort.Strings(after)
			if len(before) != len(after) {
				return false
			}
			for i := range before {
				if before[i] != after[i] {
					return false
				}
			}
			moved, _ := next.Find(doc.Identities()[from*2])
			return next.Identities()[to*2] == moved.Identity
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestToggleIsInvolution verifies toggling twice restores the open set.
func TestToggleIsInvolution(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("toggle twice is identity", prop.ForAll(
		func(verbs []string, pick int, preOpen []int) bool {
			if len(verbs) == 0 {
				return true
			}
			doc := docFromVerbs(verbs)
			ids := doc.Identities()
			for _, p := range preOpen {
				doc, _ = doc.ToggleEditing(ids[p%len(ids)])
			}
			once, err := doc.ToggleEditing(ids[pick%len(ids)])
			if err != nil {
				return false
			}
			twice, err := once.ToggleEditing(ids[pick%len(ids)])
			if err != nil {
				return false
			}
			a, b := doc.Open(), twice.Open()
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 1000),
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

// TestAddRemoveSubActionInverse verifies removeSubAction undoes addSubAction.
func TestAddRemoveSubActionInverse(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("add then remove restores children", prop.ForAll(
		func(verbs []string, pick int, verb string) bool {
			if len(verbs) == 0 {
				return true
			}
			doc := docFromVerbs(verbs)
			ids := doc.Identities()
			parent := ids[pick%len(ids)]
			before, _ := doc.Find(parent)

			added, id, err := doc.AddSubAction(parent, domain.NewAction(verb, nil))
			if err != nil {
				return false
			}
			removed, err := added.RemoveSubAction(parent, id)
			if err != nil {
				return false
			}
			after, _ := removed.Find(parent)
			return domain.SameShape(before, after) && len(before.Subactions) == len(after.Subactions)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(0, 1000),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
