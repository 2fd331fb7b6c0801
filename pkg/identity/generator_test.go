package identity

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_Unique(t *testing.T) {
	seq := NewSequence()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := seq.Next("")
		require.False(t, seen[id], "duplicate identity %s", id)
		seen[id] = true
	}
}

func TestSequence_PrefixIsCosmetic(t *testing.T) {
	seq := NewSequence()
	a := seq.Next("x_")
	b := seq.Next("x_")
	assert.True(t, strings.HasPrefix(a, "x_"))
	assert.NotEqual(t, a, b)

	// Overlapping prefixes never collide: "x_1" becomes "x_1_".
	c := seq.Next("x_1")
	assert.Equal(t, "x_1_3", c)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "x_1", a)
}

func TestSequence_OverlappingPrefixes(t *testing.T) {
	seq := NewSequence()
	seen := make(map[string]bool)
	prefixes := []string{"", "a", "a_", "a_1", "a_1_", "ScriptAction_"}
	for i := 0; i < 50; i++ {
		for _, p := range prefixes {
			id := seq.Next(p)
			require.False(t, seen[id], "duplicate identity %s", id)
			seen[id] = true
		}
	}
}

func TestSequence_Concurrent(t *testing.T) {
	seq := NewSequence()
	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := seq.Next("")
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1600)
}

func TestUUID_Next(t *testing.T) {
	var g UUID
	a := g.Next("")
	b := g.Next("")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, DefaultPrefix))
}

func TestChildPrefix(t *testing.T) {
	assert.Equal(t, "ScriptAction_ScriptAction_4_", ChildPrefix("ScriptAction_4"))
}
