package identity

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultPrefix is used for root actions when the caller passes no prefix.
const DefaultPrefix = "ScriptAction_"

// Generator issues unique identities.
type Generator interface {
	// Next returns a value never returned before by this generator.
	Next(prefix string) string
}

// Sequence is a monotonic counter generator. The zero value is ready to use and safe for
// concurrent use.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence creates a counter generator.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next implements Generator. The counter always follows the last '_' of the key, so keys
// stay unique whatever prefixes callers pass.
func (s *Sequence) Next(prefix string) string {
	return normalize(prefix) + strconv.FormatUint(s.n.Add(1), 10)
}

// UUID generates random identities. The HTTP server uses it so an identity a client holds
// on to is never reissued after a restart.
type UUID struct{}

// Next implements Generator.
func (UUID) Next(prefix string) string {
	return normalize(prefix) + uuid.NewString()
}

// Default is the process-wide generator used when no generator is injected.
var Default Generator = NewSequence()

func normalize(prefix string) string {
	if prefix == "" {
		return DefaultPrefix
	}
	if !strings.HasSuffix(prefix, "_") {
		return prefix + "_"
	}
	return prefix
}

// ChildPrefix derives the cosmetic prefix for a subaction of parent.
func ChildPrefix(parent string) string {
	return DefaultPrefix + parent + "_"
}
