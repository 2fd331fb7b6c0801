package session

import (
	"sync"

	"github.com/aretw0/sitescript/pkg/arbiter"
	"github.com/aretw0/sitescript/pkg/domain"
)

// Session is an open script being edited.
type Session struct {
	mu     sync.Mutex
	script *domain.SiteScript

	arb *arbiter.Arbiter
}

// ID returns the script ID.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.script.ID
}

// Script returns a copy of the script envelope as last loaded or saved.
func (s *Session) Script() *domain.SiteScript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.script.Clone()
}

// Describe updates the title and description saved with the next Save.
func (s *Session) Describe(title, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script.Title = title
	s.script.Description = description
}

// Arbiter returns the arbiter owning the session's document.
func (s *Session) Arbiter() *arbiter.Arbiter {
	return s.arb
}

// Document is a shortcut for Arbiter().Document().
func (s *Session) Document() *domain.Document {
	return s.arb.Document()
}

// Text is a shortcut for Arbiter().Text().
func (s *Session) Text() []byte {
	return s.arb.Text()
}
