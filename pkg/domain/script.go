package domain

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EmptyContent is the canonical content of a script without actions.
var EmptyContent = json.RawMessage(`{"actions":[]}`)

// SiteScript is the persisted envelope of a script.
type SiteScript struct {
	ID          string          `json:"id" yaml:"id"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Version     int             `json:"version" yaml:"version"`
	Content     json.RawMessage `json:"content" yaml:"-"`
}

// NewSiteScript creates an unsaved script with a fresh ID and no actions.
func NewSiteScript(title, description string) *SiteScript {
	return &SiteScript{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Content:     append(json.RawMessage(nil), EmptyContent...),
	}
}

// Clone returns a copy that shares no memory with s.
func (s *SiteScript) Clone() *SiteScript {
	out := *s
	out.Content = append(json.RawMessage(nil), s.Content...)
	return &out
}
