package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Web templates a site design can target.
const (
	WebTemplateTeamSite          = "64"
	WebTemplateCommunicationSite = "68"
)

// SiteDesign groups site scripts that run, in order, when a site is created from it.
type SiteDesign struct {
	ID                  string   `json:"id" yaml:"id"`
	Title               string   `json:"title" yaml:"title"`
	Description         string   `json:"description,omitempty" yaml:"description,omitempty"`
	WebTemplate         string   `json:"webTemplate" yaml:"webTemplate"`
	SiteScriptIDs       []string `json:"siteScriptIds" yaml:"siteScriptIds"`
	PreviewImageURL     string   `json:"previewImageUrl,omitempty" yaml:"previewImageUrl,omitempty"`
	PreviewImageAltText string   `json:"previewImageAltText,omitempty" yaml:"previewImageAltText,omitempty"`
	Version             int      `json:"version" yaml:"version"`
	IsDefault           bool     `json:"isDefault,omitempty" yaml:"isDefault,omitempty"`
}

// NewSiteDesign creates an unsaved team-site design with a fresh ID and no scripts.
func NewSiteDesign(title, description string) *SiteDesign {
	return &SiteDesign{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   description,
		WebTemplate:   WebTemplateTeamSite,
		SiteScriptIDs: []string{},
		Version:       1,
	}
}

// Clone returns a copy that shares no memory with d.
func (d *SiteDesign) Clone() *SiteDesign {
	out := *d
	out.SiteScriptIDs = slices.Clone(d.SiteScriptIDs)
	if out.SiteScriptIDs == nil {
		out.SiteScriptIDs = []string{}
	}
	return &out
}

// Validate checks the fields a design cannot be stored without. It does not check that
// the referenced scripts exist.
func (d *SiteDesign) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidDesign)
	}
	if d.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidDesign)
	}
	switch d.WebTemplate {
	case WebTemplateTeamSite, WebTemplateCommunicationSite:
	default:
		return fmt.Errorf("%w: unknown web template %q", ErrInvalidDesign, d.WebTemplate)
	}
	seen := make(map[string]bool, len(d.SiteScriptIDs))
	for _, id := range d.SiteScriptIDs {
		if id == "" {
			return fmt.Errorf("%w: empty site script id", ErrInvalidDesign)
		}
		if seen[id] {
			return fmt.Errorf("%w: site script %s listed twice", ErrInvalidDesign, id)
		}
		seen[id] = true
	}
	return nil
}

// MoveScript moves the script reference at index from to index to. The design is
// modified in place.
func (d *SiteDesign) MoveScript(from, to int) error {
	n := len(d.SiteScriptIDs)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d to %d in %d scripts", ErrIndexOutOfBounds, from, to, n)
	}
	id := d.SiteScriptIDs[from]
	d.SiteScriptIDs = slices.Delete(d.SiteScriptIDs, from, from+1)
	d.SiteScriptIDs = slices.Insert(d.SiteScriptIDs, to, id)
	return nil
}
