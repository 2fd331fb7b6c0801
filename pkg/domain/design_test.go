package domain_test

import (
	"testing"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteDesign_Validate(t *testing.T) {
	valid := func() *domain.SiteDesign {
		d := domain.NewSiteDesign("Contoso", "")
		d.SiteScriptIDs = []string{"a", "b"}
		return d
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*domain.SiteDesign)
	}{
		{"missing id", func(d *domain.SiteDesign) { d.ID = "" }},
		{"missing title", func(d *domain.SiteDesign) { d.Title = "" }},
		{"unknown template", func(d *domain.SiteDesign) { d.WebTemplate = "1" }},
		{"empty script id", func(d *domain.SiteDesign) { d.SiteScriptIDs = []string{""} }},
		{"duplicate script", func(d *domain.SiteDesign) { d.SiteScriptIDs = []string{"a", "a"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			assert.ErrorIs(t, d.Validate(), domain.ErrInvalidDesign)
		})
	}

	d := valid()
	d.WebTemplate = domain.WebTemplateCommunicationSite
	assert.NoError(t, d.Validate())
}

func TestSiteDesign_MoveScript(t *testing.T) {
	d := domain.NewSiteDesign("Contoso", "")
	d.SiteScriptIDs = []string{"a", "b", "c"}

	require.NoError(t, d.MoveScript(0, 2))
	assert.Equal(t, []string{"b", "c", "a"}, d.SiteScriptIDs)

	require.NoError(t, d.MoveScript(2, 0))
	assert.Equal(t, []string{"a", "b", "c"}, d.SiteScriptIDs)

	assert.ErrorIs(t, d.MoveScript(0, 3), domain.ErrIndexOutOfBounds)
	assert.ErrorIs(t, d.MoveScript(-1, 0), domain.ErrIndexOutOfBounds)
}

func TestSiteDesign_Clone(t *testing.T) {
	d := domain.NewSiteDesign("Contoso", "")
	d.SiteScriptIDs = []string{"a"}

	c := d.Clone()
	c.SiteScriptIDs[0] = "mutated"
	assert.Equal(t, "a", d.SiteScriptIDs[0])

	d.SiteScriptIDs = nil
	assert.NotNil(t, d.Clone().SiteScriptIDs, "clones always carry a list")
}
