package http

import (
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/aretw0/sitescript/pkg/session"
)

type actionView struct {
	Identity   string                `json:"identity"`
	Verb       string                `json:"verb"`
	Label      string                `json:"label"`
	Summary    []schema.SummaryField `json:"summary,omitempty"`
	Properties map[string]any        `json:"properties,omitempty"`
	Open       bool                  `json:"open,omitempty"`
	Subactions []actionView          `json:"subactions,omitempty"`
}

type sessionView struct {
	ID          string               `json:"id"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
	Version     int                  `json:"version"`
	Actions     []actionView         `json:"actions"`
	Text        string               `json:"text"`
	Valid       bool                 `json:"valid"`
	Error       string               `json:"error,omitempty"`
	State       string               `json:"state"`
	Source      domain.ChangeSource  `json:"source,omitempty"`
	Identity    string               `json:"identity,omitempty"`
	Diff        *domain.DocumentDiff `json:"diff,omitempty"`
}

type requestError struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func newSessionView(sess *session.Session, catalog *schema.Catalog) sessionView {
	script := sess.Script()
	arb := sess.Arbiter()
	doc := arb.Document()

	v := sessionView{
		ID:          script.ID,
		Title:       script.Title,
		Description: script.Description,
		Version:     script.Version,
		Actions:     viewActions(doc, catalog, "", doc.Actions()),
		Text:        string(arb.Text()),
		Valid:       arb.Valid(),
		State:       string(arb.State()),
		Source:      arb.Source(),
	}
	if err := arb.Err(); err != nil {
		v.Error = err.Error()
	}
	return v
}

func viewActions(doc *domain.Document, catalog *schema.Catalog, parentVerb string, actions []domain.Action) []actionView {
	out := make([]actionView, 0, len(actions))
	for _, a := range actions {
		open := doc.IsOpen(a.Identity)
		summary := catalog.Summary(parentVerb, a, open)
		view := actionView{
			Identity:   a.Identity,
			Verb:       a.Verb,
			Label:      summary.Label,
			Summary:    summary.Fields,
			Properties: a.Properties,
			Open:       open,
		}
		if a.HasSubactions() {
			view.Subactions = viewActions(doc, catalog, a.Verb, a.Subactions)
		}
		out = append(out, view)
	}
	return out
}
