package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/schema"
)

// DocumentMarkdown renders the action tree as a markdown outline. Open actions list every
// property; collapsed ones show the catalog summary.
func DocumentMarkdown(title string, doc *domain.Document, catalog *schema.Catalog) string {
	var sb strings.Builder
	if title == "" {
		title = "Site script"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if doc.Len() == 0 {
		sb.WriteString("_No actions._\n")
		return sb.String()
	}
	for i, a := range doc.Actions() {
		writeAction(&sb, doc, catalog, "", a, fmt.Sprintf("%d.", i+1), 0)
	}
	return sb.String()
}

func writeAction(sb *strings.Builder, doc *domain.Document, catalog *schema.Catalog, parentVerb string, a domain.Action, marker string, depth int) {
	indent := strings.Repeat("   ", depth)
	summary := catalog.Summary(parentVerb, a, doc.IsOpen(a.Identity))

	fmt.Fprintf(sb, "%s%s **%s** `%s`\n", indent, marker, summary.Label, a.Verb)
	for _, f := range summary.Fields {
		fmt.Fprintf(sb, "%s   - %s: %s\n", indent, f.Title, escape(f.Value))
	}
	for i, sub := range a.Subactions {
		writeAction(sb, doc, catalog, a.Verb, sub, fmt.Sprintf("%d.", i+1), depth+1)
	}
}

func escape(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`")
	return r.Replace(s)
}
