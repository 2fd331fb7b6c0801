package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/sitescript/pkg/domain"
)

// Overlay contains editing state to visualize on the graph.
type Overlay struct {
	Changed []string
}

// GenerateMermaid produces a Mermaid flowchart of the action tree. Root actions are
// chained in execution order; subactions hang off their parent with dotted edges.
// Shapes:
// - Composite verb (accepts subactions): [[Subroutine]]
// - Open for editing: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(doc *domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    script((\"script\"))\n")

	prev := "script"
	for _, a := range doc.Actions() {
		writeNode(&sb, doc, a)
		fmt.Fprintf(&sb, "    %s --> %s\n", prev, sanitizeMermaidID(a.Identity))
		prev = sanitizeMermaidID(a.Identity)
	}

	if overlay != nil && len(overlay.Changed) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef changed fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		seen := make(map[string]bool)
		for _, id := range overlay.Changed {
			if !doc.Contains(id) || seen[id] {
				continue
			}
			seen[id] = true
			fmt.Fprintf(&sb, "    class %s changed;\n", sanitizeMermaidID(id))
		}
	}

	return sb.String()
}

func writeNode(sb *strings.Builder, doc *domain.Document, a domain.Action) {
	safeID := sanitizeMermaidID(a.Identity)

	opener, closer := "[", "]"
	switch {
	case doc.IsOpen(a.Identity):
		opener, closer = "[/", "/]"
	case a.HasSubactions():
		opener, closer = "[[", "]]"
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", safeID, opener, strings.ReplaceAll(a.Verb, "\"", "'"), closer)

	for _, sub := range a.Subactions {
		writeNode(sb, doc, sub)
		fmt.Fprintf(sb, "    %s -.-> %s\n", safeID, sanitizeMermaidID(sub.Identity))
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
