package loam

// ScriptMetadata is the frontmatter of a site script document. The canonical JSON content
// is stored as the document body.
type ScriptMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Title       string `json:"title,omitempty" mapstructure:"title"`
	Description string `json:"description,omitempty" mapstructure:"description"`
	Version     int    `json:"version" mapstructure:"version"`
}
