package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

const (
	summaryProperties = 2
	summaryValueLen   = 60
	notSet            = "Not set"
)

// PropertySchema describes one property of a verb.
type PropertySchema struct {
	Name        string   `mapstructure:"name" json:"name"`
	Type        string   `mapstructure:"type" json:"type"`
	Title       string   `mapstructure:"title" json:"title,omitempty"`
	Description string   `mapstructure:"description" json:"description,omitempty"`
	Enum        []string `mapstructure:"enum" json:"enum,omitempty"`
}

// VerbSchema describes one verb: its label, ordered properties and, for composite verbs,
// the subaction verbs it accepts.
type VerbSchema struct {
	Verb        string           `mapstructure:"verb" json:"verb"`
	Label       string           `mapstructure:"label" json:"label"`
	Description string           `mapstructure:"description" json:"description,omitempty"`
	Properties  []PropertySchema `mapstructure:"properties" json:"properties,omitempty"`
	Required    []string         `mapstructure:"required" json:"required,omitempty"`
	Subactions  []VerbSchema     `mapstructure:"subactions" json:"subactions,omitempty"`

	types Schema
}

// RequiredProperties returns the names of the properties an action must carry.
func (v VerbSchema) RequiredProperties() []string {
	return slices.Clone(v.Required)
}

// OptionalProperties returns the declared properties that are not required, in order.
func (v VerbSchema) OptionalProperties() []string {
	var out []string
	for _, p := range v.Properties {
		if !slices.Contains(v.Required, p.Name) {
			out = append(out, p.Name)
		}
	}
	return out
}

// ChildVerbs returns the verbs allowed as subactions, in catalog order.
func (v VerbSchema) ChildVerbs() []string {
	out := make([]string, len(v.Subactions))
	for i, s := range v.Subactions {
		out[i] = s.Verb
	}
	return out
}

// AllowsChildren reports whether actions of this verb may carry subactions.
func (v VerbSchema) AllowsChildren() bool {
	return len(v.Subactions) > 0
}

// Child returns the schema of a subaction verb.
func (v VerbSchema) Child(verb string) (VerbSchema, bool) {
	for _, s := range v.Subactions {
		if s.Verb == verb {
			return s, true
		}
	}
	return VerbSchema{}, false
}

// Types returns the property types of the verb.
func (v VerbSchema) Types() Schema {
	return v.types
}

// ValidateProperties checks action properties against the verb.
func (v VerbSchema) ValidateProperties(props map[string]any) error {
	return validateAt("", v.types, props, v.Required)
}

// NewAction builds an action of this verb with every property set to its type default.
// Composite verbs start with an empty subaction list.
func (v VerbSchema) NewAction() domain.Action {
	a := domain.Action{Verb: v.Verb, Properties: make(map[string]any, len(v.Properties))}
	for _, p := range v.Properties {
		a.Properties[p.Name] = defaultValue(p)
	}
	if v.AllowsChildren() {
		a.Subactions = []domain.Action{}
	}
	return a
}

func defaultValue(p PropertySchema) any {
	switch p.Type {
	case "string":
		if len(p.Enum) > 0 {
			return p.Enum[0]
		}
		return ""
	case "boolean", "bool":
		return false
	case "integer", "int", "number", "float":
		return json.Number("0")
	case "object":
		return map[string]any{}
	case "array":
		return []any{}
	default:
		if strings.HasPrefix(p.Type, "[") {
			return []any{}
		}
		return nil
	}
}

// SummaryField is one title/value pair of a Summary.
type SummaryField struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Summary is the one-glance description of an action.
type Summary struct {
	Label  string         `json:"label"`
	Fields []SummaryField `json:"fields"`
}

func (s Summary) String() string {
	var b strings.Builder
	b.WriteString(s.Label)
	for _, f := range s.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", f.Title, f.Value)
	}
	return b.String()
}

// Summary describes an action by its label and property values in catalog order. When
// seeMore is false only the first two properties are listed and long values are trimmed.
func (v VerbSchema) Summary(a domain.Action, seeMore bool) Summary {
	s := Summary{Label: v.Label}
	if s.Label == "" {
		s.Label = a.Verb
	}
	for i, p := range v.Properties {
		if !seeMore && i >= summaryProperties {
			break
		}
		title := p.Title
		if title == "" {
			title = p.Name
		}
		value := displayValue(a.Properties[p.Name])
		if !seeMore {
			value = trim(value, summaryValueLen)
		}
		s.Fields = append(s.Fields, SummaryField{Title: title, Value: value})
	}
	return s
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return notSet
	case string:
		if val == "" {
			return notSet
		}
		return val
	case map[string]any, []any:
		out, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(out)
	default:
		return fmt.Sprint(val)
	}
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// Catalog is the set of verbs a site script may use.
type Catalog struct {
	verbs []VerbSchema
	index map[string]int
}

type catalogFile struct {
	Verbs []VerbSchema `mapstructure:"verbs"`
}

// NewCatalog builds a catalog from verb schemas. Verbs must be unique at each level and
// every property type must parse.
func NewCatalog(verbs ...VerbSchema) (*Catalog, error) {
	prepared, err := prepare(verbs, "")
	if err != nil {
		return nil, err
	}
	c := &Catalog{verbs: prepared, index: make(map[string]int, len(prepared))}
	for i, v := range prepared {
		c.index[v.Verb] = i
	}
	return c, nil
}

func prepare(verbs []VerbSchema, parent string) ([]VerbSchema, error) {
	out := make([]VerbSchema, len(verbs))
	seen := make(map[string]struct{}, len(verbs))
	for i, v := range verbs {
		where := v.Verb
		if parent != "" {
			where = parent + "/" + v.Verb
		}
		if v.Verb == "" {
			return nil, fmt.Errorf("catalog: verb %d under %q has no name", i, parent)
		}
		if _, dup := seen[v.Verb]; dup {
			return nil, fmt.Errorf("catalog: duplicate verb %q", where)
		}
		seen[v.Verb] = struct{}{}

		v.types = make(Schema, len(v.Properties))
		for _, p := range v.Properties {
			if p.Name == domain.KeyVerb || p.Name == domain.KeySubactions {
				return nil, fmt.Errorf("catalog: %s: property name %q is reserved", where, p.Name)
			}
			t, err := propertyType(p)
			if err != nil {
				return nil, fmt.Errorf("catalog: %s.%s: %w", where, p.Name, err)
			}
			v.types[p.Name] = t
		}
		for _, r := range v.Required {
			if _, ok := v.types[r]; !ok {
				return nil, fmt.Errorf("catalog: %s: required property %q is not declared", where, r)
			}
		}

		subs, err := prepare(v.Subactions, where)
		if err != nil {
			return nil, err
		}
		v.Subactions = subs
		out[i] = v
	}
	return out, nil
}

func propertyType(p PropertySchema) (Type, error) {
	if len(p.Enum) > 0 {
		if p.Type != "" && p.Type != "string" {
			return nil, fmt.Errorf("enum requires type string, got %q", p.Type)
		}
		return Enum(p.Enum...), nil
	}
	return ParseType(p.Type)
}

// LoadCatalog reads a YAML catalog:
//
//	verbs:
//	  - verb: createSPList
//	    label: Create a list
//	    properties:
//	      - {name: listName, type: string, title: List name}
//	    required: [listName]
//	    subactions:
//	      - verb: setDescription
//	        properties:
//	          - {name: description, type: string}
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("catalog: failed to parse yaml: %w", err)
	}

	var file catalogFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return NewCatalog(file.Verbs...)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(builtinCatalog))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return c
})

// DefaultCatalog returns the built-in catalog of common site-script verbs.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// SchemaFor returns the schema of a root verb.
func (c *Catalog) SchemaFor(verb string) (VerbSchema, bool) {
	i, ok := c.index[verb]
	if !ok {
		return VerbSchema{}, false
	}
	return c.verbs[i], true
}

// Verbs returns the root verbs sorted by label.
func (c *Catalog) Verbs() []VerbSchema {
	out := slices.Clone(c.verbs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// SubactionsOf returns the subaction verbs accepted by a root verb, sorted by label.
func (c *Catalog) SubactionsOf(verb string) []VerbSchema {
	v, ok := c.SchemaFor(verb)
	if !ok {
		return nil
	}
	out := slices.Clone(v.Subactions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// AllowsChildren implements domain.ChildPolicy.
func (c *Catalog) AllowsChildren(verb string) bool {
	v, ok := c.SchemaFor(verb)
	return ok && v.AllowsChildren()
}

// NewAction builds a default root action of verb.
func (c *Catalog) NewAction(verb string) (domain.Action, error) {
	v, ok := c.SchemaFor(verb)
	if !ok {
		return domain.Action{}, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
	}
	return v.NewAction(), nil
}

// NewSubAction builds a default subaction of verb under a parent verb.
func (c *Catalog) NewSubAction(parentVerb, verb string) (domain.Action, error) {
	v, err := c.lookup(parentVerb, verb)
	if err != nil {
		return domain.Action{}, err
	}
	return v.NewAction(), nil
}

// Summary describes an action. parentVerb is empty for root actions. Unknown verbs are
// summarized by verb name alone.
func (c *Catalog) Summary(parentVerb string, a domain.Action, seeMore bool) Summary {
	v, err := c.lookup(parentVerb, a.Verb)
	if err != nil {
		return Summary{Label: a.Verb}
	}
	return v.Summary(a, seeMore)
}

// ValidateAction checks the properties of an action and, recursively, its subactions.
// parentVerb is empty for root actions; path prefixes every reported location.
func (c *Catalog) ValidateAction(parentVerb string, a domain.Action, path string) error {
	var errs []error
	c.validateAction(parentVerb, a, path, &errs)
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func (c *Catalog) validateAction(parentVerb string, a domain.Action, path string, errs *[]error) {
	v, err := c.lookup(parentVerb, a.Verb)
	if err != nil {
		*errs = append(*errs, &ValidationError{Path: path, Key: domain.KeyVerb, Reason: err.Error(), Value: a.Verb})
		return
	}
	if err := validateAt(path, v.types, a.Properties, v.Required); err != nil {
		*errs = append(*errs, ValidationErrors(err)...)
	}
	if a.Subactions == nil {
		return
	}
	if parentVerb != "" || !v.AllowsChildren() {
		*errs = append(*errs, &ValidationError{Path: path, Key: domain.KeySubactions, Reason: "not allowed for " + a.Verb})
		return
	}
	for i, sub := range a.Subactions {
		c.validateAction(a.Verb, sub, fmt.Sprintf("%s.subactions[%d]", path, i), errs)
	}
}

func (c *Catalog) lookup(parentVerb, verb string) (VerbSchema, error) {
	if parentVerb == "" {
		v, ok := c.SchemaFor(verb)
		if !ok {
			return VerbSchema{}, fmt.Errorf("%w: %q", ErrUnknownVerb, verb)
		}
		return v, nil
	}
	parent, ok := c.SchemaFor(parentVerb)
	if !ok {
		return VerbSchema{}, fmt.Errorf("%w: %q", ErrUnknownVerb, parentVerb)
	}
	v, ok := parent.Child(verb)
	if !ok {
		return VerbSchema{}, fmt.Errorf("%w: %q under %q", ErrUnknownVerb, verb, parentVerb)
	}
	return v, nil
}
