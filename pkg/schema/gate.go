package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaURL   = "https://sitescript.schemas.local/site-script.schema.json"
	draftURL    = "https://json-schema.org/draft/2020-12/schema"
	defsPointer = "#/$defs/"
)

// Gate confirms raw script text conforms to the catalog before it is accepted.
// A Gate is immutable and safe for concurrent use.
type Gate struct {
	catalog  *Catalog
	compiled *jsonschema.Schema
	document []byte
	logger   *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithLogger sets the logger used for validation diagnostics.
func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate compiles the catalog into a JSON Schema.
func NewGate(catalog *Catalog, opts ...GateOption) (*Gate, error) {
	g := &Gate{catalog: catalog, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}

	doc, err := json.Marshal(buildJSONSchema(catalog))
	if err != nil {
		return nil, fmt.Errorf("gate: failed to encode schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("gate: schema load failed: %w", err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("gate: schema compile failed: %w", err)
	}

	g.compiled = compiled
	g.document = doc
	return g, nil
}

// Catalog returns the catalog the gate was compiled from.
func (g *Gate) Catalog() *Catalog {
	return g.catalog
}

// SchemaFor returns the schema of a root verb.
func (g *Gate) SchemaFor(verb string) (VerbSchema, bool) {
	return g.catalog.SchemaFor(verb)
}

// JSONSchema returns the compiled JSON Schema document.
func (g *Gate) JSONSchema() []byte {
	return bytes.Clone(g.document)
}

// Validate checks raw script text. A nil result means the text can be decoded into a
// Document. Failures wrap domain.ErrInvalidText; property problems are also reported as
// an *AggregateError of *ValidationError.
func (g *Gate) Validate(ctx context.Context, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := codec.Decode(raw)
	if err != nil {
		return err
	}

	var errs []error
	for i, a := range doc.Actions() {
		if err := g.catalog.ValidateAction("", a, fmt.Sprintf("actions[%d]", i)); err != nil {
			errs = append(errs, ValidationErrors(err)...)
		}
	}
	if len(errs) > 0 {
		g.logger.Debug("script rejected by catalog", "errors", len(errs))
		return fmt.Errorf("%w: %w", domain.ErrInvalidText, &AggregateError{Errors: errs})
	}

	instance, err := codec.Parse(raw)
	if err != nil {
		return err
	}
	if list, ok := instance.([]any); ok {
		instance = map[string]any{domain.KeyActions: list}
	}
	if err := g.compiled.Validate(instance); err != nil {
		g.logger.Debug("script rejected by json schema", "err", err)
		return fmt.Errorf("%w: %w", domain.ErrInvalidText, fromSchemaError(err))
	}
	return nil
}

func fromSchemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var errs []error
	for _, e := range ve.BasicOutput().Errors {
		if e.Error == "" {
			continue
		}
		errs = append(errs, &ValidationError{Path: e.InstanceLocation, Reason: e.Error})
	}
	if len(errs) == 0 {
		return err
	}
	return &AggregateError{Errors: errs}
}

func buildJSONSchema(c *Catalog) map[string]any {
	defs := make(map[string]any)
	defs["action"] = dispatch(c.verbs, "verb", defs)
	return map[string]any{
		"$schema":  draftURL,
		"type":     "object",
		"required": []string{domain.KeyActions},
		"properties": map[string]any{
			domain.KeyActions: map[string]any{
				"type":  "array",
				"items": map[string]any{"$ref": defsPointer + "action"},
			},
		},
		"$defs": defs,
	}
}

// dispatch selects the verb definition by the "verb" value of an action object.
func dispatch(verbs []VerbSchema, prefix string, defs map[string]any) map[string]any {
	names := make([]string, 0, len(verbs))
	branches := make([]any, 0, len(verbs))
	for _, v := range verbs {
		name := prefix + "." + v.Verb
		defs[name] = verbDefinition(v, name, defs)
		names = append(names, v.Verb)
		branches = append(branches, map[string]any{
			"if": map[string]any{
				"properties": map[string]any{domain.KeyVerb: map[string]any{"const": v.Verb}},
			},
			"then": map[string]any{"$ref": defsPointer + name},
		})
	}

	d := map[string]any{
		"type":     "object",
		"required": []string{domain.KeyVerb},
		"properties": map[string]any{
			domain.KeyVerb: map[string]any{"type": "string", "enum": names},
		},
	}
	if len(branches) > 0 {
		d["allOf"] = branches
	}
	return d
}

func verbDefinition(v VerbSchema, name string, defs map[string]any) map[string]any {
	props := map[string]any{
		domain.KeyVerb: map[string]any{"const": v.Verb},
	}
	for _, p := range v.Properties {
		props[p.Name] = typeDefinition(v.types[p.Name])
	}
	if v.AllowsChildren() {
		children := name + ":children"
		defs[children] = dispatch(v.Subactions, name, defs)
		props[domain.KeySubactions] = map[string]any{
			"type":  "array",
			"items": map[string]any{"$ref": defsPointer + children},
		}
	}

	d := map[string]any{
		"properties":           props,
		"additionalProperties": false,
	}
	if len(v.Required) > 0 {
		d["required"] = v.Required
	}
	return d
}

func typeDefinition(t Type) map[string]any {
	d := map[string]any{}
	if jt := jsonType(t); jt != "" {
		d["type"] = jt
	}
	switch tt := t.(type) {
	case *EnumType:
		d["enum"] = tt.values
	case *ArrayType:
		if tt.elemType != nil {
			d["items"] = typeDefinition(tt.elemType)
		}
	}
	return d
}
