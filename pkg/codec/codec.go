// Package codec converts between Documents and the canonical site-script JSON.
//
// The canonical form is an object with an ordered "actions" list. Each action object holds
// "verb", its schema-defined properties and, when present, a nested "subactions" list of
// the same shape. Identities and editing state never appear in it. Numbers are carried as
// json.Number so values are emitted exactly as they were read.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/gowebpki/jcs"
)

// Indent is the indentation of the display form.
const Indent = "    "

// Decode parses canonical JSON into a Document with fresh identities and an empty open
// set. A bare top-level array is accepted as the actions list. Structural problems (not an
// object, action without a verb, subactions not a list) are reported as
// domain.ErrInvalidText.
func Decode(data []byte, opts ...domain.DocumentOption) (*domain.Document, error) {
	raw, err := parse(data)
	if err != nil {
		return nil, err
	}

	var list []any
	var extras map[string]any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		actions, ok := v[domain.KeyActions]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", domain.ErrInvalidText, domain.KeyActions)
		}
		if list, ok = actions.([]any); !ok {
			return nil, fmt.Errorf("%w: %q must be a list", domain.ErrInvalidText, domain.KeyActions)
		}
		for k, val := range v {
			if k == domain.KeyActions {
				continue
			}
			if extras == nil {
				extras = make(map[string]any)
			}
			extras[k] = val
		}
	default:
		return nil, fmt.Errorf("%w: expected an object or a list, got %T", domain.ErrInvalidText, raw)
	}

	actions, err := decodeList(list, "actions")
	if err != nil {
		return nil, err
	}
	if extras != nil {
		opts = append([]domain.DocumentOption{domain.WithExtras(extras)}, opts...)
	}
	return domain.NewDocument(actions, opts...), nil
}

// Parse decodes raw text into generic JSON values, numbers as json.Number. Trailing data
// after the first value is an error.
func Parse(data []byte) (any, error) {
	return parse(data)
}

func parse(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidText, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: unexpected data after the script", domain.ErrInvalidText)
	}
	return raw, nil
}

func decodeList(list []any, at string) ([]domain.Action, error) {
	out := make([]domain.Action, 0, len(list))
	for i, item := range list {
		a, err := decodeAction(item, fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func decodeAction(item any, at string) (domain.Action, error) {
	obj, ok := item.(map[string]any)
	if !ok {
		return domain.Action{}, fmt.Errorf("%w: %s: expected an object, got %T", domain.ErrInvalidText, at, item)
	}
	verb, ok := obj[domain.KeyVerb].(string)
	if !ok || verb == "" {
		return domain.Action{}, fmt.Errorf("%w: %s: missing verb", domain.ErrInvalidText, at)
	}

	a := domain.Action{Verb: verb}
	for k, v := range obj {
		switch k {
		case domain.KeyVerb:
		case domain.KeySubactions:
			subs, ok := v.([]any)
			if !ok {
				return domain.Action{}, fmt.Errorf("%w: %s.subactions must be a list", domain.ErrInvalidText, at)
			}
			children, err := decodeList(subs, at+".subactions")
			if err != nil {
				return domain.Action{}, err
			}
			a.Subactions = children
		default:
			if a.Properties == nil {
				a.Properties = make(map[string]any)
			}
			a.Properties[k] = v
		}
	}
	return a, nil
}

// Encode renders the display form: four-space indentation, "verb" first in every action,
// then properties in key order, then "subactions".
func Encode(doc *domain.Document) ([]byte, error) {
	compact, err := encodeOrdered(doc)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", Indent); err != nil {
		return nil, fmt.Errorf("failed to indent script: %w", err)
	}
	return out.Bytes(), nil
}

// EncodeCompact renders the RFC 8785 canonical form (sorted keys, no whitespace). It is
// stable across runs and suitable for storage and fingerprints.
func EncodeCompact(doc *domain.Document) ([]byte, error) {
	compact, err := encodeOrdered(doc)
	if err != nil {
		return nil, err
	}
	out, err := jcs.Transform(compact)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize script: %w", err)
	}
	return out, nil
}

// Fingerprint returns the canonical bytes of arbitrary script text, so two texts that
// differ only in whitespace or key order compare equal.
func Fingerprint(text []byte) (string, error) {
	out, err := jcs.Transform(text)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidText, err)
	}
	return string(out), nil
}

func encodeOrdered(doc *domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	extras := doc.Extras()
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeField(&buf, k, extras[k]); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}

	buf.WriteString(`"actions":`)
	if err := writeList(&buf, doc.Actions()); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeList(buf *bytes.Buffer, actions []domain.Action) error {
	buf.WriteByte('[')
	for i, a := range actions {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeAction(buf, a); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeAction(buf *bytes.Buffer, a domain.Action) error {
	buf.WriteByte('{')
	if err := writeField(buf, domain.KeyVerb, a.Verb); err != nil {
		return err
	}

	keys := make([]string, 0, len(a.Properties))
	for k := range a.Properties {
		if k == domain.KeyVerb || k == domain.KeySubactions {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(',')
		if err := writeField(buf, k, a.Properties[k]); err != nil {
			return err
		}
	}

	if a.Subactions != nil {
		buf.WriteString(`,"subactions":`)
		if err := writeList(buf, a.Subactions); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	if err := writeValue(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	if err := writeValue(buf, value); err != nil {
		return fmt.Errorf("property %q: %w", key, err)
	}
	return nil
}

// writeValue appends the JSON encoding of v with &, < and > kept as typed.
func writeValue(buf *bytes.Buffer, v any) error {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(out.Bytes(), []byte("\n")))
	return nil
}
