package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listScript = `{
  "$schema": "schema.json",
  "version": 1,
  "actions": [
    {"verb": "setTitle", "title": "Contoso"},
    {
      "verb": "createSPList",
      "listName": "Customers",
      "templateType": 100,
      "subactions": [
        {"verb": "addSPField", "fieldType": "Text", "displayName": "Name", "isRequired": true},
        {"verb": "setDescription", "description": "Customer list"}
      ]
    }
  ]
}`

func decode(t *testing.T, text string) *domain.Document {
	t.Helper()
	doc, err := codec.Decode([]byte(text), domain.WithGenerator(identity.NewSequence()))
	require.NoError(t, err)
	return doc
}

func TestDecode_AssignsIdentitiesDepthFirst(t *testing.T) {
	doc := decode(t, listScript)

	assert.Equal(t, []string{
		"ScriptAction_1",
		"ScriptAction_2",
		"ScriptAction_ScriptAction_2_3",
		"ScriptAction_ScriptAction_2_4",
	}, doc.Identities())
	assert.Empty(t, doc.Open())

	list, ok := doc.Find("ScriptAction_2")
	require.True(t, ok)
	assert.Equal(t, "createSPList", list.Verb)
	assert.Equal(t, json.Number("100"), list.Properties["templateType"])
	assert.Len(t, list.Subactions, 2)

	assert.Equal(t, "schema.json", doc.Extras()["$schema"])
}

func TestDecode_BareList(t *testing.T) {
	doc := decode(t, `[{"verb":"applyTheme","themeName":"Blue"}]`)
	require.Equal(t, 1, doc.Len())
	assert.Equal(t, "applyTheme", doc.Actions()[0].Verb)
	assert.Empty(t, doc.Extras())
}

func TestDecode_InvalidText(t *testing.T) {
	cases := map[string]string{
		"syntax":             `{"actions": [`,
		"scalar":             `42`,
		"missing actions":    `{"title": "x"}`,
		"actions not list":   `{"actions": {}}`,
		"action not object":  `{"actions": ["setTitle"]}`,
		"missing verb":       `{"actions": [{"title": "x"}]}`,
		"empty verb":         `{"actions": [{"verb": ""}]}`,
		"verb not string":    `{"actions": [{"verb": 3}]}`,
		"subactions invalid": `{"actions": [{"verb": "createSPList", "subactions": "no"}]}`,
		"nested no verb":     `{"actions": [{"verb": "createSPList", "subactions": [{}]}]}`,
		"trailing data":      `{"actions": []} {}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode([]byte(text))
			assert.ErrorIs(t, err, domain.ErrInvalidText)
		})
	}
}

func TestEncode_OrderAndIndent(t *testing.T) {
	doc := decode(t, `{"actions":[{"title":"Contoso","verb":"setTitle"},{"verb":"createSPList","subactions":[],"listName":"A"}]}`)

	out, err := codec.Encode(doc)
	require.NoError(t, err)

	expected := `{
    "actions": [
        {
            "verb": "setTitle",
            "title": "Contoso"
        },
        {
            "verb": "createSPList",
            "listName": "A",
            "subactions": []
        }
    ]
}`
	assert.Equal(t, expected, string(out))
}

func TestEncode_DropsEditingState(t *testing.T) {
	doc := decode(t, listScript)
	doc, err := doc.ToggleEditing("ScriptAction_2")
	require.NoError(t, err)

	out, err := codec.Encode(doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "ScriptAction_")
	assert.NotContains(t, string(out), "Identity")
}

func TestEncode_ReorderScenario(t *testing.T) {
	doc := domain.NewDocument([]domain.Action{
		domain.NewAction("setTitle", map[string]any{"title": "A"}),
		domain.NewAction("applyTheme", map[string]any{"themeName": "B"}),
	}, domain.WithGenerator(identity.NewSequence()))

	doc, err := doc.ReorderActions(0, 1)
	require.NoError(t, err)

	out, err := codec.EncodeCompact(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"actions":[{"themeName":"B","verb":"applyTheme"},{"title":"A","verb":"setTitle"}]}`, string(out))
}

func TestEncode_NumbersEmittedAsHeld(t *testing.T) {
	doc := decode(t, `{"actions":[{"verb":"createSPList","templateType":100,"ratio":0.50}]}`)

	out, err := codec.Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"templateType": 100`)
	assert.Contains(t, string(out), `"ratio": 0.50`)
}

func TestEncode_KeepsHTMLCharacters(t *testing.T) {
	doc := decode(t, `{"actions":[{"verb":"setTitle","title":"R&D <Team>"}]}`)

	out, err := codec.Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"title": "R&D <Team>"`)
	assert.NotContains(t, string(out), `\u0026`)

	compact, err := codec.EncodeCompact(doc)
	require.NoError(t, err)
	assert.Equal(t, `{"actions":[{"title":"R&D <Team>","verb":"setTitle"}]}`, string(compact))
}

func TestRoundTrip_GoNativeValues(t *testing.T) {
	doc := domain.NewDocument([]domain.Action{
		domain.NewAction("setRegionalSettings", map[string]any{
			"timezone": 13,
			"tags":     []string{"a"},
			"ratio":    0.25,
		}),
	}, domain.WithGenerator(identity.NewSequence()))

	out, err := codec.Encode(doc)
	require.NoError(t, err)
	again := decode(t, string(out))
	assert.True(t, domain.StructurallyEqual(doc, again))
}

func TestRoundTrip(t *testing.T) {
	doc := decode(t, listScript)
	doc, err := doc.ToggleEditing("ScriptAction_1")
	require.NoError(t, err)

	out, err := codec.Encode(doc)
	require.NoError(t, err)

	again := decode(t, string(out))
	assert.True(t, domain.StructurallyEqual(doc, again))
	assert.Empty(t, again.Open())
}

func TestFingerprint(t *testing.T) {
	a, err := codec.Fingerprint([]byte(`{"actions": [ {"verb":"setTitle", "title":"x"} ]}`))
	require.NoError(t, err)
	b, err := codec.Fingerprint([]byte("{\n\"actions\":[{\"title\":\"x\",\n\"verb\":\"setTitle\"}]}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = codec.Fingerprint([]byte(`{`))
	assert.ErrorIs(t, err, domain.ErrInvalidText)
}

func TestFingerprint_MatchesEncodeCompact(t *testing.T) {
	doc := decode(t, listScript)
	compact, err := codec.EncodeCompact(doc)
	require.NoError(t, err)

	fp, err := codec.Fingerprint([]byte(listScript))
	require.NoError(t, err)
	assert.Equal(t, string(compact), fp)
}
