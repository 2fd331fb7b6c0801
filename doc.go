/*
Package sitescript edits site scripts: JSON documents holding an ordered tree of actions,
each naming a verb and its properties, with composite verbs carrying subactions.

A script can be edited two ways at once. Structured edits (add, remove, replace, reorder,
toggle) operate on an immutable Document and regenerate the canonical text; raw text edits
are held until the text stops changing for a quiescence window, validated against a JSON
Schema compiled from the verb catalog, and only then replace the Document. The arbiter
between the two views discards the echo of its own regenerated text and drops validation
results superseded by a newer edit.

# Packages

  - pkg/domain: Action, Document and the edit operations.
  - pkg/codec: canonical encoding (indented display form and RFC 8785 compact form).
  - pkg/schema: verb catalog, field validation and the JSON Schema gate.
  - pkg/arbiter: the edit-source arbiter and its quiescence state machine.
  - pkg/session: live editing sessions over a ports.ScriptStore.
  - pkg/adapters: memory, file, redis and loam stores; HTTP and MCP surfaces.

# Usage

	ed, err := sitescript.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	sess, err := ed.Open(ctx, "team-site")
	if err != nil {
		log.Fatal(err)
	}

	text, err := sess.Arbiter().ApplyStructured(ctx, func(d *domain.Document) (*domain.Document, error) {
		next, _, err := d.AddAction(domain.NewAction("setTitle", map[string]any{"title": "Contoso"}))
		return next, err
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(text))

	if _, err := ed.Sessions().Save(ctx, "team-site"); err != nil {
		log.Fatal(err)
	}
*/
package sitescript
