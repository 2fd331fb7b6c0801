// Package schema describes which site-script verbs exist and gates raw script text before
// it is accepted into a Document.
//
// A Catalog lists every verb with its ordered properties and, for composite verbs, the
// subaction verbs it accepts:
//
//	catalog, err := schema.LoadCatalog(file)
//	verb, ok := catalog.SchemaFor("createSPList")
//	action, err := catalog.NewAction("createSPList")
//
// Property values are checked by a small type system (string, integer, number, boolean,
// object, array, enum) that understands json.Number, so decoded values keep their exact
// representation while being validated:
//
//	s := schema.Schema{"listName": schema.String(), "templateType": schema.Integer()}
//	err := schema.Validate(s, props, "listName")
//
// The Gate combines both layers. It compiles a draft 2020-12 JSON Schema from the catalog
// for structural checks and runs the per-property types for field-precise errors:
//
//	gate, err := schema.NewGate(catalog)
//	if err := gate.Validate(ctx, raw); err != nil {
//	    var agg *schema.AggregateError
//	    errors.As(err, &agg)
//	}
package schema
