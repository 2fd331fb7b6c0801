/*
Package arbiter keeps the structured editor and the raw-text editor of one site script in
sync.

Both editors are views of one Document. Structured edits are applied through
Arbiter.ApplyStructured, which regenerates the text view and remembers it so that the
text editor's change event for that regenerated text (the echo) is discarded instead of
being parsed back. Text typed by the user goes through Arbiter.OnTextChanged and is
accepted only after a quiescence window without further changes, once the schema gate
has confirmed it.

The arbiter is a small state machine:

	idle ──text──▶ awaiting-quiescence ──timer──▶ validating ──▶ idle
	                 ▲      │ text (timer restarts)     │ text (result discarded)
	                 └──────┘◀──────────────────────────┘

While text is invalid the previous Document is kept and Valid reports false, which
callers use to block saving.
*/
package arbiter
