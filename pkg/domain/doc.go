/*
Package domain contains the editable document model for site scripts.

A site script is an ordered list of actions. Each action has a verb, a bag of
schema-defined properties and, for composite verbs, an ordered list of subactions. The
in-memory Document wraps that tree, gives every node an opaque identity and tracks which
nodes are open in a structured editor. The package is pure: no I/O, no schema knowledge
beyond the ChildPolicy it is handed.

# Key Entities

  - Action: one node of the tree (verb, properties, optional subactions).
  - Document: the root list plus the set of open identities. Every edit returns a new
    Document; the receiver is never modified.
  - SiteScript: the persisted envelope (id, title, version, canonical content).
  - DocumentDiff: what changed between two Documents.
  - LifecycleHooks: callbacks fired by the edit arbiter.
*/
package domain
