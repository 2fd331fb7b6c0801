/*
Package ports defines the driven ports (interfaces) of the site-script editor.

These interfaces decouple editing sessions from storage backends and schema sources.

# Key Interfaces

  - ScriptStore: persists and loads SiteScript envelopes (memory, file, redis, loam).
  - DesignStore: persists SiteDesign envelopes (memory, file).
  - SchemaGate: confirms raw script text before it is accepted into a Document.
  - DistributedLocker: serializes access to one script across replicas.
*/
package ports
