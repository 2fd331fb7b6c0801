/*
Package identity issues the opaque keys that address action nodes inside an in-memory
document.

Keys are unique for the lifetime of the process and never reused. The optional prefix is
cosmetic (it makes keys readable in logs, e.g. "ScriptAction_ScriptAction_3_7") and must
not be parsed or relied upon for uniqueness.
*/
package identity
