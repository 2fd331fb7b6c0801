/*
Package session manages live editing sessions of site scripts.

A session pairs a persisted domain.SiteScript with an arbiter.Arbiter that owns the
in-memory Document and its text view. The Manager serializes operations per script with
reference-counted local locks and, when configured, a ports.DistributedLocker shared by
every replica.
*/
package session
