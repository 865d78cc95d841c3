// Package session provides the session model and session persistence for the
// phenyl request pipeline.
//
// A [Session] binds a user identity (entity name + user id) to an opaque
// identifier and an expiry. Sessions are created from a [PreSession] exactly
// once, on successful login, and are read-only afterwards except for deletion.
//
// # Architecture boundaries
//
// This package owns the [Store] contract and its Redis and in-memory
// implementations. It does NOT decide who may log in, inspect credentials, or
// interpret commands — those responsibilities belong to the pipeline.
//
// # What this package must NOT do
//
//   - Import the root phenyl package (no upward imports).
//   - Store credentials or password material in [Session] fields.
//   - Retry failed store operations; the pipeline surfaces failures once.
package session
