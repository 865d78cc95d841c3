// Package phenyl is the request-processing core of a data-access API runtime:
// it resolves a session, runs an authorization/validation pipeline, dispatches
// a command envelope to the matching backend operation, and returns a typed
// result-or-error envelope. It also owns the authentication lifecycle (login
// creates a session, logout destroys one) and a reusable standard user
// strategy that verifies credentials against the backing store and keeps
// passwords out of responses.
//
// The package is designed for concurrent server workloads: [Engine.Run] holds
// no cross-request state and is safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// phenyl is the public surface. It exposes [Engine], [Builder], [Config], the
// command/result envelopes, the hook capability interfaces, and
// [StandardUserDefinition]. Session persistence lives in the session
// subpackage, password transforms in password, shipped backends under
// storage/, and the HTTP binding in httpd.
//
// # What this package must NOT do
//
//   - Raise past the [Engine.Run] boundary: every failure, including a panic
//     in a hook or collaborator, becomes a [Result] carrying an [Error].
//   - Retry backend or hook failures; each is surfaced once, immediately.
//   - Cache collaborator state between requests.
package phenyl
