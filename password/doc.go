// Package password provides one-way password transforms for the standard user
// authentication strategy.
//
// Credential verification recomputes the transform over the presented password
// and looks the result up with an equality filter, so every [Transform] must
// be deterministic: the same input always yields the same output. That rules
// out per-password random salts; the PBKDF2 transform instead takes one fixed
// application-level salt supplied at construction.
//
// # What this package must NOT do
//
//   - Log, persist, or echo plaintext passwords.
//   - Offer a reverse operation; transforms are strictly one-way.
package password
