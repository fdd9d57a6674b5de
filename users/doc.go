// Package users stores accounts and adapts them to tokengate.
//
// Verifier implements tokengate.CredentialVerifier on top of a Store and a
// password.Hasher. Registrar backs POST /join. Two stores are provided:
// MemoryStore for tests and single-process demos, and PostgresStore backed by
// pgxpool with goose migrations embedded in the binary.
package users
