// Package refresh persists issued refresh tokens in Redis.
//
// A token is only honoured while a record for it exists. Records are keyed by
// the hex SHA-256 of the token and expire through the Redis key TTL, which is
// set to the token's own lifetime, so no sweeper is needed.
//
// Rotation deletes the old record and writes the new one inside a single Lua
// script. Two concurrent rotations of the same token therefore see exactly one
// winner; the loser observes a missing record.
//
// This package does not parse or verify tokens. Callers check signature,
// category and expiry before touching the store.
package refresh
