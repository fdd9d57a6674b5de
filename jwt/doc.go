// Package jwt encodes and decodes the signed HS256 tokens handed to clients.
//
// Every token carries a category claim ("access" or "refresh"), the username
// as the registered subject, a single role string, and issued-at / expiry
// times with second precision. A [Codec] is immutable after construction and
// safe for concurrent use.
//
// Decode verifies the signature before any claim is trusted. Expired tokens
// still return their claims together with [ErrExpired] so callers can tell an
// expired credential from a forged one.
package jwt
