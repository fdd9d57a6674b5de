// Package rate implements the Redis-backed fixed-window counters that throttle
// login and reissue attempts.
//
// # Window semantics
//
// INCR, then EXPIRE on the first hit of a window. Key prefixes:
//   - tgl:  login failures per username
//   - tgli: login failures per client IP
//   - tgr:  reissue attempts per username
package rate
