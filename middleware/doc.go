// Package middleware adapts tokengate.Engine to net/http.
//
// # Components
//
//   - [Gate]: reads the access token, attaches the Identity to the request
//     context, and rejects expired, mistyped or forged tokens with 401.
//     Requests without a token pass through unauthenticated.
//   - [RequireAuthenticated], [RequireRole]: downstream authorization, 403 on failure.
//   - [CredentialFilter]: the POST /login endpoint.
//   - [ReissueHandler], [LogoutHandler]: the cookie-driven lifecycle endpoints.
//   - [Chain], [ClientIP]: composition helpers.
//
// This package translates HTTP semantics into Engine calls. It does not parse
// or create tokens and does not touch Redis.
package middleware
