package internaldefs

import "github.com/MrEthical07/tokengate"

type CounterDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

type HistogramDef struct {
	ID   tokengate.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: tokengate.MetricLoginSuccess, Name: "tokengate_login_success_total", Help: "Successful logins."},
	{ID: tokengate.MetricLoginFailure, Name: "tokengate_login_failure_total", Help: "Failed logins."},
	{ID: tokengate.MetricLoginRateLimited, Name: "tokengate_login_rate_limited_total", Help: "Logins rejected by the attempt budget."},
	{ID: tokengate.MetricReissueSuccess, Name: "tokengate_reissue_success_total", Help: "Successful token reissues."},
	{ID: tokengate.MetricReissueExpired, Name: "tokengate_reissue_expired_total", Help: "Reissues rejected for an expired refresh token."},
	{ID: tokengate.MetricReissueInvalid, Name: "tokengate_reissue_invalid_total", Help: "Reissues rejected for a missing, malformed or wrong-category token."},
	{ID: tokengate.MetricReissueNotFound, Name: "tokengate_reissue_not_found_total", Help: "Reissues whose refresh token had no stored record."},
	{ID: tokengate.MetricReissueRateLimited, Name: "tokengate_reissue_rate_limited_total", Help: "Reissues rejected by the attempt budget."},
	{ID: tokengate.MetricLogout, Name: "tokengate_logout_total", Help: "Logouts."},
	{ID: tokengate.MetricRevoke, Name: "tokengate_revoke_total", Help: "Administrative refresh token revocations."},
	{ID: tokengate.MetricAuthenticateSuccess, Name: "tokengate_authenticate_success_total", Help: "Access tokens accepted by the gate."},
	{ID: tokengate.MetricAuthenticateExpired, Name: "tokengate_authenticate_expired_total", Help: "Expired access tokens."},
	{ID: tokengate.MetricAuthenticateInvalid, Name: "tokengate_authenticate_invalid_total", Help: "Malformed access tokens."},
	{ID: tokengate.MetricAuthenticateWrongType, Name: "tokengate_authenticate_wrong_type_total", Help: "Non-access tokens presented to the gate."},
	{ID: tokengate.MetricAuthenticateForged, Name: "tokengate_authenticate_forged_total", Help: "Access tokens with an invalid signature."},
	{ID: tokengate.MetricStoreFailure, Name: "tokengate_store_failure_total", Help: "Refresh store errors."},
	{ID: tokengate.MetricRateLimitHit, Name: "tokengate_rate_limit_hit_total", Help: "Rate-limit checks that denied a request."},
}

var HistogramDefs = []HistogramDef{
	{ID: tokengate.MetricValidateLatency, Name: "tokengate_authenticate_latency_seconds", Help: "Access token validation latency."},
}

// HistogramBounds are the finite upper bounds in seconds. The engine keeps one
// extra +Inf bucket after them.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundLabels renders every bucket bound, +Inf included, as an le label.
var HistogramBoundLabels = []string{"0.005", "0.01", "0.025", "0.05", "0.1", "0.25", "0.5", "+Inf"}

// NormalizeBuckets copies raw into a fixed array, zero-filling or truncating.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	copy(out[:], raw)
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i, v := range raw {
		running += v
		out[i] = running
	}
	return out
}
