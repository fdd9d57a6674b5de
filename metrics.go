package tokengate

import internalmetrics "github.com/MrEthical07/tokengate/internal/metrics"

// MetricID identifies a counter or histogram in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited      = internalmetrics.MetricLoginRateLimited
	MetricReissueSuccess        = internalmetrics.MetricReissueSuccess
	MetricReissueExpired        = internalmetrics.MetricReissueExpired
	MetricReissueInvalid        = internalmetrics.MetricReissueInvalid
	MetricReissueNotFound       = internalmetrics.MetricReissueNotFound
	MetricReissueRateLimited    = internalmetrics.MetricReissueRateLimited
	MetricLogout                = internalmetrics.MetricLogout
	MetricRevoke                = internalmetrics.MetricRevoke
	MetricAuthenticateSuccess   = internalmetrics.MetricAuthenticateSuccess
	MetricAuthenticateExpired   = internalmetrics.MetricAuthenticateExpired
	MetricAuthenticateInvalid   = internalmetrics.MetricAuthenticateInvalid
	MetricAuthenticateWrongType = internalmetrics.MetricAuthenticateWrongType
	MetricAuthenticateForged    = internalmetrics.MetricAuthenticateForged
	MetricStoreFailure          = internalmetrics.MetricStoreFailure
	MetricRateLimitHit          = internalmetrics.MetricRateLimitHit
	MetricValidateLatency       = internalmetrics.MetricValidateLatency
)

// Metrics holds atomic counters and the optional validate latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a Metrics instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
