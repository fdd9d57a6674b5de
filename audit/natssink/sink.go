// Package natssink publishes tokengate audit events to a NATS subject as JSON.
package natssink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/tokengate"
	"github.com/nats-io/nats.go"
)

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "tokengate.audit"

// Publisher is the subset of *nats.Conn used by Sink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Config holds connection settings for Connect.
type Config struct {
	URL           string
	Name          string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "tokengate-audit",
		Subject:       DefaultSubject,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// Connect dials NATS with reconnect handlers that report through logger.
func Connect(cfg Config, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Sink implements tokengate.AuditSink. Publish failures are counted and
// logged; they never reach the engine.
type Sink struct {
	pub     Publisher
	subject string
	logger  *slog.Logger
	failed  atomic.Uint64
}

var _ tokengate.AuditSink = (*Sink)(nil)

func New(pub Publisher, subject string, logger *slog.Logger) *Sink {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{pub: pub, subject: subject, logger: logger}
}

// Emit publishes event on the configured subject.
func (s *Sink) Emit(ctx context.Context, event tokengate.AuditEvent) {
	if err := ctx.Err(); err != nil {
		s.failed.Add(1)
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.failed.Add(1)
		s.logger.ErrorContext(ctx, "audit event encode failed", "event_type", event.EventType, "error", err)
		return
	}
	if err := s.pub.Publish(s.subject, data); err != nil {
		s.failed.Add(1)
		s.logger.WarnContext(ctx, "audit publish failed", "subject", s.subject, "event_type", event.EventType, "error", err)
	}
}

// Failed reports events that could not be published.
func (s *Sink) Failed() uint64 {
	return s.failed.Load()
}
