// Package notify publishes run outcomes to NATS so other services can react to
// a broken example without polling the history store.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// RunEvent describes one finished run.
type RunEvent struct {
	RunID    string         `json:"run_id"`
	Goal     string         `json:"goal"`
	Dir      string         `json:"dir"`
	Trigger  string         `json:"trigger"`
	Outcome  string         `json:"outcome"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Counts   map[string]int `json:"counts,omitempty"`
	Failure  *Failure       `json:"failure,omitempty"`
}

// Failure names the target that stopped the run.
type Failure struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// Publisher sends run events somewhere.
type Publisher interface {
	Publish(ctx context.Context, ev RunEvent) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, RunEvent) error { return nil }
func (Nop) Close() error                            { return nil }

// New returns a NATS publisher when a server URL is configured and Nop otherwise.
func New(cfg config.EventsConfig) (Publisher, error) {
	if cfg.NATSURL == "" {
		return Nop{}, nil
	}
	return NewNATSPublisher(cfg.NATSURL, cfg.Subject)
}

// NATSPublisher publishes run events as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	conn, err := nats.Connect(url,
		nats.Name("normalize"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher connected", logfields.URL(url), logfields.Subject(subject))
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev RunEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	slog.Debug("Published run event", logfields.RunID(ev.RunID), logfields.Outcome(ev.Outcome))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
