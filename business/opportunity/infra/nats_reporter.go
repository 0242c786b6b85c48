package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fd1az/product-scout/business/opportunity/domain"
	"github.com/fd1az/product-scout/internal/apperror"
	"github.com/fd1az/product-scout/internal/logger"
)

// NATSConfig holds the publisher connection settings.
type NATSConfig struct {
	URL            string
	Subject        string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
}

// Publisher is the subset of *nats.Conn the reporter needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the envelope published for every opportunity and scan summary.
type Event struct {
	Type       string    `json:"type"`
	Scan       int64     `json:"scan"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// ConnectNATS dials the server with reconnect handlers that log state changes.
func ConnectNATS(cfg NATSConfig, log logger.LoggerInterface) (*nats.Conn, error) {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	ctx := context.Background()
	options := []nats.Option{
		nats.Name("product-scout"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn(ctx, "nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(ctx, "nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info(ctx, "nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, apperror.New(apperror.CodePublishFailed,
			apperror.WithCause(err),
			apperror.WithContext("connect to nats at "+cfg.URL))
	}
	return nc, nil
}

// NATSReporter publishes scan results as JSON events.
type NATSReporter struct {
	pub     Publisher
	subject string
	log     logger.LoggerInterface
	onStop  func() error
}

// NewNATSReporter creates a reporter publishing under subject.
// "<subject>.detected" carries one event per opportunity and
// "<subject>.summary" one event per scan.
func NewNATSReporter(pub Publisher, subject string, log logger.LoggerInterface) *NATSReporter {
	if log == nil {
		log = logger.NewDiscard()
	}
	r := &NATSReporter{pub: pub, subject: subject, log: log}
	if nc, ok := pub.(*nats.Conn); ok {
		r.onStop = nc.Drain
	}
	return r
}

// Start initializes the reporter.
func (r *NATSReporter) Start(ctx context.Context) error {
	r.log.Info(ctx, "nats reporter started", "subject", r.subject)
	return nil
}

// Report publishes the opportunities and the summary of snap.
func (r *NATSReporter) Report(ctx context.Context, snap *domain.Snapshot) error {
	var errs []error
	for i := range snap.Opportunities {
		o := &snap.Opportunities[i]
		if err := r.publish(r.subject+".detected", Event{
			Type:       "opportunity.detected",
			Scan:       snap.Scan,
			OccurredAt: o.EvaluatedAt,
			Data:       o,
		}); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.ID, err))
		}
	}

	if err := r.publish(r.subject+".summary", Event{
		Type:       "scan.completed",
		Scan:       snap.Scan,
		OccurredAt: snap.ScannedAt,
		Data:       snap.Summary,
	}); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return apperror.New(apperror.CodePublishFailed,
			apperror.WithCause(errors.Join(errs...)),
			apperror.WithContext(fmt.Sprintf("%d of %d events", len(errs), len(snap.Opportunities)+1)))
	}
	r.log.Debug(ctx, "published scan", "scan", snap.Scan, "opportunities", len(snap.Opportunities))
	return nil
}

func (r *NATSReporter) publish(subject string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.pub.Publish(subject, data)
}

// Stop drains the connection when the reporter owns one.
func (r *NATSReporter) Stop() error {
	if r.onStop == nil {
		return nil
	}
	return r.onStop()
}
