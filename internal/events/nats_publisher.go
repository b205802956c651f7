package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
)

// DefaultSubject is used when Config.Subject is empty.
const DefaultSubject = "assetbuilder.bundles"

// Config configures the NATS publisher.
type Config struct {
	URL     string
	Subject string
	// Stream, when set, is created or updated to capture Subject.
	Stream string
	// KVBucket, when set, receives the latest event per bundle keyed by name.
	KVBucket string
	Timeout  time.Duration
}

// NATSPublisher publishes bundle events to NATS JetStream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	kv      jetstream.KeyValue
	subject string
	timeout time.Duration
}

// NewNATSPublisher connects to NATS and prepares the optional stream and KV bucket.
func NewNATSPublisher(ctx context.Context, cfg Config) (*NATSPublisher, error) {
	if cfg.URL == "" {
		return nil, aerrors.ValidationFailed("events.nats_url", "NATS URL is required")
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("assetbuilder"), nats.Timeout(cfg.Timeout))
	if err != nil {
		return nil, aerrors.EventPublish(cfg.Subject, fmt.Errorf("failed to connect to NATS: %w", err))
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, aerrors.EventPublish(cfg.Subject, fmt.Errorf("failed to create JetStream context: %w", err))
	}

	p := &NATSPublisher{conn: conn, js: js, subject: cfg.Subject, timeout: cfg.Timeout}

	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if cfg.Stream != "" {
		if _, err := js.CreateOrUpdateStream(setupCtx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "Asset bundle build events",
			Subjects:    []string{cfg.Subject},
		}); err != nil {
			conn.Close()
			return nil, aerrors.EventPublish(cfg.Subject, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err))
		}
	}

	if cfg.KVBucket != "" {
		if err := p.initKVBucket(setupCtx, cfg.KVBucket); err != nil {
			conn.Close()
			return nil, aerrors.EventPublish(cfg.Subject, err)
		}
	}

	slog.Info("NATS event publisher initialized",
		slog.String("url", cfg.URL),
		logfields.Subject(cfg.Subject),
		slog.String("kv_bucket", cfg.KVBucket))

	return p, nil
}

func (p *NATSPublisher) initKVBucket(ctx context.Context, bucket string) error {
	kv, err := p.js.KeyValue(ctx, bucket)
	if err == nil {
		p.kv = kv
		return nil
	}

	kv, err = p.js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Latest asset bundle builds",
		History:     1,
	})
	if err != nil {
		return fmt.Errorf("failed to create KV bucket: %w", err)
	}
	p.kv = kv
	slog.Info("Created KV bucket for bundle state", slog.String("bucket", bucket))
	return nil
}

// Publish sends the event to the configured subject and records it in the KV
// bucket when one is configured.
func (p *NATSPublisher) Publish(ctx context.Context, event BundleEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	data, err := Encode(event)
	if err != nil {
		return aerrors.EventPublish(p.subject, err)
	}

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return aerrors.EventPublish(p.subject, fmt.Errorf("failed to publish event: %w", err))
	}

	if p.kv != nil && event.Bundle != "" {
		if _, err := p.kv.Put(ctx, event.Bundle, data); err != nil {
			return aerrors.EventPublish(p.subject, fmt.Errorf("failed to store bundle state: %w", err))
		}
	}

	slog.Debug("Published bundle event",
		logfields.Bundle(event.Bundle),
		logfields.BuildID(event.BuildID),
		logfields.Status(event.Status))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	p.conn = nil
	return err
}

// Encode serializes an event, stamping the type and timestamp when unset.
func Encode(event BundleEvent) ([]byte, error) {
	if event.Type == "" {
		event.Type = TypeBundleBuilt
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, nil
}
