// Package events publishes bundle build notifications, e.g. so a CDN purger
// or deploy hook can react when a new artifact appears.
package events

import (
	"context"
	"time"
)

// TypeBundleBuilt is the event type for completed bundle builds.
const TypeBundleBuilt = "bundle.built"

// BundleEvent describes the outcome of one bundle build.
type BundleEvent struct {
	Type       string    `json:"type"`
	BuildID    string    `json:"build_id"`
	Bundle     string    `json:"bundle"`
	Status     string    `json:"status"`
	Output     string    `json:"output,omitempty"`
	URL        string    `json:"url,omitempty"`
	Hash       string    `json:"hash,omitempty"`
	Sources    int       `json:"sources"`
	DurationMS int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher delivers bundle events.
type Publisher interface {
	Publish(ctx context.Context, event BundleEvent) error
	Close() error
}

// NoopPublisher discards events (default when no broker is configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BundleEvent) error { return nil }
func (NoopPublisher) Close() error                                { return nil }
