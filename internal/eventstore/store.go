// Package eventstore keeps a queryable history of bundle builds in SQLite.
package eventstore

import (
	"context"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/events"
)

// Record is one stored bundle event.
type Record struct {
	ID         int64
	Type       string
	BuildID    string
	Bundle     string
	Status     string
	Output     string
	URL        string
	Hash       string
	Sources    int
	DurationMS int64
	Timestamp  time.Time
}

// Store persists bundle events and answers history queries.
type Store interface {
	events.Publisher
	// Recent returns the newest records first. An empty bundle matches all
	// bundles; limit <= 0 means no limit.
	Recent(ctx context.Context, bundle string, limit int) ([]Record, error)
	// ByBuildID returns the records of one build in insertion order.
	ByBuildID(ctx context.Context, buildID string) ([]Record, error)
}
