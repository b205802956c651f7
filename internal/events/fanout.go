package events

import (
	"context"
	"errors"
)

// Fanout delivers every event to all publishers.
type Fanout []Publisher

// Publish sends to each publisher and joins their failures.
func (f Fanout) Publish(ctx context.Context, event BundleEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes each publisher and joins their failures.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
