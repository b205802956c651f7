package bundle

import (
	"bytes"
	"context"
	"os"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
)

// combine concatenates every source in declared order. Nested bundles are
// built first and contribute their filtered output.
func (b *Bundle) combine(ctx context.Context, opts Options, visiting map[*Bundle]bool) ([]byte, error) {
	sources, err := b.Resolve(opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, s := range sources {
		if s.IsBundle() {
			res, err := s.Bundle.run(ctx, opts.For(s.Bundle), true, visiting)
			if err != nil {
				return nil, err
			}
			buf.Write(res.Data)
			continue
		}
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return nil, aerrors.Wrap(err, aerrors.CategorySource, aerrors.SeverityFatal, "failed to read source").
				WithContext("source", s.Path)
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}
