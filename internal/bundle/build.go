package bundle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// Build stage names reported to metrics and logs.
const (
	StageResolve    = "resolve"
	StageCheckStale = "check_stale"
	StageCombine    = "combine"
	StageFilter     = "filter"
	StageWrite      = "write"
	StagePersist    = "persist_cache"
)

// Build runs the bundle pipeline: check the staleness cache, then combine,
// filter, write the artifact and persist the cache. A disabled bundle does
// nothing and an unchanged one is skipped. On error previous artifacts and
// cache files are left untouched.
//
// Concurrent Build calls on the same bundle are serialized.
func (b *Bundle) Build(ctx context.Context, opts Options) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return b.run(ctx, opts, false, map[*Bundle]bool{})
}

// run executes one build. Nested builds skip the staleness check so they
// always contribute bytes to their parent, and disabled nested bundles still
// produce bytes without writing anything.
func (b *Bundle) run(ctx context.Context, opts Options, nested bool, visiting map[*Bundle]bool) (*BuildResult, error) {
	if visiting[b] {
		return nil, cycleError(b)
	}
	visiting[b] = true
	defer delete(visiting, b)

	b.mu.Lock()
	defer b.mu.Unlock()

	rec := opts.recorder()
	res := &BuildResult{
		BuildID:   uuid.NewString(),
		Bundle:    b.name,
		StartTime: time.Now(),
	}
	ctx = observability.WithBundle(observability.WithBuildID(ctx, res.BuildID), b.label())

	if !b.build && !nested {
		res.Status = BuildStatusDisabled
		res.SkipReason = "build disabled"
		return b.finish(ctx, rec, res), nil
	}

	err := b.stage(ctx, rec, StageResolve, func(context.Context) error {
		var err error
		res.Sources, err = b.Flatten(opts)
		return err
	})
	if err != nil {
		return nil, b.fail(ctx, rec, res, err)
	}

	cachePath := b.CachePath(opts)
	if !nested && cachePath != "" {
		var unchanged bool
		_ = b.stage(ctx, rec, StageCheckStale, func(ctx context.Context) error {
			unchanged = opts.cache().IsUnchanged(ctx, cachePath, res.Sources)
			return nil
		})
		if unchanged {
			res.Status = BuildStatusSkipped
			res.SkipReason = "sources unchanged"
			return b.finish(ctx, rec, res), nil
		}
	}

	var data []byte
	if err := b.stage(ctx, rec, StageCombine, func(ctx context.Context) error {
		var err error
		data, err = b.combine(ctx, opts, visiting)
		return err
	}); err != nil {
		return nil, b.fail(ctx, rec, res, err)
	}

	if err := b.stage(ctx, rec, StageFilter, func(ctx context.Context) error {
		var err error
		data, err = opts.filters().Apply(ctx, data, b.filters)
		return err
	}); err != nil {
		return nil, b.fail(ctx, rec, res, err)
	}

	res.Data = data
	res.Hash = Hash(data)

	if !b.build {
		res.Status = BuildStatusDisabled
		res.SkipReason = "build disabled"
		return b.finish(ctx, rec, res), nil
	}

	res.OutputPath = b.OutputPath(opts, data)
	if res.OutputPath != "" {
		if err := b.stage(ctx, rec, StageWrite, func(context.Context) error {
			return writeOutput(res.OutputPath, data)
		}); err != nil {
			return nil, b.fail(ctx, rec, res, err)
		}
		res.Written = true
	}

	if cachePath != "" {
		if err := b.stage(ctx, rec, StagePersist, func(ctx context.Context) error {
			return opts.cache().Persist(ctx, cachePath, res.Sources)
		}); err != nil {
			return nil, b.fail(ctx, rec, res, err)
		}
	}

	res.Status = BuildStatusBuilt
	return b.finish(ctx, rec, res), nil
}

func (b *Bundle) stage(ctx context.Context, rec metrics.Recorder, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(observability.WithStage(ctx, name))
	rec.ObserveStageDuration(name, time.Since(start))
	return err
}

func (b *Bundle) finish(ctx context.Context, rec metrics.Recorder, res *BuildResult) *BuildResult {
	res.Duration = time.Since(res.StartTime)
	rec.ObserveBuildDuration(b.label(), res.Duration)
	rec.IncBuildOutcome(b.label(), metrics.OutcomeLabel(res.Status))

	if res.Status == BuildStatusBuilt {
		observability.InfoContext(ctx, "Bundle built",
			logfields.Output(res.OutputPath),
			logfields.Hash(res.Hash),
			logfields.Bytes(len(res.Data)),
			logfields.Sources(len(res.Sources)),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	} else {
		observability.DebugContext(ctx, "Bundle not built",
			logfields.Status(string(res.Status)),
			slog.String("reason", res.SkipReason),
			logfields.Sources(len(res.Sources)))
	}
	return res
}

func (b *Bundle) fail(ctx context.Context, rec metrics.Recorder, res *BuildResult, err error) error {
	res.Duration = time.Since(res.StartTime)
	rec.ObserveBuildDuration(b.label(), res.Duration)
	rec.IncBuildOutcome(b.label(), metrics.OutcomeFailed)
	observability.ErrorContext(ctx, "Bundle build failed", logfields.Error(err))
	return err
}
