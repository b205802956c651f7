package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/assetbuilder/internal/assets"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/events"
	"git.home.luguber.info/inful/assetbuilder/internal/eventstore"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "ASSETBUILDER_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"assets.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd   `cmd:"" help:"Build every configured bundle"`
	URLs       URLsCmd    `cmd:"" name:"urls" help:"Print the URLs that include a bundle in a page"`
	Watch      WatchCmd   `cmd:"" help:"Rebuild bundles whenever their sources change"`
	History    HistoryCmd `cmd:"" help:"Show recently built bundles"`
	Init       InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setupLogging(nil, os.Stderr)
	return nil
}

// setupLogging installs the default logger. Precedence: --verbose >
// ASSETBUILDER_LOG_LEVEL > config > info.
func (c *CLI) setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := config.LogLevelInfo
	format := config.LogFormatText
	if cfg != nil {
		level = config.NormalizeLogLevel(cfg.Logging.Level)
		format = config.NormalizeLogFormat(cfg.Logging.Format)
	}
	if raw := os.Getenv(LogLevelEnv); raw != "" {
		if l, err := config.ParseLogLevel(raw); err == nil {
			level = l
		}
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}

	opts := &slog.HandlerOptions{Level: level.Slog()}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads .env files next to the configuration, then the
// configuration itself, and applies its logging settings.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	if _, err := config.LoadEnv(filepath.Dir(c.Config)); err != nil {
		slog.Warn("Failed to load environment files", logfields.Error(err))
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger := c.setupLogging(cfg, os.Stderr)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}

// session bundles everything one configuration needs to build.
type session struct {
	cfg       *config.Config
	registry  *assets.Registry
	recorder  *metrics.PrometheusRecorder
	publisher events.Publisher
}

// newSession wires the registry to metrics and, when configured, NATS and
// the build history.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	s := &session{cfg: cfg, publisher: events.NoopPublisher{}}
	if cfg.MetricsTextfile() != "" {
		s.recorder = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	}
	if cfg.Events.Enabled() {
		pub, err := events.NewNATSPublisher(ctx, cfg.EventSettings())
		if err != nil {
			// Events are best effort; builds proceed without them.
			slog.Warn("Build events disabled", logfields.Error(err))
		} else {
			s.publisher = events.WithRetry(pub, cfg.Events.RetryPolicy())
		}
	}

	if path := cfg.HistoryPath(); path != "" {
		store, err := eventstore.NewSQLiteStore(path)
		if err != nil {
			_ = s.publisher.Close()
			return nil, err
		}
		s.publisher = events.Fanout{s.publisher, store}
	}

	opts := []assets.Option{assets.WithPublisher(s.publisher)}
	if s.recorder != nil {
		opts = append(opts, assets.WithRecorder(s.recorder))
	}
	reg, err := cfg.NewRegistry(opts...)
	if err != nil {
		_ = s.publisher.Close()
		return nil, err
	}
	s.registry = reg
	return s, nil
}

// buildAll runs one build pass and writes the manifest and metrics. The
// returned error is the pass's joined bundle failures.
func (s *session) buildAll(ctx context.Context) (*assets.Report, error) {
	return s.build(ctx, s.registry.Names())
}

// build runs one pass over names and refreshes the manifest and metrics
// textfile afterwards.
func (s *session) build(ctx context.Context, names []string) (*assets.Report, error) {
	report, buildErr := s.registry.BuildNames(ctx, names)
	if report == nil {
		return nil, buildErr
	}

	if path := s.cfg.ManifestPath(); path != "" {
		written, err := s.registry.Manifest(report).Write(path)
		switch {
		case err != nil:
			slog.Error("Failed to write manifest", logfields.Path(path), logfields.Error(err))
		case written:
			slog.Info("Manifest updated", logfields.Path(path))
		}
	}
	if path := s.cfg.MetricsTextfile(); path != "" && s.recorder != nil {
		if err := s.recorder.WriteTextfile(path); err != nil {
			slog.Warn("Failed to write metrics", logfields.Path(path), logfields.Error(err))
		}
	}
	return report, buildErr
}

// isArtifact reports paths the session writes itself.
func (s *session) isArtifact(path string) bool {
	clean := filepath.Clean(path)
	if clean == s.cfg.ManifestPath() || clean == s.cfg.MetricsTextfile() {
		return true
	}
	// SQLite keeps -journal and -wal files next to the database.
	if h := s.cfg.HistoryPath(); h != "" && strings.HasPrefix(clean, h) {
		return true
	}
	return s.registry.IsArtifact(clean)
}

func (s *session) close() {
	if err := s.publisher.Close(); err != nil {
		slog.Warn("Failed to close event publisher", logfields.Error(err))
	}
}
