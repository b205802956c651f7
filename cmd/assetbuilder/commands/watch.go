package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before rebuilding (overrides watch.debounce)"`
	Interval time.Duration `help:"Full rebuild interval (overrides watch.interval)"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	configPath, err := filepath.Abs(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	loop := &watchLoop{configPath: configPath, session: s, reload: root.reloadConfig}
	defer loop.close()

	debounce := cfg.Watch.Debounce
	if c.Debounce > 0 {
		debounce = c.Debounce
	}
	w, err := watch.New(debounce, loop.rebuild, watch.WithIgnore(loop.isArtifact))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	sources, _ := loop.rebuild(ctx, nil)
	if err := w.WatchFiles(sources); err != nil {
		return err
	}

	interval := cfg.Watch.Interval
	if c.Interval > 0 {
		interval = c.Interval
	}
	if interval > 0 {
		sched, err := watch.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePeriodicBuild(interval, w.Trigger); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes", slog.Int("directories", len(w.Dirs())), slog.Duration("debounce", debounce))
	return w.Run(ctx)
}

// reloadConfig re-reads the configuration and reapplies its logging.
func (c *CLI) reloadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.setupLogging(cfg, os.Stderr)
	return cfg, nil
}

// watchLoop owns the current session; a configuration change swaps it.
type watchLoop struct {
	configPath string
	reload     func() (*config.Config, error)

	mu      sync.Mutex
	session *session
}

func (l *watchLoop) current() *session {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session
}

// rebuild runs one pass. Build failures are logged, never returned, so the
// watch set keeps following the sources that did resolve.
func (l *watchLoop) rebuild(ctx context.Context, changed []string) ([]string, error) {
	for _, p := range changed {
		if p == l.configPath {
			l.reloadSession(ctx)
			break
		}
	}

	s := l.current()
	report, err := s.buildAll(ctx)
	if err != nil {
		slog.Error("Build pass failed", logfields.Error(err))
	}
	printReport(os.Stdout, report)

	sources := []string{l.configPath}
	if report != nil {
		sources = append(sources, report.Sources()...)
	}
	return sources, nil
}

func (l *watchLoop) reloadSession(ctx context.Context) {
	cfg, err := l.reload()
	if err != nil {
		slog.Error("Configuration reload failed, keeping previous configuration", logfields.Error(err))
		return
	}
	next, err := newSession(ctx, cfg)
	if err != nil {
		slog.Error("Configuration reload failed, keeping previous configuration", logfields.Error(err))
		return
	}
	l.mu.Lock()
	prev := l.session
	l.session = next
	l.mu.Unlock()
	prev.close()
	slog.Info("Configuration reloaded", logfields.Path(l.configPath), slog.Int("bundles", len(next.registry.Names())))
}

func (l *watchLoop) isArtifact(path string) bool {
	return l.current().isArtifact(path)
}

func (l *watchLoop) close() {
	l.current().close()
}
