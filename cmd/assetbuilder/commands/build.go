package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/assetbuilder/internal/assets"
	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Bundle []string `arg:"" optional:"" help:"Bundles to build (default: all)"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	names := b.Bundle
	if len(names) == 0 {
		names = s.registry.Names()
	}
	report, err := s.build(ctx, names)
	printReport(os.Stdout, report)
	return err
}

func printReport(w io.Writer, report *assets.Report) {
	if report == nil {
		return
	}
	for _, name := range report.Names() {
		printResult(w, name, report.Results[name])
	}
	for _, name := range report.Failed {
		_, _ = fmt.Fprintf(w, "%-12s %s\n", name, "failed")
	}
}

func printResult(w io.Writer, name string, res *bundle.BuildResult) {
	line := fmt.Sprintf("%-12s %-8s", name, res.Status)
	if res.OutputPath != "" {
		line += " " + res.OutputPath
	}
	_, _ = fmt.Fprintln(w, line)
}
