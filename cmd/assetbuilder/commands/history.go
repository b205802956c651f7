package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/eventstore"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Bundle string `arg:"" optional:"" help:"Only show this bundle"`
	Limit  int    `short:"n" help:"Maximum number of entries" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	path := cfg.HistoryPath()
	if path == "" {
		return aerrors.ValidationFailed("build.history", "no history database configured")
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return printHistory(context.Background(), store, h.Bundle, h.Limit, os.Stdout)
}

func printHistory(ctx context.Context, store eventstore.Store, bundle string, limit int, w io.Writer) error {
	records, err := store.Recent(ctx, bundle, limit)
	if err != nil {
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Time", "Bundle", "Hash", "Duration", "URL")
	for _, r := range records {
		row := []string{
			r.Timestamp.Local().Format(time.DateTime),
			r.Bundle,
			r.Hash,
			(time.Duration(r.DurationMS) * time.Millisecond).String(),
			r.URL,
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("render history: %w", err)
		}
	}
	return table.Render()
}
