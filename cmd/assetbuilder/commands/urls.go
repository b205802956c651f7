package commands

import (
	"fmt"
	"os"
)

// URLsCmd implements the 'urls' command.
type URLsCmd struct {
	Bundle  string `arg:"" help:"Bundle name"`
	Debug   bool   `help:"List the individual source URLs" xor:"debug"`
	NoDebug bool   `name:"no-debug" help:"List the combined artifact URL" xor:"debug"`
}

func (u *URLsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	reg, err := cfg.NewRegistry()
	if err != nil {
		return err
	}
	urls, err := reg.URLs(u.Bundle, u.debugOverride())
	if err != nil {
		return err
	}
	for _, url := range urls {
		_, _ = fmt.Fprintln(os.Stdout, url)
	}
	return nil
}

// debugOverride returns nil when neither flag is given so the bundle and
// host settings decide.
func (u *URLsCmd) debugOverride() *bool {
	switch {
	case u.Debug:
		v := true
		return &v
	case u.NoDebug:
		v := false
		return &v
	default:
		return nil
	}
}
