package filter

import (
	"fmt"
	"strings"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
)

// IOMode declares how a step's process consumes and produces data.
type IOMode string

const (
	ModeStream    IOMode = "--"
	ModeFileIn    IOMode = "f-"
	ModeFileOut   IOMode = "-f"
	ModeFileInOut IOMode = "ff"
)

// ParseMode validates a raw mode string.
func ParseMode(raw string) (IOMode, error) {
	switch m := IOMode(strings.TrimSpace(raw)); m {
	case ModeStream, ModeFileIn, ModeFileOut, ModeFileInOut:
		return m, nil
	case "":
		return ModeStream, nil
	default:
		return "", aerrors.ValidationFailed("filter.mode", fmt.Sprintf("unknown io mode %q (want --, f-, -f or ff)", raw))
	}
}

// ReadsFile reports whether the step reads its input from $IN.
func (m IOMode) ReadsFile() bool { return m == ModeFileIn || m == ModeFileInOut }

// WritesFile reports whether the step writes its output to $OUT.
func (m IOMode) WritesFile() bool { return m == ModeFileOut || m == ModeFileInOut }

// Step is one external command in a chain.
type Step struct {
	Command string `yaml:"command" json:"command"`
	Mode    IOMode `yaml:"mode" json:"mode"`
}

// ParseStep validates and builds a step.
func ParseStep(command, mode string) (Step, error) {
	if strings.TrimSpace(command) == "" {
		return Step{}, aerrors.ValidationFailed("filter.command", "command is empty")
	}
	m, err := ParseMode(mode)
	if err != nil {
		return Step{}, err
	}
	return Step{Command: command, Mode: m}, nil
}

// MustStep is ParseStep for static declarations; it panics on invalid input.
func MustStep(command, mode string) Step {
	s, err := ParseStep(command, mode)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Step) String() string {
	return fmt.Sprintf("%s [%s]", s.Command, s.Mode)
}

// Chain is an ordered list of steps.
type Chain []Step

// Steps flattens chains into one ordered step list.
func Steps(chains []Chain) []Step {
	var out []Step
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}
