package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// ErrNonInteractive indicates a confirmation was required but no terminal is
// attached and --force was not given.
var ErrNonInteractive = errors.New("confirmation required but no terminal is attached (use --force to proceed)")

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Confirm asks the operator a yes/no question. force answers yes without
// prompting; a non-interactive context without force is an error rather than
// a silent yes, so destructive actions never proceed unacknowledged.
func Confirm(question string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !IsInteractive() {
		return false, ErrNonInteractive
	}

	var confirmed bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(question).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed),
	))
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}
