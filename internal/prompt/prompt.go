// Package prompt asks the operator for input the login flow cannot derive.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrNonInteractive is returned when input is needed but prompting is off.
var ErrNonInteractive = errors.New("username required but prompting is disabled")

// Username answers the verification screen's username question. A preset
// value wins; otherwise the terminal is asked, unless Interactive is false.
type Username struct {
	Preset      string
	Interactive bool

	// run shows the form; replaced in tests.
	run func(ctx context.Context, form *huh.Form) error
}

// NewUsername returns a prompter that uses preset when non-empty.
func NewUsername(preset string, interactive bool) *Username {
	return &Username{
		Preset:      strings.TrimSpace(preset),
		Interactive: interactive,
		run: func(ctx context.Context, form *huh.Form) error {
			return form.RunWithContext(ctx)
		},
	}
}

// PromptUsername returns the account's @handle without the leading "@".
func (u *Username) PromptUsername(ctx context.Context) (string, error) {
	if u.Preset != "" {
		return normalize(u.Preset), nil
	}
	if !u.Interactive {
		return "", ErrNonInteractive
	}

	var input string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Confirm your X username").
				Description("X wants the account's username before the password").
				Placeholder("username").
				Value(&input).
				Validate(validate),
		),
	)

	if err := u.run(ctx, form); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	if err := validate(input); err != nil {
		return "", err
	}
	return normalize(input), nil
}

func validate(s string) error {
	s = normalize(s)
	if s == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if strings.ContainsAny(s, " \t") {
		return fmt.Errorf("username cannot contain spaces")
	}
	return nil
}

func normalize(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
