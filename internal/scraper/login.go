package scraper

import (
	"context"
	"errors"
	"fmt"
	"unicode"

	"github.com/pquerna/otp/totp"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// LoginState is a screen of the X login flow.
type LoginState int

const (
	StateStart LoginState = iota
	StateSignInClicked
	StateIdentifierEntered
	StateVerificationPrompted
	StatePasswordPrompted
	StatePasswordEntered
	StateLoggedIn
)

func (s LoginState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateSignInClicked:
		return "sign-in-clicked"
	case StateIdentifierEntered:
		return "identifier-entered"
	case StateVerificationPrompted:
		return "verification-prompted"
	case StatePasswordPrompted:
		return "password-prompted"
	case StatePasswordEntered:
		return "password-entered"
	case StateLoggedIn:
		return "logged-in"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// UsernamePrompter supplies the username when X asks to confirm an account
// that was identified by email.
type UsernamePrompter interface {
	PromptUsername(ctx context.Context) (string, error)
}

// ErrNoPrompter is recorded when verification needs a username and no
// prompter is configured.
var ErrNoPrompter = errors.New("no username prompter configured")

// StepResult is the outcome of one action in the login flow.
type StepResult struct {
	State LoginState
	Step  string
	Err   error
	// Optional steps (popup, 2FA) are expected to fail when the screen
	// does not appear.
	Optional bool
}

// LoginReport describes a login run. The flow never aborts; Failures lists
// what went wrong so the caller can decide what to do.
type LoginReport struct {
	Path  []LoginState
	Steps []StepResult
}

// Final is the last state reached.
func (r LoginReport) Final() LoginState {
	if len(r.Path) == 0 {
		return StateStart
	}
	return r.Path[len(r.Path)-1]
}

// Verified reports whether the verification screen was shown.
func (r LoginReport) Verified() bool {
	for _, s := range r.Path {
		if s == StateVerificationPrompted {
			return true
		}
	}
	return false
}

// Failures returns the failed non-optional steps.
func (r LoginReport) Failures() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if s.Err != nil && !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

type loginRun struct {
	s      *Scraper
	report LoginReport
}

func (l *loginRun) enter(state LoginState) {
	l.report.Path = append(l.report.Path, state)
	l.s.logger.Debug("login", "state", state)
}

func (l *loginRun) record(step string, optional bool, err error) {
	l.report.Steps = append(l.report.Steps, StepResult{
		State:    l.report.Final(),
		Step:     step,
		Err:      err,
		Optional: optional,
	})
	if err != nil && !optional {
		l.s.logger.Warn("login step failed", "step", step, "err", err)
	}
}

func (l *loginRun) perform(ctx context.Context, step string, t Target, action browser.Action) {
	l.record(step, false, l.s.wait.Perform(ctx, nil, l.s.sel.Get(t), l.s.opts.ElementTimeout, action))
}

// Login walks the sign-in screens starting from the landing page. Each step
// that fails is recorded and the flow moves on; the report is returned
// without checking that the session is actually logged in.
func (s *Scraper) Login(ctx context.Context, cred types.Credential) LoginReport {
	l := &loginRun{s: s}
	l.enter(StateStart)

	l.perform(ctx, "click sign-in", SignInButton, browser.Click())
	l.enter(StateSignInClicked)

	l.perform(ctx, "type identifier", IdentifierInput, browser.TypeText(cred.Identifier))
	l.perform(ctx, "submit identifier", SignInNextButton, browser.Click())
	l.enter(StateIdentifierEntered)

	if _, err := s.wait.All(ctx, nil, s.sel.Get(VerificationHeading), s.opts.PromptTimeout); err == nil {
		l.enter(StateVerificationPrompted)

		username := cred.Identifier
		if !isDigits(username) {
			username = l.promptUsername(ctx, cred.Identifier)
		}
		pause(ctx, s.opts.VerifyPause)
		l.perform(ctx, "type username", VerificationInput, browser.TypeText(username))
		l.perform(ctx, "submit username", VerificationNext, browser.Click())
	} else {
		l.enter(StatePasswordPrompted)
	}

	pause(ctx, s.opts.StepPause)
	l.perform(ctx, "type password", PasswordInput, browser.TypeText(cred.Password))
	pause(ctx, s.opts.StepPause)
	l.perform(ctx, "click login", LoginButton, browser.Click())
	l.enter(StatePasswordEntered)

	if s.opts.TOTPSecret != "" {
		l.submitTOTP(ctx)
	}

	err := s.wait.Perform(ctx, nil, s.sel.Get(PopupClose), s.opts.ElementTimeout, browser.Click())
	if err != nil {
		s.logger.Info("No popup found.")
	}
	l.record("dismiss popup", true, err)

	l.enter(StateLoggedIn)
	return l.report
}

func (l *loginRun) promptUsername(ctx context.Context, fallback string) string {
	if l.s.opts.Prompter == nil {
		l.record("prompt username", false, ErrNoPrompter)
		return fallback
	}
	username, err := l.s.opts.Prompter.PromptUsername(ctx)
	if err == nil && username == "" {
		err = errors.New("empty username")
	}
	l.record("prompt username", false, err)
	if err != nil {
		return fallback
	}
	return username
}

func (l *loginRun) submitTOTP(ctx context.Context) {
	s := l.s
	input, err := s.wait.One(ctx, nil, s.sel.Get(TwoFactorInput), s.opts.PromptTimeout)
	if err != nil {
		l.record("two-factor code", true, err)
		return
	}

	code, err := totp.GenerateCode(s.opts.TOTPSecret, s.opts.Now())
	if err != nil {
		l.record("two-factor code", false, fmt.Errorf("failed to generate code: %w", err))
		return
	}
	if err := s.page.Type(ctx, input, code); err != nil {
		l.record("two-factor code", false, err)
		return
	}
	l.record("two-factor code", false, nil)
	l.perform(ctx, "submit two-factor code", TwoFactorNext, browser.Click())
}

// isDigits reports whether s is a non-empty run of digits, i.e. a phone
// number X will accept again on the verification screen.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
