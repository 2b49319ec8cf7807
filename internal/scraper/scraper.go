// Package scraper drives the X.com UI: login, feed extraction and the
// Explore trending tabs.
package scraper

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/config"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// Options tunes waits and pauses. Zero durations mean "no wait".
type Options struct {
	Registry Registry
	Logger   *log.Logger

	ElementTimeout time.Duration
	PromptTimeout  time.Duration
	PollInterval   time.Duration
	VerifyPause    time.Duration
	StepPause      time.Duration
	ScrollPause    time.Duration

	// TweetScrolls is the number of extra viewport scrolls FetchTweets makes.
	TweetScrolls int

	TOTPSecret string
	Prompter   UsernamePrompter

	// OnAdvance is called each time a trend traversal moves its cursor.
	OnAdvance func(c types.Category, cursor Cursor, total int)

	Now func() time.Time
}

// OptionsFromConfig builds Options from the scraping and credential config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	reg, err := DefaultRegistry().With(cfg.Selectors)
	if err != nil {
		return Options{}, err
	}

	s := cfg.Scraping
	return Options{
		Registry:       reg,
		ElementTimeout: s.ElementTimeout.Duration,
		PromptTimeout:  s.PromptTimeout.Duration,
		PollInterval:   s.PollInterval.Duration,
		VerifyPause:    s.VerifyPause.Duration,
		StepPause:      s.StepPause.Duration,
		ScrollPause:    s.ScrollPause.Duration,
		TweetScrolls:   s.TweetScrolls,
		TOTPSecret:     cfg.Credentials.TOTPSecret,
	}, nil
}

// Scraper handles extracting posts and trends from X.com through one page.
// It holds no scrape state of its own; every call starts fresh.
type Scraper struct {
	page   browser.Page
	wait   *browser.Waiter
	sel    Registry
	opts   Options
	logger *log.Logger
}

// New creates a new scraper on page
func New(page browser.Page, opts Options) *Scraper {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Registry.selectors == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger.WithPrefix("scraper")
	return &Scraper{
		page:   page,
		wait:   browser.NewWaiter(page, opts.PollInterval, logger),
		sel:    opts.Registry,
		opts:   opts,
		logger: logger,
	}
}

// AtHome reports whether the logged-in home landmark is on the page.
func (s *Scraper) AtHome(ctx context.Context) bool {
	_, err := s.wait.One(ctx, nil, s.sel.Get(HomeLandmark), s.opts.PromptTimeout)
	return err == nil
}

func (s *Scraper) now() time.Time {
	return s.opts.Now().UTC()
}

// pause sleeps for d unless ctx ends first.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
