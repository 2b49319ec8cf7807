// Package app wires one browser session to the login flow, the scrapers
// and the CSV export.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/ibeckermayer/xscrape/internal/auth"
	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/config"
	"github.com/ibeckermayer/xscrape/internal/export"
	"github.com/ibeckermayer/xscrape/internal/scheduler"
	"github.com/ibeckermayer/xscrape/internal/scraper"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// HomeURL is the logged-in feed.
const HomeURL = "https://x.com/home"

// App holds the application state for one run.
type App struct {
	config      *config.Config
	authManager *auth.Manager
	logger      *log.Logger

	prompter  scraper.UsernamePrompter
	onAdvance func(types.Category, scraper.Cursor, int)

	runs int
}

// Option configures an App.
type Option func(*App)

// WithPrompter sets who answers the verification screen's username question.
func WithPrompter(p scraper.UsernamePrompter) Option {
	return func(a *App) { a.prompter = p }
}

// WithProgress sets an observer for trend traversal progress.
func WithProgress(fn func(c types.Category, cursor scraper.Cursor, total int)) Option {
	return func(a *App) { a.onAdvance = fn }
}

// New creates a new App instance.
func New(cfg *config.Config, authManager *auth.Manager, logger *log.Logger, opts ...Option) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &App{
		config:      cfg,
		authManager: authManager,
		logger:      logger,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Summary reports what one scrape produced.
type Summary struct {
	Tweets int
	Trends map[types.Category]int
	Files  []string
}

// Run starts Chrome, signs in and scrapes. With a schedule configured it
// keeps the same browser open and scrapes again on every tick until ctx is
// cancelled. Only failing to start Chrome is fatal.
func (a *App) Run(ctx context.Context) error {
	sess, err := browser.NewSession(ctx, browser.Options(a.config.Browser), a.logger.WithPrefix("chrome"))
	if err != nil {
		return err
	}
	defer sess.Close()

	bctx := sess.Context()
	sc, err := a.newScraper(sess)
	if err != nil {
		return err
	}

	a.SignIn(bctx, sess, sc)
	if _, err := a.Scrape(bctx, sess, sc); err != nil {
		a.logger.Error("scrape finished with errors", "err", err)
	}

	if a.config.Schedule.Cron == "" {
		return nil
	}
	return a.schedule(bctx, sess, sc)
}

func (a *App) newScraper(page browser.Page) (*scraper.Scraper, error) {
	opts, err := scraper.OptionsFromConfig(a.config)
	if err != nil {
		return nil, fmt.Errorf("invalid selector overrides: %w", err)
	}
	opts.Logger = a.logger
	opts.Prompter = a.prompter
	opts.OnAdvance = a.onAdvance
	return scraper.New(page, opts), nil
}

func (a *App) schedule(ctx context.Context, page browser.Page, sc *scraper.Scraper) error {
	s, err := scheduler.New(ctx, a.config.Schedule.Timezone, 0, a.logger)
	if err != nil {
		return err
	}
	err = s.AddJob("scrape", a.config.Schedule.Cron, func(ctx context.Context) error {
		_, err := a.Scrape(ctx, page, sc)
		return err
	})
	if err != nil {
		return err
	}

	s.Start()
	for _, j := range s.ListJobs() {
		a.logger.Info("next scrape", "at", j.NextRun)
	}
	<-ctx.Done()
	<-s.Stop().Done()
	return nil
}

// SignIn restores the stored session when there is one, otherwise runs the
// login flow with the credential file. The outcome is logged, not returned:
// scraping proceeds either way.
func (a *App) SignIn(ctx context.Context, page browser.Page, sc *scraper.Scraper) {
	if a.authManager != nil {
		restored, err := a.authManager.Restore(ctx, page, HomeURL)
		if err != nil {
			a.logger.Warn("could not restore session", "err", err)
		}
		if restored && sc.AtHome(ctx) {
			a.logger.Info("Logged in with stored session.")
			return
		}
	}

	if err := page.Navigate(ctx, a.config.Browser.StartURL); err != nil {
		a.logger.Error("could not open start page", "err", err)
	}

	cred, err := config.LoadCredential(a.config.Credentials.Path)
	if err != nil {
		a.logger.Error("skipping login", "err", err)
		return
	}

	report := sc.Login(ctx, cred)
	for _, f := range report.Failures() {
		a.logger.Warn("login step failed", "state", f.State, "step", f.Step, "err", f.Err)
	}

	if !sc.AtHome(ctx) {
		a.logger.Warn("home page not detected after login", "final", report.Final())
		return
	}
	a.logger.Info("Logged in.", "verified", report.Verified())

	if a.authManager != nil {
		if err := a.authManager.Capture(ctx, page); err != nil {
			a.logger.Warn("could not save session", "err", err)
		}
	}
}

// Scrape fetches the feed and the configured trending tabs and writes one
// CSV per dataset into the output directory.
func (a *App) Scrape(ctx context.Context, page browser.Page, sc *scraper.Scraper) (Summary, error) {
	a.runs++
	sum := Summary{Trends: make(map[types.Category]int)}
	var errs []error
	out := a.config.Output.Dir

	if a.config.Scraping.Tweets {
		// Later runs start wherever the previous trend traversal left off.
		if a.runs > 1 {
			if err := page.Navigate(ctx, HomeURL); err != nil {
				a.logger.Warn("could not return to the feed", "err", err)
			}
		}

		tweets := sc.FetchTweets(ctx)
		sum.Tweets = len(tweets)
		path := filepath.Join(out, export.TweetsFile)
		if err := export.WriteTweets(path, tweets); err != nil {
			errs = append(errs, err)
		} else {
			sum.Files = append(sum.Files, path)
			a.logger.Info("wrote tweets", "path", path, "count", len(tweets))
		}
	}

	if a.config.Scraping.Trends {
		categories, err := types.ParseCategories(a.config.Scraping.Categories)
		if err != nil {
			return sum, err
		}

		byCategory := sc.TraverseAll(ctx, categories)
		for _, c := range types.Categories {
			records, ok := byCategory[c]
			if !ok {
				continue
			}
			sum.Trends[c] = len(records)
			path, err := export.WriteTrends(out, c, records)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			sum.Files = append(sum.Files, path)
			a.logger.Info("wrote trends", "category", c, "path", path, "count", len(records))
		}
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return sum, errors.Join(errs...)
}

// Logout clears the stored session.
func (a *App) Logout() error {
	if err := a.authManager.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	a.logger.Info("Logout successful - cookies cleared")
	return nil
}
