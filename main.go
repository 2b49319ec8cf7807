// Command xscrape logs in to X.com in Chrome and exports the home feed and
// the Explore trending tabs as CSV files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/ibeckermayer/xscrape/internal/app"
	"github.com/ibeckermayer/xscrape/internal/auth"
	"github.com/ibeckermayer/xscrape/internal/config"
	"github.com/ibeckermayer/xscrape/internal/prompt"
	"github.com/ibeckermayer/xscrape/internal/scheduler"
	"github.com/ibeckermayer/xscrape/internal/scraper"
	"github.com/ibeckermayer/xscrape/internal/types"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default: user config dir)")
		outputDir  = flag.String("output", "", "directory for the CSV files")
		headful    = flag.Bool("show", false, "show the browser window")
		once       = flag.Bool("once", false, "ignore the schedule and scrape once")
		noPrompt   = flag.Bool("no-prompt", false, "never ask for input on the terminal")
		debug      = flag.Bool("debug", false, "log selector traffic and Chrome events")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "xscrape",
	})
	if *debug {
		logger.SetLevel(log.DebugLevel)
	}

	cfg := loadConfig(*configPath, logger)
	if err := cfg.ApplyEnv(".env"); err != nil {
		logger.Fatal("bad environment", "err", err)
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *headful {
		cfg.Browser.Headless = false
	}
	if *once {
		cfg.Schedule.Cron = ""
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", "err", err)
	}
	if cfg.Schedule.Cron != "" {
		if err := scheduler.Validate(cfg.Schedule.Cron); err != nil {
			logger.Fatal("invalid config", "err", err)
		}
	}

	cookieStorePath, err := auth.DefaultCookieStorePath()
	if err != nil {
		logger.Fatal("Failed to get cookie store path", "err", err)
	}
	authManager := auth.NewManager(auth.NewCookieStore(cookieStorePath), logger)

	progress := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	a := app.New(cfg, authManager, logger,
		app.WithPrompter(prompt.NewUsername(cfg.Credentials.Username, !*noPrompt)),
		app.WithProgress(func(c types.Category, cursor scraper.Cursor, total int) {
			progress.Suffix = fmt.Sprintf(" %s: %d trends (at %s)", c, total, cursor.LastSeenY)
			if !progress.Active() {
				progress.Start()
			}
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("xscrape starting...", "output", cfg.Output.Dir, "headless", cfg.Browser.Headless)
	err = a.Run(ctx)
	progress.Stop()
	if err != nil {
		logger.Fatal("run failed", "err", err)
	}
	logger.Info("Done.")
}

// loadConfig reads path (or the default location), writing a default
// config on first run.
func loadConfig(path string, logger *log.Logger) *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err == nil {
		return cfg
	}

	if !os.IsNotExist(err) {
		logger.Warn("could not load config, using defaults", "err", err)
		return config.Default()
	}

	// First run - create default config
	cfg = config.Default()
	if path != "" {
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
		path, _ = config.ConfigPath()
	}
	if err != nil {
		logger.Warn("could not save default config", "err", err)
	} else {
		logger.Info("Created default config", "path", path)
	}
	return cfg
}
