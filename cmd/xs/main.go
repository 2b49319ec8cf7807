// Command xs is a dev CLI for xscrape maintenance and debugging tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"

	"github.com/ibeckermayer/xscrape/internal/app"
	"github.com/ibeckermayer/xscrape/internal/auth"
	xbrowser "github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/config"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "xs"})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "bot-test":
		runBotTest(logger)
	case "open":
		if len(os.Args) < 3 {
			fmt.Println("Usage: xs open <config|output|cache>")
			os.Exit(1)
		}
		runOpen(os.Args[2], logger)
	case "logout":
		runLogout(logger)
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: xs <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  bot-test      Open bot.sannysoft.com to audit browser fingerprint")
	fmt.Println("  open config   Open config file in default editor")
	fmt.Println("  open output   Open the CSV output directory")
	fmt.Println("  open cache    Open cache directory in file explorer")
	fmt.Println("  logout        Forget the stored X session")
}

func loadConfig(logger *log.Logger) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("could not load config, using defaults", "err", err)
		}
		cfg = config.Default()
	}
	if err := cfg.ApplyEnv(".env"); err != nil {
		logger.Warn("bad environment", "err", err)
	}
	return cfg
}

func runBotTest(logger *log.Logger) {
	logger.Info("Opening bot.sannysoft.com with stealth browser options...")

	cfg := loadConfig(logger)
	cfg.Browser.Headless = false // so you can see it

	sess, err := xbrowser.NewSession(context.Background(), xbrowser.Options(cfg.Browser), logger)
	if err != nil {
		logger.Fatal("Failed to start browser", "err", err)
	}
	defer sess.Close()

	if err := sess.Navigate(sess.Context(), "https://bot.sannysoft.com"); err != nil {
		logger.Error("Failed to navigate", "err", err)
	}

	fmt.Println("Press Enter to end program...")
	fmt.Scanln()

	logger.Info("Done.")
}

func runOpen(target string, logger *log.Logger) {
	var path string
	var err error

	switch target {
	case "config":
		path, err = config.ConfigPath()
	case "output":
		path, err = filepath.Abs(loadConfig(logger).Output.Dir)
	case "cache":
		path, err = config.CacheDir()
	default:
		fmt.Printf("Unknown target: %s\n", target)
		os.Exit(1)
	}

	if err != nil {
		logger.Fatal("Failed to get path", "err", err)
	}

	if err := browser.OpenFile(path); err != nil {
		logger.Fatal("Failed to open", "err", err)
	}
}

func runLogout(logger *log.Logger) {
	path, err := auth.DefaultCookieStorePath()
	if err != nil {
		logger.Fatal("Failed to get cookie store path", "err", err)
	}
	a := app.New(loadConfig(logger), auth.NewManager(auth.NewCookieStore(path), logger), logger)
	if err := a.Logout(); err != nil {
		logger.Fatal("Logout failed", "err", err)
	}
}
