package scraper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// X.com DOM selectors
// These are isolated here because X changes their DOM frequently
// Update these (or override them in the [selectors] config table) when
// scraping breaks

// Target names a UI element the scraper looks for.
type Target string

const (
	// Login flow
	SignInButton        Target = "sign_in_button"
	IdentifierInput     Target = "identifier_input"
	SignInNextButton    Target = "sign_in_next_button"
	VerificationHeading Target = "verification_heading"
	VerificationInput   Target = "verification_input"
	VerificationNext    Target = "verification_next_button"
	PasswordInput       Target = "password_input"
	LoginButton         Target = "login_button"
	TwoFactorInput      Target = "two_factor_input"
	TwoFactorNext       Target = "two_factor_next_button"
	PopupClose          Target = "popup_close"
	HomeLandmark        Target = "home_landmark"

	// Feed; everything below TweetContainer is relative to it
	TweetContainer    Target = "tweet_container"
	TweetAuthor       Target = "tweet_author"
	TweetText         Target = "tweet_text"
	TweetStats        Target = "tweet_stats"
	TweetMedia        Target = "tweet_media"
	AuthorDisplayName Target = "author_display_name" // relative to TweetAuthor
	AuthorSpans       Target = "author_spans"        // relative to TweetAuthor
	TweetTime         Target = "tweet_time"          // relative to TweetAuthor

	// Explore
	ExploreLink Target = "explore_link"
	ExploreTabs Target = "explore_tabs"
	TrendPanel  Target = "trend_panel"
	TrendItem   Target = "trend_item"  // relative to TrendPanel
	TrendLines  Target = "trend_lines" // relative to TrendItem
)

var relativeTargets = map[Target]bool{
	TweetAuthor:       true,
	TweetText:         true,
	TweetStats:        true,
	TweetMedia:        true,
	AuthorDisplayName: true,
	AuthorSpans:       true,
	TweetTime:         true,
	TrendItem:         true,
	TrendLines:        true,
}

// Relative reports whether t is looked up inside a parent element rather
// than the whole page. Such selectors must be CSS.
func Relative(t Target) bool {
	return relativeTargets[t] || strings.HasPrefix(string(t), "explore_tab_")
}

// TabTarget is the tab link for c, relative to ExploreTabs.
func TabTarget(c types.Category) Target {
	return Target("explore_tab_" + string(c))
}

var defaultSelectors = map[Target]browser.Selector{
	SignInButton:        browser.CSS(`a[data-testid="loginButton"]`),
	IdentifierInput:     browser.CSS(`input[autocomplete="username"]`),
	SignInNextButton:    browser.XPath(`//div[@role="group"][1]//*[@role="button"][2]`),
	VerificationHeading: browser.XPath(`//h1/span/span[text()="Enter your phone number or username"]`),
	VerificationInput:   browser.CSS(`input[data-testid="ocfEnterTextTextInput"]`),
	VerificationNext:    browser.CSS(`[data-testid="ocfEnterTextNextButton"]`),
	PasswordInput:       browser.CSS(`input[name="password"]`),
	LoginButton:         browser.CSS(`[data-testid="LoginForm_Login_Button"]`),
	TwoFactorInput:      browser.CSS(`input[data-testid="ocfEnterTextTextInput"][inputmode="numeric"]`),
	TwoFactorNext:       browser.CSS(`[data-testid="ocfEnterTextNextButton"]`),
	PopupClose:          browser.CSS(`[data-testid="app-bar-close"]`),
	HomeLandmark:        browser.CSS(`[data-testid="SideNav_NewTweet_Button"]`),

	TweetContainer:    browser.CSS(`article[role="article"][data-testid="tweet"]`),
	TweetAuthor:       browser.CSS(`div[data-testid="User-Name"]`),
	TweetText:         browser.CSS(`div[data-testid="tweetText"]`),
	TweetStats:        browser.CSS(`span[data-testid="app-text-transition-container"]`),
	TweetMedia:        browser.CSS(`div[data-testid="card.wrapper"] [src]`),
	AuthorDisplayName: browser.CSS(`:scope > div:first-child span > span`),
	AuthorSpans:       browser.CSS(`span`),
	TweetTime:         browser.CSS(`time`),

	ExploreLink: browser.CSS(`a[data-testid="AppTabBar_Explore_Link"]`),
	ExploreTabs: browser.CSS(`div[role="tablist"][data-testid="ScrollSnap-List"]`),
	TrendPanel:  browser.CSS(`div[aria-label="Timeline: Explore"]`),
	TrendItem:   browser.CSS(`div[data-testid="trend"]`),
	TrendLines:  browser.CSS(`:scope > div > div`),

	TabTarget(types.CategoryGeneral):       browser.CSS(`a[href="/explore/tabs/trending"]`),
	TabTarget(types.CategoryNews):          browser.CSS(`a[href="/explore/tabs/news"]`),
	TabTarget(types.CategorySports):        browser.CSS(`a[href="/explore/tabs/sports"]`),
	TabTarget(types.CategoryEntertainment): browser.CSS(`a[href="/explore/tabs/entertainment"]`),
}

// Registry is an immutable target → selector table.
type Registry struct {
	selectors map[Target]browser.Selector
}

// DefaultRegistry returns the built-in selectors.
func DefaultRegistry() Registry {
	return Registry{selectors: defaultSelectors}
}

// Get returns the selector for t. An unknown target is a programming error.
func (r Registry) Get(t Target) browser.Selector {
	sel, ok := r.selectors[t]
	if !ok {
		panic(fmt.Sprintf("scraper: no selector registered for %q", t))
	}
	return sel
}

// With returns a copy of r with overrides applied. Keys are target names;
// values prefixed with "xpath:" are XPath expressions, anything else is CSS.
func (r Registry) With(overrides map[string]string) (Registry, error) {
	out := make(map[Target]browser.Selector, len(r.selectors))
	for k, v := range r.selectors {
		out[k] = v
	}

	for name, expr := range overrides {
		t := Target(name)
		if _, ok := out[t]; !ok {
			return Registry{}, fmt.Errorf("unknown selector target %q (known: %s)", name, strings.Join(r.Targets(), ", "))
		}
		if strings.TrimSpace(expr) == "" {
			return Registry{}, fmt.Errorf("empty selector for %q", name)
		}
		if x, ok := strings.CutPrefix(expr, "xpath:"); ok {
			if Relative(t) {
				return Registry{}, fmt.Errorf("selector for %q is searched inside a parent element and must be CSS", name)
			}
			out[t] = browser.XPath(x)
		} else {
			out[t] = browser.CSS(expr)
		}
	}

	return Registry{selectors: out}, nil
}

// Targets lists the registered target names, sorted.
func (r Registry) Targets() []string {
	names := make([]string, 0, len(r.selectors))
	for t := range r.selectors {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}
