// Package auth restores and captures the X.com browser session so a run
// can skip the login flow.
package auth

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/ibeckermayer/xscrape/internal/browser"
)

// Manager handles X.com authentication
type Manager struct {
	cookieStore *CookieStore
	logger      *log.Logger
}

// NewManager creates a new auth manager
func NewManager(cookieStore *CookieStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{cookieStore: cookieStore, logger: logger.WithPrefix("auth")}
}

// IsAuthenticated checks if we have valid stored credentials
func (m *Manager) IsAuthenticated() bool {
	return m.cookieStore.IsValid()
}

// Restore injects the stored cookies into page and navigates to url. It
// returns false without touching the page when no valid session is stored.
func (m *Manager) Restore(ctx context.Context, page browser.Page, url string) (bool, error) {
	if !m.cookieStore.IsValid() {
		m.logger.Debug("no valid stored session", "path", m.cookieStore.Path())
		return false, nil
	}

	stored, err := m.cookieStore.Load()
	if err != nil {
		return false, err
	}
	if err := page.SetCookies(ctx, stored.NetworkCookies()); err != nil {
		return false, fmt.Errorf("failed to set cookies: %w", err)
	}
	if err := page.Navigate(ctx, url); err != nil {
		return false, fmt.Errorf("failed to navigate: %w", err)
	}

	m.logger.Info("restored session", "captured", stored.CapturedAt, "cookies", len(stored.Cookies))
	return true, nil
}

// Capture saves the page's current X cookies for the next run.
func (m *Manager) Capture(ctx context.Context, page browser.Page) error {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract cookies: %w", err)
	}
	if err := m.cookieStore.Save(cookies); err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	m.logger.Debug("captured session", "path", m.cookieStore.Path())
	return nil
}

// Logout clears stored credentials
func (m *Manager) Logout() error {
	return m.cookieStore.Clear()
}
