package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/xscrape/internal/config"
)

// Cookies X needs to consider a browser logged in.
const (
	AuthTokenCookie = "auth_token"
	CSRFCookie      = "ct0"
)

// ErrNoSession means no cookie file has been captured yet.
var ErrNoSession = errors.New("no stored session")

// CookieStore persists the X.com session cookies of a logged-in browser
type CookieStore struct {
	path string
	now  func() time.Time
}

// Cookie is the part of a browser cookie needed to restore it. It keeps
// CDP enums as plain strings so a file stays readable when Chrome leaves
// them empty.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site,omitempty"`
}

func fromNetwork(c *network.Cookie) Cookie {
	return Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: string(c.SameSite),
	}
}

// Network converts c back for injection into the browser.
func (c Cookie) Network() *network.Cookie {
	return &network.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Expires:  c.Expires,
		HTTPOnly: c.HTTPOnly,
		Secure:   c.Secure,
		SameSite: network.CookieSameSite(c.SameSite),
	}
}

// StoredCookies represents the persisted cookie data
type StoredCookies struct {
	Cookies    []Cookie  `json:"cookies"`
	CapturedAt time.Time `json:"captured_at"`
	// ExpiresAt is the earliest expiry of the auth cookies; zero when they
	// are session cookies.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewCookieStore creates a cookie store at the given path
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path, now: time.Now}
}

// DefaultCookieStorePath returns the default path for cookie storage
func DefaultCookieStorePath() (string, error) {
	configDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "cookies.json"), nil
}

// Path is the cookie file location.
func (cs *CookieStore) Path() string {
	return cs.path
}

// Save persists the X cookies among cookies, replacing what was stored.
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return fmt.Errorf("failed to create cookie dir: %w", err)
	}

	var kept []Cookie
	for _, c := range XCookies(cookies) {
		kept = append(kept, fromNetwork(c))
	}

	// Earliest expiry among the auth cookies; session cookies carry none
	var earliestExpiry time.Time
	for _, c := range kept {
		if !isAuthCookie(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliestExpiry.IsZero() || exp.Before(earliestExpiry) {
			earliestExpiry = exp
		}
	}

	stored := StoredCookies{
		Cookies:    kept,
		CapturedAt: cs.now().UTC(),
		ExpiresAt:  earliestExpiry.UTC(),
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}

	return os.WriteFile(cs.path, data, 0600)
}

// Load retrieves cookies from disk
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", cs.path, err)
	}

	return &stored, nil
}

// IsValid checks if stored cookies are still valid
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}

	if !stored.ExpiresAt.IsZero() && cs.now().After(stored.ExpiresAt) {
		return false
	}

	hasAuthToken := false
	hasCT0 := false
	for _, c := range stored.Cookies {
		if c.Value == "" {
			continue
		}
		switch c.Name {
		case AuthTokenCookie:
			hasAuthToken = true
		case CSRFCookie:
			hasCT0 = true
		}
	}

	return hasAuthToken && hasCT0
}

// Clear removes stored cookies. Clearing an empty store is not an error.
func (cs *CookieStore) Clear() error {
	if err := os.Remove(cs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// XCookies keeps the cookies set for x.com or twitter.com and their
// subdomains.
func XCookies(cookies []*network.Cookie) []*network.Cookie {
	var out []*network.Cookie
	for _, c := range cookies {
		domain := strings.TrimPrefix(c.Domain, ".")
		for _, base := range []string{"x.com", "twitter.com"} {
			if domain == base || strings.HasSuffix(domain, "."+base) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// NetworkCookies returns the stored cookies ready for injection.
func (s *StoredCookies) NetworkCookies() []*network.Cookie {
	out := make([]*network.Cookie, len(s.Cookies))
	for i, c := range s.Cookies {
		out[i] = c.Network()
	}
	return out
}

func isAuthCookie(name string) bool {
	return name == AuthTokenCookie || name == CSRFCookie
}
