package types

import (
	"fmt"
	"strings"
	"time"
)

// NA marks a field that could not be read from the page.
const NA = "NA"

// Category is one of the Explore trending tabs.
type Category string

const (
	// CategoryGeneral is the general "Trending" tab; it is the only tab
	// whose entries carry a rank.
	CategoryGeneral       Category = "trending"
	CategoryNews          Category = "news"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
)

// Categories lists every tab in traversal order.
var Categories = []Category{
	CategoryGeneral,
	CategoryNews,
	CategorySports,
	CategoryEntertainment,
}

// Ranked reports whether entries of this tab carry a rank.
func (c Category) Ranked() bool {
	return c == CategoryGeneral
}

// ParseCategory maps a tab name to a Category. "general" is accepted as an
// alias of the trending tab.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trending", "general":
		return CategoryGeneral, nil
	case "news":
		return CategoryNews, nil
	case "sports":
		return CategorySports, nil
	case "entertainment":
		return CategoryEntertainment, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// ParseCategories parses a list of tab names, keeping the given order and
// dropping duplicates.
func ParseCategories(names []string) ([]Category, error) {
	seen := make(map[Category]bool)
	var out []Category
	for _, n := range names {
		c, err := ParseCategory(n)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// Credential is the login identifier (username, email or phone) and password.
type Credential struct {
	Identifier string
	Password   string
}

// TweetRecord is one feed post as displayed. Counts are kept as the page
// renders them ("1.2K").
type TweetRecord struct {
	DisplayName string    `json:"display_name"`
	Username    string    `json:"username"`
	Text        string    `json:"text"`
	Replies     string    `json:"reply_count"`
	Retweets    string    `json:"retweet_count"`
	Likes       string    `json:"like_count"`
	Views       string    `json:"view_count"`
	MediaURLs   []string  `json:"media_urls"`
	PostedAt    time.Time `json:"posted_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// NewTweetRecord returns a record with every text field set to NA.
func NewTweetRecord() TweetRecord {
	return TweetRecord{
		DisplayName: NA,
		Username:    NA,
		Text:        NA,
		Replies:     NA,
		Retweets:    NA,
		Likes:       NA,
		Views:       NA,
	}
}

// TrendRecord is one entry of an Explore trending tab.
type TrendRecord struct {
	Category   Category  `json:"category"`
	Rank       string    `json:"rank,omitempty"`
	Location   string    `json:"location_label"`
	TagOrText  string    `json:"tag_or_text"`
	PostVolume string    `json:"post_volume"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// NewTrendRecord returns a record carrying the defaults for its tab.
func NewTrendRecord(c Category) TrendRecord {
	r := TrendRecord{
		Category:   c,
		Location:   "Unknown",
		TagOrText:  NA,
		PostVolume: NA,
	}
	if c.Ranked() {
		r.Rank = NA
	}
	return r
}
