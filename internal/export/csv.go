// Package export writes scraped records as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibeckermayer/xscrape/internal/types"
)

// TimeLayout is the format of every time column, always in UTC.
const TimeLayout = "15:04:05 02-01-2006 -0700"

// TweetsFile is the file name WriteTweets uses inside an output directory.
const TweetsFile = "tweets.csv"

// TweetHeader is the column order of the tweets file.
var TweetHeader = []string{
	"display_name", "username", "text",
	"reply_count", "retweet_count", "like_count", "view_count",
	"media_urls", "posted_at", "fetched_at",
}

// TrendHeader returns the column order of a trend file for c. Only the
// ranked tab has a rank column.
func TrendHeader(c types.Category) []string {
	h := []string{"location_label", "tag_or_text", "post_volume", "fetched_at"}
	if c.Ranked() {
		return append([]string{"rank"}, h...)
	}
	return h
}

// TrendsFile is the file name for the trends of c.
func TrendsFile(c types.Category) string {
	return string(c) + ".csv"
}

// FormatTime renders t in UTC with TimeLayout; the zero time is NA.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return types.NA
	}
	return t.UTC().Format(TimeLayout)
}

// WriteTweets writes records to path, replacing any existing file.
func WriteTweets(path string, records []types.TweetRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, TweetHeader)
	for _, r := range records {
		rows = append(rows, []string{
			r.DisplayName,
			r.Username,
			r.Text,
			r.Replies,
			r.Retweets,
			r.Likes,
			r.Views,
			strings.Join(r.MediaURLs, " "),
			FormatTime(r.PostedAt),
			FormatTime(r.FetchedAt),
		})
	}
	return writeFile(path, rows)
}

// WriteTrends writes the records of c to <dir>/<category>.csv and returns
// the path written.
func WriteTrends(dir string, c types.Category, records []types.TrendRecord) (string, error) {
	ranked := c.Ranked()
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, TrendHeader(c))
	for _, r := range records {
		row := make([]string, 0, 5)
		if ranked {
			row = append(row, r.Rank)
		}
		row = append(row, r.Location, r.TagOrText, r.PostVolume, FormatTime(r.FetchedAt))
		rows = append(rows, row)
	}

	path := filepath.Join(dir, TrendsFile(c))
	return path, writeFile(path, rows)
}

func writeFile(path string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
