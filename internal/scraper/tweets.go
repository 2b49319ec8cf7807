package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// FetchTweets extracts every tweet currently in the feed, in feed order.
// With TweetScrolls > 0 it then scrolls one viewport at a time and picks
// up tweets not seen on an earlier pass.
func (s *Scraper) FetchTweets(ctx context.Context) []types.TweetRecord {
	var tweets []types.TweetRecord
	seen := make(map[string]bool)

	for pass := 0; pass <= s.opts.TweetScrolls; pass++ {
		if pass > 0 {
			if err := s.page.ScrollByViewport(ctx); err != nil {
				s.logger.Warn("scroll failed", "err", err)
				break
			}
			pause(ctx, s.opts.ScrollPause)
		}
		if ctx.Err() != nil {
			break
		}

		nodes, err := s.wait.All(ctx, nil, s.sel.Get(TweetContainer), s.opts.ElementTimeout)
		if err != nil {
			continue
		}

		added := 0
		for _, n := range nodes {
			t, err := s.ExtractTweet(ctx, n)
			if err != nil {
				s.logger.Warn("skipping tweet", "err", err)
				continue
			}
			// Later passes overlap the previous viewport; the first pass is
			// taken as rendered.
			key := tweetKey(t)
			if pass > 0 && seen[key] {
				continue
			}
			seen[key] = true
			tweets = append(tweets, t)
			added++
		}
		s.logger.Debug("feed pass", "pass", pass, "visible", len(nodes), "new", added)
	}

	s.logger.Info("fetched tweets", "count", len(tweets))
	return tweets
}

func tweetKey(t types.TweetRecord) string {
	return t.Username + "\x00" + t.PostedAt.Format(time.RFC3339) + "\x00" + t.Text
}

// ExtractTweet reads one feed item. Any missing piece fails the whole
// record with browser.ErrExtraction.
func (s *Scraper) ExtractTweet(ctx context.Context, tweet *cdp.Node) (types.TweetRecord, error) {
	t := types.NewTweetRecord()

	author, err := s.first(ctx, tweet, TweetAuthor)
	if err != nil {
		return t, err
	}
	if t.DisplayName, err = s.textOf(ctx, author, AuthorDisplayName); err != nil {
		return t, err
	}
	if t.Username, err = s.username(ctx, author); err != nil {
		return t, err
	}
	if t.PostedAt, err = s.postedAt(ctx, author); err != nil {
		return t, err
	}
	if t.Text, err = s.textOf(ctx, tweet, TweetText); err != nil {
		return t, err
	}

	media, err := s.page.Find(ctx, tweet, s.sel.Get(TweetMedia))
	if err != nil {
		return t, fmt.Errorf("%w: media: %v", browser.ErrExtraction, err)
	}
	t.MediaURLs = make([]string, 0, len(media))
	for _, m := range media {
		src, ok, err := s.page.Attribute(ctx, m, "src")
		if err != nil {
			return t, fmt.Errorf("%w: media src: %v", browser.ErrExtraction, err)
		}
		if ok {
			t.MediaURLs = append(t.MediaURLs, src)
		}
	}

	// Reply, retweet, like and view counts render in that order.
	stats, err := s.page.Find(ctx, tweet, s.sel.Get(TweetStats))
	if err != nil {
		return t, fmt.Errorf("%w: stats: %v", browser.ErrExtraction, err)
	}
	if len(stats) != 4 {
		return t, fmt.Errorf("%w: want 4 stats, found %d", browser.ErrExtraction, len(stats))
	}
	counts := make([]string, len(stats))
	for i, n := range stats {
		if counts[i], err = s.page.Text(ctx, n); err != nil {
			return t, fmt.Errorf("%w: stat %d: %v", browser.ErrExtraction, i, err)
		}
	}
	t.Replies, t.Retweets, t.Likes, t.Views = counts[0], counts[1], counts[2], counts[3]

	t.FetchedAt = s.now()
	return t, nil
}

func (s *Scraper) username(ctx context.Context, author *cdp.Node) (string, error) {
	spans, err := s.page.Find(ctx, author, s.sel.Get(AuthorSpans))
	if err != nil {
		return "", fmt.Errorf("%w: username: %v", browser.ErrExtraction, err)
	}
	for _, span := range spans {
		text, err := s.page.Text(ctx, span)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); strings.HasPrefix(text, "@") {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: no @username in author block", browser.ErrExtraction)
}

func (s *Scraper) postedAt(ctx context.Context, author *cdp.Node) (time.Time, error) {
	node, err := s.first(ctx, author, TweetTime)
	if err != nil {
		return time.Time{}, err
	}
	raw, ok, err := s.page.Attribute(ctx, node, "datetime")
	if err != nil || !ok {
		return time.Time{}, fmt.Errorf("%w: tweet time has no datetime", browser.ErrExtraction)
	}
	return ParseTimestamp(raw)
}

// ParseTimestamp parses the ISO 8601 datetime attribute X puts on <time>
// and normalizes it to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", browser.ErrExtraction, raw, err)
	}
	return ts.UTC(), nil
}

// first returns the first match of t under scope without waiting.
func (s *Scraper) first(ctx context.Context, scope *cdp.Node, t Target) (*cdp.Node, error) {
	nodes, err := s.page.Find(ctx, scope, s.sel.Get(t))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", browser.ErrExtraction, t, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s missing", browser.ErrExtraction, t)
	}
	return nodes[0], nil
}

func (s *Scraper) textOf(ctx context.Context, scope *cdp.Node, t Target) (string, error) {
	node, err := s.first(ctx, scope, t)
	if err != nil {
		return "", err
	}
	text, err := s.page.Text(ctx, node)
	if err != nil {
		return "", fmt.Errorf("%w: %s text: %v", browser.ErrExtraction, t, err)
	}
	return text, nil
}
