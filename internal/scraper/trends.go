package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/types"
)

// Offset is an optional vertical pixel offset.
type Offset struct {
	Y     float64
	Valid bool
}

// At returns a set offset.
func At(y float64) Offset {
	return Offset{Y: y, Valid: true}
}

// Equal treats two unset offsets as equal, so a failed measurement matches
// a cursor that was never set.
func (o Offset) Equal(p Offset) bool {
	if !o.Valid || !p.Valid {
		return o.Valid == p.Valid
	}
	return o.Y == p.Y
}

func (o Offset) String() string {
	if !o.Valid {
		return "unset"
	}
	return fmt.Sprintf("%gpx", o.Y)
}

// Cursor records how far a trend traversal has read. The trend panel is a
// virtualized list that recycles its nodes, so neither node identity nor
// text is a stable key; the document position of the last item read is.
type Cursor struct {
	LastSeenY  Offset
	LastScroll Offset
}

// FilterSeen drops the items at or above last, keeping the order of the
// rest. positions[i] is the document offset of items[i]. An unset last
// keeps everything.
func FilterSeen[T any](items []T, positions []float64, last Offset) ([]T, []float64) {
	if !last.Valid {
		return items, positions
	}
	var keptItems []T
	var keptPositions []float64
	for i, item := range items {
		if positions[i] > last.Y {
			keptItems = append(keptItems, item)
			keptPositions = append(keptPositions, positions[i])
		}
	}
	return keptItems, keptPositions
}

// OpenCategory clicks through Explore to the tab for c.
func (s *Scraper) OpenCategory(ctx context.Context, c types.Category) error {
	timeout := s.opts.ElementTimeout
	if err := s.wait.Perform(ctx, nil, s.sel.Get(ExploreLink), timeout, browser.Click()); err != nil {
		return fmt.Errorf("failed to open explore: %w", err)
	}
	tabs, err := s.wait.One(ctx, nil, s.sel.Get(ExploreTabs), timeout)
	if err != nil {
		return fmt.Errorf("failed to find explore tabs: %w", err)
	}
	if err := s.wait.Perform(ctx, tabs, s.sel.Get(TabTarget(c)), timeout, browser.Click()); err != nil {
		return fmt.Errorf("failed to open %s tab: %w", c, err)
	}
	return nil
}

// Traverse reads every entry of the trending tab c, scrolling the panel
// until no new entries appear or the page stops moving.
func (s *Scraper) Traverse(ctx context.Context, c types.Category) []types.TrendRecord {
	logger := s.logger.With("category", c)

	if err := s.OpenCategory(ctx, c); err != nil {
		logger.Warn("could not open tab, reading whatever is shown", "err", err)
	}

	var (
		cursor  Cursor
		records []types.TrendRecord
	)
	for ctx.Err() == nil {
		items, positions := s.visibleTrends(ctx)
		items, positions = FilterSeen(items, positions, cursor.LastSeenY)
		if len(items) == 0 {
			break
		}

		for _, item := range items {
			rec, err := s.ExtractTrend(ctx, c, item)
			if err != nil {
				logger.Warn("skipping trend", "err", err)
				continue
			}
			records = append(records, rec)
		}

		last := At(positions[len(positions)-1])
		scroll := s.scrollOffset(ctx)
		if scroll.Equal(cursor.LastScroll) || last.Equal(cursor.LastSeenY) {
			logger.Debug("end of panel", "scroll", scroll, "last", last)
			break
		}

		cursor.LastSeenY = last
		cursor.LastScroll = scroll
		if s.opts.OnAdvance != nil {
			s.opts.OnAdvance(c, cursor, len(records))
		}

		if err := s.page.ScrollTo(ctx, last.Y); err != nil {
			logger.Warn("scroll failed", "err", err)
		}
		pause(ctx, s.opts.ScrollPause)
	}

	logger.Info("fetched trends", "count", len(records))
	return records
}

// TraverseAll runs Traverse for each requested category, always in the
// order of types.Categories.
func (s *Scraper) TraverseAll(ctx context.Context, categories []types.Category) map[types.Category][]types.TrendRecord {
	want := make(map[types.Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}

	out := make(map[types.Category][]types.TrendRecord, len(categories))
	for _, c := range types.Categories {
		if !want[c] {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		out[c] = s.Traverse(ctx, c)
	}
	return out
}

// visibleTrends returns the rendered trend items and their document offsets.
// Any failure yields nothing, which ends the traversal.
func (s *Scraper) visibleTrends(ctx context.Context) ([]*cdp.Node, []float64) {
	panel, err := s.wait.One(ctx, nil, s.sel.Get(TrendPanel), s.opts.ElementTimeout)
	if err != nil {
		return nil, nil
	}
	items, err := s.wait.All(ctx, panel, s.sel.Get(TrendItem), s.opts.ElementTimeout)
	if err != nil {
		return nil, nil
	}

	positions := make([]float64, len(items))
	for i, item := range items {
		y, err := s.page.OffsetY(ctx, item)
		if err != nil {
			s.logger.Warn("could not measure trend position", "err", err)
			return nil, nil
		}
		positions[i] = y
	}
	return items, positions
}

func (s *Scraper) scrollOffset(ctx context.Context) Offset {
	y, err := s.page.ScrollY(ctx)
	if err != nil {
		s.logger.Warn("could not read scroll position", "err", err)
		return Offset{}
	}
	return At(y)
}

// ExtractTrend reads one trend item of tab c.
func (s *Scraper) ExtractTrend(ctx context.Context, c types.Category, item *cdp.Node) (types.TrendRecord, error) {
	nodes, err := s.wait.All(ctx, item, s.sel.Get(TrendLines), s.opts.ElementTimeout)
	if err != nil {
		return types.TrendRecord{}, fmt.Errorf("%w: %v", browser.ErrExtraction, err)
	}

	lines := make([]string, 0, 3)
	for _, n := range nodes {
		if len(lines) == 3 {
			break
		}
		text, err := s.page.Text(ctx, n)
		if err != nil {
			return types.TrendRecord{}, fmt.Errorf("%w: trend line: %v", browser.ErrExtraction, err)
		}
		lines = append(lines, text)
	}

	rec, err := ParseTrendLines(c, lines)
	if err != nil {
		return rec, err
	}
	rec.FetchedAt = s.now()
	return rec, nil
}

// ParseTrendLines builds a record from the text lines of a trend item:
// a header ("1 · Trending in US" on the ranked tab, a location label
// otherwise), the tag or text, and an optional "12.3K posts" line.
func ParseTrendLines(c types.Category, lines []string) (types.TrendRecord, error) {
	rec := types.NewTrendRecord(c)
	if len(lines) < 2 {
		return rec, fmt.Errorf("%w: trend has %d lines, want at least 2", browser.ErrExtraction, len(lines))
	}

	if c.Ranked() {
		parts := strings.Split(lines[0], "·")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		rec.Rank = parts[0]
		rec.Location = strings.Join(parts[1:], " ")
	} else {
		rec.Location = strings.TrimSpace(lines[0])
	}

	rec.TagOrText = strings.TrimSpace(lines[1])

	if len(lines) > 2 {
		if fields := strings.Fields(lines[2]); len(fields) > 0 {
			rec.PostVolume = fields[0]
		}
	}
	return rec, nil
}
