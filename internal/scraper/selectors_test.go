package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xscrape/internal/browser"
	"github.com/ibeckermayer/xscrape/internal/types"
)

func TestDefaultRegistryCoversEveryTab(t *testing.T) {
	r := DefaultRegistry()
	for _, c := range types.Categories {
		assert.NotEmpty(t, r.Get(TabTarget(c)).Expr, c)
	}
}

func TestRegistryGetUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { DefaultRegistry().Get("nope") })
}

func TestRegistryWithLeavesReceiverUnchanged(t *testing.T) {
	base := DefaultRegistry()
	before := base.Get(TrendItem)

	r, err := base.With(map[string]string{
		"trend_item":           `div[data-testid="cellInnerDiv"]`,
		"verification_heading": `xpath://h1[contains(., "username")]`,
	})
	require.NoError(t, err)

	assert.Equal(t, browser.CSS(`div[data-testid="cellInnerDiv"]`), r.Get(TrendItem))
	assert.Equal(t, browser.XPath(`//h1[contains(., "username")]`), r.Get(VerificationHeading))
	assert.Equal(t, before, base.Get(TrendItem))
	assert.Equal(t, before, DefaultRegistry().Get(TrendItem))
}

func TestRegistryWithRejectsBadOverrides(t *testing.T) {
	_, err := DefaultRegistry().With(map[string]string{"no_such_target": "div"})
	assert.ErrorContains(t, err, "no_such_target")

	_, err = DefaultRegistry().With(map[string]string{"trend_item": "  "})
	assert.Error(t, err)
}

func TestRelativeSelectorsAreCSS(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range r.Targets() {
		target := Target(name)
		if Relative(target) {
			assert.False(t, r.Get(target).XPath, "%s is searched from a parent node", target)
		}
	}
	assert.True(t, Relative(TabTarget(types.CategoryNews)))
	assert.False(t, Relative(VerificationHeading))
}

func TestRegistryWithRejectsXPathForRelativeTargets(t *testing.T) {
	for _, name := range []string{"trend_lines", "trend_item", "tweet_stats", "author_spans", "explore_tab_news"} {
		t.Run(name, func(t *testing.T) {
			_, err := DefaultRegistry().With(map[string]string{name: "xpath:.//span"})
			assert.ErrorContains(t, err, "must be CSS")
		})
	}

	// CSS overrides of the same targets are fine
	_, err := DefaultRegistry().With(map[string]string{"trend_lines": ":scope > div"})
	assert.NoError(t, err)
}
