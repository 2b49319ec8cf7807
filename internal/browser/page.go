package browser

import (
	"context"
	"errors"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
)

var (
	// ErrElementNotFound means a wait elapsed without a match. Optional UI
	// (popups, verification screens) produces it routinely.
	ErrElementNotFound = errors.New("element not found")

	// ErrExtraction means one record's fields could not be read.
	ErrExtraction = errors.New("extraction failed")

	// ErrScriptEvaluation means a scroll or layout measurement failed.
	ErrScriptEvaluation = errors.New("script evaluation failed")

	// ErrScopedXPath means an XPath selector was used under a parent node.
	// XPath always searches the whole document.
	ErrScopedXPath = errors.New("xpath selectors cannot be scoped to a node")
)

// Selector locates elements. XPath selectors are evaluated against the
// whole document; CSS selectors may be scoped to a parent node.
type Selector struct {
	Expr  string
	XPath bool
}

// CSS returns a CSS selector.
func CSS(expr string) Selector {
	return Selector{Expr: expr}
}

// XPath returns an XPath selector.
func XPath(expr string) Selector {
	return Selector{Expr: expr, XPath: true}
}

func (s Selector) String() string {
	if s.XPath {
		return "xpath:" + s.Expr
	}
	return s.Expr
}

// Page is the browser surface the scraper drives. A nil scope searches the
// whole document.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Find returns the current matches without waiting.
	Find(ctx context.Context, scope *cdp.Node, sel Selector) ([]*cdp.Node, error)
	Click(ctx context.Context, node *cdp.Node) error
	Type(ctx context.Context, node *cdp.Node, text string) error
	Text(ctx context.Context, node *cdp.Node) (string, error)
	Attribute(ctx context.Context, node *cdp.Node, name string) (string, bool, error)
	// OffsetY is the node's vertical position relative to the document top.
	OffsetY(ctx context.Context, node *cdp.Node) (float64, error)
	ScrollY(ctx context.Context) (float64, error)
	ScrollTo(ctx context.Context, y float64) error
	ScrollByViewport(ctx context.Context) error
	Evaluate(ctx context.Context, script string, res any) error
	Cookies(ctx context.Context) ([]*network.Cookie, error)
	SetCookies(ctx context.Context, cookies []*network.Cookie) error
}
