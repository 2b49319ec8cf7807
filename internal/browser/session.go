package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Session owns the single Chrome instance of a run and implements Page.
// Every method must be called with Context() or a context derived from it.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewSession launches Chrome with the given allocator options.
func NewSession(parent context.Context, opts []chromedp.ExecAllocatorOption, logger *log.Logger) (*Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)

	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debugf),
		chromedp.WithErrorf(logger.Errorf),
	)

	// An empty Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}, nil
}

// Context returns the browser context.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Close shuts the browser down.
func (s *Session) Close() {
	s.cancel()
	s.allocCancel()
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Find(ctx context.Context, scope *cdp.Node, sel Selector) ([]*cdp.Node, error) {
	var nodes []*cdp.Node

	if sel.XPath && scope != nil {
		return nil, fmt.Errorf("%w: %s", ErrScopedXPath, sel)
	}

	opts := []chromedp.QueryOption{chromedp.AtLeast(0)}
	if sel.XPath {
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
		if scope != nil {
			opts = append(opts, chromedp.FromNode(scope))
		}
	}

	if err := chromedp.Run(ctx, chromedp.Nodes(sel.Expr, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", sel, err)
	}
	return nodes, nil
}

func (s *Session) Click(ctx context.Context, node *cdp.Node) error {
	return chromedp.Run(ctx, chromedp.MouseClickNode(node))
}

func (s *Session) Type(ctx context.Context, node *cdp.Node, text string) error {
	return chromedp.Run(ctx, chromedp.SendKeys([]cdp.NodeID{node.NodeID}, text, chromedp.ByNodeID))
}

func (s *Session) Text(ctx context.Context, node *cdp.Node) (string, error) {
	var text string
	err := s.callOn(ctx, node, `function() { return this.innerText; }`, &text)
	return text, err
}

func (s *Session) Attribute(ctx context.Context, node *cdp.Node, name string) (string, bool, error) {
	var attr struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	err := s.callOn(ctx, node, `function(name) {
		return {present: this.hasAttribute(name), value: this.getAttribute(name) || ""};
	}`, &attr, name)
	if err != nil {
		return "", false, err
	}
	return attr.Value, attr.Present, nil
}

func (s *Session) OffsetY(ctx context.Context, node *cdp.Node) (float64, error) {
	var y float64
	err := s.callOn(ctx, node, `function() { return this.getBoundingClientRect().top + window.scrollY; }`, &y)
	if err != nil {
		return 0, fmt.Errorf("%w: element position: %v", ErrScriptEvaluation, err)
	}
	return y, nil
}

func (s *Session) ScrollY(ctx context.Context) (float64, error) {
	var y float64
	if err := s.Evaluate(ctx, `window.scrollY`, &y); err != nil {
		return 0, fmt.Errorf("scroll position: %w", err)
	}
	return y, nil
}

func (s *Session) ScrollTo(ctx context.Context, y float64) error {
	script := "window.scrollTo(0, " + strconv.FormatFloat(y, 'f', -1, 64) + ")"
	if err := s.Evaluate(ctx, script, nil); err != nil {
		return fmt.Errorf("scroll to %v: %w", y, err)
	}
	return nil
}

func (s *Session) ScrollByViewport(ctx context.Context) error {
	if err := s.Evaluate(ctx, `window.scrollBy(0, window.innerHeight)`, nil); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Evaluate runs script in the page and decodes its result into res, which
// may be nil. The scroll helpers above are built on it.
func (s *Session) Evaluate(ctx context.Context, script string, res any) error {
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, res)); err != nil {
		return fmt.Errorf("%w: %v", ErrScriptEvaluation, err)
	}
	return nil
}

// Cookies gets all cookies from the browser
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	var cookies []*network.Cookie

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)

	return cookies, err
}

// SetCookies sets cookies in the browser context
func (s *Session) SetCookies(ctx context.Context, cookies []*network.Cookie) error {
	return chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, c := range cookies {
				err := network.SetCookie(c.Name, c.Value).
					WithDomain(c.Domain).
					WithPath(c.Path).
					WithSecure(c.Secure).
					WithHTTPOnly(c.HTTPOnly).
					WithSameSite(c.SameSite).
					Do(ctx)

				if err != nil {
					return err
				}
			}
			return nil
		}),
	)
}

// callOn calls the JavaScript function fn with node as this.
func (s *Session) callOn(ctx context.Context, node *cdp.Node, fn string, res any, args ...any) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve node %d: %w", node.NodeID, err)
		}
		defer runtime.ReleaseObject(obj.ObjectID).Do(ctx)

		return chromedp.CallFunctionOn(fn, res,
			func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
				return p.WithObjectID(obj.ObjectID)
			},
			args...,
		).Do(ctx)
	}))
}
