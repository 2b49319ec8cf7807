package scraper

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"

	"github.com/ibeckermayer/xscrape/internal/browser"
)

type fakeNode struct {
	label string
	text  string
	attrs map[string]string
	y     float64
}

type findKey struct {
	scope cdp.NodeID
	sel   browser.Selector
}

type typed struct {
	label string
	text  string
}

// fakePage is an in-memory Page. Elements are registered per (scope,
// selector); dynamic lookups can be supplied for virtualized lists.
type fakePage struct {
	nodes   map[cdp.NodeID]*fakeNode
	static  map[findKey][]*cdp.Node
	dynamic map[findKey]func() []*cdp.Node
	next    cdp.NodeID

	scrollY   float64
	maxScroll float64
	scrollErr error
	scrolls   []float64

	clicks     []string
	typed      []typed
	navigated  []string
	cookies    []*network.Cookie
	textErrFor map[string]bool
}

func newFakePage() *fakePage {
	return &fakePage{
		nodes:      make(map[cdp.NodeID]*fakeNode),
		static:     make(map[findKey][]*cdp.Node),
		dynamic:    make(map[findKey]func() []*cdp.Node),
		maxScroll:  1 << 20,
		textErrFor: make(map[string]bool),
	}
}

func (p *fakePage) add(n fakeNode) *cdp.Node {
	p.next++
	p.nodes[p.next] = &n
	return &cdp.Node{NodeID: p.next}
}

func scopeID(scope *cdp.Node) cdp.NodeID {
	if scope == nil {
		return 0
	}
	return scope.NodeID
}

// on registers the nodes that sel finds under scope.
func (p *fakePage) on(scope *cdp.Node, sel browser.Selector, nodes ...*cdp.Node) {
	k := findKey{scopeID(scope), sel}
	p.static[k] = append(p.static[k], nodes...)
}

func (p *fakePage) onDynamic(scope *cdp.Node, sel browser.Selector, fn func() []*cdp.Node) {
	p.dynamic[findKey{scopeID(scope), sel}] = fn
}

func (p *fakePage) node(n *cdp.Node) *fakeNode {
	fn, ok := p.nodes[n.NodeID]
	if !ok {
		panic("unknown node")
	}
	return fn
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Find(ctx context.Context, scope *cdp.Node, sel browser.Selector) ([]*cdp.Node, error) {
	k := findKey{scopeID(scope), sel}
	if fn, ok := p.dynamic[k]; ok {
		return fn(), nil
	}
	return p.static[k], nil
}

func (p *fakePage) Click(ctx context.Context, n *cdp.Node) error {
	p.clicks = append(p.clicks, p.node(n).label)
	return nil
}

func (p *fakePage) Type(ctx context.Context, n *cdp.Node, text string) error {
	p.typed = append(p.typed, typed{p.node(n).label, text})
	return nil
}

func (p *fakePage) Text(ctx context.Context, n *cdp.Node) (string, error) {
	fn := p.node(n)
	if p.textErrFor[fn.label] {
		return "", errors.New("node detached")
	}
	return fn.text, nil
}

func (p *fakePage) Attribute(ctx context.Context, n *cdp.Node, name string) (string, bool, error) {
	v, ok := p.node(n).attrs[name]
	return v, ok, nil
}

func (p *fakePage) OffsetY(ctx context.Context, n *cdp.Node) (float64, error) {
	return p.node(n).y, nil
}

func (p *fakePage) ScrollY(ctx context.Context) (float64, error) {
	if p.scrollErr != nil {
		return 0, p.scrollErr
	}
	return p.scrollY, nil
}

func (p *fakePage) ScrollTo(ctx context.Context, y float64) error {
	p.scrolls = append(p.scrolls, y)
	p.scrollY = min(y, p.maxScroll)
	return nil
}

func (p *fakePage) ScrollByViewport(ctx context.Context) error {
	return p.ScrollTo(ctx, p.scrollY+1000)
}

func (p *fakePage) Evaluate(ctx context.Context, script string, res any) error {
	return errors.New("not supported")
}

func (p *fakePage) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	return p.cookies, nil
}

func (p *fakePage) SetCookies(ctx context.Context, cookies []*network.Cookie) error {
	p.cookies = append(p.cookies, cookies...)
	return nil
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testOptions() Options {
	return Options{
		Logger:         log.New(io.Discard),
		ElementTimeout: 10 * time.Millisecond,
		PromptTimeout:  10 * time.Millisecond,
		PollInterval:   time.Millisecond,
		Now:            func() time.Time { return fixedNow },
	}
}

func newTestScraper(t *testing.T, p *fakePage, mutate ...func(*Options)) *Scraper {
	t.Helper()
	opts := testOptions()
	for _, m := range mutate {
		m(&opts)
	}
	return New(p, opts)
}
