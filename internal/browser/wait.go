package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
)

// Action is performed on an element once it is present.
type Action struct {
	name string
	text string
}

// Click clicks the element.
func Click() Action { return Action{name: "click"} }

// TypeText types text into the element.
func TypeText(text string) Action { return Action{name: "type", text: text} }

func (a Action) String() string { return a.name }

// Waiter polls a Page until elements appear. Timeouts are reported as
// ErrElementNotFound and logged; callers decide whether that matters.
type Waiter struct {
	page     Page
	interval time.Duration
	logger   *log.Logger
}

// NewWaiter returns a Waiter polling page every interval.
func NewWaiter(page Page, interval time.Duration, logger *log.Logger) *Waiter {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Waiter{page: page, interval: interval, logger: logger}
}

// All waits until at least one element matches sel within scope and returns
// every match.
func (w *Waiter) All(ctx context.Context, scope *cdp.Node, sel Selector, timeout time.Duration) ([]*cdp.Node, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nodes, err := w.page.Find(ctx, scope, sel)
		if err == nil && len(nodes) > 0 {
			return nodes, nil
		}
		if err != nil {
			w.logger.Debug("query failed", "selector", sel, "err", err)
		}

		if !time.Now().Before(deadline) {
			w.logger.Warn("element not found", "selector", sel, "timeout", timeout)
			return nil, fmt.Errorf("%w: %s after %v", ErrElementNotFound, sel, timeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// One waits for the first element matching sel within scope.
func (w *Waiter) One(ctx context.Context, scope *cdp.Node, sel Selector, timeout time.Duration) (*cdp.Node, error) {
	nodes, err := w.All(ctx, scope, sel, timeout)
	if err != nil {
		return nil, err
	}
	return nodes[0], nil
}

// Perform waits for sel and applies action to the first match.
func (w *Waiter) Perform(ctx context.Context, scope *cdp.Node, sel Selector, timeout time.Duration, action Action) error {
	node, err := w.One(ctx, scope, sel, timeout)
	if err != nil {
		return err
	}

	switch action.name {
	case "click":
		err = w.page.Click(ctx, node)
	case "type":
		err = w.page.Type(ctx, node, action.text)
	default:
		err = fmt.Errorf("unknown action %q", action.name)
	}
	if err != nil {
		w.logger.Warn("action failed", "action", action, "selector", sel, "err", err)
		return fmt.Errorf("failed to %s %s: %w", action, sel, err)
	}
	return nil
}
