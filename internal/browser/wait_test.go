package browser

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPage appears after a number of Find calls and records actions.
type stubPage struct {
	Page // unimplemented methods panic

	appearAfter int
	calls       int
	findErr     error
	clicked     []cdp.NodeID
	typed       []string
	clickErr    error
}

func (p *stubPage) Find(ctx context.Context, scope *cdp.Node, sel Selector) ([]*cdp.Node, error) {
	p.calls++
	if p.findErr != nil {
		return nil, p.findErr
	}
	if p.calls <= p.appearAfter {
		return nil, nil
	}
	return []*cdp.Node{{NodeID: 7}, {NodeID: 8}}, nil
}

func (p *stubPage) Click(ctx context.Context, node *cdp.Node) error {
	p.clicked = append(p.clicked, node.NodeID)
	return p.clickErr
}

func (p *stubPage) Type(ctx context.Context, node *cdp.Node, text string) error {
	p.typed = append(p.typed, text)
	return nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestWaiterAllPollsUntilPresent(t *testing.T) {
	page := &stubPage{appearAfter: 3}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	nodes, err := w.All(context.Background(), nil, CSS("div"), time.Second)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	assert.Equal(t, 4, page.calls)
}

func TestWaiterTimeoutIsElementNotFound(t *testing.T) {
	page := &stubPage{appearAfter: 1 << 30}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	start := time.Now()
	node, err := w.One(context.Background(), nil, XPath("//h1"), 20*time.Millisecond)
	assert.Nil(t, node)
	assert.True(t, errors.Is(err, ErrElementNotFound))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Contains(t, err.Error(), "xpath://h1")
}

func TestWaiterZeroTimeoutTriesOnce(t *testing.T) {
	page := &stubPage{appearAfter: 1}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	_, err := w.All(context.Background(), nil, CSS("div"), 0)
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.Equal(t, 1, page.calls)
}

func TestWaiterQueryErrorsKeepPolling(t *testing.T) {
	page := &stubPage{findErr: errors.New("node detached")}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	_, err := w.All(context.Background(), nil, CSS("div"), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.Greater(t, page.calls, 1)
}

func TestWaiterHonoursCancellation(t *testing.T) {
	page := &stubPage{appearAfter: 1 << 30}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.All(ctx, nil, CSS("div"), time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaiterPerform(t *testing.T) {
	page := &stubPage{}
	w := NewWaiter(page, time.Millisecond, quietLogger())
	ctx := context.Background()

	require.NoError(t, w.Perform(ctx, nil, CSS("button"), time.Second, Click()))
	require.NoError(t, w.Perform(ctx, nil, CSS("input"), time.Second, TypeText("alice")))

	assert.Equal(t, []cdp.NodeID{7}, page.clicked)
	assert.Equal(t, []string{"alice"}, page.typed)
}

func TestWaiterPerformReportsActionFailure(t *testing.T) {
	page := &stubPage{clickErr: errors.New("not clickable")}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	err := w.Perform(context.Background(), nil, CSS("button"), time.Second, Click())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrElementNotFound)
}

func TestWaiterPerformMissingElement(t *testing.T) {
	page := &stubPage{appearAfter: 1 << 30}
	w := NewWaiter(page, time.Millisecond, quietLogger())

	err := w.Perform(context.Background(), nil, CSS("button"), 5*time.Millisecond, Click())
	assert.ErrorIs(t, err, ErrElementNotFound)
	assert.Empty(t, page.clicked)
}
