package browser

import (
	"context"
	"testing"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
)

func TestFindRejectsScopedXPath(t *testing.T) {
	s := &Session{}
	nodes, err := s.Find(context.Background(), &cdp.Node{NodeID: 3}, XPath(".//span"))
	assert.ErrorIs(t, err, ErrScopedXPath)
	assert.Nil(t, nodes)
}
