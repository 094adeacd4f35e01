package venue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mselser95/crossvenue-arb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPaperPlacer(t *testing.T) {
	p := NewPaperPlacer(types.PlatformKalshi, zap.NewNop())

	id1, err := p.PlaceOrder(context.Background(), types.Credentials{}, "KX", types.SideYes, 0.4, 5)
	require.NoError(t, err)
	id2, err := p.PlaceOrder(context.Background(), types.Credentials{}, "KX", types.SideNo, 0.4, 5)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id1, "paper-"))
	assert.NotEqual(t, id1, id2)

	_, err = p.PlaceOrder(context.Background(), types.Credentials{}, "KX", types.SideYes, 0.4, 0)
	var orderErr *types.OrderError
	assert.True(t, errors.As(err, &orderErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.PlaceOrder(ctx, types.Credentials{}, "KX", types.SideYes, 0.4, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
