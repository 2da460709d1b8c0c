package pool_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/internal/zttest"
	"github.com/zteradb/zteradb-go/pool"
	"github.com/zteradb/zteradb-go/session"
	"github.com/zteradb/zteradb-go/wire"
)

func testDialer(t *testing.T, srv *zttest.Server) pool.Dialer {
	cfg := config.Config{ClientKey: "client", AccessKey: "access", SecretKey: "secret", DatabaseID: "db", Env: config.EnvDev}
	return func(ctx context.Context) (*session.Session, error) {
		return session.Dial(ctx, srv.Addr(), cfg, time.Second)
	}
}

func startServer(t *testing.T) *zttest.Server {
	srv, err := zttest.Start("secret", "access", "client", func(map[string]any) []wire.Response {
		return []wire.Response{{ResponseCode: wire.ResponseCodeQueryComplete}}
	})
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })
	return srv
}

func TestPoolPrewarmsMin(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{Min: 3, Max: 0})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 3, p.Stats().Idle)
	assert.GreaterOrEqual(t, srv.Accepted(), int32(3))
}

func TestAcquireReleaseExclusivity(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{})
	require.NoError(t, err)
	defer p.Close()

	s1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stats().Idle)

	p.Release(s1)
	assert.Equal(t, 1, p.Stats().Idle)

	s2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestAcquireBlocksAtMaxThenUnblocksOnRelease(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{Min: 0, Max: 1})
	require.NoError(t, err)
	defer p.Close()

	s1, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.Error(t, err, "acquire should block and time out while at max capacity")

	p.Release(s1)

	s2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestClosePoolDrainsIdleSessions(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{Min: 2})
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 0, p.Stats().Idle)

	_, err = p.Acquire(context.Background())
	assert.Error(t, err)
}

func TestReleaseAfterCloseClosesLeasedSession(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{})
	require.NoError(t, err)

	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.False(t, s.Closed())

	require.NoError(t, p.Close())
	assert.False(t, s.Closed(), "leased session must not be torn down until it is released")

	p.Release(s)
	assert.True(t, s.Closed(), "releasing a leased session into a closed pool must close its connection")
}

func TestReleaseNilIsNoOp(t *testing.T) {
	srv := startServer(t)
	p, err := pool.New(context.Background(), testDialer(t, srv), config.PoolOptions{})
	require.NoError(t, err)
	defer p.Close()

	p.Release(nil)
	assert.Equal(t, 0, p.Stats().Idle)
}
