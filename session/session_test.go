package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/internal/zttest"
	"github.com/zteradb/zteradb-go/session"
	"github.com/zteradb/zteradb-go/wire"
	"github.com/zteradb/zteradb-go/zterr"
)

func testConfig() config.Config {
	return config.Config{
		ClientKey:  "client",
		AccessKey:  "access",
		SecretKey:  "secret",
		DatabaseID: "db",
		Env:        config.EnvDev,
	}
}

func TestDialAuthenticatesAndReachesReady(t *testing.T) {
	srv, err := zttest.Start("secret", "access", "client", func(map[string]any) []wire.Response {
		return []wire.Response{{ResponseCode: wire.ResponseCodeQueryComplete}}
	})
	require.NoError(t, err)
	defer srv.Close()

	s, err := session.Dial(context.Background(), srv.Addr(), testConfig(), time.Second)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, session.StateReady, s.State())
}

func TestDialFailsOnWrongSecret(t *testing.T) {
	srv, err := zttest.Start("secret", "access", "client", nil)
	require.NoError(t, err)
	defer srv.Close()

	cfg := testConfig()
	cfg.SecretKey = "wrong"
	_, err = session.Dial(context.Background(), srv.Addr(), cfg, time.Second)
	assert.Error(t, err)
}

func TestS6StreamingTermination(t *testing.T) {
	row1 := map[string]any{"id": float64(1)}
	row2 := map[string]any{"id": float64(2)}

	srv, err := zttest.Start("secret", "access", "client", func(q map[string]any) []wire.Response {
		return []wire.Response{
			{ResponseCode: wire.ResponseCodeQueryData, Data: row1},
			{ResponseCode: wire.ResponseCodeQueryData, Data: row2},
			{ResponseCode: wire.ResponseCodeQueryComplete, Data: map[string]any{}},
		}
	})
	require.NoError(t, err)
	defer srv.Close()

	s, err := session.Dial(context.Background(), srv.Addr(), testConfig(), time.Second)
	require.NoError(t, err)
	defer s.Close()

	it, err := s.Execute(map[string]any{"sh": "x", "qt": 2}, time.Second)
	require.NoError(t, err)

	var got []any
	for {
		data, done, err := it.Next()
		require.NoError(t, err)
		if done {
			break
		}
		got = append(got, data)
	}

	assert.Equal(t, []any{row1, row2}, got)
	assert.Equal(t, session.StateReady, s.State())
}

func TestQueryReadTimeoutClosesSessionAndReportsTimeoutKind(t *testing.T) {
	srv, err := zttest.Start("secret", "access", "client", func(map[string]any) []wire.Response {
		time.Sleep(100 * time.Millisecond)
		return []wire.Response{{ResponseCode: wire.ResponseCodeQueryComplete}}
	})
	require.NoError(t, err)
	defer srv.Close()

	s, err := session.Dial(context.Background(), srv.Addr(), testConfig(), time.Second)
	require.NoError(t, err)
	defer s.Close()

	it, err := s.Execute(map[string]any{"sh": "x", "qt": 2}, 10*time.Millisecond)
	require.NoError(t, err)

	_, done, err := it.Next()
	assert.True(t, done)
	require.Error(t, err)
	assert.True(t, zterr.IsKind(err, zterr.KindTimeout))
	assert.True(t, s.Closed())
}

func TestQueryErrorFrameSurfacesAndKeepsSessionUsable(t *testing.T) {
	srv, err := zttest.Start("secret", "access", "client", func(map[string]any) []wire.Response {
		return []wire.Response{{Error: true, ResponseCode: 0x09, Data: "boom"}}
	})
	require.NoError(t, err)
	defer srv.Close()

	s, err := session.Dial(context.Background(), srv.Addr(), testConfig(), time.Second)
	require.NoError(t, err)
	defer s.Close()

	it, err := s.Execute(map[string]any{"sh": "x", "qt": 2}, time.Second)
	require.NoError(t, err)

	_, done, err := it.Next()
	assert.True(t, done)
	assert.Error(t, err)
	assert.Equal(t, session.StateReady, s.State())
}
