// Package zteradb is the root façade over the filter algebra, query
// builder, framed session protocol, and connection pool: it scopes a
// Pool's lifetime to a Connection, from Connect until Close, the way a
// scoped connection manager ties a pool's lifetime to an enclosing block.
package zteradb

import (
	"context"
	"time"

	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/pool"
	"github.com/zteradb/zteradb-go/query"
	"github.com/zteradb/zteradb-go/session"
)

// Connection is a scoped handle over a Pool: construct with Connect, use
// Run to execute queries, and Close to tear the pool (and every session in
// it) down.
type Connection struct {
	pool *pool.Pool
	cfg  config.Config
}

// Connect validates cfg, dials Min sessions concurrently (prewarm), and
// returns a Connection ready to Run queries against addr (host:port).
func Connect(ctx context.Context, addr string, cfg config.Config) (*Connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	connectTimeout := time.Duration(cfg.ConnectTimeoutMS) * time.Millisecond
	dial := func(ctx context.Context) (*session.Session, error) {
		return session.Dial(ctx, addr, cfg, connectTimeout)
	}

	p, err := pool.New(ctx, dial, cfg.Pool)
	if err != nil {
		return nil, err
	}
	return &Connection{pool: p, cfg: cfg}, nil
}

// Close tears down the underlying pool and every session in it.
func (c *Connection) Close() error {
	return c.pool.Close()
}

// Result is the single-value response to a non-select query (insert,
// update, delete): a map containing server-defined keys such as
// last_insert_id, is_updated, or is_deleted.
type Result struct {
	raw map[string]any
}

func newResult(data any) Result {
	m, _ := data.(map[string]any)
	return Result{raw: m}
}

// Raw returns the server's response map unmodified.
func (r Result) Raw() map[string]any { return r.raw }

// LastInsertID extracts the insert-result's last_insert_id, if present.
func (r Result) LastInsertID() (any, bool) {
	v, ok := r.raw["last_insert_id"]
	return v, ok
}

// IsUpdated extracts the update-result's is_updated flag, if present.
func (r Result) IsUpdated() (bool, bool) {
	v, ok := r.raw["is_updated"].(bool)
	return v, ok
}

// IsDeleted extracts the delete-result's is_deleted flag, if present.
func (r Result) IsDeleted() (bool, bool) {
	v, ok := r.raw["is_deleted"].(bool)
	return v, ok
}

// Rows is a lazy iterator over a select query's streamed result frames. It
// owns the session leased for this query and releases it back to the pool
// exactly once, whether the stream runs to completion or is abandoned
// early, without asking the caller to juggle the underlying session.
type Rows struct {
	pool     *pool.Pool
	session  *session.Session
	it       *session.Iterator
	released bool
}

// Next advances to the next row. It returns done=true once the server
// signals completion, automatically releasing the session back to the
// pool at that point. err is non-nil on a server-reported query error (the
// session is still intact and goes back to the pool) or on a protocol or
// I/O failure (the session has already been closed, and the pool discards
// it).
func (r *Rows) Next() (row any, done bool, err error) {
	row, done, err = r.it.Next()
	if done {
		r.release()
	}
	return row, done, err
}

// Close abandons the row stream early, closing the session rather than
// returning it to the pool — an abandoned stream leaves undrained frames
// behind it. Safe to call after Next has already returned done=true.
func (r *Rows) Close() {
	if r.released {
		return
	}
	r.it.Close()
	r.release()
}

func (r *Rows) release() {
	if r.released {
		return
	}
	r.released = true
	r.pool.Release(r.session)
}

// Run acquires a session from the pool, executes q, and returns either a
// single Result (insert/update/delete) or a *Rows iterator (select). For
// a non-select query the session is released back to the pool before Run
// returns; for a select query, *Rows owns the release and performs it
// once the stream ends or is closed.
func (c *Connection) Run(ctx context.Context, q *query.Query, queryTimeout time.Duration) (result Result, rows *Rows, err error) {
	rendered, err := q.Generate()
	if err != nil {
		return Result{}, nil, err
	}

	s, err := c.pool.Acquire(ctx)
	if err != nil {
		return Result{}, nil, err
	}

	it, err := s.Execute(rendered, queryTimeout)
	if err != nil {
		c.pool.Release(s)
		return Result{}, nil, err
	}

	if q.IsSelectQuery() {
		return Result{}, &Rows{pool: c.pool, session: s, it: it}, nil
	}

	data, _, err := it.Next()
	c.pool.Release(s)
	if err != nil {
		return Result{}, nil, err
	}
	return newResult(data), nil, nil
}
