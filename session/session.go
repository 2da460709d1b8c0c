// Package session implements the framed TCP protocol's connect/auth/query
// state machine: dial, challenge-response handshake, then a streaming
// query-response loop, each framed read done with io.ReadFull's
// exact-read semantics.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/zteradb/zteradb-go/config"
	"github.com/zteradb/zteradb-go/wire"
	"github.com/zteradb/zteradb-go/zterr"
)

// classifyIOErr wraps err as KindTimeout if it (or something it wraps)
// is a net.Error reporting a timeout, and as the given fallback kind
// otherwise. Used at every I/O boundary so a deadline-exceeded read or
// dial is never misreported as a plain connection failure. err may
// already be a *zterr.Error (e.g. from wire.ReadFrame); its wrapped
// cause is reused instead of double-wrapping.
func classifyIOErr(fallback zterr.Kind, err error, format string, args ...any) error {
	cause := err
	if ze, ok := err.(*zterr.Error); ok && ze.Err != nil {
		cause = ze.Err
	}
	var netErr net.Error
	if errors.As(cause, &netErr) && netErr.Timeout() {
		return zterr.Wrap(zterr.KindTimeout, cause, format, args...)
	}
	return zterr.Wrap(fallback, cause, format, args...)
}

// State is a Session's position in the New -> Connecting -> Authenticating
// -> Ready -> [InQuery -> Ready]* -> Closed state machine.
type State int

const (
	StateNew State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateInQuery
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateInQuery:
		return "in_query"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Session is a live, authenticated connection to a ZTeraDB server. A
// Session must only be used by one caller at a time; the mutex below
// guards the state and the request write in Execute, while Iterator.Next
// reads response frames without taking it, and the Pool guarantees
// exclusivity across callers.
type Session struct {
	conn net.Conn
	cfg  config.Config

	mu    sync.Mutex
	state State
	auth  *serverAuth
}

// Dial opens a TCP connection to addr and runs the authentication
// handshake. connectTimeout (0 means no deadline) bounds both the dial and
// the handshake's read.
func Dial(ctx context.Context, addr string, cfg config.Config, connectTimeout time.Duration) (*Session, error) {
	s := &Session{cfg: cfg, state: StateConnecting}

	dialer := net.Dialer{}
	if connectTimeout > 0 {
		dialer.Timeout = connectTimeout
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classifyIOErr(zterr.KindConnection, err, "failed to connect to %s", addr)
	}
	s.conn = conn

	if connectTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(connectTimeout))
	}
	if err := s.authenticate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})

	s.state = StateReady
	slog.Debug("zteradb session ready", "addr", addr)
	return s, nil
}

// authenticate runs the CONNECT handshake: send the client auth request,
// read one response frame, validate the server's proof, adopt the
// ServerAuth, then read and discard one more frame — the server-emitted
// terminator the server sends after the handshake response.
func (s *Session) authenticate() error {
	s.state = StateAuthenticating

	req, err := newClientAuthRequest(s.cfg.AccessKey, s.cfg.ClientKey, s.cfg.SecretKey)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to encode auth request")
	}
	if err := wire.WriteFrame(s.conn, payload); err != nil {
		return zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to send auth request")
	}

	frame, err := wire.ReadFrame(s.conn)
	if err != nil {
		return classifyIOErr(zterr.KindAuthenticationFailed, err, "failed to read auth response")
	}
	resp, err := wire.DecodeResponse(frame)
	if err != nil {
		return zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to decode auth response")
	}
	if resp.Error {
		return zterr.New(zterr.KindAuthenticationFailed, "authentication rejected: %v", resp.Data)
	}
	if !isValidRequestToken(s.cfg.SecretKey, resp.ClientAuth) {
		return zterr.New(zterr.KindAuthenticationFailed, "server auth proof did not match")
	}

	sa, err := decodeServerAuth(resp.Data)
	if err != nil {
		return err
	}
	s.auth = sa

	// Server-emitted terminator frame after the handshake response; read
	// and discard it unconditionally before transitioning to Ready.
	if _, err := wire.ReadFrame(s.conn); err != nil {
		return classifyIOErr(zterr.KindAuthenticationFailed, err, "failed to read handshake terminator frame")
	}
	return nil
}

func decodeServerAuth(data any) (*serverAuth, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to re-encode server auth data")
	}
	var sa serverAuth
	if err := json.Unmarshal(b, &sa); err != nil {
		return nil, zterr.Wrap(zterr.KindAuthenticationFailed, err, "failed to decode server auth data")
	}
	return &sa, nil
}

// queryRequest is the QUERY request payload.
type queryRequest struct {
	Query       map[string]any `json:"query"`
	RequestType int            `json:"request_type"`
	DatabaseID  string         `json:"database_id"`
	Env         string         `json:"env"`
	ClientKey   string         `json:"client_key"`
	AccessToken string         `json:"access_token"`
}

// Execute sends a QUERY request and returns an Iterator over the server's
// streamed response frames. The caller drives the iterator with Next;
// Execute itself never blocks past sending the request and reading is
// deferred to Next so a non-select caller can read exactly one frame.
func (s *Session) Execute(rendered map[string]any, queryTimeout time.Duration) (*Iterator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return nil, zterr.New(zterr.KindConnection, "session is not ready (state=%v)", s.state)
	}
	s.state = StateInQuery

	req := queryRequest{
		Query:       rendered,
		RequestType: wire.RequestTypeQuery,
		DatabaseID:  s.cfg.DatabaseID,
		Env:         string(s.cfg.Env),
		ClientKey:   s.cfg.ClientKey,
		AccessToken: s.auth.AccessToken,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		s.state = StateReady
		return nil, zterr.Wrap(zterr.KindConnection, err, "failed to encode query request")
	}
	if err := wire.WriteFrame(s.conn, payload); err != nil {
		s.fail()
		return nil, err
	}

	return &Iterator{session: s, queryTimeout: queryTimeout}, nil
}

// fail marks the session permanently closed after a fatal I/O fault; it is
// not returned to the pool.
func (s *Session) fail() {
	s.state = StateClosed
	_ = s.conn.Close()
}

// Close idempotently tears down the underlying connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	return s.conn.Close()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// State returns the session's current position in the state machine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Iterator walks the frames of a single query's response. Rather than
// unwinding via a sentinel error, Next returns done=true once the stream
// ends cleanly — an explicit terminal state instead of control flow built
// on exceptions.
type Iterator struct {
	session      *Session
	queryTimeout time.Duration
	done         bool
}

// Next reads one frame and classifies it:
//   - a decode failure or timeout closes the session and returns an error;
//   - an error-flagged frame returns a *zterr.Error of KindQuery, leaving
//     the session usable if its I/O channel is still intact;
//   - the QUERY_COMPLETE terminator sets done=true and returns no data;
//   - otherwise the frame's data is returned with done=false.
func (it *Iterator) Next() (data any, done bool, err error) {
	if it.done {
		return nil, true, nil
	}
	s := it.session

	if it.queryTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(it.queryTimeout))
		defer s.conn.SetReadDeadline(time.Time{})
	}

	frame, err := wire.ReadFrame(s.conn)
	if err != nil {
		it.done = true
		s.fail()
		return nil, true, classifyIOErr(zterr.KindConnection, err, "query read failed")
	}

	resp, err := wire.DecodeResponse(frame)
	if err != nil {
		it.done = true
		s.fail()
		return nil, true, err
	}

	if resp.Error {
		it.done = true
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
		return nil, true, zterr.New(zterr.KindQuery, "%v", resp.Data)
	}

	if resp.IsQueryComplete() {
		it.done = true
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
		return nil, true, nil
	}

	return resp.Data, false, nil
}

// Close abandons the iterator mid-stream. An abandoned stream leaves
// undrained frames behind, so the session is closed rather than returned
// to the pool.
func (it *Iterator) Close() {
	if it.done {
		return
	}
	it.done = true
	it.session.fail()
}
