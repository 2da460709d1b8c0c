// Package zttest provides a minimal in-process ZTeraDB server double for
// session and pool tests: it speaks the same framed handshake and query
// streaming protocol session.Session dials against, over a real
// net.Listener.
package zttest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"

	"github.com/zteradb/zteradb-go/wire"
)

// QueryHandler builds the sequence of response frames to stream back for
// one QUERY request.
type QueryHandler func(query map[string]any) []wire.Response

// Server is a fake ZTeraDB endpoint: it runs the real handshake (so
// session/auth.go is exercised end-to-end) and then answers every QUERY
// with whatever QueryHandler returns.
type Server struct {
	ln        net.Listener
	secretKey string
	accessKey string
	clientKey string
	handler   QueryHandler

	mu            sync.Mutex
	accepted      int32
	wg            sync.WaitGroup
	closed        bool
	dropAfterAuth bool
}

// Start listens on 127.0.0.1:0 and begins accepting connections in the
// background. The caller must call Close when done.
func Start(secretKey, accessKey, clientKey string, handler QueryHandler) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{ln: ln, secretKey: secretKey, accessKey: accessKey, clientKey: clientKey, handler: handler}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// StartDropAfterAuth behaves like Start but closes each connection
// immediately after completing the handshake, never entering the query
// serve loop. It simulates a session that authenticates successfully but
// whose next query fails, on the request write or on the response read —
// e.g. a server that vanished between connect and the first query.
func StartDropAfterAuth(secretKey, accessKey, clientKey string) (*Server, error) {
	s, err := Start(secretKey, accessKey, clientKey, nil)
	if err != nil {
		return nil, err
	}
	s.dropAfterAuth = true
	return s, nil
}

// Addr returns the "host:port" string sessions should dial.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Accepted returns how many connections have been accepted so far.
func (s *Server) Accepted() int32 { return atomic.LoadInt32(&s.accepted) }

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		atomic.AddInt32(&s.accepted, 1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(conn)
		}()
	}
}

func (s *Server) serve(conn net.Conn) {
	defer conn.Close()

	if !s.handshake(conn) {
		return
	}
	if s.dropAfterAuth {
		return
	}

	for {
		frame, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}
		var req struct {
			Query map[string]any `json:"query"`
		}
		if err := json.Unmarshal(frame, &req); err != nil {
			return
		}
		for _, resp := range s.handler(req.Query) {
			b, err := json.Marshal(resp)
			if err != nil {
				return
			}
			if err := wire.WriteFrame(conn, b); err != nil {
				return
			}
		}
	}
}

func (s *Server) handshake(conn net.Conn) bool {
	frame, err := wire.ReadFrame(conn)
	if err != nil {
		return false
	}
	var req struct {
		Nonce        string `json:"nonce"`
		RequestToken string `json:"request_token"`
	}
	if err := json.Unmarshal(frame, &req); err != nil {
		return false
	}

	expected := hexSHA256(s.secretKey + req.Nonce)
	if expected != req.RequestToken {
		resp := wire.Response{Error: true, ResponseCode: wire.ResponseCodeClientAuthError, Data: "invalid request token"}
		b, _ := json.Marshal(resp)
		_ = wire.WriteFrame(conn, b)
		return false
	}

	resp := wire.Response{
		Error:        false,
		ResponseCode: 0,
		ClientAuth: map[string]any{
			"access_key":    s.accessKey,
			"client_key":    s.clientKey,
			"nonce":         req.Nonce,
			"request_token": expected,
		},
		Data: map[string]any{
			"client_key":          s.clientKey,
			"access_key":          s.accessKey,
			"access_token":        "test-access-token",
			"access_token_expire": 0,
		},
	}
	b, _ := json.Marshal(resp)
	if err := wire.WriteFrame(conn, b); err != nil {
		return false
	}

	// Server-emitted terminator frame the client reads and discards.
	term := wire.Response{Error: false, ResponseCode: 0, Data: map[string]any{}}
	tb, _ := json.Marshal(term)
	return wire.WriteFrame(conn, tb) == nil
}

func hexSHA256(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Close stops accepting new connections and waits for in-flight
// connections to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	err := s.ln.Close()
	s.wg.Wait()
	return err
}
