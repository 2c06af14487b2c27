package sio

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket is a Couplings that accepts command lines as text
// messages from any number of WebSocket clients.
//
// Each Response is written as JSON to the connection that sent the
// line.  Responses without a live recipient (for example, from
// schedules) go to every connection.
type WebSocket struct {
	// Addr, if not empty, is where Start listens.  Leave it empty
	// to mount Handler elsewhere.
	Addr string

	// Path is where the Handler is mounted when Start listens.
	Path string

	Upgrader websocket.Upgrader

	conns  sync.Map
	in     chan *Request
	out    chan *Response
	done   chan bool
	server *http.Server
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewWebSocket makes a WebSocket that will listen on the given
// address.
func NewWebSocket(addr string, logger *zap.Logger) *WebSocket {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocket{
		Addr:   addr,
		Path:   "/ws",
		in:     make(chan *Request),
		out:    make(chan *Response),
		done:   make(chan bool),
		logger: logger.Named("ws"),
	}
}

// Start listens on Addr when one is given.
func (s *WebSocket) Start(ctx context.Context) error {
	if s.Addr == "" {
		return nil
	}
	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(s.Path, s.Handler(ctx))
	s.server = &http.Server{Handler: mux}
	s.logger.Info("listening", zap.String("addr", l.Addr().String()), zap.String("path", s.Path))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.server.Serve(l); err != nil && err != http.ErrServerClosed {
			s.logger.Error("serve", zap.Error(err))
		}
	}()
	return nil
}

// IO returns the shared input and output channels.  The output is
// dispatched to connections by Response.To.
func (s *WebSocket) IO(ctx context.Context) (chan *Request, chan *Response, chan bool, error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case r, ok := <-s.out:
				if !ok || r == nil {
					return
				}
				s.dispatch(r)
			}
		}
	}()
	return s.in, s.out, s.done, nil
}

func (s *WebSocket) dispatch(r *Response) {
	send := func(k, v interface{}) bool {
		select {
		case v.(chan *Response) <- r:
		default:
			s.logger.Warn("connection blocked", zap.Any("conn", k))
		}
		return true
	}
	if c, have := s.conns.Load(r.To); have {
		send(r.To, c)
		return
	}
	s.conns.Range(send)
}

// Stop shuts down the listener, if any, and waits for the output
// dispatcher.
func (s *WebSocket) Stop(ctx context.Context) error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// Handler upgrades requests to WebSocket connections and forwards
// their text messages as command lines.
func (s *WebSocket) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("upgrade error", zap.Error(err))
			return
		}
		defer c.Close()

		id := uuid.NewString()
		logger := s.logger.With(zap.String("conn", id))
		logger.Info("connection")

		ctl := make(chan bool)
		defer close(ctl)

		responses := make(chan *Response, 32)
		s.conns.Store(id, responses)
		defer s.conns.Delete(id)

		go func() {
			for {
				select {
				case <-ctl:
					return
				case <-ctx.Done():
					c.Close()
					return
				case x := <-responses:
					js, err := json.Marshal(x)
					if err != nil {
						logger.Error("marshal", zap.Error(err))
						continue
					}
					if err = c.WriteMessage(websocket.TextMessage, js); err != nil {
						logger.Warn("write", zap.Error(err))
					}
				}
			}
		}()

		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Debug("read", zap.Error(err))
				break
			}
			line := strings.TrimSpace(string(message))
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if quits(line) {
				break
			}
			select {
			case <-ctx.Done():
				return
			case s.in <- &Request{From: id, Line: line}:
			}
		}
		logger.Info("disconnected")
	})
}
