package chat

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg      Config
	logger   *slog.Logger
	reg      *Registry
	router   *Router
	listener net.Listener
	httpSrvs []*http.Server

	mu       sync.Mutex
	sessions map[*Session]struct{}
	stopped  bool
	wg       sync.WaitGroup
}

func NewServer(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.sanitize()
	reg := NewRegistry(cfg.MaxNameLength, logger)
	return &Server{
		cfg:      cfg,
		logger:   logger,
		reg:      reg,
		router:   NewRouter(reg, logger),
		sessions: make(map[*Session]struct{}),
	}
}

// Registry exposes the shared name table, mainly for inspection.
func (s *Server) Registry() *Registry { return s.reg }

// Addr returns the bound TCP address once Start has succeeded.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds every configured listener and returns; sessions are served
// in the background until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	muxes := make(map[string]*http.ServeMux)
	mux := func(addr string) *http.ServeMux {
		if m, ok := muxes[addr]; ok {
			return m
		}
		m := http.NewServeMux()
		muxes[addr] = m
		return m
	}
	if s.cfg.WebSocketAddr != "" {
		mux(s.cfg.WebSocketAddr).Handle("/ws", s.WebSocketHandler())
	}
	if s.cfg.MetricsAddr != "" {
		mux(s.cfg.MetricsAddr).Handle("/metrics", promhttp.Handler())
	}

	httpListeners := make([]net.Listener, 0, len(muxes))
	for addr, m := range muxes {
		hl, err := net.Listen("tcp", addr)
		if err != nil {
			ln.Close()
			for _, l := range httpListeners {
				l.Close()
			}
			return err
		}
		httpListeners = append(httpListeners, hl)
		s.httpSrvs = append(s.httpSrvs, &http.Server{
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	s.listener = ln
	go s.acceptLoop(ln)
	for i, hs := range s.httpSrvs {
		go s.serveHTTP(hs, httpListeners[i])
	}

	s.logger.Info("server started", "addr", ln.Addr().String(),
		"ws_addr", s.cfg.WebSocketAddr, "metrics_addr", s.cfg.MetricsAddr)
	return nil
}

// Stop closes the listeners, ends every live session and waits for them.
func (s *Server) Stop() {
	s.logger.Info("shutting down", "registered", s.reg.Len())

	s.mu.Lock()
	s.stopped = true
	live := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	for _, hs := range s.httpSrvs {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = hs.Shutdown(ctx)
		cancel()
	}
	for _, sess := range live {
		sess.Terminate(nil)
	}
	s.wg.Wait()

	s.logger.Info("shutdown complete")
}

// WebSocketHandler upgrades requests and serves the line protocol over them,
// one text frame per line.
func (s *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		s.serve(NewWebSocketConn(ws))
	})
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// listener가 닫히면 여기로 옴 — 정상 종료
				return
			}
			s.logger.Warn("accept failed", "error", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		s.logger.Info("client connected", "addr", conn.RemoteAddr().String())
		go s.serve(NewLineConn(conn))
	}
}

func (s *Server) serveHTTP(hs *http.Server, ln net.Listener) {
	if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("http listener failed", "addr", ln.Addr().String(), "error", err)
	}
}

// serve runs one session to completion on the calling goroutine.
func (s *Server) serve(conn Conn) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	sess := NewSession(conn, s.reg, s.router, s.cfg.OutboundBuffer, s.logger)
	s.sessions[sess] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	ActiveSessions.Inc()
	defer func() {
		ActiveSessions.Dec()
		s.mu.Lock()
		delete(s.sessions, sess)
		s.mu.Unlock()
		s.wg.Done()
	}()

	sess.Run()
}
