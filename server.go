package httpd

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var ErrServerClosed = errors.New("httpd: server closed")

// Server is the acceptor: it hands every accepted connection to a new
// Worker goroutine and never waits for it.
type Server struct {
	cfg   Config
	log   zerolog.Logger
	store *FileStore

	mu         sync.Mutex
	listener   net.Listener
	workers    map[*Worker]struct{}
	wg         sync.WaitGroup
	inShutdown atomic.Bool
}

func NewServer(cfg Config) *Server {
	return &Server{
		cfg: cfg,
		log: cfg.logger(),
		store: &FileStore{
			Root:        cfg.Directory,
			AllowBinary: cfg.AllowBinary,
		},
		workers: make(map[*Worker]struct{}),
	}
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts on ln until Shutdown is called, then returns
// ErrServerClosed. ln is closed on return.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	s.mu.Unlock()
	defer ln.Close()

	s.log.Info().Str("addr", ln.Addr().String()).Str("directory", s.cfg.Directory).Msg("listening")
	var delay time.Duration // how long to sleep on accept failure
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			delay = acceptDelay(delay)
			s.log.Error().Err(err).Dur("retry_in", delay).Msg("accept error")
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.handle(conn)
	}
}

// acceptDelay doubles the previous delay from 5ms up to 1s, as net/http
// does for temporary accept errors.
func acceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return 5 * time.Millisecond
	}
	if next := 2 * prev; next < time.Second {
		return next
	}
	return time.Second
}

func (s *Server) handle(conn net.Conn) {
	s.mu.Lock()
	if s.inShutdown.Load() {
		s.mu.Unlock()
		conn.Close()
		return
	}
	w := NewWorker(&s.cfg, s.store, s.log)
	s.workers[w] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Debug().Str("remote", remoteAddr(conn)).Msg("accepted connection")
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.workers, w)
			s.mu.Unlock()
			s.wg.Done()
		}()
		w.Start(conn)
	}()
}

// Shutdown stops accepting and waits for in-flight workers. When ctx ends
// first, workers still waiting for a request are cancelled and ctx.Err()
// is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.inShutdown.Store(true)
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("all workers drained")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		n := len(s.workers)
		for w := range s.workers {
			w.Cancel()
		}
		s.mu.Unlock()
		s.log.Warn().Int("workers", n).Msg("shutdown deadline reached, cancelling workers")
		return ctx.Err()
	}
}
