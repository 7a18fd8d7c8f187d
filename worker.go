package httpd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Phase is the position of a Worker in its connection lifecycle. Phases
// only move forward.
type Phase int

const (
	PhaseReading Phase = iota
	PhaseParsed
	PhaseDispatched
	PhaseResponding
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseReading:
		return "reading"
	case PhaseParsed:
		return "parsed"
	case PhaseDispatched:
		return "dispatched"
	case PhaseResponding:
		return "responding"
	case PhaseClosed:
		return "closed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Worker owns one accepted connection: read, parse, dispatch, write, close.
type Worker struct {
	cfg   *Config
	store *FileStore
	log   zerolog.Logger

	conn  net.Conn
	req   *Request
	route Route
	res   *Response
	phase Phase
	// unread request bytes may remain; see closeWriteAndWait
	lingerClose bool

	done       chan struct{}
	cancelOnce sync.Once
}

type stateFunc func(*Worker) stateFunc

func NewWorker(cfg *Config, store *FileStore, log zerolog.Logger) *Worker {
	return &Worker{
		cfg:   cfg,
		store: store,
		log:   log,
		done:  make(chan struct{}),
	}
}

// Start serves conn and returns once it is closed. The worker takes
// ownership of conn.
func (w *Worker) Start(conn net.Conn) {
	w.conn = conn
	w.log = w.log.With().Str("remote", remoteAddr(conn)).Logger()
	if w.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(w.cfg.ReadTimeout)); err != nil {
			w.log.Debug().Err(err).Msg("set read deadline failed, reading without timeout")
		}
	}

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

// Cancel stops a worker that is still waiting for its request. Safe to
// call more than once and after the worker finished.
func (w *Worker) Cancel() {
	w.cancelOnce.Do(func() { close(w.done) })
}

// Phase reports the last phase entered. Only meaningful once Start returned.
func (w *Worker) Phase() Phase {
	return w.phase
}

func remoteAddr(conn net.Conn) string {
	if a := conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

func (w *Worker) enter(p Phase) {
	w.phase = p
	w.log.Trace().Stringer("phase", p).Msg("worker phase")
}

func (w *Worker) requestReceived(req *Request) stateFunc {
	w.enter(PhaseParsed)
	w.req = req
	w.route = Dispatch(req)
	return dispatch
}

func (w *Worker) readFailed(err error) stateFunc {
	switch {
	case errors.Is(err, errPeerClosed):
		w.log.Debug().Msg("peer closed before sending a request")
		return finishWorker
	case errors.Is(err, ErrMalformedRequest):
		w.log.Warn().Err(err).Msg("parse failure")
		w.res = ResponseBadRequest()
		w.lingerClose = true
		return sendResponse
	}
	w.log.Warn().Err(err).Msg("read failed")
	return finishWorker
}

// serve runs the handler; a panic becomes a 500 instead of reaching the
// acceptor.
func (w *Worker) serve() (res *Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = ResponseInternalError(), fmt.Errorf("handler panic: %v", r)
		}
	}()
	return Serve(w.route, w.req, w.store)
}

const (
	lingerTimeout  = 500 * time.Millisecond
	lingerMaxDrain = 4 << 20
)

type closeWriter interface {
	CloseWrite() error
}

// closeWriteAndWait half-closes the connection and discards what the peer
// still sends, so that Close does not reset a connection with unread input
// before the peer has read the response. Similar to closeWriteAndWait in
// net/http/server.go.
func (w *Worker) closeWriteAndWait() {
	cw, ok := w.conn.(closeWriter)
	if !ok {
		return
	}
	if err := cw.CloseWrite(); err != nil {
		w.log.Debug().Err(err).Msg("close write failed")
		return
	}
	if err := w.conn.SetReadDeadline(time.Now().Add(lingerTimeout)); err != nil {
		w.log.Debug().Err(err).Msg("set linger deadline failed")
		return
	}
	n, _ := io.Copy(io.Discard, io.LimitReader(w.conn, lingerMaxDrain))
	w.log.Trace().Int64("bytes", n).Msg("drained unread request")
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	w.enter(PhaseReading)
	r := NewRequestReader(w.conn, w.cfg.MaxHeaderBytes, w.cfg.MaxBodyBytes)
	r.Start()
	select {
	case req := <-r.RequestReceived():
		return w.requestReceived(req)
	case err := <-r.ErrorOccurred():
		return w.readFailed(err)
	case <-w.done:
		w.log.Debug().Msg("worker cancelled while reading")
		return finishWorker
	}
}

func dispatch(w *Worker) stateFunc {
	w.enter(PhaseDispatched)
	res, err := w.serve()
	w.res = res

	var ev *zerolog.Event
	if err != nil {
		ev = w.log.Warn().Err(err)
	} else {
		ev = w.log.Info()
	}
	ev.Str("method", w.req.Method).
		Str("path", w.req.URI).
		Stringer("route", w.route.Kind).
		Int("status", res.Status).
		Msg("request")
	return sendResponse
}

func sendResponse(w *Worker) stateFunc {
	w.enter(PhaseResponding)
	if err := WriteResponse(w.conn, w.res); err != nil {
		w.log.Warn().Err(err).Int("status", w.res.Status).Msg("write response failed")
	}
	return finishWorker
}

func finishWorker(w *Worker) stateFunc {
	w.enter(PhaseClosed)
	if w.conn != nil {
		if w.lingerClose {
			w.closeWriteAndWait()
		}
		w.conn.Close()
	}
	w.Cancel()
	return nil
}
