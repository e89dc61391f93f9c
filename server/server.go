// Package server exposes a storage.Store over HTTP.
//
// Notes are read, replaced and deleted with GET, PUT and DELETE on
// "/notes/{note_name}", listed with GET on "/notes", and created by POSTing
// the form fields note_name and note to "/write". Successful writes answer
// with a one-word body ("Created", "Updated", "Deleted"), missing notes with
// 404, bad names and duplicate creates with 400, and anything unexpected with
// 500. An OpenAPI description of all this is served at "/docs".
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/nicolagi/notes/storage"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type Option func(*options)

type options struct {
	address      string
	store        storage.Store
	maxNoteSize  int64
	limit        rate.Limit
	burst        int
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func WithAddress(value string) Option {
	return func(o *options) {
		o.address = value
	}
}

func WithStore(value storage.Store) Option {
	return func(o *options) {
		o.store = value
	}
}

// WithMaxNoteSize limits the size of note contents accepted by PUT and POST.
// Larger bodies get a 413.
func WithMaxNoteSize(value int64) Option {
	return func(o *options) {
		o.maxNoteSize = value
	}
}

// WithRateLimit makes the server answer 429 to requests in excess of the
// given rate, allowing bursts of the given size. The default is no limit.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *options) {
		o.limit = limit
		o.burst = burst
	}
}

func WithTimeouts(read, write time.Duration) Option {
	return func(o *options) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

type Server struct {
	opts    options
	limiter *rate.Limiter
	handler http.Handler
	ln      net.Listener
	srv     *http.Server
}

func New(opts ...Option) *Server {
	s := &Server{}
	s.opts.address = ":8080"
	s.opts.maxNoteSize = 1 << 20
	s.opts.limit = rate.Inf
	s.opts.readTimeout = 10 * time.Second
	s.opts.writeTimeout = 10 * time.Second
	for _, o := range opts {
		o(&s.opts)
	}
	if s.opts.store == nil {
		s.opts.store = storage.NewInMemoryStore()
	}
	s.limiter = rate.NewLimiter(s.opts.limit, s.opts.burst)
	s.handler = s.routes()
	s.srv = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.opts.readTimeout,
		WriteTimeout: s.opts.writeTimeout,
	}
	return s
}

// Handler returns the handler serving all routes, for use without Listen and
// Serve, e.g., with net/http/httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Listen() (addr string, err error) {
	s.ln, err = net.Listen("tcp", s.opts.address)
	if err != nil {
		return
	}
	addr = s.ln.Addr().String()
	return
}

// Serve serves requests on the listener opened by Listen. The function will
// return (some time after) shutdown is called.
func (s *Server) Serve() error {
	err := s.srv.Serve(s.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for in-flight requests to
// complete, or for ctx to be done, whichever happens first.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	if err != nil {
		log.WithField("err", err).Warn("Could not shut down gracefully")
	}
	return err
}
