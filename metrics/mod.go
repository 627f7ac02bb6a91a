// Package metrics implements the HTTP server that exposes the Prometheus
// collectors of the daemon.
//
// Every request gets an identifier, either from the X-Request-Id header or a
// new one, and is logged once served.
//
// Documentation Last Review: 19.10.2026
//
package metrics

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/inkconn"
	"golang.org/x/xerrors"
)

type key int

const (
	requestIDKey key = 0

	shutdownTimeout = 10 * time.Second
)

// Server is an HTTP server that serves the metrics of registered collectors.
type Server struct {
	sync.Mutex

	mux        *http.ServeMux
	server     *http.Server
	logger     zerolog.Logger
	listenAddr string
	listener   net.Listener
	listenFn   func(network, addr string) (net.Listener, error)
}

// NewServer creates a new server that will listen to the address.
func NewServer(listenAddr string) *Server {
	logger := inkconn.Logger.With().Str("role", "metrics").Logger()

	nextRequestID := func() string {
		return xid.New().String()
	}

	mux := http.NewServeMux()

	return &Server{
		mux: mux,
		server: &http.Server{
			Handler:           tracing(nextRequestID)(logging(logger)(mux)),
			ReadHeaderTimeout: shutdownTimeout,
		},
		logger:     logger,
		listenAddr: listenAddr,
		listenFn:   net.Listen,
	}
}

// Register registers the collectors into a new registry that is served on the
// path.
func (s *Server) Register(path string, collectors ...prometheus.Collector) error {
	registry := prometheus.NewRegistry()

	for _, c := range collectors {
		err := registry.Register(c)
		if err != nil {
			return xerrors.Errorf("failed to register collector: %v", err)
		}
	}

	s.mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return nil
}

// Listen binds the address and serves the requests in the background.
func (s *Server) Listen() error {
	s.Lock()
	defer s.Unlock()

	if s.listener != nil {
		return xerrors.New("server already listening")
	}

	ln, err := s.listenFn("tcp", s.listenAddr)
	if err != nil {
		return xerrors.Errorf("failed to listen on %s: %v", s.listenAddr, err)
	}

	s.listener = ln

	go func() {
		err := s.server.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			s.logger.Err(err).Msg("server stopped unexpectedly")
		}
	}()

	s.logger.Info().Stringer("addr", ln.Addr()).Msg("server is ready to handle requests")

	return nil
}

// GetAddr returns the address of the server, or nil if it is not listening.
func (s *Server) GetAddr() net.Addr {
	s.Lock()
	defer s.Unlock()

	if s.listener == nil {
		return nil
	}

	return s.listener.Addr()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	s.Lock()
	defer s.Unlock()

	if s.listener == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.server.SetKeepAlivesEnabled(false)

	err := s.server.Shutdown(ctx)
	if err != nil {
		return xerrors.Errorf("could not gracefully shutdown the server: %v", err)
	}

	s.logger.Info().Msg("server stopped")

	return nil
}

// logging is a utility function that logs the http server events
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				requestID, ok := r.Context().Value(requestIDKey).(string)
				if !ok {
					requestID = "unknown"
				}
				logger.Debug().Str("requestID", requestID).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Str("remoteAddr", r.RemoteAddr).
					Str("agent", r.UserAgent()).Msg("request served")
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// tracing is a utility function that adds header tracing
func tracing(nextRequestID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-Id")
			if requestID == "" {
				requestID = nextRequestID()
			}
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set("X-Request-Id", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
