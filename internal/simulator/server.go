package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/saveugene/pulsedash/internal/metrics"
	"github.com/saveugene/pulsedash/internal/transport"
)

const (
	writeWait       = 5 * time.Second
	shutdownTimeout = 5 * time.Second

	// RunningMessage is the health response body.
	RunningMessage = "Heart Rate Monitor simulator is running"
	// NoSessionMessage is returned by /api/session before any client left.
	NoSessionMessage = "No session data available."
)

type Options struct {
	Interval time.Duration
	Seed     int64
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
	Now      func() time.Time
}

// Server streams one reading per interval to every websocket client and
// keeps the summary of the last finished session.
type Server struct {
	opts     Options
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	last *transport.Observation
}

func New(opts Options) *Server {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		opts:   opts,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": RunningMessage})
	})
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/api/session", func(w http.ResponseWriter, r *http.Request) {
		last := s.LastSession()
		if last == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": NoSessionMessage})
			return
		}
		writeJSON(w, http.StatusOK, last)
	})
	if s.opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

// LastSession is the FHIR summary of the most recently finished session.
func (s *Server) LastSession() *transport.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.logger.With(zap.String("client", id), zap.String("remote", r.RemoteAddr))
	log.Info("client connected")
	s.opts.Metrics.ClientConnected(1)
	defer s.opts.Metrics.ClientConnected(-1)

	// The reader only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	sess := newSession(s.opts.Now())
	gen := NewGenerator(s.opts.Seed)
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	send := func(t int) error {
		v := gen.Next()
		msg := message(t, v, sess.add(t, v), s.opts.Now())
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg)
	}

	// Send immediately, then on ticker.
	t := 0
	err = send(t)
	for err == nil {
		select {
		case <-gone:
			err = errClientGone
		case <-r.Context().Done():
			err = r.Context().Err()
		case <-ticker.C:
			t++
			err = send(t)
		}
	}

	sum, serr := sess.summary(s.opts.Now())
	switch {
	case serr != nil:
		log.Error("session summary", zap.Error(serr))
	case sum != nil:
		s.mu.Lock()
		s.last = sum
		s.mu.Unlock()
	}
	log.Info("client disconnected", zap.Int("readings", len(sess.readings)), zap.NamedError("reason", err))
}

var errClientGone = errors.New("client gone")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
