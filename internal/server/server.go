package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/example/go-wyoming-silero/internal/observability"
	"github.com/example/go-wyoming-silero/internal/tts"
	"github.com/example/go-wyoming-silero/internal/wyoming"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	logger          *slog.Logger
	metrics         *observability.Metrics
	metricsAddr     string
	pool            *tts.Pool
	onShutdown      []func(context.Context) error
	eventQueue      int
	shutdownTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:          slog.Default(),
		eventQueue:      16,
		shutdownTimeout: 10 * time.Second,
	}
}

// Option configures a Server.
type Option func(*options)

// WithLogger sets the slog.Logger used for connection logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records connection, event and audio metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMetricsAddr serves /metrics on addr alongside the Wyoming listener.
func WithMetricsAddr(addr string) Option {
	return func(o *options) { o.metricsAddr = addr }
}

// WithPool hands the synthesis pool to the server so shutdown drains it.
func WithPool(p *tts.Pool) Option {
	return func(o *options) { o.pool = p }
}

// OnShutdown registers fn to run after the pool has drained, within the
// shutdown timeout. The engine's Close goes here.
func OnShutdown(fn func(context.Context) error) Option {
	return func(o *options) { o.onShutdown = append(o.onShutdown, fn) }
}

// WithEventQueue sets how many inbound events a connection buffers while a
// synthesis is in flight.
func WithEventQueue(n int) Option {
	return func(o *options) { o.eventQueue = n }
}

// WithShutdownTimeout bounds the graceful-shutdown drain period.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) { o.shutdownTimeout = d }
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server accepts Wyoming connections and runs one Handler per connection.
type Server struct {
	uri     string
	session Session
	info    wyoming.Event
	synth   Synthesizer
	opts    options
	log     *slog.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// New builds a Server. info is encoded once and reused for every describe.
func New(uri string, session Session, info wyoming.Info, synth Synthesizer, optFns ...Option) (*Server, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	infoEvent, err := info.Event()
	if err != nil {
		return nil, fmt.Errorf("encode info: %w", err)
	}
	return &Server{
		uri:     uri,
		session: session,
		info:    infoEvent,
		synth:   synth,
		opts:    opts,
		log:     opts.logger.With(slog.String("component", "server")),
		conns:   make(map[net.Conn]struct{}),
	}, nil
}

// Start listens on the configured URI and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := wyoming.Listen(ctx, s.uri)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then closes open
// connections and drains the pool within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	s.log.Info("listening", slog.String("uri", s.uri), slog.String("addr", ln.Addr().String()))

	g.Go(func() error {
		<-gctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			nc, err := ln.Accept()
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			s.track(nc, true)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.track(nc, false)
				s.serveConn(gctx, nc)
			}()
		}
	})

	if s.opts.metricsAddr != "" {
		httpServer := &http.Server{
			Addr:              s.opts.metricsAddr,
			Handler:           s.metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			s.log.Info("serving metrics", slog.String("addr", s.opts.metricsAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	return errors.Join(err, s.shutdown())
}

func (s *Server) metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.opts.metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"status":"ok","version":%q}`, buildVersion())
	})
	return mux
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
	defer cancel()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for connections: %w", ctx.Err())
	}

	if s.opts.pool != nil {
		if err := s.opts.pool.Close(ctx); err != nil {
			return fmt.Errorf("draining synthesis pool: %w", err)
		}
	}
	var errs []error
	for _, fn := range s.opts.onShutdown {
		errs = append(errs, fn(ctx))
	}
	s.log.Info("server stopped")
	return errors.Join(errs...)
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

// serveConn reads events on a separate goroutine into a bounded queue so the
// Handler processes them strictly in order, one synthesis at a time. End of
// input lets the queue drain; a failed read abandons it.
func (s *Server) serveConn(ctx context.Context, nc net.Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() { _ = nc.Close() }()

	log := s.opts.logger.With(
		slog.String("component", "connection"),
		slog.String("conn_id", uuid.NewString()),
		slog.String("remote", nc.RemoteAddr().String()),
	)
	s.opts.metrics.ConnectionOpened()
	defer s.opts.metrics.ConnectionClosed()
	log.Debug("client connected")

	conn := wyoming.NewConn(nc)
	events := make(chan wyoming.Event, max(s.opts.eventQueue, 1))

	go func() {
		defer close(events)
		for {
			ev, err := conn.ReadEvent()
			if err != nil {
				switch {
				case errors.Is(err, wyoming.ErrMalformedHeader):
					log.Warn("ignoring malformed event", slog.String("error", err.Error()))
					continue
				case errors.Is(err, io.EOF):
					// The peer may have only closed its write side, so
					// queued requests are still answered.
					log.Debug("client finished sending")
				case errors.Is(err, net.ErrClosed):
					log.Debug("client disconnected")
					cancel()
				default:
					log.Warn("read failed", slog.String("error", err.Error()))
					cancel()
				}
				return
			}
			s.opts.metrics.Event("in", ev.Type)
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	h := NewHandler(s.session, s.info, s.synth, conn,
		WithHandlerLogger(log),
		WithHandlerMetrics(s.opts.metrics),
	)
	for ev := range events {
		if err := h.HandleEvent(ctx, ev); err != nil {
			if ctx.Err() != nil {
				log.Debug("request abandoned", slog.String("error", err.Error()))
			} else {
				log.Warn("closing connection", slog.String("error", err.Error()))
			}
			cancel()
			_ = nc.Close()
			// Drain so the reader can exit.
			for range events {
			}
			return
		}
	}
}

// Probe connects to a Wyoming service, sends describe and returns its info.
func Probe(ctx context.Context, uri string) (wyoming.Info, error) {
	conn, err := wyoming.Dial(ctx, uri)
	if err != nil {
		return wyoming.Info{}, err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteEvent(wyoming.DescribeEvent()); err != nil {
		return wyoming.Info{}, fmt.Errorf("send describe: %w", err)
	}
	for {
		ev, err := conn.ReadEventContext(ctx)
		if err != nil {
			return wyoming.Info{}, fmt.Errorf("await info: %w", err)
		}
		if ev.Type == wyoming.TypeInfo {
			return wyoming.InfoFromEvent(ev)
		}
	}
}
