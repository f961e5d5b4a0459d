package api

//go:generate mockgen -source=./server.go --destination=./server_mock_test.go --package=api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klothoplatform/fabric/pkg/deployment"
	"github.com/klothoplatform/fabric/pkg/ir"
	"github.com/klothoplatform/fabric/pkg/metrics"
	"github.com/klothoplatform/fabric/pkg/provision"
	"github.com/klothoplatform/fabric/pkg/validation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type (
	// Deployer is the lifecycle surface the API exposes.
	Deployer interface {
		Validate(g *ir.Graph) validation.Report
		Kinds() []deployment.KindInfo
		Preview(ctx context.Context, g *ir.Graph, creds *provision.Credentials) (*deployment.PreviewResult, error)
		Up(ctx context.Context, g *ir.Graph, creds *provision.Credentials) (*deployment.UpResult, error)
		Destroy(ctx context.Context, project, env string, creds *provision.Credentials) (*deployment.DestroyResult, error)
	}

	Config struct {
		Address         string
		CORSOrigins     []string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		DefaultLocation string
		// Engine and Backend are reported by /health.
		Engine  string
		Backend string
	}

	Server struct {
		cfg      Config
		deployer Deployer
		log      *zap.Logger
		metrics  *metrics.Metrics
		gatherer prometheus.Gatherer
		inFlight atomic.Int64
		// lookPath finds the pulumi CLI for /health.
		lookPath func(file string) (string, error)
	}

	Option func(*Server)
)

// WithMetrics records request metrics to m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func NewServer(cfg Config, deployer Deployer, opts ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		deployer: deployer,
		log:      zap.L(),
		lookPath: lookPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler is the root router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestContext)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)
	r.Use(cors(s.cfg.CORSOrigins))

	r.Get("/health", s.health)
	r.Get("/kinds", s.kinds)
	r.Post("/validate", s.validate)
	r.Post("/preview", s.preview)
	r.Post("/up", s.up)
	r.Post("/destroy", s.destroy)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve listens until ctx is done, then shuts down gracefully. Requests still running after
// shutdownTimeout are cancelled.
func (s *Server) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving", zap.String("address", s.cfg.Address), zap.String("engine", s.cfg.Engine))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
