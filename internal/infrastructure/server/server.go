package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/AgentOS/attention/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/attention/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/attention/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/attention"
	"github.com/GriffinCanCode/AgentOS/attention/internal/domain/intent"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/attention/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	store   *attention.Store
	coord   *intent.Coordinator
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewLogger builds the process logger from configuration
func NewLogger(cfg config.LogConfig) *logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg.Development {
		logCfg = logging.DevelopmentConfig()
	}
	if cfg.Level != "" {
		logCfg.Level = cfg.Level
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		logger = logging.NewDefault()
		logger.Warn("Invalid logging configuration, using defaults", zap.Error(err))
	}
	return logger
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = NewLogger(cfg.Logging)
	}

	logger.Info("Initializing attention service",
		zap.String("addr", cfg.Server.Addr()),
		zap.Float64("max_screen", cfg.Budget.MaxScreen),
		zap.Float64("max_audio", cfg.Budget.MaxAudio),
		zap.Float64("max_cognitive", cfg.Budget.MaxCognitive),
	)

	// Dedicated registry so tests and embedded servers never collide
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	capacity := attention.Budget{
		MaxScreenSpace:   cfg.Budget.MaxScreen,
		MaxAudioTime:     cfg.Budget.MaxAudio,
		MaxCognitiveLoad: cfg.Budget.MaxCognitive,
	}
	store := attention.NewStore(logger.Component("store"), capacity).WithMetrics(metrics)
	coord := intent.NewCoordinator(store, logger.Component("coordinator"), cfg.Stream.QueueSize).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	tracer := tracing.New("attentiond", logger.Component("trace"))

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins...)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	api.NewHandlers(coord, logger.Component("http")).Register(router)
	api.NewMetricsAggregator(metrics, registry, store).Register(router)

	stream := ws.NewHandler(coord, logger.Component("stream"), cfg.Stream.PollInterval, ws.OriginChecker(cfg.Server.CORSOrigins)).
		WithMetrics(metrics)
	router.GET("/stream", stream.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		store:   store,
		coord:   coord,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		tracer:  tracer,
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Store returns the attention store
func (s *Server) Store() *attention.Store {
	return s.store
}

// Coordinator returns the intent coordinator
func (s *Server) Coordinator() *intent.Coordinator {
	return s.coord
}

// Run serves HTTP and applies intents until ctx is done, then shuts down
// gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	coordCtx, stopCoord := context.WithCancel(context.Background())
	coordDone := make(chan struct{})
	go func() {
		defer close(coordDone)
		_ = s.coord.Run(coordCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("http shutdown: %w", err)
		}
	}

	// stop the coordinator last so in-flight requests can finish submitting
	stopCoord()
	<-coordDone

	return runErr
}

// Close flushes pending spans and the logger
func (s *Server) Close() error {
	s.tracer.Close()
	s.logger.Close()
	return nil
}
