package server

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/orrery-labs/orrery/backend/internal/api/http"
	"github.com/orrery-labs/orrery/backend/internal/api/middleware"
	"github.com/orrery-labs/orrery/backend/internal/api/ws"
	"github.com/orrery-labs/orrery/backend/internal/domain/library"
	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/domain/window"
	"github.com/orrery-labs/orrery/backend/internal/domain/workspace"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/tracing"
	"github.com/orrery-labs/orrery/backend/internal/jupyter"
)

// kernelStopTimeout bounds the shutdown courtesy call to the remote server.
const kernelStopTimeout = 5 * time.Second

// Server owns the wired component graph and the gin engine.
type Server struct {
	router  *gin.Engine
	store   *window.Store
	library *library.Manager
	remote  *jupyter.Client
	hub     *ws.Hub
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// New wires every component and registers the routes.
func New(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	logger.Info("initializing orrery server",
		zap.String("port", cfg.Server.Port),
		zap.String("remote", cfg.Remote.BaseURL),
		zap.String("library", cfg.Library.Root),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("orrery", logger.Logger)

	store := window.NewStore().WithMetrics(metrics)
	if err := workspace.NewSeeder(store, cfg.Library.LayoutPath, logger).Seed(); err != nil {
		logger.Warn("layout seed failed", zap.Error(err))
	}

	lib, err := library.NewManager(cfg.Library.Root, logger)
	if err != nil {
		return nil, fmt.Errorf("library: %w", err)
	}
	lib.WithMetrics(metrics).WithPattern(cfg.Library.Pattern)

	profiles, err := config.LoadProfiles(cfg.Remote.ProfilesPath)
	if err != nil {
		logger.Warn("server profiles unavailable", zap.Error(err))
		profiles = &config.Profiles{Profiles: map[string]config.Profile{}}
	}

	remote := jupyter.New(cfg.Remote, logger).WithMetrics(metrics)

	hub := ws.NewHub(logger).WithMetrics(metrics)
	go hub.Run()

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}
	if cfg.Auth.Enabled {
		logger.Info("bearer auth enabled")
		router.Use(middleware.Auth(cfg.Auth))
	}

	handlers := apihttp.NewHandlers(
		store,
		notebook.NewDecoder(),
		workspace.NewReconciler(store).WithMetrics(metrics),
		lib,
		remote,
		hub,
	).WithMetrics(metrics).WithRemoteConfig(cfg.Remote, profiles)
	handlers.Register(router)

	logger.Info("server initialized",
		zap.Int("windows", store.Count()),
		zap.Strings("profiles", profiles.Names()),
	)

	return &Server{
		router:  router,
		store:   store,
		library: lib,
		remote:  remote,
		hub:     hub,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP listener and blocks until it fails.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close releases everything holding goroutines or remote handles. The
// kernel stop is a courtesy: a kernel left running on the remote server
// would leak past our process lifetime.
func (s *Server) Close() error {
	s.logger.Info("shutting down server")

	s.hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), kernelStopTimeout)
	defer cancel()
	if err := s.remote.StopKernel(ctx); err != nil {
		s.logger.Warn("kernel stop on shutdown failed", zap.Error(err))
	}
	s.remote.Close()

	s.tracer.Close()
	s.logger.Sync()
	return nil
}
