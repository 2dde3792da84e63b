package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/threat-view/dashboard-service/internal/alerting"
	"github.com/threat-view/dashboard-service/internal/auth"
	"github.com/threat-view/dashboard-service/internal/config"
	"github.com/threat-view/dashboard-service/internal/handlers"
	"github.com/threat-view/dashboard-service/internal/metrics"
	"github.com/threat-view/dashboard-service/internal/middleware"
	"github.com/threat-view/dashboard-service/internal/realtime"
	"github.com/threat-view/dashboard-service/internal/session"
	"github.com/threat-view/dashboard-service/internal/threat"
	"github.com/threat-view/dashboard-service/internal/upstream"
)

// Version information
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "config/config.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	if showVersion {
		logger.Info("ThreatView Dashboard Service",
			zap.String("version", Version),
			zap.String("git_commit", GitCommit),
			zap.String("build_time", BuildTime))
		return
	}

	logger.Info("Starting ThreatView Dashboard Service",
		zap.String("config_path", configPath),
		zap.String("version", Version))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Environment),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.String("session_backend", cfg.Session.Backend))

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret is required")
	}

	collector := metrics.NewCollector()

	// Upstream clients share one transport.
	client := upstream.NewClient(nil)
	authClient := upstream.NewAuthClient(client, cfg.Upstream.BaseURL+"/auth")
	threatClient := upstream.NewThreatClient(client, cfg.Upstream.BaseURL+"/threats")
	iocClient := upstream.NewIoCClient(client, cfg.Upstream.BaseURL+"/iocs")
	reportClient := upstream.NewReportClient(client, cfg.Upstream.BaseURL+"/reports")

	persist, err := buildPersistence(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session persistence", zap.Error(err))
	}

	sessions := session.NewSessionStore(authClient, persist, logger)
	threats := threat.NewStore(threatClient, collector, logger)
	alerts := alerting.NewStore(collector)
	alerts.Seed(alerting.DefaultRules())

	tokens := auth.NewService(auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenDuration(),
		Issuer:        cfg.Auth.Issuer,
	})

	// Restore a persisted upstream session, validating it against the
	// backend before trusting it.
	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	sessions.Init(initCtx)
	cancelInit()

	hub := realtime.NewHub(collector, logger)
	go hub.Run()

	var runner *realtime.Runner
	if cfg.Live.Enabled {
		runner = realtime.NewRunner(
			hub,
			realtime.NewIntervalTicker(time.Duration(cfg.Live.TickInterval)*time.Millisecond),
			realtime.RunnerConfig{
				CounterDuration: time.Duration(cfg.Live.CounterDuration) * time.Millisecond,
				JitterInterval:  time.Duration(cfg.Live.JitterInterval) * time.Millisecond,
				JitterMin:       cfg.Live.JitterMin,
				JitterMax:       cfg.Live.JitterMax,
				PulsePeriod:     time.Duration(cfg.Live.PulsePeriod) * time.Millisecond,
				PulseStep:       time.Duration(cfg.Live.PulseStep) * time.Millisecond,
				BroadcastEvery:  cfg.Live.BroadcastEvery,
			},
			nil,
			logger,
		)
		go runner.Run()
	}

	router := buildRouter(cfg, tokens, collector, logger)

	h := handlers.New(sessions, threats, alerts, iocClient, reportClient, tokens, hub, runner, collector, logger)
	h.RegisterRoutes(router, middleware.Auth(tokens))

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Endpoint, gin.WrapH(collector.Handler()))
	}

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	if runner != nil {
		runner.Stop()
	}
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}

// buildPersistence selects the session persistence backend.
func buildPersistence(cfg *config.Config, logger *zap.Logger) (session.Store, error) {
	switch cfg.Session.Backend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Session.Redis.Addr(),
			Password:     cfg.Session.Redis.Password,
			DB:           cfg.Session.Redis.Database,
			DialTimeout:  time.Duration(cfg.Session.Redis.DialTimeout) * time.Second,
			ReadTimeout:  time.Duration(cfg.Session.Redis.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Session.Redis.WriteTimeout) * time.Second,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		logger.Info("Session persistence: redis", zap.String("addr", cfg.Session.Redis.Addr()))
		return session.NewRedisStore(rdb), nil
	case "memory":
		logger.Info("Session persistence: memory")
		return session.NewMemoryStore(), nil
	default:
		logger.Info("Session persistence: file", zap.String("path", cfg.Session.File.Path))
		return session.NewFileStore(cfg.Session.File.Path), nil
	}
}

// buildRouter assembles the gin engine with the middleware chain.
func buildRouter(cfg *config.Config, tokens *auth.Service, collector *metrics.Collector, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Metrics(collector))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	return router
}

// initLogger initializes the application logger
func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	var logger *zap.Logger
	var err error

	if env == "production" {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		logger, err = config.Build()
	} else {
		config := zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		logger, err = config.Build()
	}

	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	return logger
}
