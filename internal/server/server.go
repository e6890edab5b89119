package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"buildtrack/internal/backend"
	"buildtrack/internal/config"
	"buildtrack/internal/database"
	"buildtrack/internal/handlers"
	"buildtrack/internal/logger"
	"buildtrack/internal/middlewares"
	"buildtrack/internal/repositories"
	"buildtrack/internal/routes"
	"buildtrack/internal/services"
	"buildtrack/internal/wizard"
)

// Server is the HTTP surface plus the resources it owns.
type Server struct {
	HTTP *http.Server

	wizard  *services.WizardService
	closers []func()
}

// Deps are the stores and upstream the router is built on.
type Deps struct {
	Backend     services.Backend
	Sessions    repositories.SessionStore
	Suggestions repositories.SuggestionStore
	SessionTTL  time.Duration
	Concurrency int
	CORSOrigins []string
	Log         zerolog.Logger
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log := logger.WithComponent("server")
	s := &Server{}

	backendLog := logger.WithComponent("backend")
	client := backend.NewClient(cfg.BackendURL, backend.Options{
		Timeout:           cfg.BackendTimeout,
		RequestsPerSecond: cfg.BackendRPS,
		Logger:            &backendLog,
	})

	var sessions repositories.SessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

		// Fail fast with a clear message
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")
		s.closers = append(s.closers, func() { _ = rdb.Close() })
		sessions = repositories.NewRedisSessionRepository(rdb, cfg.SessionTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, wizard sessions are kept in memory")
		sessions = repositories.NewMemorySessionRepository(cfg.SessionTTL)
	}

	var suggestions repositories.SuggestionStore
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database, logger.WithComponent("database"))
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := database.RunMigrations(ctx, pool, logger.WithComponent("database")); err != nil {
			s.Close()
			return nil, err
		}
		suggestions = repositories.NewPostgresSuggestionRepository(pool)
	} else {
		log.Warn().Msg("DB_HOST not set, suggestions are kept in memory")
		suggestions = repositories.NewMemorySuggestionRepository()
	}

	router, wiz := NewRouter(Deps{
		Backend:     client,
		Sessions:    sessions,
		Suggestions: suggestions,
		SessionTTL:  cfg.SessionTTL,
		Concurrency: cfg.AggregationConcurrency,
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger.Base(),
	})
	s.wizard = wiz

	s.HTTP = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	return s, nil
}

// NewRouter wires services and handlers onto a gin engine.
func NewRouter(d Deps) (*gin.Engine, *services.WizardService) {
	bus := wizard.NewBus()
	wiz := services.NewWizardService(d.Backend, d.Sessions, d.Suggestions, bus, d.SessionTTL, d.Log.With().Str("component", "wizard").Logger())

	svcLog := d.Log.With().Str("component", "services").Logger()
	directory := services.NewDirectoryService(d.Backend, d.Concurrency, svcLog)
	consultants := services.NewConsultantService(d.Backend, d.Concurrency, svcLog)
	invoices := services.NewInvoiceService(d.Backend, d.Concurrency, svcLog)
	variations := services.NewVariationService(d.Backend, svcLog)
	payments := services.NewPaymentService(d.Backend, svcLog)
	suggestions := services.NewSuggestionService(d.Suggestions)

	httpLog := d.Log.With().Str("component", "http").Logger()
	router := gin.New()
	router.Use(gin.Recovery(), middlewares.RequestID, middlewares.RequestLogger(httpLog))
	if len(d.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     d.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middlewares.RequestIDHeader},
			ExposeHeaders:    []string{middlewares.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	routes.RegisterRoutes(router, routes.Handlers{
		Wizard:      handlers.NewWizardHandler(wiz, httpLog),
		Directory:   handlers.NewDirectoryHandler(directory, consultants, invoices, variations, httpLog),
		Payments:    handlers.NewPaymentHandler(payments, httpLog),
		Suggestions: handlers.NewSuggestionHandler(suggestions, httpLog),
	})
	return router, wiz
}

// Close releases the wizard controllers and the stores, in reverse order of
// acquisition.
func (s *Server) Close() {
	if s.wizard != nil {
		s.wizard.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
