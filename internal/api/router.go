package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/snapshotlabs/snapshot-api/internal/api/handler"
	customMiddleware "github.com/snapshotlabs/snapshot-api/internal/api/middleware"
	"github.com/snapshotlabs/snapshot-api/internal/config"
	"github.com/snapshotlabs/snapshot-api/internal/domain"
	"github.com/snapshotlabs/snapshot-api/internal/repository/postgres"
	"github.com/snapshotlabs/snapshot-api/internal/repository/redis"
	"github.com/snapshotlabs/snapshot-api/internal/security"
	"github.com/snapshotlabs/snapshot-api/internal/service"
	"github.com/snapshotlabs/snapshot-api/internal/telemetry"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, db *postgres.DB, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Security components
	jwtManager := security.NewJWTManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	// Telemetry
	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)

	// Repositories
	surveyRepo := postgres.NewSurveyRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	userRepo := postgres.NewUserRepository(db)

	writeLimiter := redis.NewWriteLimiter(
		redisClient,
		cfg.Survey.WriteBudget,
		cfg.Survey.WriteWindow,
	)
	pendingStore := redis.NewPendingBufferStore(
		redisClient,
		cfg.Survey.PendingTTL,
		cfg.Survey.PendingCap,
	)

	// Question schemas: priority pillar scores are bounded numbers,
	// goals are free text, target years use the year picker.
	schemas := domain.NewSchemaRegistry()
	registerQuestionSchemas(schemas)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	surveyService := service.NewSurveyService(
		surveyRepo,
		pendingStore,
		writeLimiter,
		schemas,
		metrics,
		cfg.Survey.HistoryLimit,
	)
	completionService := service.NewCompletionService(surveyRepo, profileRepo, metrics)
	sharingService := service.NewSharingService(surveyRepo, userRepo, profileRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	surveyHandler := handler.NewSurveyHandler(surveyService, completionService, sharingService, profileRepo)
	publicHandler := handler.NewPublicHandler(sharingService)

	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager)

	if cfg.Metrics.Enabled {
		r.Method(http.MethodGet, cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(db))

		// Auth routes (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// Shared results (public)
		r.Get("/public/{slug}", publicHandler.Results)

		// Pre-auth answer buffer (public, local-only semantics)
		r.Post("/surveys/pending", surveyHandler.RecordPending)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/surveys", func(r chi.Router) {
				r.Post("/resolve", surveyHandler.Resolve)
				r.Get("/history", surveyHandler.History)

				r.Route("/{surveyID}", func(r chi.Router) {
					r.Post("/answers", surveyHandler.RecordAnswers)
					r.Post("/complete", surveyHandler.Complete)
					r.Post("/share", surveyHandler.Share)
					r.Get("/profile", surveyHandler.Profile)
				})
			})
		})
	})

	return r
}

// registerQuestionSchemas declares the shapes of the questionnaire's
// known questions. Unregistered questions fall back to the permissive
// default union.
func registerQuestionSchemas(schemas *domain.SchemaRegistry) {
	// Pillar self-ratings: 0-10 sliders
	for _, id := range []string{"career", "financials", "health", "connections"} {
		schemas.Register(id, domain.NumberSchema(0, 10))
	}

	// Free-text goal statements
	for _, id := range []string{"career_goal", "financial_goal", "health_goal", "connections_goal"} {
		schemas.Register(id, domain.TextSchema(500))
	}

	// Target year for the five year snapshot
	schemas.Register("target_year", domain.YearSchema())

	// Priority ranking of pillars
	schemas.Register("pillar_priorities", domain.ListSchema())

	// Main focus selection
	schemas.Register("main_focus", domain.EnumSchema("career", "financials", "health", "connections"))
}
