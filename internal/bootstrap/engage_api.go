package bootstrap

import (
	"strings"
	"time"

	"engage_server/adapter/in/http"
	"engage_server/config"
	"engage_server/core/port/out"
	"engage_server/infra/middleware"
	"engage_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logLevel := logger.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = logger.LevelDebug
	}
	logger.Init(logger.Config{
		Level:   logLevel,
		Service: "engage-api",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		Prefork:               false,

		ReadBufferSize:  16384,
		WriteBufferSize: 16384,

		// go-json is 2-3x faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		// Page content snapshots can get large, but 10MB is plenty.
		BodyLimit: 10 * 1024 * 1024,

		Concurrency:        256 * 1024,
		ServerHeader:       "",
		DisableDefaultDate: true,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLogger())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// CORS: the embed script runs on arbitrary publisher origins, so the
	// API is open by default and credentials are never allowed.
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Request-ID," + http.HeaderVisitorID + "," + http.HeaderSessionID,
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset",
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	// Health check
	healthHandler := http.NewHealthHandlerWithDeps(deps.DB, deps.Redis, deps.MongoDB)
	healthHandler.Register(app)

	api := app.Group("/api/v1")

	// Analysis is the expensive endpoint; it gets its own limiter.
	analyzeLimiter := middleware.NewRateLimiter(
		cfg.AnalyzeRateLimit,
		time.Duration(cfg.AnalyzeRateWindowSec)*time.Second,
	)
	analyzeHandler := http.NewAnalyzeHandler(deps.Analyzer, deps.Recommender, deps.Policy, deps.Evaluator, deps.Cache)
	api.Post("/analyze", analyzeLimiter.Handler(), analyzeHandler.Analyze)

	popupHandler := http.NewPopupHandler(deps.Cache, deps.FrequencyStore, deps.Producer, deps.Snowflake)
	popupHandler.Register(api)

	trackHandler := http.NewTrackHandler(deps.Producer, deps.PreferenceRepo, deps.FrequencyStore, deps.SessionStore, deps.Snowflake)
	trackHandler.Register(api)

	prefHandler := http.NewPreferenceHandler(deps.PreferenceRepo)
	prefHandler.Register(api)

	var execLog out.RuleExecutionLog
	if deps.ExecutionLog != nil {
		execLog = deps.ExecutionLog
	}
	ruleHandler := http.NewRuleHandler(deps.RuleRepo, execLog)
	ruleHandler.Register(api)

	if deps.AnalyticsRepo != nil {
		statsHandler := http.NewStatsHandler(deps.AnalyticsRepo)
		statsHandler.Register(api)
	}

	logger.Info("API server initialized")

	return app, cleanup, nil
}
