package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"engage_server/adapter/out/graph"
	"engage_server/adapter/out/messaging"
	"engage_server/adapter/out/mongodb"
	"engage_server/adapter/out/persistence"
	"engage_server/config"
	"engage_server/core/port/out"
	"engage_server/core/service/analysis"
	"engage_server/core/service/automation"
	"engage_server/core/service/popup"
	"engage_server/core/service/recommend"
	"engage_server/infra/database"
	"engage_server/pkg/cache"
	"engage_server/pkg/logger"
	"engage_server/pkg/snowflake"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client
	Neo4j   neo4j.DriverWithContext

	// Repositories
	Cache          out.Cache
	CatalogRepo    *persistence.CatalogAdapter
	RuleRepo       *persistence.AutomationRuleAdapter
	PreferenceRepo *persistence.PreferenceAdapter
	FrequencyStore *persistence.FrequencyAdapter
	SessionStore   *persistence.SessionAdapter
	AnalyticsRepo  *mongodb.AnalyticsAdapter
	ExecutionLog   *mongodb.ExecutionAdapter
	HistoryStore   *graph.HistoryAdapter

	// Messaging
	Producer *messaging.RedisProducer

	// Services
	Snowflake   *snowflake.Generator
	Analyzer    *analysis.Analyzer
	Recommender *recommend.Recommender
	Policy      *popup.PolicyEngine
	Evaluator   *automation.Evaluator
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Database (pgxpool)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the row-scanning adapters)
	sqlxURL := cfg.DatabaseURL
	if strings.Contains(sqlxURL, "?") {
		sqlxURL += "&default_query_exec_mode=simple_protocol"
	} else {
		sqlxURL += "?default_query_exec_mode=simple_protocol"
	}
	sqlDB, err := sqlx.Connect("pgx", sqlxURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("sqlx connection failed: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis
	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	deps.Redis = redisClient
	cleanups = append(cleanups, func() { redisClient.Close() })
	deps.Cache = cache.NewRedisCache(redisClient)

	// MongoDB (analytics aggregates and rule execution log)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			mongoDB := mongoClient.Database(cfg.MongoDBName)
			deps.AnalyticsRepo = mongodb.NewAnalyticsAdapter(mongoDB)
			deps.ExecutionLog = mongodb.NewExecutionAdapter(mongoDB)

			if err := deps.AnalyticsRepo.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure analytics indexes: %v", err)
			}
			if err := deps.ExecutionLog.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure execution log indexes: %v", err)
			}
		}
	}

	// Neo4j (visitor click history graph)
	if cfg.Neo4jURL != "" {
		neo4jDriver, err := graph.NewDriver(cfg.Neo4jURL, cfg.Neo4jUsername, cfg.Neo4jPassword)
		if err != nil {
			logger.Warn("Neo4j connection failed: %v", err)
		} else {
			deps.Neo4j = neo4jDriver
			cleanups = append(cleanups, func() {
				neo4jDriver.Close(context.Background())
			})

			historyAdapter := graph.NewHistoryAdapter(neo4jDriver, cfg.Neo4jDatabase)
			deps.HistoryStore = historyAdapter
			if err := historyAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure Neo4j indexes: %v", err)
			}
		}
	}

	// Event producer (Redis Streams)
	deps.Producer = messaging.NewRedisProducer(redisClient)

	// Postgres repositories
	deps.CatalogRepo = persistence.NewCatalogAdapter(sqlDB)
	deps.RuleRepo = persistence.NewAutomationRuleAdapter(sqlDB)
	deps.PreferenceRepo = persistence.NewPreferenceAdapter(sqlDB)

	// Redis stores
	deps.FrequencyStore = persistence.NewFrequencyAdapter(redisClient)
	deps.SessionStore = persistence.NewSessionAdapter(redisClient, time.Duration(cfg.SessionTTLHour)*time.Hour)

	// Snowflake id generator
	gen, err := snowflake.NewGenerator(int64(cfg.NodeID))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("snowflake generator failed: %w", err)
	}
	deps.Snowflake = gen

	// Core services
	deps.Analyzer = analysis.NewAnalyzer(deps.Cache, &analysis.Config{
		CacheTTL: time.Duration(cfg.AnalysisCacheTTLMin) * time.Minute,
	})

	// Nil history/session stores degrade to content-only recommendations,
	// but interface-typed nils must stay nil interfaces.
	var history out.HistoryStore
	if deps.HistoryStore != nil {
		history = deps.HistoryStore
	}
	deps.Recommender = recommend.NewRecommender(deps.CatalogRepo, history, deps.SessionStore, &recommend.Config{
		HistoryLimit: cfg.HistorySourceLimit,
		SessionLimit: cfg.SessionSourceLimit,
	})

	deps.Policy = popup.NewPolicyEngine(gen, deps.PreferenceRepo, &popup.PolicyConfig{
		MaxDisplaysPerUser: cfg.MaxDisplaysPerUser,
		CooldownPeriod:     cfg.CooldownPeriod(),
	})

	// Automation needs the Mongo execution log; without it the API still
	// serves popups, just without publisher automation.
	if deps.ExecutionLog != nil {
		deps.Evaluator = automation.NewEvaluator(deps.RuleRepo, deps.ExecutionLog, deps.Producer)
	} else {
		logger.Warn("Automation rule evaluation disabled: execution log unavailable")
	}

	logger.Info("Dependencies initialized")
	return deps, cleanup, nil
}
