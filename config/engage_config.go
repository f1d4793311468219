package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateConsumerID creates a unique consumer ID using hostname and PID
func generateConsumerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "engage"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// Neo4j
	Neo4jURL      string
	Neo4jUsername string
	Neo4jPassword string
	Neo4jDatabase string

	// Popup frequency defaults
	MaxDisplaysPerUser int
	CooldownHours      int

	// Analysis
	AnalysisCacheTTLMin int
	MaxKeywords         int

	// Recommendations
	HistorySourceLimit int
	SessionSourceLimit int
	SessionTTLHour     int

	// Telemetry consumer (Redis Stream)
	ConsumerID              string
	ConsumerBatchSize       int
	ConsumerBlockMS         int
	ConsumerMaxRetries      int
	ConsumerPendingCheckSec int

	// Telemetry worker pool
	WorkerMin       int
	WorkerMax       int
	WorkerQueueSize int

	// Rate limiting
	AnalyzeRateLimit     int
	AnalyzeRateWindowSec int

	// Snowflake id generation
	NodeID int

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "engage"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// Neo4j
		Neo4jURL:      getEnv("NEO4J_URL", ""),
		Neo4jUsername: getEnv("NEO4J_USERNAME", "neo4j"),
		Neo4jPassword: getEnv("NEO4J_PASSWORD", ""),
		Neo4jDatabase: getEnv("NEO4J_DATABASE", "neo4j"),

		// Popup frequency defaults
		MaxDisplaysPerUser: getEnvInt("POPUP_MAX_DISPLAYS_PER_USER", 3),
		CooldownHours:      getEnvInt("POPUP_COOLDOWN_HOURS", 24),

		// Analysis
		AnalysisCacheTTLMin: getEnvInt("ANALYSIS_CACHE_TTL_MIN", 360),
		MaxKeywords:         getEnvInt("ANALYSIS_MAX_KEYWORDS", 20),

		// Recommendations
		HistorySourceLimit: getEnvInt("HISTORY_SOURCE_LIMIT", 10),
		SessionSourceLimit: getEnvInt("SESSION_SOURCE_LIMIT", 10),
		SessionTTLHour:     getEnvInt("SESSION_TTL_HOUR", 4),

		// Telemetry consumer
		ConsumerID:              getEnv("CONSUMER_ID", generateConsumerID()),
		ConsumerBatchSize:       getEnvInt("CONSUMER_BATCH_SIZE", 50),
		ConsumerBlockMS:         getEnvInt("CONSUMER_BLOCK_MS", 5000),
		ConsumerMaxRetries:      getEnvInt("CONSUMER_MAX_RETRIES", 3),
		ConsumerPendingCheckSec: getEnvInt("CONSUMER_PENDING_CHECK_SEC", 30),

		// Telemetry worker pool
		WorkerMin:       getEnvInt("WORKER_MIN", 2),
		WorkerMax:       getEnvInt("WORKER_MAX", 8),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 1000),

		// Rate limiting
		AnalyzeRateLimit:     getEnvInt("ANALYZE_RATE_LIMIT", 60),
		AnalyzeRateWindowSec: getEnvInt("ANALYZE_RATE_WINDOW_SEC", 60),

		// Snowflake
		NodeID: getEnvInt("NODE_ID", 1),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

// CooldownPeriod returns the configured default cooldown as a duration.
func (c *Config) CooldownPeriod() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
