package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database
	DatabaseURL string
	SQLitePath  string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string

	// Solver
	SolverWallClock time.Duration
	NightStartHour  int
	NightEndHour    int
	MaxHoursPerDay  int
	MinGapSlots     int
	SlotMinutes     int
	HorizonDays     int
	ProfileBeta     float64

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// CLI
	StudentID string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "studora.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		SolverWallClock: time.Duration(getIntEnv("SOLVER_WALL_CLOCK_SECONDS", 10)) * time.Second,
		NightStartHour:  getIntEnv("NIGHT_START_HOUR", 23),
		NightEndHour:    getIntEnv("NIGHT_END_HOUR", 8),
		MaxHoursPerDay:  getIntEnv("MAX_HOURS_PER_DAY", 6),
		MinGapSlots:     getIntEnv("MIN_GAP_SLOTS", 1),
		SlotMinutes:     getIntEnv("SLOT_MINUTES", 60),
		HorizonDays:     getIntEnv("HORIZON_DAYS", 14),
		ProfileBeta:     getFloatEnv("PROFILE_BETA", 0),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 100*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 14),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		StudentID: getEnv("STUDORA_STUDENT_ID", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.NightStartHour < 0 || c.NightStartHour > 23 {
		return fmt.Errorf("NIGHT_START_HOUR %d out of range [0,23]", c.NightStartHour)
	}
	if c.NightEndHour < 0 || c.NightEndHour > 23 {
		return fmt.Errorf("NIGHT_END_HOUR %d out of range [0,23]", c.NightEndHour)
	}
	if c.MaxHoursPerDay <= 0 {
		return fmt.Errorf("MAX_HOURS_PER_DAY must be positive, got %d", c.MaxHoursPerDay)
	}
	if c.MinGapSlots < 0 {
		return fmt.Errorf("MIN_GAP_SLOTS must not be negative, got %d", c.MinGapSlots)
	}
	if c.SolverWallClock <= 0 {
		return fmt.Errorf("SOLVER_WALL_CLOCK_SECONDS must be positive")
	}
	if 60%c.SlotMinutes != 0 {
		return fmt.Errorf("SLOT_MINUTES %d must divide an hour", c.SlotMinutes)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
