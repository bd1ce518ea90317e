package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration, loaded from the environment
// with sensible defaults.
type Config struct {
	Port      string
	DBPath    string
	DataDir   string
	JWTSecret string

	// Requests per minute allowed per client IP.
	RateLimit int

	// Pipeline knobs. One seed drives every randomized step of a run.
	Seed          int64
	Contamination float64
	TestFraction  float64
	LearningRate  float64
	MaxDepth      int
	MaxRounds     int
	EarlyStop     int

	// Skip the startup training run and serve the persisted active model.
	SkipStartupRun bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	port := envString("PORT", ":8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &Config{
		Port:      port,
		DBPath:    envString("DB_PATH", "./data/delivery/delivery.db"),
		DataDir:   envString("DATA_DIR", "./data/olist"),
		JWTSecret: envString("JWT_SECRET", "your-secret-key-change-in-production"),
		RateLimit: envInt("RATE_LIMIT", 120),

		Seed:          int64(envInt("PIPELINE_SEED", 42)),
		Contamination: envFloat("CONTAMINATION", 0.01),
		TestFraction:  envFloat("TEST_FRACTION", 0.2),
		LearningRate:  envFloat("LEARNING_RATE", 0.05),
		MaxDepth:      envInt("MAX_DEPTH", 6),
		MaxRounds:     envInt("MAX_ROUNDS", 1000),
		EarlyStop:     envInt("EARLY_STOP", 50),

		SkipStartupRun: envBool("SKIP_STARTUP_RUN", false),
	}
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envFloat(name string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
