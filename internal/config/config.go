package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmrzaf/sbgen/internal/timeutil"
)

type Config struct {
	LogLevel string
	DataDir  string

	// RunsDSN selects the Postgres run history; RunsDBPath is the SQLite fallback.
	RunsDBPath string
	RunsDSN    string

	TargetsDir  string
	ProfilesDir string
	ZonesPath   string

	APIAddr     string
	MetricsAddr string

	NumWorkers   int
	RunTimeout   time.Duration
	TextPoolSize int
}

const defaultRunTimeout = 24 * time.Hour

// Load reads SBGEN_* variables. A .env file in the working directory
// fills in variables the environment does not set.
func Load() *Config {
	// A missing .env is fine; godotenv never overrides variables already set.
	_ = godotenv.Load(".env")

	dataDir := getEnv("SBGEN_DATA_DIR", "./data")
	return &Config{
		LogLevel:     getEnv("SBGEN_LOG_LEVEL", "info"),
		DataDir:      dataDir,
		RunsDBPath:   getEnv("SBGEN_RUNS_DB", filepath.Join(dataDir, "sbgen-runs.sqlite")),
		RunsDSN:      getEnv("SBGEN_RUNS_DSN", ""),
		TargetsDir:   getEnv("SBGEN_TARGETS_DIR", "./targets"),
		ProfilesDir:  getEnv("SBGEN_PROFILES_DIR", "./profiles"),
		ZonesPath:    getEnv("SBGEN_ZONES_PATH", ""),
		APIAddr:      getEnv("SBGEN_API_ADDR", ":8080"),
		MetricsAddr:  getEnv("SBGEN_METRICS_ADDR", ""),
		NumWorkers:   getEnvInt("SBGEN_NUM_WORKERS", runtime.GOMAXPROCS(0)),
		RunTimeout:   getEnvDuration("SBGEN_RUN_TIMEOUT", defaultRunTimeout),
		TextPoolSize: getEnvInt("SBGEN_TEXT_POOL_SIZE", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := timeutil.ParseDuration(raw)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
