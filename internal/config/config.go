package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ECHOFORM_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("ECHOFORM_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// StorageDriver returns the configured belief store backend.
// Defaults to "postgres" if not set.
// Valid values: postgres, sqlite
func StorageDriver() string {
	d := os.Getenv("STORAGE_DRIVER")
	if d == "" {
		return "postgres"
	}
	return d
}

func SQLitePath() string {
	p := os.Getenv("SQLITE_PATH")
	if p == "" {
		return "echoform.db"
	}
	return p
}

func MigrationsPath() string {
	p := os.Getenv("MIGRATIONS_PATH")
	if p == "" {
		return "migrations"
	}
	return p
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "openai" if not set.
// Valid values: openai, mock
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

func EmbeddingModel() string {
	m := os.Getenv("EMBEDDING_MODEL")
	if m == "" {
		return "text-embedding-3-small"
	}
	return m
}

// AnchorsPath returns the anchor table file. Empty means the built-in table.
func AnchorsPath() string {
	return os.Getenv("ANCHORS_PATH")
}

// SimilarityThreshold returns the minimum anchor similarity that emits a signal.
// Defaults to 0.6 if not set.
func SimilarityThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("SIMILARITY_THRESHOLD"), 64)
	if err != nil || v <= 0 || v >= 1 {
		return 0.6
	}
	return v
}

// ExtractConcurrency returns how many anchor comparisons run at once.
// Defaults to 4 if not set.
func ExtractConcurrency() int {
	n, err := strconv.Atoi(os.Getenv("EXTRACT_CONCURRENCY"))
	if err != nil || n <= 0 {
		return 4
	}
	return n
}

// ScorerTimeout bounds a whole extraction pass.
// Defaults to 10s if not set.
func ScorerTimeout() time.Duration {
	d, err := time.ParseDuration(os.Getenv("SCORER_TIMEOUT"))
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// DriftCheckInterval returns how often the drift monitor runs.
// Defaults to 1m if not set.
func DriftCheckInterval() time.Duration {
	d, err := time.ParseDuration(os.Getenv("DRIFT_CHECK_INTERVAL"))
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// APIKey returns the static key guarding /v1. Empty disables auth.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// CORSAllowedOrigins returns the origins allowed to call the API.
// Defaults to "*" if not set.
func CORSAllowedOrigins() []string {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if raw == "" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
