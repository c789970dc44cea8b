package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	DBPath        string
	LogLevel      string
	LogFormat     string
	LogFile       string
	DefaultOwner  string
	PublicBaseURL string

	RedisURL      string
	LabelCacheTTL time.Duration

	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string

	CameraSnapshotURL string
	CameraFacing      string
	ScanInterval      time.Duration
	ScanMaxWidth      int
	ScanSuccessDelay  time.Duration
	ScanRetryDelay    time.Duration
	ScanTimeout       time.Duration
	ScanRateLimit     int
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first if present; variables already set in
// the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		DBPath:        getEnv("DB_PATH", "/data/storagescout.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFile:       getEnv("LOG_FILE", ""),
		DefaultOwner:  getEnv("DEFAULT_OWNER", "local"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		RedisURL:      getEnv("REDIS_URL", ""),
		LabelCacheTTL: getDuration("LABEL_CACHE_TTL", 24*time.Hour),

		VisionBackend: getEnv("VISION_BACKEND", "none"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),

		CameraSnapshotURL: getEnv("CAMERA_SNAPSHOT_URL", ""),
		CameraFacing:      getEnv("CAMERA_FACING", "environment"),
		ScanInterval:      getDuration("SCAN_INTERVAL", 80*time.Millisecond),
		ScanMaxWidth:      getInt("SCAN_MAX_WIDTH", 640),
		ScanSuccessDelay:  getDuration("SCAN_SUCCESS_DELAY", 500*time.Millisecond),
		ScanRetryDelay:    getDuration("SCAN_RETRY_DELAY", 2*time.Second),
		ScanTimeout:       getDuration("SCAN_TIMEOUT", time.Minute),
		ScanRateLimit:     getInt("SCAN_RATE_LIMIT", 60),
	}
}

func (c *Config) Validate() error {
	var errs []error

	switch c.VisionBackend {
	case "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			errs = append(errs, errors.New("CLAUDE_API_KEY is required when VISION_BACKEND=claude"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend))
	}

	switch c.CameraFacing {
	case "environment", "user":
	default:
		errs = append(errs, fmt.Errorf("unknown CAMERA_FACING %q", c.CameraFacing))
	}

	if c.ScanInterval <= 0 {
		errs = append(errs, errors.New("SCAN_INTERVAL must be positive"))
	}
	if c.ScanMaxWidth <= 0 {
		errs = append(errs, errors.New("SCAN_MAX_WIDTH must be positive"))
	}
	if c.ScanSuccessDelay < 0 || c.ScanRetryDelay < 0 {
		errs = append(errs, errors.New("scan delays must not be negative"))
	}
	if c.ScanTimeout <= 0 {
		errs = append(errs, errors.New("SCAN_TIMEOUT must be positive"))
	}
	if c.ScanRateLimit <= 0 {
		errs = append(errs, errors.New("SCAN_RATE_LIMIT must be positive"))
	}
	if c.DefaultOwner == "" {
		errs = append(errs, errors.New("DEFAULT_OWNER must not be empty"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultVal
	}
	return n
}
