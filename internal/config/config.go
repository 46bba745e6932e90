package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIBaseURL = "http://localhost:8000"

	// Observed reveal cadences.
	QuestionRevealInterval = 50 * time.Millisecond
	FeedbackRevealInterval = 30 * time.Millisecond
)

// Config holds application configuration
type Config struct {
	APIBaseURL  string
	Token       string // Bearer token; overrides the token file when set
	TokenFile   string // Persisted token location (written by /login)
	DraftFile   string // Optional YAML file with an interview draft
	ArchivePath string // SQLite file for completed interview reports
	LogDir      string
	Debug       bool

	HTTPTimeout time.Duration
	ProfileTTL  time.Duration

	QuestionReveal time.Duration
	FeedbackReveal time.Duration
	EmotionEvery   time.Duration

	NoTelemetry bool // Skip trace/metric exporters
}

// Default returns a Config populated from the environment, after loading an
// optional .env file from the working directory.
func Default() Config {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	return Config{
		APIBaseURL:     getEnv("INTERVIEW_API_URL", DefaultAPIBaseURL),
		Token:          getEnv("INTERVIEW_API_TOKEN", ""),
		TokenFile:      getEnv("INTERVIEW_TOKEN_FILE", defaultTokenFile()),
		DraftFile:      getEnv("INTERVIEW_DRAFT_FILE", ""),
		ArchivePath:    getEnv("INTERVIEW_ARCHIVE", "interviews.db"),
		LogDir:         getEnv("INTERVIEW_LOG_DIR", "logs"),
		Debug:          getEnvAsBool("INTERVIEW_DEBUG", false),
		HTTPTimeout:    getEnvAsDuration("INTERVIEW_HTTP_TIMEOUT", 60*time.Second),
		ProfileTTL:     getEnvAsDuration("INTERVIEW_PROFILE_TTL", 5*time.Minute),
		QuestionReveal: QuestionRevealInterval,
		FeedbackReveal: FeedbackRevealInterval,
		EmotionEvery:   getEnvAsDuration("INTERVIEW_EMOTION_INTERVAL", 3*time.Second),
		NoTelemetry:    getEnvAsBool("INTERVIEW_NO_TELEMETRY", false),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".interviewcoach_token.json"
	}
	return filepath.Join(dir, "interviewcoach", "token.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}
