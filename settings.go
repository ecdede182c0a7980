package assemblyai

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds the configuration for a REST Client. All fields can be
// populated from the environment using the ASSEMBLYAI_ prefix
// (e.g. ASSEMBLYAI_API_KEY).
type Settings struct {
	// APIKey authenticates every request.
	APIKey string `envconfig:"API_KEY"`

	// BaseURL of the API.
	BaseURL string `envconfig:"BASE_URL" default:"https://api.assemblyai.com"`

	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	// PollingInterval is how often WaitForTranscript polls a transcript's
	// status.
	PollingInterval time.Duration `envconfig:"POLLING_INTERVAL" default:"3s"`

	// MaxRetries is the attempt budget for transient transport failures
	// while polling. Set to 1 to disable retries.
	MaxRetries int `envconfig:"MAX_RETRIES" default:"3"`

	// LogLevel for the SDK logger: debug, info, warn, error. Empty disables
	// SDK logging.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogPretty switches the SDK logger to human-readable console output.
	LogPretty bool `envconfig:"LOG_PRETTY" default:"false"`
}

// NewSettings returns settings with the given API key and defaults for
// everything else.
func NewSettings(apiKey string) Settings {
	return Settings{
		APIKey:          apiKey,
		BaseURL:         "https://api.assemblyai.com",
		HTTPTimeout:     15 * time.Second,
		PollingInterval: 3 * time.Second,
		MaxRetries:      3,
		LogLevel:        "info",
	}
}

// NewSettingsFromEnv reads settings from the environment, loading a .env
// file first when one exists.
func NewSettingsFromEnv() (Settings, error) {
	_ = godotenv.Load()
	return newSettingsFromEnv()
}

// NewSettingsFromEnvOnly reads settings from the environment without
// touching .env files (useful in containerized deployments).
func NewSettingsFromEnvOnly() (Settings, error) {
	return newSettingsFromEnv()
}

func newSettingsFromEnv() (Settings, error) {
	var s Settings
	if err := envconfig.Process("assemblyai", &s); err != nil {
		return Settings{}, fmt.Errorf("assemblyai: failed to load settings: %w", err)
	}
	if s.APIKey == "" {
		return Settings{}, fmt.Errorf("assemblyai: ASSEMBLYAI_API_KEY is required")
	}
	return s, nil
}
