package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"passroast-server/pkg/errors"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	HTTP      HTTPConfig      `json:"http"`
	Analysis  AnalysisConfig  `json:"analysis"`
	HIBP      HIBPConfig      `json:"hibp"`
	Roast     RoastConfig     `json:"roast"`
	Messaging MessagingConfig `json:"messaging"`
	Audit     AuditConfig     `json:"audit"`
	Logging   LoggingConfig   `json:"logging"`
}

// HTTPConfig holds the HTTP server configuration
type HTTPConfig struct {
	Enabled       bool          `json:"enabled" env:"HTTP_ENABLED" default:"true"`
	Host          string        `json:"host" env:"HTTP_HOST" default:"0.0.0.0"`
	Port          int           `json:"port" env:"HTTP_PORT" default:"8080"`
	ReadTimeout   time.Duration `json:"read_timeout" env:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout  time.Duration `json:"write_timeout" env:"HTTP_WRITE_TIMEOUT" default:"30s"`
	EnableMetrics bool          `json:"enable_metrics" env:"HTTP_ENABLE_METRICS" default:"true"`
	EnableAPI     bool          `json:"enable_api" env:"HTTP_ENABLE_API" default:"true"`

	// Comma-separated list of allowed CORS origins, "*" for any
	CORSOrigins []string `json:"cors_origins" env:"CORS_ORIGINS" default:"*"`
}

// AnalysisConfig holds the password analysis engine configuration
type AnalysisConfig struct {
	// Maximum accepted password length in code points
	MaxPasswordLength int `json:"max_password_length" env:"MAX_PASSWORD_LENGTH" default:"256"`
	MinPasswordLength int `json:"min_password_length" env:"MIN_PASSWORD_LENGTH" default:"1"`

	// Fuzzy dictionary match calibration
	FuzzyMinRatio        float64 `json:"fuzzy_min_ratio" env:"FUZZY_MIN_RATIO" default:"0.7"`
	FuzzyLengthTolerance int     `json:"fuzzy_length_tolerance" env:"FUZZY_LENGTH_TOLERANCE" default:"3"`

	// Optional directory of <language>.txt wordlists overriding the embedded ones
	WordlistDir string `json:"wordlist_dir" env:"WORDLIST_DIR" default:""`
}

// HIBPConfig holds the breach oracle configuration
type HIBPConfig struct {
	Enabled bool          `json:"enabled" env:"HIBP_ENABLED" default:"true"`
	BaseURL string        `json:"base_url" env:"HIBP_API_URL" default:"https://api.pwnedpasswords.com/range/"`
	Timeout time.Duration `json:"timeout" env:"HIBP_TIMEOUT" default:"5s"`
}

// RoastConfig holds the roast generation configuration
type RoastConfig struct {
	Enabled  bool          `json:"enabled" env:"ROAST_ENABLED" default:"true"`
	Provider string        `json:"provider" env:"ROAST_PROVIDER" default:"openai"`
	APIKey   string        `json:"-" env:"OPENAI_API_KEY" default:""`
	APIBase  string        `json:"api_base" env:"OPENAI_API_BASE" default:"https://api.openai.com/v1"`
	Model    string        `json:"model" env:"ROAST_MODEL" default:"gpt-4o-mini"`
	Timeout  time.Duration `json:"timeout" env:"ROAST_TIMEOUT" default:"10s"`
}

// MessagingConfig holds the AMQP event publishing configuration
type MessagingConfig struct {
	AMQPUrl       string `json:"-" env:"AMQP_URL" default:""`
	AMQPQueueName string `json:"amqp_queue_name" env:"AMQP_QUEUE_NAME" default:"analysis_events"`
}

// Enabled reports whether AMQP publishing is configured
func (c *MessagingConfig) Enabled() bool {
	return c.AMQPUrl != "" && c.AMQPQueueName != ""
}

// AuditConfig holds the password-free analysis audit log configuration
type AuditConfig struct {
	// Path of the JSONL audit file, empty disables auditing
	LogPath string `json:"log_path" env:"AUDIT_LOG_PATH" default:""`
}

// Enabled reports whether audit logging is configured
func (c *AuditConfig) Enabled() bool {
	return c.LogPath != ""
}

// LoggingConfig holds the logging configuration
type LoggingConfig struct {
	Level      string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format     string `json:"format" env:"LOG_FORMAT" default:"json"`
	OutputFile string `json:"output_file" env:"LOG_OUTPUT_FILE" default:""`
}

// Load reads configuration from .env files and the environment
func Load(logger *logrus.Logger) (*Config, error) {
	// Get current working directory
	wd, err := os.Getwd()
	if err != nil {
		logger.WithError(err).Warn("Failed to get current working directory")
		wd = "unknown"
	}

	// Define possible locations for .env file
	possibleEnvFiles := []string{
		".env",                    // Current directory
		"../.env",                 // Parent directory
		filepath.Join(wd, ".env"), // Absolute path
	}

	// Try loading .env file from each possible location
	var loadedFrom string
	var loadErr error

	for _, envFile := range possibleEnvFiles {
		if _, statErr := os.Stat(envFile); statErr == nil {
			absPath, _ := filepath.Abs(envFile)
			logger.WithField("path", absPath).Debug("Attempting to load .env file")

			if loadErr = godotenv.Load(envFile); loadErr == nil {
				loadedFrom = absPath
				break
			}
		}
	}

	// If all attempts failed, try default Load() which uses working directory
	if loadedFrom == "" {
		if loadErr = godotenv.Load(); loadErr == nil {
			if _, statErr := os.Stat(".env"); statErr == nil {
				loadedFrom, _ = filepath.Abs(".env")
			}
		}
	}

	// Report results
	if loadedFrom != "" {
		logger.WithFields(logrus.Fields{
			"working_dir": wd,
			"path":        loadedFrom,
		}).Info("Successfully loaded .env file")
	} else {
		logger.WithField("working_dir", wd).Warn("No .env file found, using environment variables only")
	}

	config := &Config{}

	if err := loadHTTPConfig(logger, &config.HTTP); err != nil {
		return nil, errors.Wrap(err, "failed to load HTTP configuration")
	}

	if err := loadAnalysisConfig(logger, &config.Analysis); err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}

	if err := loadHIBPConfig(logger, &config.HIBP); err != nil {
		return nil, errors.Wrap(err, "failed to load HIBP configuration")
	}

	if err := loadRoastConfig(logger, &config.Roast); err != nil {
		return nil, errors.Wrap(err, "failed to load roast configuration")
	}

	if err := loadMessagingConfig(logger, &config.Messaging); err != nil {
		return nil, errors.Wrap(err, "failed to load messaging configuration")
	}

	if err := loadAuditConfig(logger, &config.Audit); err != nil {
		return nil, errors.Wrap(err, "failed to load audit configuration")
	}

	if err := loadLoggingConfig(logger, &config.Logging); err != nil {
		return nil, errors.Wrap(err, "failed to load logging configuration")
	}

	return config, nil
}

func loadHTTPConfig(logger *logrus.Logger, config *HTTPConfig) error {
	config.Enabled = getEnvBool("HTTP_ENABLED", true)
	config.Host = getEnv("HTTP_HOST", "0.0.0.0")

	httpPortStr := getEnv("HTTP_PORT", "8080")
	httpPort, err := strconv.Atoi(httpPortStr)
	if err != nil || httpPort < 1 || httpPort > 65535 {
		logger.Warn("Invalid HTTP_PORT value, using default: 8080")
		config.Port = 8080
	} else {
		config.Port = httpPort
	}

	readTimeoutStr := getEnv("HTTP_READ_TIMEOUT", "10s")
	readTimeout, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		logger.Warn("Invalid HTTP_READ_TIMEOUT value, using default: 10s")
		config.ReadTimeout = 10 * time.Second
	} else {
		config.ReadTimeout = readTimeout
	}

	writeTimeoutStr := getEnv("HTTP_WRITE_TIMEOUT", "30s")
	writeTimeout, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		logger.Warn("Invalid HTTP_WRITE_TIMEOUT value, using default: 30s")
		config.WriteTimeout = 30 * time.Second
	} else {
		config.WriteTimeout = writeTimeout
	}

	config.EnableMetrics = getEnvBool("HTTP_ENABLE_METRICS", true)
	config.EnableAPI = getEnvBool("HTTP_ENABLE_API", true)

	originsStr := getEnv("CORS_ORIGINS", "*")
	config.CORSOrigins = nil
	for _, origin := range strings.Split(originsStr, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			config.CORSOrigins = append(config.CORSOrigins, origin)
		}
	}
	if len(config.CORSOrigins) == 0 {
		config.CORSOrigins = []string{"*"}
	}

	return nil
}

func loadAnalysisConfig(logger *logrus.Logger, config *AnalysisConfig) error {
	config.MaxPasswordLength = getEnvInt("MAX_PASSWORD_LENGTH", 256)
	if config.MaxPasswordLength < 1 {
		logger.Warn("Invalid MAX_PASSWORD_LENGTH value, using default: 256")
		config.MaxPasswordLength = 256
	}

	config.MinPasswordLength = getEnvInt("MIN_PASSWORD_LENGTH", 1)
	if config.MinPasswordLength < 1 || config.MinPasswordLength > config.MaxPasswordLength {
		logger.Warn("Invalid MIN_PASSWORD_LENGTH value, using default: 1")
		config.MinPasswordLength = 1
	}

	config.FuzzyMinRatio = getEnvFloat("FUZZY_MIN_RATIO", 0.7)
	if config.FuzzyMinRatio <= 0 || config.FuzzyMinRatio > 1 {
		logger.Warn("Invalid FUZZY_MIN_RATIO value, must be in (0,1], using default: 0.7")
		config.FuzzyMinRatio = 0.7
	}

	config.FuzzyLengthTolerance = getEnvInt("FUZZY_LENGTH_TOLERANCE", 3)
	if config.FuzzyLengthTolerance < 0 {
		logger.Warn("Invalid FUZZY_LENGTH_TOLERANCE value, using default: 3")
		config.FuzzyLengthTolerance = 3
	}

	config.WordlistDir = getEnv("WORDLIST_DIR", "")
	if config.WordlistDir != "" {
		if info, err := os.Stat(config.WordlistDir); err != nil || !info.IsDir() {
			logger.WithField("dir", config.WordlistDir).Warn("WORDLIST_DIR is not a readable directory, embedded wordlists will be used")
		}
	}

	return nil
}

func loadHIBPConfig(logger *logrus.Logger, config *HIBPConfig) error {
	config.Enabled = getEnvBool("HIBP_ENABLED", true)
	config.BaseURL = getEnv("HIBP_API_URL", "https://api.pwnedpasswords.com/range/")

	if !strings.HasPrefix(config.BaseURL, "http://") && !strings.HasPrefix(config.BaseURL, "https://") {
		logger.Warn("Invalid HIBP_API_URL value, using default")
		config.BaseURL = "https://api.pwnedpasswords.com/range/"
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}

	config.Timeout = getEnvDuration("HIBP_TIMEOUT", 5*time.Second)
	if config.Timeout <= 0 {
		logger.Warn("Invalid HIBP_TIMEOUT value, using default: 5s")
		config.Timeout = 5 * time.Second
	}

	return nil
}

func loadRoastConfig(logger *logrus.Logger, config *RoastConfig) error {
	config.Enabled = getEnvBool("ROAST_ENABLED", true)
	config.Provider = strings.ToLower(getEnv("ROAST_PROVIDER", "openai"))
	config.APIKey = getEnv("OPENAI_API_KEY", "")
	config.APIBase = strings.TrimSuffix(getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"), "/")
	config.Model = getEnv("ROAST_MODEL", "gpt-4o-mini")

	config.Timeout = getEnvDuration("ROAST_TIMEOUT", 10*time.Second)
	if config.Timeout <= 0 {
		logger.Warn("Invalid ROAST_TIMEOUT value, using default: 10s")
		config.Timeout = 10 * time.Second
	}

	if config.Provider == "openai" && config.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, roasts will use the built-in fallback lines")
	}

	return nil
}

func loadMessagingConfig(logger *logrus.Logger, config *MessagingConfig) error {
	config.AMQPUrl = getEnv("AMQP_URL", "")
	config.AMQPQueueName = getEnv("AMQP_QUEUE_NAME", "analysis_events")

	if config.AMQPUrl == "" {
		logger.Info("AMQP_URL not set, analysis event publishing is disabled")
	}

	return nil
}

func loadAuditConfig(logger *logrus.Logger, config *AuditConfig) error {
	config.LogPath = getEnv("AUDIT_LOG_PATH", "")
	return nil
}

func loadLoggingConfig(logger *logrus.Logger, config *LoggingConfig) error {
	config.Level = getEnv("LOG_LEVEL", "info")

	_, err := logrus.ParseLevel(config.Level)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to 'info'", config.Level)
		config.Level = "info"
	}

	config.Format = getEnv("LOG_FORMAT", "json")
	if config.Format != "json" && config.Format != "text" {
		logger.Warn("Invalid LOG_FORMAT, must be 'json' or 'text', defaulting to 'json'")
		config.Format = "json"
	}

	config.OutputFile = getEnv("LOG_OUTPUT_FILE", "")

	return nil
}

// ApplyLogging configures the logger according to the logging configuration
func (c *Config) ApplyLogging(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Logging.Level)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("invalid log level: %s", c.Logging.Level))
	}
	logger.SetLevel(level)

	if c.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if c.Logging.OutputFile != "" {
		f, err := os.OpenFile(c.Logging.OutputFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to open log file: %s", c.Logging.OutputFile))
		}
		logger.SetOutput(f)
	} else {
		logger.SetOutput(os.Stdout)
	}

	return nil
}

// Helper function to get an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Helper function to get a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "yes", "1", "on":
		return true
	case "false", "no", "0", "off":
		return false
	default:
		return defaultValue
	}
}

// Helper function to get an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// Helper function to get a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

// getEnvFloat retrieves an environment variable and converts it to float64
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatValue
}
