package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Display welcome message
	fmt.Println("Passroast Server Environment Check")
	fmt.Println("==================================")
	fmt.Println()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	loadDotEnv(logger)
	printEnvironment()

	// Check if --validate flag is provided
	for _, arg := range os.Args {
		if arg == "--validate" {
			fmt.Println()
			fmt.Println("Validating critical configurations...")
			validate(logger)

			fmt.Println()
			fmt.Println("Environment check complete. Use the configuration values above to verify your settings.")
			break
		}
	}
}

// loadDotEnv loads a .env file from the working directory or its parent
func loadDotEnv(logger *logrus.Logger) {
	for _, path := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warnf("Found %s but failed to load: %v", path, err)
			continue
		}
		logger.Infof("Loaded environment from %s", path)
		return
	}
	logger.Warn("No .env file found, continuing with process environment and defaults")
}

func printEnvironment() {
	fmt.Println("Environment Variables:")
	fmt.Println("======================")

	envVars := []struct {
		key   string
		value string
	}{
		{"HTTP_HOST", getEnvWithDefault("HTTP_HOST", "0.0.0.0")},
		{"HTTP_PORT", getEnvWithDefault("HTTP_PORT", "8080")},
		{"HTTP_ENABLE_METRICS", getEnvWithDefault("HTTP_ENABLE_METRICS", "true")},
		{"CORS_ORIGINS", getEnvWithDefault("CORS_ORIGINS", "*")},
		{"MAX_PASSWORD_LENGTH", getEnvWithDefault("MAX_PASSWORD_LENGTH", "256")},
		{"FUZZY_MIN_RATIO", getEnvWithDefault("FUZZY_MIN_RATIO", "0.7")},
		{"WORDLIST_DIR", getEnvWithDefault("WORDLIST_DIR", "(embedded)")},
		{"HIBP_ENABLED", getEnvWithDefault("HIBP_ENABLED", "true")},
		{"HIBP_API_URL", getEnvWithDefault("HIBP_API_URL", "https://api.pwnedpasswords.com/range/")},
		{"ROAST_ENABLED", getEnvWithDefault("ROAST_ENABLED", "true")},
		{"ROAST_PROVIDER", getEnvWithDefault("ROAST_PROVIDER", "openai")},
		{"ROAST_MODEL", getEnvWithDefault("ROAST_MODEL", "gpt-4o-mini")},
		{"OPENAI_API_KEY", maskSecret(os.Getenv("OPENAI_API_KEY"))},
		{"AMQP_URL", maskSecret(os.Getenv("AMQP_URL"))},
		{"AMQP_QUEUE_NAME", getEnvWithDefault("AMQP_QUEUE_NAME", "analysis_events")},
		{"AUDIT_LOG_PATH", getEnvWithDefault("AUDIT_LOG_PATH", "(disabled)")},
		{"LOG_LEVEL", getEnvWithDefault("LOG_LEVEL", "info")},
		{"LOG_FORMAT", getEnvWithDefault("LOG_FORMAT", "json")},
	}

	for _, v := range envVars {
		fmt.Printf("%s: %s\n", v.key, v.value)
	}
}

func validate(logger *logrus.Logger) {
	// Roast generation needs an API key unless disabled
	if getEnvWithDefault("ROAST_ENABLED", "true") == "true" {
		if os.Getenv("OPENAI_API_KEY") == "" {
			fmt.Println("⚠️  Warning: ROAST_ENABLED is true but OPENAI_API_KEY is not set, canned roasts will be served")
		} else {
			fmt.Println("✅ Roast provider credentials are configured")
		}
	} else {
		fmt.Println("⚠️  Warning: Roast generation is disabled")
	}

	// Wordlist override directory must exist when configured
	if wordlistDir := os.Getenv("WORDLIST_DIR"); wordlistDir != "" {
		if info, err := os.Stat(wordlistDir); err != nil {
			fmt.Printf("❌ Error: Wordlist directory %s does not exist\n", wordlistDir)
		} else if !info.IsDir() {
			fmt.Printf("❌ Error: Wordlist path %s is not a directory\n", wordlistDir)
		} else {
			fmt.Printf("✅ Wordlist directory %s is accessible\n", wordlistDir)
		}
	} else {
		fmt.Println("✅ Using embedded wordlists")
	}

	// The audit directory is created if missing so the server can start
	if auditPath := os.Getenv("AUDIT_LOG_PATH"); auditPath != "" {
		auditDir := filepath.Dir(auditPath)
		if _, err := os.Stat(auditDir); os.IsNotExist(err) {
			logger.Warnf("Audit log directory %s does not exist, attempting to create it", auditDir)
			if err := os.MkdirAll(auditDir, 0755); err != nil {
				fmt.Printf("❌ Error: Failed to create audit log directory: %v\n", err)
			} else {
				fmt.Printf("✅ Created audit log directory: %s\n", auditDir)
			}
		} else {
			fmt.Printf("✅ Audit log directory %s is accessible\n", auditDir)
		}
	} else {
		fmt.Println("⚠️  Warning: Audit logging is disabled")
	}

	// Event publishing
	if os.Getenv("AMQP_URL") == "" {
		fmt.Println("⚠️  Warning: AMQP_URL is not set, analysis events will not be published")
	} else {
		fmt.Println("✅ AMQP publishing is configured")
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func maskSecret(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "(set)"
}
