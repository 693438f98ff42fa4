package config

import (
	"fmt"
	"os"
)

// LambdaConfig holds Lambda-specific configuration
type LambdaConfig struct {
	DatabaseURL string
	LogLevel    string
	// Aurora Serverless specific settings
	AuroraEndpoint   string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string
}

// LoadLambdaConfig loads configuration for the Lambda environment.
// DATABASE_URL wins; otherwise the URL is assembled from the Aurora
// component variables; otherwise the local default is used.
func LoadLambdaConfig() (*LambdaConfig, error) {
	cfg := &LambdaConfig{}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		auroraEndpoint := os.Getenv("AURORA_ENDPOINT")
		databaseName := os.Getenv("DATABASE_NAME")
		databaseUser := os.Getenv("DATABASE_USER")
		databasePassword := os.Getenv("DATABASE_PASSWORD")

		if auroraEndpoint != "" && databaseName != "" && databaseUser != "" && databasePassword != "" {
			databaseURL = fmt.Sprintf("postgresql://%s:%s@%s:5432/%s",
				databaseUser, databasePassword, auroraEndpoint, databaseName)
			cfg.AuroraEndpoint = auroraEndpoint
			cfg.DatabaseName = databaseName
			cfg.DatabaseUser = databaseUser
			cfg.DatabasePassword = databasePassword
		} else {
			databaseURL = defaults().DatabaseURL
		}
	}
	cfg.DatabaseURL = databaseURL

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	cfg.LogLevel = logLevel

	return cfg, nil
}
