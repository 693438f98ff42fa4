package logging

import (
	"go.uber.org/zap"
)

// New returns a development logger for level "debug" and a production
// logger otherwise.
func New(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	if parsed, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = parsed
	}
	return cfg.Build()
}
