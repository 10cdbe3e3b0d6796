// Package logging builds the zap logger used by the command line tool.
package logging

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field names shared across log lines
const (
	FieldCorrelationID = "correlation_id"
	FieldHashHex       = "hash_hex"
	FieldStatus        = "status"
)

// New returns a JSON production logger at the given level. "debug" switches
// to the human-readable console encoder.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// WithCorrelationID tags every line of logger with a fresh run ID and
// returns the ID.
func WithCorrelationID(logger *zap.Logger) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String(FieldCorrelationID, id)), id
}
