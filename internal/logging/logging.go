package logging

import (
	"fmt"

	"github.com/nconklindev/leadmap/internal/config"
	"github.com/nconklindev/leadmap/internal/mapper"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON logger that writes to cfg.File. The TUI owns the
// terminal, so nothing goes to stdout or stderr.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{cfg.File}
	zc.ErrorOutputPaths = []string{cfg.File}
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// ForImport tags every entry with a fresh import_id and the source file.
func ForImport(logger *zap.Logger, file string) (*zap.Logger, string) {
	id := uuid.NewString()
	return logger.With(zap.String("import_id", id), zap.String("file", file)), id
}

// Mapping renders a column mapping as a structured field.
func Mapping(headers []string, m mapper.Mapping) zap.Field {
	return zap.Array("mapping", entries(m.Describe(headers)))
}

type entries []mapper.Entry

func (es entries) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, e := range es {
		if err := enc.AppendObject(entry(e)); err != nil {
			return err
		}
	}
	return nil
}

type entry mapper.Entry

func (e entry) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("field", e.Field)
	enc.AddInt("column", e.Column)
	if e.Header != "" {
		enc.AddString("header", e.Header)
	}
	enc.AddString("source", e.Source)
	return nil
}
