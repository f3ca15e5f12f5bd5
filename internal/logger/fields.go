package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Structured log field keys shared across the pipeline.
const (
	FieldJobID       = "job_id"
	FieldCandidateID = "candidate_id"
	FieldCandidate   = "candidate_name"
	FieldAdapter     = "adapter"
	FieldProvider    = "ai_provider"
	FieldModel       = "ai_model"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		value := strings.TrimSpace(field.Value)
		if key == "" || value == "" {
			continue
		}
		result = append(result, zap.String(key, value))
	}
	return result
}

// WithFields attaches fields to the logger, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}

// ForJob returns a logger scoped to a ranking job.
func ForJob(logger *zap.Logger, jobID string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldJobID, Value: jobID})...)
}

// ForCandidate returns a logger scoped to one candidate of a job.
func ForCandidate(logger *zap.Logger, candidateID, name string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldCandidateID, Value: candidateID},
		StringField{Key: FieldCandidate, Value: name},
	)...)
}

// ForAdapter returns a logger describing an external adapter: its kind, provider and model.
func ForAdapter(logger *zap.Logger, adapter, provider, model string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldAdapter, Value: adapter},
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)...)
}
