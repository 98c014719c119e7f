package config

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/ngram-classifier/pkg/errors"
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidConfig
}

// Validate checks that the configuration can drive a classification run.
func (c *Config) Validate() error {
	errs := make(map[string]string)

	if strings.TrimSpace(c.Data.VocabPath) == "" {
		errs["data.vocabPath"] = "vocabulary path is required"
	}
	if strings.TrimSpace(c.Data.CategoryVectorsPath) == "" {
		errs["data.categoryVectorsPath"] = "category vectors path is required"
	}
	if strings.TrimSpace(c.Data.GroundTruthPath) == "" {
		errs["data.groundTruthPath"] = "ground truth path is required"
	}
	if c.Classifier.MinNGram < 1 {
		errs["classifier.minNGram"] = "must be at least 1"
	}
	if c.Classifier.MaxNGram < c.Classifier.MinNGram {
		errs["classifier.maxNGram"] = fmt.Sprintf("must be at least minNGram (%d)", c.Classifier.MinNGram)
	}
	if c.Classifier.TopK < 1 {
		errs["classifier.topK"] = "must be at least 1"
	}
	if c.Classifier.MaxTitles < 0 {
		errs["classifier.maxTitles"] = "must not be negative"
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		errs["metrics.port"] = "must be a valid TCP port"
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs["kafka.brokers"] = "at least one broker is required when kafka is enabled"
	}
	if c.Kafka.Enabled && c.Kafka.Topics.Classifications == "" {
		errs["kafka.topics.classifications"] = "topic is required when kafka is enabled"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
