package entity

import (
	"time"

	"github.com/google/uuid"
)

// LogLevel classifies an extraction log row.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// ExtractionLog is one append-only diagnostic row, keyed by file and
// tagged with the pipeline phase that produced it.
type ExtractionLog struct {
	ID         uuid.UUID `json:"id"`
	FileID     uuid.UUID `json:"file_id"`
	Level      LogLevel  `json:"level"`
	Message    string    `json:"message"`
	Step       string    `json:"step"`
	DurationMS int64     `json:"duration_ms,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
