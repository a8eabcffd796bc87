package extract

import (
	"context"
	"time"
)

// TextExtractor is phase 2: document bytes -> text. It may legitimately
// return empty text (a scanned-image PDF with no text layer); deciding
// that empty means failure is the orchestrator's call, not this one's.
// Implementations never retry internally.
type TextExtractor interface {
	Extract(ctx context.Context, document []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text"
	Duration time.Duration
	Warnings []string
}
