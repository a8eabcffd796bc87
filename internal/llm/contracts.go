package llm

import (
	"context"

	"github.com/lpreports/fundxtract/internal/schema"
)

// FieldExtractor is the AI structured-extraction collaborator:
// report text in, validated record out. The raw (envelope-stripped)
// JSON is returned alongside so callers can persist what the provider
// actually said. Implementations fail on provider errors and on
// structural schema violations; retrying is the caller's policy.
type FieldExtractor interface {
	ExtractRecord(ctx context.Context, text string) (*schema.ExtractionRecord, []byte, error)
	ModelName() string
}
