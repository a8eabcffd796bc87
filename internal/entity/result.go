package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExtractionResult summarizes one successful run: the output artifact
// plus the counters surfaced to callers.
type ExtractionResult struct {
	ID                  uuid.UUID       `json:"id"`
	FileID              uuid.UUID       `json:"file_id"`
	OutputFilename      string          `json:"output_filename"`
	OutputPath          string          `json:"output_path"`
	ExtractedData       json.RawMessage `json:"extracted_data,omitempty"`
	ProcessingSeconds   float64         `json:"processing_seconds"`
	CharactersExtracted int             `json:"characters_extracted"`
	SheetsGenerated     int             `json:"sheets_generated"`
	ModelUsed           string          `json:"model_used"`
	ExtractedAt         time.Time       `json:"extracted_at"`
}
