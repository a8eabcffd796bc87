package entity

import (
	"time"

	"github.com/google/uuid"
)

// UploadedFile is the metadata row recorded for each submitted document.
type UploadedFile struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	UploadedAt       time.Time `json:"uploaded_at"`
}
