package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StripJSONEnvelope removes the noise models wrap around JSON output:
// markdown code fences and any prose before the first '{' or after the
// last '}'. Returns the input unchanged if no braces are found.
func StripJSONEnvelope(raw []byte) []byte {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}

// ParseRecord turns raw provider output into a validated record.
// It strips the envelope, validates the shape against the record
// schema, then decodes into the typed tree. Scalar-level sloppiness
// (stringified numbers, stray types) is absorbed by Value; structural
// violations are errors for the caller's retry policy to handle.
func ParseRecord(raw []byte) (*ExtractionRecord, error) {
	data := StripJSONEnvelope(raw)
	if err := ValidateRecordJSON(data); err != nil {
		return nil, err
	}
	var rec ExtractionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
