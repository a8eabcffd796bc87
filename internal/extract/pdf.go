package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls the text layer out of a PDF. Extraction is a pure
// fold over the pages into one immutable string; nothing accumulates on
// the extractor between calls, so one instance is safe for concurrent
// jobs.
type PDFExtractor struct {
	Logger *slog.Logger
}

func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{Logger: logger}
}

func (e *PDFExtractor) Extract(ctx context.Context, document []byte) (res TextExtractionResult, err error) {
	start := time.Now()
	res.Method = "pdf-text"

	// The pdf library can panic on malformed cross-reference tables;
	// a corrupt upload must surface as an error, not take the worker.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parse panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return res, fmt.Errorf("open pdf: %w", err)
	}
	res.Pages = reader.NumPage()
	e.Logger.Info("extract.pdf.start", "pages", res.Pages, "bytes", len(document))

	var pages []string
	for i := 1; i <= res.Pages; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, err))
			e.Logger.Warn("extract.pdf.page_failed", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: no extractable text", i))
			continue
		}
		pages = append(pages, text)
	}

	res.Text = cleanText(strings.Join(pages, "\n\n"))
	res.Duration = time.Since(start)
	e.Logger.Info("extract.pdf.ok",
		"pages", res.Pages,
		"characters", len(res.Text),
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// cleanText collapses whitespace runs into single spaces.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
