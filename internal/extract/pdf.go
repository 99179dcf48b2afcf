// Package extract pulls plain text out of downloaded PDF documents.
package extract

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/gabrielmr/notaflow/internal/common"
)

// PDFExtractor reads the full text of a PDF file. It implements
// capture.TextExtractor.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractText returns the concatenated text of every page. Unreadable,
// corrupt or encrypted files come back as common.ErrExtractFailed; callers
// still own the file and must relocate it rather than lose it.
func (e *PDFExtractor) ExtractText(ctx context.Context, path string) (text string, err error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %v", common.ErrExtractFailed, ctxErr)
	}

	// The pdf library panics on some malformed files instead of returning
	// an error; a broken document must degrade to ErrExtractFailed.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf %s: %v", common.ErrExtractFailed, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %v", common.ErrExtractFailed, path, err)
	}
	defer func() { _ = f.Close() }()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", common.ErrExtractFailed, path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", common.ErrExtractFailed, path, err)
	}

	return buf.String(), nil
}
