package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/mertcaliskan34/ExamGenerator/internal/model"
)

// PDF extracts plain text from PDF documents.
type PDF struct{}

// NewPDF returns a PDF text extractor.
func NewPDF() *PDF {
	return &PDF{}
}

// ExtractText returns the concatenated text of all pages. A document that
// yields no text (scanned images, corrupted files) fails with
// model.ErrExtractionFailed.
func (p *PDF) ExtractText(data []byte) (text string, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", model.ErrExtractionFailed, r)
		}
	}()

	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", fmt.Errorf("%w: not a PDF document", model.ErrExtractionFailed)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrExtractionFailed, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrExtractionFailed, err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrExtractionFailed, err)
	}

	text = strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("%w: document contains no text", model.ErrExtractionFailed)
	}
	return text, nil
}
