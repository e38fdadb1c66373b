// Package document turns uploaded CV files into plain text.
package document

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Supported MIME types.
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

var (
	ErrUnsupported     = errors.New("unsupported document type")
	ErrInvalidDocument = errors.New("document is damaged or not of the declared type")
	ErrPDFToolNotFound = errors.New("pdftotext not found in PATH (install poppler-utils)")
)

// Extractor reads text out of PDF, DOCX and plain text documents.
type Extractor struct {
	runner   CommandRunner
	lookPath func(string) (string, error)
}

// New creates an Extractor that runs pdftotext from PATH.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates an Extractor with a custom command runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner, lookPath: lookPath}
}

// Supports reports whether the MIME type can be extracted. Parameters such as
// charset are ignored.
func (e *Extractor) Supports(mimeType string) bool {
	switch baseType(mimeType) {
	case MIMEPDF, MIMEDOCX, MIMEText:
		return true
	default:
		return false
	}
}

// Extract returns the text of the document. A document without text yields an
// empty string and no error.
func (e *Extractor) Extract(ctx context.Context, mimeType string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch baseType(mimeType) {
	case MIMEText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: text is not valid UTF-8", ErrInvalidDocument)
		}
		text = string(data)
	case MIMEDOCX:
		text, err = extractDOCX(data)
	case MIMEPDF:
		text, err = e.extractPDF(ctx, data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, mimeType)
	}
	if err != nil {
		return "", err
	}

	return cleanText(text), nil
}

// DetectMIME guesses the MIME type from the file extension. It returns an
// empty string for unknown extensions.
func DetectMIME(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MIMEPDF
	case ".docx":
		return MIMEDOCX
	case ".txt", ".md":
		return MIMEText
	default:
		return ""
	}
}

func baseType(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}

// cleanText trims every line and keeps at most one blank line between blocks.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")

	var (
		b     strings.Builder
		blank bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
			if blank {
				b.WriteString("\n")
			}
		}
		b.WriteString(line)
		blank = false
	}
	return b.String()
}
