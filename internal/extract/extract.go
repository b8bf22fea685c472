// Package extract turns uploaded study material into plain text. The engine
// only ever consumes the resulting string; parsing failures stay here.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnsupportedFormat indicates a file type the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtractionFailed indicates a readable format that failed to parse.
	ErrExtractionFailed = errors.New("document extraction failed")
)

// Extractor converts a document file into plain text.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// FileExtractor reads PDF and plain-text files from disk.
type FileExtractor struct{}

// ExtractText implements Extractor.
func (FileExtractor) ExtractText(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".txt", ".text", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	var text bytes.Buffer
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: no extractable text", ErrExtractionFailed)
	}
	return text.String(), nil
}
