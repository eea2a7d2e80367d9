// Package parser loads manual sources in the supported formats and reduces
// them to the line-oriented text the chunker splits into sections.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options tunes loader behaviour.
type Options struct {
	// PDFFallbackPdftotext shells out to pdftotext when the PDF library
	// cannot read a file.
	PDFFallbackPdftotext bool
}

type extractFunc func(data []byte, name string, opts Options) (*Document, error)

var extractors = map[string]extractFunc{
	".txt":      extractText,
	".md":       extractMarkdown,
	".markdown": extractMarkdown,
	".html":     extractHTML,
	".htm":      extractHTML,
	".pdf":      extractPDF,
	".docx":     extractDOCX,
}

// IsSupportedExtension reports whether filename has a loadable extension.
func IsSupportedExtension(filename string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Load reads r fully and extracts its blocks using the format implied by
// filename's extension.
func Load(r io.Reader, filename string, opts Options) (*Document, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	extract, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	base := filepath.Base(filename)
	doc, err := extract(data, strings.TrimSuffix(base, filepath.Ext(base)), opts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", base, err)
	}
	return doc, nil
}

// LoadText returns the line-oriented text of a source document.
func LoadText(r io.Reader, filename string, opts Options) (string, error) {
	doc, err := Load(r, filename, opts)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// LoadFile opens path and returns its line-oriented text.
func LoadFile(path string, opts Options) (string, error) {
	if !IsSupportedExtension(path) {
		return "", fmt.Errorf("unsupported file extension: %q", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return LoadText(f, path, opts)
}
