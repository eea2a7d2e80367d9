package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// extractPDF turns each page into one body block. The Go reader goes first;
// when it fails and the fallback is enabled, pdftotext gets a try. Running
// page-number lines are dropped.
func extractPDF(data []byte, name string, opts Options) (*Document, error) {
	pages, err := readPDFPages(data)
	if err != nil && opts.PDFFallbackPdftotext {
		pages, err = pdftotextPages(data)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc := &Document{Name: name}
	for _, page := range pages {
		doc.body(stripPageNumbers(page))
	}
	return doc, nil
}

func readPDFPages(data []byte) (pages []string, err error) {
	// The reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	rd, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	n := rd.NumPage()
	if n == 0 {
		return nil, errors.New("pdf has no pages")
	}
	pages = make([]string, n)
	for i := range n {
		p := rd.Page(i + 1)
		if p.V.IsNull() {
			continue
		}
		if text, err := p.GetPlainText(nil); err == nil {
			pages[i] = text
		}
	}
	return pages, nil
}

// pdftotextPages runs poppler's pdftotext, which separates pages with form
// feeds.
func pdftotextPages(data []byte) ([]string, error) {
	tmp, err := os.CreateTemp("", "fennec-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	out, err := exec.Command("pdftotext", "-layout", tmp.Name(), "-").Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return strings.Split(strings.TrimSuffix(string(out), "\f"), "\f"), nil
}

func stripPageNumbers(page string) string {
	lines := strings.Split(page, "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !isPageNumber(l) {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// isPageNumber matches a line holding only a short run of digits.
func isPageNumber(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 4 {
		return false
	}
	return strings.Trim(line, "0123456789") == ""
}
