package raster

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Probe returns the page count declared by the PDF's page tree.
//
// It parses the file in pure Go without rendering anything. Callers use it
// for diagnostics; poppler may still render files that Probe rejects.
func Probe(path string) (n int, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return r.NumPage(), nil
}
