package convert

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// PreviewLimit is the number of characters of each page logged after OCR.
const PreviewLimit = 200

// recordSeparator sits between page records in the combined text.
const recordSeparator = "\n\n"

// PageResult is the outcome of one page: recognized text or the OCR error
// that replaced it with empty text.
type PageResult struct {
	// Number is the 1-based page number.
	Number int

	// Text is the recognized text. Always empty when Err is set.
	Text string

	// Err is the recognition failure, if any.
	Err error
}

// Failed reports whether recognition failed for this page.
func (r PageResult) Failed() bool { return r.Err != nil }

// Record renders the page as "--- Page {n} ---\n{text}".
func (r PageResult) Record() string {
	return fmt.Sprintf("--- Page %d ---\n%s", r.Number, r.Text)
}

// Combine joins the page records with a blank line between records.
func Combine(results []PageResult) string {
	records := make([]string, len(results))
	for i, r := range results {
		records[i] = r.Record()
	}
	return strings.Join(records, recordSeparator)
}

// Preview returns the first limit characters of text, with "..." appended
// when text is longer.
func Preview(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}

// PageTextName is the per-page artifact file name for page n.
func PageTextName(n int) string {
	return fmt.Sprintf("page_%d_ocr.txt", n)
}

// PageImageName is the preprocessed image file name for page n.
func PageImageName(n int) string {
	return fmt.Sprintf("page_%d_clean.png", n)
}
