// Package convert drives a PDF-to-text run: rasterize, then for every page
// preprocess, recognize and record the text.
//
// # Output Format
//
// Every page contributes one record:
//
//	--- Page {n} ---
//	{text}
//
// Records are joined by a blank line. The combined text goes to the output
// file when one is configured, otherwise to stdout. Both sinks receive
// exactly the same bytes.
//
// # Failure Policy
//
// Failures that prevent producing any output end the run with a RunError:
//   - input PDF missing (exit 2)
//   - rasterization failed (exit 3)
//   - combined output file not writable (exit 4)
//   - a page could not be decoded or preprocessed (exit 1)
//   - the context was cancelled, e.g. by SIGINT (exit 130)
//
// Failures confined to one page or one optional artifact are logged and the
// run continues:
//   - OCR failure: the page's text is empty
//   - per-page text or image file not writable: warning only
package convert
