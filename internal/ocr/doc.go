// Package ocr runs Tesseract over preprocessed page images.
//
// Two engines implement the Engine interface:
//
//   - CommandEngine: executes the tesseract binary once per page. The binary
//     location is part of the engine value, never process-wide state.
//   - ClientEngine: calls libtesseract in-process through gosseract/v2.
//
// Both take the same Options: a language string ("eng", "eng+osd"), an OCR
// engine mode (OEM, 0-3) and a page segmentation mode (PSM, 0-13).
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr
//   - macOS: brew install tesseract
//   - Windows: Download from https://github.com/UB-Mannheim/tesseract/wiki
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Temporary Files
//
// CommandEngine writes each page to a temporary PNG that is removed as soon
// as recognition finishes.
//
// # Error Handling
//
// Engines return errors for unsupported languages, process failures and
// cancelled contexts. Deciding what a failed page means is left to the caller.
package ocr
