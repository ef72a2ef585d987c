// Package imaging loads rasterized PDF pages and prepares them for OCR.
//
// The central operation is Preprocess, a fixed five-stage pipeline that turns a
// color or grayscale page bitmap into a clean single-channel image:
//
//  1. Grayscale conversion (8-bit luminance)
//  2. Global histogram equalization
//  3. Otsu global thresholding (strictly 0 / 255 output)
//  4. Median filter with a 3x3 aperture
//  5. 3x3 sharpening convolution [[0,-1,0],[-1,5,-1],[0,-1,0]]
//
// The order is fixed. Each stage consumes the output of the previous one and
// OCR accuracy depends on the sequence.
//
// # Coordinate System
//
// Input images may have any bounds. Output images always start at (0,0) and
// have the same width and height as the input.
//
// # Determinism
//
// All stages are pure functions of their input. Preprocessing the same bitmap
// twice yields byte-identical pixel buffers.
//
// # Error Handling
//
// Functions return errors for:
//   - Zero-size or nil images
//   - File I/O errors while loading or saving pages
//   - Decoding errors for unsupported or corrupt page files
package imaging
