package imaging

import (
	"errors"
	"image"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// ErrEmptyImage is returned when a page bitmap has no pixels.
var ErrEmptyImage = errors.New("image has zero width or height")

// medianRadius gives bild a 3x3 neighbourhood.
const medianRadius = 1

// sharpenKernel is the 3x3 kernel [[0,-1,0],[-1,5,-1],[0,-1,0]] in row-major order.
var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// ITU-R 601-2 luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// otsuEpsilon matches single-precision epsilon; class weights closer than this
// to 0 or 1 are skipped.
const otsuEpsilon = 1.1920929e-07

// Preprocess converts a page bitmap into a binarized, denoised and sharpened
// grayscale image suitable for OCR.
//
// Parameters:
//   - img: Source page (color or grayscale, any bounds).
//
// Returns:
//   - *image.Gray: Cleaned page with bounds (0,0)-(width,height).
//   - error: ErrEmptyImage if img is nil or has no pixels.
//
// # Pipeline
//
// The stages run in this exact order:
//
//  1. Grayscale conversion with ITU-R 601-2 luma weights (bild)
//  2. Histogram equalization (Equalize)
//  3. Otsu binarization (OtsuThreshold + Binarize)
//  4. Median filter, 3x3 aperture (bild effect.Median)
//  5. Sharpening convolution (imaging.Convolve3x3), clamped to 0..255
//
// The median filter replicates edge pixels at the border. The sharpening
// stage mirrors the image around the edge pixel (gfedcb|abcdefgh|gfedcba).
func Preprocess(img image.Image) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	gray := luma(img)

	Equalize(gray)
	Binarize(gray, OtsuThreshold(gray))

	denoised := toGray(effect.Median(gray, medianRadius))

	return sharpen(denoised), nil
}

// luma converts img to 8-bit grayscale as Y = 0.299R + 0.587G + 0.114B.
func luma(img image.Image) *image.Gray {
	return toGray(effect.GrayscaleWithWeights(img, lumaR, lumaG, lumaB))
}

// sharpen applies sharpenKernel with a one-pixel mirrored border.
func sharpen(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	padded := padReflect101(g)
	conv := imaging.Convolve3x3(padded, sharpenKernel, &imaging.ConvolveOptions{})
	return toGray(imaging.Crop(conv, image.Rect(1, 1, w+1, h+1)))
}

// padReflect101 returns g surrounded by a one-pixel border that mirrors the
// image without repeating the edge pixel.
func padReflect101(g *image.Gray) *image.Gray {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w+2, h+2))
	for y := 0; y < h+2; y++ {
		sy := reflect101(y-1, h)
		row := g.Pix[sy*g.Stride : sy*g.Stride+w]
		for x := 0; x < w+2; x++ {
			dst.Pix[y*dst.Stride+x] = row[reflect101(x-1, w)]
		}
	}
	return dst
}

// reflect101 maps an index one step outside [0, n) back inside it.
func reflect101(i, n int) int {
	switch {
	case n == 1:
		return 0
	case i < 0:
		return -i
	case i >= n:
		return 2*n - 2 - i
	}
	return i
}

// Equalize performs global histogram equalization in place.
//
// The lookup table maps the lowest occupied intensity to 0 and spreads the
// cumulative distribution of the remaining intensities over 0..255:
//
//	lut[v] = round(255 * (cdf(v) - hist[first]) / (total - hist[first]))
//
// An image with a single intensity is left unchanged.
func Equalize(g *image.Gray) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	total := w * h
	if total == 0 {
		return
	}

	hist := grayHistogram(g)

	first := 0
	for first < len(hist) && hist[first] == 0 {
		first++
	}
	if first == len(hist) || hist[first] == total {
		return
	}

	var lut [256]uint8
	scale := 255.0 / float64(total-hist[first])
	sum := 0
	for i := first + 1; i < len(hist); i++ {
		sum += hist[i]
		lut[i] = clampUint8(math.Round(float64(sum) * scale))
	}

	applyLUT(g, &lut)
}

// OtsuThreshold returns the intensity that maximises between-class variance.
//
// Pixels strictly greater than the returned value belong to the foreground
// class. For an image with a single intensity the result is 0.
func OtsuThreshold(g *image.Gray) uint8 {
	hist := grayHistogram(g)

	total := g.Rect.Dx() * g.Rect.Dy()
	if total == 0 {
		return 0
	}
	scale := 1.0 / float64(total)

	var mu float64
	for i, n := range hist {
		mu += float64(i) * float64(n)
	}
	mu *= scale

	var mu1, q1, maxSigma float64
	best := 0
	for i, n := range hist {
		p := float64(n) * scale
		mu1 *= q1
		q1 += p
		q2 := 1.0 - q1

		if math.Min(q1, q2) < otsuEpsilon || math.Max(q1, q2) > 1.0-otsuEpsilon {
			continue
		}

		mu1 = (mu1 + float64(i)*p) / q1
		mu2 := (mu - q1*mu1) / q2
		sigma := q1 * q2 * (mu1 - mu2) * (mu1 - mu2)
		if sigma > maxSigma {
			maxSigma = sigma
			best = i
		}
	}

	return uint8(best)
}

// Binarize sets every pixel above threshold to 255 and every other pixel to 0.
func Binarize(g *image.Gray, threshold uint8) {
	var lut [256]uint8
	for i := int(threshold) + 1; i < len(lut); i++ {
		lut[i] = 255
	}
	applyLUT(g, &lut)
}

func grayHistogram(g *image.Gray) [256]int {
	var hist [256]int
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			hist[v]++
		}
	}
	return hist
}

func applyLUT(g *image.Gray, lut *[256]uint8) {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			row[x] = lut[v]
		}
	}
}

// toGray copies the first channel of a single-channel or replicated-channel
// image into a new zero-origin *image.Gray.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		start := src.PixOffset(bounds.Min.X, bounds.Min.Y)
		for y := 0; y < h; y++ {
			off := start + y*src.Stride
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[off:off+w])
		}
	case *image.RGBA:
		copyFirstChannel(dst, src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y), w, h)
	case *image.NRGBA:
		copyFirstChannel(dst, src.Pix, src.Stride, src.PixOffset(bounds.Min.X, bounds.Min.Y), w, h)
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				dst.Pix[y*dst.Stride+x] = uint8(r >> 8)
			}
		}
	}

	return dst
}

func copyFirstChannel(dst *image.Gray, pix []uint8, stride, start, w, h int) {
	for y := 0; y < h; y++ {
		off := start + y*stride
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := range row {
			row[x] = pix[off+x*4]
		}
	}
}

func clampUint8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
