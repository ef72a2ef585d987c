package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder (pdftoppm -tiff)
)

// LoadPage decodes a rasterized page image from disk.
//
// Parameters:
//   - path: Path to the page file. Supported formats are PNG, JPEG, GIF and TIFF.
//
// Returns:
//   - image.Image: The decoded page. The concrete type depends on the file
//     (e.g., *image.RGBA, *image.Gray, *image.Paletted).
//   - error: Non-nil if the file cannot be opened or decoded.
func LoadPage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load page image: %w", err)
	}
	return img, nil
}

// SavePNG writes an image to path as PNG, creating or truncating the file.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode image: %w", err)
	}

	return f.Close()
}

// PageInfo contains metadata about a decoded page bitmap.
type PageInfo struct {
	// Width is the page width in pixels.
	Width int `json:"width"`

	// Height is the page height in pixels.
	Height int `json:"height"`

	// ColorModel is "gray", "gray16", "rgba", "rgba64", "ycbcr", "paletted" or "other".
	ColorModel string `json:"color_model"`
}

// Describe returns dimensions and color model of a page bitmap.
//
// It is used for diagnostics only; a nil image yields a zero PageInfo.
func Describe(img image.Image) PageInfo {
	if img == nil {
		return PageInfo{}
	}

	bounds := img.Bounds()
	model := "other"
	switch img.ColorModel() {
	case color.GrayModel:
		model = "gray"
	case color.Gray16Model:
		model = "gray16"
	case color.RGBAModel, color.NRGBAModel:
		model = "rgba"
	case color.RGBA64Model, color.NRGBA64Model:
		model = "rgba64"
	case color.YCbCrModel:
		model = "ycbcr"
	}
	if _, ok := img.(*image.Paletted); ok {
		model = "paletted"
	}

	return PageInfo{
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		ColorModel: model,
	}
}
