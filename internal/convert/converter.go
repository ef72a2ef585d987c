package convert

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/ironsheep/pdf-ocr/internal/imaging"
	"github.com/ironsheep/pdf-ocr/internal/logging"
	"github.com/ironsheep/pdf-ocr/internal/ocr"
)

// PageSource supplies rasterized pages, numbered from 1.
type PageSource interface {
	NumPages() int
	Page(n int) (image.Image, error)
}

// Options controls per-page processing.
type Options struct {
	OCR ocr.Options

	// SavePages writes page_{n}_ocr.txt into PagesDir for every page.
	SavePages bool

	// SaveImages writes the preprocessed page_{n}_clean.png into PagesDir.
	SaveImages bool

	PagesDir string

	// PageTimeout bounds one OCR call. Zero means no limit.
	PageTimeout time.Duration
}

// Converter turns pages into text, strictly in page order.
type Converter struct {
	engine ocr.Engine
	opts   Options
	log    *logging.Logger
}

// New creates a Converter. A nil logger discards diagnostics.
func New(engine ocr.Engine, opts Options, log *logging.Logger) *Converter {
	if log == nil {
		log = logging.Discard()
	}
	return &Converter{engine: engine, opts: opts, log: log}
}

// Convert processes every page of src and returns one result per page in
// page order. An OCR failure yields an empty page; a page that cannot be
// decoded or preprocessed stops the run with a RunError. Cancelling ctx stops
// the run with a StageInterrupted RunError; a PageTimeout expiry does not.
func (c *Converter) Convert(ctx context.Context, src PageSource) ([]PageResult, error) {
	if c.opts.SavePages || c.opts.SaveImages {
		if err := os.MkdirAll(c.opts.PagesDir, 0755); err != nil {
			c.log.Warn("failed to create pages directory", "dir", c.opts.PagesDir, "error", err)
		}
	}

	n := src.NumPages()
	results := make([]PageResult, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return results, &RunError{Stage: StageInterrupted, Page: i, Err: err}
		}
		res, err := c.convertPage(ctx, src, i)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (c *Converter) convertPage(ctx context.Context, src PageSource, n int) (PageResult, error) {
	c.log.Info(fmt.Sprintf("Processing page %d...", n))

	img, err := src.Page(n)
	if err != nil {
		return PageResult{}, &RunError{Stage: StagePreprocess, Page: n, Err: err}
	}
	info := imaging.Describe(img)
	c.log.Debug("page loaded", "page", n, "width", info.Width, "height", info.Height, "model", info.ColorModel)

	clean, err := imaging.Preprocess(img)
	if err != nil {
		return PageResult{}, &RunError{Stage: StagePreprocess, Page: n, Err: err}
	}
	if c.opts.SaveImages {
		path := filepath.Join(c.opts.PagesDir, PageImageName(n))
		if err := imaging.SavePNG(path, clean); err != nil {
			c.log.Warn("failed to save preprocessed image", "page", n, "path", path, "error", err)
		}
	}

	res := PageResult{Number: n}
	start := time.Now()
	res.Text, res.Err = c.recognize(ctx, clean)
	if err := ctx.Err(); err != nil {
		return PageResult{}, &RunError{Stage: StageInterrupted, Page: n, Err: err}
	}
	if res.Err != nil {
		c.log.Error("OCR failed, page text left empty", "page", n, "error", res.Err)
		res.Text = ""
	}
	c.log.Debug("page recognized", "page", n, "chars", len(res.Text), "elapsed", time.Since(start).Round(time.Millisecond))

	c.log.Info(fmt.Sprintf("--- Page %d OCR Done ---", n))
	c.log.Block(Preview(res.Text, PreviewLimit))

	if c.opts.SavePages {
		path := filepath.Join(c.opts.PagesDir, PageTextName(n))
		if err := os.WriteFile(path, []byte(res.Text), 0644); err != nil {
			c.log.Warn("failed to save page text", "page", n, "path", path, "error", err)
		} else {
			c.log.Info(fmt.Sprintf("Saved page %d text to: %s", n, path))
		}
	}

	return res, nil
}

func (c *Converter) recognize(ctx context.Context, img image.Image) (string, error) {
	if c.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.PageTimeout)
		defer cancel()
	}
	return c.engine.Recognize(ctx, img, c.opts.OCR)
}
