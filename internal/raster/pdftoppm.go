// Package raster turns PDF pages into bitmap files using poppler's pdftoppm.
//
// Rasterization happens once per run into a private temporary directory.
// Pages are decoded lazily, one at a time, so only the page being processed
// is held in memory. Close removes every generated file.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/pdf-ocr/internal/imaging"
)

// DefaultBinary is the poppler renderer looked up on PATH when no bin
// directory is configured.
const DefaultBinary = "pdftoppm"

// pagePrefix names the files pdftoppm writes: page-1.png, page-01.png, ...
const pagePrefix = "page"

// ErrNoPages is returned when the renderer succeeds but produces no pages.
var ErrNoPages = errors.New("no pages rendered")

// Pdftoppm renders PDF pages to PNG files.
type Pdftoppm struct {
	// BinDir is the directory containing pdftoppm. Empty means PATH lookup.
	BinDir string

	// DPI is the rendering resolution.
	DPI int

	// TempDir is the parent of the per-run page directory. Empty means os.TempDir().
	TempDir string
}

// NewPdftoppm returns a renderer for the given poppler bin directory and resolution.
func NewPdftoppm(binDir string, dpi int) *Pdftoppm {
	return &Pdftoppm{BinDir: binDir, DPI: dpi}
}

// Binary returns the pdftoppm executable path that Rasterize will run.
func (p *Pdftoppm) Binary() string {
	if p.BinDir == "" {
		return DefaultBinary
	}
	return filepath.Join(p.BinDir, DefaultBinary)
}

// Rasterize renders every page of pdfPath and returns the rendered document.
//
// The command is
//
//	pdftoppm -r DPI -png <pdf> <tmpdir>/page
//
// On failure the temporary directory is removed before returning. The caller
// must Close the returned Document.
func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath string) (*Document, error) {
	dir, err := os.MkdirTemp(p.TempDir, "pdf-ocr-pages-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create page directory: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Binary(),
		"-r", strconv.Itoa(p.DPI),
		"-png",
		pdfPath,
		filepath.Join(dir, pagePrefix),
	)
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pages, err := collectPages(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, err
	}
	if len(pages) == 0 {
		os.RemoveAll(dir)
		return nil, ErrNoPages
	}

	return &Document{dir: dir, pages: pages}, nil
}

// collectPages lists page-N.png files in dir ordered by N.
//
// pdftoppm zero-pads N to the width of the page count, so the numeric value
// rather than the name decides the order.
func collectPages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list rendered pages: %w", err)
	}

	type page struct {
		num  int
		path string
	}
	found := make([]page, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		num, ok := pageNumber(e.Name())
		if !ok {
			continue
		}
		found = append(found, page{num: num, path: filepath.Join(dir, e.Name())})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].num < found[j].num
	})

	paths := make([]string, len(found))
	for i, p := range found {
		paths[i] = p.path
	}
	return paths, nil
}

// pageNumber extracts N from "page-N.png".
func pageNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, pagePrefix+"-")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".png")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Document is a rendered PDF whose pages live on disk until Close.
type Document struct {
	dir   string
	pages []string
}

// NumPages returns the number of rendered pages.
func (d *Document) NumPages() int { return len(d.pages) }

// PagePath returns the file holding page n (1-based).
func (d *Document) PagePath(n int) (string, error) {
	if n < 1 || n > len(d.pages) {
		return "", fmt.Errorf("page %d out of range 1-%d", n, len(d.pages))
	}
	return d.pages[n-1], nil
}

// Page decodes page n (1-based).
func (d *Document) Page(n int) (image.Image, error) {
	path, err := d.PagePath(n)
	if err != nil {
		return nil, err
	}
	return imaging.LoadPage(path)
}

// Close removes the rendered pages.
func (d *Document) Close() error {
	return os.RemoveAll(d.dir)
}
