package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultBinary is the executable looked up on PATH when no path is configured.
const DefaultBinary = "tesseract"

// pageSeparator is appended by tesseract after every page of plain-text output.
const pageSeparator = "\f"

// Options configures a single recognition call.
type Options struct {
	// Language is one or more Tesseract language codes joined by '+',
	// e.g. "eng" or "eng+osd".
	Language string `json:"language"`

	// OEM selects the OCR engine mode (0 legacy, 1 LSTM, 2 both, 3 default).
	OEM int `json:"oem"`

	// PSM selects the page segmentation mode (0-13).
	PSM int `json:"psm"`
}

// DefaultOptions returns English, OEM 3 and PSM 4.
func DefaultOptions() Options {
	return Options{
		Language: "eng",
		OEM:      3,
		PSM:      4,
	}
}

// Languages splits Language on '+' and drops empty entries.
func (o Options) Languages() []string {
	parts := strings.Split(o.Language, "+")
	langs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			langs = append(langs, p)
		}
	}
	return langs
}

// Validate checks that the modes are in Tesseract's accepted ranges.
func (o Options) Validate() error {
	if len(o.Languages()) == 0 {
		return fmt.Errorf("language must not be empty")
	}
	if o.OEM < 0 || o.OEM > 3 {
		return fmt.Errorf("oem must be between 0 and 3, got %d", o.OEM)
	}
	if o.PSM < 0 || o.PSM > 13 {
		return fmt.Errorf("psm must be between 0 and 13, got %d", o.PSM)
	}
	return nil
}

// Engine recognizes text in one image.
type Engine interface {
	// Name identifies the engine in diagnostics.
	Name() string

	// Version reports the underlying Tesseract version.
	Version(ctx context.Context) (string, error)

	// Recognize returns the text found in img. The result may be empty.
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
}

// CommandEngine runs the tesseract executable for every image.
type CommandEngine struct {
	// Binary is the tesseract executable name or path.
	Binary string

	// TempDir holds the per-page PNG files. Empty means os.TempDir().
	TempDir string
}

// NewCommandEngine returns an engine for the given binary, or DefaultBinary
// when binary is empty.
func NewCommandEngine(binary string) *CommandEngine {
	if binary == "" {
		binary = DefaultBinary
	}
	return &CommandEngine{Binary: binary}
}

// Name implements Engine.
func (e *CommandEngine) Name() string { return "tesseract-cli" }

// Version returns the first line of `tesseract --version`.
func (e *CommandEngine) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.Binary, "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to query tesseract version: %w", err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}

// Recognize performs OCR on img using the tesseract command line.
//
// The image is written to a temporary PNG, then tesseract is invoked as
//
//	tesseract <png> stdout --oem N --psm N -l LANG
//
// The trailing form-feed page separator is removed from the output. A
// cancelled or expired ctx kills the process.
func (e *CommandEngine) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	tmpFile, err := os.CreateTemp(e.TempDir, "ocr-page-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := imaging.Encode(tmpFile, img, imaging.PNG); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, commandArgs(tmpPath, opts)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("tesseract interrupted: %w", ctxErr)
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSuffix(stdout.String(), pageSeparator), nil
}

func commandArgs(imagePath string, opts Options) []string {
	args := []string{
		imagePath, "stdout",
		"--oem", strconv.Itoa(opts.OEM),
		"--psm", strconv.Itoa(opts.PSM),
	}
	if opts.Language != "" {
		args = append(args, "-l", opts.Language)
	}
	return args
}
