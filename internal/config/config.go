// Package config assembles the run configuration from command-line flags,
// the process environment and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"github.com/ironsheep/pdf-ocr/internal/ocr"
)

// Environment variables consulted when the matching flag is not given.
const (
	EnvTesseractCmd   = "TESSERACT_CMD"
	EnvPopplerPath    = "POPPLER_PATH"
	EnvTessdataPrefix = "TESSDATA_PREFIX"
)

// DefaultDPI is the rasterization resolution used when -dpi is not given.
const DefaultDPI = 400

// DefaultPagesDir receives per-page artifacts, relative to the working directory.
const DefaultPagesDir = "output"

// ErrHelp is returned by Parse when -help or -h was requested.
var ErrHelp = flag.ErrHelp

// Config holds everything one conversion run needs.
type Config struct {
	// InputPath is the source PDF.
	InputPath string

	// PopplerPath is the directory containing pdftoppm. Empty means PATH lookup.
	PopplerPath string

	// TesseractCmd is the tesseract executable for the cli engine.
	TesseractCmd string

	// TessdataPrefix is passed to the gosseract engine.
	TessdataPrefix string

	// OutputPath receives the combined text. Empty means stdout.
	OutputPath string

	// DPI is the rasterization resolution.
	DPI int

	// OCR holds language, OEM and PSM.
	OCR ocr.Options

	// Engine selects the OCR implementation.
	Engine ocr.EngineKind

	// SavePages writes page_{n}_ocr.txt files into PagesDir.
	SavePages bool

	// SaveImages writes page_{n}_clean.png files into PagesDir.
	SaveImages bool

	// PagesDir is the per-page artifact directory.
	PagesDir string

	// PageTimeout bounds each recognition call. Zero disables the limit.
	PageTimeout time.Duration

	// ShowVersion is set by -version.
	ShowVersion bool
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Parse builds a Config from args (without the program name) and getenv.
//
// Flags win over the environment: -tesseract-cmd over TESSERACT_CMD,
// -poppler-path over POPPLER_PATH. The input PDF may be given with -pdf or as
// the single positional argument. Usage text and errors go to errOut.
func Parse(args []string, getenv func(string) string, errOut io.Writer) (*Config, error) {
	cfg := &Config{}
	defaults := ocr.DefaultOptions()
	var engine string

	flags := flag.NewFlagSet("pdf-ocr", flag.ContinueOnError)
	flags.SetOutput(errOut)
	flags.StringVar(&cfg.InputPath, "pdf", "", "Path to input PDF")
	flags.StringVar(&cfg.PopplerPath, "poppler-path", "", "Optional Poppler bin folder path (env "+EnvPopplerPath+")")
	flags.StringVar(&cfg.TesseractCmd, "tesseract-cmd", "", "Optional path to tesseract executable (env "+EnvTesseractCmd+")")
	flags.StringVar(&cfg.OutputPath, "output", "", "Optional output file path (if not set, prints to stdout)")
	flags.IntVar(&cfg.DPI, "dpi", DefaultDPI, "DPI used when converting PDF to images")
	flags.StringVar(&cfg.OCR.Language, "lang", defaults.Language, "Tesseract language(s), e.g. 'eng' or 'eng+osd'")
	flags.IntVar(&cfg.OCR.OEM, "oem", defaults.OEM, "Tesseract OEM")
	flags.IntVar(&cfg.OCR.PSM, "psm", defaults.PSM, "Tesseract PSM")
	flags.BoolVar(&cfg.SavePages, "save-pages", false, "Save per-page text files into the pages directory")
	flags.BoolVar(&cfg.SaveImages, "save-images", false, "Save preprocessed page images into the pages directory")
	flags.StringVar(&cfg.PagesDir, "pages-dir", DefaultPagesDir, "Directory for per-page artifacts")
	flags.StringVar(&engine, "engine", string(ocr.EngineCommand), "OCR engine: 'cli' (tesseract binary) or 'gosseract' (in-process)")
	flags.DurationVar(&cfg.PageTimeout, "page-timeout", 0, "Per-page OCR timeout, e.g. 2m (0 = no limit)")
	flags.BoolVar(&cfg.ShowVersion, "version", false, "Print version information")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if cfg.ShowVersion {
		return cfg, nil
	}

	if cfg.InputPath == "" && flags.NArg() == 1 {
		cfg.InputPath = flags.Arg(0)
	} else if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", flags.Args())
	}

	if cfg.TesseractCmd == "" {
		cfg.TesseractCmd = getenv(EnvTesseractCmd)
	}
	if cfg.PopplerPath == "" {
		cfg.PopplerPath = getenv(EnvPopplerPath)
	}
	cfg.TessdataPrefix = getenv(EnvTessdataPrefix)

	kind, err := ocr.ParseEngineKind(engine)
	if err != nil {
		return nil, err
	}
	cfg.Engine = kind

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("-pdf is required")
	}

	if c.DPI < 1 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}

	if err := c.OCR.Validate(); err != nil {
		return err
	}

	if c.PageTimeout < 0 {
		return fmt.Errorf("page-timeout must not be negative, got %v", c.PageTimeout)
	}

	if (c.SavePages || c.SaveImages) && c.PagesDir == "" {
		return fmt.Errorf("pages-dir must not be empty when saving pages")
	}

	return nil
}
