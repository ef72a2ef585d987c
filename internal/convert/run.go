package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/pdf-ocr/internal/config"
	"github.com/ironsheep/pdf-ocr/internal/logging"
	"github.com/ironsheep/pdf-ocr/internal/ocr"
)

// Document is a rasterized PDF whose rendered pages must be released.
type Document interface {
	PageSource
	Close() error
}

// RasterizeFunc renders the PDF at path into page images.
type RasterizeFunc func(ctx context.Context, path string) (Document, error)

// ProbeFunc reports the page count a PDF declares.
type ProbeFunc func(path string) (int, error)

// Runner wires one end-to-end conversion.
type Runner struct {
	Rasterize RasterizeFunc
	Engine    ocr.Engine

	// Probe is optional. Its count is only compared against the rendered pages.
	Probe ProbeFunc

	Log *logging.Logger

	// Stdout receives the combined text when no output file is configured.
	Stdout io.Writer
}

// Run converts cfg.InputPath and writes the combined text to cfg.OutputPath
// or to Stdout. Fatal failures are returned as *RunError. A cancelled ctx
// ends the run without touching either sink.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) error {
	log := r.Log
	if log == nil {
		log = logging.Discard()
	}

	if _, err := os.Stat(cfg.InputPath); err != nil {
		return &RunError{Stage: StageInput, Path: cfg.InputPath, Err: err}
	}

	log.Info(fmt.Sprintf("Starting OCR for PDF: %s", cfg.InputPath))
	r.logEngine(ctx, log)

	declared := -1
	if r.Probe != nil {
		n, err := r.Probe(cfg.InputPath)
		if err != nil {
			log.Warn("could not read page count", "path", cfg.InputPath, "error", err)
		} else {
			declared = n
			log.Debug("page tree parsed", "pages", n)
		}
	}

	doc, err := r.Rasterize(ctx, cfg.InputPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &RunError{Stage: StageInterrupted, Path: cfg.InputPath, Err: ctxErr}
		}
		return &RunError{Stage: StageRasterize, Path: cfg.InputPath, Err: err}
	}
	defer func() {
		if err := doc.Close(); err != nil {
			log.Warn("failed to remove rendered pages", "error", err)
		}
	}()

	log.Info(fmt.Sprintf("Total pages found: %d", doc.NumPages()))
	if declared >= 0 && declared != doc.NumPages() {
		log.Warn("rendered page count differs from page tree", "rendered", doc.NumPages(), "declared", declared)
	}

	conv := New(r.Engine, Options{
		OCR:         cfg.OCR,
		SavePages:   cfg.SavePages,
		SaveImages:  cfg.SaveImages,
		PagesDir:    cfg.PagesDir,
		PageTimeout: cfg.PageTimeout,
	}, log)

	results, err := conv.Convert(ctx, doc)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	if failed > 0 {
		log.Warn("some pages produced no text", "failed", failed, "total", len(results))
	}

	combined := Combine(results)

	if cfg.OutputPath != "" {
		if err := os.WriteFile(cfg.OutputPath, []byte(combined), 0644); err != nil {
			return &RunError{Stage: StageOutput, Path: cfg.OutputPath, Err: err}
		}
		log.Info(fmt.Sprintf("Combined text saved to: %s", cfg.OutputPath))
		return nil
	}

	out := r.Stdout
	if out == nil {
		out = os.Stdout
	}
	if _, err := io.WriteString(out, combined); err != nil {
		return fmt.Errorf("failed to write combined text: %w", err)
	}
	return nil
}

func (r *Runner) logEngine(ctx context.Context, log *logging.Logger) {
	version, err := r.Engine.Version(ctx)
	if err != nil {
		log.Debug("OCR engine version unavailable", "engine", r.Engine.Name(), "error", err)
		return
	}
	log.Debug("OCR engine ready", "engine", r.Engine.Name(), "version", version)
}
