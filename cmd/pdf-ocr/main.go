package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/pdf-ocr/internal/config"
	"github.com/ironsheep/pdf-ocr/internal/convert"
	"github.com/ironsheep/pdf-ocr/internal/logging"
	"github.com/ironsheep/pdf-ocr/internal/ocr"
	"github.com/ironsheep/pdf-ocr/internal/raster"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	dotEnvErr := config.LoadDotEnv(".env")
	logger := logging.NewFromEnv()
	if dotEnvErr != nil {
		logger.Warn("ignoring .env", "error", dotEnvErr)
	}

	cfg, err := config.Parse(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, config.ErrHelp) {
		printEnvHelp()
		return convert.ExitOK
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdf-ocr: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'pdf-ocr -help' for usage.")
		return convert.ExitInputNotFound
	}

	if cfg.ShowVersion {
		fmt.Printf("pdf-ocr %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return convert.ExitOK
	}

	logger.Debug("pdf-ocr starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	engine, err := ocr.NewEngine(cfg.Engine, cfg.TesseractCmd, cfg.TessdataPrefix)
	if err != nil {
		logger.Error(err.Error())
		return convert.ExitFailure
	}
	if cfg.Engine == ocr.EngineClient && cfg.OCR.OEM != ocr.DefaultOptions().OEM {
		logger.Warn("the gosseract engine ignores -oem", "oem", cfg.OCR.OEM)
	}

	rasterizer := raster.NewPdftoppm(cfg.PopplerPath, cfg.DPI)

	runner := &convert.Runner{
		Rasterize: func(ctx context.Context, path string) (convert.Document, error) {
			doc, err := rasterizer.Rasterize(ctx, path)
			if err != nil {
				return nil, err
			}
			return doc, nil
		},
		Engine: engine,
		Probe:  raster.Probe,
		Log:    logger,
		Stdout: os.Stdout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Run(ctx, cfg); err != nil {
		logger.Error(err.Error())
		return convert.ExitCode(err)
	}
	return convert.ExitOK
}

func printEnvHelp() {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Environment variables:")
	fmt.Fprintf(os.Stderr, "  %s        tesseract executable when -tesseract-cmd is not set\n", config.EnvTesseractCmd)
	fmt.Fprintf(os.Stderr, "  %s         Poppler bin folder when -poppler-path is not set\n", config.EnvPopplerPath)
	fmt.Fprintf(os.Stderr, "  %s      tessdata directory for the gosseract engine\n", config.EnvTessdataPrefix)
	fmt.Fprintln(os.Stderr, "  PDFOCR_LOG_LEVEL=debug  Enable debug logging")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "A .env file in the working directory is loaded first; existing variables win.")
}
