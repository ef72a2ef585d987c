package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// ClientEngine recognizes text in-process through libtesseract.
//
// A fresh gosseract client is created for every call and closed afterwards.
// The OEM in Options is not applied: gosseract fixes the engine mode when the
// client initialises. Recognition runs to completion once started, so a
// context deadline is only checked before the call.
type ClientEngine struct {
	// TessdataPrefix overrides the directory holding *.traineddata files.
	TessdataPrefix string

	clientFactory func() *gosseract.Client
}

// NewClientEngine returns a gosseract-backed engine.
func NewClientEngine(tessdataPrefix string) *ClientEngine {
	return &ClientEngine{
		TessdataPrefix: tessdataPrefix,
		clientFactory:  gosseract.NewClient,
	}
}

// Name implements Engine.
func (e *ClientEngine) Name() string { return "gosseract" }

// Version returns the linked libtesseract version.
func (e *ClientEngine) Version(ctx context.Context) (string, error) {
	client := e.clientFactory()
	defer client.Close()
	return client.Version(), nil
}

// Recognize performs OCR on img with a new gosseract client.
func (e *ClientEngine) Recognize(ctx context.Context, img image.Image, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("recognition not started: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if e.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.TessdataPrefix); err != nil {
			return "", fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}

	if langs := opts.Languages(); len(langs) > 0 {
		if err := client.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("failed to set language: %w", err)
		}
	}

	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PSM)); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return text, nil
}

// EngineKind names an Engine implementation.
type EngineKind string

const (
	// EngineCommand selects CommandEngine.
	EngineCommand EngineKind = "cli"

	// EngineClient selects ClientEngine.
	EngineClient EngineKind = "gosseract"
)

// ParseEngineKind validates an engine name from configuration.
func ParseEngineKind(s string) (EngineKind, error) {
	switch EngineKind(s) {
	case EngineCommand, EngineClient:
		return EngineKind(s), nil
	default:
		return "", fmt.Errorf("unknown OCR engine %q (want %q or %q)", s, EngineCommand, EngineClient)
	}
}

// NewEngine builds the engine selected by kind. binary applies to
// EngineCommand, tessdataPrefix to EngineClient.
func NewEngine(kind EngineKind, binary, tessdataPrefix string) (Engine, error) {
	switch kind {
	case EngineCommand:
		return NewCommandEngine(binary), nil
	case EngineClient:
		return NewClientEngine(tessdataPrefix), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", kind)
	}
}
