package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/pdf-ocr/internal/ocr"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]string{"-pdf", "doc.pdf"}, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.InputPath != "doc.pdf" {
		t.Errorf("InputPath: got %s, want doc.pdf", cfg.InputPath)
	}
	if cfg.DPI != 400 {
		t.Errorf("DPI: got %d, want 400", cfg.DPI)
	}
	if cfg.OCR != ocr.DefaultOptions() {
		t.Errorf("OCR: got %+v, want %+v", cfg.OCR, ocr.DefaultOptions())
	}
	if cfg.Engine != ocr.EngineCommand {
		t.Errorf("Engine: got %s, want cli", cfg.Engine)
	}
	if cfg.PagesDir != "output" {
		t.Errorf("PagesDir: got %s, want output", cfg.PagesDir)
	}
	if cfg.OutputPath != "" || cfg.SavePages || cfg.SaveImages || cfg.PageTimeout != 0 {
		t.Errorf("unexpected non-default values: %+v", cfg)
	}
}

func TestParse_AllFlags(t *testing.T) {
	args := []string{
		"--pdf", "in.pdf",
		"--poppler-path", "/opt/poppler/bin",
		"--tesseract-cmd", "/opt/tess/tesseract",
		"--output", "out.txt",
		"--dpi", "300",
		"--lang", "eng+deu",
		"--oem", "1",
		"--psm", "6",
		"--save-pages",
		"--save-images",
		"--pages-dir", "pages",
		"--engine", "gosseract",
		"--page-timeout", "90s",
	}

	cfg, err := Parse(args, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := Config{
		InputPath:    "in.pdf",
		PopplerPath:  "/opt/poppler/bin",
		TesseractCmd: "/opt/tess/tesseract",
		OutputPath:   "out.txt",
		DPI:          300,
		OCR:          ocr.Options{Language: "eng+deu", OEM: 1, PSM: 6},
		Engine:       ocr.EngineClient,
		SavePages:    true,
		SaveImages:   true,
		PagesDir:     "pages",
		PageTimeout:  90 * time.Second,
	}
	if *cfg != want {
		t.Errorf("got %+v\nwant %+v", *cfg, want)
	}
}

func TestParse_PositionalInput(t *testing.T) {
	cfg, err := Parse([]string{"-dpi", "200", "scan.pdf"}, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.InputPath != "scan.pdf" {
		t.Errorf("InputPath: got %s, want scan.pdf", cfg.InputPath)
	}
}

func TestParse_EnvironmentPrecedence(t *testing.T) {
	env := envMap(map[string]string{
		EnvTesseractCmd:   "/env/tesseract",
		EnvPopplerPath:    "/env/poppler",
		EnvTessdataPrefix: "/env/tessdata",
	})

	cfg, err := Parse([]string{"-pdf", "a.pdf"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.TesseractCmd != "/env/tesseract" {
		t.Errorf("TesseractCmd from env: got %s", cfg.TesseractCmd)
	}
	if cfg.PopplerPath != "/env/poppler" {
		t.Errorf("PopplerPath from env: got %s", cfg.PopplerPath)
	}
	if cfg.TessdataPrefix != "/env/tessdata" {
		t.Errorf("TessdataPrefix from env: got %s", cfg.TessdataPrefix)
	}

	cfg, err = Parse([]string{"-pdf", "a.pdf", "-tesseract-cmd", "/flag/tesseract", "-poppler-path", "/flag/poppler"}, env, io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.TesseractCmd != "/flag/tesseract" {
		t.Errorf("flag should win over env: got %s", cfg.TesseractCmd)
	}
	if cfg.PopplerPath != "/flag/poppler" {
		t.Errorf("flag should win over env: got %s", cfg.PopplerPath)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"missing input", []string{}, "-pdf is required"},
		{"extra positional", []string{"a.pdf", "b.pdf"}, "unexpected arguments"},
		{"pdf and positional", []string{"-pdf", "a.pdf", "b.pdf"}, "unexpected arguments"},
		{"zero dpi", []string{"-pdf", "a.pdf", "-dpi", "0"}, "dpi must be positive"},
		{"negative dpi", []string{"-pdf", "a.pdf", "-dpi", "-300"}, "dpi must be positive"},
		{"bad oem", []string{"-pdf", "a.pdf", "-oem", "7"}, "oem must be between"},
		{"bad psm", []string{"-pdf", "a.pdf", "-psm", "-1"}, "psm must be between"},
		{"empty lang", []string{"-pdf", "a.pdf", "-lang", ""}, "language must not be empty"},
		{"bad engine", []string{"-pdf", "a.pdf", "-engine", "cloud"}, "unknown OCR engine"},
		{"negative timeout", []string{"-pdf", "a.pdf", "-page-timeout", "-1s"}, "page-timeout"},
		{"empty pages dir", []string{"-pdf", "a.pdf", "-save-pages", "-pages-dir", ""}, "pages-dir"},
		{"non-numeric dpi", []string{"-pdf", "a.pdf", "-dpi", "high"}, "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args, envMap(nil), io.Discard)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParse_HighDPI(t *testing.T) {
	cfg, err := Parse([]string{"-pdf", "a.pdf", "-dpi", "3000"}, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.DPI != 3000 {
		t.Errorf("got dpi %d, want 3000", cfg.DPI)
	}
}

func TestParse_Help(t *testing.T) {
	var out strings.Builder
	_, err := Parse([]string{"-help"}, envMap(nil), &out)
	if !errors.Is(err, ErrHelp) {
		t.Fatalf("got %v, want ErrHelp", err)
	}
	if !strings.Contains(out.String(), "-save-pages") {
		t.Errorf("usage output should list flags, got %q", out.String())
	}
}

func TestParse_Version(t *testing.T) {
	cfg, err := Parse([]string{"-version"}, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !cfg.ShowVersion {
		t.Error("ShowVersion not set")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	const key = "PDFOCR_TEST_DOTENV_VALUE"
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(key+"=/from/dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(key, "")
	os.Unsetenv(key)
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv(key); got != "/from/dotenv" {
		t.Errorf("got %q, want /from/dotenv", got)
	}

	t.Setenv(key, "/from/process")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv(key); got != "/from/process" {
		t.Errorf("process env should not be overridden, got %q", got)
	}
}
