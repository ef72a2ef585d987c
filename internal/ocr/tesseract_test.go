package ocr

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeFakeTesseract installs a shell script standing in for the tesseract
// binary and returns its path.
func writeFakeTesseract(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "tesseract")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write fake tesseract: %v", err)
	}
	return path
}

// createTestPage returns a small white gray page with a dark block.
func createTestPage(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{255})
		}
	}
	for y := 10; y < 20 && y < height; y++ {
		for x := 10; x < 50 && x < width; x++ {
			img.SetGray(x, y, color.Gray{0})
		}
	}
	return img
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Language != "eng" || opts.OEM != 3 || opts.PSM != 4 {
		t.Errorf("got %+v, want {eng 3 4}", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestOptions_Languages(t *testing.T) {
	tests := []struct {
		lang string
		want []string
	}{
		{"eng", []string{"eng"}},
		{"eng+osd", []string{"eng", "osd"}},
		{"eng++deu+", []string{"eng", "deu"}},
		{" fra + spa ", []string{"fra", "spa"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			got := Options{Language: tt.lang}.Languages()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"legacy engine", Options{Language: "eng", OEM: 0, PSM: 6}, false},
		{"max psm", Options{Language: "eng", OEM: 1, PSM: 13}, false},
		{"empty language", Options{Language: "", OEM: 3, PSM: 4}, true},
		{"only separators", Options{Language: "+", OEM: 3, PSM: 4}, true},
		{"negative oem", Options{Language: "eng", OEM: -1, PSM: 4}, true},
		{"oem too large", Options{Language: "eng", OEM: 4, PSM: 4}, true},
		{"psm too large", Options{Language: "eng", OEM: 3, PSM: 14}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	got := commandArgs("/tmp/page.png", Options{Language: "eng+osd", OEM: 1, PSM: 6})
	want := []string{"/tmp/page.png", "stdout", "--oem", "1", "--psm", "6", "-l", "eng+osd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got = commandArgs("p.png", Options{OEM: 3, PSM: 4})
	want = []string{"p.png", "stdout", "--oem", "3", "--psm", "4"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("without language: got %v, want %v", got, want)
	}
}

func TestNewCommandEngine(t *testing.T) {
	if e := NewCommandEngine(""); e.Binary != DefaultBinary {
		t.Errorf("Binary: got %s, want %s", e.Binary, DefaultBinary)
	}
	if e := NewCommandEngine("/opt/tess/bin/tesseract"); e.Binary != "/opt/tess/bin/tesseract" {
		t.Errorf("Binary: got %s, want /opt/tess/bin/tesseract", e.Binary)
	}
	if name := NewCommandEngine("").Name(); name != "tesseract-cli" {
		t.Errorf("Name: got %s, want tesseract-cli", name)
	}
}

func TestCommandEngine_Recognize(t *testing.T) {
	bin := writeFakeTesseract(t, `test -s "$1" || { echo "missing image $1" >&2; exit 1; }
shift
echo "args: $*"
printf '\f'`)

	engine := NewCommandEngine(bin)
	engine.TempDir = t.TempDir()

	text, err := engine.Recognize(context.Background(), createTestPage(60, 30), DefaultOptions())
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	want := "args: stdout --oem 3 --psm 4 -l eng\n"
	if text != want {
		t.Errorf("got %q, want %q", text, want)
	}

	// The temporary page must be cleaned up.
	entries, err := os.ReadDir(engine.TempDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not cleaned up: %d entries left", len(entries))
	}
}

func TestCommandEngine_RecognizeEmpty(t *testing.T) {
	bin := writeFakeTesseract(t, `printf '\f'`)

	text, err := NewCommandEngine(bin).Recognize(context.Background(), createTestPage(20, 20), DefaultOptions())
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if text != "" {
		t.Errorf("got %q, want empty text", text)
	}
}

func TestCommandEngine_Failure(t *testing.T) {
	bin := writeFakeTesseract(t, `echo "Failed loading language 'xyz'" >&2
exit 1`)

	_, err := NewCommandEngine(bin).Recognize(context.Background(), createTestPage(20, 20), Options{Language: "xyz", OEM: 3, PSM: 4})
	if err == nil {
		t.Fatal("expected error from failing tesseract")
	}
	if !strings.Contains(err.Error(), "Failed loading language") {
		t.Errorf("error should carry stderr, got: %v", err)
	}
}

func TestCommandEngine_MissingBinary(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "no-such-tesseract")

	_, err := NewCommandEngine(bin).Recognize(context.Background(), createTestPage(20, 20), DefaultOptions())
	if err == nil {
		t.Error("expected error for missing binary")
	}
}

func TestCommandEngine_Timeout(t *testing.T) {
	bin := writeFakeTesseract(t, `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewCommandEngine(bin).Recognize(ctx, createTestPage(20, 20), DefaultOptions())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("error should report interruption, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("Recognize took %v, process was not killed", elapsed)
	}
}

func TestCommandEngine_Version(t *testing.T) {
	bin := writeFakeTesseract(t, `echo "tesseract 5.3.0"
echo " leptonica-1.82.0"`)

	version, err := NewCommandEngine(bin).Version(context.Background())
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if version != "tesseract 5.3.0" {
		t.Errorf("got %q, want %q", version, "tesseract 5.3.0")
	}
}
