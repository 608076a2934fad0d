package analysis

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestAnalyzeUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	if err := os.WriteFile(path, []byte("definitely not a png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	report := Analyze(path, false, "")
	if report.Status != StatusNeedsReview {
		t.Fatalf("expected %q, got %q", StatusNeedsReview, report.Status)
	}
	if report.Risk != 70 {
		t.Fatalf("expected risk 70, got %d", report.Risk)
	}
	if report.Reason != "cannot read image" {
		t.Fatalf("unexpected reason: %q", report.Reason)
	}
	if report.File != "broken.png" {
		t.Fatalf("expected basename, got %q", report.File)
	}
	want := Checks{}
	if report.Checks != want {
		t.Fatalf("expected zeroed checks, got %+v", report.Checks)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	report := Analyze(filepath.Join(t.TempDir(), "nope.jpg"), true, "")
	if report.Status != StatusNeedsReview || report.Risk != 70 {
		t.Fatalf("expected unreadable fallback, got %q/%d", report.Status, report.Risk)
	}
	// The declaration is caller input, not extracted evidence; it is echoed
	// even when extraction never ran.
	if !report.Checks.AIDeclared {
		t.Fatal("expected ai_declared to echo the caller's flag")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePNG(t, dir, "sample.png", noiseGray(320, 240, 42))
	stampPath := writePNG(t, dir, "stamp.png", stampPattern())

	first := Analyze(imgPath, false, stampPath)
	second := Analyze(imgPath, false, stampPath)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ on identical input:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzePlainPNGWithoutProvenance(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePNG(t, dir, "texture.png", noiseGray(320, 240, 42))

	report := Analyze(imgPath, false, "")
	if report.Checks.HasRaw {
		t.Error("png must not count as raw")
	}
	if report.Checks.ExifOK {
		t.Error("stdlib png has no EXIF")
	}
	if report.Checks.MarkPresent {
		t.Error("no watermark expected")
	}
	// No provenance at all: the engine cannot verify origin.
	if report.Status != StatusPolicyIssue {
		t.Fatalf("expected %q for unverifiable image, got %q", StatusPolicyIssue, report.Status)
	}
	if report.Risk < 40 {
		t.Fatalf("expected at least the no-device weight, got %d", report.Risk)
	}
}

func TestAnalyzeDeclaredHonorsMetadataMark(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePNG(t, dir, "declared.png", noiseGray(320, 240, 7))

	// Append a provenance token past the PNG payload; the marker scan reads
	// raw bytes, not chunks.
	f, err := os.OpenFile(imgPath, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.Write([]byte("xmpmeta")); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	report := Analyze(imgPath, true, "")
	if report.Status != StatusPass || report.Risk != 10 {
		t.Fatalf("declared+marked must pass with risk 10, got %q/%d", report.Status, report.Risk)
	}
	if !report.Checks.MarkPresent {
		t.Fatal("expected mark_present")
	}
}

func TestAnalyzeDeclaredWithoutMark(t *testing.T) {
	dir := t.TempDir()
	imgPath := writePNG(t, dir, "declared.png", noiseGray(320, 240, 7))

	report := Analyze(imgPath, true, "")
	if report.Status != StatusPolicyIssue || report.Risk != 100 {
		t.Fatalf("declared without watermark must fail with risk 100, got %q/%d", report.Status, report.Risk)
	}
}

func TestAnalyzerSharedAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	stampPath := writePNG(t, dir, "stamp.png", stampPattern())
	imgPath := writePNG(t, dir, "a.png", noiseGray(128, 128, 3))

	a := New(stampPath)
	first := a.Analyze(imgPath, false)
	second := a.Analyze(imgPath, false)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("analyzer must hold no per-image state")
	}
}
