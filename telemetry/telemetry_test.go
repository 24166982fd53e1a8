package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
)

func TestSourceIDStripsExtension(t *testing.T) {
	if got := SourceID("/videos/B6.mp4"); got != "B6" {
		t.Fatalf("expected B6, got %q", got)
	}
}

func TestSourceIDHandlesNoExtension(t *testing.T) {
	if got := SourceID("B6"); got != "B6" {
		t.Fatalf("expected B6, got %q", got)
	}
}

func TestParseDurationValueSeconds(t *testing.T) {
	d, err := parseDurationValue("184.5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != time.Duration(184.5*float64(time.Second)) {
		t.Fatalf("expected 184.5s, got %v", d)
	}
}

func TestParseDurationValueClock(t *testing.T) {
	d, err := parseDurationValue("01:02:03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Hour + 2*time.Minute + 3*time.Second
	if d != want {
		t.Fatalf("expected %v, got %v", want, d)
	}
}

func TestParseDurationValueRejectsMalformedClock(t *testing.T) {
	if _, err := parseDurationValue("02:03"); err == nil {
		t.Fatal("expected error for a two-field clock value")
	}
}

func TestMetricPatternsMatchExtractedText(t *testing.T) {
	text := "Fuel Burned:   12.4 L   Time Spent Swinging Left: 01:00:00   Time Spent Swinging Right: 45.0"
	if m := fuelBurnedPattern.FindStringSubmatch(text); m == nil || m[1] != "12.4" {
		t.Fatalf("expected fuel burned match of 12.4, got %v", m)
	}
	if m := swingLeftPattern.FindStringSubmatch(text); m == nil || m[1] != "01:00:00" {
		t.Fatalf("expected swing-left match of 01:00:00, got %v", m)
	}
	if m := swingRightPattern.FindStringSubmatch(text); m == nil || m[1] != "45.0" {
		t.Fatalf("expected swing-right match of 45.0, got %v", m)
	}
}

func TestEnrichReturnsNotFoundWhenPDFMissing(t *testing.T) {
	dir := t.TempDir()
	record := Enrich(dir, "B6")
	if record.Found {
		t.Fatal("expected Found=false when no PDF exists")
	}
}

func TestEnrichWithJoystickMergesMissingAxesOnly(t *testing.T) {
	dir := t.TempDir()
	joystickJSON := `{"swing_left_active_seconds": 30, "swing_right_active_seconds": 20}`
	if err := os.WriteFile(filepath.Join(dir, "B6.joystick.json"), []byte(joystickJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	pdfSupplied := domain.TelemetryRecord{TimeSwingingLeft: 10 * time.Second}

	record := EnrichWithJoystick(dir, "B6", pdfSupplied)
	if record.TimeSwingingLeft != 10*time.Second {
		t.Fatalf("expected PDF-provided left-swing time to take precedence, got %v", record.TimeSwingingLeft)
	}
	if record.TimeSwingingRight != 20*time.Second {
		t.Fatalf("expected joystick right-swing time to fill the gap, got %v", record.TimeSwingingRight)
	}
	if !record.Found {
		t.Fatal("expected Found=true after a successful joystick merge")
	}
}

func TestEnrichWithJoystickIgnoresMissingFile(t *testing.T) {
	dir := t.TempDir()
	record := EnrichWithJoystick(dir, "missing", domain.TelemetryRecord{})
	if record.Found {
		t.Fatal("expected Found unchanged when no joystick file exists")
	}
}
