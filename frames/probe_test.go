package frames

import "testing"

func TestParseFrameRateRational(t *testing.T) {
	fps, err := parseFrameRate("30000/1001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fps < 29.9 || fps > 30.0 {
		t.Fatalf("expected ~29.97 fps, got %f", fps)
	}
}

func TestParseFrameRatePlainInteger(t *testing.T) {
	fps, err := parseFrameRate("25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fps != 25 {
		t.Fatalf("expected 25 fps, got %f", fps)
	}
}

func TestParseFrameRateZeroDenominator(t *testing.T) {
	_, err := parseFrameRate("30/0")
	if err == nil {
		t.Fatal("expected error for zero denominator")
	}
}

func TestParseFrameRateMalformed(t *testing.T) {
	_, err := parseFrameRate("not-a-rate")
	if err == nil {
		t.Fatal("expected error for malformed frame rate")
	}
}
