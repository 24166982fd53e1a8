// Package telemetry implements TelemetryEnricher: optionally attaching
// external telemetry (a simulation PDF, a joystick-statistics JSON sibling)
// keyed by an identifier derived from the source path.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
)

// SourceID derives the telemetry lookup identifier from a source path: the
// filename stem, e.g. "B6.mp4" -> "B6".
func SourceID(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	fuelBurnedPattern = regexp.MustCompile(`(?i)fuel\s*burned[^0-9]{0,20}([0-9]+(?:\.[0-9]+)?)\s*L\b`)
	swingLeftPattern  = regexp.MustCompile(`(?i)time\s*spent\s*swinging\s*left[^0-9]{0,20}([0-9:.]+)`)
	swingRightPattern = regexp.MustCompile(`(?i)time\s*spent\s*swinging\s*right[^0-9]{0,20}([0-9:.]+)`)
)

// Enrich looks for "<dir>/<id>.pdf", extracts matching metrics, and falls
// back to found=false on any access or parse error. Never fails the
// pipeline: all errors are logged and absorbed.
func Enrich(dir, sourceID string) domain.TelemetryRecord {
	path := filepath.Join(dir, sourceID+".pdf")
	if _, err := os.Stat(path); err != nil {
		return domain.TelemetryRecord{Found: false}
	}

	text, err := extractText(path)
	if err != nil {
		logger.Warn("telemetry pdf extraction failed", "path", path, "error", err)
		return domain.TelemetryRecord{Found: false}
	}

	record := domain.TelemetryRecord{}
	if m := fuelBurnedPattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			record.FuelBurnedLitres = v
			record.Found = true
		}
	}
	if m := swingLeftPattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDurationValue(m[1]); err == nil {
			record.TimeSwingingLeft = d
			record.Found = true
		}
	}
	if m := swingRightPattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDurationValue(m[1]); err == nil {
			record.TimeSwingingRight = d
			record.Found = true
		}
	}

	if !record.Found {
		logger.Warn("telemetry pdf found but no metrics matched", "path", path)
	}
	return record
}

// EnrichAll runs the PDF pass and then the joystick-file pass for sourceID,
// merging both into a single TelemetryRecord.
func EnrichAll(dir, sourceID string) domain.TelemetryRecord {
	return EnrichWithJoystick(dir, sourceID, Enrich(dir, sourceID))
}

// parseDurationValue accepts either a bare seconds value ("184.5") or an
// "HH:MM:SS" clock value, per spec.md §4.5.
func parseDurationValue(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, ":") {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("parse seconds value %q: %w", raw, err)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected HH:MM:SS, got %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse hours in %q: %w", raw, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse minutes in %q: %w", raw, err)
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("parse seconds in %q: %w", raw, err)
	}
	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	return time.Duration(total * float64(time.Second)), nil
}
