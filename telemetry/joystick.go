package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
)

// joystickStats is the on-disk shape of a "<dir>/<id>.joystick.json"
// sibling file: per-axis active-time seconds, as recorded by the
// simulator's control logging (SPEC_FULL.md §7's joystick adapter,
// supplementing spec.md §4.5's PDF-only telemetry path).
type joystickStats struct {
	SwingLeftActiveSeconds  float64 `json:"swing_left_active_seconds"`
	SwingRightActiveSeconds float64 `json:"swing_right_active_seconds"`
}

// EnrichWithJoystick reads "<dir>/<id>.joystick.json", if present, and
// merges its swing-time axes into record wherever the PDF pass left a zero
// value — the PDF telemetry, when present, takes precedence. Never fails
// the pipeline: a missing or malformed file is logged and ignored.
func EnrichWithJoystick(dir, sourceID string, record domain.TelemetryRecord) domain.TelemetryRecord {
	path := filepath.Join(dir, sourceID+".joystick.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return record
	}

	var stats joystickStats
	if err := json.Unmarshal(data, &stats); err != nil {
		logger.Warn("joystick telemetry file malformed", "path", path, "error", err)
		return record
	}

	if record.TimeSwingingLeft == 0 && stats.SwingLeftActiveSeconds > 0 {
		record.TimeSwingingLeft = time.Duration(stats.SwingLeftActiveSeconds * float64(time.Second))
		record.Found = true
	}
	if record.TimeSwingingRight == 0 && stats.SwingRightActiveSeconds > 0 {
		record.TimeSwingingRight = time.Duration(stats.SwingRightActiveSeconds * float64(time.Second))
		record.Found = true
	}
	return record
}
