package frames

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/afschowdhury/excavator-video-analyzer/domain"
	"github.com/afschowdhury/excavator-video-analyzer/events"
	"github.com/afschowdhury/excavator-video-analyzer/logger"
	"github.com/afschowdhury/excavator-video-analyzer/metrics"
	"github.com/afschowdhury/excavator-video-analyzer/pkgerrors"
)

// maxConsecutiveDecodeFailures bounds how many unreadable frames in a row
// are tolerated before FrameExtractor aborts, per spec.md §4.1.
const maxConsecutiveDecodeFailures = 3

// progressEveryNFrames is the cadence of intermediate progress events.
const progressEveryNFrames = 20

// Extractor implements FrameExtractor: it decodes a video at a chosen
// sampling rate into a bounded, ordered sequence of Frames.
type Extractor struct {
	// ffmpegPath/ffprobePath let tests substitute fake binaries; both
	// default to the binaries on PATH.
	ffmpegPath  string
	ffprobePath string
}

// NewExtractor creates an Extractor using the system ffmpeg/ffprobe binaries.
func NewExtractor() *Extractor {
	return &Extractor{ffmpegPath: "ffmpeg", ffprobePath: "ffprobe"}
}

// NewExtractorWithPaths creates an Extractor using the given ffmpeg/ffprobe
// binary paths, for callers (and tests, including from other packages) that
// need to substitute non-default or fake binaries.
func NewExtractorWithPaths(ffmpegPath, ffprobePath string) *Extractor {
	return &Extractor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Extract opens source, computes the decode stride for samplingFPS, and
// returns the ordered Frame sequence (capped at maxFrames, if non-nil).
func (e *Extractor) Extract(ctx context.Context, source string, samplingFPS int, maxFrames *int, bus *events.Bus) ([]domain.Frame, error) {
	meta, err := probe(ctx, e.ffprobePath, source)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.KindSourceUnavailable, "frames", source, err)
	}
	if meta.NativeFPS <= 0 || meta.DurationSecs <= 0 {
		return nil, pkgerrors.New(pkgerrors.KindNoFramesExtracted, "frames", source, fmt.Errorf("zero-length or zero-fps source"))
	}

	stride := int(meta.NativeFPS/float64(samplingFPS) + 0.5)
	if stride < 1 {
		stride = 1
	}

	totalNativeFrames := int(meta.DurationSecs * meta.NativeFPS)
	frames := make([]domain.Frame, 0, totalNativeFrames/stride+1)

	consecutiveFailures := 0
	index := 0
	for nativeIndex := 0; nativeIndex < totalNativeFrames; nativeIndex += stride {
		if maxFrames != nil && index >= *maxFrames {
			break
		}

		select {
		case <-ctx.Done():
			return nil, pkgerrors.New(pkgerrors.KindCancelled, "frames", source, ctx.Err())
		default:
		}

		timestampSecs := float64(nativeIndex) / meta.NativeFPS
		raw, err := e.decodeFrameAt(ctx, source, timestampSecs)
		if err != nil {
			consecutiveFailures++
			logger.Warn("frame decode failed", "source", source, "native_index", nativeIndex, "error", err)
			metrics.RecordStageElement("frames", "soft_failure")
			if consecutiveFailures > maxConsecutiveDecodeFailures {
				return nil, pkgerrors.New(pkgerrors.KindDecodeFailed, "frames", source, err)
			}
			continue
		}
		consecutiveFailures = 0
		metrics.RecordStageElement("frames", "success")

		resized, err := resizeToBound(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.KindDecodeFailed, "frames", source, err)
		}

		frames = append(frames, domain.Frame{
			Index:     index,
			Timestamp: time.Duration(timestampSecs * float64(time.Second)),
			Image:     resized,
			Encoding:  "image/jpeg",
		})
		index++

		if bus != nil && index%progressEveryNFrames == 0 {
			bus.Publish(events.Event{Type: events.TypeStageProgress, Stage: "frames", Detail: fmt.Sprintf("%d frames extracted", index)})
		}
	}

	if len(frames) == 0 {
		return nil, pkgerrors.New(pkgerrors.KindNoFramesExtracted, "frames", source, fmt.Errorf("no frames decoded"))
	}

	if bus != nil {
		bus.Publish(events.Event{Type: events.TypeStageCompleted, Stage: "frames", Detail: fmt.Sprintf("%d frames total", len(frames))})
	}
	return frames, nil
}

// decodeFrameAt seeks to timestampSecs and extracts a single JPEG frame via
// ffmpeg, following the GoonHub ffmpeg-wrapper pattern of per-timestamp
// input seeking (fast: jumps to the nearest keyframe and decodes only a few
// frames) rather than filtering every native frame through an fps filter.
func (e *Extractor) decodeFrameAt(ctx context.Context, source string, timestampSecs float64) ([]byte, error) {
	args := []string{
		"-ss", fmt.Sprintf("%.3f", timestampSecs),
		"-i", source,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg at %.3fs: %w: %s", timestampSecs, err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no frame data at %.3fs", timestampSecs)
	}
	return stdout.Bytes(), nil
}
