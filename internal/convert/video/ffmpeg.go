package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/metadata"
)

// Transcoder probes and transcodes video files on disk.
type Transcoder interface {
	// Probe verifies that path holds a readable video stream.
	Probe(ctx context.Context, path string) error

	// Transcode converts src into dst, embedding the given
	// container-level tags. A nil tag set transcodes without metadata.
	Transcode(ctx context.Context, src, dst string, tags metadata.Tags) error
}

// FFmpeg runs ffmpeg and ffprobe binaries with a bounded wait.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
	logger  *slog.Logger
}

// NewFFmpeg creates a Transcoder backed by ffmpeg/ffprobe. Empty
// binary paths default to the bare command names; timeout defaults to
// five minutes.
func NewFFmpeg(ffmpegPath, ffprobePath string, timeout time.Duration, logger *slog.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpeg{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		timeout: timeout,
		logger:  logger.With("tool", "ffmpeg"),
	}
}

// Probe runs ffprobe against path. A nonzero exit means the file is
// not a valid video.
func (f *FFmpeg) Probe(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=format_name",
		"-of", "default=noprint_wrappers=1",
		path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return convert.ErrToolTimeout(fmt.Sprintf("probe exceeded %s", f.timeout), nil)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return convert.ErrExternalTool("video conversion tool is not available", err)
		}
		return convert.ErrDecode(strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

// Transcode converts src into dst. Tag keys are sorted so the argument
// list is deterministic.
func (f *FFmpeg) Transcode(ctx context.Context, src, dst string, tags metadata.Tags) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := []string{"-y", "-v", "error", "-i", src}
	for _, k := range sortedKeys(tags) {
		args = append(args, "-metadata", k+"="+tags[k])
	}
	args = append(args, dst)

	cmd := exec.CommandContext(ctx, f.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	f.logger.Debug("ffmpeg finished", "dst", dst, "tags", len(tags), "duration", time.Since(start), "err", err)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return convert.ErrToolTimeout(fmt.Sprintf("transcode exceeded %s", f.timeout), nil)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return convert.ErrExternalTool("video conversion tool is not available", err)
		}
		return convert.ErrExternalTool(strings.TrimSpace(stderr.String()), err)
	}
	return nil
}

func sortedKeys(tags metadata.Tags) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
