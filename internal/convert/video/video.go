// Package video converts videos between MP4, AVI, MOV and MKV through
// an external transcoder, optionally embedding device metadata presets
// at both the container and the MP4 atom level.
package video

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/metadata"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// Result is a finished video conversion.
type Result struct {
	Data     []byte
	FileName string
	Summary  string
}

// Adapter drives the transcode pipeline: stage input, probe, transcode
// with container tags, then rewrite atoms for MP4/MOV targets.
type Adapter struct {
	transcoder Transcoder
	tagger     AtomTagger
	now        func() time.Time
	logger     *slog.Logger
}

// NewAdapter creates a video adapter.
func NewAdapter(transcoder Transcoder, tagger AtomTagger, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		transcoder: transcoder,
		tagger:     tagger,
		now:        time.Now,
		logger:     logger.With("adapter", "video"),
	}
}

// Convert transcodes data into target. A non-empty preset embeds that
// device identity; timestamps always reflect the moment of conversion.
func (a *Adapter) Convert(ctx context.Context, data []byte, fileName string, source, target models.Format, preset metadata.Preset) (*Result, error) {
	ws, err := convert.NewWorkspace()
	if err != nil {
		return nil, convert.ErrInternal("create workspace", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			a.logger.Warn("workspace cleanup failed", "dir", ws.Dir, "error", err)
		}
	}()

	srcPath, err := ws.WriteFile("input."+source.Extension(), data)
	if err != nil {
		return nil, convert.ErrInternal("stage input file", err)
	}

	if err := a.transcoder.Probe(ctx, srcPath); err != nil {
		var cerr *convert.Error
		if errors.As(err, &cerr) {
			return nil, cerr
		}
		return nil, convert.ErrDecode("uploaded file is not a valid video", err)
	}

	var tags metadata.Tags
	if preset != "" {
		tags, _ = metadata.Video(preset, a.now())
	}

	dstPath := ws.Path("output." + target.Extension())
	if err := a.transcoder.Transcode(ctx, srcPath, dstPath, tags); err != nil {
		return nil, err
	}

	// ffmpeg drops or renames several of the container tags on write;
	// for MP4-family output the atom pass puts them back verbatim.
	if tags != nil && (target == models.FormatMP4 || target == models.FormatMOV) {
		if err := a.tagger.Tag(dstPath, metadata.Atoms(preset, tags)); err != nil {
			return nil, err
		}
	}

	out, err := os.ReadFile(dstPath)
	if err != nil {
		return nil, convert.ErrExternalTool("read converted file", err)
	}

	return &Result{
		Data:     out,
		FileName: renameExt(fileName, target),
		Summary:  summarize(preset, tags),
	}, nil
}

func summarize(preset metadata.Preset, tags metadata.Tags) string {
	if tags == nil {
		return "Metadata: unchanged"
	}
	lines := append([]string{"Metadata applied: " + string(preset)}, metadata.DeviceLine(preset, tags)...)
	return strings.Join(lines, "\n• ")
}

func renameExt(fileName string, target models.Format) string {
	base := fileName
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	if base == "" {
		base = "converted"
	}
	return base + "." + target.Extension()
}
