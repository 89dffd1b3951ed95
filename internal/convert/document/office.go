package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// OfficeConverter converts office documents by shelling out to an
// installed office suite. Implementations write the converted file
// into outDir and return its path.
type OfficeConverter interface {
	Convert(ctx context.Context, sourcePath string, target models.Format, outDir string) (string, error)
}

// Soffice converts documents with LibreOffice in headless mode.
type Soffice struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewSoffice creates a LibreOffice-backed converter. binary defaults
// to "soffice" and timeout to two minutes.
func NewSoffice(binary string, timeout time.Duration, logger *slog.Logger) *Soffice {
	if binary == "" {
		binary = "soffice"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Soffice{binary: binary, timeout: timeout, logger: logger.With("tool", "soffice")}
}

// Convert runs soffice --headless --convert-to against sourcePath.
func (s *Soffice) Convert(ctx context.Context, sourcePath string, target models.Format, outDir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary,
		"--headless", "--convert-to", target.Extension(), "--outdir", outDir, sourcePath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	s.logger.Debug("soffice finished",
		"source", filepath.Base(sourcePath),
		"target", target,
		"duration", time.Since(start),
		"err", err)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", convert.ErrToolTimeout(fmt.Sprintf("document conversion exceeded %s", s.timeout), nil)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", convert.ErrExternalTool("document conversion tool is not available", err)
		}
		return "", convert.ErrExternalTool(strings.TrimSpace(stderr.String()), err)
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	out := filepath.Join(outDir, base+"."+target.Extension())
	if _, err := os.Stat(out); err != nil {
		return "", convert.ErrExternalTool("converted file was not produced", err)
	}
	return out, nil
}
