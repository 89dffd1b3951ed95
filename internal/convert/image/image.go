// Package image converts images between JPG, PNG and WEBP, applying
// the per-user quality and optimization settings and, for JPEG output,
// optional device EXIF tags.
package image

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp" // register WEBP decoder

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/metadata"
	"github.com/mediamorph/mediamorph/internal/session"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// Result is a finished image conversion: the encoded bytes and a
// human-readable summary of the settings that were applied.
type Result struct {
	Data    []byte
	Summary string
}

// Converter re-encodes images. Identity conversions (PNG→PNG etc.) go
// through the full decode/encode path so settings and metadata still
// apply.
type Converter struct {
	logger *slog.Logger
}

// NewConverter creates an image converter.
func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{logger: logger.With("adapter", "image")}
}

// Convert decodes data and re-encodes it as target. preset is applied
// only for JPEG targets; PNG and WEBP output never receives EXIF.
func (c *Converter) Convert(data []byte, target models.Format, settings session.Settings, preset metadata.Preset) (*Result, error) {
	img, sourceFormat, err := stdimage.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, convert.ErrDecode("could not decode image", err)
	}

	c.logger.Debug("converting image",
		"source", sourceFormat,
		"target", target,
		"quality", settings.ImageQuality,
		"optimize", settings.OptimizeSize)

	var out bytes.Buffer
	exifApplied := false

	switch target {
	case models.FormatJPG:
		// JPEG cannot carry alpha; composite onto white instead of
		// dropping the channel.
		flattened := flattenAlpha(img)
		if err := jpeg.Encode(&out, flattened, &jpeg.Options{Quality: settings.ImageQuality}); err != nil {
			return nil, convert.ErrInternal("encode jpeg", err)
		}
		if tags, ok := metadata.Exif(preset); ok {
			tagged, err := injectExif(out.Bytes(), tags)
			if err != nil {
				return nil, convert.ErrInternal("write exif tags", err)
			}
			out.Reset()
			out.Write(tagged)
			exifApplied = true
		}

	case models.FormatPNG:
		enc := png.Encoder{CompressionLevel: png.DefaultCompression}
		if settings.OptimizeSize {
			enc.CompressionLevel = png.BestCompression
		}
		if err := enc.Encode(&out, img); err != nil {
			return nil, convert.ErrInternal("encode png", err)
		}

	case models.FormatWEBP:
		opts := &webp.Options{Lossless: false, Quality: float32(settings.ImageQuality)}
		if err := webp.Encode(&out, img, opts); err != nil {
			return nil, convert.ErrInternal("encode webp", err)
		}

	default:
		return nil, convert.ErrUnsupported(fmt.Sprintf("unsupported image target %s", target))
	}

	return &Result{
		Data:    out.Bytes(),
		Summary: summarize(settings, preset, exifApplied),
	}, nil
}

// flattenAlpha composites an image onto a white background when it has
// an alpha channel, returning the original image unchanged otherwise.
func flattenAlpha(img stdimage.Image) stdimage.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	bounds := img.Bounds()
	flat := stdimage.NewRGBA(bounds)
	draw.Draw(flat, bounds, stdimage.White, stdimage.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

func summarize(settings session.Settings, preset metadata.Preset, exifApplied bool) string {
	quality := "medium"
	switch settings.ImageQuality {
	case session.QualityHigh:
		quality = "high"
	case session.QualityLow:
		quality = "low"
	}
	optimize := "off"
	if settings.OptimizeSize {
		optimize = "on"
	}
	md := "unchanged"
	if exifApplied {
		md = string(preset)
	}
	var b strings.Builder
	b.WriteString("Settings used:\n")
	b.WriteString("• Quality: " + quality + "\n")
	b.WriteString("• Optimization: " + optimize + "\n")
	b.WriteString("• Metadata: " + md)
	return b.String()
}
