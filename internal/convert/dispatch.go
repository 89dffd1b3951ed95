package convert

import (
	"fmt"

	"github.com/mediamorph/mediamorph/pkg/models"
)

// Route is a resolved conversion: which adapter family handles it and
// the validated source/target pair.
type Route struct {
	Kind   models.MediaKind
	Source models.Format
	Target models.Format
}

// documentRoutes enumerates the legal document pairs. Everything else
// in the document family is refused. PDF→TXT, PDF→PPTX and TXT→PPTX
// are deliberately absent.
var documentRoutes = map[models.Format][]models.Format{
	models.FormatPDF:  {models.FormatDOCX},
	models.FormatDOC:  {models.FormatPDF, models.FormatPPTX, models.FormatTXT},
	models.FormatDOCX: {models.FormatPDF, models.FormatPPTX, models.FormatTXT},
	models.FormatTXT:  {models.FormatPDF, models.FormatDOCX},
}

// DocumentTargets lists the legal targets for a document source in
// menu order. Unknown sources yield nil.
func DocumentTargets(source models.Format) []models.Format {
	targets := documentRoutes[source]
	if targets == nil {
		return nil
	}
	out := make([]models.Format, len(targets))
	copy(out, targets)
	return out
}

// Resolve validates a source/target pair against the legality tables
// and returns the route. Identity conversions within the image and
// video families are legal: they still re-encode so settings and
// metadata injection apply.
func Resolve(source, target models.Format) (Route, error) {
	srcKind := source.Family()
	dstKind := target.Family()
	if srcKind == "" || dstKind == "" {
		return Route{}, ErrUnsupported(fmt.Sprintf("unknown format pair %s → %s", source, target))
	}
	if srcKind != dstKind {
		return Route{}, ErrUnsupported(fmt.Sprintf("cannot convert %s to %s across media kinds", source, target))
	}

	switch srcKind {
	case models.KindImage:
		// Every image format reaches every other, including itself.
		return Route{Kind: models.KindImage, Source: source, Target: target}, nil

	case models.KindVideo:
		return Route{Kind: models.KindVideo, Source: source, Target: target}, nil

	case models.KindDocument:
		for _, t := range documentRoutes[source] {
			if t == target {
				return Route{Kind: models.KindDocument, Source: source, Target: target}, nil
			}
		}
		return Route{}, ErrUnsupported(fmt.Sprintf("document conversion %s → %s is not supported", source, target))
	}

	return Route{}, ErrUnsupported(fmt.Sprintf("no adapter for %s", srcKind))
}
