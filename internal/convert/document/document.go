// Package document converts office documents between PDF, DOC, DOCX,
// TXT and PPTX. Conversions that only need OOXML plumbing run
// in-process; the rest shell out through an OfficeConverter.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// Result is a finished document conversion.
type Result struct {
	Data     []byte
	FileName string
}

// Adapter routes document conversions to the right strategy.
type Adapter struct {
	office OfficeConverter
	logger *slog.Logger
}

// NewAdapter creates a document adapter. office may not be nil.
func NewAdapter(office OfficeConverter, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{office: office, logger: logger.With("adapter", "document")}
}

// Convert converts data from source to target. fileName is the
// uploaded file's name and names the result after rewriting its
// extension.
func (a *Adapter) Convert(ctx context.Context, data []byte, fileName string, source, target models.Format) (*Result, error) {
	a.logger.Debug("converting document", "source", source, "target", target, "file", fileName)

	out, err := a.convert(ctx, data, source, target)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out, FileName: renameExt(fileName, target)}, nil
}

func (a *Adapter) convert(ctx context.Context, data []byte, source, target models.Format) ([]byte, error) {
	switch {
	case source == models.FormatTXT && target == models.FormatPDF:
		return renderPDF(string(data))

	case source == models.FormatTXT && target == models.FormatDOCX:
		return writeDocx(string(data))

	case source == models.FormatDOCX && target == models.FormatTXT:
		paragraphs, err := readParagraphs(data)
		if err != nil {
			return nil, convert.ErrDecode("could not read DOCX", err)
		}
		return []byte(extractText(paragraphs)), nil

	case source == models.FormatDOCX && target == models.FormatPPTX:
		paragraphs, err := readParagraphs(data)
		if err != nil {
			return nil, convert.ErrDecode("could not read DOCX", err)
		}
		return writeDeck(buildDeck(paragraphs))

	case source == models.FormatDOC && target == models.FormatPPTX:
		// The slide splitter reads OOXML, so legacy DOC goes through a
		// DOCX intermediate first.
		docx, err := a.viaOffice(ctx, data, source, models.FormatDOCX)
		if err != nil {
			return nil, err
		}
		paragraphs, err := readParagraphs(docx)
		if err != nil {
			return nil, convert.ErrDecode("could not read converted DOCX", err)
		}
		return writeDeck(buildDeck(paragraphs))

	case source == models.FormatPDF && target == models.FormatDOCX,
		source == models.FormatDOC && (target == models.FormatPDF || target == models.FormatTXT),
		source == models.FormatDOCX && target == models.FormatPDF:
		return a.viaOffice(ctx, data, source, target)
	}

	return nil, convert.ErrUnsupported(fmt.Sprintf("unsupported document conversion %s to %s", source, target))
}

// viaOffice round-trips data through the external office converter
// inside a private workspace.
func (a *Adapter) viaOffice(ctx context.Context, data []byte, source, target models.Format) ([]byte, error) {
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

	outPath, err := a.office.Convert(ctx, srcPath, target, ws.Dir)
	if err != nil {
		return nil, err
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, convert.ErrExternalTool("read converted file", err)
	}
	return out, nil
}

// renameExt rewrites a file name's extension for the target format.
func renameExt(fileName string, target models.Format) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" {
		base = "converted"
	}
	return base + "." + target.Extension()
}
