package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mediamorph/mediamorph/pkg/models"
)

func TestResolveImagePairs(t *testing.T) {
	formats := []models.Format{models.FormatJPG, models.FormatPNG, models.FormatWEBP}
	for _, src := range formats {
		for _, dst := range formats {
			route, err := Resolve(src, dst)
			if err != nil {
				t.Errorf("Resolve(%s, %s) unexpectedly failed: %v", src, dst, err)
				continue
			}
			if route.Kind != models.KindImage {
				t.Errorf("Resolve(%s, %s) kind = %s", src, dst, route.Kind)
			}
		}
	}
}

func TestResolveVideoPairs(t *testing.T) {
	formats := []models.Format{models.FormatMP4, models.FormatAVI, models.FormatMOV, models.FormatMKV}
	for _, src := range formats {
		for _, dst := range formats {
			if _, err := Resolve(src, dst); err != nil {
				t.Errorf("Resolve(%s, %s) unexpectedly failed: %v", src, dst, err)
			}
		}
	}
}

func TestResolveDocumentLegality(t *testing.T) {
	type pair struct{ src, dst models.Format }

	legal := []pair{
		{models.FormatPDF, models.FormatDOCX},
		{models.FormatDOC, models.FormatPDF},
		{models.FormatDOCX, models.FormatPDF},
		{models.FormatDOC, models.FormatPPTX},
		{models.FormatDOCX, models.FormatPPTX},
		{models.FormatDOC, models.FormatTXT},
		{models.FormatDOCX, models.FormatTXT},
		{models.FormatTXT, models.FormatPDF},
		{models.FormatTXT, models.FormatDOCX},
	}
	for _, p := range legal {
		if _, err := Resolve(p.src, p.dst); err != nil {
			t.Errorf("Resolve(%s, %s) should be legal: %v", p.src, p.dst, err)
		}
	}

	illegal := []pair{
		{models.FormatPDF, models.FormatTXT},
		{models.FormatPDF, models.FormatPPTX},
		{models.FormatPDF, models.FormatPDF},
		{models.FormatTXT, models.FormatPPTX},
		{models.FormatTXT, models.FormatTXT},
		{models.FormatDOCX, models.FormatDOCX},
		{models.FormatDOCX, models.FormatDOC},
	}
	for _, p := range illegal {
		_, err := Resolve(p.src, p.dst)
		if err == nil {
			t.Errorf("Resolve(%s, %s) should be unsupported", p.src, p.dst)
			continue
		}
		if CodeOf(err) != ErrCodeUnsupported {
			t.Errorf("Resolve(%s, %s) code = %s, want %s", p.src, p.dst, CodeOf(err), ErrCodeUnsupported)
		}
	}
}

func TestDocumentTargets(t *testing.T) {
	got := DocumentTargets(models.FormatDOCX)
	want := []models.Format{models.FormatPDF, models.FormatPPTX, models.FormatTXT}
	if len(got) != len(want) {
		t.Fatalf("DocumentTargets(DOCX) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DocumentTargets(DOCX)[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if targets := DocumentTargets(models.FormatJPG); targets != nil {
		t.Errorf("DocumentTargets(JPG) = %v, want nil", targets)
	}
}

func TestResolveCrossFamily(t *testing.T) {
	if _, err := Resolve(models.FormatJPG, models.FormatMP4); CodeOf(err) != ErrCodeUnsupported {
		t.Fatalf("image → video should be unsupported, got %v", err)
	}
	if _, err := Resolve(models.FormatPDF, models.FormatPNG); CodeOf(err) != ErrCodeUnsupported {
		t.Fatalf("document → image should be unsupported, got %v", err)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrExternalTool("ffmpeg failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("wrapped cause not reachable via errors.Is")
	}
	var cerr *Error
	if !errors.As(err, &cerr) || cerr.Code != ErrCodeExternalTool {
		t.Fatalf("errors.As failed: %v", err)
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(errors.New("plain")) != ErrCodeInternal {
		t.Fatalf("foreign errors should map to INTERNAL_ERROR")
	}
}

func TestWorkspaceCleanupRemovesStrayFiles(t *testing.T) {
	ws, err := NewWorkspace()
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}

	if _, err := ws.WriteFile("source.mp4", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Simulate an external tool dropping an extra file.
	if err := os.WriteFile(filepath.Join(ws.Dir, "stray.log"), []byte("y"), 0o600); err != nil {
		t.Fatalf("stray write: %v", err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatalf("workspace directory still exists")
	}
}
