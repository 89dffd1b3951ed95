package engine

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/convert/document"
	"github.com/mediamorph/mediamorph/internal/convert/image"
	"github.com/mediamorph/mediamorph/internal/convert/video"
	"github.com/mediamorph/mediamorph/internal/metadata"
	"github.com/mediamorph/mediamorph/internal/session"
	"github.com/mediamorph/mediamorph/pkg/models"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type fakeImages struct {
	err       error
	gotTarget models.Format
	gotPreset metadata.Preset
	gotQual   int
	calls     int
}

func (f *fakeImages) Convert(data []byte, target models.Format, settings session.Settings, preset metadata.Preset) (*image.Result, error) {
	f.calls++
	f.gotTarget = target
	f.gotPreset = preset
	f.gotQual = settings.ImageQuality
	if f.err != nil {
		return nil, f.err
	}
	return &image.Result{Data: []byte("img-out"), Summary: "Settings used"}, nil
}

type fakeDocs struct {
	err       error
	gotSource models.Format
	gotTarget models.Format
	gotName   string
	calls     int
}

func (f *fakeDocs) Convert(_ context.Context, data []byte, fileName string, source, target models.Format) (*document.Result, error) {
	f.calls++
	f.gotSource = source
	f.gotTarget = target
	f.gotName = fileName
	if f.err != nil {
		return nil, f.err
	}
	return &document.Result{Data: []byte("doc-out"), FileName: "out." + target.Extension()}, nil
}

type fakeVideos struct {
	err       error
	gotSource models.Format
	gotTarget models.Format
	gotPreset metadata.Preset
	calls     int
}

func (f *fakeVideos) Convert(_ context.Context, data []byte, fileName string, source, target models.Format, preset metadata.Preset) (*video.Result, error) {
	f.calls++
	f.gotSource = source
	f.gotTarget = target
	f.gotPreset = preset
	if f.err != nil {
		return nil, f.err
	}
	return &video.Result{Data: []byte("vid-out"), FileName: "out." + target.Extension(), Summary: "Metadata: unchanged"}, nil
}

type fixture struct {
	engine *Engine
	store  *session.MemoryStore
	images *fakeImages
	docs   *fakeDocs
	videos *fakeVideos
}

func newFixture() *fixture {
	f := &fixture{
		store:  session.NewMemoryStore(),
		images: &fakeImages{},
		docs:   &fakeDocs{},
		videos: &fakeVideos{},
	}
	f.engine = New(f.store, f.images, f.docs, f.videos, nil, nil)
	return f
}

func (f *fixture) text(t *testing.T, user int64, text string) []models.Action {
	t.Helper()
	return f.engine.Handle(context.Background(), models.Event{Type: models.EventTextReply, UserID: user, Text: text})
}

func (f *fixture) upload(t *testing.T, user int64, kind models.MediaKind, name, mime string) []models.Action {
	t.Helper()
	return f.engine.Handle(context.Background(), models.Event{
		Type:   models.EventFileUploaded,
		UserID: user,
		Upload: &models.FileUpload{Kind: kind, Data: []byte("payload"), FileName: name, MIMEType: mime},
	})
}

func firstText(actions []models.Action) string {
	if len(actions) == 0 {
		return ""
	}
	return actions[0].Text
}

func TestStartCommandShowsMainMenu(t *testing.T) {
	f := newFixture()

	actions := f.engine.Handle(context.Background(), models.Event{Type: models.EventCommand, UserID: 1, Command: "start"})
	if len(actions) != 1 || actions[0].Type != models.ActionPrompt {
		t.Fatalf("actions = %+v", actions)
	}
	if actions[0].Keyboard == nil || len(actions[0].Keyboard.Rows) == 0 {
		t.Errorf("start reply should carry the main keyboard")
	}
}

func TestImageUploadThenFormatConverts(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindImage, "photo.png", "image/png")
	actions := f.text(t, 1, "JPG")

	if f.images.calls != 1 || f.images.gotTarget != models.FormatJPG {
		t.Fatalf("images fake: %+v", f.images)
	}
	if len(actions) != 2 || actions[0].Type != models.ActionSendFile {
		t.Fatalf("actions = %+v", actions)
	}
	if actions[0].File.FileName != "converted.jpg" {
		t.Errorf("file name = %q", actions[0].File.FileName)
	}

	if s := f.store.Snapshot(1); s.PendingImage != nil {
		t.Errorf("pending image should be cleared after conversion")
	}
}

func TestFormatWithoutArtifactIsGuidance(t *testing.T) {
	f := newFixture()

	actions := f.text(t, 1, "JPG")
	if firstText(actions) != uploadFirstText {
		t.Fatalf("reply = %q", firstText(actions))
	}
	if f.images.calls != 0 {
		t.Errorf("no conversion should run")
	}
}

func TestCancelClearsEverythingAndIsIdempotent(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindImage, "a.png", "image/png")
	f.upload(t, 1, models.KindVideo, "b.mp4", "video/mp4")
	f.upload(t, 1, models.KindDocument, "c.pdf", "application/pdf")

	f.text(t, 1, "Cancel")
	s := f.store.Snapshot(1)
	if s.PendingImage != nil || s.PendingVideo != nil || s.PendingDocument != nil || s.PendingFile != nil {
		t.Fatalf("cancel left pending state: %+v", s)
	}

	actions := f.text(t, 1, "Cancel")
	if firstText(actions) != cancelledText {
		t.Errorf("second cancel should still reply calmly: %q", firstText(actions))
	}
}

func TestDocxNumericFlow(t *testing.T) {
	f := newFixture()

	actions := f.upload(t, 1, models.KindDocument, "report.docx", docxMIME)
	if !strings.Contains(firstText(actions), "1. PDF") {
		t.Fatalf("docx upload should prompt the numeric choice: %q", firstText(actions))
	}

	s := f.store.Snapshot(1)
	if s.PendingFile == nil {
		t.Fatalf("docx upload should stage a pending file")
	}
	stagedPath := s.PendingFile.Path

	// An out-of-range numeric keeps the pending file for a retry.
	actions = f.text(t, 1, "3")
	if firstText(actions) != invalidDocxChoiceText {
		t.Errorf("reply = %q", firstText(actions))
	}
	if s := f.store.Snapshot(1); s.PendingFile == nil {
		t.Fatalf("invalid choice must not drop the pending file")
	}

	actions = f.text(t, 1, "2")
	if f.docs.calls != 1 || f.docs.gotSource != models.FormatDOCX || f.docs.gotTarget != models.FormatPPTX {
		t.Fatalf("docs fake: %+v", f.docs)
	}
	if len(actions) != 2 || actions[0].Type != models.ActionSendFile {
		t.Fatalf("actions = %+v", actions)
	}

	if s := f.store.Snapshot(1); s.PendingFile != nil || s.PendingDocument != nil {
		t.Errorf("document state should be cleared after conversion")
	}
	if _, err := os.Stat(stagedPath); !os.IsNotExist(err) {
		t.Errorf("staged file %s should be removed", stagedPath)
	}
}

func TestNumericWithoutPendingFile(t *testing.T) {
	f := newFixture()

	actions := f.text(t, 1, "1")
	if firstText(actions) != uploadFirstText {
		t.Fatalf("reply = %q", firstText(actions))
	}
}

func TestDefaultFormatOverloadDoesNotConvert(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindImage, "a.png", "image/png")
	f.text(t, 1, "Settings")
	f.text(t, 1, "Default format")
	f.text(t, 1, "JPG")

	if f.images.calls != 0 {
		t.Fatalf("format token in settings sub-state must not trigger a conversion")
	}
	s := f.store.Snapshot(1)
	if s.Settings.DefaultFormat != models.FormatJPG {
		t.Errorf("default format = %s", s.Settings.DefaultFormat)
	}
	if s.PendingImage == nil {
		t.Errorf("pending image should survive a settings change")
	}
	if s.Awaiting != session.AwaitingNone {
		t.Errorf("awaiting = %v", s.Awaiting)
	}

	// With the sub-state resolved, the same token now converts.
	f.text(t, 1, "JPG")
	if f.images.calls != 1 {
		t.Errorf("conversion should run once the sub-state is cleared")
	}
}

func TestQualitySettingFlow(t *testing.T) {
	f := newFixture()

	f.text(t, 1, "Settings")
	f.text(t, 1, "Image quality")
	f.text(t, 1, "Low")

	if s := f.store.Snapshot(1); s.Settings.ImageQuality != session.QualityLow {
		t.Errorf("quality = %d", s.Settings.ImageQuality)
	}
}

func TestVideoPresetSelection(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindVideo, "clip.mov", "video/quicktime")
	f.text(t, 1, "iPhone")
	f.text(t, 1, "MP4")

	if f.videos.calls != 1 {
		t.Fatalf("videos fake: %+v", f.videos)
	}
	if f.videos.gotPreset != metadata.PresetIPhone {
		t.Errorf("preset = %q", f.videos.gotPreset)
	}
	if f.videos.gotSource != models.FormatMOV {
		t.Errorf("source = %s", f.videos.gotSource)
	}

	if s := f.store.Snapshot(1); s.SelectedPreset != "" || s.PendingVideo != nil {
		t.Errorf("video state should be cleared after conversion")
	}
}

func TestVideoDefaultPresetFromSettings(t *testing.T) {
	f := newFixture()

	f.text(t, 1, "Settings")
	f.text(t, 1, "Video metadata")
	f.text(t, 1, "CapCut")

	f.upload(t, 1, models.KindVideo, "clip.mp4", "video/mp4")
	f.text(t, 1, "MKV")

	if f.videos.gotPreset != metadata.PresetCapCut {
		t.Errorf("preset = %q, want settings default", f.videos.gotPreset)
	}
}

func TestConvertWithoutMetadataDiscardsPreset(t *testing.T) {
	f := newFixture()

	actions := f.upload(t, 1, models.KindVideo, "clip.mp4", "video/mp4")
	if kb := actions[0].Keyboard; kb == nil || !keyboardHasLabel(kb, labelNoMetadata) {
		t.Fatalf("format keyboard missing %q: %+v", labelNoMetadata, actions[0].Keyboard)
	}

	f.text(t, 1, "iPhone")
	actions = f.text(t, 1, labelNoMetadata)
	if !strings.Contains(firstText(actions), "Pick the target format") {
		t.Fatalf("expected format reprompt, got %+v", actions)
	}

	f.text(t, 1, "MP4")
	if f.videos.calls != 1 || f.videos.gotPreset != "" {
		t.Errorf("videos: calls=%d preset=%q", f.videos.calls, f.videos.gotPreset)
	}
	if got := f.store.Snapshot(1); got.PendingVideo != nil || got.SelectedPreset != "" {
		t.Errorf("session not cleared: %+v", got)
	}
}

func TestConvertWithoutMetadataNeedsArtifact(t *testing.T) {
	f := newFixture()

	actions := f.text(t, 1, labelNoMetadata)
	if firstText(actions) != uploadFirstText {
		t.Fatalf("actions = %+v", actions)
	}
}

func keyboardHasLabel(kb *models.Keyboard, label string) bool {
	for _, row := range kb.Rows {
		for _, l := range row {
			if l == label {
				return true
			}
		}
	}
	return false
}

func TestExifDisabledSuppressesImagePreset(t *testing.T) {
	f := newFixture()

	f.text(t, 1, "Settings")
	f.text(t, 1, "EXIF data")
	f.text(t, 1, "Disable")

	f.upload(t, 1, models.KindImage, "a.png", "image/png")
	f.text(t, 1, "iPhone")
	f.text(t, 1, "JPG")

	if f.images.gotPreset != "" {
		t.Errorf("preset = %q, want none with EXIF disabled", f.images.gotPreset)
	}
}

func TestUnsupportedDocumentTargetClearsState(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindDocument, "scan.pdf", "application/pdf")
	actions := f.text(t, 1, "PPTX")

	if firstText(actions) != failUnsupportedText {
		t.Fatalf("reply = %q", firstText(actions))
	}
	if f.docs.calls != 0 {
		t.Errorf("no conversion should run for an unsupported pair")
	}
	if s := f.store.Snapshot(1); s.PendingDocument != nil {
		t.Errorf("unsupported request drops the pending document")
	}
}

func TestConversionFailureReportsAndClears(t *testing.T) {
	f := newFixture()
	f.videos.err = convert.ErrExternalTool("video conversion tool is not available", nil)

	f.upload(t, 1, models.KindVideo, "clip.mp4", "video/mp4")
	actions := f.text(t, 1, "AVI")

	if firstText(actions) != failToolMissingText {
		t.Fatalf("reply = %q", firstText(actions))
	}
	if s := f.store.Snapshot(1); s.PendingVideo != nil {
		t.Errorf("pending video should be cleared after a failed attempt")
	}
}

func TestImageSentAsDocumentRoutesToImageFlow(t *testing.T) {
	f := newFixture()

	f.upload(t, 1, models.KindDocument, "photo.jpg", "image/jpeg")

	s := f.store.Snapshot(1)
	if s.PendingImage == nil || s.PendingDocument != nil {
		t.Fatalf("image-typed document should land in the image slot: %+v", s)
	}

	f.text(t, 1, "PNG")
	if f.images.calls != 1 || f.images.gotTarget != models.FormatPNG {
		t.Errorf("images fake: %+v", f.images)
	}
}

func TestPresetWithoutArtifactIsGuidance(t *testing.T) {
	f := newFixture()

	actions := f.text(t, 1, "Android")
	if firstText(actions) != uploadFirstText {
		t.Fatalf("reply = %q", firstText(actions))
	}
}
