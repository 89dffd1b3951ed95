// Package engine implements the conversion state machine: it
// interprets inbound chat events against per-user session state,
// routes conversions through the media adapters, and emits the
// prompts, files and messages the transport should deliver.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/convert/document"
	"github.com/mediamorph/mediamorph/internal/convert/image"
	"github.com/mediamorph/mediamorph/internal/convert/video"
	"github.com/mediamorph/mediamorph/internal/metadata"
	"github.com/mediamorph/mediamorph/internal/session"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// ImageConverter converts image bytes in-process.
type ImageConverter interface {
	Convert(data []byte, target models.Format, settings session.Settings, preset metadata.Preset) (*image.Result, error)
}

// DocumentConverter converts document bytes.
type DocumentConverter interface {
	Convert(ctx context.Context, data []byte, fileName string, source, target models.Format) (*document.Result, error)
}

// VideoConverter transcodes video bytes.
type VideoConverter interface {
	Convert(ctx context.Context, data []byte, fileName string, source, target models.Format, preset metadata.Preset) (*video.Result, error)
}

// Metrics records conversion outcomes. The engine never blocks on it.
type Metrics interface {
	ObserveConversion(kind models.MediaKind, target models.Format, outcome string, elapsed time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) ObserveConversion(models.MediaKind, models.Format, string, time.Duration) {}

// Engine is the conversion state machine.
type Engine struct {
	store     session.Store
	images    ImageConverter
	documents DocumentConverter
	videos    VideoConverter
	metrics   Metrics
	logger    *slog.Logger
}

// New creates an engine. metrics and logger may be nil.
func New(store session.Store, images ImageConverter, documents DocumentConverter, videos VideoConverter, metrics Metrics, logger *slog.Logger) *Engine {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		images:    images,
		documents: documents,
		videos:    videos,
		metrics:   metrics,
		logger:    logger.With("component", "engine"),
	}
}

// Handle processes one inbound event and returns the outbound actions.
// The whole event runs inside the user's session critical section, so
// two events for the same user never race on session state.
func (e *Engine) Handle(ctx context.Context, ev models.Event) []models.Action {
	var actions []models.Action
	e.store.With(ev.UserID, func(s *session.Session) {
		switch ev.Type {
		case models.EventCommand:
			actions = e.handleCommand(s, ev.Command)
		case models.EventFileUploaded:
			actions = e.handleUpload(s, ev.Upload)
		case models.EventTextReply:
			actions = e.handleText(ctx, s, ev.Text)
		default:
			e.logger.Warn("unknown event type", "type", ev.Type, "user", ev.UserID)
		}
	})
	return actions
}

func (e *Engine) handleCommand(s *session.Session, name string) []models.Action {
	switch name {
	case "start":
		return []models.Action{models.Prompt(welcomeText, mainKeyboard())}
	case "help":
		return []models.Action{models.Prompt(helpText, mainKeyboard())}
	case "formats":
		return []models.Action{models.Prompt(formatsText, mainKeyboard())}
	case "settings":
		s.Awaiting = session.AwaitingNone
		return []models.Action{models.Prompt(settingsText(s.Settings), settingsKeyboard())}
	}
	return []models.Action{models.Prompt(welcomeText, mainKeyboard())}
}

func (e *Engine) handleUpload(s *session.Session, up *models.FileUpload) []models.Action {
	if up == nil || len(up.Data) == 0 {
		return []models.Action{models.SendText(failDecodeText)}
	}

	format, kind := classifyUpload(up)
	if kind == "" {
		return []models.Action{models.SendText("I don't recognize that file type. Tap Formats to see what I support.")}
	}

	e.logger.Info("file uploaded", "kind", kind, "format", format, "bytes", len(up.Data))

	switch kind {
	case models.KindImage:
		s.PendingImage = up.Data
		return []models.Action{models.Prompt(
			"Image received! Pick a target format, or tap a device preset first to stamp its metadata.",
			imageFormatKeyboard())}

	case models.KindVideo:
		s.PendingVideo = &session.PendingVideo{Data: up.Data, Name: up.FileName, MIMEType: up.MIMEType}
		return []models.Action{models.Prompt(
			"Video received! Pick a target format, or tap a device preset first to stamp its metadata.",
			videoFormatKeyboard())}

	case models.KindDocument:
		s.PendingDocument = &session.PendingDocument{Data: up.Data, Name: up.FileName, Source: format}
		if format == models.FormatDOCX {
			return e.stageDocxChoice(s, up)
		}
		return []models.Action{models.Prompt(
			"Document received! What should I convert "+string(format)+" to?",
			documentFormatKeyboard(format))}
	}

	return []models.Action{models.SendText(uploadFirstText)}
}

// stageDocxChoice writes the DOCX to disk for the numeric 1/2 sub-flow
// and prompts for the choice.
func (e *Engine) stageDocxChoice(s *session.Session, up *models.FileUpload) []models.Action {
	f, err := os.CreateTemp("", "mediamorph-*.docx")
	if err != nil {
		e.logger.Error("stage docx failed", "error", err)
		return []models.Action{models.Prompt(failGenericText, mainKeyboard())}
	}
	path := f.Name()
	_, werr := f.Write(up.Data)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		e.logger.Error("stage docx failed", "write", werr, "close", cerr)
		return []models.Action{models.Prompt(failGenericText, mainKeyboard())}
	}

	s.PendingFile = &session.PendingFile{Path: path, Name: up.FileName, MIMEType: up.MIMEType}
	return []models.Action{models.Prompt(docxChoiceText, docxChoiceKeyboard())}
}

func (e *Engine) handleText(ctx context.Context, s *session.Session, text string) []models.Action {
	text = strings.TrimSpace(text)

	if strings.EqualFold(text, labelCancel) {
		return e.cancel(s)
	}

	// Settings sub-states are consulted before any token
	// interpretation: format tokens are overloaded between "convert
	// now" and "change default format" and only the session flag
	// disambiguates them.
	if s.Awaiting != session.AwaitingNone {
		if actions, handled := e.handleAwaitingSetting(s, text); handled {
			return actions
		}
	}

	if actions, handled := e.handleMenuLabel(s, text); handled {
		return actions
	}

	if preset, ok := metadata.Parse(text); ok {
		return e.handlePresetChoice(s, preset)
	}

	if isNumericChoice(text) {
		return e.handleNumericChoice(ctx, s, text)
	}

	if format, ok := models.ParseFormat(text); ok {
		return e.handleFormatChoice(ctx, s, format)
	}

	return []models.Action{models.Prompt(welcomeText, mainKeyboard())}
}

func (e *Engine) cancel(s *session.Session) []models.Action {
	if s.PendingFile != nil {
		_ = os.Remove(s.PendingFile.Path)
	}
	s.ClearPending()
	s.Awaiting = session.AwaitingNone
	return []models.Action{models.Prompt(cancelledText, mainKeyboard())}
}

// handleAwaitingSetting interprets text as a settings value for the
// active sub-state. Unrecognized values keep the sub-state so the user
// can retry.
func (e *Engine) handleAwaitingSetting(s *session.Session, text string) ([]models.Action, bool) {
	if text == labelBack {
		s.Awaiting = session.AwaitingNone
		return []models.Action{models.Prompt(settingsText(s.Settings), settingsKeyboard())}, true
	}

	switch s.Awaiting {
	case session.AwaitingQuality:
		var quality int
		switch text {
		case labelHigh:
			quality = session.QualityHigh
		case labelMedium:
			quality = session.QualityMedium
		case labelLow:
			quality = session.QualityLow
		default:
			return []models.Action{models.Prompt("Pick High, Medium or Low.", qualityKeyboard())}, true
		}
		s.Settings.ImageQuality = quality
		s.Awaiting = session.AwaitingNone
		return e.settingSaved(s), true

	case session.AwaitingDefaultFormat:
		format, ok := models.ParseFormat(text)
		if !ok || format.Family() != models.KindImage {
			return []models.Action{models.Prompt("Pick JPG, PNG or WEBP.", imageOnlyKeyboard())}, true
		}
		s.Settings.DefaultFormat = format
		s.Awaiting = session.AwaitingNone
		return e.settingSaved(s), true

	case session.AwaitingExifToggle, session.AwaitingOptimizeToggle:
		var value bool
		switch text {
		case labelEnable:
			value = true
		case labelDisable:
			value = false
		default:
			return []models.Action{models.Prompt("Pick Enable or Disable.", toggleKeyboard())}, true
		}
		if s.Awaiting == session.AwaitingExifToggle {
			s.Settings.MaintainEXIF = value
		} else {
			s.Settings.OptimizeSize = value
		}
		s.Awaiting = session.AwaitingNone
		return e.settingSaved(s), true

	case session.AwaitingVideoPreset:
		if text == labelRemoveMetadata {
			s.Settings.VideoMetadata = ""
			s.Awaiting = session.AwaitingNone
			return e.settingSaved(s), true
		}
		if preset, ok := metadata.Parse(text); ok {
			s.Settings.VideoMetadata = string(preset)
			s.Awaiting = session.AwaitingNone
			return e.settingSaved(s), true
		}
		return []models.Action{models.Prompt("Pick a preset, or Remove metadata.", videoMetadataKeyboard())}, true
	}

	return nil, false
}

func (e *Engine) settingSaved(s *session.Session) []models.Action {
	return []models.Action{models.Prompt("Saved.\n\n"+settingsText(s.Settings), settingsKeyboard())}
}

func (e *Engine) handleMenuLabel(s *session.Session, text string) ([]models.Action, bool) {
	switch text {
	case labelConvertFile:
		return []models.Action{models.SendText("Send me an image, a document or a video.")}, true
	case labelHelp:
		return []models.Action{models.Prompt(helpText, mainKeyboard())}, true
	case labelFormats:
		return []models.Action{models.Prompt(formatsText, mainKeyboard())}, true
	case labelSettings:
		s.Awaiting = session.AwaitingNone
		return []models.Action{models.Prompt(settingsText(s.Settings), settingsKeyboard())}, true
	case labelImageQuality:
		s.Awaiting = session.AwaitingQuality
		return []models.Action{models.Prompt("Current quality: "+qualityName(s.Settings.ImageQuality), qualityKeyboard())}, true
	case labelDefaultFormat:
		s.Awaiting = session.AwaitingDefaultFormat
		return []models.Action{models.Prompt("Current default format: "+string(s.Settings.DefaultFormat), imageOnlyKeyboard())}, true
	case labelExifData:
		s.Awaiting = session.AwaitingExifToggle
		return []models.Action{models.Prompt("EXIF data is "+onOff(s.Settings.MaintainEXIF)+".", toggleKeyboard())}, true
	case labelOptimization:
		s.Awaiting = session.AwaitingOptimizeToggle
		return []models.Action{models.Prompt("Size optimization is "+onOff(s.Settings.OptimizeSize)+".", toggleKeyboard())}, true
	case labelVideoMetadata:
		s.Awaiting = session.AwaitingVideoPreset
		current := s.Settings.VideoMetadata
		if current == "" {
			current = "none"
		}
		return []models.Action{models.Prompt("Default video metadata preset: "+current, videoMetadataKeyboard())}, true
	case labelBack:
		s.Awaiting = session.AwaitingNone
		return []models.Action{models.Prompt(welcomeText, mainKeyboard())}, true
	case labelNoMetadata:
		return e.handleNoMetadataChoice(s), true
	}
	return nil, false
}

// handleNoMetadataChoice drops any selected preset and reissues the
// format prompt, so a tapped preset can be undone without cancelling
// the upload.
func (e *Engine) handleNoMetadataChoice(s *session.Session) []models.Action {
	switch {
	case s.PendingVideo != nil:
		s.SelectedPreset = ""
		return []models.Action{models.Prompt(
			"Metadata will not be changed. Pick the target format.",
			videoFormatKeyboard())}
	case s.PendingImage != nil:
		s.SelectedPreset = ""
		return []models.Action{models.Prompt(
			"Metadata will not be changed. Pick the target format.",
			imageFormatKeyboard())}
	}
	return []models.Action{models.SendText(uploadFirstText)}
}

// handlePresetChoice stores the preset for the pending artifact and
// reissues the format prompt for its kind.
func (e *Engine) handlePresetChoice(s *session.Session, preset metadata.Preset) []models.Action {
	switch {
	case s.PendingVideo != nil:
		s.SelectedPreset = string(preset)
		return []models.Action{models.Prompt(
			"Metadata preset: "+string(preset)+". Now pick the target format.",
			videoFormatKeyboard())}
	case s.PendingImage != nil:
		s.SelectedPreset = string(preset)
		return []models.Action{models.Prompt(
			"Metadata preset: "+string(preset)+". Now pick the target format.",
			imageFormatKeyboard())}
	}
	return []models.Action{models.SendText(uploadFirstText)}
}

func isNumericChoice(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// handleNumericChoice runs the DOCX 1/2 sub-flow: 1 converts to PDF, 2
// to PPTX. Anything else keeps the pending file so the user can retry.
func (e *Engine) handleNumericChoice(ctx context.Context, s *session.Session, text string) []models.Action {
	if s.PendingFile == nil {
		return []models.Action{models.SendText(uploadFirstText)}
	}

	var target models.Format
	switch text {
	case "1":
		target = models.FormatPDF
	case "2":
		target = models.FormatPPTX
	default:
		return []models.Action{models.Prompt(invalidDocxChoiceText, docxChoiceKeyboard())}
	}

	pending := s.PendingFile
	data, err := os.ReadFile(pending.Path)
	if err != nil {
		e.logger.Error("pending docx unreadable", "path", pending.Path, "error", err)
		e.clearDocumentState(s)
		return []models.Action{models.Prompt(failGenericText, mainKeyboard())}
	}

	name := pending.Name
	if name == "" {
		name = filepath.Base(pending.Path)
	}

	actions := e.convertDocument(ctx, s, data, name, models.FormatDOCX, target)
	return actions
}

// handleFormatChoice converts the pending artifact of the token's
// family. With no matching artifact the token is guidance, not an
// error.
func (e *Engine) handleFormatChoice(ctx context.Context, s *session.Session, target models.Format) []models.Action {
	switch target.Family() {
	case models.KindImage:
		if s.PendingImage != nil {
			return e.convertImage(s, target)
		}
	case models.KindVideo:
		if s.PendingVideo != nil {
			return e.convertVideo(ctx, s, target)
		}
	case models.KindDocument:
		if s.PendingDocument != nil {
			doc := s.PendingDocument
			return e.convertDocument(ctx, s, doc.Data, doc.Name, doc.Source, target)
		}
	}
	return []models.Action{models.SendText(uploadFirstText)}
}

func (e *Engine) convertImage(s *session.Session, target models.Format) []models.Action {
	data := s.PendingImage
	preset := metadata.Preset(s.SelectedPreset)
	if !s.Settings.MaintainEXIF {
		preset = ""
	}
	settings := s.Settings

	s.PendingImage = nil
	s.SelectedPreset = ""

	start := time.Now()
	res, err := e.images.Convert(data, target, settings, preset)
	if err != nil {
		e.observeFailure(models.KindImage, target, start, err)
		return []models.Action{models.Prompt(failureText(err), mainKeyboard())}
	}
	e.metrics.ObserveConversion(models.KindImage, target, "success", time.Since(start))

	return []models.Action{
		models.SendFile(res.Data, "converted."+target.Extension(), res.Summary),
		models.Prompt(doneText, mainKeyboard()),
	}
}

func (e *Engine) convertVideo(ctx context.Context, s *session.Session, target models.Format) []models.Action {
	pending := s.PendingVideo
	presetName := s.SelectedPreset
	if presetName == "" {
		presetName = s.Settings.VideoMetadata
	}
	preset, _ := metadata.Parse(presetName)

	s.PendingVideo = nil
	s.SelectedPreset = ""

	source := videoSourceFormat(pending)

	start := time.Now()
	res, err := e.videos.Convert(ctx, pending.Data, pending.Name, source, target, preset)
	if err != nil {
		e.observeFailure(models.KindVideo, target, start, err)
		return []models.Action{models.Prompt(failureText(err), mainKeyboard())}
	}
	e.metrics.ObserveConversion(models.KindVideo, target, "success", time.Since(start))

	return []models.Action{
		models.SendFile(res.Data, res.FileName, res.Summary),
		models.Prompt(doneText, mainKeyboard()),
	}
}

func (e *Engine) convertDocument(ctx context.Context, s *session.Session, data []byte, name string, source, target models.Format) []models.Action {
	if _, err := convert.Resolve(source, target); err != nil {
		e.clearDocumentState(s)
		return []models.Action{models.Prompt(failureText(err), mainKeyboard())}
	}

	start := time.Now()
	res, err := e.documents.Convert(ctx, data, name, source, target)

	// Document artifacts are cleared on success and failure alike.
	e.clearDocumentState(s)

	if err != nil {
		e.observeFailure(models.KindDocument, target, start, err)
		return []models.Action{models.Prompt(failureText(err), mainKeyboard())}
	}
	e.metrics.ObserveConversion(models.KindDocument, target, "success", time.Since(start))

	return []models.Action{
		models.SendFile(res.Data, res.FileName, ""),
		models.Prompt(doneText, mainKeyboard()),
	}
}

// clearDocumentState drops the document artifacts, removing the staged
// numeric-flow file if one exists.
func (e *Engine) clearDocumentState(s *session.Session) {
	if s.PendingFile != nil {
		_ = os.Remove(s.PendingFile.Path)
		s.PendingFile = nil
	}
	s.PendingDocument = nil
	s.SelectedPreset = ""
}

func (e *Engine) observeFailure(kind models.MediaKind, target models.Format, start time.Time, err error) {
	e.logger.Error("conversion failed", "kind", kind, "target", target, "code", convert.CodeOf(err), "error", err)
	e.metrics.ObserveConversion(kind, target, "failure", time.Since(start))
}

// videoSourceFormat derives the source format from the upload's MIME
// hint, falling back to the file extension, then MP4.
func videoSourceFormat(pending *session.PendingVideo) models.Format {
	if format, kind, ok := models.FormatForMIME(pending.MIMEType); ok && kind == models.KindVideo {
		return format
	}
	ext := strings.TrimPrefix(filepath.Ext(pending.Name), ".")
	if format, ok := models.ParseFormat(ext); ok && format.Family() == models.KindVideo {
		return format
	}
	return models.FormatMP4
}

// classifyUpload maps an upload to its format and family, trusting the
// declared kind only when the MIME table confirms it. Image files sent
// as documents still route to the image flow.
func classifyUpload(up *models.FileUpload) (models.Format, models.MediaKind) {
	if format, kind, ok := models.FormatForMIME(up.MIMEType); ok {
		return format, kind
	}
	ext := strings.TrimPrefix(filepath.Ext(up.FileName), ".")
	if format, ok := models.ParseFormat(ext); ok {
		return format, format.Family()
	}
	if up.Kind != "" {
		switch up.Kind {
		case models.KindImage:
			return models.FormatJPG, models.KindImage
		case models.KindVideo:
			return models.FormatMP4, models.KindVideo
		}
	}
	return "", ""
}

func imageOnlyKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{string(models.FormatJPG), string(models.FormatPNG), string(models.FormatWEBP)},
		{labelBack},
	}}
}

// failureText maps a conversion error to the user-facing message.
func failureText(err error) string {
	switch convert.CodeOf(err) {
	case convert.ErrCodeUnsupported:
		return failUnsupportedText
	case convert.ErrCodeDecode:
		return failDecodeText
	case convert.ErrCodeToolTimeout:
		return failTimeoutText
	case convert.ErrCodeExternalTool:
		if strings.Contains(err.Error(), "not available") {
			return failToolMissingText
		}
		return failGenericText
	case convert.ErrCodeMissingArtifact, convert.ErrCodeInvalidChoice:
		return uploadFirstText
	}
	return failGenericText
}
