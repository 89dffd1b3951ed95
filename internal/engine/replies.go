package engine

import (
	"fmt"
	"strings"

	"github.com/mediamorph/mediamorph/internal/convert"
	"github.com/mediamorph/mediamorph/internal/metadata"
	"github.com/mediamorph/mediamorph/internal/session"
	"github.com/mediamorph/mediamorph/pkg/models"
)

// Menu labels. These double as the reply-keyboard button captions, so
// matching is exact.
const (
	labelConvertFile = "Convert file"
	labelHelp        = "Help"
	labelFormats     = "Formats"
	labelSettings    = "Settings"

	labelImageQuality  = "Image quality"
	labelDefaultFormat = "Default format"
	labelExifData      = "EXIF data"
	labelOptimization  = "Optimization"
	labelVideoMetadata = "Video metadata"

	labelHigh   = "High"
	labelMedium = "Medium"
	labelLow    = "Low"

	labelEnable  = "Enable"
	labelDisable = "Disable"

	labelRemoveMetadata = "Remove metadata"
	labelNoMetadata     = "Convert without metadata"
	labelCancel         = "Cancel"
	labelBack           = "Back"
)

const welcomeText = "Hi! I convert images, documents and videos between formats.\n" +
	"Send me a file, or tap Convert file to begin."

const helpText = "Send me a file and I will offer the formats it can become.\n\n" +
	"Images: JPG, PNG, WEBP\n" +
	"Documents: PDF, DOC, DOCX, TXT, PPTX\n" +
	"Videos: MP4, AVI, MOV, MKV\n\n" +
	"Before picking a format you can tap a device preset (iPhone, Android, CapCut) " +
	"to stamp the converted file with that device's metadata.\n" +
	"Settings lets you change image quality, default format, EXIF handling, " +
	"size optimization and the default video metadata preset."

const formatsText = "Supported conversions:\n\n" +
	"Images: JPG, PNG, WEBP — any to any\n" +
	"Documents:\n" +
	"  PDF → DOCX\n" +
	"  DOC/DOCX → PDF, PPTX, TXT\n" +
	"  TXT → PDF, DOCX\n" +
	"Videos: MP4, AVI, MOV, MKV — any to any"

const uploadFirstText = "Nothing to convert yet. Send me a file first."

const cancelledText = "Cancelled. Send me a file whenever you're ready."

const doneText = "Done! Send me another file to convert."

const docxChoiceText = "What should I turn this DOCX into?\n1. PDF\n2. PPTX\n\nReply with 1 or 2."

const invalidDocxChoiceText = "Please reply with 1 (PDF) or 2 (PPTX), or tap Cancel."

// Failure texts keyed by error code.
const (
	failUnsupportedText = "That conversion isn't supported. Tap Formats to see what I can do."
	failDecodeText      = "I couldn't read that file. It may be corrupted or mislabeled."
	failToolMissingText = "The conversion tool is not available right now. Please try again later."
	failTimeoutText     = "The conversion took too long and was stopped. Try a smaller file."
	failGenericText     = "Something went wrong during conversion. Please try again."
)

func mainKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{labelConvertFile, labelHelp},
		{labelFormats, labelSettings},
	}}
}

func settingsKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{labelImageQuality, labelDefaultFormat},
		{labelExifData, labelOptimization},
		{labelVideoMetadata},
		{labelBack},
	}}
}

func qualityKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{labelHigh, labelMedium, labelLow},
		{labelBack},
	}}
}

func toggleKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{labelEnable, labelDisable},
		{labelBack},
	}}
}

func presetRow() []string {
	row := make([]string, 0, len(metadata.Presets))
	for _, p := range metadata.Presets {
		row = append(row, string(p))
	}
	return row
}

func videoMetadataKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		presetRow(),
		{labelRemoveMetadata},
		{labelBack},
	}}
}

func imageFormatKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{string(models.FormatJPG), string(models.FormatPNG), string(models.FormatWEBP)},
		presetRow(),
		{labelNoMetadata},
		{labelCancel},
	}}
}

func videoFormatKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{string(models.FormatMP4), string(models.FormatAVI), string(models.FormatMOV), string(models.FormatMKV)},
		presetRow(),
		{labelNoMetadata},
		{labelCancel},
	}}
}

func documentFormatKeyboard(source models.Format) *models.Keyboard {
	targets := convert.DocumentTargets(source)
	row := make([]string, 0, len(targets))
	for _, t := range targets {
		row = append(row, string(t))
	}
	return &models.Keyboard{Rows: [][]string{row, {labelCancel}}}
}

func docxChoiceKeyboard() *models.Keyboard {
	return &models.Keyboard{Rows: [][]string{
		{"1", "2"},
		{labelCancel},
	}}
}

func settingsText(s session.Settings) string {
	var b strings.Builder
	b.WriteString("Current settings:\n")
	fmt.Fprintf(&b, "• Image quality: %s\n", qualityName(s.ImageQuality))
	fmt.Fprintf(&b, "• Default format: %s\n", s.DefaultFormat)
	fmt.Fprintf(&b, "• EXIF data: %s\n", onOff(s.MaintainEXIF))
	fmt.Fprintf(&b, "• Optimization: %s\n", onOff(s.OptimizeSize))
	if s.VideoMetadata != "" {
		fmt.Fprintf(&b, "• Video metadata: %s", s.VideoMetadata)
	} else {
		b.WriteString("• Video metadata: none")
	}
	return b.String()
}

func qualityName(q int) string {
	switch q {
	case session.QualityHigh:
		return labelHigh
	case session.QualityLow:
		return labelLow
	default:
		return labelMedium
	}
}

func onOff(v bool) string {
	if v {
		return "enabled"
	}
	return "disabled"
}
