// Package models defines the shared types exchanged between the chat
// transport, the conversion engine, and the converter adapters.
package models

import "strings"

// MediaKind identifies the family a file belongs to. Each kind has its
// own pending slot in a session and its own converter adapter.
type MediaKind string

const (
	KindImage    MediaKind = "image"
	KindDocument MediaKind = "document"
	KindVideo    MediaKind = "video"
)

// Format is a conversion source or target format. Formats are grouped
// into families by Family; conversions never cross families.
type Format string

const (
	FormatJPG  Format = "JPG"
	FormatPNG  Format = "PNG"
	FormatWEBP Format = "WEBP"

	FormatPDF  Format = "PDF"
	FormatDOCX Format = "DOCX"
	FormatDOC  Format = "DOC"
	FormatTXT  Format = "TXT"
	FormatPPTX Format = "PPTX"

	FormatMP4 Format = "MP4"
	FormatAVI Format = "AVI"
	FormatMOV Format = "MOV"
	FormatMKV Format = "MKV"
)

// ImageFormats lists the supported image formats in keyboard order.
var ImageFormats = []Format{FormatJPG, FormatPNG, FormatWEBP}

// DocumentFormats lists the document formats accepted as uploads.
var DocumentFormats = []Format{FormatPDF, FormatDOCX, FormatDOC, FormatTXT}

// VideoFormats lists the supported video formats in keyboard order.
var VideoFormats = []Format{FormatMP4, FormatAVI, FormatMOV, FormatMKV}

// Family returns the media kind a format belongs to, or "" for unknown
// formats.
func (f Format) Family() MediaKind {
	switch f {
	case FormatJPG, FormatPNG, FormatWEBP:
		return KindImage
	case FormatPDF, FormatDOCX, FormatDOC, FormatTXT, FormatPPTX:
		return KindDocument
	case FormatMP4, FormatAVI, FormatMOV, FormatMKV:
		return KindVideo
	}
	return ""
}

// Extension returns the lower-case file extension for a format,
// without the leading dot.
func (f Format) Extension() string {
	return strings.ToLower(string(f))
}

// ParseFormat maps a free-text token to a format. Matching is
// case-insensitive because the tokens double as keyboard labels.
func ParseFormat(s string) (Format, bool) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	if f.Family() == "" {
		return "", false
	}
	return f, true
}

// imageMIMEs, documentMIMEs and videoMIMEs reproduce the recognition
// table used when classifying uploads by their declared MIME type.
var imageMIMEs = map[string]Format{
	"image/jpeg": FormatJPG,
	"image/png":  FormatPNG,
	"image/webp": FormatWEBP,
}

var documentMIMEs = map[string]Format{
	"application/pdf": FormatPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": FormatDOCX,
	"application/msword": FormatDOC,
	"text/plain":         FormatTXT,
}

var videoMIMEs = map[string]Format{
	"video/mp4":        FormatMP4,
	"video/x-msvideo":  FormatAVI,
	"video/quicktime":  FormatMOV,
	"video/x-matroska": FormatMKV,
}

// FormatForMIME resolves a MIME type to a format and its media kind.
// Native video messages arrive without a MIME type on some transports;
// callers treat those as MP4 before consulting this table.
func FormatForMIME(mime string) (Format, MediaKind, bool) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if f, ok := imageMIMEs[mime]; ok {
		return f, KindImage, true
	}
	if f, ok := documentMIMEs[mime]; ok {
		return f, KindDocument, true
	}
	if f, ok := videoMIMEs[mime]; ok {
		return f, KindVideo, true
	}
	return "", "", false
}
