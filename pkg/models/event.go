package models

// EventType discriminates inbound events delivered by the chat
// transport.
type EventType string

const (
	// EventFileUploaded carries the raw bytes of an uploaded file.
	EventFileUploaded EventType = "file_uploaded"

	// EventTextReply carries a free-text message: menu labels, format
	// names, and numeric choices.
	EventTextReply EventType = "text_reply"

	// EventCommand carries a slash command (start, help, formats,
	// settings).
	EventCommand EventType = "command"
)

// FileUpload describes an uploaded file after the transport has
// downloaded it.
type FileUpload struct {
	Kind     MediaKind
	Data     []byte
	FileName string
	MIMEType string
}

// Event is one inbound unit of work for the conversion engine. Exactly
// one of Upload, Text or Command is meaningful depending on Type.
type Event struct {
	Type   EventType
	UserID int64

	Upload  *FileUpload
	Text    string
	Command string
}
