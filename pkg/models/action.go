package models

// ActionType discriminates outbound actions produced by the engine for
// the chat transport to render.
type ActionType string

const (
	// ActionPrompt is a text message accompanied by a reply keyboard.
	ActionPrompt ActionType = "prompt"

	// ActionSendFile delivers converted bytes back to the user.
	ActionSendFile ActionType = "send_file"

	// ActionSendText is a plain text message with no keyboard change.
	ActionSendText ActionType = "send_text"
)

// Keyboard is a platform-neutral reply keyboard: rows of button
// labels. The transport renders it however the platform allows.
type Keyboard struct {
	Rows [][]string
}

// FilePayload is the converted file handed back to the transport.
type FilePayload struct {
	Data     []byte
	FileName string
	Caption  string
}

// Action is one outbound instruction for the transport.
type Action struct {
	Type     ActionType
	Text     string
	Keyboard *Keyboard
	File     *FilePayload
}

// Prompt builds a keyboard-bearing message action.
func Prompt(text string, kb *Keyboard) Action {
	return Action{Type: ActionPrompt, Text: text, Keyboard: kb}
}

// SendText builds a plain text action.
func SendText(text string) Action {
	return Action{Type: ActionSendText, Text: text}
}

// SendFile builds a file delivery action.
func SendFile(data []byte, name, caption string) Action {
	return Action{Type: ActionSendFile, File: &FilePayload{Data: data, FileName: name, Caption: caption}}
}
