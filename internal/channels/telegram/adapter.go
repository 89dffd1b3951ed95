// Package telegram is the Telegram transport for the conversion
// engine: it classifies inbound updates into engine events, downloads
// uploaded files, and renders the engine's actions as messages,
// documents and reply keyboards.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/mediamorph/mediamorph/pkg/models"
)

// maxDownloadBytes caps inbound file size. Telegram's bot API refuses
// files above 20 MB anyway; this guards the read, not the API.
const maxDownloadBytes = 64 << 20

// Handler processes one inbound event and returns the actions to
// render. Implemented by the conversion engine.
type Handler interface {
	Handle(ctx context.Context, ev models.Event) []models.Action
}

// Config holds configuration for the Telegram adapter.
type Config struct {
	// Token is the bot token from @BotFather (required).
	Token string

	// DownloadTimeout bounds each file download.
	DownloadTimeout time.Duration

	// Logger is an optional slog.Logger instance.
	Logger *slog.Logger
}

// Validate checks if the configuration is valid and applies defaults.
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("telegram: token is required")
	}
	if c.DownloadTimeout <= 0 {
		c.DownloadTimeout = 2 * time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Adapter connects the conversion engine to Telegram via long polling.
type Adapter struct {
	config  Config
	client  BotClient
	handler Handler
	http    *http.Client
	logger  *slog.Logger
}

// NewAdapter creates a Telegram adapter for the given handler.
func NewAdapter(config Config, handler Handler) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	a := &Adapter{
		config:  config,
		handler: handler,
		http:    &http.Client{Timeout: config.DownloadTimeout},
		logger:  config.Logger.With("adapter", "telegram"),
	}

	b, err := bot.New(config.Token, bot.WithDefaultHandler(a.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	a.client = newRealBotClient(b)
	return a, nil
}

// Run starts long polling and blocks until ctx is done.
func (a *Adapter) Run(ctx context.Context) error {
	me, err := a.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram: authenticate: %w", err)
	}
	a.logger.Info("telegram adapter started", "bot", me.Username)

	a.client.Start(ctx)

	a.logger.Info("telegram adapter stopped")
	return nil
}

// handleUpdate classifies one update, runs it through the engine and
// renders the resulting actions. Errors never propagate to the polling
// loop.
func (a *Adapter) handleUpdate(ctx context.Context, _ *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	chatID := msg.Chat.ID
	userID := msg.From.ID

	ev, err := a.classify(ctx, msg)
	if err != nil {
		a.logger.Error("could not ingest update", "chat", chatID, "error", err)
		a.sendText(ctx, chatID, "I couldn't download that file. Please try again.")
		return
	}
	if ev == nil {
		return
	}
	ev.UserID = userID

	actions := a.handler.Handle(ctx, *ev)
	for _, action := range actions {
		a.render(ctx, chatID, action)
	}
}

// classify maps a Telegram message to an engine event, downloading
// file payloads as needed. A nil event means the update carries
// nothing actionable.
func (a *Adapter) classify(ctx context.Context, msg *tgmodels.Message) (*models.Event, error) {
	switch {
	case msg.Photo != nil && len(msg.Photo) > 0:
		// Sizes are ordered smallest first; take the largest rendition.
		photo := msg.Photo[len(msg.Photo)-1]
		data, err := a.download(ctx, photo.FileID)
		if err != nil {
			return nil, err
		}
		return &models.Event{Type: models.EventFileUploaded, Upload: &models.FileUpload{
			Kind:     models.KindImage,
			Data:     data,
			FileName: "photo.jpg",
			MIMEType: "image/jpeg",
		}}, nil

	case msg.Document != nil:
		data, err := a.download(ctx, msg.Document.FileID)
		if err != nil {
			return nil, err
		}
		mime := msg.Document.MimeType
		if mime == "" {
			mime = mimetype.Detect(data).String()
		}
		return &models.Event{Type: models.EventFileUploaded, Upload: &models.FileUpload{
			Kind:     models.KindDocument,
			Data:     data,
			FileName: msg.Document.FileName,
			MIMEType: mime,
		}}, nil

	case msg.Video != nil:
		data, err := a.download(ctx, msg.Video.FileID)
		if err != nil {
			return nil, err
		}
		mime := msg.Video.MimeType
		if mime == "" {
			mime = "video/mp4"
		}
		return &models.Event{Type: models.EventFileUploaded, Upload: &models.FileUpload{
			Kind:     models.KindVideo,
			Data:     data,
			FileName: msg.Video.FileName,
			MIMEType: mime,
		}}, nil

	case msg.VideoNote != nil:
		data, err := a.download(ctx, msg.VideoNote.FileID)
		if err != nil {
			return nil, err
		}
		return &models.Event{Type: models.EventFileUploaded, Upload: &models.FileUpload{
			Kind:     models.KindVideo,
			Data:     data,
			FileName: "video_note.mp4",
			MIMEType: "video/mp4",
		}}, nil

	case strings.HasPrefix(msg.Text, "/"):
		name := strings.TrimPrefix(msg.Text, "/")
		if i := strings.IndexAny(name, " @"); i >= 0 {
			name = name[:i]
		}
		return &models.Event{Type: models.EventCommand, Command: name}, nil

	case msg.Text != "":
		return &models.Event{Type: models.EventTextReply, Text: msg.Text}, nil
	}

	return nil, nil
}

// download fetches a file's bytes through the bot API.
func (a *Adapter) download(ctx context.Context, fileID string) ([]byte, error) {
	file, err := a.client.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", fileID, err)
	}

	link := a.client.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, sanitizeLinkError(err))
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, sanitizeLinkError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", fileID, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileID, err)
	}
	return data, nil
}

// sanitizeLinkError strips the request URL from transport errors. The
// file download link embeds the bot token, which must never reach the
// logs.
func sanitizeLinkError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// render delivers one engine action to the chat.
func (a *Adapter) render(ctx context.Context, chatID int64, action models.Action) {
	switch action.Type {
	case models.ActionSendText:
		a.sendText(ctx, chatID, action.Text)

	case models.ActionPrompt:
		params := &bot.SendMessageParams{ChatID: chatID, Text: action.Text}
		if action.Keyboard != nil {
			params.ReplyMarkup = replyKeyboard(action.Keyboard)
		}
		if _, err := a.client.SendMessage(ctx, params); err != nil {
			a.logger.Error("send prompt failed", "chat", chatID, "error", err)
		}

	case models.ActionSendFile:
		if action.File == nil {
			return
		}
		_, err := a.client.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID: chatID,
			Document: &tgmodels.InputFileUpload{
				Filename: action.File.FileName,
				Data:     bytes.NewReader(action.File.Data),
			},
			Caption: action.File.Caption,
		})
		if err != nil {
			a.logger.Error("send file failed", "chat", chatID, "file", action.File.FileName, "error", err)
			a.sendText(ctx, chatID, "I couldn't deliver the converted file. Please try again.")
		}
	}
}

func (a *Adapter) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := a.client.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		a.logger.Error("send message failed", "chat", chatID, "error", err)
	}
}

// replyKeyboard renders the engine's platform-neutral keyboard as a
// Telegram reply keyboard.
func replyKeyboard(kb *models.Keyboard) *tgmodels.ReplyKeyboardMarkup {
	rows := make([][]tgmodels.KeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]tgmodels.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgmodels.KeyboardButton{Text: label})
		}
		rows = append(rows, buttons)
	}
	return &tgmodels.ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
}
