package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/mediamorph/mediamorph/pkg/models"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type fakeClient struct {
	fileURL string

	sentMessages  []*bot.SendMessageParams
	sentDocuments []*bot.SendDocumentParams
	gotFileIDs    []string
}

func (f *fakeClient) SendMessage(_ context.Context, p *bot.SendMessageParams) (*tgmodels.Message, error) {
	f.sentMessages = append(f.sentMessages, p)
	return &tgmodels.Message{ID: 1}, nil
}

func (f *fakeClient) SendDocument(_ context.Context, p *bot.SendDocumentParams) (*tgmodels.Message, error) {
	f.sentDocuments = append(f.sentDocuments, p)
	return &tgmodels.Message{ID: 2}, nil
}

func (f *fakeClient) GetFile(_ context.Context, p *bot.GetFileParams) (*tgmodels.File, error) {
	f.gotFileIDs = append(f.gotFileIDs, p.FileID)
	return &tgmodels.File{FileID: p.FileID, FilePath: "files/" + p.FileID}, nil
}

func (f *fakeClient) FileDownloadLink(*tgmodels.File) string { return f.fileURL }

func (f *fakeClient) GetMe(context.Context) (*tgmodels.User, error) {
	return &tgmodels.User{Username: "mediamorph_bot"}, nil
}

func (f *fakeClient) Start(context.Context) {}

type recordingHandler struct {
	events  []models.Event
	actions []models.Action
}

func (h *recordingHandler) Handle(_ context.Context, ev models.Event) []models.Action {
	h.events = append(h.events, ev)
	return h.actions
}

func newTestAdapter(client *fakeClient, handler Handler) *Adapter {
	return &Adapter{
		config:  Config{Token: "test", DownloadTimeout: time.Second},
		client:  client,
		handler: handler,
		http:    &http.Client{Timeout: time.Second},
		logger:  slog.Default(),
	}
}

func fileServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func update(msg *tgmodels.Message) *tgmodels.Update {
	msg.Chat = tgmodels.Chat{ID: 42}
	msg.From = &tgmodels.User{ID: 7}
	return &tgmodels.Update{Message: msg}
}

func TestTextUpdateBecomesTextReply(t *testing.T) {
	client := &fakeClient{}
	handler := &recordingHandler{actions: []models.Action{
		models.Prompt("pick a format", &models.Keyboard{Rows: [][]string{{"JPG", "PNG"}}}),
	}}
	a := newTestAdapter(client, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{Text: "JPG"}))

	if len(handler.events) != 1 {
		t.Fatalf("events = %+v", handler.events)
	}
	ev := handler.events[0]
	if ev.Type != models.EventTextReply || ev.Text != "JPG" || ev.UserID != 7 {
		t.Errorf("event = %+v", ev)
	}

	if len(client.sentMessages) != 1 {
		t.Fatalf("sent = %+v", client.sentMessages)
	}
	markup, ok := client.sentMessages[0].ReplyMarkup.(*tgmodels.ReplyKeyboardMarkup)
	if !ok || len(markup.Keyboard) != 1 || markup.Keyboard[0][0].Text != "JPG" {
		t.Errorf("reply markup = %+v", client.sentMessages[0].ReplyMarkup)
	}
}

func TestCommandStripsSlashAndBotName(t *testing.T) {
	handler := &recordingHandler{}
	a := newTestAdapter(&fakeClient{}, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{Text: "/start@mediamorph_bot now"}))

	if len(handler.events) != 1 || handler.events[0].Type != models.EventCommand || handler.events[0].Command != "start" {
		t.Fatalf("events = %+v", handler.events)
	}
}

func TestDocumentUploadIsDownloaded(t *testing.T) {
	srv := fileServer(t, []byte("%PDF-1.7 payload"))
	client := &fakeClient{fileURL: srv.URL}
	handler := &recordingHandler{}
	a := newTestAdapter(client, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{
		Document: &tgmodels.Document{FileID: "doc-1", FileName: "scan.pdf", MimeType: "application/pdf"},
	}))

	if len(handler.events) != 1 {
		t.Fatalf("events = %+v", handler.events)
	}
	up := handler.events[0].Upload
	if up == nil || up.Kind != models.KindDocument || up.MIMEType != "application/pdf" {
		t.Fatalf("upload = %+v", up)
	}
	if string(up.Data) != "%PDF-1.7 payload" {
		t.Errorf("data = %q", up.Data)
	}
	if len(client.gotFileIDs) != 1 || client.gotFileIDs[0] != "doc-1" {
		t.Errorf("file ids = %v", client.gotFileIDs)
	}
}

func TestDocumentWithoutMIMEIsSniffed(t *testing.T) {
	srv := fileServer(t, pngHeader)
	client := &fakeClient{fileURL: srv.URL}
	handler := &recordingHandler{}
	a := newTestAdapter(client, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{
		Document: &tgmodels.Document{FileID: "doc-2", FileName: "pic"},
	}))

	up := handler.events[0].Upload
	if !strings.HasPrefix(up.MIMEType, "image/png") {
		t.Errorf("sniffed mime = %q", up.MIMEType)
	}
}

func TestPhotoPicksLargestRendition(t *testing.T) {
	srv := fileServer(t, []byte("jpeg-bytes"))
	client := &fakeClient{fileURL: srv.URL}
	handler := &recordingHandler{}
	a := newTestAdapter(client, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{
		Photo: []tgmodels.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}))

	if len(client.gotFileIDs) != 1 || client.gotFileIDs[0] != "large" {
		t.Fatalf("file ids = %v", client.gotFileIDs)
	}
	up := handler.events[0].Upload
	if up.Kind != models.KindImage || up.MIMEType != "image/jpeg" {
		t.Errorf("upload = %+v", up)
	}
}

func TestSendFileActionRendersDocument(t *testing.T) {
	client := &fakeClient{}
	handler := &recordingHandler{actions: []models.Action{
		models.SendFile([]byte("converted"), "out.pdf", "done"),
	}}
	a := newTestAdapter(client, handler)

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{Text: "PDF"}))

	if len(client.sentDocuments) != 1 {
		t.Fatalf("documents = %+v", client.sentDocuments)
	}
	doc := client.sentDocuments[0]
	upload, ok := doc.Document.(*tgmodels.InputFileUpload)
	if !ok || upload.Filename != "out.pdf" || doc.Caption != "done" {
		t.Errorf("document params = %+v", doc)
	}
}

func TestDownloadFailureLogOmitsBotToken(t *testing.T) {
	var logBuf bytes.Buffer
	client := &fakeClient{fileURL: "http://127.0.0.1:1/file/bot123456:SECRETTOKEN/files/doc-1"}
	handler := &recordingHandler{}
	a := newTestAdapter(client, handler)
	a.logger = slog.New(slog.NewTextHandler(&logBuf, nil))

	a.handleUpdate(context.Background(), nil, update(&tgmodels.Message{
		Document: &tgmodels.Document{FileID: "doc-1", FileName: "scan.pdf", MimeType: "application/pdf"},
	}))

	if len(handler.events) != 0 {
		t.Fatalf("events = %+v", handler.events)
	}
	logged := logBuf.String()
	if strings.Contains(logged, "SECRETTOKEN") {
		t.Fatalf("log line leaks the bot token:\n%s", logged)
	}
	if !strings.Contains(logged, "doc-1") {
		t.Errorf("log line does not name the file id:\n%s", logged)
	}
	if len(client.sentMessages) != 1 {
		t.Errorf("expected a failure notice, sent = %+v", client.sentMessages)
	}
}

func TestUpdatesWithoutMessageAreIgnored(t *testing.T) {
	handler := &recordingHandler{}
	a := newTestAdapter(&fakeClient{}, handler)

	a.handleUpdate(context.Background(), nil, &tgmodels.Update{})

	if len(handler.events) != 0 {
		t.Fatalf("events = %+v", handler.events)
	}
}
