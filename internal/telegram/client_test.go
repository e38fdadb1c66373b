package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

const testToken = "123:secret"

type apiCall struct {
	method      string
	contentType string
	body        []byte
}

// fakeAPI serves canned responses per method and records every call.
type fakeAPI struct {
	mu        sync.Mutex
	calls     []apiCall
	responses map[string][]string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/file/bot"+testToken+"/") {
			w.Write([]byte("%PDF-1.7 content"))
			return
		}

		prefix := "/bot" + testToken + "/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		method := strings.TrimPrefix(r.URL.Path, prefix)
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{method: method, contentType: r.Header.Get("Content-Type"), body: body})
		resp := `{"ok":true,"result":true}`
		if queue := f.responses[method]; len(queue) > 0 {
			resp = queue[0]
			f.responses[method] = queue[1:]
		}
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	})
}

func newTestClient(t *testing.T, responses map[string][]string) (*Client, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{responses: responses}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client := New(zap.NewNop(), testToken)
	client.APIURL = srv.URL
	client.HTTPClient = srv.Client()
	return client, fake
}

func TestGetUpdatesDecodesResult(t *testing.T) {
	client, fake := newTestClient(t, map[string][]string{
		"getUpdates": {`{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"from":{"id":42,"is_bot":false,"first_name":"Jane"},"chat":{"id":42,"type":"private"},"text":"/start"}},
			{"update_id":11,"callback_query":{"id":"cb1","from":{"id":42},"message":{"message_id":2,"chat":{"id":42}},"data":"create_scratch"}},
			{"update_id":12,"message":{"message_id":3,"from":{"id":42},"chat":{"id":42},"document":{"file_id":"f1","file_name":"cv.pdf","mime_type":"application/pdf","file_size":2048}}}
		]}`},
	})

	updates, err := client.GetUpdates(context.Background(), 10, 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}

	if updates[0].Message == nil || updates[0].Message.Text != "/start" || updates[0].Message.From.ID != 42 {
		t.Fatalf("unexpected message update: %+v", updates[0].Message)
	}
	if q := updates[1].CallbackQuery; q == nil || q.Data != "create_scratch" || q.Message.Chat.ID != 42 {
		t.Fatalf("unexpected callback update: %+v", updates[1].CallbackQuery)
	}
	doc := updates[2].Message.Document
	if doc == nil || doc.FileID != "f1" || doc.FileSize != 2048 || doc.MIMEType != "application/pdf" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	var req getUpdatesRequest
	if err := json.Unmarshal(fake.calls[0].body, &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if req.Offset != 10 || req.Timeout != 30 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestSendMessageFallsBackToPlainText(t *testing.T) {
	client, fake := newTestClient(t, map[string][]string{
		"sendMessage": {
			`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Can't find end of the entity"}`,
			`{"ok":true,"result":{"message_id":5}}`,
		},
	})

	markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{{Text: "Yes", CallbackData: "review_yes"}}}}
	if err := client.SendMessage(context.Background(), 42, "*broken", markup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("expected a retry without markdown, got %d calls", len(fake.calls))
	}

	var first, second sendMessageRequest
	json.Unmarshal(fake.calls[0].body, &first)
	json.Unmarshal(fake.calls[1].body, &second)
	if first.ParseMode != parseModeMarkdown || second.ParseMode != "" {
		t.Fatalf("unexpected parse modes %q then %q", first.ParseMode, second.ParseMode)
	}
	if second.ReplyMarkup == nil || second.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "review_yes" {
		t.Fatalf("buttons must survive the fallback: %+v", second.ReplyMarkup)
	}
}

func TestSendMessageReturnsAPIError(t *testing.T) {
	client, fake := newTestClient(t, map[string][]string{
		"sendMessage": {`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`},
	})

	err := client.SendMessage(context.Background(), 42, "hi", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 403 {
		t.Fatalf("expected APIError 403, got %v", err)
	}
	if errors.Is(err, ErrCantParseEntities) {
		t.Fatalf("blocked bot must not look like a markup error")
	}
	if len(fake.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(fake.calls))
	}
}

func TestGetFileAndDownload(t *testing.T) {
	client, _ := newTestClient(t, map[string][]string{
		"getFile": {`{"ok":true,"result":{"file_id":"f1","file_size":16,"file_path":"documents/file_1.pdf"}}`},
	})

	file, err := client.GetFile(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.FilePath != "documents/file_1.pdf" {
		t.Fatalf("unexpected file: %+v", file)
	}

	data, err := client.Download(context.Background(), file, 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "%PDF-1.7 content" {
		t.Fatalf("unexpected content %q", data)
	}

	if _, err := client.Download(context.Background(), file, 4); err == nil {
		t.Fatalf("expected the size limit to be enforced")
	}
}

func TestSendDocumentMultipart(t *testing.T) {
	client, fake := newTestClient(t, nil)

	if err := client.SendDocument(context.Background(), 42, "CVBuilder_Jane.pdf", []byte("%PDF"), "Here it is"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	call := fake.calls[0]
	if call.method != "sendDocument" {
		t.Fatalf("unexpected method %s", call.method)
	}
	if !strings.HasPrefix(call.contentType, "multipart/form-data") {
		t.Fatalf("unexpected content type %s", call.contentType)
	}
	for _, want := range []string{`name="chat_id"`, `name="caption"`, `filename="CVBuilder_Jane.pdf"`, "%PDF"} {
		if !strings.Contains(string(call.body), want) {
			t.Fatalf("multipart body misses %q", want)
		}
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	client := New(zap.NewNop(), testToken)
	client.APIURL = "http://127.0.0.1:1"

	err := client.AnswerCallbackQuery(context.Background(), "cb")
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	if strings.Contains(err.Error(), testToken) {
		t.Fatalf("token leaked in error: %v", err)
	}
}
