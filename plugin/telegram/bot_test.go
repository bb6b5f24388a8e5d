package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedCall captures one Bot API request received by the fake server.
type recordedCall struct {
	method  string
	payload map[string]any
}

// fakeAPI stands in for api.telegram.org: it records every call and replies
// with a scripted result envelope per method.
type fakeAPI struct {
	t       *testing.T
	server  *httptest.Server
	calls   []recordedCall
	results map[string]string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{t: t, results: map[string]string{}}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[1:]
		var payload map[string]any
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				require.NoError(t, json.Unmarshal(raw, &payload))
			}
		}
		f.calls = append(f.calls, recordedCall{method: method, payload: payload})

		result, ok := f.results[method]
		if !ok {
			result = "true"
		}
		fmt.Fprintf(w, `{"ok": true, "result": %s}`, result)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeAPI) bot() *Bot {
	b := NewBot("test-token")
	b.SetAPIURL(f.server.URL)
	return b
}

func (f *fakeAPI) lastCall() recordedCall {
	require.NotEmpty(f.t, f.calls)
	return f.calls[len(f.calls)-1]
}

func TestGetMe(t *testing.T) {
	api := newFakeAPI(t)
	api.results["getMe"] = `{"id": 42, "is_bot": true, "first_name": "napomni", "username": "napomni_bot"}`

	me, err := api.bot().GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), me.ID)
	assert.Equal(t, "napomni_bot", me.Username)
	assert.Equal(t, "getMe", api.lastCall().method)
}

func TestGetUpdates(t *testing.T) {
	api := newFakeAPI(t)
	api.results["getUpdates"] = `[
		{"update_id": 100, "message": {"message_id": 1, "chat": {"id": 7, "type": "private"}, "text": "завтра купить хлеб"}},
		{"update_id": 101, "callback_query": {"id": "cb1", "from": {"id": 7, "first_name": "Иван"}, "data": "ok:tok"}}
	]`

	updates, err := api.bot().GetUpdates(context.Background(), 100, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, int64(100), updates[0].UpdateID)
	assert.Equal(t, "завтра купить хлеб", updates[0].Message.Text)
	require.NotNil(t, updates[1].CallbackQuery)
	assert.Equal(t, "ok:tok", updates[1].CallbackQuery.Data)

	call := api.lastCall()
	assert.Equal(t, "getUpdates", call.method)
	assert.Equal(t, float64(100), call.payload["offset"])
	assert.Equal(t, float64(30), call.payload["timeout"])
}

func TestSendMessage(t *testing.T) {
	api := newFakeAPI(t)
	api.results["sendMessage"] = `{"message_id": 55, "chat": {"id": 7, "type": "private"}, "text": "привет"}`

	msg, err := api.bot().SendMessage(context.Background(), int64(7), "привет")
	require.NoError(t, err)
	assert.Equal(t, int64(55), msg.MessageID)

	call := api.lastCall()
	assert.Equal(t, "sendMessage", call.method)
	assert.Equal(t, float64(7), call.payload["chat_id"])
	assert.Equal(t, "привет", call.payload["text"])
	// No keyboard requested, none serialized.
	_, hasMarkup := call.payload["reply_markup"]
	assert.False(t, hasMarkup)
}

func TestSendMessageWithMarkup(t *testing.T) {
	api := newFakeAPI(t)
	api.results["sendMessage"] = `{"message_id": 56, "chat": {"id": 7, "type": "private"}}`

	markup := &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "✅ Да", CallbackData: "ok:tok"},
		{Text: "❌ Нет", CallbackData: "no:tok"},
	}}}
	_, err := api.bot().SendMessageWithMarkup(context.Background(), int64(7), "Создать?", markup)
	require.NoError(t, err)

	call := api.lastCall()
	raw, err := json.Marshal(call.payload["reply_markup"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"inline_keyboard": [[{"text": "✅ Да", "callback_data": "ok:tok"}, {"text": "❌ Нет", "callback_data": "no:tok"}]]}`, string(raw))
}

func TestSendMessageToChannelName(t *testing.T) {
	api := newFakeAPI(t)
	api.results["sendMessage"] = `{"message_id": 57, "chat": {"id": -100, "type": "channel"}}`

	_, err := api.bot().SendMessage(context.Background(), "@my_channel", "текст")
	require.NoError(t, err)
	assert.Equal(t, "@my_channel", api.lastCall().payload["chat_id"])
}

func TestEditMessageText(t *testing.T) {
	api := newFakeAPI(t)

	err := api.bot().EditMessageText(context.Background(), int64(7), 55, "готово", nil)
	require.NoError(t, err)

	call := api.lastCall()
	assert.Equal(t, "editMessageText", call.method)
	assert.Equal(t, float64(55), call.payload["message_id"])
	assert.Equal(t, "готово", call.payload["text"])
}

func TestAnswerCallbackQuery(t *testing.T) {
	api := newFakeAPI(t)

	err := api.bot().AnswerCallbackQuery(context.Background(), "cb1", "")
	require.NoError(t, err)

	call := api.lastCall()
	assert.Equal(t, "answerCallbackQuery", call.method)
	assert.Equal(t, "cb1", call.payload["callback_query_id"])
}

func TestGetChatAndMember(t *testing.T) {
	api := newFakeAPI(t)
	api.results["getChat"] = `{"id": -1001, "type": "channel", "title": "Мой канал", "username": "my_channel"}`
	api.results["getChatMember"] = `{"user": {"id": 7, "first_name": "Иван"}, "status": "administrator"}`

	chat, err := api.bot().GetChat(context.Background(), "@my_channel")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001), chat.ID)
	assert.Equal(t, "channel", chat.Type)

	member, err := api.bot().GetChatMember(context.Background(), int64(-1001), 7)
	require.NoError(t, err)
	assert.Equal(t, "administrator", member.Status)
	assert.Equal(t, float64(7), api.lastCall().payload["user_id"])
}

func TestGetFileAndDownload(t *testing.T) {
	api := newFakeAPI(t)
	api.results["getFile"] = `{"file_id": "voice-1", "file_size": 3, "file_path": "voice/file_1.oga"}`

	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/voice/file_1.oga", r.URL.Path)
		w.Write([]byte("OGG"))
	}))
	defer fileServer.Close()

	b := api.bot()
	b.SetFileURL(fileServer.URL)

	file, err := b.GetFile(context.Background(), "voice-1")
	require.NoError(t, err)
	assert.Equal(t, "voice/file_1.oga", file.FilePath)

	rc, err := b.DownloadFile(context.Background(), file.FilePath)
	require.NoError(t, err)
	defer rc.Close()
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "OGG", string(content))
}

func TestDownloadFileErrorStatus(t *testing.T) {
	fileServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer fileServer.Close()

	b := NewBot("test-token")
	b.SetFileURL(fileServer.URL)

	_, err := b.DownloadFile(context.Background(), "voice/missing.oga")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok": false, "description": "Bad Request: chat not found"}`)
	}))
	defer server.Close()

	b := NewBot("test-token")
	b.SetAPIURL(server.URL)

	_, err := b.SendMessage(context.Background(), int64(404), "текст")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Contains(t, err.Error(), "sendMessage")
}
