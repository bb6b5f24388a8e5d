// Package telegram is a minimal Telegram Bot API client covering exactly the
// methods the reminder bot uses: long polling, messaging with inline
// keyboards, callback answers and voice file download.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Bot is the Telegram Bot API client.
type Bot struct {
	token      string
	apiURL     string
	fileURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewBot creates a new Telegram Bot client with the given token.
func NewBot(token string) *Bot {
	return &Bot{
		token:   token,
		apiURL:  fmt.Sprintf("https://api.telegram.org/bot%s", token),
		fileURL: fmt.Sprintf("https://api.telegram.org/file/bot%s", token),
		// Long polls can hold a connection for tens of seconds, so no
		// client-level timeout; per-call deadlines come from the context.
		httpClient: &http.Client{},
		// The Bot API allows ~30 messages per second overall.
		limiter: rate.NewLimiter(rate.Limit(25), 5),
	}
}

// SetAPIURL overrides the default Telegram API URL for testing purposes.
func (b *Bot) SetAPIURL(url string) {
	b.apiURL = url
}

// SetFileURL overrides the default file download URL for testing purposes.
func (b *Bot) SetFileURL(url string) {
	b.fileURL = url
}

// call posts one Bot API method and decodes the result envelope into out
// (which may be nil when the result does not matter).
func (b *Bot) call(ctx context.Context, method string, payload any, out any) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", method, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.apiURL+"/"+method, body)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram %s failed: %s", method, apiResp.Description)
	}
	if out != nil && apiResp.Result != nil {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetMe returns the bot's own account, which doubles as a credential check.
func (b *Bot) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := b.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// GetUpdates long-polls for incoming updates starting at offset. The timeout
// is the server-side hold in seconds.
func (b *Bot) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	// Give the HTTP round trip headroom beyond the server-side hold.
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout+10)*time.Second)
	defer cancel()

	var updates []Update
	if err := b.call(ctx, "getUpdates", GetUpdatesRequest{Offset: offset, Timeout: timeout}, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a plain text message to a chat id or "@channelname".
func (b *Bot) SendMessage(ctx context.Context, chatID any, text string) (*Message, error) {
	return b.SendMessageWithMarkup(ctx, chatID, text, nil)
}

// SendMessageWithMarkup sends a message with an optional inline keyboard.
func (b *Bot) SendMessageWithMarkup(ctx context.Context, chatID any, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	var msg Message
	err := b.call(ctx, "sendMessage", SendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessageText replaces the text (and keyboard) of a previously sent
// message.
func (b *Bot) EditMessageText(ctx context.Context, chatID any, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	return b.call(ctx, "editMessageText", EditMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	}, nil)
}

// AnswerCallbackQuery acknowledges an inline keyboard press.
func (b *Bot) AnswerCallbackQuery(ctx context.Context, queryID, text string) error {
	return b.call(ctx, "answerCallbackQuery", AnswerCallbackQueryRequest{
		CallbackQueryID: queryID,
		Text:            text,
	}, nil)
}

// GetChat fetches chat metadata by id or "@channelname".
func (b *Bot) GetChat(ctx context.Context, chatID any) (*Chat, error) {
	var chat Chat
	if err := b.call(ctx, "getChat", map[string]any{"chat_id": chatID}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatMember returns the membership status of a user in a chat.
func (b *Bot) GetChatMember(ctx context.Context, chatID any, userID int64) (*ChatMember, error) {
	var member ChatMember
	err := b.call(ctx, "getChatMember", map[string]any{
		"chat_id": chatID,
		"user_id": userID,
	}, &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetFile resolves a file id into a downloadable path.
func (b *Bot) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	if err := b.call(ctx, "getFile", map[string]any{"file_id": fileID}, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// DownloadFile streams the content of a previously resolved file. The caller
// owns the returned reader and must close it.
func (b *Bot) DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.fileURL+"/"+filePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("telegram file download error %d", resp.StatusCode)
	}
	return resp.Body, nil
}
