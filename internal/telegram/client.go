// Package telegram is a minimal Bot API client and the long-polling bot that
// feeds the conversation controller.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiURL    = "https://api.telegram.org"
	userAgent = "spigell/cvbuilder"

	parseModeMarkdown = "Markdown"

	// Bot API limit for document downloads.
	maxDownloadBytes = 20 << 20
)

// ErrCantParseEntities is returned when Telegram rejects the markup of a message.
var ErrCantParseEntities = errors.New("can't parse entities")

// APIError is a Bot API response with ok=false.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

func (e *APIError) Is(target error) bool {
	return target == ErrCantParseEntities && strings.Contains(strings.ToLower(e.Description), "can't parse entities")
}

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			// Long polling holds the request open, so the timeout covers poll time plus transfer.
			Timeout: 90 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(timeout.Seconds()),
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends text with optional inline buttons. Markdown is tried first;
// when Telegram cannot parse it the message is sent again as plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) error {
	req := sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseModeMarkdown,
		ReplyMarkup: markup,
	}

	err := c.call(ctx, "sendMessage", req, nil)
	if errors.Is(err, ErrCantParseEntities) {
		c.logger.Debug("markdown rejected, sending plain text", zap.Int64("chat_id", chatID))
		req.ParseMode = ""
		err = c.call(ctx, "sendMessage", req, nil)
	}
	return err
}

// AnswerCallbackQuery stops the loading indicator on the pressed button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: id}, nil)
}

func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var file File
	if err := c.call(ctx, "getFile", getFileRequest{FileID: fileID}, &file); err != nil {
		return nil, err
	}
	if file.FilePath == "" {
		return nil, fmt.Errorf("file %s has no download path", fileID)
	}
	return &file, nil
}

// Download fetches a file returned by GetFile. Files over limit are refused.
func (c *Client) Download(ctx context.Context, file *File, limit int64) ([]byte, error) {
	if limit <= 0 || limit > maxDownloadBytes {
		limit = maxDownloadBytes
	}
	if file.FileSize > limit {
		return nil, fmt.Errorf("file is %d bytes, limit is %d", file.FileSize, limit)
	}
	return c.download(ctx, fmt.Sprintf("%s/file/bot%s/%s", c.APIURL, c.token, file.FilePath), limit)
}

// SendDocument uploads data as a file attachment with an optional caption.
func (c *Client) SendDocument(ctx context.Context, chatID int64, fileName string, data []byte, caption string) error {
	fields := map[string]string{
		"chat_id": fmt.Sprintf("%d", chatID),
	}
	if caption != "" {
		fields["caption"] = caption
	}
	return c.postFile(ctx, "sendDocument", fields, "document", fileName, data)
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.APIURL, c.token, method)
}
