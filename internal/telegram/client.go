// Package telegram is a small Bot API client: enough to send messages with
// inline keyboards, answer button presses and long-poll for updates.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultAPIURL = "https://api.telegram.org"

// ErrBlocked is returned when the recipient has blocked the bot or never
// started a chat with it.
var ErrBlocked = errors.New("recipient blocked the bot")

// APIError is a non-successful Bot API reply.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error %d: %s", e.Code, e.Description)
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Result      T      `json:"result"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type Client struct {
	http        *resty.Client
	httpClient  *http.Client
	token       string
	pollTimeout time.Duration
	logger      *slog.Logger
}

type Option func(*Client)

// WithPollTimeout sets how long getUpdates may hold a request open.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.pollTimeout = d
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	c := &Client{
		token:       token,
		pollTimeout: 30 * time.Second,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.http = resty.NewWithClient(c.httpClient)
	} else {
		c.http = resty.New()
	}
	c.http.
		SetBaseURL(baseURL).
		SetTimeout(c.pollTimeout+10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return c
}

// call posts body to a Bot API method and decodes the result into out.
func call[T any](ctx context.Context, c *Client, method string, body any, out *T) error {
	var reply apiResponse[T]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&reply).
		SetError(&reply).
		Post("/bot" + c.token + "/" + method)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp.StatusCode() == http.StatusForbidden {
		return fmt.Errorf("%s: %w: %s", method, ErrBlocked, reply.Description)
	}
	if resp.IsError() || !reply.OK {
		code := reply.ErrorCode
		if code == 0 {
			code = resp.StatusCode()
		}
		return fmt.Errorf("%s: %w", method, &APIError{Code: code, Description: reply.Description})
	}

	if out != nil {
		*out = reply.Result
	}
	return nil
}

type sendMessageRequest struct {
	ChatID      int64                 `json:"chat_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// SendMessage sends text to a chat, optionally with an inline keyboard.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, keyboard *InlineKeyboardMarkup) error {
	req := sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: keyboard}
	return call[Message](ctx, c, "sendMessage", req, nil)
}

// Send delivers a plain text message. It satisfies the reminder dispatcher's
// Sender interface; a recipient's user id is also their private chat id.
func (c *Client) Send(ctx context.Context, recipientID int64, text string) error {
	return c.SendMessage(ctx, recipientID, text, nil)
}

type answerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

// AnswerCallback acknowledges a button press so the client stops its spinner.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	var ok bool
	return call(ctx, c, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID}, &ok)
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// GetUpdates long-polls for updates with ids at or after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	req := getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(c.pollTimeout / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	}
	var updates []Update
	if err := call(ctx, c, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// Poll feeds every update to handle, in order, until ctx is cancelled. Poll
// errors are logged and retried after a pause.
func (c *Client) Poll(ctx context.Context, handle func(context.Context, Update)) error {
	var offset int64
	for {
		updates, err := c.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			handle(ctx, u)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
