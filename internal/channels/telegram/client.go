package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// long-poll requests hold the connection open, so the HTTP timeout
	// must exceed the poll timeout passed to getUpdates
	defaultHTTPTimeout = 65 * time.Second
)

// Client talks to the Telegram Bot API.
type Client struct {
	token      string
	apiBase    string
	httpClient *http.Client
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		token:      token,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetAPIBase overrides the Bot API base URL (useful for testing).
func (c *Client) SetAPIBase(base string) {
	c.apiBase = base
}

// GetUpdates long-polls for new updates past offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	req := map[string]any{
		"offset":  offset,
		"timeout": int(timeout.Seconds()),
	}
	raw, err := c.call(ctx, "getUpdates", req)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("telegram: unmarshal updates: %w", err)
	}
	return updates, nil
}

// SendMessage sends a plain text message to the chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	})
	return err
}

// SendPhoto uploads a local image with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error {
	file, err := os.Open(photoPath)
	if err != nil {
		return fmt.Errorf("telegram: open photo: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("telegram: build photo request: %w", err)
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return fmt.Errorf("telegram: build photo request: %w", err)
		}
	}
	part, err := mw.CreateFormFile("photo", filepath.Base(photoPath))
	if err != nil {
		return fmt.Errorf("telegram: build photo request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("telegram: read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram: build photo request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.apiBase, c.token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(httpReq, nil)
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var result json.RawMessage
	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) do(req *http.Request, result *json.RawMessage) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("telegram: read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("telegram: unmarshal response: %w", err)
	}
	if !apiResp.OK {
		return fmt.Errorf("telegram: API error %d: %s", apiResp.ErrorCode, apiResp.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if result != nil {
		*result = apiResp.Result
	}
	return nil
}
