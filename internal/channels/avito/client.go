package avito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL     = "https://api.avito.ru"
	defaultHTTPTimeout = 30 * time.Second

	// refresh ahead of expiry so a request never races the deadline
	tokenSkew          = 30 * time.Second
	tokenRefreshMargin = time.Hour
)

// Client talks to the Avito messenger API using the client-credentials
// grant. The access token is cached on disk so restarts do not burn
// through the grant quota.
type Client struct {
	clientID     string
	clientSecret string
	userID       int64
	baseURL      string
	tokenPath    string
	httpClient   *http.Client

	mu    sync.Mutex
	token *storedToken
}

// Config holds Client construction parameters.
type Config struct {
	ClientID     string
	ClientSecret string
	UserID       int64
	TokenPath    string
}

// NewClient creates a messenger API client. The cached token, when
// present and fresh, is reused.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.UserID == 0 {
		return nil, fmt.Errorf("avito: client id, secret and user id are required")
	}
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = "data/avito_tokens.json"
	}
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o755); err != nil {
		return nil, fmt.Errorf("avito: create token dir: %w", err)
	}
	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		userID:       cfg.UserID,
		baseURL:      defaultBaseURL,
		tokenPath:    tokenPath,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	c.token = c.loadToken()
	return c, nil
}

// SetBaseURL overrides the API base URL (useful for testing).
func (c *Client) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(base, "/")
}

func (c *Client) loadToken() *storedToken {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return nil
	}
	var t storedToken
	if err := json.Unmarshal(data, &t); err != nil || t.AccessToken == "" {
		return nil
	}
	return &t
}

func (c *Client) saveToken(t *storedToken) {
	c.token = t
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return
	}
	// best effort: a lost cache only costs one extra grant
	_ = os.WriteFile(c.tokenPath, data, 0o600)
}

func (t *storedToken) valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Add(tokenSkew).Unix() < t.ExpiresAt
}

// RefreshToken requests a fresh access token and caches it.
func (c *Client) RefreshToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshTokenLocked(ctx)
}

func (c *Client) refreshTokenLocked(ctx context.Context) error {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token/", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("avito: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("avito: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("avito: read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("avito: token error %d: %s", resp.StatusCode, truncate(body, 500))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("avito: unmarshal token response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("avito: token response without access_token")
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 86400
	}
	c.saveToken(&storedToken{
		AccessToken: tr.AccessToken,
		TokenType:   tokenType,
		ExpiresAt:   time.Now().Unix() + expiresIn,
	})
	return nil
}

// EnsureToken refreshes the token when it is missing or close to expiry.
func (c *Client) EnsureToken(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.valid(time.Now()) && time.Until(time.Unix(c.token.ExpiresAt, 0)) > tokenRefreshMargin {
		return nil
	}
	return c.refreshTokenLocked(ctx)
}

func (c *Client) authHeader(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.token.valid(time.Now()) {
		if err := c.refreshTokenLocked(ctx); err != nil {
			return "", err
		}
	}
	return c.token.TokenType + " " + c.token.AccessToken, nil
}

// ListChats returns the account's conversations, newest first.
func (c *Client) ListChats(ctx context.Context) ([]Chat, error) {
	path := fmt.Sprintf("/messenger/v2/accounts/%d/chats", c.userID)
	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var cr chatsResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("avito: unmarshal chats: %w", err)
	}
	return cr.Chats, nil
}

// SendText sends a plain text message into the chat.
func (c *Client) SendText(ctx context.Context, chatID, text string) error {
	path := fmt.Sprintf("/messenger/v1/accounts/%d/chats/%s/messages", c.userID, chatID)
	payload := map[string]any{
		"message": map[string]string{"text": text},
		"type":    "text",
	}
	_, err := c.request(ctx, http.MethodPost, path, payload)
	return err
}

// MarkRead marks the chat as read.
func (c *Client) MarkRead(ctx context.Context, chatID string) error {
	path := fmt.Sprintf("/messenger/v1/accounts/%d/chats/%s/read", c.userID, chatID)
	_, err := c.request(ctx, http.MethodPost, path, nil)
	return err
}

// request performs one authenticated call, retrying once with a fresh
// token after 401/403.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, status, err := c.doOnce(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.mu.Lock()
		c.token = nil
		c.mu.Unlock()
		body, status, err = c.doOnce(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
	}
	if status >= 400 {
		return nil, fmt.Errorf("avito: %s %s -> %d: %s", method, path, status, truncate(body, 500))
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	auth, err := c.authHeader(ctx)
	if err != nil {
		return nil, 0, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("avito: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("avito: create request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("avito: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("avito: read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
