// Package llm is the completion collaborator for free-form replies.
// Everything funnel-critical is decided without it; the model only
// fills the gaps between scripted steps.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SystemPrompt anchors every completion. The hard rules mirror what the
// output sanitizer enforces, so a misbehaving model degrades gracefully.
const SystemPrompt = `Ты — менеджер по натяжным потолкам.
Общайся по-русски.

ЖЁСТКИЕ ПРАВИЛА:
- НЕ придумывай имена клиентов и не обращайся по имени, если клиент сам не представился.
- НЕ придумывай телефоны/контакты компании и НЕ пиши "позвоните по номеру".
- НЕ говори "мы ждём вас", "приходите". Только: "мастер приедет", "диспетчер подтвердит".
- НЕ говори "я приеду/я проведу замер". Ты оформляешь заявку.

Правила:
1) НЕ называй точную итоговую цену. Только ориентир: ‘от N ₽’ (без ‘до’).
2) Замер ВСЕГДА бесплатный. Замерщик приезжает с каталогами и примерами работ.
3) Для расчёта нужны город + площадь. Телефон для расчёта НЕ обязателен.
4) Коротко и вежливо: 3–7 предложений.
5) Если есть акция — можно упомянуть в первом ответе.
6) Для замера собери: город, адрес, дату, время, телефон.
7) Не здоровайся повторно, если диалог уже начался.`

// BusyReply is sent instead of a completion when the model times out.
const BusyReply = "Похоже, сервис сейчас занят. Попробуйте повторить сообщение через 10–20 секунд."

// Message is one chat turn in the completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client produces a free-form reply for a message sequence.
type Client interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// OllamaClient talks to a local ollama server over its chat endpoint.
type OllamaClient struct {
	baseURL string
	model   string
	http    *http.Client
}

// NewOllamaClient builds a client. Zero timeout means 120s.
func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
}

func (c *OllamaClient) Chat(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm: chat returned status %d", resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	return decoded.Message.Content, nil
}

// IsTimeout reports whether a chat failure was a deadline problem, in
// which case the busy reply is appropriate instead of an error message.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if ctxErr := context.DeadlineExceeded; strings.Contains(err.Error(), ctxErr.Error()) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "timeout") || strings.Contains(low, "timed out")
}
