package avito

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/internal/intent"
	"github.com/potolkibot/leadbot/pkg/logging"
)

// Platform is the identity prefix for conversations on this channel.
const Platform = "avito"

// AllowedTitlesDefault are the listing titles the bot answers on when
// no override is configured.
var AllowedTitlesDefault = []string{
	"Натяжные потолки. 2-й и 3-й потолок в подарок",
	"Натяжные потолки. Потолок в подарок",
}

const (
	defaultPollInterval = 3 * time.Second
	tokenRefreshEvery   = 23 * time.Hour
	replyTimeout        = 3 * time.Minute
)

// messengerAPI is the slice of the Client the poller needs.
type messengerAPI interface {
	EnsureToken(ctx context.Context) error
	RefreshToken(ctx context.Context) error
	ListChats(ctx context.Context) ([]Chat, error)
	SendText(ctx context.Context, chatID, text string) error
	MarkRead(ctx context.Context, chatID string) error
}

// Poller drives avito conversations by polling each chat's last
// message. Per-message dedup is persisted by the dialog engine; the
// in-memory seen map only keeps quiet ticks cheap, so a restart simply
// re-feeds the latest messages and the engine drops the duplicates.
type Poller struct {
	api           messengerAPI
	engine        *dialog.Engine
	userID        int64
	allowedTitles []string
	interval      time.Duration
	logger        *logging.Logger

	seen map[string]string
}

// PollerConfig tunes the poller. Zero values pick defaults.
type PollerConfig struct {
	UserID        int64
	AllowedTitles []string
	Interval      time.Duration
}

// NewPoller wires the avito channel.
func NewPoller(api messengerAPI, engine *dialog.Engine, cfg PollerConfig, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	titles := cfg.AllowedTitles
	if len(titles) == 0 {
		titles = AllowedTitlesDefault
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		api:           api,
		engine:        engine,
		userID:        cfg.UserID,
		allowedTitles: titles,
		interval:      interval,
		logger:        logger,
		seen:          make(map[string]string),
	}
}

// ParseAllowedTitles splits a pipe-separated titles override.
func ParseAllowedTitles(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Run polls until ctx is cancelled. A second goroutine refreshes the
// OAuth token ahead of its 24h expiry; refresh failures are retried on
// the next cycle.
func (p *Poller) Run(ctx context.Context) {
	go p.refreshLoop(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(tokenRefreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.api.RefreshToken(ctx); err != nil {
				p.logger.Warn("avito: token refresh failed", "error", err)
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.api.EnsureToken(ctx); err != nil {
		p.logger.Warn("avito: token check failed", "error", err)
		return
	}
	chats, err := p.api.ListChats(ctx)
	if err != nil {
		p.logger.Warn("avito: list chats failed", "error", err)
		return
	}
	for _, chat := range chats {
		p.handleChat(ctx, chat)
	}
}

func (p *Poller) handleChat(ctx context.Context, chat Chat) {
	chatID := string(chat.ID)
	last := chat.LastMessage
	if chatID == "" || last == nil {
		return
	}
	mid := string(last.ID)
	text := strings.TrimSpace(last.Content.Text)
	if mid == "" || text == "" || !p.isIncoming(last) {
		return
	}
	if p.seen[chatID] == mid {
		return
	}
	p.seen[chatID] = mid

	title := strings.TrimSpace(chat.Context.Value.Title)
	if title != "" && !p.titleAllowed(title) {
		return
	}
	// chats with no listing context: only answer clearly on-topic text
	if title == "" && !intent.CeilingTopic(text) {
		return
	}

	replyCtx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	reply, err := p.engine.Reply(replyCtx, dialog.Input{
		Platform: Platform,
		UserID:   chatID,
		Text:     text,
		Meta: dialog.Meta{
			MessageID: mid,
			ChatURL:   chat.URL,
			ItemURL:   chat.Context.Value.URL,
			ItemTitle: title,
		},
	})
	if err != nil {
		p.logger.Error("avito: reply failed", "error", err, "chat_id", chatID)
		return
	}
	if reply != "" {
		// avito cannot attach the promo image, send the text alone
		reply = strings.TrimPrefix(reply, dialog.PromoImageMarker)
		if err := p.api.SendText(replyCtx, chatID, reply); err != nil {
			p.logger.Error("avito: send failed", "error", err, "chat_id", chatID)
			return
		}
	}
	if err := p.api.MarkRead(replyCtx, chatID); err != nil {
		p.logger.Warn("avito: mark read failed", "error", err, "chat_id", chatID)
	}
}

func (p *Poller) titleAllowed(title string) bool {
	for _, t := range p.allowedTitles {
		if strings.TrimSpace(t) == title {
			return true
		}
	}
	return false
}

// isIncoming decides whether the message came from the customer.
// Direction wins when present; otherwise the author id is compared
// with our own account id.
func (p *Poller) isIncoming(m *ChatMessage) bool {
	switch strings.ToLower(strings.TrimSpace(m.Direction)) {
	case "in", "incoming":
		return true
	case "out", "outgoing":
		return false
	}
	if author, err := strconv.ParseInt(string(m.AuthorID), 10, 64); err == nil && author == p.userID {
		return false
	}
	return true
}
