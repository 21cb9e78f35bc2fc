package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/pkg/logging"
)

const (
	// Platform is the identity prefix for conversations on this channel.
	Platform = "tg"

	pollTimeout     = 50 * time.Second
	defaultDebounce = 1200 * time.Millisecond
	replyTimeout    = 3 * time.Minute
)

const startText = "Здравствуйте! Я менеджер по натяжным потолкам 😊\n" +
	"Напишите, пожалуйста, город и примерную площадь (м²).\n" +
	"Замер бесплатный — мастер приезжает с каталогами и образцами.\n" +
	"/reset — сбросить диалог."

const resetText = "Ок, историю и данные сбросил. Напишите новый запрос."

// Adapter long-polls the Bot API and feeds inbound text through a
// debouncer into the dialog engine. Commands bypass the debouncer.
type Adapter struct {
	client         *Client
	engine         *dialog.Engine
	debounce       *dialog.Debouncer
	promoImagePath string
	logger         *logging.Logger
	offset         int64
}

// AdapterConfig tunes the adapter. Zero values pick defaults.
type AdapterConfig struct {
	PromoImagePath string
	DebounceDelay  time.Duration
}

// NewAdapter wires the Telegram channel.
func NewAdapter(client *Client, engine *dialog.Engine, cfg AdapterConfig, logger *logging.Logger) *Adapter {
	if logger == nil {
		logger = logging.Default()
	}
	delay := cfg.DebounceDelay
	if delay <= 0 {
		delay = defaultDebounce
	}
	a := &Adapter{
		client:         client,
		engine:         engine,
		promoImagePath: cfg.PromoImagePath,
		logger:         logger,
	}
	a.debounce = dialog.NewDebouncer(delay, a.flush)
	return a
}

// Run polls for updates until ctx is cancelled.
func (a *Adapter) Run(ctx context.Context) {
	defer a.debounce.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		updates, err := a.client.GetUpdates(ctx, a.offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.Warn("telegram: poll failed", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= a.offset {
				a.offset = upd.UpdateID + 1
			}
			a.dispatch(ctx, upd)
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, upd Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		a.handleCommand(ctx, msg, text)
		return
	}

	key := strconv.FormatInt(msg.Chat.ID, 10)
	a.debounce.Push(key, text, dialog.Meta{
		MessageID: strconv.FormatInt(msg.MessageID, 10),
		Username:  msg.From.Username,
		Name:      msg.From.FullName(),
	})
}

// handleCommand runs /start and /reset immediately, without debouncing.
func (a *Adapter) handleCommand(ctx context.Context, msg *Message, text string) {
	cmd := strings.ToLower(strings.Fields(text)[0])
	switch {
	case strings.HasPrefix(cmd, "/start"):
		a.send(ctx, msg.Chat.ID, startText)
	case strings.HasPrefix(cmd, "/reset"):
		userID := strconv.FormatInt(msg.Chat.ID, 10)
		if err := a.engine.Reset(ctx, Platform, userID); err != nil {
			a.logger.Error("telegram: reset failed", "error", err, "chat_id", userID)
			return
		}
		a.send(ctx, msg.Chat.ID, resetText)
	}
}

// flush runs on the debouncer goroutine once per quiet period.
func (a *Adapter) flush(key, text string, meta dialog.Meta) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	reply, err := a.engine.Reply(ctx, dialog.Input{
		Platform: Platform,
		UserID:   key,
		Text:     text,
		Meta:     meta,
	})
	if err != nil {
		a.logger.Error("telegram: reply failed", "error", err, "chat_id", key)
		return
	}
	if reply == "" {
		return
	}

	chatID, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		a.logger.Error("telegram: bad chat id", "chat_id", key)
		return
	}

	if rest, ok := strings.CutPrefix(reply, dialog.PromoImageMarker); ok {
		if a.promoImagePath != "" {
			if err := a.client.SendPhoto(ctx, chatID, a.promoImagePath, ""); err != nil {
				a.logger.Warn("telegram: promo photo failed", "error", err, "chat_id", key)
			}
		}
		reply = rest
	}
	a.send(ctx, chatID, reply)
}

func (a *Adapter) send(ctx context.Context, chatID int64, text string) {
	if err := a.client.SendMessage(ctx, chatID, text); err != nil {
		a.logger.Error("telegram: send failed", "error", err, "chat_id", chatID)
	}
}

// Callcenter sends operator alerts to a fixed chat. Implements the
// notify.ChatSender interface.
type Callcenter struct {
	client *Client
	chatID int64
}

// NewCallcenter creates the operator alert sender.
func NewCallcenter(client *Client, chatID int64) *Callcenter {
	return &Callcenter{client: client, chatID: chatID}
}

// SendAlert delivers one alert message to the operator chat.
func (c *Callcenter) SendAlert(ctx context.Context, text string) error {
	return c.client.SendMessage(ctx, c.chatID, text)
}
