// Package dialog is the funnel orchestrator. A channel adapter hands
// every inbound message to Engine.Reply; the engine loads the
// conversation memory, runs one pure funnel turn, executes the decided
// side effects and persists memory before returning the reply.
package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/potolkibot/leadbot/internal/llm"
	"github.com/potolkibot/leadbot/internal/memory"
	"github.com/potolkibot/leadbot/internal/notify"
	"github.com/potolkibot/leadbot/internal/observability/metrics"
	"github.com/potolkibot/leadbot/internal/sanitize"
	"github.com/potolkibot/leadbot/pkg/logging"

	"github.com/potolkibot/leadbot/internal/leads"
)

// DefaultManualWindow is how long the bot stays silent after a
// customer asks for a human.
const DefaultManualWindow = 6 * time.Hour

// promoSource answers the current promotion for a city.
type promoSource interface {
	Promo(city string) string
}

// Options tunes the engine. Zero values pick sensible defaults.
type Options struct {
	ManualWindow time.Duration
	Now          func() time.Time
}

// Engine drives the qualification funnel for every conversation.
type Engine struct {
	store        memory.Store
	locks        *memory.KeyLocker
	cities       cityMatcher
	price        estimator
	promos       promoSource
	leadStore    leads.Store
	notifier     *notify.Service
	completion   llm.Client
	metrics      *metrics.DialogMetrics
	logger       *logging.Logger
	manualWindow time.Duration
	now          func() time.Time
}

// NewEngine wires the orchestrator. store, cities, price and leadStore
// are required; notifier, completion and metrics may be nil and the
// matching effect is skipped.
func NewEngine(
	store memory.Store,
	cities cityMatcher,
	price estimator,
	promos promoSource,
	leadStore leads.Store,
	notifier *notify.Service,
	completion llm.Client,
	m *metrics.DialogMetrics,
	logger *logging.Logger,
	opts Options,
) *Engine {
	if store == nil {
		panic("dialog: memory store required")
	}
	if cities == nil {
		panic("dialog: city matcher required")
	}
	if price == nil {
		panic("dialog: pricing required")
	}
	if leadStore == nil {
		panic("dialog: lead store required")
	}
	if promos == nil {
		promos = noPromos{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.ManualWindow <= 0 {
		opts.ManualWindow = DefaultManualWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		store:        store,
		locks:        memory.NewKeyLocker(),
		cities:       cities,
		price:        price,
		promos:       promos,
		leadStore:    leadStore,
		notifier:     notifier,
		completion:   completion,
		metrics:      m,
		logger:       logger,
		manualWindow: opts.ManualWindow,
		now:          opts.Now,
	}
}

type noPromos struct{}

func (noPromos) Promo(string) string { return "" }

// Reply processes one inbound message and returns the authoritative
// reply text. An empty reply means the adapter should send nothing
// (duplicate message or active manual handoff).
func (e *Engine) Reply(ctx context.Context, in Input) (string, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return "", nil
	}

	key := memory.Key(in.Platform, in.UserID)
	unlock := e.locks.Lock(key)
	defer unlock()

	started := e.now()
	e.metrics.ObserveInbound(in.Platform)

	mem, err := e.store.Load(ctx, key)
	if err != nil {
		return "", fmt.Errorf("dialog: load memory for %s: %w", key, err)
	}

	out := advance(mem, in, e.now(), e.cities, e.price, e.manualWindow)

	for _, alert := range out.alerts {
		e.notify(ctx, alert)
	}
	if out.escalated {
		e.metrics.ObserveEscalation(in.Platform)
	}
	if out.hotAlerted {
		e.metrics.ObserveHotAlert(in.Platform)
	}
	if out.lead != nil {
		e.finalizeLead(ctx, in.Platform, out.lead)
	}

	reply := out.reply
	if out.needLLM {
		reply = e.completeFreeForm(ctx, in, mem)
	}

	if !out.suppressed && reply != "" {
		reply = sanitize.Sanitize(reply, out.allowGreeting, out.allowPhoneEcho)
		mem.PushTurn("assistant", reply)
	}

	if err := e.store.Save(ctx, key, mem); err != nil {
		// surfaced: the caller decides whether to retry the message
		return "", fmt.Errorf("dialog: save memory for %s: %w", key, err)
	}

	if out.suppressed {
		return "", nil
	}

	e.metrics.ObserveReply(in.Platform, out.branch)
	e.metrics.ObserveReplyLatency(in.Platform, e.now().Sub(started).Seconds())
	if out.promoImage {
		reply = PromoImageMarker + reply
	}
	return reply, nil
}

// History returns the last n turns of the conversation, oldest first.
func (e *Engine) History(ctx context.Context, platform, userID string, n int) ([]memory.Turn, error) {
	mem, err := e.store.Load(ctx, memory.Key(platform, userID))
	if err != nil {
		return nil, fmt.Errorf("dialog: load history for %s:%s: %w", platform, userID, err)
	}
	return mem.RecentTurns(n), nil
}

// Reset wipes memory and history for the conversation, restarting the
// funnel for the same identity.
func (e *Engine) Reset(ctx context.Context, platform, userID string) error {
	key := memory.Key(platform, userID)
	unlock := e.locks.Lock(key)
	defer unlock()

	if err := e.store.Reset(ctx, key); err != nil {
		return fmt.Errorf("dialog: reset %s: %w", key, err)
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, text string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Alert(ctx, text)
}

// finalizeLead writes the lead record and dispatches the transactional
// email. Store and dispatch failures are logged: the customer already
// got their confirmation and the funnel flag is set, so retrying would
// risk duplicates.
func (e *Engine) finalizeLead(ctx context.Context, platform string, lead *leads.Lead) {
	cardPath, err := e.leadStore.Append(ctx, lead)
	if err != nil {
		e.logger.Error("dialog: lead store append failed", "error", err, "platform", platform, "user_id", lead.UserID)
	}
	e.metrics.ObserveLead(platform)
	if e.notifier != nil {
		e.notifier.LeadEmail(ctx, lead, cardPath)
	}
}

// completeFreeForm builds the completion request: system prompt, the
// hydrated history, and a context block with everything the funnel
// already knows, so the model never re-asks answered questions.
func (e *Engine) completeFreeForm(ctx context.Context, in Input, mem *memory.Memory) string {
	if e.completion == nil {
		return llm.BusyReply
	}

	var contextParts []string
	if mem.City != "" {
		contextParts = append(contextParts, fmt.Sprintf("Город клиента: %s", mem.City))
	}
	if mem.AreaM2 > 0 {
		contextParts = append(contextParts, fmt.Sprintf("Площадь (из памяти): %g м²", mem.AreaM2))
	}
	if len(mem.Extras) > 0 {
		contextParts = append(contextParts, fmt.Sprintf("Допы (из памяти): %s", strings.Join(mem.Extras, ", ")))
	}
	if mem.City != "" && mem.AreaM2 > 0 {
		if est := e.price.Calculate(mem.City, mem.AreaM2, mem.Extras); est.Known {
			contextParts = append(contextParts, fmt.Sprintf("Оценка: от %d ₽ (ориентир, не точная цена)", est.MinPrice))
		}
	}
	if mem.City != "" {
		if p := e.promos.Promo(mem.City); p != "" {
			contextParts = append(contextParts, fmt.Sprintf("Акция: %s", p))
		}
	}
	if turns := mem.RecentTurns(10); len(turns) > 0 {
		var lines []string
		for _, t := range turns {
			role := "Менеджер"
			if t.Role == "user" {
				role = "Клиент"
			}
			lines = append(lines, role+": "+t.Text)
		}
		contextParts = append(contextParts, "Последние сообщения:\n"+strings.Join(lines, "\n"))
	}
	contextParts = append(contextParts, fmt.Sprintf("Сообщение клиента: %s", in.Text))

	messages := []llm.Message{
		{Role: "system", Content: llm.SystemPrompt},
		{Role: "system", Content: strings.Join(contextParts, "\n")},
	}
	for _, t := range mem.RecentTurns(memory.HydrateTurns) {
		role := "assistant"
		if t.Role == "user" {
			role = "user"
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Text})
	}

	answer, err := e.completion.Chat(ctx, messages)
	if err != nil {
		if llm.IsTimeout(err) {
			e.metrics.ObserveLLMFallback(in.Platform, "timeout")
			e.logger.Warn("dialog: completion timed out", "platform", in.Platform, "user_id", in.UserID)
			return llm.BusyReply
		}
		e.metrics.ObserveLLMFallback(in.Platform, "error")
		e.logger.Error("dialog: completion failed", "error", err, "platform", in.Platform, "user_id", in.UserID)
		return llm.BusyReply
	}
	e.metrics.ObserveLLMFallback(in.Platform, "ok")
	return answer
}
