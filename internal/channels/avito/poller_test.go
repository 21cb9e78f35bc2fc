package avito

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/internal/gazetteer"
	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/internal/memory"
	"github.com/potolkibot/leadbot/internal/pricing"
)

type fakeAPI struct {
	chats []Chat
	sent  []string
	read  []string
}

func (f *fakeAPI) EnsureToken(context.Context) error  { return nil }
func (f *fakeAPI) RefreshToken(context.Context) error { return nil }
func (f *fakeAPI) ListChats(context.Context) ([]Chat, error) {
	return f.chats, nil
}
func (f *fakeAPI) SendText(_ context.Context, chatID, text string) error {
	f.sent = append(f.sent, chatID+"|"+text)
	return nil
}
func (f *fakeAPI) MarkRead(_ context.Context, chatID string) error {
	f.read = append(f.read, chatID)
	return nil
}

func newTestPoller(t *testing.T, api *fakeAPI) *Poller {
	t.Helper()

	store, err := memory.NewFileStore(t.TempDir())
	require.NoError(t, err)
	price, err := pricing.NewEngineFromJSON([]byte(`{"cities":{"Ижевск":{"base_price_per_sqm":900}}}`))
	require.NoError(t, err)
	dir := t.TempDir()
	leadStore, err := leads.NewFileStore(filepath.Join(dir, "leads.log"), dir)
	require.NoError(t, err)

	engine := dialog.NewEngine(store, gazetteer.Default(), price, nil, leadStore, nil, nil, nil, nil, dialog.Options{})
	return NewPoller(api, engine, PollerConfig{UserID: 777}, nil)
}

func allowedChat(chatID, mid, text string) Chat {
	return Chat{
		ID:  flexID(chatID),
		URL: "https://avito.ru/chat/" + chatID,
		Context: ChatContext{Value: ChatContextValue{
			Title: "Натяжные потолки. Потолок в подарок",
			URL:   "https://avito.ru/item/1",
		}},
		LastMessage: &ChatMessage{ID: flexID(mid), Direction: "in", Content: MessageContent{Text: text}},
	}
}

func TestPollerRepliesToAllowedListing(t *testing.T) {
	api := &fakeAPI{chats: []Chat{allowedChat("c1", "m1", "сколько стоит потолок?")}}
	p := newTestPoller(t, api)

	p.tick(context.Background())

	require.Len(t, api.sent, 1)
	assert.True(t, strings.HasPrefix(api.sent[0], "c1|"))
	assert.Contains(t, api.sent[0], "городе")
	assert.Equal(t, []string{"c1"}, api.read)
}

func TestPollerSkipsForeignListing(t *testing.T) {
	chat := allowedChat("c2", "m1", "сколько стоит потолок?")
	chat.Context.Value.Title = "Диван абсолютно новый"
	api := &fakeAPI{chats: []Chat{chat}}
	p := newTestPoller(t, api)

	p.tick(context.Background())

	assert.Empty(t, api.sent)
}

func TestPollerSkipsOffTopicWithoutTitle(t *testing.T) {
	chat := allowedChat("c3", "m1", "ещё продаете диван?")
	chat.Context.Value.Title = ""
	api := &fakeAPI{chats: []Chat{chat}}
	p := newTestPoller(t, api)

	p.tick(context.Background())
	assert.Empty(t, api.sent)

	// ceiling topic without a title still gets an answer
	chat.Context.Value.Title = ""
	chat.LastMessage = &ChatMessage{ID: "m2", Direction: "in", Content: MessageContent{Text: "нужен натяжной потолок"}}
	api.chats = []Chat{chat}
	p.tick(context.Background())
	assert.Len(t, api.sent, 1)
}

func TestPollerSkipsOutgoing(t *testing.T) {
	chat := allowedChat("c4", "m1", "ответ менеджера")
	chat.LastMessage.Direction = "out"
	api := &fakeAPI{chats: []Chat{chat}}
	p := newTestPoller(t, api)

	p.tick(context.Background())
	assert.Empty(t, api.sent)
}

func TestPollerSkipsOwnAuthor(t *testing.T) {
	chat := allowedChat("c5", "m1", "сколько стоит потолок?")
	chat.LastMessage.Direction = ""
	chat.LastMessage.AuthorID = "777"
	api := &fakeAPI{chats: []Chat{chat}}
	p := newTestPoller(t, api)

	p.tick(context.Background())
	assert.Empty(t, api.sent)
}

func TestPollerDoesNotReprocessSameMessage(t *testing.T) {
	api := &fakeAPI{chats: []Chat{allowedChat("c6", "m1", "сколько стоит потолок?")}}
	p := newTestPoller(t, api)

	p.tick(context.Background())
	p.tick(context.Background())

	assert.Len(t, api.sent, 1)
}

func TestPollerEngineDedupSurvivesRestart(t *testing.T) {
	api := &fakeAPI{chats: []Chat{allowedChat("c7", "m1", "сколько стоит потолок?")}}
	p := newTestPoller(t, api)
	p.tick(context.Background())
	require.Len(t, api.sent, 1)

	// restart: seen map is empty, the engine's persisted marker drops the dup
	restarted := NewPoller(api, p.engine, PollerConfig{UserID: 777}, nil)
	restarted.tick(context.Background())
	assert.Len(t, api.sent, 1)
}

func TestParseAllowedTitles(t *testing.T) {
	got := ParseAllowedTitles("Первый | Второй |")
	assert.Equal(t, []string{"Первый", "Второй"}, got)
	assert.Nil(t, ParseAllowedTitles(""))
}
