package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potolkibot/leadbot/internal/dialog"
	"github.com/potolkibot/leadbot/internal/gazetteer"
	"github.com/potolkibot/leadbot/internal/leads"
	"github.com/potolkibot/leadbot/internal/memory"
	"github.com/potolkibot/leadbot/internal/pricing"
)

type botAPIRecorder struct {
	mu     sync.Mutex
	texts  []string
	photos int
}

func (r *botAPIRecorder) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		switch {
		case strings.HasSuffix(req.URL.Path, "/sendMessage"):
			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatal(err)
			}
			r.texts = append(r.texts, payload["text"].(string))
		case strings.HasSuffix(req.URL.Path, "/sendPhoto"):
			r.photos++
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}
}

func newTestAdapter(t *testing.T, cfg AdapterConfig) (*Adapter, *botAPIRecorder, *dialog.Engine) {
	t.Helper()

	rec := &botAPIRecorder{}
	server := httptest.NewServer(rec.handler(t))
	t.Cleanup(server.Close)

	client := NewClient("token")
	client.SetAPIBase(server.URL)

	store, err := memory.NewFileStore(t.TempDir())
	require.NoError(t, err)
	price, err := pricing.NewEngineFromJSON([]byte(`{"cities":{"Ижевск":{"base_price_per_sqm":900}}}`))
	require.NoError(t, err)
	dir := t.TempDir()
	leadStore, err := leads.NewFileStore(filepath.Join(dir, "leads.log"), dir)
	require.NoError(t, err)

	engine := dialog.NewEngine(store, gazetteer.Default(), price, nil, leadStore, nil, nil, nil, nil, dialog.Options{})
	return NewAdapter(client, engine, cfg, nil), rec, engine
}

func inbound(chatID, msgID int64, text string) Update {
	return Update{
		UpdateID: msgID,
		Message: &Message{
			MessageID: msgID,
			From:      &User{ID: chatID, Username: "ivan", FirstName: "Иван"},
			Chat:      Chat{ID: chatID},
			Text:      text,
		},
	}
}

func TestStartCommandBypassesDebounce(t *testing.T) {
	a, rec, _ := newTestAdapter(t, AdapterConfig{})
	a.dispatch(context.Background(), inbound(5, 1, "/start"))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.texts, 1)
	assert.Equal(t, startText, rec.texts[0])
}

func TestResetCommand(t *testing.T) {
	a, rec, engine := newTestAdapter(t, AdapterConfig{})
	ctx := context.Background()

	_, err := engine.Reply(ctx, dialog.Input{Platform: Platform, UserID: "5", Text: "сколько стоит потолок?"})
	require.NoError(t, err)

	a.dispatch(ctx, inbound(5, 2, "/reset"))

	rec.mu.Lock()
	assert.Contains(t, rec.texts, resetText)
	rec.mu.Unlock()

	// memory wiped: the funnel starts over
	out, err := engine.Reply(ctx, dialog.Input{Platform: Platform, UserID: "5", Text: "Здравствуйте"})
	require.NoError(t, err)
	assert.Contains(t, out, "Будем рады помочь")
}

func TestFlushSendsReply(t *testing.T) {
	a, rec, _ := newTestAdapter(t, AdapterConfig{})
	a.flush("6", "сколько стоит потолок?", dialog.Meta{MessageID: "1"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.texts, 1)
	assert.Contains(t, rec.texts[0], "городе")
}

func TestFlushStripsPromoMarkerAndSendsPhoto(t *testing.T) {
	photo := filepath.Join(t.TempDir(), "promo.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("jpegdata"), 0o644))

	a, rec, _ := newTestAdapter(t, AdapterConfig{PromoImagePath: photo})
	a.flush("7", "какие у вас акции?", dialog.Meta{MessageID: "1"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.photos)
	require.Len(t, rec.texts, 1)
	assert.False(t, strings.HasPrefix(rec.texts[0], dialog.PromoImageMarker))
	assert.Contains(t, rec.texts[0], "акции")
}

func TestFlushWithoutPhotoPathStillReplies(t *testing.T) {
	a, rec, _ := newTestAdapter(t, AdapterConfig{})
	a.flush("8", "какие у вас акции?", dialog.Meta{MessageID: "1"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 0, rec.photos)
	require.Len(t, rec.texts, 1)
	assert.False(t, strings.HasPrefix(rec.texts[0], dialog.PromoImageMarker))
}

func TestDispatchIgnoresNonText(t *testing.T) {
	a, rec, _ := newTestAdapter(t, AdapterConfig{})
	a.dispatch(context.Background(), Update{UpdateID: 1, Message: nil})
	a.dispatch(context.Background(), inbound(9, 2, "   "))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.texts)
}
