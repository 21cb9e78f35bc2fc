package avito

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		UserID:       777,
		TokenPath:    filepath.Join(t.TempDir(), "tokens.json"),
	})
	require.NoError(t, err)
	client.SetBaseURL(server.URL)
	return client
}

func TestRefreshTokenCachesOnDisk(t *testing.T) {
	var grantType string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token/", r.URL.Path)
		require.NoError(t, r.ParseForm())
		grantType = r.FormValue("grant_type")
		json.NewEncoder(w).Encode(tokenResponse{AccessToken: "at-1", TokenType: "Bearer", ExpiresIn: 86400})
	}))

	require.NoError(t, client.RefreshToken(context.Background()))
	assert.Equal(t, "client_credentials", grantType)

	data, err := os.ReadFile(client.tokenPath)
	require.NoError(t, err)
	var stored storedToken
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "at-1", stored.AccessToken)
	assert.Greater(t, stored.ExpiresAt, time.Now().Unix())
}

func TestNewClientReusesCachedToken(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "tokens.json")
	cached := storedToken{AccessToken: "cached", TokenType: "Bearer", ExpiresAt: time.Now().Add(12 * time.Hour).Unix()}
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(tokenPath, data, 0o600))

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			t.Fatal("token grant must not be requested")
		}
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(chatsResponse{})
	}))
	defer server.Close()

	client, err := NewClient(Config{ClientID: "cid", ClientSecret: "secret", UserID: 777, TokenPath: tokenPath})
	require.NoError(t, err)
	client.SetBaseURL(server.URL)

	_, err = client.ListChats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer cached", gotAuth)
}

func TestListChatsParsesFlexibleIDs(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "at", ExpiresIn: 86400})
			return
		}
		require.Equal(t, "/messenger/v2/accounts/777/chats", r.URL.Path)
		w.Write([]byte(`{"chats":[
			{"id":12345,"url":"https://avito.ru/chat/1",
			 "context":{"value":{"title":"Натяжные потолки. Потолок в подарок","url":"https://avito.ru/item/1","location":{"title":"Ижевск"}}},
			 "last_message":{"id":"m-9","direction":"in","content":{"text":"сколько стоит?"}}},
			{"id":"chat-2","last_message":{"id":100,"author_id":777,"content":{"text":"ответ"}}}
		]}`))
	}))

	chats, err := client.ListChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "12345", string(chats[0].ID))
	assert.Equal(t, "m-9", string(chats[0].LastMessage.ID))
	assert.Equal(t, "Ижевск", chats[0].Context.Value.Location.Title)
	assert.Equal(t, "chat-2", string(chats[1].ID))
	assert.Equal(t, "100", string(chats[1].LastMessage.ID))
	assert.Equal(t, "777", string(chats[1].LastMessage.AuthorID))
}

func TestSendText(t *testing.T) {
	var payload map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "at", ExpiresIn: 86400})
			return
		}
		require.Equal(t, "/messenger/v1/accounts/777/chats/c1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{}`))
	}))

	require.NoError(t, client.SendText(context.Background(), "c1", "здравствуйте"))
	msg := payload["message"].(map[string]any)
	assert.Equal(t, "здравствуйте", msg["text"])
	assert.Equal(t, "text", payload["type"])
}

func TestRequestRetriesAfterUnauthorized(t *testing.T) {
	grants := 0
	calls := 0
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/token/" {
			grants++
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "at", ExpiresIn: 86400})
			return
		}
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(chatsResponse{Chats: []Chat{{ID: "c1"}}})
	}))

	chats, err := client.ListChats(context.Background())
	require.NoError(t, err)
	assert.Len(t, chats, 1)
	assert.Equal(t, 2, grants) // initial grant plus the forced refresh
	assert.Equal(t, 2, calls)
}

func TestTokenErrorSurfaced(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))

	err := client.RefreshToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
}
