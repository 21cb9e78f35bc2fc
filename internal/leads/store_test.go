package leads

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLead() *Lead {
	return &Lead{
		CreatedAt: time.Date(2026, 3, 14, 10, 30, 0, 0, time.Local),
		Platform:  "avito",
		UserID:    "u1",
		Username:  "ivan",
		Kind:      KindMeasure,
		City:      "Ижевск",
		AreaM2:    20,
		Extras:    []string{"светильник"},
		Address:   "Ворошилова 4",
		VisitDate: "15.03.2026",
		VisitTime: "14:00",
		Phone:     "+79121234567",
		Meta:      map[string]string{"chat_url": "https://example.test/chat/1"},
	}
}

func TestFileStoreAppend(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "leads.txt"), filepath.Join(dir, "cards"))
	require.NoError(t, err)

	cardPath, err := store.Append(context.Background(), sampleLead())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(cardPath, ".json"))
	assert.Contains(t, filepath.Base(cardPath), "avito")
	assert.Contains(t, filepath.Base(cardPath), "Ижевск")

	log, err := os.ReadFile(filepath.Join(dir, "leads.txt"))
	require.NoError(t, err)
	line := string(log)
	assert.Contains(t, line, "platform=avito")
	assert.Contains(t, line, "city=Ижевск")
	assert.Contains(t, line, "area_m2=20")
	assert.Contains(t, line, "phone=+79121234567")

	raw, err := os.ReadFile(cardPath)
	require.NoError(t, err)
	var card Lead
	require.NoError(t, json.Unmarshal(raw, &card))
	assert.Equal(t, "Ижевск", card.City)
	assert.Equal(t, "https://example.test/chat/1", card.Meta["chat_url"])
}

func TestFileStoreAppendTwoLines(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "leads.txt"), filepath.Join(dir, "cards"))
	require.NoError(t, err)

	_, err = store.Append(context.Background(), sampleLead())
	require.NoError(t, err)
	second := sampleLead()
	second.CreatedAt = second.CreatedAt.Add(time.Minute)
	_, err = store.Append(context.Background(), second)
	require.NoError(t, err)

	log, err := os.ReadFile(filepath.Join(dir, "leads.txt"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(log), "\n"))
}

func TestFileStoreRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "leads.txt"), filepath.Join(dir, "cards"))
	require.NoError(t, err)

	lead := sampleLead()
	lead.Phone = ""
	_, err = store.Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrMissingContact)

	lead = sampleLead()
	lead.City = ""
	_, err = store.Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrMissingCity)

	lead = sampleLead()
	lead.UserID = ""
	_, err = store.Append(context.Background(), lead)
	assert.ErrorIs(t, err, ErrMissingIdentity)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Ижевск", safeName("Ижевск"))
	assert.Equal(t, "user_1", safeName("  user 1  "))
	assert.Equal(t, "lead", safeName("///"))
}
