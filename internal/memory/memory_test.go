package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPushTurnCapsDialog(t *testing.T) {
	var m Memory
	for i := 0; i < DialogCap+10; i++ {
		m.PushTurn("user", "сообщение")
	}
	assert.Len(t, m.Dialog, DialogCap)
}

func TestPushTurnSkipsEmpty(t *testing.T) {
	var m Memory
	m.PushTurn("user", "   ")
	assert.Empty(t, m.Dialog)
}

func TestRecentTurns(t *testing.T) {
	var m Memory
	m.PushTurn("user", "первое")
	m.PushTurn("assistant", "второе")
	m.PushTurn("user", "третье")

	got := m.RecentTurns(2)
	assert.Len(t, got, 2)
	assert.Equal(t, "второе", got[0].Text)
	assert.Equal(t, "третье", got[1].Text)

	assert.Len(t, m.RecentTurns(10), 3)
}

func TestInManualWindow(t *testing.T) {
	now := time.Now()
	var m Memory
	assert.False(t, m.InManualWindow(now))

	m.ManualUntil = now.Add(time.Hour).Unix()
	assert.True(t, m.InManualWindow(now))

	m.ManualUntil = now.Add(-time.Hour).Unix()
	assert.False(t, m.InManualWindow(now))
}

func TestDetailsCount(t *testing.T) {
	m := Memory{Address: "Ворошилова 4", Phone: "+79121234567"}
	assert.Equal(t, 2, m.DetailsCount())
	m.VisitDay = "завтра"
	m.VisitAt = "14:00"
	assert.Equal(t, 4, m.DetailsCount())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "tg:42", Key("tg", "42"))
}
