package dialog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu    sync.Mutex
	texts []string
	metas []Meta
}

func (r *flushRecorder) flush(_ string, text string, meta Meta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	r.metas = append(r.metas, meta)
}

func (r *flushRecorder) wait(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		got := len(r.texts)
		r.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("flush not observed in time")
}

func TestDebouncerMergesBurst(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.flush)
	defer d.Stop()

	d.Push("tg:1", "хочу потолок", Meta{MessageID: "a"})
	d.Push("tg:1", "20 м2", Meta{MessageID: "b"})
	d.Push("tg:1", "Ижевск", Meta{MessageID: "c"})

	rec.wait(t, 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.texts, 1)
	assert.Equal(t, "хочу потолок\n20 м2\nИжевск", rec.texts[0])
	assert.Equal(t, "c", rec.metas[0].MessageID) // last message's meta wins
}

func TestDebouncerRestartsTimer(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(60*time.Millisecond, rec.flush)
	defer d.Stop()

	d.Push("tg:2", "раз", Meta{})
	time.Sleep(30 * time.Millisecond)
	d.Push("tg:2", "два", Meta{})

	// first delay elapsed, but the timer was restarted: nothing yet
	time.Sleep(45 * time.Millisecond)
	rec.mu.Lock()
	flushed := len(rec.texts)
	rec.mu.Unlock()
	assert.Equal(t, 0, flushed)

	rec.wait(t, 1)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "раз\nдва", rec.texts[0])
}

func TestDebouncerKeysIndependent(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(25*time.Millisecond, rec.flush)
	defer d.Stop()

	d.Push("tg:3", "первый", Meta{})
	d.Push("tg:4", "второй", Meta{})

	rec.wait(t, 2)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.ElementsMatch(t, []string{"первый", "второй"}, rec.texts)
}

func TestDebouncerIgnoresBlankInput(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.flush)
	defer d.Stop()

	d.Push("tg:5", "   ", Meta{})
	time.Sleep(60 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.texts)
}

func TestDebouncerStopDropsPending(t *testing.T) {
	rec := &flushRecorder{}
	d := NewDebouncer(40*time.Millisecond, rec.flush)

	d.Push("tg:6", "в пути", Meta{})
	d.Stop()
	time.Sleep(80 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.texts)
}
