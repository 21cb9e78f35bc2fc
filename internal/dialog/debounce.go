package dialog

import (
	"strings"
	"sync"
	"time"
)

// Debouncer coalesces rapid-fire messages from one identity into a
// single merged text before the funnel runs. The timer restarts on
// every new message; only the last message's meta (and so its dedup
// marker) survives into the merged batch.
type Debouncer struct {
	delay time.Duration
	flush func(key, text string, meta Meta)

	mu      sync.Mutex
	buffers map[string][]string
	metas   map[string]Meta
	timers  map[string]*time.Timer
}

// NewDebouncer creates a debouncer. flush runs on the timer goroutine
// once per quiet period.
func NewDebouncer(delay time.Duration, flush func(key, text string, meta Meta)) *Debouncer {
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	return &Debouncer{
		delay:   delay,
		flush:   flush,
		buffers: make(map[string][]string),
		metas:   make(map[string]Meta),
		timers:  make(map[string]*time.Timer),
	}
}

// Push buffers one message and restarts the identity's timer.
func (d *Debouncer) Push(key, text string, meta Meta) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.buffers[key] = append(d.buffers[key], text)
	d.metas[key] = meta

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.delay, func() { d.fire(key) })
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	parts := d.buffers[key]
	meta := d.metas[key]
	delete(d.buffers, key)
	delete(d.metas, key)
	delete(d.timers, key)
	d.mu.Unlock()

	if len(parts) == 0 {
		return
	}
	d.flush(key, strings.Join(parts, "\n"), meta)
}

// Stop cancels all pending timers. Buffered messages are dropped.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
		delete(d.buffers, key)
		delete(d.metas, key)
	}
}
