package service

import (
	"sync"

	"hue-bridge-client/internal/domain/model"
)

// history keeps the most recent stream events, oldest first.
type history struct {
	mu     sync.Mutex
	events []model.StreamEvent
	next   int
	full   bool
}

func newHistory(size int) *history {
	if size <= 0 {
		size = 1
	}
	return &history{events: make([]model.StreamEvent, size)}
}

func (h *history) add(ev model.StreamEvent) {
	ev.Data = cloneData(ev.Data)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[h.next] = ev
	h.next = (h.next + 1) % len(h.events)
	if h.next == 0 {
		h.full = true
	}
}

func (h *history) snapshot() []model.StreamEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []model.StreamEvent
	if h.full {
		out = append(out, h.events[h.next:]...)
	}
	out = append(out, h.events[:h.next]...)
	for i := range out {
		out[i].Data = cloneData(out[i].Data)
	}
	return out
}

func (h *history) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.events)
	h.next = 0
	h.full = false
}

func cloneData(data []model.Attributes) []model.Attributes {
	if data == nil {
		return nil
	}
	out := make([]model.Attributes, len(data))
	for i, a := range data {
		out[i] = a.Clone()
	}
	return out
}
