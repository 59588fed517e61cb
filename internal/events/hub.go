// Package events provides the engine's broadcast streams. Subscribers get a
// bounded, backlog-free feed: events published while a subscriber's buffer
// is full are dropped for that subscriber, never queued.
package events

import (
	"sync"
	"time"

	"github.com/cesargomez89/versecache/internal/constants"
	"github.com/cesargomez89/versecache/internal/domain"
)

type Kind string

const (
	KindTask       Kind = "task"
	KindContent    Kind = "content"
	KindProgress   Kind = "progress"
	KindOnline     Kind = "online"
	KindQuality    Kind = "quality"
	KindConnection Kind = "connection"
)

// Event is one item on a broadcast stream. Exactly one payload field is set,
// matching Kind; Message carries the human-readable progress strings.
type Event struct {
	At         time.Time              `json:"at"`
	Task       *domain.DownloadTask   `json:"task,omitempty"`
	Content    *domain.OfflineContent `json:"content,omitempty"`
	Connection *domain.ConnectionInfo `json:"connection,omitempty"`
	Kind       Kind                   `json:"kind"`
	Message    string                 `json:"message,omitempty"`
	Online     bool                   `json:"online,omitempty"`
	Quality    domain.Quality         `json:"quality,omitempty"`
}

type subscriber struct {
	ch    chan Event
	kinds map[Kind]bool // nil means all kinds
}

type Hub struct {
	subs map[*subscriber]struct{}
	mu   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe returns a stream of events filtered to the given kinds (all
// kinds when none are given) and a cancel function. Cancel closes the
// channel; consumers must stop reading afterwards.
func (h *Hub) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, constants.SubscriberBuffer)}
	if len(kinds) > 0 {
		sub.kinds = make(map[Kind]bool, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = true
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish fans the event out to every matching subscriber without blocking.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		if sub.kinds != nil && !sub.kinds[event.Kind] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Slow subscriber; drop rather than stall the engine
		}
	}
}

// PublishTask broadcasts a task mutation together with a progress line.
func (h *Hub) PublishTask(task *domain.DownloadTask, message string) {
	snapshot := *task
	h.Publish(Event{Kind: KindTask, Task: &snapshot})
	if message != "" {
		h.Publish(Event{Kind: KindProgress, Message: message})
	}
}

func (h *Hub) PublishContent(content *domain.OfflineContent) {
	snapshot := *content
	h.Publish(Event{Kind: KindContent, Content: &snapshot})
}

// SubscriberCount is used by tests and the stats endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
