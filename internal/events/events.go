// Package events provides the change-notification bus the navigation
// controller publishes on after every successful state transition. The view
// layer (CLI, desktop shell) re-renders from these events.
package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// EventNavigationChanged fires when the breadcrumb trail / address
	// string is rebuilt after a successful navigation.
	EventNavigationChanged EventType = "navigation_changed"

	// EventFolderLoading fires when a folder enters or leaves the Loading
	// status (spinner on/off).
	EventFolderLoading EventType = "folder_loading"

	// EventFolderExpanded fires after a folder's children have been applied
	// to the store.
	EventFolderExpanded EventType = "folder_expanded"

	// EventFilePageChanged fires after a folder's file page and cursor have
	// been replaced.
	EventFilePageChanged EventType = "file_page_changed"

	// EventLoadError fires when a fetch fails and the node was rolled back.
	EventLoadError EventType = "load_error"
)

const (
	defaultBufferSize = 256
	maxBufferSize     = 4096
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NavigationChangedEvent carries the rebuilt navigation state.
type NavigationChangedEvent struct {
	BaseEvent
	Address    string
	TrailNames []string // breadcrumb display names, root first
}

// FolderLoadingEvent signals a folder's loading spinner state.
type FolderLoadingEvent struct {
	BaseEvent
	FolderID string
	Loading  bool
}

// FolderExpandedEvent signals that a folder's children were materialized.
type FolderExpandedEvent struct {
	BaseEvent
	FolderID    string
	ChildCount  int
	HasChildren bool
}

// FilePageChangedEvent signals a replaced file page.
type FilePageChangedEvent struct {
	BaseEvent
	FolderID   string
	Page       int
	TotalPages int
	TotalFiles int
}

// LoadErrorEvent signals a failed fetch; the node has already been rolled
// back to its previous status.
type LoadErrorEvent struct {
	BaseEvent
	FolderID string
	Op       string // "expand", "page", "resolve"
	Err      error
}

// Bus manages event subscriptions and publishing.
type Bus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64
}

// NewBus creates a new event bus with the specified buffer size per
// subscriber channel.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	if bufferSize > maxBufferSize {
		bufferSize = maxBufferSize
	}
	return &Bus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
func (b *Bus) Subscribe(eventType EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events.
func (b *Bus) SubscribeAll() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, b.bufferSize)
	b.all = append(b.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Non-blocking: a subscriber with
// a full buffer drops the event rather than stalling the controller.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}

	for _, ch := range b.all {
		select {
		case ch <- event:
		default:
			b.droppedEvents.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
func (b *Bus) Unsubscribe(eventType EventType, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	subscribers := b.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			b.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from every event type and
// from the all-events list.
func (b *Bus) UnsubscribeAll(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for eventType, subscribers := range b.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				b.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range b.all {
		if subCh == ch {
			b.all[i] = b.all[len(b.all)-1]
			b.all = b.all[:len(b.all)-1]
			break
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	for _, channels := range b.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range b.all {
		close(ch)
	}
}

// DroppedEventCount returns the total number of events dropped due to full
// subscriber buffers.
func (b *Bus) DroppedEventCount() int64 {
	return b.droppedEvents.Load()
}
