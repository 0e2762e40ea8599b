package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of lifecycle event
type EventType string

const (
	EventServerStarting EventType = "server.starting"
	EventServerRunning  EventType = "server.running"
	EventServerStopping EventType = "server.stopping"
	EventServerStopped  EventType = "server.stopped"
	EventServerRemoved  EventType = "server.removed"
	EventServerUnknown  EventType = "server.unknown"
	EventConfigChanged  EventType = "config.changed"
)

// Event represents one lifecycle event for a managed server
type Event struct {
	ID        string
	Type      EventType
	Server    string
	Timestamp time.Time
	Message   string
}

// Subscriber is a channel that receives events
type Subscriber chan *Event

// Bus manages event subscriptions and distribution
type Bus struct {
	subscribers map[Subscriber]bool
	mu          sync.RWMutex
	eventCh     chan *Event
	stopCh      chan struct{}
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Subscriber]bool),
		eventCh:     make(chan *Event, 100), // Buffer up to 100 events
		stopCh:      make(chan struct{}),
	}
}

// Start begins the bus's event distribution loop
func (b *Bus) Start() {
	go b.run()
}

// Stop stops event distribution
func (b *Bus) Stop() {
	close(b.stopCh)
}

// Subscribe registers a new subscriber
func (b *Bus) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 10)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscriber
func (b *Bus) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish sends an event to all subscribers. Never blocks the publisher:
// events to slow subscribers are dropped.
func (b *Bus) Publish(eventType EventType, server, message string) {
	event := &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Server:    server,
		Timestamp: time.Now(),
		Message:   message,
	}

	select {
	case b.eventCh <- event:
	default:
		// Bus buffer full, drop the event
	}
}

func (b *Bus) run() {
	for {
		select {
		case event := <-b.eventCh:
			b.broadcast(event)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Bus) broadcast(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, drop for this subscriber
		}
	}
}
