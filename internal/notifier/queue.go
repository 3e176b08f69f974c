package notifier

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vntam/chat-realtime-sub000/internal/observability"
)

// Routing keys for the events this engine emits.
const (
	KeyMessageCreated     = "message.created"
	KeyGroupInviteCreated = "group_invite.created"
)

// Event is one outbound notification.
type Event struct {
	Name       string         `json:"event_name"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

// Queue decouples command handlers from the notification transport: handlers
// enqueue without blocking and a single consumer goroutine drains to the
// publisher. Delivery is best-effort; failures are logged, never surfaced.
type Queue struct {
	publisher Publisher
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue starts the consumer over a buffered channel of the given size.
func NewQueue(publisher Publisher, size int) *Queue {
	if size <= 0 {
		size = 256
	}
	q := &Queue{
		publisher: publisher,
		events:    make(chan Event, size),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue hands an event to the consumer without blocking the caller. When the
// buffer is full the event is dropped and counted.
func (q *Queue) Enqueue(name string, payload map[string]any) {
	ev := Event{Name: name, OccurredAt: time.Now().UTC(), Payload: payload}
	select {
	case q.events <- ev:
	default:
		observability.IncNotifierDropped()
		log.Printf("notifier queue full, dropped event=%s", name)
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for ev := range q.events {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := q.publisher.Publish(ctx, ev.Name, ev); err != nil {
			observability.IncNotifierError()
		}
		cancel()
	}
}

// Close stops intake, drains buffered events and closes the publisher.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() {
		close(q.events)
	})
	<-q.done
	return q.publisher.Close()
}
