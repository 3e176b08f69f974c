package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vntam/chat-realtime-sub000/internal/mocks"
)

func TestQueueDeliversToPublisher(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	delivered := make(chan struct{}, 1)
	publisher.On("Publish", mock.Anything, KeyMessageCreated, mock.MatchedBy(func(ev Event) bool {
		return ev.Name == KeyMessageCreated && ev.Payload["message_id"] == "m1"
	})).Run(func(mock.Arguments) { delivered <- struct{}{} }).Return(nil).Once()
	publisher.On("Close").Return(nil).Once()

	q := NewQueue(publisher, 4)
	q.Enqueue(KeyMessageCreated, map[string]any{"message_id": "m1"})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not published")
	}

	require.NoError(t, q.Close())
	publisher.AssertExpectations(t)
}

func TestQueueCloseDrains(t *testing.T) {
	publisher := new(mocks.PublisherMock)
	publisher.On("Publish", mock.Anything, KeyGroupInviteCreated, mock.Anything).Return(nil).Times(3)
	publisher.On("Close").Return(nil).Once()

	q := NewQueue(publisher, 8)
	for i := 0; i < 3; i++ {
		q.Enqueue(KeyGroupInviteCreated, map[string]any{"i": i})
	}

	require.NoError(t, q.Close())
	publisher.AssertExpectations(t)
}

func TestNoopPublisherMode(t *testing.T) {
	p := NewPublisher("", "chat.events")
	assert.Equal(t, "noop", PublisherMode(p))
	assert.NoError(t, p.Publish(context.Background(), "x", nil))
	assert.NoError(t, p.Close())
}
