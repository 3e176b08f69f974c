package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vntam/chat-realtime-sub000/internal/users"
)

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) Verify(token string) (int64, error) {
	args := m.Called(token)
	return args.Get(0).(int64), args.Error(1)
}

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) GetUser(ctx context.Context, userID int64) (users.User, error) {
	args := m.Called(ctx, userID)
	var u users.User
	if val := args.Get(0); val != nil {
		u = val.(users.User)
	}
	return u, args.Error(1)
}

func (m *DirectoryMock) BulkUsers(ctx context.Context, ids []int64) (map[int64]users.User, error) {
	args := m.Called(ctx, ids)
	var out map[int64]users.User
	if val := args.Get(0); val != nil {
		out = val.(map[int64]users.User)
	}
	return out, args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// BroadcasterRecorder records fan-out calls without a real hub. Not a
// testify mock; assertions read the recorded slices directly.
type BroadcasterRecorder struct {
	UserEvents []RecordedUserEvent
	RoomEvents []RecordedRoomEvent
	Evicted    []RecordedEviction
}

type RecordedUserEvent struct {
	UserIDs []int64
	Event   string
	Payload any
}

type RecordedRoomEvent struct {
	ConversationID uuid.UUID
	Event          string
	Payload        any
}

type RecordedEviction struct {
	ConversationID uuid.UUID
	UserID         int64
}

func (r *BroadcasterRecorder) ToUser(userID int64, event string, payload any) {
	r.UserEvents = append(r.UserEvents, RecordedUserEvent{UserIDs: []int64{userID}, Event: event, Payload: payload})
}

func (r *BroadcasterRecorder) ToUsers(userIDs []int64, event string, payload any) {
	r.UserEvents = append(r.UserEvents, RecordedUserEvent{UserIDs: userIDs, Event: event, Payload: payload})
}

func (r *BroadcasterRecorder) ToConversation(conversationID uuid.UUID, event string, payload any) {
	r.RoomEvents = append(r.RoomEvents, RecordedRoomEvent{ConversationID: conversationID, Event: event, Payload: payload})
}

func (r *BroadcasterRecorder) EvictUser(conversationID uuid.UUID, userID int64) {
	r.Evicted = append(r.Evicted, RecordedEviction{ConversationID: conversationID, UserID: userID})
}

// NotifierRecorder records enqueued notification events.
type NotifierRecorder struct {
	Events []RecordedNotification
}

type RecordedNotification struct {
	Name    string
	Payload map[string]any
}

func (r *NotifierRecorder) Enqueue(name string, payload map[string]any) {
	r.Events = append(r.Events, RecordedNotification{Name: name, Payload: payload})
}
