package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/vntam/chat-realtime-sub000/internal/models"
)

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) CreateGroup(ctx context.Context, creatorID int64, name, avatar string, memberIDs []int64) (models.Conversation, error) {
	args := m.Called(ctx, creatorID, name, avatar, memberIDs)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) GetOrCreatePrivate(ctx context.Context, creatorID, otherID int64) (models.Conversation, bool, error) {
	args := m.Called(ctx, creatorID, otherID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Bool(1), args.Error(2)
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, id uuid.UUID) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, userID int64, limit, skip int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID, limit, skip)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) Members(ctx context.Context, id uuid.UUID) ([]models.Member, error) {
	args := m.Called(ctx, id)
	var members []models.Member
	if val := args.Get(0); val != nil {
		members = val.([]models.Member)
	}
	return members, args.Error(1)
}

func (m *ConversationRepositoryMock) IsParticipant(ctx context.Context, id uuid.UUID, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) AddMember(ctx context.Context, id uuid.UUID, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) RemoveMember(ctx context.Context, id uuid.UUID, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetRole(ctx context.Context, id uuid.UUID, userID int64, role models.MemberRole) error {
	args := m.Called(ctx, id, userID, role)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) TransferAdmin(ctx context.Context, id uuid.UUID, oldAdminID, newAdminID int64) error {
	args := m.Called(ctx, id, oldAdminID, newAdminID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetRequestStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) SetLastMessage(ctx context.Context, id, messageID uuid.UUID) error {
	args := m.Called(ctx, id, messageID)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, conversationID uuid.UUID, senderID int64, content string, attachments []string, msgType models.MessageType) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, content, attachments, msgType)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListForUser(ctx context.Context, conversationID uuid.UUID, clearedBefore *time.Time, limit, skip int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, clearedBefore, limit, skip)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) Edit(ctx context.Context, messageID uuid.UUID, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Delete(ctx context.Context, messageID uuid.UUID) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) Search(ctx context.Context, userID int64, filter models.SearchFilter) ([]models.Message, error) {
	args := m.Called(ctx, userID, filter)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) AppendSeenBy(ctx context.Context, messageID uuid.UUID, userID int64) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListUnreadIDs(ctx context.Context, conversationID uuid.UUID, userID int64) ([]uuid.UUID, error) {
	args := m.Called(ctx, conversationID, userID)
	var ids []uuid.UUID
	if val := args.Get(0); val != nil {
		ids = val.([]uuid.UUID)
	}
	return ids, args.Error(1)
}

type DeliveryRepositoryMock struct {
	mock.Mock
}

func (m *DeliveryRepositoryMock) UpsertStatus(ctx context.Context, messageID uuid.UUID, userID int64, status models.DeliveryStatus) (bool, error) {
	args := m.Called(ctx, messageID, userID, status)
	return args.Bool(0), args.Error(1)
}

func (m *DeliveryRepositoryMock) Entries(ctx context.Context, messageID uuid.UUID) ([]models.DeliveryEntry, error) {
	args := m.Called(ctx, messageID)
	var entries []models.DeliveryEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.DeliveryEntry)
	}
	return entries, args.Error(1)
}

func (m *DeliveryRepositoryMock) ApplyAggregate(ctx context.Context, messageID uuid.UUID, status models.DeliveryStatus) error {
	args := m.Called(ctx, messageID, status)
	return args.Error(0)
}

type SettingsRepositoryMock struct {
	mock.Mock
}

func (m *SettingsRepositoryMock) Get(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error) {
	args := m.Called(ctx, userID, conversationID)
	var settings models.ConversationSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ConversationSettings)
	}
	return settings, args.Error(1)
}

func (m *SettingsRepositoryMock) SetPinned(ctx context.Context, userID int64, conversationID uuid.UUID, pinned bool, order int) (models.ConversationSettings, error) {
	args := m.Called(ctx, userID, conversationID, pinned, order)
	var settings models.ConversationSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ConversationSettings)
	}
	return settings, args.Error(1)
}

func (m *SettingsRepositoryMock) SetMuted(ctx context.Context, userID int64, conversationID uuid.UUID, muted bool, until *time.Time) (models.ConversationSettings, error) {
	args := m.Called(ctx, userID, conversationID, muted, until)
	var settings models.ConversationSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ConversationSettings)
	}
	return settings, args.Error(1)
}

func (m *SettingsRepositoryMock) SetHidden(ctx context.Context, userID int64, conversationID uuid.UUID, hidden bool) (models.ConversationSettings, error) {
	args := m.Called(ctx, userID, conversationID, hidden)
	var settings models.ConversationSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ConversationSettings)
	}
	return settings, args.Error(1)
}

func (m *SettingsRepositoryMock) ClearHistory(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error) {
	args := m.Called(ctx, userID, conversationID)
	var settings models.ConversationSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ConversationSettings)
	}
	return settings, args.Error(1)
}

type NicknameRepositoryMock struct {
	mock.Mock
}

func (m *NicknameRepositoryMock) Upsert(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64, nickname string) (models.Nickname, error) {
	args := m.Called(ctx, conversationID, ownerID, targetUserID, nickname)
	var nick models.Nickname
	if val := args.Get(0); val != nil {
		nick = val.(models.Nickname)
	}
	return nick, args.Error(1)
}

func (m *NicknameRepositoryMock) ListForOwner(ctx context.Context, conversationID uuid.UUID, ownerID int64) ([]models.Nickname, error) {
	args := m.Called(ctx, conversationID, ownerID)
	var nicks []models.Nickname
	if val := args.Get(0); val != nil {
		nicks = val.([]models.Nickname)
	}
	return nicks, args.Error(1)
}

func (m *NicknameRepositoryMock) Delete(ctx context.Context, conversationID uuid.UUID, ownerID, targetUserID int64) error {
	args := m.Called(ctx, conversationID, ownerID, targetUserID)
	return args.Error(0)
}
