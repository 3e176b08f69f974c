package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/mocks"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
)

type conversationFixture struct {
	convRepo    *mocks.ConversationRepositoryMock
	messageRepo *mocks.MessageRepositoryMock
	broadcaster *mocks.BroadcasterRecorder
	notifier    *mocks.NotifierRecorder
	directory   *mocks.DirectoryMock
	svc         *ConversationService
}

func newConversationFixture() *conversationFixture {
	f := &conversationFixture{
		convRepo:    new(mocks.ConversationRepositoryMock),
		messageRepo: new(mocks.MessageRepositoryMock),
		broadcaster: &mocks.BroadcasterRecorder{},
		notifier:    &mocks.NotifierRecorder{},
		directory:   new(mocks.DirectoryMock),
	}
	f.svc = NewConversationService(f.convRepo, f.messageRepo, f.broadcaster, f.notifier, f.directory)
	return f
}

func groupConversation(adminID int64, memberIDs ...int64) models.Conversation {
	conv := models.Conversation{
		ID:            uuid.New(),
		Type:          models.ConversationGroup,
		CreatorID:     adminID,
		AdminID:       &adminID,
		RequestStatus: models.RequestAccepted,
	}
	conv.Members = append(conv.Members, models.Member{ConversationID: conv.ID, UserID: adminID, Role: models.RoleAdmin})
	for _, id := range memberIDs {
		conv.Members = append(conv.Members, models.Member{ConversationID: conv.ID, UserID: id, Role: models.RoleMember})
	}
	return conv
}

func privateConversation(creatorID, otherID int64, status models.RequestStatus) models.Conversation {
	conv := models.Conversation{
		ID:            uuid.New(),
		Type:          models.ConversationPrivate,
		CreatorID:     creatorID,
		RequestStatus: status,
	}
	conv.Members = []models.Member{
		{ConversationID: conv.ID, UserID: creatorID, Role: models.RoleMember},
		{ConversationID: conv.ID, UserID: otherID, Role: models.RoleMember},
	}
	return conv
}

func TestCreatePrivateRequiresExactlyTwoParticipants(t *testing.T) {
	f := newConversationFixture()

	_, err := f.svc.Create(context.Background(), 1, CreateParams{Type: models.ConversationPrivate, Participants: []int64{1}})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = f.svc.Create(context.Background(), 1, CreateParams{Type: models.ConversationPrivate, Participants: []int64{2, 3}})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestCreatePrivateIdempotentPair(t *testing.T) {
	f := newConversationFixture()
	existing := privateConversation(1, 2, models.RequestAccepted)

	f.convRepo.On("GetOrCreatePrivate", mock.Anything, int64(1), int64(2)).Return(existing, false, nil).Once()

	conv, err := f.svc.Create(context.Background(), 1, CreateParams{Type: models.ConversationPrivate, Participants: []int64{2}})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
	// returning an existing pair announces nothing
	assert.Empty(t, f.broadcaster.UserEvents)
	f.convRepo.AssertExpectations(t)
}

func TestCreatePrivateBroadcastsOnFirstCreation(t *testing.T) {
	f := newConversationFixture()
	created := privateConversation(1, 2, models.RequestPending)

	f.convRepo.On("GetOrCreatePrivate", mock.Anything, int64(1), int64(2)).Return(created, true, nil).Once()

	_, err := f.svc.Create(context.Background(), 1, CreateParams{Type: models.ConversationPrivate, Participants: []int64{2}})
	require.NoError(t, err)
	require.Len(t, f.broadcaster.UserEvents, 1)
	assert.Equal(t, models.EventConversationCreated, f.broadcaster.UserEvents[0].Event)
	assert.ElementsMatch(t, []int64{1, 2}, f.broadcaster.UserEvents[0].UserIDs)
}

func TestCreateUnknownTypeFails(t *testing.T) {
	f := newConversationFixture()
	_, err := f.svc.Create(context.Background(), 1, CreateParams{Type: "broadcast"})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestGetRejectsNonParticipant(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2, 3)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	_, err := f.svc.Get(context.Background(), 99, conv.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestGetNotFound(t *testing.T) {
	f := newConversationFixture()
	id := uuid.New()
	f.convRepo.On("Get", mock.Anything, id).Return(nil, repositories.ErrConversationNotFound).Once()

	_, err := f.svc.Get(context.Background(), 1, id)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestDeleteGroupRequiresAdmin(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2, 3)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.Delete(context.Background(), 2, conv.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestDeletePrivateAllowsEitherParticipant(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestAccepted)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("Delete", mock.Anything, conv.ID).Return(nil).Once()

	err := f.svc.Delete(context.Background(), 2, conv.ID)
	require.NoError(t, err)
	require.Len(t, f.broadcaster.RoomEvents, 1)
	assert.Equal(t, models.EventConversationDeleted, f.broadcaster.RoomEvents[0].Event)
	require.Len(t, f.broadcaster.UserEvents, 1)
	assert.ElementsMatch(t, []int64{1, 2}, f.broadcaster.UserEvents[0].UserIDs)
}

func TestAddMemberRejectsPrivate(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestAccepted)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	_, err := f.svc.AddMember(context.Background(), 1, conv.ID, MemberChangeParams{TargetID: 3})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestAddMemberRejectsDuplicate(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	_, err := f.svc.AddMember(context.Background(), 1, conv.ID, MemberChangeParams{TargetID: 2})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestAddMemberRecordsSystemMessageAndEvents(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("AddMember", mock.Anything, conv.ID, int64(3)).Return(nil).Once()
	f.messageRepo.On("Create", mock.Anything, conv.ID, models.SystemSenderID, "alice added carol", ([]string)(nil), models.MessageSystem).
		Return(models.Message{ID: uuid.New(), ConversationID: conv.ID, Type: models.MessageSystem}, nil).Once()

	member, err := f.svc.AddMember(context.Background(), 1, conv.ID, MemberChangeParams{TargetID: 3, ActorName: "alice", TargetName: "carol"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	// system message and member-added both hit the room
	require.Len(t, f.broadcaster.RoomEvents, 2)
	assert.Equal(t, models.EventMessageCreated, f.broadcaster.RoomEvents[0].Event)
	assert.Equal(t, models.EventMemberAdded, f.broadcaster.RoomEvents[1].Event)

	// the invited user gets the full conversation on their personal room
	require.Len(t, f.broadcaster.UserEvents, 1)
	assert.Equal(t, models.EventInvited, f.broadcaster.UserEvents[0].Event)
	assert.Equal(t, []int64{3}, f.broadcaster.UserEvents[0].UserIDs)

	require.Len(t, f.notifier.Events, 1)
	assert.Equal(t, "group_invite.created", f.notifier.Events[0].Name)
	f.convRepo.AssertExpectations(t)
	f.messageRepo.AssertExpectations(t)
}

func TestAddMemberSucceedsWhenSystemMessageFails(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("AddMember", mock.Anything, conv.ID, int64(3)).Return(nil).Once()
	f.messageRepo.On("Create", mock.Anything, conv.ID, models.SystemSenderID, "alice added carol", ([]string)(nil), models.MessageSystem).
		Return(models.Message{}, assert.AnError).Once()

	member, err := f.svc.AddMember(context.Background(), 1, conv.ID, MemberChangeParams{TargetID: 3, ActorName: "alice", TargetName: "carol"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, member.Role)

	// the member-added event still reaches the room; only the notice is lost
	require.Len(t, f.broadcaster.RoomEvents, 1)
	assert.Equal(t, models.EventMemberAdded, f.broadcaster.RoomEvents[0].Event)
}

func TestRemoveMemberForbidsRemovingAdmin(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.RemoveMember(context.Background(), 2, conv.ID, MemberChangeParams{TargetID: 1})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestRemoveMemberThirdPartyRequiresPrivilege(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2, 3)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.RemoveMember(context.Background(), 2, conv.ID, MemberChangeParams{TargetID: 3})
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestRemoveMemberSelfLeaveEvictsFromRoom(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("RemoveMember", mock.Anything, conv.ID, int64(2)).Return(nil).Once()
	f.messageRepo.On("Create", mock.Anything, conv.ID, models.SystemSenderID, "bob left", ([]string)(nil), models.MessageSystem).
		Return(models.Message{ID: uuid.New(), ConversationID: conv.ID, Type: models.MessageSystem}, nil).Once()

	err := f.svc.RemoveMember(context.Background(), 2, conv.ID, MemberChangeParams{TargetID: 2, TargetName: "bob"})
	require.NoError(t, err)
	require.Len(t, f.broadcaster.Evicted, 1)
	assert.Equal(t, int64(2), f.broadcaster.Evicted[0].UserID)
}

func TestPromoteModeratorRequiresAdmin(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2, 3)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.PromoteModerator(context.Background(), 2, 3, conv.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestPromoteModeratorIdempotent(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	conv.Members[1].Role = models.RoleModerator
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	// already a moderator: no SetRole call, still an event
	err := f.svc.PromoteModerator(context.Background(), 1, 2, conv.ID)
	require.NoError(t, err)
	f.convRepo.AssertNotCalled(t, "SetRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	require.Len(t, f.broadcaster.RoomEvents, 1)
	assert.Equal(t, models.EventModeratorUpdated, f.broadcaster.RoomEvents[0].Event)
}

func TestPromoteAdminRejected(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.PromoteModerator(context.Background(), 1, 1, conv.ID)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestTransferAdmin(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("TransferAdmin", mock.Anything, conv.ID, int64(1), int64(2)).Return(nil).Once()

	err := f.svc.TransferAdmin(context.Background(), 1, 2, conv.ID)
	require.NoError(t, err)
	require.Len(t, f.broadcaster.RoomEvents, 1)
	event := f.broadcaster.RoomEvents[0].Payload.(models.MembershipEvent)
	assert.Equal(t, models.RoleAdmin, event.Role)
	f.convRepo.AssertExpectations(t)
}

func TestTransferAdminToSelfRejected(t *testing.T) {
	f := newConversationFixture()
	conv := groupConversation(1, 2)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.TransferAdmin(context.Background(), 1, 1, conv.ID)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestAcceptRequestForbidsInitiator(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestPending)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.AcceptRequest(context.Background(), 1, conv.ID)
	assert.Equal(t, apperrors.CodeForbidden, apperrors.CodeOf(err))
}

func TestAcceptRequestRejectsNonPending(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestAccepted)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	err := f.svc.AcceptRequest(context.Background(), 2, conv.ID)
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestAcceptRequestConflictOnConcurrentResolve(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestPending)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("SetRequestStatus", mock.Anything, conv.ID, models.RequestAccepted).Return(repositories.ErrStaleRequestStatus).Once()

	err := f.svc.AcceptRequest(context.Background(), 2, conv.ID)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestDeclineRequestBroadcasts(t *testing.T) {
	f := newConversationFixture()
	conv := privateConversation(1, 2, models.RequestPending)
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.convRepo.On("SetRequestStatus", mock.Anything, conv.ID, models.RequestDeclined).Return(nil).Once()

	err := f.svc.DeclineRequest(context.Background(), 2, conv.ID)
	require.NoError(t, err)
	require.Len(t, f.broadcaster.RoomEvents, 1)
	assert.Equal(t, models.EventRequestDeclined, f.broadcaster.RoomEvents[0].Event)
	require.Len(t, f.broadcaster.UserEvents, 1)
	assert.ElementsMatch(t, []int64{1, 2}, f.broadcaster.UserEvents[0].UserIDs)
}
