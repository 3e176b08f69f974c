package service

import (
	"context"
	"strings"
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

type nicknameFixture struct {
	convRepo     *mocks.ConversationRepositoryMock
	nicknameRepo *mocks.NicknameRepositoryMock
	broadcaster  *mocks.BroadcasterRecorder
	svc          *NicknameService
}

func newNicknameFixture() *nicknameFixture {
	f := &nicknameFixture{
		convRepo:     new(mocks.ConversationRepositoryMock),
		nicknameRepo: new(mocks.NicknameRepositoryMock),
		broadcaster:  &mocks.BroadcasterRecorder{},
	}
	f.svc = NewNicknameService(f.convRepo, f.nicknameRepo, f.broadcaster)
	return f
}

func TestSetNicknameValidatesLength(t *testing.T) {
	f := newNicknameFixture()
	convID := uuid.New()

	_, err := f.svc.Set(context.Background(), 1, convID, 2, "  ")
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))

	_, err = f.svc.Set(context.Background(), 1, convID, 2, strings.Repeat("x", 51))
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestSetNicknameRequiresBothParticipants(t *testing.T) {
	f := newNicknameFixture()
	convID := uuid.New()

	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(1)).Return(true, nil).Once()
	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(9)).Return(false, nil).Once()

	_, err := f.svc.Set(context.Background(), 1, convID, 9, "buddy")
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.CodeOf(err))
}

func TestSetNicknameNotifiesOwnerOnly(t *testing.T) {
	f := newNicknameFixture()
	convID := uuid.New()
	stored := models.Nickname{ConversationID: convID, OwnerID: 1, TargetUserID: 2, Nickname: "buddy"}

	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(1)).Return(true, nil).Once()
	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(2)).Return(true, nil).Once()
	f.nicknameRepo.On("Upsert", mock.Anything, convID, int64(1), int64(2), "buddy").Return(stored, nil).Once()

	nick, err := f.svc.Set(context.Background(), 1, convID, 2, "buddy")
	require.NoError(t, err)
	assert.Equal(t, "buddy", nick.Nickname)

	assert.Empty(t, f.broadcaster.RoomEvents)
	require.Len(t, f.broadcaster.UserEvents, 1)
	assert.Equal(t, []int64{1}, f.broadcaster.UserEvents[0].UserIDs)
	assert.Equal(t, models.EventNicknameUpdated, f.broadcaster.UserEvents[0].Event)
}

func TestListNicknamesScopedToOwner(t *testing.T) {
	f := newNicknameFixture()
	convID := uuid.New()

	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(1)).Return(true, nil).Once()
	f.nicknameRepo.On("ListForOwner", mock.Anything, convID, int64(1)).
		Return([]models.Nickname{{ConversationID: convID, OwnerID: 1, TargetUserID: 2, Nickname: "buddy"}}, nil).Once()

	nicks, err := f.svc.List(context.Background(), 1, convID)
	require.NoError(t, err)
	require.Len(t, nicks, 1)
	assert.Equal(t, int64(1), nicks[0].OwnerID)
}

func TestRemoveNicknameNotFound(t *testing.T) {
	f := newNicknameFixture()
	convID := uuid.New()

	f.convRepo.On("IsParticipant", mock.Anything, convID, int64(1)).Return(true, nil).Once()
	f.nicknameRepo.On("Delete", mock.Anything, convID, int64(1), int64(2)).Return(repositories.ErrNicknameNotFound).Once()

	err := f.svc.Remove(context.Background(), 1, convID, 2)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
