package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vntam/chat-realtime-sub000/internal/middleware"
	"github.com/vntam/chat-realtime-sub000/internal/mocks"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/service"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

type handlerFixture struct {
	convRepo     *mocks.ConversationRepositoryMock
	messageRepo  *mocks.MessageRepositoryMock
	settingsRepo *mocks.SettingsRepositoryMock
	directory    *mocks.DirectoryMock
	router       *gin.Engine
}

func newHandlerFixture() *handlerFixture {
	gin.SetMode(gin.TestMode)
	f := &handlerFixture{
		convRepo:     new(mocks.ConversationRepositoryMock),
		messageRepo:  new(mocks.MessageRepositoryMock),
		settingsRepo: new(mocks.SettingsRepositoryMock),
		directory:    new(mocks.DirectoryMock),
	}

	broadcaster := &mocks.BroadcasterRecorder{}
	notifier := &mocks.NotifierRecorder{}
	conversations := service.NewConversationService(f.convRepo, f.messageRepo, broadcaster, notifier, f.directory)
	messages := service.NewMessageService(f.convRepo, f.messageRepo, new(mocks.DeliveryRepositoryMock), f.settingsRepo, broadcaster, notifier, f.directory)

	conversationHandler := NewConversationHandler(conversations, f.directory)
	messageHandler := NewMessageHandler(messages, f.directory)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, int64(1))
		c.Next()
	})
	f.router.GET("/conversations", conversationHandler.ListConversations)
	f.router.GET("/conversations/:conversation_id", conversationHandler.GetConversation)
	f.router.GET("/conversations/:conversation_id/messages", messageHandler.ListMessages)
	f.router.GET("/messages/unread-count", messageHandler.UnreadCount)
	f.router.GET("/messages/search", messageHandler.SearchMessages)
	return f
}

func TestListConversations(t *testing.T) {
	f := newHandlerFixture()
	f.convRepo.On("ListForUser", mock.Anything, int64(1), 0, 0).
		Return([]models.ConversationSummary{{Conversation: models.Conversation{ID: uuid.New(), Type: models.ConversationPrivate}}}, nil).Once()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Contains(t, resp, "conversations")
	f.convRepo.AssertExpectations(t)
}

func TestGetConversationInvalidID(t *testing.T) {
	f := newHandlerFixture()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversationForbidden(t *testing.T) {
	f := newHandlerFixture()
	conv := models.Conversation{
		ID:   uuid.New(),
		Type: models.ConversationGroup,
		Members: []models.Member{
			{UserID: 2, Role: models.RoleAdmin},
		},
	}
	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID.String(), nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListMessagesDecoratesSenders(t *testing.T) {
	f := newHandlerFixture()
	conv := models.Conversation{
		ID:            uuid.New(),
		Type:          models.ConversationPrivate,
		RequestStatus: models.RequestAccepted,
		Members: []models.Member{
			{UserID: 1, Role: models.RoleMember},
			{UserID: 2, Role: models.RoleMember},
		},
	}
	msgs := []models.Message{{ID: uuid.New(), ConversationID: conv.ID, SenderID: 2, Content: "hi", Type: models.MessageUser}}

	f.convRepo.On("Get", mock.Anything, conv.ID).Return(conv, nil).Once()
	f.settingsRepo.On("Get", mock.Anything, int64(1), conv.ID).Return(models.ConversationSettings{}, nil).Once()
	f.messageRepo.On("ListForUser", mock.Anything, conv.ID, mock.Anything, 0, 0).Return(msgs, nil).Once()
	f.directory.On("BulkUsers", mock.Anything, []int64{2}).
		Return(map[int64]users.User{2: {ID: 2, Username: "bob"}}, nil).Once()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/"+conv.ID.String()+"/messages", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []struct {
			SenderUsername string `json:"sender_username"`
		} `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "bob", resp.Messages[0].SenderUsername)
}

func TestUnreadCount(t *testing.T) {
	f := newHandlerFixture()
	f.messageRepo.On("UnreadCount", mock.Anything, int64(1)).Return(7, nil).Once()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/unread-count", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 7, resp["count"])
}

func TestSearchMessagesRequiresQuery(t *testing.T) {
	f := newHandlerFixture()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchMessagesPassesFilter(t *testing.T) {
	f := newHandlerFixture()
	f.messageRepo.On("Search", mock.Anything, int64(1), mock.MatchedBy(func(filter models.SearchFilter) bool {
		return filter.Query == "hello" && filter.Limit == 10
	})).Return([]models.Message{}, nil).Once()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/messages/search?q=hello&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	f.messageRepo.AssertExpectations(t)
}
