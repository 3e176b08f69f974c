package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
)

// SettingsService manages the per-user view overlay on conversations. Nothing
// here changes the shared conversation state, so events go to the actor's
// personal room only.
type SettingsService struct {
	convRepo     repositories.ConversationRepository
	settingsRepo repositories.SettingsRepository
	broadcaster  Broadcaster
}

// NewSettingsService builds a SettingsService.
func NewSettingsService(convRepo repositories.ConversationRepository, settingsRepo repositories.SettingsRepository, broadcaster Broadcaster) *SettingsService {
	return &SettingsService{convRepo: convRepo, settingsRepo: settingsRepo, broadcaster: broadcaster}
}

// Mute silences notifications for the caller, optionally until a deadline.
func (s *SettingsService) Mute(ctx context.Context, userID int64, conversationID uuid.UUID, muted bool, until *time.Time) (models.ConversationSettings, error) {
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return models.ConversationSettings{}, err
	}

	settings, err := s.settingsRepo.SetMuted(ctx, userID, conversationID, muted, until)
	if err != nil {
		return models.ConversationSettings{}, apperrors.Internal("could not update mute state", err)
	}

	s.broadcaster.ToUser(userID, models.EventConversationMuted, settings)
	return settings, nil
}

// Pin pins or unpins a conversation in the caller's list.
func (s *SettingsService) Pin(ctx context.Context, userID int64, conversationID uuid.UUID, pinned bool, order int) (models.ConversationSettings, error) {
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return models.ConversationSettings{}, err
	}

	settings, err := s.settingsRepo.SetPinned(ctx, userID, conversationID, pinned, order)
	if err != nil {
		return models.ConversationSettings{}, apperrors.Internal("could not update pin state", err)
	}

	s.broadcaster.ToUser(userID, models.EventConversationPinned, settings)
	return settings, nil
}

// Hide removes the conversation from the caller's list until they look for it
// again. Sending or receiving messages does not unhide it.
func (s *SettingsService) Hide(ctx context.Context, userID int64, conversationID uuid.UUID, hidden bool) (models.ConversationSettings, error) {
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return models.ConversationSettings{}, err
	}

	settings, err := s.settingsRepo.SetHidden(ctx, userID, conversationID, hidden)
	if err != nil {
		return models.ConversationSettings{}, apperrors.Internal("could not update hidden state", err)
	}

	s.broadcaster.ToUser(userID, models.EventConversationHidden, settings)
	return settings, nil
}

// ClearHistory moves the caller's history cursor to now. Messages stay stored
// for everyone else.
func (s *SettingsService) ClearHistory(ctx context.Context, userID int64, conversationID uuid.UUID) (models.ConversationSettings, error) {
	if err := s.requireMember(ctx, userID, conversationID); err != nil {
		return models.ConversationSettings{}, err
	}

	settings, err := s.settingsRepo.ClearHistory(ctx, userID, conversationID)
	if err != nil {
		return models.ConversationSettings{}, apperrors.Internal("could not clear history", err)
	}

	s.broadcaster.ToUser(userID, models.EventMessagesCleared, settings)
	return settings, nil
}

func (s *SettingsService) requireMember(ctx context.Context, userID int64, conversationID uuid.UUID) error {
	member, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return apperrors.Internal("could not verify membership", err)
	}
	if !member {
		return apperrors.Forbidden("not a conversation participant")
	}
	return nil
}
