package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
)

const maxNicknameLen = 50

// NicknameService manages per-owner display-name overrides inside a
// conversation. Nicknames are private to the owner.
type NicknameService struct {
	convRepo     repositories.ConversationRepository
	nicknameRepo repositories.NicknameRepository
	broadcaster  Broadcaster
}

// NewNicknameService builds a NicknameService.
func NewNicknameService(convRepo repositories.ConversationRepository, nicknameRepo repositories.NicknameRepository, broadcaster Broadcaster) *NicknameService {
	return &NicknameService{convRepo: convRepo, nicknameRepo: nicknameRepo, broadcaster: broadcaster}
}

// Set assigns the owner's nickname for a target inside one conversation. Both
// owner and target must be current participants.
func (s *NicknameService) Set(ctx context.Context, ownerID int64, conversationID uuid.UUID, targetID int64, nickname string) (models.Nickname, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || utf8.RuneCountInString(nickname) > maxNicknameLen {
		return models.Nickname{}, apperrors.Validation("nickname must be between 1 and 50 characters")
	}

	if err := s.requireMember(ctx, ownerID, conversationID); err != nil {
		return models.Nickname{}, err
	}
	targetMember, err := s.convRepo.IsParticipant(ctx, conversationID, targetID)
	if err != nil {
		return models.Nickname{}, apperrors.Internal("could not verify membership", err)
	}
	if !targetMember {
		return models.Nickname{}, apperrors.BadRequest("target is not a conversation participant")
	}

	nick, err := s.nicknameRepo.Upsert(ctx, conversationID, ownerID, targetID, nickname)
	if err != nil {
		return models.Nickname{}, apperrors.Internal("could not store nickname", err)
	}

	s.broadcaster.ToUser(ownerID, models.EventNicknameUpdated, nick)
	return nick, nil
}

// List returns the caller's nicknames for a conversation.
func (s *NicknameService) List(ctx context.Context, ownerID int64, conversationID uuid.UUID) ([]models.Nickname, error) {
	if err := s.requireMember(ctx, ownerID, conversationID); err != nil {
		return nil, err
	}

	nicks, err := s.nicknameRepo.ListForOwner(ctx, conversationID, ownerID)
	if err != nil {
		return nil, apperrors.Internal("could not list nicknames", err)
	}
	return nicks, nil
}

// Remove drops the owner's nickname for a target.
func (s *NicknameService) Remove(ctx context.Context, ownerID int64, conversationID uuid.UUID, targetID int64) error {
	if err := s.requireMember(ctx, ownerID, conversationID); err != nil {
		return err
	}

	if err := s.nicknameRepo.Delete(ctx, conversationID, ownerID, targetID); err != nil {
		if err == repositories.ErrNicknameNotFound {
			return apperrors.NotFound("nickname not found")
		}
		return apperrors.Internal("could not remove nickname", err)
	}

	s.broadcaster.ToUser(ownerID, models.EventNicknameUpdated, map[string]any{
		"conversation_id": conversationID,
		"target_user_id":  targetID,
		"removed":         true,
	})
	return nil
}

func (s *NicknameService) requireMember(ctx context.Context, userID int64, conversationID uuid.UUID) error {
	member, err := s.convRepo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return apperrors.Internal("could not verify membership", err)
	}
	if !member {
		return apperrors.Forbidden("not a conversation participant")
	}
	return nil
}
