package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/notifier"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

// ConversationService owns conversation lifecycle, membership and the
// contact-request state machine. Every mutation re-reads membership from the
// store before acting.
type ConversationService struct {
	convRepo    repositories.ConversationRepository
	messageRepo repositories.MessageRepository
	broadcaster Broadcaster
	notifier    Notifier
	directory   users.Directory
}

// NewConversationService builds a ConversationService.
func NewConversationService(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, broadcaster Broadcaster, notify Notifier, directory users.Directory) *ConversationService {
	return &ConversationService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		broadcaster: broadcaster,
		notifier:    notify,
		directory:   directory,
	}
}

// CreateParams describes a conversation:create command.
type CreateParams struct {
	Type         models.ConversationType `json:"type"`
	Participants []int64                 `json:"participants"`
	Name         string                  `json:"name"`
	Avatar       string                  `json:"avatar"`
}

// Create creates a conversation. Private creation is idempotent by pair: an
// existing conversation for the same two users is returned instead of a
// duplicate.
func (s *ConversationService) Create(ctx context.Context, actorID int64, params CreateParams) (models.Conversation, error) {
	switch params.Type {
	case models.ConversationPrivate:
		return s.createPrivate(ctx, actorID, params.Participants)
	case models.ConversationGroup:
		return s.createGroup(ctx, actorID, params)
	default:
		return models.Conversation{}, apperrors.Validation("unknown conversation type")
	}
}

func (s *ConversationService) createPrivate(ctx context.Context, actorID int64, participants []int64) (models.Conversation, error) {
	// normalize to the pair {actor, other}
	set := map[int64]struct{}{actorID: {}}
	for _, id := range participants {
		if id > 0 {
			set[id] = struct{}{}
		}
	}
	if len(set) != 2 {
		return models.Conversation{}, apperrors.Validation("private conversation requires exactly 2 participants")
	}
	var otherID int64
	for id := range set {
		if id != actorID {
			otherID = id
		}
	}

	conv, created, err := s.convRepo.GetOrCreatePrivate(ctx, actorID, otherID)
	if err != nil {
		return models.Conversation{}, apperrors.Internal("could not create conversation", err)
	}
	if created {
		s.broadcaster.ToUsers(conv.ParticipantIDs(), models.EventConversationCreated, conv)
	}
	return conv, nil
}

func (s *ConversationService) createGroup(ctx context.Context, actorID int64, params CreateParams) (models.Conversation, error) {
	conv, err := s.convRepo.CreateGroup(ctx, actorID, params.Name, params.Avatar, params.Participants)
	if err != nil {
		return models.Conversation{}, apperrors.Internal("could not create group", err)
	}
	s.broadcaster.ToUsers(conv.ParticipantIDs(), models.EventConversationCreated, conv)
	return conv, nil
}

// Get returns a conversation to one of its participants.
func (s *ConversationService) Get(ctx context.Context, actorID int64, conversationID uuid.UUID) (models.Conversation, error) {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// List returns the caller's visible conversations, settings overlay applied.
func (s *ConversationService) List(ctx context.Context, actorID int64, limit, skip int) ([]models.ConversationSummary, error) {
	list, err := s.convRepo.ListForUser(ctx, actorID, limit, skip)
	if err != nil {
		return nil, apperrors.Internal("could not list conversations", err)
	}
	return list, nil
}

// Members returns the participant roster.
func (s *ConversationService) Members(ctx context.Context, actorID int64, conversationID uuid.UUID) ([]models.Member, error) {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return nil, err
	}
	return conv.Members, nil
}

// Delete removes a conversation and cascades its messages. Groups are
// admin-only; private conversations may be deleted by either participant.
func (s *ConversationService) Delete(ctx context.Context, actorID int64, conversationID uuid.UUID) error {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return err
	}
	if conv.Type == models.ConversationGroup {
		if err := requireAdmin(conv, actorID); err != nil {
			return err
		}
	}

	participants := conv.ParticipantIDs()
	if err := s.convRepo.Delete(ctx, conversationID); err != nil {
		return apperrors.Internal("could not delete conversation", err)
	}

	payload := map[string]any{"conversation_id": conversationID, "actor_id": actorID}
	s.broadcaster.ToConversation(conversationID, models.EventConversationDeleted, payload)
	s.broadcaster.ToUsers(participants, models.EventConversationDeleted, payload)
	return nil
}

// MemberChangeParams carries display hints for the synthesized system message;
// the names are caller-supplied and not re-validated here.
type MemberChangeParams struct {
	TargetID   int64  `json:"target_id"`
	ActorName  string `json:"actor_name"`
	TargetName string `json:"target_name"`
}

// AddMember appends a user to a group and records a system message.
func (s *ConversationService) AddMember(ctx context.Context, actorID int64, conversationID uuid.UUID, params MemberChangeParams) (models.Member, error) {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return models.Member{}, err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return models.Member{}, err
	}
	if conv.Type != models.ConversationGroup {
		return models.Member{}, apperrors.BadRequest("cannot add members to a private conversation")
	}
	if conv.HasParticipant(params.TargetID) {
		return models.Member{}, apperrors.BadRequest("user is already a member")
	}

	if err := s.convRepo.AddMember(ctx, conversationID, params.TargetID); err != nil {
		return models.Member{}, apperrors.Internal("could not add member", err)
	}

	s.systemMessage(ctx, conversationID, fmt.Sprintf("%s added %s",
		s.hintOrLookup(ctx, params.ActorName, actorID),
		s.hintOrLookup(ctx, params.TargetName, params.TargetID)))

	event := models.MembershipEvent{ConversationID: conversationID, ActorID: actorID, TargetID: params.TargetID, Role: models.RoleMember}
	s.broadcaster.ToConversation(conversationID, models.EventMemberAdded, event)
	s.broadcaster.ToUser(params.TargetID, models.EventInvited, conv)
	s.notifier.Enqueue(notifier.KeyGroupInviteCreated, map[string]any{
		"conversation_id": conversationID.String(),
		"actor_id":        actorID,
		"target_id":       params.TargetID,
	})

	return models.Member{ConversationID: conversationID, UserID: params.TargetID, Role: models.RoleMember}, nil
}

// RemoveMember removes a participant. Self-removal is always allowed;
// third-party removal needs admin or moderator; the admin can never be removed.
func (s *ConversationService) RemoveMember(ctx context.Context, actorID int64, conversationID uuid.UUID, params MemberChangeParams) error {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return apperrors.BadRequest("cannot remove members from a private conversation")
	}
	if !conv.HasParticipant(params.TargetID) {
		return apperrors.BadRequest("user is not a member")
	}
	if conv.IsAdmin(params.TargetID) {
		return apperrors.Forbidden("the admin cannot be removed")
	}
	if actorID != params.TargetID {
		if err := requireAdminOrModerator(conv, actorID); err != nil {
			return err
		}
	}

	if err := s.convRepo.RemoveMember(ctx, conversationID, params.TargetID); err != nil {
		return apperrors.Internal("could not remove member", err)
	}

	text := fmt.Sprintf("%s left", s.hintOrLookup(ctx, params.TargetName, params.TargetID))
	if actorID != params.TargetID {
		text = fmt.Sprintf("%s removed %s",
			s.hintOrLookup(ctx, params.ActorName, actorID),
			s.hintOrLookup(ctx, params.TargetName, params.TargetID))
	}
	s.systemMessage(ctx, conversationID, text)

	event := models.MembershipEvent{ConversationID: conversationID, ActorID: actorID, TargetID: params.TargetID}
	s.broadcaster.ToConversation(conversationID, models.EventMemberRemoved, event)
	s.broadcaster.ToUser(params.TargetID, models.EventMemberRemoved, event)
	// keep room topology consistent with membership
	s.broadcaster.EvictUser(conversationID, params.TargetID)
	return nil
}

// PromoteModerator grants the moderator role. Promoting an existing moderator
// is a no-op that still succeeds.
func (s *ConversationService) PromoteModerator(ctx context.Context, actorID, targetID int64, conversationID uuid.UUID) error {
	return s.setModerator(ctx, actorID, targetID, conversationID, true)
}

// DemoteModerator revokes the moderator role. Demoting a non-moderator is a
// no-op that still succeeds.
func (s *ConversationService) DemoteModerator(ctx context.Context, actorID, targetID int64, conversationID uuid.UUID) error {
	return s.setModerator(ctx, actorID, targetID, conversationID, false)
}

func (s *ConversationService) setModerator(ctx context.Context, actorID, targetID int64, conversationID uuid.UUID, promote bool) error {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return apperrors.BadRequest("moderators exist only in groups")
	}
	if err := requireAdmin(conv, actorID); err != nil {
		return err
	}
	if !conv.HasParticipant(targetID) {
		return apperrors.BadRequest("target is not a member")
	}
	if conv.IsAdmin(targetID) {
		return apperrors.BadRequest("the admin role cannot be changed here")
	}

	role := models.RoleMember
	if promote {
		role = models.RoleModerator
	}
	if conv.RoleOf(targetID) != role {
		if err := s.convRepo.SetRole(ctx, conversationID, targetID, role); err != nil {
			return apperrors.Internal("could not update role", err)
		}
	}

	s.broadcaster.ToConversation(conversationID, models.EventModeratorUpdated, models.MembershipEvent{
		ConversationID: conversationID, ActorID: actorID, TargetID: targetID, Role: role,
	})
	return nil
}

// TransferAdmin moves the admin seat to another participant and strips the new
// admin from the moderator set.
func (s *ConversationService) TransferAdmin(ctx context.Context, actorID, newAdminID int64, conversationID uuid.UUID) error {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Type != models.ConversationGroup {
		return apperrors.BadRequest("only groups have an admin")
	}
	if err := requireAdmin(conv, actorID); err != nil {
		return err
	}
	if !conv.HasParticipant(newAdminID) {
		return apperrors.BadRequest("new admin is not a member")
	}
	if newAdminID == actorID {
		return apperrors.BadRequest("already the admin")
	}

	if err := s.convRepo.TransferAdmin(ctx, conversationID, actorID, newAdminID); err != nil {
		return apperrors.Internal("could not transfer admin", err)
	}

	s.broadcaster.ToConversation(conversationID, models.EventModeratorUpdated, models.MembershipEvent{
		ConversationID: conversationID, ActorID: actorID, TargetID: newAdminID, Role: models.RoleAdmin,
	})
	return nil
}

// AcceptRequest transitions a pending private conversation to accepted. Only a
// non-initiator participant may act.
func (s *ConversationService) AcceptRequest(ctx context.Context, actorID int64, conversationID uuid.UUID) error {
	return s.resolveRequest(ctx, actorID, conversationID, models.RequestAccepted, models.EventRequestAccepted)
}

// DeclineRequest transitions a pending private conversation to declined.
func (s *ConversationService) DeclineRequest(ctx context.Context, actorID int64, conversationID uuid.UUID) error {
	return s.resolveRequest(ctx, actorID, conversationID, models.RequestDeclined, models.EventRequestDeclined)
}

func (s *ConversationService) resolveRequest(ctx context.Context, actorID int64, conversationID uuid.UUID, status models.RequestStatus, event string) error {
	conv, err := s.load(ctx, conversationID)
	if err != nil {
		return err
	}
	if err := requireParticipant(conv, actorID); err != nil {
		return err
	}
	if actorID == conv.CreatorID {
		return apperrors.Forbidden("the initiator cannot resolve their own request")
	}
	if conv.RequestStatus != models.RequestPending {
		return apperrors.BadRequest("request is not pending")
	}

	if err := s.convRepo.SetRequestStatus(ctx, conversationID, status); err != nil {
		if err == repositories.ErrStaleRequestStatus {
			return apperrors.Conflict("request already resolved")
		}
		return apperrors.Internal("could not update request", err)
	}

	payload := map[string]any{"conversation_id": conversationID, "user_id": actorID}
	s.broadcaster.ToConversation(conversationID, event, payload)
	s.broadcaster.ToUsers(conv.ParticipantIDs(), event, payload)
	return nil
}

func (s *ConversationService) load(ctx context.Context, conversationID uuid.UUID) (models.Conversation, error) {
	conv, err := s.convRepo.Get(ctx, conversationID)
	if err != nil {
		if err == repositories.ErrConversationNotFound {
			return models.Conversation{}, apperrors.NotFound("conversation not found")
		}
		return models.Conversation{}, apperrors.Internal("could not load conversation", err)
	}
	return conv, nil
}

// systemMessage records an engine-generated notice; failures are logged but
// never fail the parent command.
func (s *ConversationService) systemMessage(ctx context.Context, conversationID uuid.UUID, text string) {
	msg, err := s.messageRepo.Create(ctx, conversationID, models.SystemSenderID, text, nil, models.MessageSystem)
	if err != nil {
		log.Printf("system message write failed conversation_id=%s: %v", conversationID, err)
		return
	}
	s.broadcaster.ToConversation(conversationID, models.EventMessageCreated, msg)
}

func (s *ConversationService) hintOrLookup(ctx context.Context, hint string, userID int64) string {
	if hint != "" {
		return hint
	}
	return displayName(ctx, s.directory, userID)
}
