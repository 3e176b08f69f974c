package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/notifier"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
	"github.com/vntam/chat-realtime-sub000/internal/users"
)

// MessageService owns message lifecycle and the per-recipient delivery state
// machine.
type MessageService struct {
	convRepo     repositories.ConversationRepository
	messageRepo  repositories.MessageRepository
	deliveryRepo repositories.DeliveryRepository
	settingsRepo repositories.SettingsRepository
	broadcaster  Broadcaster
	notifier     Notifier
	directory    users.Directory
}

// NewMessageService builds a MessageService.
func NewMessageService(convRepo repositories.ConversationRepository, messageRepo repositories.MessageRepository, deliveryRepo repositories.DeliveryRepository, settingsRepo repositories.SettingsRepository, broadcaster Broadcaster, notify Notifier, directory users.Directory) *MessageService {
	return &MessageService{
		convRepo:     convRepo,
		messageRepo:  messageRepo,
		deliveryRepo: deliveryRepo,
		settingsRepo: settingsRepo,
		broadcaster:  broadcaster,
		notifier:     notify,
		directory:    directory,
	}
}

// DecoratedMessage is a message with best-effort sender display info attached.
type DecoratedMessage struct {
	models.Message
	SenderUsername string `json:"sender_username,omitempty"`
}

// Send validates the request-status state machine, persists the message and
// fans it out. A pending private conversation accepts only the initiator's
// first message, which flips the conversation to accepted.
func (s *MessageService) Send(ctx context.Context, senderID int64, conversationID uuid.UUID, content string, attachments []string) (DecoratedMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return DecoratedMessage{}, apperrors.Validation("message is empty")
	}

	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return DecoratedMessage{}, err
	}
	if err := requireParticipant(conv, senderID); err != nil {
		return DecoratedMessage{}, err
	}

	switch conv.RequestStatus {
	case models.RequestDeclined:
		return DecoratedMessage{}, apperrors.Forbidden("conversation request was declined")
	case models.RequestPending:
		if senderID != conv.CreatorID {
			return DecoratedMessage{}, apperrors.Forbidden("conversation request is still pending")
		}
	}

	msg, err := s.messageRepo.Create(ctx, conversationID, senderID, content, attachments, models.MessageUser)
	if err != nil {
		return DecoratedMessage{}, apperrors.Internal("could not store message", err)
	}

	if conv.RequestStatus == models.RequestPending {
		// first successful send by the initiator accepts the request; a
		// concurrent explicit accept is fine, the guard makes it idempotent
		if err := s.convRepo.SetRequestStatus(ctx, conversationID, models.RequestAccepted); err == nil {
			payload := map[string]any{"conversation_id": conversationID, "user_id": senderID}
			s.broadcaster.ToConversation(conversationID, models.EventRequestAccepted, payload)
			s.broadcaster.ToUsers(conv.ParticipantIDs(), models.EventRequestAccepted, payload)
		}
	}

	decorated := DecoratedMessage{Message: msg, SenderUsername: displayName(ctx, s.directory, senderID)}

	// deliberate double delivery: the room covers open views, personal rooms
	// cover conversation lists; clients dedupe by message id
	s.broadcaster.ToConversation(conversationID, models.EventMessageCreated, decorated)
	s.broadcaster.ToUsers(conv.ParticipantIDs(), models.EventMessageCreated, decorated)

	s.notifier.Enqueue(notifier.KeyMessageCreated, map[string]any{
		"message_id":      msg.ID.String(),
		"conversation_id": conversationID.String(),
		"sender_id":       senderID,
	})

	return decorated, nil
}

// Edit replaces a message's content. Sender-only; membership is implied by the
// original send and not re-validated.
func (s *MessageService) Edit(ctx context.Context, userID int64, messageID uuid.UUID, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, apperrors.Validation("content is empty")
	}

	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	if msg.SenderID != userID {
		return models.Message{}, apperrors.Forbidden("only the sender can edit")
	}

	updated, err := s.messageRepo.Edit(ctx, messageID, content)
	if err != nil {
		return models.Message{}, apperrors.Internal("could not edit message", err)
	}

	s.broadcaster.ToConversation(msg.ConversationID, models.EventMessageUpdated, updated)
	return updated, nil
}

// Delete hard-deletes a message. Sender-only.
func (s *MessageService) Delete(ctx context.Context, userID int64, messageID uuid.UUID) error {
	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID {
		return apperrors.Forbidden("only the sender can delete")
	}

	if err := s.messageRepo.Delete(ctx, messageID); err != nil {
		return apperrors.Internal("could not delete message", err)
	}

	s.broadcaster.ToConversation(msg.ConversationID, models.EventMessageDeleted, map[string]any{
		"conversation_id": msg.ConversationID,
		"message_id":      messageID,
	})
	return nil
}

// List returns messages visible to the caller, honoring the caller's
// clear-history cursor.
func (s *MessageService) List(ctx context.Context, userID int64, conversationID uuid.UUID, limit, skip int) ([]models.Message, error) {
	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := requireParticipant(conv, userID); err != nil {
		return nil, err
	}

	settings, err := s.settingsRepo.Get(ctx, userID, conversationID)
	if err != nil {
		return nil, apperrors.Internal("could not load settings", err)
	}

	msgs, err := s.messageRepo.ListForUser(ctx, conversationID, settings.LastMessageCleared, limit, skip)
	if err != nil {
		return nil, apperrors.Internal("could not list messages", err)
	}
	return msgs, nil
}

// Search runs a membership-scoped full-text search. An explicit conversation
// filter is re-checked against current membership, never trusted.
func (s *MessageService) Search(ctx context.Context, userID int64, filter models.SearchFilter) ([]models.Message, error) {
	if strings.TrimSpace(filter.Query) == "" {
		return nil, apperrors.Validation("query is empty")
	}
	if filter.ConversationID != nil {
		member, err := s.convRepo.IsParticipant(ctx, *filter.ConversationID, userID)
		if err != nil {
			return nil, apperrors.Internal("could not verify membership", err)
		}
		if !member {
			return nil, apperrors.Forbidden("not a conversation participant")
		}
	}

	msgs, err := s.messageRepo.Search(ctx, userID, filter)
	if err != nil {
		return nil, apperrors.Internal("search failed", err)
	}
	return msgs, nil
}

// UpdateStatus applies a monotonic per-recipient delivery-status update and
// recomputes the message-level aggregate. Stale updates are ignored silently.
func (s *MessageService) UpdateStatus(ctx context.Context, recipientID int64, messageID uuid.UUID, status models.DeliveryStatus) (models.StatusEvent, error) {
	if !status.Valid() {
		return models.StatusEvent{}, apperrors.Validation("unknown delivery status")
	}

	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return models.StatusEvent{}, err
	}
	if msg.Type == models.MessageSystem {
		return models.StatusEvent{}, apperrors.BadRequest("system messages carry no delivery status")
	}

	conv, err := s.loadConversation(ctx, msg.ConversationID)
	if err != nil {
		return models.StatusEvent{}, err
	}
	if err := requireParticipant(conv, recipientID); err != nil {
		return models.StatusEvent{}, err
	}

	applied, err := s.deliveryRepo.UpsertStatus(ctx, messageID, recipientID, status)
	if err != nil {
		return models.StatusEvent{}, apperrors.Internal("could not update status", err)
	}
	if !applied {
		// stale duplicate report; the stored row already moved past it, so
		// nothing changed and nothing is broadcast
		return models.StatusEvent{
			ConversationID: msg.ConversationID,
			MessageID:      messageID,
			UserID:         recipientID,
			Status:         status,
			Aggregate:      msg.Status,
		}, nil
	}

	aggregate, err := s.recomputeAggregate(ctx, conv, msg)
	if err != nil {
		return models.StatusEvent{}, err
	}

	event := models.StatusEvent{
		ConversationID: msg.ConversationID,
		MessageID:      messageID,
		UserID:         recipientID,
		Status:         status,
		Aggregate:      aggregate,
	}

	// delivered and failed are granular signals for the sender only; read
	// receipts also interest the room, and the sender still gets a personal
	// copy in case their room view is closed
	s.broadcaster.ToUser(msg.SenderID, models.EventMessageStatus, event)
	if status == models.StatusRead {
		s.broadcaster.ToConversation(msg.ConversationID, models.EventMessageStatus, event)
	}

	return event, nil
}

// MarkRead is UpdateStatus(read) plus seen-by tracking.
func (s *MessageService) MarkRead(ctx context.Context, userID int64, messageID uuid.UUID) (models.StatusEvent, error) {
	event, err := s.UpdateStatus(ctx, userID, messageID, models.StatusRead)
	if err != nil {
		return models.StatusEvent{}, err
	}
	if err := s.messageRepo.AppendSeenBy(ctx, messageID, userID); err != nil {
		return models.StatusEvent{}, apperrors.Internal("could not update seen-by", err)
	}
	return event, nil
}

// MarkConversationReadResult reports a batched mark-read outcome. The batch is
// not atomic; callers retry the failed ids.
type MarkConversationReadResult struct {
	Marked    int         `json:"marked"`
	FailedIDs []uuid.UUID `json:"failed_ids,omitempty"`
}

// MarkConversationRead marks every unread message in the conversation as read
// for the caller, message by message.
func (s *MessageService) MarkConversationRead(ctx context.Context, userID int64, conversationID uuid.UUID) (MarkConversationReadResult, error) {
	conv, err := s.loadConversation(ctx, conversationID)
	if err != nil {
		return MarkConversationReadResult{}, err
	}
	if err := requireParticipant(conv, userID); err != nil {
		return MarkConversationReadResult{}, err
	}

	ids, err := s.messageRepo.ListUnreadIDs(ctx, conversationID, userID)
	if err != nil {
		return MarkConversationReadResult{}, apperrors.Internal("could not list unread messages", err)
	}

	var result MarkConversationReadResult
	for _, id := range ids {
		if _, err := s.MarkRead(ctx, userID, id); err != nil {
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Marked++
	}

	s.broadcaster.ToConversation(conversationID, models.EventConversationRead, map[string]any{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	return result, nil
}

// UnreadCount counts unseen messages across all of the caller's conversations.
func (s *MessageService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.messageRepo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, apperrors.Internal("could not count unread messages", err)
	}
	return count, nil
}

// StatusDetail is the full per-recipient breakdown of one message.
type StatusDetail struct {
	MessageID uuid.UUID              `json:"message_id"`
	Status    models.DeliveryStatus  `json:"status"`
	Entries   []models.DeliveryEntry `json:"delivery_info"`
}

// GetStatus returns the delivery breakdown to a participant.
func (s *MessageService) GetStatus(ctx context.Context, userID int64, messageID uuid.UUID) (StatusDetail, error) {
	msg, err := s.loadMessage(ctx, messageID)
	if err != nil {
		return StatusDetail{}, err
	}
	conv, err := s.loadConversation(ctx, msg.ConversationID)
	if err != nil {
		return StatusDetail{}, err
	}
	if err := requireParticipant(conv, userID); err != nil {
		return StatusDetail{}, err
	}

	entries, err := s.deliveryRepo.Entries(ctx, messageID)
	if err != nil {
		return StatusDetail{}, apperrors.Internal("could not load delivery info", err)
	}
	return StatusDetail{MessageID: messageID, Status: msg.Status, Entries: entries}, nil
}

// recomputeAggregate re-derives the message-level status from current delivery
// rows and writes it back. deliveredAt/readAt stay set-once at the store level.
func (s *MessageService) recomputeAggregate(ctx context.Context, conv models.Conversation, msg models.Message) (models.DeliveryStatus, error) {
	entries, err := s.deliveryRepo.Entries(ctx, msg.ID)
	if err != nil {
		return "", apperrors.Internal("could not load delivery info", err)
	}

	aggregate := AggregateStatus(conv.ParticipantIDs(), msg.SenderID, entries)
	if err := s.deliveryRepo.ApplyAggregate(ctx, msg.ID, aggregate); err != nil {
		return "", apperrors.Internal("could not apply aggregate", err)
	}
	return aggregate, nil
}

// AggregateStatus derives the message-level status: the minimum status shared
// by all current non-sender participants. Recipients without an entry count as
// sent; failed entries are excluded so one failure does not mask the others'
// progress. Evaluated over current participants only, so entries of removed
// members are ignored.
func AggregateStatus(participants []int64, senderID int64, entries []models.DeliveryEntry) models.DeliveryStatus {
	byUser := make(map[int64]models.DeliveryStatus, len(entries))
	for _, e := range entries {
		byUser[e.UserID] = e.Status
	}

	minRank := -1
	considered := 0
	for _, uid := range participants {
		if uid == senderID {
			continue
		}
		status, ok := byUser[uid]
		if ok && status == models.StatusFailed {
			continue
		}
		rank := 0
		if ok {
			rank = status.Rank()
		}
		if minRank == -1 || rank < minRank {
			minRank = rank
		}
		considered++
	}

	if considered == 0 {
		return models.StatusSent
	}
	switch minRank {
	case 2:
		return models.StatusRead
	case 1:
		return models.StatusDelivered
	default:
		return models.StatusSent
	}
}

func (s *MessageService) loadConversation(ctx context.Context, conversationID uuid.UUID) (models.Conversation, error) {
	conv, err := s.convRepo.Get(ctx, conversationID)
	if err != nil {
		if err == repositories.ErrConversationNotFound {
			return models.Conversation{}, apperrors.NotFound("conversation not found")
		}
		return models.Conversation{}, apperrors.Internal("could not load conversation", err)
	}
	return conv, nil
}

func (s *MessageService) loadMessage(ctx context.Context, messageID uuid.UUID) (models.Message, error) {
	msg, err := s.messageRepo.Get(ctx, messageID)
	if err != nil {
		if err == repositories.ErrMessageNotFound {
			return models.Message{}, apperrors.NotFound("message not found")
		}
		return models.Message{}, apperrors.Internal("could not load message", err)
	}
	return msg, nil
}
