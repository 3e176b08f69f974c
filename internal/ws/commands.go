package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/models"
	"github.com/vntam/chat-realtime-sub000/internal/observability"
	"github.com/vntam/chat-realtime-sub000/internal/service"
)

// Command is an inbound client frame. Every command is answered with an Ack;
// the id, when present, is echoed back so clients can correlate.
type Command struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Ack is the per-command reply frame.
type Ack struct {
	ID    string    `json:"id,omitempty"`
	OK    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *AckError `json:"error,omitempty"`
}

// AckError carries the wire error code and a safe message.
type AckError struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

type conversationRef struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

type messageRef struct {
	MessageID uuid.UUID `json:"message_id"`
}

type memberPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	TargetID       int64     `json:"target_id"`
	ActorName      string    `json:"actor_name,omitempty"`
	TargetName     string    `json:"target_name,omitempty"`
}

type pagePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Limit          int       `json:"limit"`
	Skip           int       `json:"skip"`
}

type listPayload struct {
	Limit int `json:"limit"`
	Skip  int `json:"skip"`
}

type sendPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments,omitempty"`
}

type editPayload struct {
	MessageID uuid.UUID `json:"message_id"`
	Content   string    `json:"content"`
}

type statusPayload struct {
	MessageID uuid.UUID             `json:"message_id"`
	Status    models.DeliveryStatus `json:"status"`
}

type searchPayload struct {
	Query          string     `json:"query"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	SenderID       *int64     `json:"sender_id,omitempty"`
	From           *time.Time `json:"from,omitempty"`
	To             *time.Time `json:"to,omitempty"`
	Limit          int        `json:"limit"`
	Skip           int        `json:"skip"`
}

type mutePayload struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	Muted          bool       `json:"muted"`
	Until          *time.Time `json:"until,omitempty"`
}

type pinPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Pinned         bool      `json:"pinned"`
	Order          int       `json:"order"`
}

type hidePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Hidden         bool      `json:"hidden"`
}

type typingPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Typing         bool      `json:"typing"`
}

type nicknamePayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	TargetID       int64     `json:"target_id"`
	Nickname       string    `json:"nickname,omitempty"`
}

// dispatch runs one command to completion and returns its ack. Commands on a
// connection run strictly in arrival order.
func (g *Gateway) dispatch(ctx context.Context, client *Client, cmd Command) Ack {
	data, err := g.run(ctx, client, cmd)
	observability.IncCommand(cmd.Name, err == nil)
	if err != nil {
		return Ack{ID: cmd.ID, OK: false, Error: &AckError{Code: apperrors.CodeOf(err), Message: apperrors.MessageOf(err)}}
	}
	return Ack{ID: cmd.ID, OK: true, Data: data}
}

func (g *Gateway) run(ctx context.Context, client *Client, cmd Command) (any, error) {
	userID := client.session.UserID

	switch cmd.Name {
	case "conversation:create":
		var p service.CreateParams
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.conversations.Create(ctx, userID, p)

	case "conversation:get":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.conversations.Get(ctx, userID, p.ConversationID)

	case "conversation:list":
		var p listPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.conversations.List(ctx, userID, p.Limit, p.Skip)

	case "conversation:delete":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.Delete(ctx, userID, p.ConversationID)

	case "conversation:members":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.conversations.Members(ctx, userID, p.ConversationID)

	case "conversation:add-member":
		var p memberPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.conversations.AddMember(ctx, userID, p.ConversationID, service.MemberChangeParams{
			TargetID: p.TargetID, ActorName: p.ActorName, TargetName: p.TargetName,
		})

	case "conversation:remove-member":
		var p memberPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.RemoveMember(ctx, userID, p.ConversationID, service.MemberChangeParams{
			TargetID: p.TargetID, ActorName: p.ActorName, TargetName: p.TargetName,
		})

	case "conversation:promote-moderator":
		var p memberPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.PromoteModerator(ctx, userID, p.TargetID, p.ConversationID)

	case "conversation:demote-moderator":
		var p memberPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.DemoteModerator(ctx, userID, p.TargetID, p.ConversationID)

	case "conversation:transfer-admin":
		var p memberPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.TransferAdmin(ctx, userID, p.TargetID, p.ConversationID)

	case "conversation:accept":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.AcceptRequest(ctx, userID, p.ConversationID)

	case "conversation:decline":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.conversations.DeclineRequest(ctx, userID, p.ConversationID)

	case "conversation:join":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		// membership is re-read on every join, a stale client cannot rejoin
		// a room it was removed from
		member, err := g.convRepo.IsParticipant(ctx, p.ConversationID, userID)
		if err != nil {
			return nil, apperrors.Internal("could not verify membership", err)
		}
		if !member {
			return nil, apperrors.Forbidden("not a conversation participant")
		}
		g.hub.Join(p.ConversationID, client)
		return nil, nil

	case "conversation:leave":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		g.hub.Leave(p.ConversationID, client)
		return nil, nil

	case "conversation:mark-read", "messages:mark-read":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.MarkConversationRead(ctx, userID, p.ConversationID)

	case "conversation:mute":
		var p mutePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.settings.Mute(ctx, userID, p.ConversationID, p.Muted, p.Until)

	case "conversation:pin":
		var p pinPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.settings.Pin(ctx, userID, p.ConversationID, p.Pinned, p.Order)

	case "conversation:hide":
		var p hidePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.settings.Hide(ctx, userID, p.ConversationID, p.Hidden)

	case "conversation:clear":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.settings.ClearHistory(ctx, userID, p.ConversationID)

	case "message:send":
		var p sendPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.Send(ctx, userID, p.ConversationID, p.Content, p.Attachments)

	case "message:edit":
		var p editPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.Edit(ctx, userID, p.MessageID, p.Content)

	case "message:delete":
		var p messageRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.messages.Delete(ctx, userID, p.MessageID)

	case "message:list":
		var p pagePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.List(ctx, userID, p.ConversationID, p.Limit, p.Skip)

	case "message:search":
		var p searchPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.Search(ctx, userID, models.SearchFilter{
			Query:          p.Query,
			ConversationID: p.ConversationID,
			SenderID:       p.SenderID,
			From:           p.From,
			To:             p.To,
			Limit:          p.Limit,
			Skip:           p.Skip,
		})

	case "message:read":
		var p messageRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.MarkRead(ctx, userID, p.MessageID)

	case "message:delivered":
		var p messageRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.UpdateStatus(ctx, userID, p.MessageID, models.StatusDelivered)

	case "message:status:update":
		var p statusPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.UpdateStatus(ctx, userID, p.MessageID, p.Status)

	case "message:status:get":
		var p messageRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.messages.GetStatus(ctx, userID, p.MessageID)

	case "message:unread-count":
		count, err := g.messages.UnreadCount(ctx, userID)
		if err != nil {
			return nil, err
		}
		return map[string]int{"count": count}, nil

	case "typing":
		var p typingPayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		if !g.hub.Joined(p.ConversationID, client) {
			return nil, apperrors.Forbidden("join the conversation before typing")
		}
		g.hub.ToConversationExcept(p.ConversationID, client, models.EventTyping, models.TypingEvent{
			ConversationID: p.ConversationID,
			UserID:         userID,
			Typing:         p.Typing,
		})
		return nil, nil

	case "nickname:set":
		var p nicknamePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.nicknames.Set(ctx, userID, p.ConversationID, p.TargetID, p.Nickname)

	case "nickname:list":
		var p conversationRef
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return g.nicknames.List(ctx, userID, p.ConversationID)

	case "nickname:remove":
		var p nicknamePayload
		if err := decode(cmd.Payload, &p); err != nil {
			return nil, err
		}
		return nil, g.nicknames.Remove(ctx, userID, p.ConversationID, p.TargetID)

	default:
		return nil, apperrors.BadRequest("unknown command")
	}
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return apperrors.Validation("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperrors.Validation("malformed payload")
	}
	return nil
}
