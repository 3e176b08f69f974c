package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"github.com/vntam/chat-realtime-sub000/internal/apperrors"
	"github.com/vntam/chat-realtime-sub000/internal/auth"
	"github.com/vntam/chat-realtime-sub000/internal/observability"
	"github.com/vntam/chat-realtime-sub000/internal/repositories"
	"github.com/vntam/chat-realtime-sub000/internal/service"
)

// Gateway upgrades websocket connections, authenticates them and runs the
// per-connection command loop.
type Gateway struct {
	hub           *Hub
	verifier      auth.Verifier
	convRepo      repositories.ConversationRepository
	conversations *service.ConversationService
	messages      *service.MessageService
	settings      *service.SettingsService
	nicknames     *service.NicknameService
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, verifier auth.Verifier, convRepo repositories.ConversationRepository, conversations *service.ConversationService, messages *service.MessageService, settings *service.SettingsService, nicknames *service.NicknameService) *Gateway {
	return &Gateway{
		hub:           hub,
		verifier:      verifier,
		convRepo:      convRepo,
		conversations: conversations,
		messages:      messages,
		settings:      settings,
		nicknames:     nicknames,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection and registers the client. The token comes
// from the Authorization header or, for browser clients that cannot set
// headers on websocket dials, the token query parameter.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("chat-engine/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		token = c.Query("token")
	}

	userID, err := g.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	session := Session{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := newClient(session, conn)
	g.hub.Register(client)
	go client.writePump()

	observability.IncWSActive()
	observability.IncWSEvent("connect")
	log.Printf("ws connect conn_id=%s user_id=%d ip=%s", session.ConnID, userID, session.IP)

	go g.readLoop(client)
}

// readLoop consumes frames until the connection dies. Commands execute one at
// a time so acks and side effects keep arrival order.
func (g *Gateway) readLoop(client *Client) {
	defer func() {
		g.hub.Unregister(client)
		observability.DecWSActive()
		observability.IncWSEvent("disconnect")
		log.Printf("ws disconnect conn_id=%s user_id=%d", client.session.ConnID, client.session.UserID)
	}()

	ctx := context.Background()
	for {
		_, frame, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		g.handleFrame(ctx, client, frame)
	}
}

// handleFrame decodes one inbound frame and answers it. Every frame gets an
// ack; the command id only carries correlation.
func (g *Gateway) handleFrame(ctx context.Context, client *Client, frame []byte) {
	var cmd Command
	if err := json.Unmarshal(frame, &cmd); err != nil || cmd.Name == "" {
		g.sendAck(client, Ack{OK: false, Error: &AckError{Code: apperrors.CodeBadRequest, Message: "malformed command frame"}})
		return
	}
	g.sendAck(client, g.dispatch(ctx, client, cmd))
}

func (g *Gateway) sendAck(client *Client, ack Ack) {
	frame, err := json.Marshal(ack)
	if err != nil {
		log.Printf("ws ack marshal error: %v", err)
		return
	}
	client.Enqueue(frame)
}
