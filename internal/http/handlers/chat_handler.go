// Chat HTTP handlers.
//
// This file exposes the conversational entry point:
//   - POST /chat   (one chat turn, optionally idempotent)
//
// Handlers are transport-thin: they bind input, call the session
// orchestrator, and shape the reply into the crisis or non-crisis response.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/http/middleware"
	"github.com/tbourn/wellness-chat-backend/internal/safety"
	"github.com/tbourn/wellness-chat-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ChatService is the session orchestrator as seen by the HTTP layer.
//
// Implementations must be safe for concurrent use and honor ctx.
type ChatService interface {
	// HandleMessage runs one chat turn.
	HandleMessage(ctx context.Context, req services.ChatRequest) (*services.ChatReply, error)
	// History returns a conversation's messages and context block.
	History(ctx context.Context, userID, sessionID, accountKind string) (*services.History, error)
	// Delete removes a conversation from every tier that holds it.
	Delete(ctx context.Context, userID, sessionID, accountKind string) error
	// EndDemoSession drops every in-memory conversation of a demo account.
	EndDemoSession(ctx context.Context, userID, accountKind string) (int, error)
	// ListConversations pages a user's conversations on the primary store.
	ListConversations(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// ConversationsStats returns count and latest activity for ETag computation.
	ConversationsStats(ctx context.Context, userID string) (int64, *time.Time, error)
}

// IdempotencyStore persists chat responses keyed by Idempotency-Key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, userID, sessionID, key string) (status int, body []byte, ok bool, err error)
	Remember(ctx context.Context, userID, sessionID, key string, status int, body []byte) error
}

//
// Handler wiring
//

// Handlers groups the chat and conversation endpoints.
type Handlers struct {
	chat ChatService
	idem IdempotencyStore
}

// New constructs Handlers. idem may be nil, which disables replay.
func New(chat ChatService, idem IdempotencyStore) *Handlers {
	return &Handlers{chat: chat, idem: idem}
}

// accountKind reads the optional account kind hint from the X-Account-Kind
// header.
func accountKind(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Account-Kind"))
}

//
// DTOs
//

// ChatRequest is the JSON payload for one chat turn.
type ChatRequest struct {
	Message   string `json:"message"   example:"I'm stressed about my exams"`
	UserID    string `json:"userId"    example:"user-123"`
	SessionID string `json:"sessionId" example:"session-1"`
	// AccountKind optionally forces "demo" or "registered"; the X-Account-Kind
	// header is used when empty.
	AccountKind string `json:"accountKind,omitempty" enums:"demo,registered"`
}

// ChatMetadata describes how a reply was produced. Crisis replies carry the
// risk level, resources, and immediate actions; other replies carry model
// provenance and the storage tier.
type ChatMetadata struct {
	SessionID string `json:"sessionId" example:"session-1"`

	Model       string `json:"model,omitempty"       example:"gpt-4o-mini"`
	TokenCount  *int   `json:"tokenCount,omitempty"  example:"142"`
	LatencyMs   *int64 `json:"latencyMs,omitempty"   example:"830"`
	StorageTier string `json:"storageTier,omitempty" enums:"demo,fallback,primary"`

	CrisisDetected   bool              `json:"crisisDetected,omitempty"`
	RiskLevel        string            `json:"riskLevel,omitempty"        enums:"none,low,moderate,high,imminent"`
	Resources        []safety.Resource `json:"resources,omitempty"`
	ImmediateActions []string          `json:"immediateActions,omitempty"`
}

// ChatResponse is the reply to a chat turn.
type ChatResponse struct {
	Message  string       `json:"message"`
	Metadata ChatMetadata `json:"metadata"`
}

func toChatResponse(r *services.ChatReply) ChatResponse {
	md := ChatMetadata{SessionID: r.SessionID}
	if r.Crisis {
		md.CrisisDetected = true
		md.RiskLevel = string(r.Risk.RiskLevel)
		md.Resources = r.Resources
		md.ImmediateActions = r.Actions
	} else {
		tokens, latency := r.Provider.TokenCount, r.Provider.LatencyMs
		md.Model = r.Provider.Model
		md.TokenCount = &tokens
		md.LatencyMs = &latency
		md.StorageTier = string(r.Tier)
	}
	return ChatResponse{Message: r.Message, Metadata: md}
}

//
// Handlers
//

// PostChat godoc
// @ID          postChat
// @Summary     Send a chat message
// @Description Classifies the message for risk, answers crisis messages with vetted guidance and hotlines without calling the model, otherwise generates a reply from the recent history. Supports Idempotency-Key for safe retries.
// @Tags        Chat
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(2b1f0e1c-1a2b-4c5d-8e9f-0123456789ab)
// @Param       X-Account-Kind   header  string  false  "Account kind hint"                 Enums(demo, registered)
// @Param       body             body    handlers.ChatRequest  true  "Chat turn"
//
// @Success     200  {object}  handlers.ChatResponse
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored response"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.PersistenceErrorResponse  "Reply produced but not stored"
// @Router      /chat [post]
func (h *Handlers) PostChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if req.AccountKind == "" {
		req.AccountKind = accountKind(c)
	}
	req.UserID = strings.TrimSpace(req.UserID)
	req.SessionID = strings.TrimSpace(req.SessionID)
	ctx := c.Request.Context()
	lg := middleware.LoggerFrom(c)

	key, hasKey := middleware.GetIdempotencyKey(c)
	hasKey = hasKey && h.idem != nil
	if hasKey {
		status, body, found, err := h.idem.Lookup(ctx, req.UserID, req.SessionID, key)
		if err != nil {
			lg.Warn().Err(err).Msg("idempotency lookup failed")
		}
		if found {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			c.Data(status, "application/json; charset=utf-8", body)
			return
		}
	}

	reply, err := h.chat.HandleMessage(ctx, services.ChatRequest{
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		Message:     req.Message,
		AccountKind: req.AccountKind,
	})
	if err != nil {
		failService(c, err)
		return
	}

	body, err := json.Marshal(toChatResponse(reply))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "encode response")
		return
	}
	if hasKey {
		if err := h.idem.Remember(ctx, req.UserID, req.SessionID, key, http.StatusOK, body); err != nil {
			lg.Warn().Err(err).Msg("idempotency record not stored")
		}
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}
