// Conversation HTTP handlers.
//
// This file exposes conversation resources:
//   - GET    /conversations/{userId}/{sessionId}   (history, ETag support)
//   - DELETE /conversations/{userId}/{sessionId}   (delete from every tier)
//   - GET    /conversations/{userId}               (list, primary store only)
//   - DELETE /demo-sessions/{userId}               (end a demo session)
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/utils"
)

//
// DTOs
//

// HistoryResponse is a conversation's messages in append order plus its
// context block.
type HistoryResponse struct {
	Messages    []domain.Message           `json:"messages"`
	Context     domain.ConversationContext `json:"context"`
	StorageTier string                     `json:"storageTier" enums:"demo,fallback,primary"`
}

// ConversationSummary is one row of the conversation list.
type ConversationSummary struct {
	SessionID     string    `json:"sessionId"`
	TotalMessages int       `json:"totalMessages"`
	LastActivity  time.Time `json:"lastActivity"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// EndDemoSessionResponse reports how many demo conversations were dropped.
type EndDemoSessionResponse struct {
	Removed int `json:"removed"`
}

//
// Helpers
//

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// weakETag builds a weak validator from a count and a timestamp.
func weakETag(kind, id string, n int64, ts *time.Time) string {
	var unix int64
	if ts != nil && !ts.IsZero() {
		unix = ts.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%s:%d:%d"`, kind, id, n, unix)
}

// notModified sets ETag and reports whether If-None-Match matched it.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

//
// Handlers
//

// GetHistory godoc
// @ID          getHistory
// @Summary     Get conversation history
// @Description Returns the messages of one session in append order. An unknown session returns an empty list. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
//
// @Param       userId         path    string  true   "User ID"
// @Param       sessionId      path    string  true   "Session ID"
// @Param       X-Account-Kind header  string  false  "Account kind hint"  Enums(demo, registered)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
//
// @Success     200  {object}  handlers.HistoryResponse
// @Header      200  {string}  ETag  "Weak ETag for the current history"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{userId}/{sessionId} [get]
func (h *Handlers) GetHistory(c *gin.Context) {
	userID, sessionID := c.Param("userId"), c.Param("sessionId")
	hist, err := h.chat.History(c.Request.Context(), userID, sessionID, accountKind(c))
	if err != nil {
		failService(c, err)
		return
	}

	last := hist.Context.LastActivity
	if notModified(c, weakETag("history", sessionID, int64(hist.Context.TotalMessages), &last)) {
		return
	}
	ok(c, http.StatusOK, HistoryResponse{
		Messages:    hist.Messages,
		Context:     hist.Context,
		StorageTier: string(hist.Tier),
	})
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Removes the conversation from every storage tier that holds it.
// @Tags        Conversations
//
// @Param       userId         path    string  true   "User ID"
// @Param       sessionId      path    string  true   "Session ID"
// @Param       X-Account-Kind header  string  false  "Account kind hint"  Enums(demo, registered)
//
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse  "Conversation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /conversations/{userId}/{sessionId} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	err := h.chat.Delete(c.Request.Context(), c.Param("userId"), c.Param("sessionId"), accountKind(c))
	if err != nil {
		failService(c, err)
		return
	}
	noContent(c)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations from the primary store, most recent first. Answers 503 while the primary store is unreachable. Supports weak ETag via If-None-Match.
// @Tags        Conversations
// @Produce     json
//
// @Param       userId         path    string  true   "User ID"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.ListConversationsResponse
// @Header      200  {string}  ETag  "Weak ETag for the current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     503  {object}  handlers.ErrorResponse  "Primary store unavailable"
// @Router      /conversations/{userId} [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")
	page, pageSize := utils.Page(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)

	count, last, err := h.chat.ConversationsStats(ctx, userID)
	if err != nil {
		failService(c, err)
		return
	}
	if notModified(c, weakETag("conversations", userID, count, last)) {
		return
	}

	items, total, err := h.chat.ListConversations(ctx, userID, page, pageSize)
	if err != nil {
		failService(c, err)
		return
	}

	out := make([]ConversationSummary, 0, len(items))
	for _, conv := range items {
		out = append(out, ConversationSummary{
			SessionID:     conv.SessionID,
			TotalMessages: conv.TotalMessages,
			LastActivity:  conv.LastActivity,
			CreatedAt:     conv.CreatedAt,
		})
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: out,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// EndDemoSession godoc
// @ID          endDemoSession
// @Summary     End a demo session
// @Description Discards every in-memory conversation held for a demo account.
// @Tags        Conversations
// @Produce     json
//
// @Param       userId          path    string  true   "Demo user ID"
// @Param       X-Account-Kind  header  string  false  "Account kind hint"  Enums(demo, registered)
//
// @Success     200  {object}  handlers.EndDemoSessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a demo account"
// @Router      /demo-sessions/{userId} [delete]
func (h *Handlers) EndDemoSession(c *gin.Context) {
	n, err := h.chat.EndDemoSession(c.Request.Context(), c.Param("userId"), accountKind(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, EndDemoSessionResponse{Removed: n})
}
