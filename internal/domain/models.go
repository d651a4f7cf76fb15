// Package domain defines the persistence models for conversations and
// messages, plus the value types (risk assessments, storage tiers, provider
// results) that flow through the message pipeline. The GORM-mapped types are
// shared by the fallback (SQLite) and primary (PostgreSQL) stores; the demo
// store keeps the same structs in memory.
package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Roles a message can be authored by.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is the aggregate for one chat session, identified by
// (UserID, SessionID). It owns its messages in append order.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID / SessionID: natural key, unique together.
//   - LastActivity / TotalMessages: the context block returned with history.
//   - Messages: ordered by Seq; cascade-deleted with the conversation.
//
// Conversations are deleted wholesale (hard delete); there is no soft delete
// because a user's delete request must actually remove their disclosures.
type Conversation struct {
	ID            string    `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"userId"        gorm:"type:varchar(128);not null;uniqueIndex:ux_user_session,priority:1"`
	SessionID     string    `json:"sessionId"     gorm:"type:varchar(128);not null;uniqueIndex:ux_user_session,priority:2"`
	LastActivity  time.Time `json:"lastActivity"  gorm:"not null;index"`
	TotalMessages int       `json:"totalMessages" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Messages []Message `json:"messages" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// ConversationContext is the summary block returned next to a history read.
type ConversationContext struct {
	LastActivity  time.Time `json:"lastActivity"`
	TotalMessages int       `json:"totalMessages"`
}

// Message is a single immutable utterance. Seq is the append position within
// the conversation and is the only meaningful order.
type Message struct {
	ID             string                              `json:"id"        gorm:"type:char(36);primaryKey"`
	ConversationID string                              `json:"-"         gorm:"type:char(36);not null;uniqueIndex:ux_conversation_seq,priority:1"`
	Seq            int                                 `json:"seq"       gorm:"not null;uniqueIndex:ux_conversation_seq,priority:2"`
	Role           string                              `json:"role"      gorm:"type:varchar(16);not null;check:role IN ('user','assistant')"`
	Content        string                              `json:"content"   gorm:"type:text;not null"`
	Timestamp      time.Time                           `json:"timestamp" gorm:"not null"`
	Metadata       datatypes.JSONType[MessageMetadata] `json:"metadata"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// MessageMetadata is stored as a JSON column. User messages carry the risk
// assessment; assistant messages carry provider provenance or the crisis flag.
type MessageMetadata struct {
	RiskLevel       RiskLevel `json:"riskLevel,omitempty"`
	Indicators      []string  `json:"indicators,omitempty"`
	CulturalContext string    `json:"culturalContext,omitempty"`

	Model      string `json:"model,omitempty"`
	TokenCount int    `json:"tokenCount,omitempty"`
	LatencyMs  int64  `json:"latencyMs,omitempty"`

	Crisis bool `json:"crisis,omitempty"`
}

// Meta returns the decoded metadata of m.
func (m Message) Meta() MessageMetadata { return m.Metadata.Data() }

// NewConversation starts an empty conversation for (userID, sessionID).
func NewConversation(userID, sessionID string, now time.Time) *Conversation {
	now = now.UTC()
	return &Conversation{
		ID:           uuid.NewString(),
		UserID:       userID,
		SessionID:    sessionID,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
		Messages:     []Message{},
	}
}

// Append adds a message at the end of the conversation and refreshes the
// context block. It returns the appended message.
func (c *Conversation) Append(role, content string, meta MessageMetadata, now time.Time) Message {
	now = now.UTC()
	m := Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		Seq:            len(c.Messages),
		Role:           role,
		Content:        content,
		Timestamp:      now,
		Metadata:       datatypes.NewJSONType(meta),
	}
	c.Messages = append(c.Messages, m)
	c.TotalMessages = len(c.Messages)
	c.LastActivity = now
	c.UpdatedAt = now
	return m
}

// Context returns the conversation's context block.
func (c *Conversation) Context() ConversationContext {
	return ConversationContext{LastActivity: c.LastActivity, TotalMessages: c.TotalMessages}
}

// Window returns the most recent n messages (all of them when n <= 0 or
// the conversation is shorter). The returned slice aliases c.Messages.
func (c *Conversation) Window(n int) []Message {
	if n <= 0 || len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}

// Clone returns a deep copy so stores never share message slices with callers.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		meta := m.Meta()
		if meta.Indicators != nil {
			meta.Indicators = append([]string(nil), meta.Indicators...)
		}
		m.Metadata = datatypes.NewJSONType(meta)
		out.Messages[i] = m
	}
	return &out
}
