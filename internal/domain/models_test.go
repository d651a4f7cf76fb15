package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the FK pragma applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (Conversation{}).TableName() != "conversations" {
		t.Fatalf("Conversation.TableName() = %q", (Conversation{}).TableName())
	}
	if (Message{}).TableName() != "messages" {
		t.Fatalf("Message.TableName() = %q", (Message{}).TableName())
	}
}

func TestAppend_AssignsSeqAndContext(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewConversation("u1", "s1", t0)

	m1 := c.Append(RoleUser, "hello", MessageMetadata{RiskLevel: RiskNone}, t0.Add(time.Second))
	m2 := c.Append(RoleAssistant, "hi", MessageMetadata{Model: "gpt", TokenCount: 7}, t0.Add(2*time.Second))

	if m1.Seq != 0 || m2.Seq != 1 {
		t.Fatalf("seq = %d,%d; want 0,1", m1.Seq, m2.Seq)
	}
	if m1.ConversationID != c.ID || m1.ID == "" || m1.ID == m2.ID {
		t.Fatalf("ids not assigned: %+v %+v", m1, m2)
	}
	ctx := c.Context()
	if ctx.TotalMessages != 2 || !ctx.LastActivity.Equal(t0.Add(2*time.Second)) {
		t.Fatalf("unexpected context: %+v", ctx)
	}
	if got := m2.Meta(); got.Model != "gpt" || got.TokenCount != 7 {
		t.Fatalf("metadata round-trip: %+v", got)
	}
}

func TestWindow(t *testing.T) {
	c := NewConversation("u", "s", time.Now())
	for i := 0; i < 15; i++ {
		c.Append(RoleUser, string(rune('a'+i)), MessageMetadata{}, time.Now())
	}
	w := c.Window(10)
	if len(w) != 10 || w[0].Content != "f" || w[9].Content != "o" {
		t.Fatalf("unexpected window: len=%d first=%q", len(w), w[0].Content)
	}
	if got := len(c.Window(0)); got != 15 {
		t.Fatalf("Window(0) len = %d; want 15", got)
	}
}

func TestClone_IsDeep(t *testing.T) {
	c := NewConversation("u", "s", time.Now())
	c.Append(RoleUser, "x", MessageMetadata{Indicators: []string{"a"}}, time.Now())

	cp := c.Clone()
	cp.Messages[0].Content = "changed"
	cp.Append(RoleAssistant, "y", MessageMetadata{}, time.Now())

	if c.Messages[0].Content != "x" || len(c.Messages) != 1 {
		t.Fatalf("clone shares state with original: %+v", c.Messages)
	}
	if (*Conversation)(nil).Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
}

func TestMigrations_Indexes_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Conversation{}, &Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasIndex(&Conversation{}, "ux_user_session") {
		t.Fatalf("expected unique index ux_user_session on conversations")
	}
	if !m.HasIndex(&Message{}, "ux_conversation_seq") {
		t.Fatalf("expected unique index ux_conversation_seq on messages")
	}

	now := time.Now().UTC()
	c := NewConversation("u1", "s1", now)
	c.Append(RoleUser, "hello", MessageMetadata{RiskLevel: RiskLow, Indicators: []string{"passive_wish"}}, now)
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("insert conversation: %v", err)
	}

	var got Message
	if err := db.First(&got, "conversation_id = ?", c.ID).Error; err != nil {
		t.Fatalf("load message: %v", err)
	}
	if meta := got.Meta(); meta.RiskLevel != RiskLow || len(meta.Indicators) != 1 {
		t.Fatalf("metadata column round-trip failed: %+v", meta)
	}

	// Same (user, session) twice violates the natural key.
	dup := NewConversation("u1", "s1", now)
	dup.Messages = nil
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation on (user_id, session_id)")
	}

	// CASCADE: deleting the conversation removes its messages.
	if err := db.Delete(&Conversation{}, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	var cnt int64
	if err := db.Model(&Message{}).Where("conversation_id = ?", c.ID).Count(&cnt).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if cnt != 0 {
		t.Fatalf("expected messages to cascade-delete, got %d", cnt)
	}
}
