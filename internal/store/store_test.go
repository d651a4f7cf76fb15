package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/repo"
)

func newSQLiteDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	// A single connection keeps the shared in-memory DB alive and serializes
	// transactions.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newFallback(t *testing.T) *GormStore {
	t.Helper()
	db := newSQLiteDB(t, "store_"+t.Name())
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return NewGormStore(db)
}

// runConformance exercises the behavior every ConversationStore must share.
func runConformance(t *testing.T, s ConversationStore) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

	if _, err := s.Find(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find on empty store: want ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete on empty store: want ErrNotFound, got %v", err)
	}

	c := domain.NewConversation("u1", "s1", now)
	c.Append(domain.RoleUser, "first", domain.MessageMetadata{RiskLevel: domain.RiskNone, Indicators: []string{}}, now)
	c.Append(domain.RoleAssistant, "second", domain.MessageMetadata{Model: "m", TokenCount: 3}, now.Add(time.Second))
	c.Append(domain.RoleUser, "third", domain.MessageMetadata{}, now.Add(2*time.Second))

	// Saving twice must equal saving once.
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, c); err != nil {
		t.Fatalf("Save (repeat): %v", err)
	}

	got, err := s.Find(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got.Messages) != 3 || got.TotalMessages != 3 {
		t.Fatalf("round-trip count: got %d messages (total=%d)", len(got.Messages), got.TotalMessages)
	}
	for i, want := range []string{"first", "second", "third"} {
		if got.Messages[i].Content != want {
			t.Fatalf("message %d = %q; want %q", i, got.Messages[i].Content, want)
		}
	}

	// Mutating the result must not leak back into the store.
	got.Append(domain.RoleAssistant, "unsaved", domain.MessageMetadata{}, now.Add(time.Minute))
	again, err := s.Find(ctx, "u1", "s1")
	if err != nil || len(again.Messages) != 3 {
		t.Fatalf("unsaved append leaked: %d messages, err=%v", len(again.Messages), err)
	}

	// Other sessions of the same user are independent.
	other := domain.NewConversation("u1", "s2", now)
	if err := s.Save(ctx, other); err != nil {
		t.Fatalf("Save other: %v", err)
	}

	if err := s.Delete(ctx, "u1", "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Find(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find after delete: want ErrNotFound, got %v", err)
	}
	if _, err := s.Find(ctx, "u1", "s2"); err != nil {
		t.Fatalf("sibling session lost: %v", err)
	}
}

func TestMemoryStore_Conformance(t *testing.T) {
	runConformance(t, NewMemoryStore())
}

func TestGormStore_Conformance(t *testing.T) {
	runConformance(t, newFallback(t))
}

func TestMemoryStore_Cleanup(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	for _, sid := range []string{"a", "b"} {
		if err := s.Save(ctx, domain.NewConversation("demo-1", sid, now)); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	_ = s.Save(ctx, domain.NewConversation("demo-2", "a", now))

	if n := s.Cleanup("demo-1"); n != 2 {
		t.Fatalf("Cleanup = %d; want 2", n)
	}
	if _, err := s.Find(ctx, "demo-1", "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("demo-1 data survived cleanup")
	}
	if _, err := s.Find(ctx, "demo-2", "a"); err != nil {
		t.Fatalf("demo-2 data should be untouched: %v", err)
	}
	if n := s.Cleanup("nobody"); n != 0 {
		t.Fatalf("Cleanup of unknown user = %d", n)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewMemoryStore().Save(ctx, domain.NewConversation("u", "s", time.Now())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGormStore_ListAndStats(t *testing.T) {
	s := newFallback(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, sid := range []string{"a", "b", "c"} {
		if err := s.Save(ctx, domain.NewConversation("u1", sid, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	items, total, err := s.List(ctx, "u1", 0, 2)
	if err != nil || total != 3 || len(items) != 2 || items[0].SessionID != "c" {
		t.Fatalf("List = %+v, %d, %v", items, total, err)
	}
	n, last, err := s.Stats(ctx, "u1")
	if err != nil || n != 3 || last == nil || !last.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("Stats = %d, %v, %v", n, last, err)
	}
}

func TestPrimary_EmptyDSN_Unavailable(t *testing.T) {
	p := NewPrimary("  ")
	if err := p.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Ping: want ErrUnavailable, got %v", err)
	}
	if _, err := p.Store(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Store: want ErrUnavailable, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on unopened primary: %v", err)
	}
}

func TestPrimary_OpenError_Unavailable(t *testing.T) {
	p := &Primary{dsn: "x", open: func(string) (*gorm.DB, error) { return nil, errors.New("boom") }}
	if err := p.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestPrimary_PingMigratesAndServesStore(t *testing.T) {
	db := newSQLiteDB(t, "primary_"+t.Name())
	p := &Primary{dsn: "sqlite", open: func(string) (*gorm.DB, error) { return db, nil }}

	if _, err := p.Store(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Store before ping: want ErrUnavailable, got %v", err)
	}
	if err := p.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !db.Migrator().HasTable(&domain.Conversation{}) {
		t.Fatalf("expected conversations table after first ping")
	}
	if db.Migrator().HasTable(&domain.Idempotency{}) {
		t.Fatalf("idempotency table belongs to the fallback database only")
	}
	s, err := p.Store()
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	runConformance(t, s)
}

func TestRegistry_For(t *testing.T) {
	demo := NewMemoryStore()
	fb := newFallback(t)
	r := NewRegistry(demo, fb, NewPrimary(""))

	if s, err := r.For(domain.TierDemo); err != nil || s != ConversationStore(demo) {
		t.Fatalf("demo tier: %v %v", s, err)
	}
	if s, err := r.For(domain.TierFallback); err != nil || s != ConversationStore(fb) {
		t.Fatalf("fallback tier: %v %v", s, err)
	}
	if s, err := r.For(domain.TierPrimary); !errors.Is(err, ErrUnavailable) || s != nil {
		t.Fatalf("primary tier without DSN: %v %v", s, err)
	}
	if _, err := r.Primary(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Primary(): want ErrUnavailable, got %v", err)
	}
	if _, err := r.For("bogus"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
	if r.Demo() != demo {
		t.Fatalf("Demo() mismatch")
	}
}
