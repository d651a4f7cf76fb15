package services

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

func TestIdempotencyService_RememberLookup(t *testing.T) {
	svc := &IdempotencyService{DB: newGormStore(t).DB, TTL: time.Hour}
	ctx := context.Background()

	if _, _, ok, err := svc.Lookup(ctx, "u1", "s1", "k1"); err != nil || ok {
		t.Fatalf("Lookup before Remember: ok=%v err=%v", ok, err)
	}
	if err := svc.Remember(ctx, "u1", "s1", "k1", 200, []byte(`{"message":"hi"}`)); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	// second writer with the same tuple
	if err := svc.Remember(ctx, "u1", "s1", "k1", 200, []byte(`{"message":"other"}`)); err != nil {
		t.Fatalf("duplicate Remember should be nil, got %v", err)
	}

	status, body, ok, err := svc.Lookup(ctx, "u1", "s1", "k1")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if status != 200 || string(body) != `{"message":"hi"}` {
		t.Fatalf("got %d %s", status, body)
	}

	if _, _, ok, _ := svc.Lookup(ctx, "u1", "s2", "k1"); ok {
		t.Fatal("key must be scoped to the session")
	}
	exists, err := svc.Exists(ctx, "u1", "s1", "k1", time.Now().UTC())
	if err != nil || !exists {
		t.Fatalf("Exists: %v %v", exists, err)
	}
	if exists, _ := svc.Exists(ctx, "u2", "s1", "k1", time.Now().UTC()); exists {
		t.Fatal("Exists must be scoped to the user")
	}
}

func TestIdempotencyService_Purge(t *testing.T) {
	db := newGormStore(t).DB
	svc := &IdempotencyService{DB: db, TTL: time.Hour}
	ctx := context.Background()

	if err := svc.Remember(ctx, "u1", "s1", "live", 200, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	expired := domain.Idempotency{
		ID:        "expired-1",
		UserID:    "u1",
		SessionID: "s1",
		Key:       "old",
		Status:    200,
		Response:  []byte(`{}`),
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	n, err := svc.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("purged %d, want 1", n)
	}
	if _, _, ok, _ := svc.Lookup(ctx, "u1", "s1", "live"); !ok {
		t.Fatal("live record purged")
	}
}
