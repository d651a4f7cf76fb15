package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

func TestGetIdempotency_EmptyOrExpiredOrMissing(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if rec, err := GetIdempotency(ctx, db, "u1", "  ", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("empty session: got (%v, %v)", rec, err)
	}

	exp := &domain.Idempotency{
		ID: "expired", UserID: "u1", SessionID: "s1", Key: "k1", Status: 200,
		Response: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}
	if rec, err := GetIdempotency(ctx, db, "u1", "s1", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expired: got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(ctx, db, "u1", "s1", "missing", now); rec != nil || err != ErrNotFound {
		t.Fatalf("missing: got (%v, %v)", rec, err)
	}
	if ok, err := IdempotencyExists(ctx, db, "u1", "s1", "k1", now); err != nil || ok {
		t.Fatalf("expired key should not exist: %v %v", ok, err)
	}
}

func TestCreateIdempotency_SuccessReplayAndDuplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	start := time.Now().UTC()

	body := []byte(`{"response":"hi"}`)
	rec, err := CreateIdempotency(ctx, db, "u9", "s9", "k9", 200, body, 90*time.Minute)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ID == "" || rec.Status != 200 || !rec.ExpiresAt.After(start) {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u9", "s9", "k9", start)
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if string(got.Response) != string(body) {
		t.Fatalf("response = %s; want %s", got.Response, body)
	}
	if ok, err := IdempotencyExists(ctx, db, "u9", "s9", "k9", start); err != nil || !ok {
		t.Fatalf("key should exist: %v %v", ok, err)
	}
	// Same key under another user or session is a different record.
	if ok, _ := IdempotencyExists(ctx, db, "u1", "s9", "k9", start); ok {
		t.Fatal("key leaked across users")
	}
	if ok, _ := IdempotencyExists(ctx, db, "u9", "s1", "k9", start); ok {
		t.Fatal("key leaked across sessions")
	}

	if _, err := CreateIdempotency(ctx, db, "u9", "s9", "k9", 200, body, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestPurgeExpiredIdempotency(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := CreateIdempotency(ctx, db, "u", "s", "live", 200, []byte(`{}`), time.Hour); err != nil {
		t.Fatalf("seed live: %v", err)
	}
	old := &domain.Idempotency{
		ID: "old", UserID: "u", SessionID: "s", Key: "old", Status: 200,
		Response: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed old: %v", err)
	}

	n, err := PurgeExpiredIdempotency(ctx, db, now)
	if err != nil || n != 1 {
		t.Fatalf("purged %d, %v; want 1", n, err)
	}
}
