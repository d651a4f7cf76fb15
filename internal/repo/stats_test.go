package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

func TestConversationsStats_ZeroRows(t *testing.T) {
	db := newRepoDB(t)
	count, last, err := ConversationsStats(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ConversationsStats: %v", err)
	}
	if count != 0 || last != nil {
		t.Fatalf("expected (0, nil), got (%d, %v)", count, last)
	}
}

func TestConversationsStats_FilterAndMax(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	t1 := mustTime(t, "2025-01-02T15:00:00Z")
	t2 := mustTime(t, "2025-03-04T10:30:00Z")
	t3 := mustTime(t, "2025-06-01T09:00:00Z")

	for _, s := range []struct {
		user, session string
		at            time.Time
	}{
		{"u1", "a", t1},
		{"u1", "b", t2},
		{"u2", "c", t3},
	} {
		if err := SaveConversation(ctx, db, domain.NewConversation(s.user, s.session, s.at)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, last, err := ConversationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ConversationsStats: %v", err)
	}
	if count != 2 || last == nil || !last.Equal(t2) {
		t.Fatalf("expected (2, %v), got (%d, %v)", t2, count, last)
	}
}
