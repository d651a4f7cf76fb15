package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestIdempotency_Migration_UniqueKey(t *testing.T) {
	db := newTestDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_user_session_key") {
		t.Fatalf("expected composite index ux_user_session_key")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID:        "id-1",
		UserID:    "u1",
		SessionID: "s1",
		Key:       "k1",
		Status:    200,
		Response:  datatypes.JSON(`{"message":"hi"}`),
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.Key != "k1" || got.Status != 200 || string(got.Response) != `{"message":"hi"}` {
		t.Fatalf("unexpected row: %+v", got)
	}

	rec2 := *rec
	rec2.ID = "id-2"
	if err := db.Create(&rec2).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (user_id, session_id, key)")
	}
}

func TestResolveAccount(t *testing.T) {
	cases := []struct {
		user, explicit string
		want           AccountKind
		wantErr        bool
	}{
		{"demo-123", "", AccountDemo, false},
		{"alice", "", AccountRegistered, false},
		{"alice", "demo", AccountDemo, false},
		{"demo-123", "registered", AccountRegistered, false},
		{"alice", " DEMO ", AccountDemo, false},
		{"alice", "guest", "", true},
	}
	for _, tc := range cases {
		acc, err := ResolveAccount(tc.user, tc.explicit, "demo-")
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q/%q: expected error", tc.user, tc.explicit)
			}
			continue
		}
		if err != nil || acc.Kind != tc.want || acc.UserID != tc.user {
			t.Fatalf("%q/%q: got %+v err=%v; want %s", tc.user, tc.explicit, acc, err, tc.want)
		}
	}
}

func TestRiskLevel_RankAndImmediate(t *testing.T) {
	for i, l := range RiskLevels {
		if l.Rank() != i {
			t.Fatalf("%s rank = %d; want %d", l, l.Rank(), i)
		}
		if !l.Valid() {
			t.Fatalf("%s should be valid", l)
		}
	}
	if RiskLevel("bogus").Valid() || RiskLevel("bogus").Rank() != 0 {
		t.Fatalf("unknown level should be invalid with rank 0")
	}
	if !RiskHigh.RequiresImmediate() || !RiskImminent.RequiresImmediate() || RiskModerate.RequiresImmediate() {
		t.Fatalf("RequiresImmediate mismatch")
	}
}
