package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/tbourn/wellness-chat-backend/internal/repo"
)

// Primary owns the handle to the primary database. The handle is opened
// lazily and the schema is migrated on the first successful ping, so a
// database that is down at boot can come up later without a restart.
type Primary struct {
	dsn  string
	open func(string) (*gorm.DB, error)

	mu       sync.Mutex
	db       *gorm.DB
	migrated bool
}

// NewPrimary returns a primary store for a PostgreSQL DSN. An empty DSN makes
// the primary permanently unavailable.
func NewPrimary(dsn string) *Primary {
	return &Primary{dsn: strings.TrimSpace(dsn), open: repo.OpenPostgres}
}

func (p *Primary) handle() (*gorm.DB, error) {
	if p.dsn == "" {
		return nil, fmt.Errorf("%w: no primary DSN configured", ErrUnavailable)
	}
	if p.db != nil {
		return p.db, nil
	}
	db, err := p.open(p.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	p.db = db
	return db, nil
}

// Ping checks reachability within ctx and migrates the schema once.
func (p *Primary) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	db, err := p.handle()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !p.migrated {
		if err := repo.MigrateConversations(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
		}
		p.migrated = true
	}
	return nil
}

// Store returns the primary conversation store, or ErrUnavailable when the
// database has never been reached.
func (p *Primary) Store() (*GormStore, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil || !p.migrated {
		return nil, ErrUnavailable
	}
	return NewGormStore(p.db), nil
}

// Close releases the underlying connection pool.
func (p *Primary) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
