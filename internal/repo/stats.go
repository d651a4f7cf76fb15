package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// ConversationsStats returns the number of conversations userID owns and the
// latest LastActivity among them (nil when there are none). The HTTP layer
// derives list ETags from these two values.
func ConversationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, lastActivity *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Conversation{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// ORDER BY instead of MAX(): SQLite returns MAX() over datetimes as TEXT.
	var row struct {
		LastActivity time.Time
	}
	if err = q.Select("last_activity").Order("last_activity DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.LastActivity, nil
}
