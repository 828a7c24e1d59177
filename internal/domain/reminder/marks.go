package reminder

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MarkStore persists per-requester reminder markers.
type MarkStore struct {
	db *gorm.DB
}

func NewMarkStore(db *gorm.DB) *MarkStore {
	return &MarkStore{db: db}
}

// MarkOnce sets the marker unless a live one exists and reports whether it was set.
// Concurrent callers with the same key see true at most once.
func (s *MarkStore) MarkOnce(ctx context.Context, userID int64, key string, now time.Time, ttl time.Duration) (bool, error) {
	now = now.UTC().Truncate(time.Second)

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND mark_key = ? AND expires_at <= ?", userID, key, now).
		Delete(&Mark{}).Error; err != nil {
		return false, fmt.Errorf("drop expired mark: %w", err)
	}

	m := Mark{UserID: userID, Key: key, ExpiresAt: now.Add(ttl), CreatedAt: now}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, fmt.Errorf("set mark: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// PurgeExpired deletes markers that expired at or before now.
func (s *MarkStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", now.UTC().Truncate(time.Second)).
		Delete(&Mark{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge marks: %w", res.Error)
	}
	return res.RowsAffected, nil
}
