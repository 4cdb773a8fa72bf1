// Package repo – VideoRepo
//
// VideoRepo is the record store used by the ingestion pipeline and the feed
// assembler. Writes are single-statement upserts keyed by video ID; reads walk
// the (feed_type, sent_time) index in descending time order.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/video-feed-backend/internal/domain"
)

// VideoRepo persists video records in a single GORM table.
// It is safe for concurrent use.
type VideoRepo struct {
	db    *gorm.DB
	table string
}

// NewVideoRepo binds a repository to db and the given table name.
// An empty table name falls back to domain.Video's default.
func NewVideoRepo(db *gorm.DB, table string) *VideoRepo {
	if table == "" {
		table = domain.Video{}.TableName()
	}
	return &VideoRepo{db: db, table: table}
}

// Put inserts v, or overwrites every column when a row with the same ID
// already exists.
func (r *VideoRepo) Put(ctx context.Context, v *domain.Video) error {
	return r.db.WithContext(ctx).
		Table(r.table).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(v).Error
}

// LatestByFeed returns up to limit records of feedType, newest first.
// Ties on sent_time are broken by ID so the order is stable.
func (r *VideoRepo) LatestByFeed(ctx context.Context, feedType string, limit int) ([]domain.Video, error) {
	if limit <= 0 {
		limit = 20
	}
	out := make([]domain.Video, 0, limit)
	err := r.db.WithContext(ctx).
		Table(r.table).
		Where("feed_type = ?", feedType).
		Order("sent_time DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
