package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/types"
)

type MetricsRollupRepo interface {
	// Upsert fully replaces the user's rollup document. There is no partial
	// merge path: the whole row is recomputed and written on every session
	// submission.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.UserMetricsRollup) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserMetricsRollup, error)
}

type metricsRollupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricsRollupRepo(db *gorm.DB, baseLog *logger.Logger) MetricsRollupRepo {
	repoLog := baseLog.With("repo", "MetricsRollupRepo")
	return &metricsRollupRepo{db: db, log: repoLog}
}

func (r *metricsRollupRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserMetricsRollup) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"composite_index", "per_game", "composite_history", "updated_at"}),
		}).
		Create(row).Error
}

func (r *metricsRollupRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserMetricsRollup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.UserMetricsRollup
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
