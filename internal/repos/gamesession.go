package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/types"
)

type GameSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error)
	CountByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (int64, error)
	// GetRecentByUserAndGame returns up to limit completed sessions for one
	// game, newest first.
	GetRecentByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string, limit int) ([]*types.GameSession, error)
	// GetRecentByUser returns up to limit completed sessions across every
	// game, newest first.
	GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.GameSession, error)
	GetLatestByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (*types.GameSession, error)
}

type gameSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGameSessionRepo(db *gorm.DB, baseLog *logger.Logger) GameSessionRepo {
	repoLog := baseLog.With("repo", "GameSessionRepo")
	return &gameSessionRepo{db: db, log: repoLog}
}

func (r *gameSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *gameSessionRepo) CountByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return 0, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.GameSession{}).
		Where("user_id = ? AND game_key = ?", userID, gameKey).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gameSessionRepo) GetRecentByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string, limit int) ([]*types.GameSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.GameSession
	if userID == uuid.Nil || limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND game_key = ?", userID, gameKey).
		Order("session_number DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameSessionRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.GameSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.GameSession
	if userID == uuid.Nil || limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *gameSessionRepo) GetLatestByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (*types.GameSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}

	var result types.GameSession
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND game_key = ?", userID, gameKey).
		Order("session_number DESC").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
