package services

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mindgarden-backend/internal/engine"
	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/requestdata"
	"github.com/yungbote/mindgarden-backend/internal/types"
)

// In-memory repos backing the service tests. They honor the same contracts
// as the gorm-backed ones: newest-first ordering, the composite unique index
// on (user_id, game_key, session_number), ErrRecordNotFound on misses.

type fakeSessionRepo struct {
	rows []*types.GameSession
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.GameSession) (*types.GameSession, error) {
	for _, existing := range f.rows {
		if existing.UserID == row.UserID && existing.GameKey == row.GameKey && existing.SessionNumber == row.SessionNumber {
			return nil, fmt.Errorf("duplicate key value violates unique constraint \"idx_user_game_session\"")
		}
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeSessionRepo) CountByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (int64, error) {
	var count int64
	for _, row := range f.rows {
		if row.UserID == userID && row.GameKey == gameKey {
			count++
		}
	}
	return count, nil
}

func (f *fakeSessionRepo) GetRecentByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string, limit int) ([]*types.GameSession, error) {
	var matched []*types.GameSession
	for _, row := range f.rows {
		if row.UserID == userID && row.GameKey == gameKey {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SessionNumber > matched[j].SessionNumber
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeSessionRepo) GetRecentByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.GameSession, error) {
	var matched []*types.GameSession
	for _, row := range f.rows {
		if row.UserID == userID {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CompletedAt.After(matched[j].CompletedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (f *fakeSessionRepo) GetLatestByUserAndGame(ctx context.Context, tx *gorm.DB, userID uuid.UUID, gameKey string) (*types.GameSession, error) {
	recent, _ := f.GetRecentByUserAndGame(ctx, tx, userID, gameKey, 1)
	if len(recent) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return recent[0], nil
}

type fakeRollupRepo struct {
	byUser  map[uuid.UUID]*types.UserMetricsRollup
	upserts int
}

func newFakeRollupRepo() *fakeRollupRepo {
	return &fakeRollupRepo{byUser: map[uuid.UUID]*types.UserMetricsRollup{}}
}

func (f *fakeRollupRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.UserMetricsRollup) error {
	f.upserts++
	if existing, ok := f.byUser[row.UserID]; ok {
		existing.CompositeIndex = row.CompositeIndex
		existing.PerGame = row.PerGame
		existing.CompositeHistory = row.CompositeHistory
		existing.UpdatedAt = row.UpdatedAt
		return nil
	}
	stored := *row
	f.byUser[row.UserID] = &stored
	return nil
}

func (f *fakeRollupRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserMetricsRollup, error) {
	row, ok := f.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

type testEnv struct {
	userID   uuid.UUID
	ctx      context.Context
	sessions *fakeSessionRepo
	rollups  *fakeRollupRepo
	rollup   RollupService
	session  SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	eng := engine.New(engine.DefaultConfig())
	sessions := &fakeSessionRepo{}
	rollups := newFakeRollupRepo()
	rollupSvc := NewRollupService(nil, log, eng, sessions, rollups, nil)
	sessionSvc := NewSessionService(nil, log, eng, sessions, rollupSvc, nil)

	userID := uuid.New()
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	return &testEnv{
		userID:   userID,
		ctx:      ctx,
		sessions: sessions,
		rollups:  rollups,
		rollup:   rollupSvc,
		session:  sessionSvc,
	}
}
