package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/mindgarden-backend/internal/clients/redis"
	"github.com/yungbote/mindgarden-backend/internal/engine"
	"github.com/yungbote/mindgarden-backend/internal/logger"
	"github.com/yungbote/mindgarden-backend/internal/repos"
	"github.com/yungbote/mindgarden-backend/internal/requestdata"
	"github.com/yungbote/mindgarden-backend/internal/types"
)

// ContextSummary aggregates the subjective daily-state fields of recent
// sessions. Null context rows carry no signal and are excluded from the
// averages rather than counted as zeros.
type ContextSummary struct {
	AvgMoodLevel           *float64 `json:"avg_mood_level"`
	AvgSleepQuality        *float64 `json:"avg_sleep_quality"`
	MedicationChangedCount int      `json:"medication_changed_count"`
	SessionsWithContext    int      `json:"sessions_with_context"`
	SessionsConsidered     int      `json:"sessions_considered"`
}

type RollupService interface {
	// Recompute rebuilds and replaces the user's whole rollup document from
	// the capped recent session history.
	Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserMetricsRollup, error)
	GetRollup(ctx context.Context) (*types.UserMetricsRollup, error)
	GetContextSummary(ctx context.Context) (*ContextSummary, error)
}

type rollupService struct {
	db          *gorm.DB
	log         *logger.Logger
	eng         *engine.Engine
	sessionRepo repos.GameSessionRepo
	rollupRepo  repos.MetricsRollupRepo
	cache       redis.RollupCache
}

func NewRollupService(db *gorm.DB, log *logger.Logger, eng *engine.Engine, sessionRepo repos.GameSessionRepo, rollupRepo repos.MetricsRollupRepo, cache redis.RollupCache) RollupService {
	serviceLog := log.With("service", "RollupService")
	return &rollupService{
		db:          db,
		log:         serviceLog,
		eng:         eng,
		sessionRepo: sessionRepo,
		rollupRepo:  rollupRepo,
		cache:       cache,
	}
}

type scoredSession struct {
	session *types.GameSession
	metrics engine.GameMetrics
}

func (s *rollupService) Recompute(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.UserMetricsRollup, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	cfg := s.eng.Config()

	perGame := map[string]types.GameRollup{}
	latest := map[engine.GameKey]float64{}

	for _, key := range engine.AllGameKeys() {
		scored, err := s.recentScored(ctx, tx, userID, key, cfg.RecentSessionLimit)
		if err != nil {
			return nil, err
		}
		if len(scored) == 0 {
			continue
		}

		// scored is newest-first throughout.
		scores := make([]float64, 0, len(scored))
		for _, entry := range scored {
			scores = append(scores, entry.metrics.Composite())
		}
		movingWindow := scores
		if len(movingWindow) > cfg.MovingAveragePoints {
			movingWindow = movingWindow[:cfg.MovingAveragePoints]
		}

		greenStreak := 0
		for _, entry := range scored {
			if entry.metrics.Light() != engine.LightGreen {
				break
			}
			greenStreak++
		}

		history := make([]types.RollupPoint, 0, len(scored))
		for i := len(scored) - 1; i >= 0; i-- {
			history = append(history, types.RollupPoint{
				At:           scored[i].session.CompletedAt,
				Score:        scored[i].metrics.Composite(),
				TrafficLight: string(scored[i].metrics.Light()),
			})
		}

		latestEntry := scored[0]
		latest[key] = latestEntry.metrics.Composite()
		perGame[string(key)] = types.GameRollup{
			LatestScore:   latestEntry.metrics.Composite(),
			TrafficLight:  string(latestEntry.metrics.Light()),
			Trend:         string(latestEntry.metrics.CurrentTrend()),
			MovingAverage: engine.Round2(engine.Average(movingWindow)),
			GreenStreak:   greenStreak,
			History:       history,
		}
	}

	compositeHistory, err := s.compositeHistory(ctx, tx, userID, cfg.CompositeHistoryLimit)
	if err != nil {
		return nil, err
	}

	perGameJSON, err := json.Marshal(perGame)
	if err != nil {
		return nil, fmt.Errorf("marshal per-game rollup: %w", err)
	}
	historyJSON, err := json.Marshal(compositeHistory)
	if err != nil {
		return nil, fmt.Errorf("marshal composite history: %w", err)
	}

	row := &types.UserMetricsRollup{
		ID:               uuid.New(),
		UserID:           userID,
		CompositeIndex:   s.eng.CompositeIndex(latest),
		PerGame:          datatypes.JSON(perGameJSON),
		CompositeHistory: datatypes.JSON(historyJSON),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := s.rollupRepo.Upsert(ctx, tx, row); err != nil {
		return nil, fmt.Errorf("upsert rollup: %w", err)
	}
	return row, nil
}

func (s *rollupService) recentScored(ctx context.Context, tx *gorm.DB, userID uuid.UUID, key engine.GameKey, limit int) ([]scoredSession, error) {
	sessions, err := s.sessionRepo.GetRecentByUserAndGame(ctx, tx, userID, string(key), limit)
	if err != nil {
		return nil, fmt.Errorf("load %s sessions: %w", key, err)
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	calc, err := s.eng.Calculator(key)
	if err != nil {
		return nil, err
	}
	scored := make([]scoredSession, 0, len(sessions))
	for _, session := range sessions {
		metrics, err := calc.DecodeMetrics(session.Metrics)
		if err != nil {
			s.log.Warn("Skipping session with undecodable metrics", "session_id", session.ID, "error", err)
			continue
		}
		scored = append(scored, scoredSession{session: session, metrics: metrics})
	}
	return scored, nil
}

func (s *rollupService) compositeHistory(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]types.RollupPoint, error) {
	sessions, err := s.sessionRepo.GetRecentByUser(ctx, tx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("load cross-game sessions: %w", err)
	}
	points := make([]types.RollupPoint, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		session := sessions[i]
		key, err := engine.ParseGameKey(session.GameKey)
		if err != nil {
			continue
		}
		calc, err := s.eng.Calculator(key)
		if err != nil {
			continue
		}
		metrics, err := calc.DecodeMetrics(session.Metrics)
		if err != nil {
			s.log.Warn("Skipping session with undecodable metrics", "session_id", session.ID, "error", err)
			continue
		}
		points = append(points, types.RollupPoint{
			At:           session.CompletedAt,
			Score:        metrics.Composite(),
			TrafficLight: string(metrics.Light()),
			GameKey:      session.GameKey,
		})
	}
	return points, nil
}

func (s *rollupService) GetRollup(ctx context.Context) (*types.UserMetricsRollup, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, rd.UserID); ok {
			return cached, nil
		}
	}

	rollup, err := s.rollupRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			// No submission has ever run for this user; materialize an empty
			// rollup so the read path always returns a consistent document.
			rollup, err = s.Recompute(ctx, nil, rd.UserID)
			if err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}
	if s.cache != nil {
		s.cache.Set(ctx, rollup)
	}
	return rollup, nil
}

func (s *rollupService) GetContextSummary(ctx context.Context) (*ContextSummary, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	cfg := s.eng.Config()
	sessions, err := s.sessionRepo.GetRecentByUser(ctx, nil, rd.UserID, cfg.CompositeHistoryLimit)
	if err != nil {
		return nil, err
	}

	summary := &ContextSummary{SessionsConsidered: len(sessions)}
	var moods, sleeps []float64
	for _, session := range sessions {
		if len(session.Context) == 0 {
			continue
		}
		var sessionCtx types.SessionContext
		if err := json.Unmarshal(session.Context, &sessionCtx); err != nil {
			s.log.Debug("Skipping session with undecodable context", "session_id", session.ID, "error", err)
			continue
		}
		summary.SessionsWithContext++
		if sessionCtx.MoodLevel != nil {
			moods = append(moods, *sessionCtx.MoodLevel)
		}
		if sessionCtx.SleepQuality != nil {
			sleeps = append(sleeps, *sessionCtx.SleepQuality)
		}
		if sessionCtx.MedicationChanged {
			summary.MedicationChangedCount++
		}
	}
	if len(moods) > 0 {
		avg := engine.Round2(engine.Average(moods))
		summary.AvgMoodLevel = &avg
	}
	if len(sleeps) > 0 {
		avg := engine.Round2(engine.Average(sleeps))
		summary.AvgSleepQuality = &avg
	}
	return summary, nil
}
