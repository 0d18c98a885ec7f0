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

// SubmitSessionInput is the raw session submission. Timestamps are any
// because clients send RFC3339 strings, epoch millis, or nothing; they are
// defensively parsed and fall back to now.
type SubmitSessionInput struct {
	GameKey     string                `json:"game_key"`
	Context     *types.SessionContext `json:"context"`
	StartedAt   any                   `json:"started_at"`
	CompletedAt any                   `json:"completed_at"`
	Trials      []map[string]any      `json:"trials"`
	Attempts    []map[string]any      `json:"attempts"`
	List        []any                 `json:"list"`
	Settings    map[string]any        `json:"settings"`
}

type SubmitSessionResult struct {
	SessionID        uuid.UUID                `json:"session_id"`
	GameKey          string                   `json:"game_key"`
	SessionNumber    int                      `json:"session_number"`
	Phase            string                   `json:"phase"`
	StartedAt        time.Time                `json:"started_at"`
	CompletedAt      time.Time                `json:"completed_at"`
	Context          *types.SessionContext    `json:"context"`
	Payload          engine.Payload           `json:"payload"`
	Metrics          engine.GameMetrics       `json:"metrics"`
	BaselineSnapshot engine.Baseline          `json:"baseline_snapshot"`
	Rollup           *types.UserMetricsRollup `json:"rollup"`
}

type SessionService interface {
	Submit(ctx context.Context, input SubmitSessionInput) (*SubmitSessionResult, error)
	ListRecent(ctx context.Context, gameKey string) ([]*types.GameSession, error)
	LatestSession(ctx context.Context, gameKey string) (*types.GameSession, error)
}

type sessionService struct {
	db            *gorm.DB
	log           *logger.Logger
	eng           *engine.Engine
	sessionRepo   repos.GameSessionRepo
	rollupService RollupService
	cache         redis.RollupCache
}

func NewSessionService(db *gorm.DB, log *logger.Logger, eng *engine.Engine, sessionRepo repos.GameSessionRepo, rollupService RollupService, cache redis.RollupCache) SessionService {
	serviceLog := log.With("service", "SessionService")
	return &sessionService{
		db:            db,
		log:           serviceLog,
		eng:           eng,
		sessionRepo:   sessionRepo,
		rollupService: rollupService,
		cache:         cache,
	}
}

func (s *sessionService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// Submit runs the whole ingestion pipeline for one session: validate,
// normalize, derive the baseline from already-committed prior sessions,
// score, classify the trend, persist, then rebuild the rollup. Session
// write and rollup replace share the transaction so they fail as a unit.
//
// Two concurrent submits for the same user and game race on the session
// count; the composite unique index on (user_id, game_key, session_number)
// turns the loser into an insert error, and the rollup is last-writer-wins.
// Acceptable for a single-user daily workload.
func (s *sessionService) Submit(ctx context.Context, input SubmitSessionInput) (*SubmitSessionResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}

	key, err := engine.ParseGameKey(input.GameKey)
	if err != nil {
		return nil, err
	}
	calc, err := s.eng.Calculator(key)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	payload, err := calc.Normalize(engine.Submission{
		Trials:   input.Trials,
		Attempts: input.Attempts,
		List:     input.List,
		Settings: input.Settings,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}

	startedAt := engine.ParseTime(input.StartedAt, now)
	completedAt := engine.ParseTime(input.CompletedAt, now)

	var result *SubmitSessionResult
	err = s.withTx(ctx, func(tx *gorm.DB) error {
		cfg := s.eng.Config()
		prior, err := s.sessionRepo.GetRecentByUserAndGame(ctx, tx, rd.UserID, string(key), cfg.RecentSessionLimit)
		if err != nil {
			return fmt.Errorf("load prior sessions: %w", err)
		}
		count, err := s.sessionRepo.CountByUserAndGame(ctx, tx, rd.UserID, string(key))
		if err != nil {
			return fmt.Errorf("count prior sessions: %w", err)
		}
		sessionNumber := int(count) + 1

		// prior is newest-first; the baseline and trend want chronological.
		history := make([]engine.GameMetrics, 0, len(prior))
		for i := len(prior) - 1; i >= 0; i-- {
			m, err := calc.DecodeMetrics(prior[i].Metrics)
			if err != nil {
				s.log.Warn("Skipping prior session with undecodable metrics", "session_id", prior[i].ID, "error", err)
				continue
			}
			history = append(history, m)
		}

		baseline := calc.DeriveBaseline(history)
		metrics, err := calc.Compute(payload, baseline)
		if err != nil {
			return fmt.Errorf("compute metrics: %w", err)
		}

		series := make([]float64, 0, len(history)+1)
		for _, m := range history {
			series = append(series, m.Composite())
		}
		series = append(series, metrics.Composite())
		metrics.ApplyTrend(s.eng.ClassifyTrend(series))

		metricsJSON, err := json.Marshal(metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		row := &types.GameSession{
			ID:            uuid.New(),
			UserID:        rd.UserID,
			GameKey:       string(key),
			SessionNumber: sessionNumber,
			Phase:         string(engine.PhaseForSession(sessionNumber)),
			StartedAt:     startedAt,
			CompletedAt:   completedAt,
			Metrics:       datatypes.JSON(metricsJSON),
			Payload:       datatypes.JSON(payloadJSON),
		}
		if baseline != nil {
			baselineJSON, err := json.Marshal(baseline)
			if err != nil {
				return fmt.Errorf("marshal baseline snapshot: %w", err)
			}
			row.BaselineSnapshot = datatypes.JSON(baselineJSON)
		}
		if input.Context != nil {
			contextJSON, err := json.Marshal(input.Context)
			if err != nil {
				return fmt.Errorf("marshal context: %w", err)
			}
			row.Context = datatypes.JSON(contextJSON)
		}

		if _, err := s.sessionRepo.Create(ctx, tx, row); err != nil {
			return fmt.Errorf("persist session: %w", err)
		}

		rollup, err := s.rollupService.Recompute(ctx, tx, rd.UserID)
		if err != nil {
			return err
		}

		result = &SubmitSessionResult{
			SessionID:        row.ID,
			GameKey:          row.GameKey,
			SessionNumber:    sessionNumber,
			Phase:            row.Phase,
			StartedAt:        startedAt,
			CompletedAt:      completedAt,
			Context:          input.Context,
			Payload:          payload,
			Metrics:          metrics,
			BaselineSnapshot: baseline,
			Rollup:           rollup,
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Session submission failed", "game_key", input.GameKey, "error", err)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, result.Rollup)
	}
	s.log.Info("Session scored",
		"game_key", result.GameKey,
		"session_number", result.SessionNumber,
		"composite", result.Metrics.Composite(),
		"traffic_light", result.Metrics.Light(),
	)
	return result, nil
}

func (s *sessionService) ListRecent(ctx context.Context, gameKey string) ([]*types.GameSession, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	key, err := engine.ParseGameKey(gameKey)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.GetRecentByUserAndGame(ctx, nil, rd.UserID, string(key), s.eng.Config().RecentSessionLimit)
}

func (s *sessionService) LatestSession(ctx context.Context, gameKey string) (*types.GameSession, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	key, err := engine.ParseGameKey(gameKey)
	if err != nil {
		return nil, err
	}
	return s.sessionRepo.GetLatestByUserAndGame(ctx, nil, rd.UserID, string(key))
}
