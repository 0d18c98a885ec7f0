package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserMetricsRollup is the single aggregate view per user. It is fully
// replaced (upsert) on every session submission rather than patched, so the
// stored document is always internally consistent.
type UserMetricsRollup struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User             *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	CompositeIndex   *float64       `gorm:"column:composite_index" json:"composite_index"`
	PerGame          datatypes.JSON `gorm:"type:jsonb;not null;column:per_game" json:"per_game"`
	CompositeHistory datatypes.JSON `gorm:"type:jsonb;not null;column:composite_history" json:"composite_history"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserMetricsRollup) TableName() string { return "user_metrics_rollup" }

// GameRollup is the per-game slice of the rollup document, stored inside the
// per_game JSON map keyed by game key.
type GameRollup struct {
	LatestScore   float64       `json:"latest_score"`
	TrafficLight  string        `json:"traffic_light"`
	Trend         string        `json:"trend"`
	MovingAverage float64       `json:"moving_average"`
	GreenStreak   int           `json:"green_streak"`
	History       []RollupPoint `json:"history"`
}

// RollupPoint is one display point of a score history, oldest-first.
// GameKey is only set inside the cross-game composite history.
type RollupPoint struct {
	At           time.Time `json:"at"`
	Score        float64   `json:"score"`
	TrafficLight string    `json:"traffic_light"`
	GameKey      string    `json:"game_key,omitempty"`
}
