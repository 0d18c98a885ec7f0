package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameSession is one completed play-through of one cognitive game by one
// user. SessionNumber strictly increases per (user, game) and is guarded by
// the composite unique index, so a racing duplicate submit fails the insert
// instead of reusing a number. BaselineSnapshot holds the baseline that was
// active when the session was scored and is never recomputed afterwards.
type GameSession struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_game_session,unique;index:idx_session_user" json:"user_id"`
	User             *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	GameKey          string         `gorm:"not null;index:idx_user_game_session,unique" json:"game_key"`
	SessionNumber    int            `gorm:"not null;index:idx_user_game_session,unique" json:"session_number"`
	Phase            string         `gorm:"not null;column:phase" json:"phase"`
	Context          datatypes.JSON `gorm:"type:jsonb;column:context" json:"context"`
	StartedAt        time.Time      `gorm:"not null;column:started_at" json:"started_at"`
	CompletedAt      time.Time      `gorm:"not null;column:completed_at;index" json:"completed_at"`
	Metrics          datatypes.JSON `gorm:"type:jsonb;not null;column:metrics" json:"metrics"`
	BaselineSnapshot datatypes.JSON `gorm:"type:jsonb;column:baseline_snapshot" json:"baseline_snapshot"`
	Payload          datatypes.JSON `gorm:"type:jsonb;not null;column:payload" json:"payload"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GameSession) TableName() string { return "game_session" }

// SessionContext is the optional subjective daily state attached to a
// submission. A session without context stores a null column, not zeros:
// null means "no signal" for downstream averaging.
type SessionContext struct {
	MoodLevel         *float64 `json:"mood_level"`
	SleepQuality      *float64 `json:"sleep_quality"`
	MedicationChanged bool     `json:"medication_changed"`
	Note              string   `json:"note"`
}
