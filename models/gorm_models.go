// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录表
type GormGameRecord struct {
	gorm.Model
	RecordID  string    `gorm:"uniqueIndex;not null"`
	SessionID string    `gorm:"index;not null"`
	Player    string    `gorm:"index;not null"`
	Score     int       `gorm:"index;default:0"`
	Locked    int       `gorm:"default:0"`
	Width     int       `gorm:"not null"`
	Height    int       `gorm:"not null"`
	Seed      int64     `gorm:"default:0"`
	StartedAt time.Time `gorm:"not null"`
	EndedAt   time.Time `gorm:"index;not null"`
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

// NewGormGameRecord converts a record into its table row.
func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RecordID:  r.ID,
		SessionID: r.SessionID,
		Player:    r.Player,
		Score:     r.Score,
		Locked:    r.Locked,
		Width:     r.Width,
		Height:    r.Height,
		Seed:      r.Seed,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
}

// Record converts the row back.
func (g *GormGameRecord) Record() GameRecord {
	return GameRecord{
		ID:        g.RecordID,
		SessionID: g.SessionID,
		Player:    g.Player,
		Score:     g.Score,
		Locked:    g.Locked,
		Width:     g.Width,
		Height:    g.Height,
		Seed:      g.Seed,
		StartedAt: g.StartedAt,
		EndedAt:   g.EndedAt,
	}
}
