// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/tetris/models"
)

// Database 数据库接口: where finished games end up.
type Database interface {
	SaveGameRecord(record *models.GameRecord) error
	LoadGameRecord(id string) (*models.GameRecord, error)
	// TopScores returns the best records, highest score first, earliest
	// finish breaking ties.
	TopScores(limit int) ([]models.GameRecord, error)
	GetPlayerStats(player string) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrInvalidRecord  = fmt.Errorf("invalid game record")
)

func validateRecord(r *models.GameRecord) error {
	if r == nil || r.ID == "" || r.Player == "" {
		return ErrInvalidRecord
	}
	return nil
}
