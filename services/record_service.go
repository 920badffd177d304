// services/record_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wfunc/tetris/logger"
	"github.com/wfunc/tetris/models"
	"github.com/wfunc/tetris/persistence"
)

// DefaultLeaderboardSize is used when a caller asks for a non-positive limit.
const DefaultLeaderboardSize = 10

type RecordService struct {
	db persistence.Database
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// Record 保存一局结束的游戏. A missing ID is filled in.
func (s *RecordService) Record(record *models.GameRecord) error {
	if record == nil {
		return persistence.ErrInvalidRecord
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := s.db.SaveGameRecord(record); err != nil {
		return fmt.Errorf("save record %s: %w", record.ID, err)
	}
	logger.Log.Infow("game recorded",
		"record", record.ID,
		"player", record.Player,
		"score", record.Score,
		"duration", record.Duration())
	return nil
}

// Leaderboard 排行榜
func (s *RecordService) Leaderboard(limit int) ([]models.GameRecord, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}
	return s.db.TopScores(limit)
}

// PlayerStats 玩家统计; a player with no finished games gets zero stats.
func (s *RecordService) PlayerStats(player string) (*models.PlayerStats, error) {
	stats, err := s.db.GetPlayerStats(player)
	if err == persistence.ErrRecordNotFound {
		return &models.PlayerStats{Player: player}, nil
	}
	return stats, err
}
