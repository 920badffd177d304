// models/models.go
package models

import (
	"time"
)

// GameRecord 游戏记录模型: the result of one finished game.
type GameRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Player    string    `json:"player"`
	Score     int       `json:"score"`
	Locked    int       `json:"locked"` // pieces frozen into the board
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Duration is how long the game ran.
func (r GameRecord) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// PlayerStats 玩家统计信息
type PlayerStats struct {
	Player      string `json:"player"`
	TotalGames  int    `json:"total_games"`
	BestScore   int    `json:"best_score"`
	TotalLines  int    `json:"total_lines"`
	TotalPieces int    `json:"total_pieces"`
	PlayTime    int    `json:"play_time"` // 总游戏时长(秒)
}
