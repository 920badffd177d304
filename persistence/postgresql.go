// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/tetris/models"
)

const queryTimeout = 5 * time.Second

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构. The columns match the gorm model so both
// backends can share one database.
func initTables(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS game_records (
            id BIGSERIAL PRIMARY KEY,
            created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMPTZ,
            record_id TEXT UNIQUE NOT NULL,
            session_id TEXT NOT NULL,
            player TEXT NOT NULL,
            score BIGINT DEFAULT 0,
            locked BIGINT DEFAULT 0,
            width BIGINT NOT NULL,
            height BIGINT NOT NULL,
            seed BIGINT DEFAULT 0,
            started_at TIMESTAMPTZ NOT NULL,
            ended_at TIMESTAMPTZ NOT NULL
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_game_records_player ON game_records(player);
        CREATE INDEX IF NOT EXISTS idx_game_records_score ON game_records(score);
        CREATE INDEX IF NOT EXISTS idx_game_records_ended_at ON game_records(ended_at);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(r *models.GameRecord) error {
	if err := validateRecord(r); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	query := `
        INSERT INTO game_records
            (record_id, session_id, player, score, locked, width, height, seed, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err := p.db.ExecContext(ctx, query,
		r.ID, r.SessionID, r.Player, r.Score, r.Locked, r.Width, r.Height, r.Seed, r.StartedAt, r.EndedAt)
	return err
}

const recordColumns = `record_id, session_id, player, score, locked, width, height, seed, started_at, ended_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (models.GameRecord, error) {
	var r models.GameRecord
	err := row.Scan(&r.ID, &r.SessionID, &r.Player, &r.Score, &r.Locked,
		&r.Width, &r.Height, &r.Seed, &r.StartedAt, &r.EndedAt)
	return r, err
}

// LoadGameRecord 加载游戏记录
func (p *PostgreSQL) LoadGameRecord(id string) (*models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	row := p.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM game_records WHERE record_id = $1 AND deleted_at IS NULL`, id)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

// TopScores 排行榜
func (p *PostgreSQL) TopScores(limit int) ([]models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	rows, err := p.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM game_records
         WHERE deleted_at IS NULL
         ORDER BY score DESC, ended_at ASC
         LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.GameRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetPlayerStats 获取玩家统计
func (p *PostgreSQL) GetPlayerStats(player string) (*models.PlayerStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	stats := models.PlayerStats{Player: player}
	err := p.db.QueryRowContext(ctx, `
        SELECT
            COUNT(*),
            COALESCE(MAX(score), 0),
            COALESCE(SUM(score), 0),
            COALESCE(SUM(locked), 0),
            COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - started_at))), 0)::BIGINT
        FROM game_records
        WHERE player = $1 AND deleted_at IS NULL`, player,
	).Scan(&stats.TotalGames, &stats.BestScore, &stats.TotalLines, &stats.TotalPieces, &stats.PlayTime)
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
