// persistence/gorm_postgresql.go
package persistence

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/wfunc/tetris/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	return NewGormDatabase(postgres.Open(dsn))
}

// NewGormDatabase opens any gorm dialector and migrates the schema.
func NewGormDatabase(dialector gorm.Dialector) (*GormPostgreSQL, error) {
	// 配置GORM日志
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,   // 慢SQL阈值
			LogLevel:      logger.Silent, // 日志级别
			Colorful:      false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormGameRecord{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveGameRecord 保存游戏记录
func (p *GormPostgreSQL) SaveGameRecord(record *models.GameRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	return p.db.Create(models.NewGormGameRecord(record)).Error
}

// LoadGameRecord 加载游戏记录
func (p *GormPostgreSQL) LoadGameRecord(id string) (*models.GameRecord, error) {
	var row models.GormGameRecord
	if err := p.db.Where("record_id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	record := row.Record()
	return &record, nil
}

// TopScores 排行榜
func (p *GormPostgreSQL) TopScores(limit int) ([]models.GameRecord, error) {
	var rows []models.GormGameRecord
	err := p.db.Order("score DESC").Order("ended_at ASC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	records := make([]models.GameRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].Record())
	}
	return records, nil
}

// GetPlayerStats 使用原生SQL聚合玩家数据
func (p *GormPostgreSQL) GetPlayerStats(player string) (*models.PlayerStats, error) {
	stats := models.PlayerStats{Player: player}
	err := p.db.Raw(
		`
        SELECT
            COUNT(*) AS total_games,
            COALESCE(MAX(score), 0) AS best_score,
            COALESCE(SUM(score), 0) AS total_lines,
            COALESCE(SUM(locked), 0) AS total_pieces,
            COALESCE(SUM(EXTRACT(EPOCH FROM (ended_at - started_at))), 0)::BIGINT AS play_time
        FROM game_records
        WHERE player = ? AND deleted_at IS NULL`,
		player,
	).Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	stats.Player = player
	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
