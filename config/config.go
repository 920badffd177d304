package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Game     GameConfig     `mapstructure:"game"`
	Player   PlayerConfig   `mapstructure:"player"`
	Log      LogConfig      `mapstructure:"log"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Database DatabaseConfig `mapstructure:"database"`
}

type GameConfig struct {
	Width           int           `mapstructure:"width"`
	Height          int           `mapstructure:"height"`
	QueueSize       int           `mapstructure:"queue_size"`
	GravityInterval time.Duration `mapstructure:"gravity_interval"`
	// Seed 0 means seed from the clock.
	Seed int64 `mapstructure:"seed"`
}

type PlayerConfig struct {
	Name string `mapstructure:"name"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type MonitorConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Namespace string `mapstructure:"namespace"`
}

// DatabaseConfig selects where finished game records go: "memory", "gorm"
// or "sql".
type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.width", 10)
	v.SetDefault("game.height", 20)
	v.SetDefault("game.queue_size", 3)
	v.SetDefault("game.gravity_interval", 500*time.Millisecond)
	v.SetDefault("game.seed", 0)
	v.SetDefault("player.name", "player")
	v.SetDefault("log.level", "info")
	v.SetDefault("monitor.enabled", true)
	v.SetDefault("monitor.address", ":9100")
	v.SetDefault("monitor.namespace", "tetris")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.dbname", "tetris")
}

// LoadConfig reads config.yaml from path. A missing file is fine: defaults
// and TETRIS_* environment variables still apply.
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("tetris")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return config, config.Validate()
}

// Validate rejects settings the game cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Game.Width < 4:
		return errors.New("game.width must be at least 4")
	case c.Game.Height < 4:
		return errors.New("game.height must be at least 4")
	case c.Game.QueueSize < 1:
		return errors.New("game.queue_size must be positive")
	case c.Game.GravityInterval <= 0:
		return errors.New("game.gravity_interval must be positive")
	}
	switch c.Database.Driver {
	case "memory", "gorm", "sql":
	default:
		return errors.New("database.driver must be memory, gorm or sql")
	}
	return nil
}
