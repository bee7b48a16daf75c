// Package app provides the application container wiring all dependencies.
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/karkow/idea-board/pkg/util"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig is the root application configuration.
type AppConfig struct {
	File     string         `yaml:"-"` // config file path, not serialized
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	User     UserConfig     `yaml:"user"`
	Board    BoardConfig    `yaml:"board"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// RunMode is the gin run mode
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort is the HTTP listen address
	HttpPort string `yaml:"http-port" default:":9000"`
	// ReadTimeout in seconds
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout in seconds
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// DefaultContextTimeout per-request timeout in seconds
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"60"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level, see zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File path for log output, empty means stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production enables JSON output
	Production bool `yaml:"production" default:"true"`
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	// Type is "sqlite" or "mysql"
	Type string `yaml:"type" default:"sqlite"`
	// Path is the sqlite database file path
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName for mysql
	UserName string `yaml:"username"`
	// Password for mysql
	Password string `yaml:"password"`
	// Host for mysql
	Host string `yaml:"host"`
	// Name is the mysql database name
	Name string `yaml:"name"`
	// TablePrefix prepended to every table name
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate runs schema migration at startup
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset for mysql
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime for mysql
	ParseTime bool `yaml:"parse-time" default:"true"`
	// MaxIdleConns pool idle limit
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns pool open limit
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
}

// SecurityConfig holds token settings.
type SecurityConfig struct {
	// AuthTokenKey signs user JWT tokens
	AuthTokenKey string `yaml:"auth-token-key" default:"idea-board-Auth-Token"`
	// TokenExpiry supports 7d, 24h, 30m formats
	TokenExpiry string `yaml:"token-expiry" default:"30d"`
}

// UserConfig holds account settings.
type UserConfig struct {
	// RegisterIsEnable allows new account creation
	RegisterIsEnable bool `yaml:"register-is-enable" default:"true"`
}

// BoardConfig holds the realtime board settings.
type BoardConfig struct {
	// NoteLimit caps how many recent notes are loaded and kept
	NoteLimit int `yaml:"note-limit" default:"100"`
	// PresenceInterval between self re-announcements
	PresenceInterval string `yaml:"presence-interval" default:"30s"`
	// PresenceTTL after which a silent peer is swept from channel state
	PresenceTTL string `yaml:"presence-ttl" default:"90s"`
	// PresenceSweepSpec is the cron spec for the stale-presence sweep
	PresenceSweepSpec string `yaml:"presence-sweep-spec" default:"@every 1m"`
	// DragCooldown is the window after a drop during which remote
	// position patches are still ignored
	DragCooldown string `yaml:"drag-cooldown" default:"500ms"`
	// Spawn rectangle for notes created without a position
	SpawnMinX float64 `yaml:"spawn-min-x" default:"200"`
	SpawnMaxX float64 `yaml:"spawn-max-x" default:"800"`
	SpawnMinY float64 `yaml:"spawn-min-y" default:"150"`
	SpawnMaxY float64 `yaml:"spawn-max-y" default:"550"`
}

// LoadConfig loads configuration from the given file, applying struct-tag
// defaults before and after unmarshalling. Returns the config and the
// resolved absolute path.
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	if err := yaml.Unmarshal(file, c); err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// defaults.Set only fills zero values, so a second pass fills fields
	// the YAML named but left empty
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save writes the configuration back to its file.
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}
	if err := os.WriteFile(c.File, data, 0644); err != nil {
		return errors.Wrap(err, "write config file failed")
	}
	return nil
}

func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 30 * 24 * time.Hour
}

func (c *AppConfig) GetPresenceInterval() time.Duration {
	if d, err := util.ParseDuration(c.Board.PresenceInterval); err == nil {
		return d
	}
	return 30 * time.Second
}

func (c *AppConfig) GetPresenceTTL() time.Duration {
	if d, err := util.ParseDuration(c.Board.PresenceTTL); err == nil {
		return d
	}
	return 90 * time.Second
}

func (c *AppConfig) GetDragCooldown() time.Duration {
	if d, err := util.ParseDuration(c.Board.DragCooldown); err == nil {
		return d
	}
	return 500 * time.Millisecond
}
