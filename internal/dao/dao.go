// Package dao implements the record store boundary on gorm.
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/karkow/idea-board/internal/model"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig mirrors the database section of the app configuration so
// this package does not depend on the container.
type DatabaseConfig struct {
	Type         string
	Path         string
	UserName     string
	Password     string
	Host         string
	Name         string
	TablePrefix  string
	AutoMigrate  bool
	Charset      string
	ParseTime    bool
	MaxIdleConns int
	MaxOpenConns int
	RunMode      string
}

type Dao struct {
	db     *gorm.DB
	ctx    context.Context
	logger *zap.Logger
}

func New(db *gorm.DB, ctx context.Context, l *zap.Logger) *Dao {
	if ctx == nil {
		ctx = context.Background()
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Dao{db: db, ctx: ctx, logger: l}
}

func (d *Dao) DB() *gorm.DB {
	return d.db
}

// WithContext returns a Dao bound to ctx for the duration of one operation.
func (d *Dao) WithContext(ctx context.Context) *Dao {
	return &Dao{db: d.db, ctx: ctx, logger: d.logger}
}

func (d *Dao) AutoMigrate() error {
	return model.AutoMigrate(d.db, "")
}

// NewDBEngine opens the configured database and applies pool settings.
func NewDBEngine(c DatabaseConfig) (*gorm.DB, error) {
	dialector := dialectorFor(c)
	if dialector == nil {
		return nil, fmt.Errorf("unsupported database type %q", c.Type)
	}

	logMode := logger.Silent
	if c.RunMode == "debug" {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Minute * 10)

	return db, nil
}

func dialectorFor(c DatabaseConfig) gorm.Dialector {
	switch c.Type {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=%t&loc=Local",
			c.UserName,
			c.Password,
			c.Host,
			c.Name,
			c.Charset,
			c.ParseTime,
		))
	case "sqlite":
		if dir := filepath.Dir(c.Path); dir != "." {
			_ = os.MkdirAll(dir, os.ModePerm)
		}
		return sqlite.Open(c.Path)
	}
	return nil
}
