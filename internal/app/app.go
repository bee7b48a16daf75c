package app

import (
	"context"
	"time"

	"github.com/karkow/idea-board/global"
	"github.com/karkow/idea-board/internal/dao"
	"github.com/karkow/idea-board/internal/realtime"
	"github.com/karkow/idea-board/internal/service"
	pkgapp "github.com/karkow/idea-board/pkg/app"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App wires the configuration, logger, record store, realtime broker and
// services into one container the routers run against.
type App struct {
	config *AppConfig
	logger *zap.Logger

	db  *gorm.DB
	dao *dao.Dao

	tokens pkgapp.TokenManager
	broker *realtime.Broker

	noteStore   *service.NoteStore
	userService *service.UserService
	noteService *service.NoteService

	cron *cron.Cron
}

// New builds the application container from a loaded configuration.
func New(cfg *AppConfig) (*App, error) {
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(err, "init logger")
	}
	global.Logger = logger

	db, err := dao.NewDBEngine(dao.DatabaseConfig{
		Type:         cfg.Database.Type,
		Path:         cfg.Database.Path,
		UserName:     cfg.Database.UserName,
		Password:     cfg.Database.Password,
		Host:         cfg.Database.Host,
		Name:         cfg.Database.Name,
		TablePrefix:  cfg.Database.TablePrefix,
		AutoMigrate:  cfg.Database.AutoMigrate,
		Charset:      cfg.Database.Charset,
		ParseTime:    cfg.Database.ParseTime,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		RunMode:      cfg.Server.RunMode,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	d := dao.New(db, context.Background(), logger)
	if cfg.Database.AutoMigrate {
		if err := d.AutoMigrate(); err != nil {
			return nil, errors.Wrap(err, "auto migrate")
		}
	}

	tokens := pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})

	noteStore := service.NewNoteStore(d)

	a := &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		dao:         d,
		tokens:      tokens,
		broker:      realtime.NewBroker(logger),
		noteStore:   noteStore,
		userService: service.NewUserService(d, tokens, logger, cfg.User.RegisterIsEnable),
		noteService: service.NewNoteService(noteStore, cfg.Board.NoteLimit),
		cron:        cron.New(),
	}
	return a, nil
}

func (a *App) Config() *AppConfig                { return a.config }
func (a *App) Logger() *zap.Logger               { return a.logger }
func (a *App) Dao() *dao.Dao                     { return a.dao }
func (a *App) TokenManager() pkgapp.TokenManager { return a.tokens }
func (a *App) Broker() *realtime.Broker          { return a.broker }
func (a *App) NoteStore() *service.NoteStore     { return a.noteStore }
func (a *App) UserService() *service.UserService { return a.userService }
func (a *App) NoteService() *service.NoteService { return a.noteService }
func (a *App) Cron() *cron.Cron                  { return a.cron }

// StartCron registers the scheduled jobs and starts the scheduler.
func (a *App) StartCron() error {
	ttl := a.config.GetPresenceTTL()
	_, err := a.cron.AddFunc(a.config.Board.PresenceSweepSpec, func() {
		a.broker.SweepStalePresence(time.Now().Add(-ttl).UnixMilli())
	})
	if err != nil {
		return errors.Wrap(err, "schedule presence sweep")
	}
	a.cron.Start()
	return nil
}

// Close releases background resources. The database handle is left to
// process exit, matching gorm's pooling model.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
	}
	a.broker.Close()
	_ = a.logger.Sync()
}
