package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalApp "github.com/karkow/idea-board/internal/app"
	"github.com/karkow/idea-board/internal/routers"

	"go.uber.org/zap"
)

// defaultSecretKeys are the shipped placeholder secrets; running with one
// of them gets a loud warning.
var defaultSecretKeys = []string{
	"idea-board-Auth-Token",
	"",
}

const shutdownTimeout = 5 * time.Second

// Server is one running instance of the service; config hot-reload tears
// it down and builds a fresh one.
type Server struct {
	logger     *zap.Logger
	config     *internalApp.AppConfig
	app        *internalApp.App
	httpServer *http.Server
}

func NewServer(runEnv *runFlags) (*Server, error) {
	cfg, configRealpath, err := internalApp.LoadConfig(runEnv.config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if runEnv.port != "" {
		cfg.Server.HttpPort = runEnv.port
	}
	if runEnv.runMode != "" {
		cfg.Server.RunMode = runEnv.runMode
	}

	a, err := internalApp.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("build app container: %w", err)
	}

	s := &Server{
		logger: a.Logger(),
		config: cfg,
		app:    a,
	}
	checkSecurityConfig(cfg, s.logger)

	if err := a.StartCron(); err != nil {
		a.Close()
		return nil, fmt.Errorf("start scheduler: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:           cfg.Server.HttpPort,
		Handler:        routers.NewRouter(a),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	s.logger.Info("config loaded", zap.String("path", configRealpath))
	s.logger.Info("server starting",
		zap.String("addr", cfg.Server.HttpPort),
		zap.String("version", internalApp.Version))

	return s, nil
}

// Start begins serving; the returned channel carries the terminal listen
// error.
func (s *Server) Start() <-chan error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.ListenAndServe()
	}()
	return errChan
}

// Shutdown drains in-flight requests then releases the container.
func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown error", zap.Error(err))
	}
	s.app.Close()
}

func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	for _, key := range defaultSecretKeys {
		if cfg.Security.AuthTokenKey != key {
			continue
		}
		fmt.Println()
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println("SECURITY WARNING: using a default secret key!")
		fmt.Println()
		fmt.Println("Please modify 'security.auth-token-key' in config.yaml")
		fmt.Println("Generate a secure key with:")
		fmt.Println("  openssl rand -base64 32")
		fmt.Println(strings.Repeat("=", 60))
		fmt.Println()
		lg.Warn("using default secret key, change security.auth-token-key in config.yaml")
		return
	}
}
