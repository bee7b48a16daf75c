package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/karkow/idea-board/pkg/util"

	"github.com/radovskyb/watcher"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runFlags struct {
	dir     string // working directory
	port    string // listen address override
	runMode string // gin run mode override
	config  string // config file path
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func init() {
	runEnv := new(runFlags)

	var runCommand = &cobra.Command{
		Use:   "run [-c config_file] [-d working_dir] [-p port]",
		Short: "Run service",
		Run: func(cmd *cobra.Command, args []string) {
			if len(runEnv.dir) > 0 {
				if err := os.Chdir(runEnv.dir); err != nil {
					bootstrapLogger.Error("failed to change the working directory", zap.Error(err))
				}
				bootstrapLogger.Info("working directory changed", zap.String("dir", runEnv.dir))
			}

			if len(runEnv.config) <= 0 {
				switch {
				case fileExists("config/config-dev.yaml"):
					runEnv.config = "config/config-dev.yaml"
				case fileExists("config.yaml"):
					runEnv.config = "config.yaml"
				case fileExists("config/config.yaml"):
					runEnv.config = "config/config.yaml"
				default:
					bootstrapLogger.Warn("config file not found, creating default config")
					runEnv.config = "config/config.yaml"
					if err := writeDefaultConfig(runEnv.config); err != nil {
						bootstrapLogger.Error("config file auto create error", zap.Error(err))
						return
					}
					bootstrapLogger.Info("config file auto created", zap.String("path", runEnv.config))
				}
			}

			s, err := NewServer(runEnv)
			if err != nil {
				bootstrapLogger.Error("service start err", zap.Error(err))
				return
			}
			errChan := s.Start()

			// The watcher restarts the server whenever the config file is
			// written, picking up the new settings without a redeploy.
			w := watcher.New()
			w.SetMaxEvents(1)
			w.FilterOps(watcher.Write)
			go func() {
				for {
					select {
					case event := <-w.Event:
						s.logger.Info("config change detected",
							zap.String("event", event.Op.String()),
							zap.String("file", event.Path))
						s.Shutdown()
						s, err = NewServer(runEnv)
						if err != nil {
							bootstrapLogger.Error("service restart err", zap.Error(err))
							continue
						}
						errChan = s.Start()
					case err := <-w.Error:
						s.logger.Error("config watcher error", zap.Error(err))
					case <-w.Closed:
						bootstrapLogger.Info("config watcher closed")
						return
					}
				}
			}()
			go func() {
				if err := w.Add(runEnv.config); err != nil {
					s.logger.Error("config watcher file error", zap.Error(err))
					return
				}
				if err := w.Start(time.Second * 5); err != nil {
					s.logger.Error("config watcher start error", zap.Error(err))
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
				s.logger.Info("received shutdown signal, shutting down")
			case err := <-errChan:
				s.logger.Error("http server stopped", zap.Error(err))
			}
			w.Close()
			s.Shutdown()
		},
	}

	runCommand.Flags().StringVarP(&runEnv.dir, "dir", "d", "", "working directory")
	runCommand.Flags().StringVarP(&runEnv.port, "port", "p", "", "listen address, e.g. :9000")
	runCommand.Flags().StringVarP(&runEnv.runMode, "mode", "m", "", "run mode: debug or release")
	runCommand.Flags().StringVarP(&runEnv.config, "config", "c", "", "config file path")

	rootCmd.AddCommand(runCommand)
}

// writeDefaultConfig materializes the embedded default config, swapping
// the placeholder token secret for a random one.
func writeDefaultConfig(path string) error {
	content := strings.Replace(configDefault, "idea-board-Auth-Token", util.GetRandomString(32), 1)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(content), 0666)
}
