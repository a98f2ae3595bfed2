package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/haveachin/gatekeeper/internal/app/gatekeeper"
	"github.com/haveachin/gatekeeper/internal/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultConfigFile = "configs/config.yml"

var (
	files   embed.FS
	version string

	configPath  = "config.yml"
	workingDir  = "."
	environment = "prod"
	logEncoder  = "console"
	watchConfig = true

	rootCmd = &cobra.Command{
		Use:          "gatekeeper",
		Short:        "Starts the gatekeeper login gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(environment)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := os.Chdir(workingDir); err != nil {
				return err
			}

			if _, err := os.Stat(configPath); err != nil && errors.Is(err, os.ErrNotExist) {
				if err := safeWriteFromEmbeddedFS(defaultConfigFile, configPath); err != nil {
					return err
				}
				logger.Info("wrote default config", zap.String("config", configPath))
			}

			defaults, err := files.ReadFile(defaultConfigFile)
			if err != nil {
				return err
			}

			logger.Info("loading gateway from config", zap.String("config", configPath))
			return run(cmd.Context(), config.NewFile(configPath, defaults, logger), logger)
		},
	}
)

func run(ctx context.Context, f *config.File, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := readConfig(f)
	if err != nil {
		return err
	}

	var gk *gatekeeper.Gatekeeper
	reload := func() error {
		cfg, err := readConfig(f)
		if err != nil {
			return err
		}
		return gk.Reload(cfg)
	}

	gk, err = gatekeeper.New(cfg, logger, gatekeeper.WithReloadFunc(reload))
	if err != nil {
		return err
	}
	defer gk.Close()

	if watchConfig {
		go func() {
			err := f.Watch(ctx, func(data config.Data) {
				cfg, err := gatekeeper.NewConfig(data)
				if err != nil {
					logger.Error("failed to decode config", zap.Error(err))
					return
				}

				if err := gk.Reload(cfg); err != nil {
					logger.Error("failed to reload gateway", zap.Error(err))
				}
			})
			if err != nil {
				logger.Error("failed to watch config", zap.Error(err))
			}
		}()
	}

	return gk.Run(ctx)
}

func readConfig(f *config.File) (gatekeeper.Config, error) {
	data, err := f.Read()
	if err != nil {
		return gatekeeper.Config{}, err
	}
	return gatekeeper.NewConfig(data)
}

func envString(name string, defVal string) string {
	envString := os.Getenv(name)
	if envString == "" {
		return defVal
	}

	return envString
}

func envBool(name string, defVal bool) bool {
	switch os.Getenv(name) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return defVal
	}
}

func init() {
	envVarPrefix := "GATEKEEPER_"
	workingDir = envString(envVarPrefix+"WORKING_DIR", workingDir)
	rootCmd.PersistentFlags().StringVarP(&workingDir, "working-dir", "w", workingDir, "set the working directory")
	environment = envString(envVarPrefix+"ENVIRONMENT", environment)
	rootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", environment, "set the deployment environment")
	logEncoder = envString(envVarPrefix+"LOG_ENCODER", logEncoder)
	rootCmd.PersistentFlags().StringVarP(&logEncoder, "log-encoder", "l", logEncoder, "set the log encoder")
	configPath = envString(envVarPrefix+"CONFIG", configPath)
	rootCmd.Flags().StringVarP(&configPath, "config", "c", configPath, "path of the config file")
	watchConfig = envBool(envVarPrefix+"WATCH_CONFIG", watchConfig)
	rootCmd.Flags().BoolVar(&watchConfig, "watch", watchConfig, "reload the status response when the config file changes")

	rootCmd.AddCommand(versionCmd)
}

func newLogger(env string) (*zap.Logger, error) {
	switch env {
	case "nop":
		return zap.NewNop(), nil
	case "dev":
		return zap.NewDevelopment()
	case "prod":
		cfg := zap.NewProductionConfig()
		cfg.Encoding = logEncoder
		if logEncoder == "console" {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		return cfg.Build()
	default:
		return nil, fmt.Errorf("unsupported environment %q", env)
	}
}

// Execute executes the root command.
func Execute(fs embed.FS, v string) error {
	files = fs
	version = v
	return rootCmd.Execute()
}

// safeWriteFromEmbeddedFS copies an embedded file to sysPath unless
// something already exists there.
func safeWriteFromEmbeddedFS(embedPath, sysPath string) error {
	if _, err := os.Stat(sysPath); err == nil || !os.IsNotExist(err) {
		return nil
	}

	bb, err := files.ReadFile(embedPath)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(sysPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(sysPath, bb, 0o644)
}
