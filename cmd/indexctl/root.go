package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lumen-agency/site-core/internal/app"
	"github.com/lumen-agency/site-core/internal/config"
	"github.com/lumen-agency/site-core/internal/database"
	"github.com/lumen-agency/site-core/internal/modules/indexing"
	jwtpkg "github.com/lumen-agency/site-core/internal/pkg/jwt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

// cli is built lazily so that --help works without a config file.
type cli struct {
	cfgFile string
	debug   bool
	output  string

	cfg    *config.AppConfig
	logger *zap.Logger
	db     *gorm.DB
	svc    *indexing.Service
}

func newRootCommand() *cobra.Command {
	rt := &cli{}
	root := &cobra.Command{
		Use:           "indexctl",
		Short:         "Inspect and submit site URLs to the search console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rt.output != outputJSON && rt.output != outputTable {
				return fmt.Errorf("unknown output %q (want %s or %s)", rt.output, outputJSON, outputTable)
			}
			return rt.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rt.close()
		},
	}
	root.PersistentFlags().StringVar(&rt.cfgFile, "config", config.DefaultConfigPath, "path to YAML config file")
	root.PersistentFlags().BoolVar(&rt.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&rt.output, "output", "o", outputJSON, "output format: json or table")

	root.AddCommand(
		newRefreshTokenCommand(rt),
		newInspectCommand(rt),
		newSubmitCommand(rt),
		newHealthCommand(rt),
		newURLsCommand(rt),
		newStatusCommand(rt),
		newAdminTokenCommand(rt),
		newResealCommand(rt),
	)
	return root
}

func (rt *cli) init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	cfg, err := config.Load(rt.cfgFile)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	}

	logger, err := newCLILogger(rt.debug)
	if err != nil {
		return err
	}
	rt.logger = logger

	db, err := database.Connect(cfg, true)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	// SQL tracing goes to stdout, which belongs to command output.
	rt.db = db.Session(&gorm.Session{Logger: gormlogger.Discard})
	rt.svc, err = app.NewIndexingService(rt.db, cfg, logger, nil)
	return err
}

func (rt *cli) close() {
	if rt.db != nil {
		if sqlDB, err := rt.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}

// newCLILogger logs to stderr so stdout stays machine readable.
func newCLILogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	if debug {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}
