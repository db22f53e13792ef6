package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	infraconfig "github.com/huzhengnan/website-monitor-sub000/infrastructure/config"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
	"github.com/huzhengnan/website-monitor-sub000/internal/bootstrap"
	"github.com/huzhengnan/website-monitor-sub000/internal/config"
	"github.com/huzhengnan/website-monitor-sub000/internal/database"
)

const version = "dev"

// options are the flags shared by every subcommand.
type options struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "admin",
		Short:         "Siteboard maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", infraconfig.GetConfigPath("config.yml"),
		"path to configuration file")

	root.AddCommand(
		newRecomputeCommand(opts),
		newSyncCommand(opts),
		newLeaderboardCommand(opts),
		newTokenCommand(opts),
	)
	return root
}

// env is an opened database with wired components. close releases it.
type env struct {
	cfg        *config.Config
	log        infralogger.Logger
	db         *sqlx.DB
	components *bootstrap.Components
}

func (o *options) open(ctx context.Context) (*env, error) {
	cfg, err := bootstrap.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	log, err := bootstrap.CreateLogger(cfg, version)
	if err != nil {
		return nil, err
	}

	db, err := bootstrap.SetupDatabase(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &env{
		cfg:        cfg,
		log:        log,
		db:         db,
		components: bootstrap.SetupComponents(cfg, db, bootstrap.SetupRedis(ctx, cfg, log), log),
	}, nil
}

func (e *env) close() {
	e.components.Services.Recomputer.Close()
	if err := database.Close(e.db); err != nil {
		e.log.Error("Failed to close database", infralogger.Error(err))
	}
	_ = e.log.Sync()
}
