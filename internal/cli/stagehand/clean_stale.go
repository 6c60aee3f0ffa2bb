package stagehand

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"gitlab.com/stagehand/stagehand/internal/config"
	"gitlab.com/stagehand/stagehand/internal/log"
	"gitlab.com/stagehand/stagehand/internal/tempdir"
)

func newCleanStaleCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean-stale",
		Usage: "remove orphaned staging directories",
		UsageText: `stagehand clean-stale [command options]

Example: stagehand clean-stale --age 24h`,
		Description: "Remove staging directories left behind by interrupted deployments. " +
			"Only directories under the configured staging root older than the given age are removed.",
		Action: cleanStaleAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the stagehand configuration file",
			},
			&cli.DurationFlag{
				Name:  "age",
				Usage: "minimum age of staging directories to remove",
				Value: tempdir.StaleAge,
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "keep running and clean periodically until interrupted",
			},
		},
	}
}

func cleanStaleAction(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cli.Exit(err, 2)
	}
	if cfg.StagingDir == "" {
		return cli.Exit("no staging directory configured", 2)
	}

	logger, err := log.Configure(os.Stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return cli.Exit(err, 2)
	}

	if ctx.Bool("watch") {
		walker := tempdir.StartCleanWalker(cfg.StagingDir, ctx.Duration("age"), logger)
		defer walker.Cancel()

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
		sig := <-signals
		logger.WithField("signal", sig.String()).Info("stopping stale staging directory walker")

		return nil
	}

	if err := tempdir.CleanStale(cfg.StagingDir, ctx.Duration("age"), logger); err != nil {
		return cli.Exit(err, 1)
	}

	return nil
}
