package stagehand

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"gitlab.com/stagehand/stagehand/internal/bundle"
	"gitlab.com/stagehand/stagehand/internal/config"
	"gitlab.com/stagehand/stagehand/internal/log"
	"gitlab.com/stagehand/stagehand/internal/rotator"
)

func newDeployCommand() *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "deploy plugin bundles",
		UsageText: `stagehand deploy [command options] <bundle>...

Example: stagehand deploy --manager-dir /opt/manager plugin.cbx`,
		Description: "Unpack each bundle into the manager's plugins directory. " +
			"The plugins directory is only modified when a whole bundle deploys cleanly.",
		Action: deployAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the stagehand configuration file",
			},
			&cli.StringFlag{
				Name:    "manager-dir",
				Aliases: []string{"m"},
				Usage:   "plugin manager directory to deploy into",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
	}
}

func deployAction(ctx *cli.Context) error {
	if ctx.Args().Len() == 0 {
		return cli.Exit("no bundle given", 2)
	}

	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return cli.Exit(err, 2)
	}
	if managerDir := ctx.String("manager-dir"); managerDir != "" {
		cfg.ManagerDir = managerDir
	}
	if cfg.ManagerDir == "" {
		return cli.Exit("no manager directory configured", 2)
	}

	level := cfg.Logging.Level
	if ctx.Bool("verbose") {
		level = "debug"
	}
	logger, err := log.Configure(os.Stderr, cfg.Logging.Format, level)
	if err != nil {
		return cli.Exit(err, 2)
	}

	var deployLog *rotator.Writer
	if cfg.DeployLog.Path != "" {
		deployLog = rotator.NewWriter(
			cfg.DeployLog.Path,
			rotator.WithMaxFileSize(cfg.DeployLog.MaxFileSize),
			rotator.WithFileCount(cfg.DeployLog.FileCount),
		)
		if err := deployLog.Open(); err != nil {
			return cli.Exit(fmt.Errorf("open deploy log: %w", err), 1)
		}
		defer deployLog.Close()
	}

	options := []bundle.DeployerOption{bundle.WithLogger(logger)}
	if cfg.StagingDir != "" {
		options = append(options, bundle.WithStagingRoot(cfg.StagingDir))
	}
	deployer := bundle.NewDeployer(cfg.PluginsDir(), options...)

	for _, bundlePath := range ctx.Args().Slice() {
		if err := deployer.Deploy(bundlePath); err != nil {
			recordDeployment(deployLog, logger, bundlePath, err)
			return cli.Exit(fmt.Errorf("deploy %s: %w", bundlePath, err), 1)
		}
		recordDeployment(deployLog, logger, bundlePath, nil)
	}

	return nil
}

// recordDeployment appends the deployment outcome to the rotating deploy
// log, if one is configured.
func recordDeployment(deployLog *rotator.Writer, logger log.Logger, bundlePath string, deployErr error) {
	if deployLog == nil {
		return
	}

	outcome := "deployed"
	if deployErr != nil {
		outcome = fmt.Sprintf("failed: %v", deployErr)
	}

	record := fmt.Sprintf("%s %s %s\n", time.Now().Format(time.RFC3339), bundlePath, outcome)
	if _, err := deployLog.Write([]byte(record)); err != nil {
		logger.WithError(err).Error("writing deploy log record")
	}
}
