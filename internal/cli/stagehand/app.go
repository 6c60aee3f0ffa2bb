// Package stagehand implements the stagehand command line application.
package stagehand

import (
	"github.com/urfave/cli/v2"

	"gitlab.com/stagehand/stagehand/internal/version"
)

// NewApp returns the stagehand command line application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "stagehand",
		Usage:   "deploy plugin bundles transactionally",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			newDeployCommand(),
			newCleanStaleCommand(),
		},
	}
}
