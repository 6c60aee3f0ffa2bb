// Package tempdir allocates private staging directories and cleans up the
// orphans left behind by interrupted processes.
package tempdir

import (
	"os"

	"gitlab.com/stagehand/stagehand/internal/helper/perm"
	"gitlab.com/stagehand/stagehand/internal/log"
)

// dirPrefix is the prefix given to every staging directory so the clean
// walker can recognize orphans.
const dirPrefix = "stagehand-"

// Dir is a private staging directory.
type Dir struct {
	logger log.Logger
	path   string
}

// Path returns the absolute path of the staging directory.
func (d Dir) Path() string {
	return d.path
}

// New returns a new staging directory under root together with a cleanup
// function that removes the directory and everything in it. The root is
// created when missing.
func New(root string, logger log.Logger) (Dir, func() error, error) {
	if err := os.MkdirAll(root, perm.PrivateDir); err != nil {
		return Dir{}, nil, err
	}

	dir, err := os.MkdirTemp(root, dirPrefix)
	if err != nil {
		return Dir{}, nil, err
	}

	cleanup := func() error {
		return os.RemoveAll(dir)
	}

	return Dir{
		logger: logger,
		path:   dir,
	}, cleanup, nil
}
