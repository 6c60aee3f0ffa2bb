// Package perm provides constants for file and directory permissions.
//
// Note that these permissions are further restricted by the system configured
// umask.
package perm

import (
	"io/fs"
)

const (
	// PrivateDir is the permissions given for a directory that must only be
	// used by stagehand, such as the staging directory of a transaction.
	PrivateDir fs.FileMode = 0o700

	// SharedDir is the permission given for a directory that may be read
	// outside of stagehand, such as a deployed plugin directory.
	SharedDir fs.FileMode = 0o755

	// SharedFile is the permission given for a file that may be read outside
	// of stagehand.
	SharedFile fs.FileMode = 0o644
)
