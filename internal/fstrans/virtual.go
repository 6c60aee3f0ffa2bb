package fstrans

import (
	"os"
	"path/filepath"
	"strings"
)

// virtualPath maps a target filesystem path to its staging location under
// root. The volume prefix and any leading separators are stripped from the
// target so its relative structure is preserved under the join: the mapping
// is deterministic and distinct targets never collide. Dot segments are
// resolved against a virtual root before joining so the result cannot escape
// the staging directory.
func virtualPath(root, targetPath string) string {
	rel := targetPath[len(filepath.VolumeName(targetPath)):]
	rel = strings.TrimLeft(rel, `/\`)
	rel = filepath.Clean(string(os.PathSeparator) + rel)

	return filepath.Join(root, rel)
}
