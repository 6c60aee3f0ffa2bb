package fstrans

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gitlab.com/stagehand/stagehand/internal/helper/perm"
)

// copyFile copies the regular file at source to target, creating target's
// parent directories as needed. The source's permission bits are preserved
// and an existing target is truncated.
func copyFile(source, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(target), perm.SharedDir); err != nil {
		return fmt.Errorf("create target parent: %w", err)
	}

	src, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy content: %w", err)
	}

	return dst.Close()
}

// copyDirectory recursively copies the tree rooted at source into target.
func copyDirectory(source, target string) error {
	return filepath.WalkDir(source, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(target, rel)

		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(targetPath, info.Mode().Perm())
		}

		return copyFile(path, targetPath)
	})
}
