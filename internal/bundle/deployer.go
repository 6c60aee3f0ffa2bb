// Package bundle deploys plugin bundles into a manager's plugins directory.
//
// A bundle is a zip archive carrying a plugin tree and a manifest named
// specification.json. All filesystem mutations run through a transaction:
// the plugins directory is only ever modified by a single successful commit,
// and any failure while unpacking or validating rolls the whole deployment
// back without a trace.
package bundle

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/stagehand/stagehand/internal/fstrans"
	"gitlab.com/stagehand/stagehand/internal/helper/perm"
	"gitlab.com/stagehand/stagehand/internal/log"
	"gitlab.com/stagehand/stagehand/internal/tempdir"
)

// Deployer unpacks plugin bundles into a plugins directory.
type Deployer struct {
	pluginsDir  string
	stagingRoot string
	logger      log.Logger
}

// DeployerOption configures a Deployer at construction.
type DeployerOption func(*Deployer)

// WithLogger sets the logger used for deployment events.
func WithLogger(logger log.Logger) DeployerOption {
	return func(d *Deployer) {
		d.logger = logger
	}
}

// WithStagingRoot makes every deployment stage content in a private
// directory allocated under the given root instead of the platform temporary
// directory. Orphans under the root are recognized by the tempdir clean
// walker.
func WithStagingRoot(path string) DeployerOption {
	return func(d *Deployer) {
		d.stagingRoot = path
	}
}

// NewDeployer returns a Deployer installing bundles into pluginsDir.
func NewDeployer(pluginsDir string, options ...DeployerOption) *Deployer {
	d := &Deployer{
		pluginsDir: pluginsDir,
		logger:     log.Discard(),
	}
	for _, apply := range options {
		apply(d)
	}

	return d
}

// Deploy unpacks the bundle at bundlePath into the plugins directory,
// validates its manifest and renames the manifest after the plugin's main
// file. The transaction commits exactly once on success; any failure rolls
// it back and leaves the plugins directory untouched.
func (d *Deployer) Deploy(bundlePath string) (returnedErr error) {
	logger := d.logger.WithField("bundle", bundlePath)

	archive, err := zip.OpenReader(bundlePath)
	if err != nil {
		deploymentFailuresTotal.Inc()
		return fmt.Errorf("open bundle: %w", err)
	}
	defer archive.Close()

	options := []fstrans.Option{fstrans.WithLogger(d.logger)}
	if d.stagingRoot != "" {
		// Each deployment stages in its own directory under the root so
		// concurrent deployments cannot clobber each other, and a crashed
		// deployment leaves an orphan the clean walker recognizes.
		stagingDir, cleanup, err := tempdir.New(d.stagingRoot, logger)
		if err != nil {
			deploymentFailuresTotal.Inc()
			return fmt.Errorf("allocate staging directory: %w", err)
		}
		defer func() {
			if err := cleanup(); err != nil {
				logger.WithError(err).Error("removing staging directory")
			}
		}()

		options = append(options, fstrans.WithStagingDir(stagingDir.Path()))
	}
	tx := fstrans.New(options...)

	if err := tx.Open(); err != nil {
		deploymentFailuresTotal.Inc()
		return fmt.Errorf("open transaction: %w", err)
	}
	defer func() {
		if returnedErr == nil {
			return
		}

		deploymentFailuresTotal.Inc()
		if err := tx.Rollback(); err != nil {
			logger.WithError(err).Error("rolling back failed deployment")
		}
	}()

	if err := d.unpack(tx, &archive.Reader); err != nil {
		return err
	}

	if err := d.installManifest(tx, logger); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deployment: %w", err)
	}

	deploymentsTotal.Inc()
	logger.Info("bundle deployed")

	return nil
}

// unpack streams every archive entry into its staged target. Entries must
// stay local to the plugins directory.
func (d *Deployer) unpack(tx *fstrans.Transaction, archive *zip.Reader) error {
	for _, entry := range archive.File {
		name := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(name) {
			return fmt.Errorf("bundle entry %q escapes the plugins directory", entry.Name)
		}

		stagingPath, err := tx.StagedPath(filepath.Join(d.pluginsDir, name))
		if err != nil {
			return fmt.Errorf("stage %q: %w", entry.Name, err)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(stagingPath, perm.PrivateDir); err != nil {
				return fmt.Errorf("stage directory %q: %w", entry.Name, err)
			}
			continue
		}

		if err := writeArchiveEntry(stagingPath, entry); err != nil {
			return fmt.Errorf("unpack %q: %w", entry.Name, err)
		}
	}

	return nil
}

func writeArchiveEntry(stagingPath string, entry *zip.File) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(stagingPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm.SharedFile)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}

// installManifest validates the unpacked manifest and renames it after the
// plugin's main file so concurrent deployments into the same plugins
// directory cannot clobber each other's manifest. A manifest without a main
// file is dropped from the deployment.
func (d *Deployer) installManifest(tx *fstrans.Transaction, logger log.Logger) error {
	manifestPath := filepath.Join(d.pluginsDir, ManifestName)
	if !tx.Exists(manifestPath) {
		return ErrManifestMissing
	}

	content, err := tx.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return err
	}

	if manifest.MainFile == "" {
		logger.Warn("manifest names no main file, dropping it from the deployment")
		return tx.Remove(manifestPath, false)
	}

	stem := strings.TrimSuffix(manifest.MainFile, filepath.Ext(manifest.MainFile))
	renamedPath := filepath.Join(d.pluginsDir, stem+".json")
	if renamedPath == manifestPath {
		return nil
	}

	if err := tx.Write(renamedPath, content); err != nil {
		return fmt.Errorf("write renamed manifest: %w", err)
	}

	return tx.Remove(manifestPath, false)
}
