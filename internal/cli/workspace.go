package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/wardenhq/warden/api/v1beta1/bundleconfigs"
	"github.com/wardenhq/warden/pkg/bundle"
	"github.com/wardenhq/warden/pkg/config"
	"github.com/wardenhq/warden/pkg/overlay"
)

var ErrNoConfig = errors.New("no warden configuration found")

// workspace is a loaded configuration plus the directory it governs.
// Lockfile and allow-list defaults are resolved relative to Dir.
type workspace struct {
	Config *bundleconfigs.Config
	Dir    string
}

// openWorkspace locates and loads the configuration. An explicit configPath
// wins; otherwise the config file is searched from targetPath upwards.
func openWorkspace(configPath, targetPath string) (*workspace, error) {
	path := configPath

	if path == "" {
		if targetPath == "" {
			targetPath = "."
		}

		found, err := bundleconfigs.Find(targetPath)
		if err != nil {
			return nil, err
		}

		if found == "" {
			return nil, fmt.Errorf("%w: searched from %s", ErrNoConfig, targetPath)
		}

		path = found
	}

	loader, err := config.NewLoaderFromFile(path, bundleconfigs.New, bundleconfigs.DefaultValidator)
	if err != nil {
		return nil, err
	}

	if err := loader.Validate(); err != nil {
		return nil, err
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	slog.Debug("loaded configuration", slog.String("path", absPath))

	return &workspace{Config: cfg, Dir: filepath.Dir(absPath)}, nil
}

// loadBundle merges the configured sources without overlays. Warnings for
// skipped optional sources are logged here.
func (ws *workspace) loadBundle() (*bundle.Bundle, error) {
	b, warnings, err := bundle.Load(ws.Config.BundleMeta(), ws.Config.BundleSources(ws.Dir))
	if err != nil {
		return nil, err
	}

	for _, w := range warnings {
		slog.Warn("skipped source",
			slog.String("source", w.Source),
			slog.String("reason", w.Message),
		)
	}

	return b, nil
}

// currentBundle merges the sources and applies the configured overlays.
func (ws *workspace) currentBundle() (*bundle.Bundle, *overlay.Result, error) {
	b, err := ws.loadBundle()
	if err != nil {
		return nil, nil, err
	}

	res, err := overlay.Apply(b, ws.Config.Overrides())
	if err != nil {
		return nil, nil, err
	}

	return b, res, nil
}
