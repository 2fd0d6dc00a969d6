package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Loader reads and validates service spec files, and can watch a spec file
// for changes.
type Loader struct {
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
}

// NewLoader creates a spec loader.
func NewLoader(logger zerolog.Logger) *Loader {
	return &Loader{
		logger: logger.With().Str("component", "spec-loader").Logger(),
	}
}

// Load reads, parses and validates the service spec at the given path.
func (l *Loader) Load(path string) (*ServiceSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	var spec ServiceSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse spec file: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("service", spec.Name).
		Int("pods", len(spec.Pods)).
		Int("plans", len(spec.Plans)).
		Str("path", path).
		Msg("Service spec loaded")

	return &spec, nil
}

// Watch starts watching the spec file and invokes reloadFn with the freshly
// loaded spec on each change. Specs that fail to parse or validate are
// logged and skipped; the previous spec stays in effect.
func (l *Loader) Watch(ctx context.Context, path string, reloadFn func(*ServiceSpec) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	l.watcher = watcher

	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch spec file: %w", err)
	}

	go l.processEvents(ctx, path, reloadFn)

	l.logger.Info().Str("path", path).Msg("Started watching spec file")
	return nil
}

// processEvents processes file system events and triggers debounced reloads.
func (l *Loader) processEvents(ctx context.Context, path string, reloadFn func(*ServiceSpec) error) {
	var reloadTimer *time.Timer
	reloadDelay := 500 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if l.watcher != nil {
				_ = l.watcher.Close()
			}
			return

		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if !strings.HasSuffix(event.Name, ".yaml") && !strings.HasSuffix(event.Name, ".yml") {
					continue
				}
				l.logger.Debug().
					Str("file", event.Name).
					Str("op", event.Op.String()).
					Msg("Spec file changed")

				if reloadTimer != nil {
					reloadTimer.Stop()
				}
				reloadTimer = time.AfterFunc(reloadDelay, func() {
					if err := l.triggerReload(path, reloadFn); err != nil {
						l.logger.Error().Err(err).Msg("Failed to reload spec")
					}
				})
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (l *Loader) triggerReload(path string, reloadFn func(*ServiceSpec) error) error {
	spec, err := l.Load(path)
	if err != nil {
		return err
	}
	if err := reloadFn(spec); err != nil {
		return fmt.Errorf("failed to apply reloaded spec: %w", err)
	}
	l.logger.Info().Str("service", spec.Name).Msg("Service spec reloaded")
	return nil
}

// StopWatching stops watching for file changes.
func (l *Loader) StopWatching() error {
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}
