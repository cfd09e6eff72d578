package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads the configuration whenever the config file changes and
// passes each valid result to onChange. Invalid files are logged and
// skipped. Watch blocks until ctx is done.
//
// The containing directory is watched rather than the file, so editors and
// config management tools that replace the file by rename are seen.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			reload(path, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Str("path", path).Msg("config watcher error")
		}
	}
}

func reload(path string, onChange func(*Config)) {
	cfg, err := LoadFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring unreadable config")
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("ignoring invalid config")
		return
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()

	log.Info().Str("path", path).Msg("configuration reloaded")
	onChange(cfg)
}
