package configstore

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch re-reads the configuration file on every write event and invokes
// onChange with the freshly parsed document. Editors that replace the
// file (rename-over-write) emit a Remove followed by a Create for the new
// inode; both are treated as a reason to reload, same as Write.
func (s *Store) Watch(ctx context.Context, log zerolog.Logger, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(s.path); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove) == 0 {
				continue
			}
			cfg, err := s.Load()
			if err != nil {
				log.Warn().Err(err).Str("path", s.path).Msg("configstore: reload failed, keeping prior config")
				continue
			}
			onChange(cfg)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("configstore: watch error")
		}
	}
}
