package config

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/df-mc/atomic"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var ErrAlreadyWatching = errors.New("already watching")

const watchDebounce = 100 * time.Millisecond

// File is a config file layered on top of embedded defaults.
type File struct {
	Path     string
	Defaults []byte
	Logger   *zap.Logger

	watcher *atomic.Value[*fsnotify.Watcher]
}

func NewFile(path string, defaults []byte, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &File{
		Path:     path,
		Defaults: defaults,
		Logger:   logger,
		watcher:  atomic.NewValue[*fsnotify.Watcher](nil),
	}
}

func (f *File) Read() (Data, error) {
	return Load(f.Defaults, f.Path)
}

// Watch calls onChange with the new data every time the file is written.
// Editors tend to write a file in several steps, so events are collapsed
// until the file has been quiet for a short while. Data that fails to load
// is logged and skipped. Watch blocks until ctx is done.
func (f *File) Watch(ctx context.Context, onChange func(Data)) error {
	if f.watcher.Load() != nil {
		return ErrAlreadyWatching
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	f.watcher.Store(w)
	defer f.watcher.Store(nil)

	// Watching the directory survives editors that replace the file.
	if err := w.Add(filepath.Dir(f.Path)); err != nil {
		return err
	}
	name := filepath.Clean(f.Path)

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-debounce.C:
			data, err := f.Read()
			if err != nil {
				f.Logger.Warn("failed to reload config",
					zap.Error(err),
					zap.String("file", f.Path),
				)
				continue
			}
			onChange(data)
		case e, ok := <-w.Events:
			if !ok {
				f.Logger.Debug("closing file watcher",
					zap.String("cause", "watcher event channel closed"),
				)
				return nil
			}

			if filepath.Clean(e.Name) != name {
				continue
			}

			if e.Has(fsnotify.Write) || e.Has(fsnotify.Create) || e.Has(fsnotify.Rename) {
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				f.Logger.Debug("closing file watcher",
					zap.String("cause", "watcher error channel closed"),
				)
				return nil
			}

			f.Logger.Error("error while watching config", zap.Error(err))
		}
	}
}
