package backend

import (
	"log/slog"
	"os"
	"path/filepath"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
)

// TokenChangedMsg is sent when the token file is written or removed outside
// the running program (e.g. `codeflow-tui login` in another terminal).
type TokenChangedMsg struct {
	Path string
	// Removed is true when the token file went away.
	Removed bool
}

// Sender can receive messages (matches *tea.Program).
type Sender interface {
	Send(msg tea.Msg)
}

// Watcher monitors the token file via fsnotify.
type Watcher struct {
	w      *fsnotify.Watcher
	sender Sender
	path   string
	logger *slog.Logger
	done   chan struct{}
}

// NewWatcher creates a watcher for the store's token file.
func NewWatcher(tokens *TokenStore, sender Sender, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{
		w:      fw,
		sender: sender,
		path:   tokens.Path(),
		logger: logger,
		done:   make(chan struct{}),
	}

	// Watch the directory so creates and atomic renames are seen.
	dir := filepath.Dir(watcher.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		fw.Close()
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	go watcher.loop()
	return watcher, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	base := filepath.Base(w.path)

	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				w.sender.Send(TokenChangedMsg{Path: event.Name})
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				w.sender.Send(TokenChangedMsg{Path: event.Name, Removed: true})
			}

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			w.logger.Warn("token watcher error", "error", err)
		}
	}
}
