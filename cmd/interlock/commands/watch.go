package commands

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	File     string        `arg:"" help:"Module script to watch" type:"existingfile"`
	Output   string        `short:"o" help:"Output directory (overrides export.out_dir)" type:"path"`
	Debounce time.Duration `help:"Quiet period before re-evaluating" default:"300ms"`
}

func (c *WatchCmd) Run(g *Global, _ *CLI) error {
	if c.Output != "" {
		g.Config.Export.OutDir = c.Output
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return c.watch(ctx, g)
}

func (c *WatchCmd) watch(ctx context.Context, g *Global) error {
	abs, err := filepath.Abs(c.File)
	if err != nil {
		return err
	}

	// Editors often replace files on save, so watch the directory.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}

	a := g.App()
	evaluate := func() {
		if err := runScript(g, a, abs); err != nil {
			g.Logger.Warn("Evaluation failed", "error", err)
		}
	}
	rebuild, trigger := debouncer(c.Debounce)

	g.Logger.Info("Watching script", "file", abs)
	evaluate()
	for {
		select {
		case <-ctx.Done():
			g.Logger.Info("Stopped watching", "file", abs)
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			g.Logger.Debug("Script changed", "path", ev.Name, "op", ev.Op.String())
			trigger()
		case <-rebuild:
			evaluate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.Logger.Warn("watcher error", "error", err)
		}
	}
}

// debouncer coalesces bursts of trigger calls into one send on the
// returned channel after d of quiet.
func debouncer(d time.Duration) (<-chan struct{}, func()) {
	var mu sync.Mutex
	var timer *time.Timer
	ch := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case ch <- struct{}{}:
			default:
			}
		})
	}
	return ch, trigger
}
