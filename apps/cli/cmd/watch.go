package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// WatchDebounceDelay coalesces the burst of filesystem events an atomic
// rename produces into one re-render.
const WatchDebounceDelay = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render status whenever the state file changes",
	Long: `Watches the state directory and redraws the dependency tree each time
a worker commits a result. Interrupt with Ctrl-C.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSettings()
		if err != nil {
			exitWithError(err, ExitConfigError)
		}

		c := newCoordinator(cfg)
		dir := c.Store().Dir()
		if _, err := os.Stat(dir); err != nil {
			exitWithError(fmt.Errorf("state directory %s: %w (run gatekeep init first)", dir, err), ExitConfigError)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			exitWithError(fmt.Errorf("create watcher: %w", err), ExitConfigError)
		}
		defer watcher.Close()

		if err := watcher.Add(dir); err != nil {
			exitWithError(fmt.Errorf("watch %s: %w", dir, err), ExitConfigError)
		}

		render := func() {
			if err := renderStatus(c, cfg.GetNoColor()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			}
		}
		render()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		stateName := filepath.Base(c.Store().Path())
		var debounce *time.Timer
		redraw := make(chan struct{}, 1)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != stateName {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				// The rename lands as several events; restart the timer
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(WatchDebounceDelay, func() {
					select {
					case redraw <- struct{}{}:
					default:
					}
				})
			case <-redraw:
				render()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Fprintf(os.Stderr, "Warning: watch error: %v\n", err)
			case <-sig:
				return
			}
		}
	},
}
