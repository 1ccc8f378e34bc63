package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"signage-player/internal/api"
	"signage-player/internal/console"
	"signage-player/internal/layout"
	"signage-player/internal/media"
	"signage-player/internal/objecturl"
	"signage-player/internal/playlist"
	"signage-player/internal/slideshow"
	"signage-player/internal/store"
	"signage-player/internal/system"
	"signage-player/internal/vlc"
)

// playCmd is the primary command: it mounts the slideshow on the
// display, imports the watched folder and runs the keyboard console.
func playCmd(a *app) *cobra.Command {
	var (
		noConsole      bool
		fetchInventory bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the slideshow on this display",
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := !noConsole && term.IsTerminal(int(os.Stdin.Fd()))

			cfg, log, err := a.setup(cmd, interactive, map[string]string{
				"player.layout":         "layout",
				"player.group":          "group",
				"player.watch_dir":      "watch",
				"player.watch_group":    "watch-group",
				"player.slide_interval": "interval",
				"player.autoplay":       "autoplay",
				"player.screen_width":   "screen-width",
				"player.screen_height":  "screen-height",
				"inventory.url":         "inventory-url",
			})
			if err != nil {
				return err
			}
			defer log.Sync()
			log.Info("signage starting", zap.String("version", version), zap.String("built", buildTime))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// --- Store ---
			if err := system.EnsureDir(cfg.DataDir); err != nil {
				return fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
			}
			db, err := store.Open(cfg.StorePath())
			if err != nil {
				return err
			}
			defer db.Close()

			// --- Renderer ---
			lay, err := layout.Resolve(cfg.Player.Layout)
			if err != nil {
				return fmt.Errorf("layout: %w", err)
			}
			log.Info("layout", zap.String("name", lay.Name), zap.Int("zones", len(lay.Zones)))

			blobs := objecturl.NewRegistry()
			renderer, err := vlc.New(vlc.Options{
				Zone:     lay.Main(),
				ScreenW:  cfg.Player.ScreenWidth,
				ScreenH:  cfg.Player.ScreenHeight,
				Resolver: blobs,
				Logger:   log,
			})
			if err != nil {
				return err
			}
			defer renderer.Release()

			// --- Controller ---
			confirm := &console.Confirmer{}
			input := console.NewInput()
			ctrl := slideshow.New(slideshow.Options{
				Store:         db,
				Renderer:      renderer,
				Panoramas:     renderer,
				Confirm:       confirm,
				Resolver:      blobs,
				Logger:        log,
				SlideInterval: cfg.Player.SlideInterval,
			})

			var reload func(context.Context) error
			if cfg.Inventory.URL != "" {
				client, err := api.NewClient(cfg.Inventory.URL, log)
				if err != nil {
					return err
				}
				reload = func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, cfg.Inventory.Timeout)
					defer cancel()
					return ctrl.LoadInventory(ctx, client)
				}
				if fetchInventory {
					// Failure is logged by the controller; playback goes on.
					_ = reload(ctx)
				}
			}

			g, gctx := errgroup.WithContext(ctx)

			// --- Folder import ---
			if dir := cfg.Player.WatchDir; dir != "" {
				if err := system.EnsureDir(dir); err != nil {
					return fmt.Errorf("watch dir %s: %w", dir, err)
				}
				importer := playlist.NewImporter(ctrl, cfg.Player.WatchGroup, log)
				w, err := playlist.NewWatcher(dir, log, func(items []media.Item) {
					importer.Import(items)
				})
				if err != nil {
					return fmt.Errorf("watcher init: %w", err)
				}
				importer.Import(w.Items())

				g.Go(func() error { return w.Run(gctx) })
			}

			if q := cfg.Player.Group; q != "" {
				if i, ok := ctrl.FindGroup(q); ok {
					ctrl.SelectGroup(i)
				} else {
					log.Warn("no group matches", zap.String("group", q))
				}
			}
			if cfg.Player.Autoplay && !ctrl.Snapshot().Playing {
				ctrl.TogglePlay()
			}

			ctrl.Mount(input)
			defer ctrl.Unmount()

			// --- Console ---
			if interactive {
				model := console.NewModel(console.Options{
					Controller: ctrl,
					Input:      input,
					Confirm:    confirm,
					Reload:     reload,
				})
				g.Go(func() error {
					defer stop()
					return console.Run(gctx, model, tea.WithAltScreen())
				})
			} else {
				log.Info("no terminal, running headless")
				g.Go(func() error {
					<-gctx.Done()
					return nil
				})
			}

			err = g.Wait()
			log.Info("shutdown complete")
			return err
		},
	}

	cmd.Flags().StringP("layout", "t", "", "Layout preset (fullscreen, billboard) or layout file")
	cmd.Flags().StringP("group", "g", "", "Group to start on (fuzzy match)")
	cmd.Flags().StringP("watch", "w", "", "Media folder imported into the watch group")
	cmd.Flags().String("watch-group", "", "Group receiving files from the watched folder")
	cmd.Flags().Duration("interval", 0, "Slide interval for images and panoramas")
	cmd.Flags().Bool("autoplay", false, "Start playing immediately")
	cmd.Flags().Int("screen-width", 0, "Screen width in pixels (for zone positioning)")
	cmd.Flags().Int("screen-height", 0, "Screen height in pixels (for zone positioning)")
	cmd.Flags().String("inventory-url", "", "Inventory endpoint, e.g. http://host:3001/inventory")
	cmd.Flags().BoolVar(&fetchInventory, "fetch-inventory", false, "Load the inventory group at start")
	cmd.Flags().BoolVar(&noConsole, "no-console", false, "Run without the keyboard console")

	return cmd
}
