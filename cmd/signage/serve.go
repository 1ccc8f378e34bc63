package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"signage-player/internal/config"
	"signage-player/internal/inventory"
	"signage-player/internal/store"
)

// inventoryStores opens whichever inventory stores the config names and
// returns the matching source plus a func closing them.
func inventoryStores(cfg *config.Config, log *zap.Logger) (inventory.Source, *store.DB, *inventory.SQLSource, func(), error) {
	var (
		closers []io.Closer
		kv      interface {
			inventory.Lister
			inventory.Cache
		}
		table inventory.Source
		db    *store.DB
		sql   *inventory.SQLSource
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}

	if cfg.Server.KVPath != "" {
		d, err := store.Open(cfg.Server.KVPath)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		closers = append(closers, d)
		kv, db = d, d
	}
	if cfg.Server.SQLPath != "" {
		s, err := inventory.OpenSQL(cfg.Server.SQLPath)
		if err != nil {
			closeAll()
			return nil, nil, nil, nil, err
		}
		closers = append(closers, s)
		table, sql = s, s
	}

	return inventory.Select(kv, table, cfg.Server.CacheTTL, log), db, sql, closeAll, nil
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory list over HTTP",
		Long: `Serve GET /inventory (and /api/inventory).

With both --kv and --sql the table is read through a bbolt cache
(cache-aside, --ttl). With only --kv the bbolt list bucket is served;
with only --sql the table is queried directly; with neither the list is
empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd, false, map[string]string{
				"server.listen":    "listen",
				"server.kv_path":   "kv",
				"server.sql_path":  "sql",
				"server.cache_ttl": "ttl",
			})
			if err != nil {
				return err
			}
			defer log.Sync()

			src, _, _, closeAll, err := inventoryStores(cfg, log)
			if err != nil {
				return err
			}
			defer closeAll()

			log.Info("inventory source",
				zap.Bool("kv", cfg.Server.KVPath != ""),
				zap.Bool("sql", cfg.Server.SQLPath != ""),
				zap.Duration("ttl", cfg.Server.CacheTTL))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return inventory.Serve(gctx, cfg.Server.Listen, inventory.NewHandler(src, log), log)
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringP("listen", "l", "", "Listen address (default :3001, or :$PORT)")
	cmd.Flags().String("kv", "", "bbolt database for the cache and list bucket")
	cmd.Flags().String("sql", "", "SQLite database holding the inventory table")
	cmd.Flags().Duration("ttl", 0, "Cache TTL for the inventory list")
	return cmd
}
