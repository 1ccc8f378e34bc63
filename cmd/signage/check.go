package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"signage-player/internal/api"
	"signage-player/internal/inventory"
	"signage-player/internal/store"
	"signage-player/internal/system"
)

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report device health and probe the configured stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd, false, nil)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := system.EnsureDir(cfg.DataDir); err != nil {
				return fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
			}

			probes := []system.Probe{{
				Name: "store",
				Run: func(context.Context) error {
					db, err := store.Open(cfg.StorePath())
					if err != nil {
						return err
					}
					defer db.Close()
					return db.Ping()
				},
			}}
			if cfg.Server.SQLPath != "" {
				probes = append(probes, system.Probe{
					Name: "inventory table",
					Run: func(ctx context.Context) error {
						s, err := inventory.OpenSQL(cfg.Server.SQLPath)
						if err != nil {
							return err
						}
						defer s.Close()
						_, err = s.List(ctx)
						return err
					},
				})
			}
			if cfg.Inventory.URL != "" {
				client, err := api.NewClient(cfg.Inventory.URL, log)
				if err != nil {
					return err
				}
				probes = append(probes, system.Probe{Name: "inventory url", Run: client.Ping})
			}

			status := system.RunHealthCheck(cmd.Context(), cfg.DataDir, log, probes...)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "CPU Temperature: %.1f°C\n", status.CPUTempC)
			fmt.Fprintf(out, "Disk Usage: %.1f%%\n", status.DiskUsedPct)
			fmt.Fprintf(out, "Disk Free: %d MB\n", status.DiskFreeBytes/1024/1024)
			fmt.Fprintf(out, "Throttled: %v\n", status.Throttled)
			for _, c := range status.Checks {
				if c.OK() {
					fmt.Fprintf(out, "%s: ok\n", c.Name)
				} else {
					fmt.Fprintf(out, "%s: FAILED (%s)\n", c.Name, c.Err)
				}
			}
			if !status.Healthy() {
				return fmt.Errorf("health check failed")
			}
			return nil
		},
	}
}
