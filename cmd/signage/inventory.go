package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"signage-player/internal/inventory"
	"signage-player/internal/media"
)

var inventoryFlags = map[string]string{
	"server.kv_path":   "kv",
	"server.sql_path":  "sql",
	"server.cache_ttl": "ttl",
}

func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inspect and edit the inventory the server hands out",
	}
	cmd.PersistentFlags().String("kv", "", "bbolt database for the cache and list bucket")
	cmd.PersistentFlags().String("sql", "", "SQLite database holding the inventory table")
	cmd.PersistentFlags().Duration("ttl", 0, "Cache TTL for the inventory list")

	cmd.AddCommand(
		inventoryLsCmd(a),
		inventoryAddCmd(a),
		inventoryRmCmd(a),
		inventoryClearCacheCmd(a),
	)
	return cmd
}

func inventoryLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Print the inventory exactly as GET /inventory would",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd, false, inventoryFlags)
			if err != nil {
				return err
			}
			defer log.Sync()

			src, _, _, closeAll, err := inventoryStores(cfg, log)
			if err != nil {
				return err
			}
			defer closeAll()

			items, err := src.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "inventory is empty")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tURL")
			for _, it := range items {
				id := "-"
				if it.ID != 0 {
					id = strconv.FormatInt(it.ID, 10)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, it.Name, it.Type, it.URL)
			}
			return tw.Flush()
		},
	}
}

func inventoryAddCmd(a *app) *cobra.Command {
	var (
		name   string
		typ    string
		toList bool
	)
	cmd := &cobra.Command{
		Use:   "add URL",
		Short: "Add an item to the inventory table (or, with --list, the kv list)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd, false, inventoryFlags)
			if err != nil {
				return err
			}
			defer log.Sync()

			it := inventory.Item{Name: name, URL: strings.TrimSpace(args[0]), Type: typ}
			if it.Type == "" {
				it.Type = guessType(it.URL)
			}

			_, kv, table, closeAll, err := inventoryStores(cfg, log)
			if err != nil {
				return err
			}
			defer closeAll()

			out := cmd.OutOrStdout()
			if toList {
				if kv == nil {
					return fmt.Errorf("--list needs a kv store (server.kv_path or --kv)")
				}
				if it.URL == "" {
					return fmt.Errorf("inventory item needs a url")
				}
				data, err := json.Marshal(it)
				if err != nil {
					return err
				}
				if err := kv.ListAppend(data); err != nil {
					return err
				}
				fmt.Fprintf(out, "appended %s to the list\n", it.URL)
				return nil
			}

			if table == nil {
				return inventory.ErrNotConfigured
			}
			id, err := table.Add(cmd.Context(), it)
			if err != nil {
				return err
			}
			if kv != nil {
				if err := kv.CacheDelete(inventory.CacheKey); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "added #%d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: last URL segment)")
	cmd.Flags().StringVar(&typ, "type", "", "MIME type (default: guessed from the extension)")
	cmd.Flags().BoolVar(&toList, "list", false, "Append to the kv list bucket instead of the table")
	return cmd
}

func inventoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove an item from the inventory table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("id must be a number: %w", err)
			}
			cfg, log, err := a.setup(cmd, false, inventoryFlags)
			if err != nil {
				return err
			}
			defer log.Sync()

			_, kv, table, closeAll, err := inventoryStores(cfg, log)
			if err != nil {
				return err
			}
			defer closeAll()

			if table == nil {
				return inventory.ErrNotConfigured
			}
			if err := table.Remove(cmd.Context(), id); err != nil {
				return err
			}
			if kv != nil {
				if err := kv.CacheDelete(inventory.CacheKey); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed #%d\n", id)
			return nil
		},
	}
}

func inventoryClearCacheCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the cached inventory so the next request reads the table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd, false, inventoryFlags)
			if err != nil {
				return err
			}
			defer log.Sync()

			_, kv, _, closeAll, err := inventoryStores(cfg, log)
			if err != nil {
				return err
			}
			defer closeAll()

			if kv == nil {
				return fmt.Errorf("no kv store configured (server.kv_path or --kv)")
			}
			if err := kv.CacheDelete(inventory.CacheKey); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
}

// guessType maps the URL's file extension to a MIME type.
func guessType(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return media.DetectFile(p).Source.DeclaredType()
}
