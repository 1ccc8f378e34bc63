package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signage-player/internal/api"
	"signage-player/internal/config"
	"signage-player/internal/media"
	"signage-player/internal/playlist"
	"signage-player/internal/slideshow"
	"signage-player/internal/store"
	"signage-player/internal/system"
)

// withController opens the group store and runs fn against a controller
// that is never mounted.
func (a *app) withController(cmd *cobra.Command, confirm slideshow.Confirmer, flags map[string]string,
	fn func(ctrl *slideshow.Controller, cfg *config.Config, log *zap.Logger) error) error {
	cfg, log, err := a.setup(cmd, false, flags)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := system.EnsureDir(cfg.DataDir); err != nil {
		return fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
	}
	db, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer db.Close()

	ctrl := slideshow.New(slideshow.Options{Store: db, Confirm: confirm, Logger: log})
	return fn(ctrl, cfg, log)
}

// resolveGroup accepts a 1-based index or a (fuzzy) group name.
func resolveGroup(ctrl *slideshow.Controller, arg string) (int, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(ctrl.Snapshot().Groups) {
			return 0, fmt.Errorf("no group #%d", n)
		}
		return n - 1, nil
	}
	if i, ok := ctrl.FindGroup(arg); ok {
		return i, nil
	}
	return 0, fmt.Errorf("no group matches %q", arg)
}

// promptConfirm asks on the command's stdin; only y/yes confirms.
func promptConfirm(in io.Reader, out io.Writer) slideshow.ConfirmFunc {
	r := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, _ := r.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func groupsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Manage slideshow groups",
	}
	cmd.AddCommand(
		groupsListCmd(a),
		groupsAddCmd(a),
		groupsRmCmd(a),
		groupsRenameCmd(a),
		groupsImportCmd(a),
		groupsFetchCmd(a),
		groupsPanoramaCmd(a),
	)
	return cmd
}

func groupsListCmd(a *app) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd, nil, nil, func(ctrl *slideshow.Controller, _ *config.Config, _ *zap.Logger) error {
				out := cmd.OutOrStdout()
				groups := ctrl.Snapshot().Groups
				if len(groups) == 0 {
					fmt.Fprintln(out, "no groups")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for i, g := range groups {
					fmt.Fprintf(tw, "%d\t%s\t%d items\n", i+1, g.Name, len(g.Items))
					if !verbose {
						continue
					}
					for j := range g.Items {
						it := &g.Items[j]
						fmt.Fprintf(tw, "\t  %d. %s\t[%s]\n", j+1, it.Name(), media.Classify(it))
					}
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also list every item")
	return cmd
}

func groupsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Create an empty group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd, nil, nil, func(ctrl *slideshow.Controller, _ *config.Config, _ *zap.Logger) error {
				name := strings.Join(args, " ")
				if !ctrl.AddGroup(name) {
					return fmt.Errorf("group name must not be blank")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", strings.TrimSpace(name))
				return nil
			})
		},
	}
}

func groupsRmCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "rm GROUP",
		Aliases: []string{"delete"},
		Short:   "Delete a group (by number or name)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var confirm slideshow.Confirmer = promptConfirm(cmd.InOrStdin(), cmd.OutOrStdout())
			if yes {
				confirm = nil
			}
			return a.withController(cmd, confirm, nil, func(ctrl *slideshow.Controller, _ *config.Config, _ *zap.Logger) error {
				i, err := resolveGroup(ctrl, args[0])
				if err != nil {
					return err
				}
				name := ctrl.Snapshot().Groups[i].Name
				if !ctrl.DeleteGroup(i) {
					fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %q\n", name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func groupsRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename GROUP NEW_NAME",
		Short: "Rename a group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd, nil, nil, func(ctrl *slideshow.Controller, _ *config.Config, _ *zap.Logger) error {
				i, err := resolveGroup(ctrl, args[0])
				if err != nil {
					return err
				}
				name := strings.Join(args[1:], " ")
				if !ctrl.RenameGroup(i, name) {
					return fmt.Errorf("group name must not be blank")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "renamed to %q\n", strings.TrimSpace(name))
				return nil
			})
		},
	}
}

func groupsImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import GROUP DIR",
		Short: "Append the media files of a folder to a group, creating it if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd, nil, nil, func(ctrl *slideshow.Controller, _ *config.Config, log *zap.Logger) error {
				w, err := playlist.NewWatcher(args[1], log, nil)
				if err != nil {
					return err
				}
				items := w.Items()
				w.Close()

				n := playlist.NewImporter(ctrl, args[0], log).Import(items)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d files\n", n, len(items))
				return nil
			})
		},
	}
}

func groupsFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the inventory and prepend it as the Inventory group",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := map[string]string{"inventory.url": "inventory-url"}
			return a.withController(cmd, nil, flags, func(ctrl *slideshow.Controller, cfg *config.Config, log *zap.Logger) error {
				if cfg.Inventory.URL == "" {
					return fmt.Errorf("no inventory url (set inventory.url or --inventory-url)")
				}
				client, err := api.NewClient(cfg.Inventory.URL, log)
				if err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Inventory.Timeout)
				defer cancel()
				if err := ctrl.LoadInventory(ctx, client); err != nil {
					return err
				}
				g := ctrl.Snapshot().Groups[0]
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d items\n", g.Name, len(g.Items))
				return nil
			})
		},
	}
	cmd.Flags().String("inventory-url", "", "Inventory endpoint, e.g. http://host:3001/inventory")
	return cmd
}

func groupsPanoramaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "panorama GROUP ITEM on|off",
		Short: "Mark an item (1-based) as a 360° panorama or clear the mark",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch strings.ToLower(args[2]) {
			case "on", "true", "yes":
				on = true
			case "off", "false", "no":
			default:
				return fmt.Errorf("want on or off, got %q", args[2])
			}
			item, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("item must be a number: %w", err)
			}
			return a.withController(cmd, nil, nil, func(ctrl *slideshow.Controller, _ *config.Config, _ *zap.Logger) error {
				g, err := resolveGroup(ctrl, args[0])
				if err != nil {
					return err
				}
				if !ctrl.SetPanorama(g, item-1, on) {
					return fmt.Errorf("no item #%d in group", item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "item %d panorama=%v\n", item, on)
				return nil
			})
		},
	}
}
