// signage: digital signage slideshow player. Plays named groups of
// local and inventory media on a display and serves the inventory list.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"signage-player/internal/config"
	"signage-player/internal/logging"
)

// Build-time variables set via -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand shares: one viper instance and the
// global flags.
type app struct {
	v          *viper.Viper
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "signage",
		Short:         "signage: slideshow player for digital signage displays",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to config.yaml (default: search the config dir and .)")
	root.PersistentFlags().String("data-dir", "", "Directory holding the player database")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "Write logs to this file")
	a.v.BindPFlag("data_dir", root.PersistentFlags().Lookup("data-dir"))
	a.v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))
	a.v.BindPFlag("logging.file", root.PersistentFlags().Lookup("log-file"))

	root.AddCommand(playCmd(a))
	root.AddCommand(serveCmd(a))
	root.AddCommand(groupsCmd(a))
	root.AddCommand(inventoryCmd(a))
	root.AddCommand(checkCmd(a))
	root.AddCommand(versionCmd())
	return root
}

// setup binds the command's own flags to config keys, loads the
// configuration and builds the logger. With logToFile the logger never
// writes to the terminal.
func (a *app) setup(cmd *cobra.Command, logToFile bool, flags map[string]string) (*config.Config, *zap.Logger, error) {
	for key, name := range flags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return nil, nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return nil, nil, err
	}

	if logToFile && cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "signage.log")
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("config loaded", zap.String("data_dir", cfg.DataDir), zap.String("version", version))
	return cfg, log, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "signage %s\nBuilt: %s\n", version, buildTime)
		},
	}
}
