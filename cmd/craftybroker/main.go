package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thebestandgreatest/craftybroker/pkg/config"
	"github.com/Thebestandgreatest/craftybroker/pkg/events"
	"github.com/Thebestandgreatest/craftybroker/pkg/log"
	"github.com/Thebestandgreatest/craftybroker/pkg/registry"
	"github.com/Thebestandgreatest/craftybroker/pkg/storage"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "craftybroker",
	Short: "Craftybroker - lifecycle broker for Crafty Controller servers",
	Long: `Craftybroker manages the lifecycle of game servers hosted behind a
Crafty Controller instance. It translates start, stop, remove and status
operations into authenticated controller API calls and polls the controller
until the server observably reaches the requested state.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Craftybroker version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "craftybroker.yaml", "Broker configuration file")

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addressCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads the configuration, initializes logging, opens the state store
// and builds a registry reconciled against the configured servers
func setup(ctx context.Context) (*config.File, *storage.BoltStore, *registry.Registry, *events.Bus, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.JSONLogs,
	})

	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := storage.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	bus := events.NewBus()
	bus.Start()

	reg := registry.New(store, bus)
	if err := reg.Restore(); err != nil {
		store.Close()
		return nil, nil, nil, nil, err
	}
	if err := reg.Apply(ctx, cfg.Servers); err != nil {
		store.Close()
		return nil, nil, nil, nil, err
	}

	return cfg, store, reg, bus, nil
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile managed servers against the configuration file",
	Long: `Reconcile the broker's managed servers against the configuration file.

New servers are registered; servers whose configuration changed are cut over
with a stop/start around the configuration swap.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, _, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		fmt.Printf("✓ Applied %d server configuration(s)\n", len(cfg.Servers))
		return nil
	},
}

var startCmd = &cobra.Command{
	Use:   "start <name>",
	Short: "Start a managed server and wait until it is running",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		if err := reg.Start(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Server %s is running\n", args[0])
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <name>",
	Short: "Stop a managed server and wait until it is stopped",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		if err := reg.Stop(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Server %s is stopped\n", args[0])
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a managed server from the controller",
	Long: `Remove a managed server from the controller.

The server is stopped best-effort first, then deleted. Deletion is
irreversible and destroys the server's data on the controller.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		if err := reg.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Server %s removed\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Show the live status of one or all managed servers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		names := reg.Names()
		if len(args) == 1 {
			names = args
		}

		for _, name := range names {
			status, err := reg.Status(cmd.Context(), name)
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\n", name, status)
		}
		return nil
	},
}

var addressCmd = &cobra.Command{
	Use:   "address <name>",
	Short: "Show the game-facing address of a managed server",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, reg, bus, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		defer bus.Stop()

		broker, err := reg.Get(args[0])
		if err != nil {
			return err
		}
		host, port, err := broker.Address()
		if err != nil {
			return err
		}
		fmt.Printf("%s:%d\n", host, port)
		return nil
	},
	Args: cobra.ExactArgs(1),
}
