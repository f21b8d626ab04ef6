package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rampkit/ramp/internal/config"
	"github.com/rampkit/ramp/pkg/adapters/file"
	"github.com/rampkit/ramp/pkg/adapters/memory"
	"github.com/rampkit/ramp/pkg/adapters/redis"
	"github.com/rampkit/ramp/pkg/ports"
)

var rootCmd = &cobra.Command{
	Use:   "ramp",
	Short: "Ramp is an onboarding workflow engine",
	Long:  `Ramp walks a new account through the guided setup steps, auto-populating each one from the remote analysis service.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "ramp.yaml", "Path to the configuration file")
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// stores bundles the configured persistence backend. Every backend serves
// both session states and fragments; the locker is only set for backends
// that support distributed locking.
type stores struct {
	states    ports.StateStore
	fragments ports.FragmentStore
	locker    ports.DistributedLocker
	close     func() error
}

func buildStores(cfg config.Config) (*stores, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		store := memory.NewStore()
		return &stores{states: store, fragments: store, close: func() error { return nil }}, nil

	case config.BackendFile:
		store := file.New(cfg.Store.Path)
		return &stores{states: store, fragments: store, close: func() error { return nil }}, nil

	case config.BackendRedis:
		store := redis.New(
			cfg.Store.Redis.Address,
			cfg.Store.Redis.Password,
			cfg.Store.Redis.DB,
			redis.WithTTL(cfg.Store.Redis.TTL.Std()),
		)
		return &stores{
			states:    store,
			fragments: store,
			locker:    redis.NewLocker(store.Client(), "ramp:lock:"),
			close:     store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
