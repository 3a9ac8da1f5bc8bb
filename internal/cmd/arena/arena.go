// Package arena parses arena command flags and starts the match hosting
// service.
package arena

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/ludo-arena/internal/platform/cmd"
	server "github.com/louisbranch/ludo-arena/internal/services/arena"
)

// Config holds arena command configuration.
type Config struct {
	Addr        string `env:"LUDO_ARENA_ADDR" envDefault:":8080"`
	OpsAddr     string `env:"LUDO_ARENA_OPS_ADDR" envDefault:":8081"`
	StoragePath string `env:"LUDO_ARENA_STORAGE_PATH"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "The arena listen address")
	fs.StringVar(&cfg.OpsAddr, "ops-addr", cfg.OpsAddr, "The gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.StoragePath, "storage", cfg.StoragePath, "The SQLite match archive path (empty disables)")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the arena service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceArena, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			Addr:        cfg.Addr,
			OpsAddr:     cfg.OpsAddr,
			StoragePath: cfg.StoragePath,
		})
	})
}
