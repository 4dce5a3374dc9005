package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"empdir/internal/devserver"
	"empdir/internal/logging"
	"empdir/internal/storage"
)

type serveOptions struct {
	Addr    string
	DBPath  string
	SeedCSV string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the development API over a local SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg.Config
			log := logging.New(root.level(), os.Stderr)

			addr := strings.TrimSpace(opts.Addr)
			if addr == "" {
				addr = cfg.DevAddr
			}
			dbPath := strings.TrimSpace(opts.DBPath)
			if dbPath == "" {
				dbPath = cfg.DevDBPath
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := storage.Open(ctx, dbPath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			if seeded, err := store.SeedDefaults(ctx); err != nil {
				return fmt.Errorf("seed lookups: %w", err)
			} else if seeded {
				log.Info("seeded default countries and states")
			}

			if path := strings.TrimSpace(opts.SeedCSV); path != "" {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open seed csv: %w", err)
				}
				res, err := store.ImportLookupsCSV(ctx, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("import seed csv: %w", err)
				}
				entry := log.WithField("countries", res.Countries).WithField("states", res.States).WithField("skipped", res.Skipped)
				for _, msg := range res.Errors {
					entry.Warn(msg)
				}
				entry.Info("imported lookups")
			}

			log.WithField("db", store.Path()).Info("dev store ready")
			return devserver.New(store, log).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "SQLite path, ':memory:' for a throwaway store")
	cmd.Flags().StringVar(&opts.SeedCSV, "seed-csv", "", "CSV of countries and states to load (kind,code,name,parent)")
	return cmd
}
