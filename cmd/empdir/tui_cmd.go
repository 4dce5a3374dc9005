package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"empdir/internal/logging"
	"empdir/internal/profileimage"
	"empdir/internal/ui"
)

func newTUICmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive directory (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), root)
		},
	}
}

func runTUI(ctx context.Context, root *rootOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := root.cfg

	// stdout belongs to the terminal UI
	logFile, log, err := logging.FileLogger(root.level(), cfg.Dir())
	if err != nil {
		return err
	}
	defer logFile.Close()
	log.WithField("base_url", cfg.Config.BaseURL).Info("starting directory session")

	program := ui.NewProgram(ctx, root.service(log), ui.Options{
		PageSize: cfg.Config.PageSize,
		Image: profileimage.Options{
			MaxBytes: cfg.Config.MaxImageBytes,
			MaxSide:  cfg.Config.ImageMaxSide,
		},
	}, log)
	if err := program.Start(); err != nil {
		log.WithError(err).Error("program terminated")
		return fmt.Errorf("program terminated: %w", err)
	}
	return nil
}
