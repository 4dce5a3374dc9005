package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"empdir/internal/directory"
	"empdir/internal/export"
	"empdir/internal/logging"
	"empdir/internal/lookup"
)

type exportOptions struct {
	Out   string
	Query string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export --out employees.xlsx [--query text]",
		Short: "Write the directory, optionally filtered, to a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := strings.TrimSpace(opts.Out)
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			log := logging.New(root.level(), os.Stderr)
			svc := root.service(log)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			ix, err := lookup.Load(ctx, svc)
			if err != nil {
				// names fall back to raw codes
				log.WithError(err).Warn("exporting without country and state names")
			}
			sync := directory.New(svc, ix)
			if err := sync.Refresh(ctx); err != nil {
				return err
			}
			sync.Search(opts.Query)
			rows := sync.Rows()

			if err := writeExport(cmd.OutOrStdout(), out, rows); err != nil {
				return err
			}
			log.WithField("rows", len(rows)).WithField("out", out).Info("export written")
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", "employees.xlsx", "output file, '-' for stdout")
	cmd.Flags().StringVar(&opts.Query, "query", "", "only export employees matching this search")
	return cmd
}

// writeExport writes rows to path, or to stdout when path is "-". The file's
// close error is reported since it can carry a failed flush.
func writeExport(stdout io.Writer, path string, rows []directory.Row) (err error) {
	if path == "-" {
		return export.WriteXLSX(stdout, rows)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return export.WriteXLSX(f, rows)
}
