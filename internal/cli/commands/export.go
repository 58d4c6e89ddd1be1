package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [FILE.inp]",
		Short: "Write the project tables as a SWMM input file",
		Long: `Encode every table of the project into the sections of a SWMM input
file. Columns and variant values are validated before anything is written.

Without a file argument, or with "-", the input file is written to stdout.`,
		Example: `  # Write model.inp from the project in the current directory
  swmmkit export model.inp

  # Export another project to stdout
  swmmkit export --project ./subnet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "-"
			if len(args) == 1 {
				target = args[0]
			}
			return runExport(cmd, target)
		},
	}
	return cmd
}

func runExport(cmd *cobra.Command, target string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	if err := cmdCtx.Cfg.ValidateProject(); err != nil {
		return err
	}

	rec, err := cmdCtx.StartRun(ctx, store.RunExport, cmdCtx.Cfg.ProjectDir)
	if err != nil {
		return err
	}
	warn := cmdCtx.Warnings()
	enc := inp.NewEncoder(cmdCtx.Logger, warn)
	err = writeINP(cmdCtx, cmdCtx.Cfg.ProjectDir, target, enc, cmd.OutOrStdout())
	if err = rec.Finish(ctx, warn.List(), err); err != nil {
		return err
	}

	if target != "-" {
		r := cmdCtx.Renderer
		r.Success(fmt.Sprintf("Wrote %s", target))
		r.Warnings(warn.List())
	}
	return nil
}

// writeINP encodes the project at dir and writes it to target ("-" for w).
func writeINP(cmdCtx *CommandContext, dir, target string, enc *inp.Encoder, w io.Writer) (err error) {
	p, _, err := cmdCtx.Loader.Load(dir)
	if err != nil {
		return err
	}
	f, err := enc.Encode(p)
	if err != nil {
		return err
	}

	if target != "-" {
		if d := filepath.Dir(target); d != "." {
			if err = os.MkdirAll(d, 0750); err != nil {
				return err
			}
		}
		var file *os.File
		file, err = os.Create(target) //nolint:gosec // path comes from the command line
		if err != nil {
			return fmt.Errorf("creating %s: %w", target, err)
		}
		defer func() {
			if cerr := file.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = file
	}
	n, err := f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("writing input file: %w", err)
	}
	cmdCtx.Logger.Debug("wrote input file", slog.String("target", target), slog.Int64("bytes", n))
	return nil
}
