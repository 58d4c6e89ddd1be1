package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE.inp [DIR]",
		Short: "Convert a SWMM input file into project tables",
		Long: `Decode the sections of a SWMM input file into one CSV table per kind
and write them, with a project.yaml manifest, to DIR.

DIR defaults to the configured project directory.`,
		Example: `  # Import into ./network
  swmmkit import model.inp ./network

  # Import, then list the tables as JSON
  swmmkit import model.inp ./network -o json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}
			return runImport(cmd, args[0], dir)
		},
	}
	return cmd
}

type importOutput struct {
	Source   string         `json:"source"`
	Dir      string         `json:"dir"`
	Tables   map[string]int `json:"tables"`
	RunID    string         `json:"run_id,omitempty"`
	Warnings []swmm.Warning `json:"warnings"`
}

func runImport(cmd *cobra.Command, source, dir string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	if dir == "" {
		dir = cmdCtx.Cfg.ProjectDir
	}

	rec, err := cmdCtx.StartRun(ctx, store.RunImport, source)
	if err != nil {
		return err
	}
	warn := cmdCtx.Warnings()
	p, err := importINP(cmdCtx, source, dir, warn)
	if err = rec.Finish(ctx, warn.List(), err); err != nil {
		return err
	}

	out := importOutput{Source: source, Dir: dir, Tables: map[string]int{}, RunID: rec.RunID(), Warnings: warn.List()}
	summary := table.New("tables", "Kind", "Rows")
	for _, kind := range inp.Kinds {
		t := p[kind]
		if t == nil {
			continue
		}
		out.Tables[string(kind)] = t.Len()
		summary.Append(table.Row{"Kind": table.Text(string(kind)), "Rows": table.Number(float64(t.Len()))})
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeCSV:
		return r.Table(summary)
	}
	r.Header(1, fmt.Sprintf("Imported %s", filepath.Base(source)))
	if err := r.Table(summary); err != nil {
		return err
	}
	r.Success(fmt.Sprintf("Wrote %d tables to %s", summary.Len(), dir))
	r.Warnings(out.Warnings)
	return nil
}

func importINP(cmdCtx *CommandContext, source, dir string, warn *swmm.Warnings) (inp.Project, error) {
	fh, err := os.Open(source) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer func() { _ = fh.Close() }()

	f, err := inp.Read(fh)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", source, err)
	}
	p, err := inp.NewDecoder(cmdCtx.Logger, warn).Decode(f)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	if _, err := cmdCtx.Loader.Save(dir, name, p); err != nil {
		return nil, err
	}
	return p, nil
}
