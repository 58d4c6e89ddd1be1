package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/spf13/cobra"
)

var errNoStore = errors.New("no run store configured\nHint: pass --store or set store in swmmkit.yaml")

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		Long: `List the runs recorded in the run store, newest first.

Runs are recorded by trace, export, import and report when a store path is
configured.`,
		Example: `  swmmkit runs --store .swmmkit/runs.db
  swmmkit runs show 3f2c... -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runListRuns(cmd, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.AddCommand(newRunShowCommand())
	return cmd
}

func newRunShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show a recorded run with its warnings, selection and report topics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowRun(cmd, args[0])
		},
	}
}

func runListRuns(cmd *cobra.Command, limit int) error {
	cmdCtx := NewCommandContext(cmd)
	st, err := cmdCtx.OpenStore(cmd.Context())
	if err != nil {
		return err
	}
	if st == nil {
		return errNoStore
	}
	defer func() { _ = st.Close() }()

	runs, err := st.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*store.Run{}
		}
		return r.JSON(runs)
	}
	t := table.New("runs", "ID", "Kind", "Status", "Started", "Source")
	for _, run := range runs {
		t.Append(table.Row{
			"ID":      table.Text(run.ID),
			"Kind":    table.Text(string(run.Kind)),
			"Status":  table.Text(string(run.Status)),
			"Started": table.Text(run.StartedAt.Format(time.RFC3339)),
			"Source":  table.Text(run.Source),
		})
	}
	if r.EffectiveMode() != output.ModeCSV {
		r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	}
	return r.Table(t)
}

type runDetail struct {
	*store.Run
	Warnings  []swmm.Warning      `json:"warnings"`
	Selection map[string][]string `json:"selection,omitempty"`
	Topics    []string            `json:"report_topics,omitempty"`
}

func runShowRun(cmd *cobra.Command, id string) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	st, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		return errNoStore
	}
	defer func() { _ = st.Close() }()

	run, err := st.GetRun(ctx, id)
	if err != nil {
		return err
	}
	d := runDetail{Run: run}
	if d.Warnings, err = st.Warnings(ctx, id); err != nil {
		return err
	}
	sel, err := st.Selection(ctx, id)
	if err != nil {
		return err
	}
	d.Selection = sel
	if d.Topics, err = st.ReportTopics(ctx, id); err != nil {
		return err
	}
	if d.Warnings == nil {
		d.Warnings = []swmm.Warning{}
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(d)
	}

	r.Header(1, "Run "+run.ID)
	pairs := [][2]string{
		{"Kind", string(run.Kind)},
		{"Status", string(run.Status)},
		{"Source", run.Source},
		{"Started", run.StartedAt.Format(time.RFC3339)},
	}
	if run.CompletedAt != nil {
		pairs = append(pairs, [2]string{"Completed", run.CompletedAt.Format(time.RFC3339)})
	}
	if run.Error != "" {
		pairs = append(pairs, [2]string{"Error", run.Error})
	}
	for _, layer := range sel.Layers() {
		pairs = append(pairs, [2]string{"Selected " + layer, strconv.Itoa(len(sel[layer]))})
	}
	if len(d.Topics) > 0 {
		pairs = append(pairs, [2]string{"Report topics", strings.Join(d.Topics, ", ")})
	}
	r.KeyValues(pairs)
	r.Warnings(d.Warnings)
	return nil
}
