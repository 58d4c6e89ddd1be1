package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/loader"
	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/leapstack-labs/swmmkit/pkg/table"
	"github.com/leapstack-labs/swmmkit/pkg/trace"
	"github.com/spf13/cobra"
)

// traceOutput is the JSON form of a trace.
type traceOutput struct {
	Start          string                `json:"start"`
	Layer          string                `json:"layer"`
	Direction      string                `json:"direction"`
	Nodes          []string              `json:"nodes"`
	Links          []string              `json:"links"`
	SplittingNodes []string              `json:"splitting_nodes"`
	Outlets        []string              `json:"outlets"`
	Summary        trace.Summary         `json:"summary"`
	Selection      map[string][][]string `json:"selection"`
	Written        string                `json:"written,omitempty"`
	RunID          string                `json:"run_id,omitempty"`
	Warnings       []swmm.Warning        `json:"warnings"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	var (
		starts []string
		write  string
	)
	cmd := &cobra.Command{
		Use:   "trace --start NODE",
		Short: "Select the network upstream or downstream of a node",
		Long: `Walk the drainage network from a start node and list the selected
nodes, links, sub-catchments and rain gages per layer.

Upstream returns everything that drains into the start node, start included.
Downstream returns every link the upstream walk does not reach.

Selections are listed in batches of at most --batch-size handles.
Use --write to save the selected sub-network as a new project.`,
		Example: `  # Everything draining to J2
  swmmkit trace --start J2

  # The rest of the network, as JSON
  swmmkit trace --start J2 --direction downstream -o json

  # Save the upstream sub-network as a project and record the run
  swmmkit trace --start J2 --write ./subnet --store .swmmkit/runs.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrace(cmd, starts, write)
		},
	}

	cmd.Flags().StringSliceVar(&starts, "start", nil, "Start node name (exactly one across all node layers)")
	cmd.Flags().String("direction", "", "Trace direction: upstream or downstream")
	cmd.Flags().Int("batch-size", 0, "Maximum handles per selection batch (1-200)")
	cmd.Flags().StringVar(&write, "write", "", "Write the selected sub-network as a project to this directory")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.RegisterFlagCompletionFunc("direction", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"upstream", "downstream"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTrace(cmd *cobra.Command, starts []string, write string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	ctx := cmd.Context()

	if err := cfg.ValidateProject(); err != nil {
		return err
	}
	dir, err := trace.ParseDirection(cfg.Trace.Direction)
	if err != nil {
		return err
	}

	rec, err := cmdCtx.StartRun(ctx, store.RunTrace, cfg.ProjectDir)
	if err != nil {
		return err
	}
	warn := cmdCtx.Warnings()
	out, err := traceProject(ctx, cmdCtx, rec, starts, dir, write, warn)
	if err = rec.Finish(ctx, warn.List(), err); err != nil {
		return err
	}
	out.RunID = rec.RunID()
	out.Warnings = warn.List()

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeCSV:
		return traceCSV(r, out)
	default:
		traceHuman(r, out)
		return nil
	}
}

func traceProject(ctx context.Context, cmdCtx *CommandContext, rec *Recorder, starts []string, dir trace.Direction, write string, warn *swmm.Warnings) (*traceOutput, error) {
	p, _, err := cmdCtx.Loader.Load(cmdCtx.Cfg.ProjectDir)
	if err != nil {
		return nil, err
	}
	net, err := loader.NetworkOf(p)
	if err != nil {
		return nil, err
	}
	start, err := trace.SelectStart(net.StartCandidates(starts))
	if err != nil {
		return nil, err
	}

	res, err := trace.Trace(net.Nodes, net.Links, start.Name, dir, trace.Options{Logger: cmdCtx.Logger, Warnings: warn})
	if err != nil {
		return nil, err
	}
	sel := res.Select(net.Nodes, net.Links, net.Subcatchments, net.RainGages)

	out := &traceOutput{
		Start:          start.Name,
		Layer:          start.Layer,
		Direction:      dir.String(),
		Nodes:          res.Nodes,
		Links:          res.Links,
		SplittingNodes: res.SplittingNodes,
		Outlets:        res.Outlets,
		Summary:        res.Summarize(net.Links, net.Subcatchments, net.RainGages),
		Selection:      make(map[string][][]string),
	}
	for _, layer := range sel.Layers() {
		out.Selection[layer] = sel.Batches(layer, cmdCtx.Cfg.Trace.BatchSize)
	}

	if st := rec.Store(); st != nil {
		if err := st.SaveSelection(ctx, rec.RunID(), sel); err != nil {
			return nil, err
		}
	}

	if write != "" {
		name := fmt.Sprintf("%s_%s", start.Name, dir)
		if _, err := cmdCtx.Loader.Save(write, name, loader.Subset(p, net, res)); err != nil {
			return nil, fmt.Errorf("writing sub-network: %w", err)
		}
		cmdCtx.Logger.Debug("wrote sub-network", slog.String("dir", write))
		out.Written = write
	}
	return out, nil
}

func traceHuman(r *output.Renderer, out *traceOutput) {
	r.Header(1, fmt.Sprintf("Trace %s from %s (%s)", out.Direction, out.Start, out.Layer))
	r.KeyValues([][2]string{
		{"Nodes", strconv.Itoa(out.Summary.Nodes)},
		{"Links", strconv.Itoa(out.Summary.Links)},
		{"Subcatchments", strconv.Itoa(out.Summary.Subcatchments)},
		{"Rain gages", strconv.Itoa(out.Summary.RainGages)},
		{"Total length", strconv.FormatFloat(out.Summary.TotalLength, 'f', -1, 64)},
		{"Total area", strconv.FormatFloat(out.Summary.TotalArea, 'f', -1, 64)},
		{"Outlets", strings.Join(out.Outlets, ", ")},
	})
	if r.EffectiveMode() == output.ModeText {
		r.Println()
	}

	r.Header(2, "Selection")
	for _, layer := range sortedLayers(out.Selection) {
		batches := out.Selection[layer]
		for i, b := range batches {
			label := layer
			if len(batches) > 1 {
				label = fmt.Sprintf("%s [%d/%d]", layer, i+1, len(batches))
			}
			if r.EffectiveMode() == output.ModeMarkdown {
				r.Println(output.FormatKeyValue(label, strings.Join(b, ", ")))
			} else {
				r.Println(r.Styles().Key.Render(label+":") + " " + strings.Join(b, ", "))
			}
		}
	}
	r.Println()

	if len(out.SplittingNodes) > 0 {
		r.Muted("Splitting nodes: " + strings.Join(out.SplittingNodes, ", "))
	}
	if out.Written != "" {
		r.Success("Sub-network written to " + out.Written)
	}
	if out.RunID != "" {
		r.Muted("Run " + out.RunID)
	}
	r.Warnings(out.Warnings)
}

// traceCSV writes one line per selected handle: layer, batch and handle.
func traceCSV(r *output.Renderer, out *traceOutput) error {
	t := table.New("selection", "Layer", "Batch", "Handle")
	for _, layer := range sortedLayers(out.Selection) {
		for i, b := range out.Selection[layer] {
			for _, h := range b {
				t.Append(table.Row{
					"Layer":  table.Text(layer),
					"Batch":  table.Number(float64(i + 1)),
					"Handle": table.Text(h),
				})
			}
		}
	}
	return r.Table(t)
}

func sortedLayers(sel map[string][][]string) []string {
	s := make(trace.Selection, len(sel))
	for k := range sel {
		s[k] = nil
	}
	return s.Layers()
}
