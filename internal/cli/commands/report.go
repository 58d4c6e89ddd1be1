package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/rpt"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	var all, watch bool
	cmd := &cobra.Command{
		Use:   "report FILE.rpt [TOPIC...]",
		Short: "Parse summary tables out of a SWMM report file",
		Long: `Parse the summary sections of a SWMM report file into tables.

Topics are named like "node_depth" or by their section title ("Node Depth
Summary"). Without topics the configured report.topics are used; when none
are configured, or with --all, every supported topic in the report is parsed.

With --watch the report is parsed again each time the file changes, until
interrupted.`,
		Example: `  # Every topic present in the report
  swmmkit report model.rpt

  # Node depths as CSV
  swmmkit report model.rpt node_depth -o csv

  # Re-parse link flows whenever SWMM rewrites the report
  swmmkit report model.rpt link_flow --watch --debounce 1s`,
		Args: cobra.MinimumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return []string{"rpt"}, cobra.ShellCompDirectiveFilterFileExt
			}
			return rpt.Topics(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := reportOptions{path: args[0], topics: args[1:], all: all}
			if !watch {
				return runReport(cmd, opts)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			cmdCtx := NewCommandContext(cmd)
			return watchFile(ctx, opts.path, cmdCtx.Cfg.Report.Debounce, cmdCtx.Logger, func() error {
				return runReport(cmd, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Parse every supported topic present in the report")
	cmd.Flags().BoolVar(&watch, "watch", false, "Parse again whenever the report file changes")
	cmd.Flags().Duration("debounce", 0, "Quiet period before re-parsing in watch mode")

	return cmd
}

type reportOptions struct {
	path   string
	topics []string
	all    bool
}

type topicOutput struct {
	Topic   string          `json:"topic"`
	Title   string          `json:"title"`
	Columns []string        `json:"columns"`
	Rows    []output.Record `json:"rows"`
}

type reportOutput struct {
	File     string        `json:"file"`
	Encoding string        `json:"encoding"`
	Topics   []topicOutput `json:"topics"`
	RunID    string        `json:"run_id,omitempty"`
}

func runReport(cmd *cobra.Command, opts reportOptions) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	topics := opts.topics
	if len(topics) == 0 && !opts.all {
		topics = cmdCtx.Cfg.Report.Topics
	}

	rec, err := cmdCtx.StartRun(ctx, store.RunReport, opts.path)
	if err != nil {
		return err
	}
	rep, results, err := parseReport(cmdCtx, opts.path, topics, opts.all)
	if err == nil && rec != nil {
		for _, res := range results {
			if err = rec.Store().SaveReport(ctx, rec.RunID(), res.Topic, res.Table); err != nil {
				break
			}
		}
	}
	if err = rec.Finish(ctx, nil, err); err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := reportOutput{File: opts.path, Encoding: rep.Encoding, Topics: []topicOutput{}, RunID: rec.RunID()}
		for _, res := range results {
			t, _ := rpt.LookupTopic(res.Topic)
			out.Topics = append(out.Topics, topicOutput{
				Topic: res.Topic, Title: t.Title, Columns: res.Table.Columns, Rows: output.TableRecords(res.Table),
			})
		}
		return r.JSON(out)
	case output.ModeCSV:
		if len(results) != 1 {
			return fmt.Errorf("csv output needs exactly one topic, got %d", len(results))
		}
		return r.Table(results[0].Table)
	}

	r.Header(1, filepath.Base(opts.path))
	if len(results) == 0 {
		r.Muted("No supported summary sections found")
		return nil
	}
	for _, res := range results {
		r.Header(2, output.Title(res.Topic))
		if err := r.Table(res.Table); err != nil {
			return err
		}
		if r.EffectiveMode() == output.ModeText {
			r.Println()
		}
	}
	if id := rec.RunID(); id != "" {
		r.Muted("Run " + id)
	}
	return nil
}

func parseReport(cmdCtx *CommandContext, path string, topics []string, all bool) (*rpt.Report, []rpt.Result, error) {
	fh, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, nil, fmt.Errorf("opening report: %w", err)
	}
	defer func() { _ = fh.Close() }()

	rep, err := rpt.Read(fh, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	if all || len(topics) == 0 {
		results, err := rep.ParseAll()
		return rep, results, err
	}

	results := make([]rpt.Result, 0, len(topics))
	for _, name := range topics {
		topic, err := rpt.LookupTopic(name)
		if err != nil {
			return nil, nil, err
		}
		t, err := rep.Section(topic.Name)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, rpt.Result{Topic: topic.Name, Table: t})
	}
	return rep, results, nil
}

// watchFile runs fn once, then again after every change to path that is
// followed by a quiet period of debounce. The directory is watched rather
// than the file so that editors and SWMM replacing the file are noticed.
// It returns when ctx is done or the watcher fails to start.
func watchFile(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, fn func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	run := func() {
		mu.Lock()
		defer mu.Unlock()
		if err := fn(); err != nil {
			logger.Error("parse failed", slog.String("file", abs), slog.String("error", err.Error()))
		}
	}
	run()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching for changes", slog.String("file", abs), slog.Duration("debounce", debounce))

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				if ctx.Err() != nil {
					return
				}
				logger.Debug("change detected", slog.String("file", abs))
				run()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Warn("watcher overflow, parsing again", slog.String("file", abs))
				go run()
				continue
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
