package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/swmmkit/internal/cli/config"
	"github.com/leapstack-labs/swmmkit/internal/cli/output"
	"github.com/leapstack-labs/swmmkit/internal/loader"
	"github.com/leapstack-labs/swmmkit/internal/store"
	"github.com/leapstack-labs/swmmkit/pkg/swmm"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Loader   *loader.Loader
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Loader:   loader.New(logger),
	}
}

// Warnings returns a collector that logs each warning as it is added.
func (c *CommandContext) Warnings() *swmm.Warnings {
	return &swmm.Warnings{Logger: c.Logger}
}

// OpenStore opens the run store. It returns nil without error when no store
// path is configured.
func (c *CommandContext) OpenStore(ctx context.Context) (*store.Store, error) {
	path := c.Cfg.StorePath
	if path == "" {
		return nil, nil
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
	}
	return store.Open(ctx, path, c.Logger)
}

// Recorder records one run in the store. A nil Recorder does nothing, so
// commands can use it unconditionally.
type Recorder struct {
	st  *store.Store
	run *store.Run
}

// StartRun opens the store and creates a run. Without a configured store it
// returns a nil Recorder.
func (c *CommandContext) StartRun(ctx context.Context, kind store.RunKind, source string) (*Recorder, error) {
	st, err := c.OpenStore(ctx)
	if err != nil || st == nil {
		return nil, err
	}
	run, err := st.CreateRun(ctx, kind, source)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	c.Logger.Debug("recording run", slog.String("id", run.ID), slog.String("kind", string(kind)))
	return &Recorder{st: st, run: run}, nil
}

// Store returns the underlying store, or nil.
func (rec *Recorder) Store() *store.Store {
	if rec == nil {
		return nil
	}
	return rec.st
}

// RunID returns the recorded run id, or "".
func (rec *Recorder) RunID() string {
	if rec == nil {
		return ""
	}
	return rec.run.ID
}

// Finish saves the warnings, marks the run completed or failed and closes
// the store. The returned error is runErr when set.
func (rec *Recorder) Finish(ctx context.Context, warnings []swmm.Warning, runErr error) error {
	if rec == nil {
		return runErr
	}
	defer func() { _ = rec.st.Close() }()
	if err := rec.st.SaveWarnings(ctx, rec.run.ID, warnings); err != nil && runErr == nil {
		runErr = err
	}
	if err := rec.st.CompleteRun(ctx, rec.run.ID, runErr); err != nil && runErr == nil {
		return err
	}
	return runErr
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
