package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"github.com/leapstack-labs/swmmkit/pkg/table"
)

// Loader reads and writes project directories.
type Loader struct {
	logger *slog.Logger
}

// New returns a loader. A nil logger discards output.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// Load reads every table listed in the manifest of dir. Table sources are
// set to the kind name so node and link layers are named after their kind.
func (l *Loader) Load(dir string) (inp.Project, *Manifest, error) {
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, nil, err
	}
	p := make(inp.Project, len(m.Tables))
	for _, kind := range m.Kinds() {
		t, err := l.readTable(filepath.Join(dir, m.Tables[kind]), kind)
		if err != nil {
			return nil, nil, err
		}
		p[kind] = t
	}
	l.logger.Debug("loaded project",
		slog.String("dir", dir),
		slog.String("name", m.Name),
		slog.Int("tables", len(p)))
	return p, m, nil
}

func (l *Loader) readTable(path string, kind inp.Kind) (*table.Table, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the project manifest
	if err != nil {
		return nil, fmt.Errorf("opening %s table: %w", kind, err)
	}
	defer func() { _ = f.Close() }()

	t, err := table.ReadCSV(f, string(kind))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	l.logger.Debug("read table", slog.String("kind", string(kind)), slog.Int("rows", t.Len()))
	return t, nil
}

// Save writes every table of p as <kind>.csv into dir along with a
// manifest named name. dir is created if needed.
func (l *Loader) Save(dir, name string, p inp.Project) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating project directory: %w", err)
	}
	m := &Manifest{Name: name, Tables: make(map[inp.Kind]string, len(p))}
	for _, kind := range inp.Kinds {
		t := p[kind]
		if t == nil {
			continue
		}
		file := string(kind) + ".csv"
		if err := writeTable(filepath.Join(dir, file), t); err != nil {
			return nil, fmt.Errorf("writing %s: %w", kind, err)
		}
		m.Tables[kind] = file
		l.logger.Debug("wrote table", slog.String("kind", string(kind)), slog.Int("rows", t.Len()))
	}
	if err := WriteManifest(dir, m); err != nil {
		return nil, err
	}
	return m, nil
}

func writeTable(path string, t *table.Table) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is built from the output directory
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return table.WriteCSV(f, t)
}
