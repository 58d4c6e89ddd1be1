// Package loader reads and writes swmmkit projects: a directory of CSV
// tables, one per table kind, described by a YAML manifest.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/swmmkit/pkg/inp"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the manifest name inside a project directory.
const ManifestFile = "project.yaml"

// Manifest describes a project directory.
type Manifest struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Tables maps table kinds to CSV paths relative to the project directory.
	Tables map[inp.Kind]string `yaml:"tables"`
}

// ManifestParseError reports an invalid manifest.
type ManifestParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *ManifestParseError) Unwrap() error { return e.Err }

// Kinds returns the manifest's table kinds in encoding order.
func (m *Manifest) Kinds() []inp.Kind {
	var out []inp.Kind
	for _, k := range inp.Kinds {
		if _, ok := m.Tables[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// ReadManifest reads the manifest of dir. A directory without a manifest
// gets one discovered from the <kind>.csv files it contains.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Discover(dir)
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// ParseManifest decodes manifest YAML. Unknown fields and unknown table
// kinds are rejected.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	m := &Manifest{}
	if err := dec.Decode(m); err != nil {
		return nil, &ManifestParseError{Path: path, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	for kind, file := range m.Tables {
		if _, err := inp.ParseKind(string(kind)); err != nil {
			return nil, &ManifestParseError{Path: path, Message: err.Error(), Err: err}
		}
		if strings.TrimSpace(file) == "" {
			return nil, &ManifestParseError{Path: path, Message: fmt.Sprintf("table %s has no file", kind)}
		}
	}
	return m, nil
}

// Discover builds a manifest from the CSV files of dir whose base name is a
// table kind. Other files are ignored.
func Discover(dir string) (*Manifest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading project directory: %w", err)
	}
	m := &Manifest{Name: filepath.Base(dir), Tables: map[inp.Kind]string{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		kind, err := inp.ParseKind(strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name))))
		if err != nil {
			continue
		}
		m.Tables[kind] = name
	}
	return m, nil
}

// WriteManifest writes m into dir.
func WriteManifest(dir string, m *Manifest) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), buf.Bytes(), 0o600)
}
