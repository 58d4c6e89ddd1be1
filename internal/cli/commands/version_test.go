package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		info    BuildInfo
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "release build",
			info:    BuildInfo{Version: "0.1.0", Commit: "unknown", BuildDate: "unknown"},
			want:    []string{"swmmkit v0.1.0", "INP/RPT"},
			notWant: []string{"commit"},
		},
		{
			name: "with commit",
			info: BuildInfo{Version: "1.2.3", Commit: "abc1234", BuildDate: "2026-01-02"},
			want: []string{"swmmkit v1.2.3", "commit abc1234, built 2026-01-02"},
		},
		{
			name:    "short",
			info:    BuildInfo{Version: "dev"},
			args:    []string{"--short"},
			want:    []string{"dev\n"},
			notWant: []string{"swmmkit"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.info)
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(append([]string{}, tt.args...))

			require.NoError(t, cmd.Execute())
			out := buf.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}
}

func TestVersionCommand_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand(BuildInfo{Version: "0.1.0"})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})
	assert.Error(t, cmd.Execute())
}
