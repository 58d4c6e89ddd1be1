package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	logtest "github.com/leapstack-labs/swmmkit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touchUntilCalled rewrites path until fn has run again. The watcher is
// registered asynchronously, so a single early write may go unnoticed.
func touchUntilCalled(t *testing.T, path string, calls <-chan struct{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(sampleReport), 0600)
		select {
		case <-calls:
			return true
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchFile_ReparsesOnChange(t *testing.T) {
	path := writeReport(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 20*time.Millisecond, slog.New(slog.DiscardHandler), func() error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("initial parse did not run")
	}
	touchUntilCalled(t, path, calls)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchFile_IgnoresOtherFiles(t *testing.T) {
	path := writeReport(t)
	ctx, cancel := context.WithCancel(context.Background())

	var n atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 10*time.Millisecond, slog.New(slog.DiscardHandler), func() error {
			n.Add(1)
			return nil
		})
	}()

	require.Eventually(t, func() bool { return n.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	sibling := filepath.Join(filepath.Dir(path), "model.out")
	for range 3 {
		require.NoError(t, os.WriteFile(sibling, []byte("binary"), 0600))
		time.Sleep(30 * time.Millisecond)
	}
	assert.Equal(t, int32(1), n.Load())

	cancel()
	require.NoError(t, <-done)
}

func TestWatchFile_ParseErrorsAreLogged(t *testing.T) {
	path := writeReport(t)
	ctx, cancel := context.WithCancel(context.Background())
	logger, logs := logtest.NewCaptureLogger(slog.LevelDebug)

	calls := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 10*time.Millisecond, logger, func() error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return errors.New("truncated report")
		})
	}()

	<-calls
	touchUntilCalled(t, path, calls)
	cancel()
	require.NoError(t, <-done, "parse errors do not end the watch")
	assert.Contains(t, logs.String(), "truncated report")
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gone", "model.rpt")
	var ran bool
	err := watchFile(context.Background(), path, time.Millisecond, slog.New(slog.DiscardHandler), func() error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, ran, "the first parse runs before watching starts")
}
