package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmigrate/internal/testutil"
)

func TestRun_DebouncesSQLChanges(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{Dir: dir, Debounce: 50 * time.Millisecond, Logger: testutil.NewTestLogger(t)}, func(path string) {
			changes <- path
		})
	}()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	path := filepath.Join(dir, "orders.sql")
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("SELECT 1;"), 0o600))
	}

	select {
	case got := <-changes:
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-changes:
		t.Fatalf("burst reported twice: %s", got)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_MissingDir(t *testing.T) {
	err := Run(context.Background(), Config{Dir: filepath.Join(t.TempDir(), "missing")}, func(string) {})
	assert.Error(t, err)
}

func TestHasExt(t *testing.T) {
	assert.True(t, hasExt("a/b.SQL", []string{".sql"}))
	assert.False(t, hasExt("a/b.txt", []string{".sql"}))
}
