package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFileAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("batch\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestNext_PicksMostRecent(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	older := filepath.Join(dir, "bpy331_20260301.dat")
	newer := filepath.Join(dir, "bpy331_20260302.dat")
	writeFileAt(t, older, now.Add(-2*time.Hour))
	writeFileAt(t, newer, now.Add(-1*time.Hour))

	finder := NewFinder(dir, filepath.Join(dir, "processed.log"), 5*time.Minute)
	got, err := finder.Next(now)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestNext_SkipsNonBatchFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeFileAt(t, filepath.Join(dir, "notes.txt"), now.Add(-time.Hour))
	writeFileAt(t, filepath.Join(dir, "bpy331_20260301.log"), now.Add(-time.Hour))

	finder := NewFinder(dir, filepath.Join(dir, "processed.log"), 0)
	_, err := finder.Next(now)
	assert.ErrorIs(t, err, ErrNoEligibleFile)
}

func TestNext_SkipsProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	batch := filepath.Join(dir, "bpy331_20260301.dat")
	writeFileAt(t, batch, now.Add(-time.Hour))

	ledger := filepath.Join(dir, "processed.log")
	finder := NewFinder(dir, ledger, 0)
	require.NoError(t, finder.MarkProcessed(batch))

	_, err := finder.Next(now)
	assert.ErrorIs(t, err, ErrNoEligibleFile)
}

func TestNext_SkipsFilesInsideSettleWindow(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	settled := filepath.Join(dir, "bpy331_20260301.dat")
	fresh := filepath.Join(dir, "bpy331_20260302.dat")
	writeFileAt(t, settled, now.Add(-time.Hour))
	writeFileAt(t, fresh, now.Add(-time.Minute))

	finder := NewFinder(dir, filepath.Join(dir, "processed.log"), 5*time.Minute)
	got, err := finder.Next(now)
	require.NoError(t, err)
	assert.Equal(t, settled, got, "a file still inside the settle window is left for a later run")
}

func TestNext_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	finder := NewFinder(dir, filepath.Join(dir, "processed.log"), 0)

	_, err := finder.Next(time.Now())
	assert.ErrorIs(t, err, ErrNoEligibleFile)
}

func TestMarkProcessed_Appends(t *testing.T) {
	dir := t.TempDir()
	ledger := filepath.Join(dir, "logs", "processed.log")
	finder := NewFinder(dir, ledger, 0)

	require.NoError(t, finder.MarkProcessed("/data/bpy331_a.dat"))
	require.NoError(t, finder.MarkProcessed("/data/bpy331_b.dat"))

	data, err := os.ReadFile(ledger)
	require.NoError(t, err)
	assert.Equal(t, "/data/bpy331_a.dat\n/data/bpy331_b.dat\n", string(data))
}
