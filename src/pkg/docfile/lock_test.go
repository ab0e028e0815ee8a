package docfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	l := NewLockManager(path)

	assert.False(t, l.IsLocked())

	require.NoError(t, l.Acquire(LockInfo{Path: path, From: "1", To: "4", BackupPath: path + ".backup_x"}))
	assert.True(t, l.IsLocked())

	info, err := l.Info()
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "1", info.From)
	assert.Equal(t, "4", info.To)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.False(t, info.StartTime.IsZero())

	require.NoError(t, l.Release())
	assert.False(t, l.IsLocked())

	info, err = l.Info()
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestLockDoubleAcquire(t *testing.T) {
	l := NewLockManager(filepath.Join(t.TempDir(), "doc.json"))
	require.NoError(t, l.Acquire(LockInfo{From: "1", To: "2"}))
	assert.Error(t, l.Acquire(LockInfo{From: "1", To: "2"}))
}

func TestLockReleaseUnheld(t *testing.T) {
	l := NewLockManager(filepath.Join(t.TempDir(), "doc.json"))
	assert.NoError(t, l.Release())
}
