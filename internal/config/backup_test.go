package config

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupMissingFileIsNoop(t *testing.T) {
	backup, err := Backup(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, backup)
}

func TestBackupCreatesTimestampedCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))

	backup, err := Backup(path)
	require.NoError(t, err)
	assert.Contains(t, backup, "config.yaml"+BackupSuffix+".")

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, "log:\n  level: warn\n", string(data))

	// The original stays in place.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestBackupRotationDropsOldest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	// Fabricate old backups with staggered timestamps; Backup itself
	// cannot produce several within one second.
	base := time.Now().Add(-24 * time.Hour)
	var fabricated []string
	for i := 0; i < MaxBackups+1; i++ {
		p := path + BackupSuffix + ".20240101-00000" + strconv.Itoa(i)
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
		require.NoError(t, os.Chtimes(p, base, base.Add(time.Duration(i)*time.Hour)))
		fabricated = append(fabricated, p)
	}

	_, err := Backup(path)
	require.NoError(t, err)

	backups, err := listBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)

	// The two oldest fabricated backups are gone.
	for _, p := range fabricated[:2] {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "expected %s to be rotated away", p)
	}
}

func TestListBackupsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	base := time.Now().Add(-time.Hour)
	older := path + BackupSuffix + ".20240101-000000"
	newer := path + BackupSuffix + ".20240102-000000"
	require.NoError(t, os.WriteFile(older, []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("{}"), 0o644))
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	backups, err := listBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, newer, backups[0])
	assert.Equal(t, older, backups[1])
}

func TestListBackupsMissingDirIsEmpty(t *testing.T) {
	backups, err := listBackups(filepath.Join(t.TempDir(), "nowhere", "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, backups)
}
