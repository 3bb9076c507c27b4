package migrations

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_HasSchema(t *testing.T) {
	files, err := fs.Glob(FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	body, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	for _, table := range []string{"notification_log", "prayer_log", "outbox"} {
		assert.Contains(t, string(body), table)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	err := Run(context.Background(), nil, "redo-all")
	assert.ErrorContains(t, err, "unknown migration command")
}
