package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchive_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := NewLocalArchive(dir)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC) }

	info, err := a.Save(ctx, "../../etc/Checking1.csv", "batch-1", strings.NewReader("Date,Amount\n"))
	require.NoError(t, err)
	assert.Equal(t, "Checking1.csv", info.Name)
	assert.Equal(t, "batch-1", info.BatchID)
	assert.EqualValues(t, 12, info.Size)
	assert.True(t, strings.HasPrefix(info.Path, "2026-01"+string(filepath.Separator)))

	rc, got, err := a.Open(ctx, info.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "Date,Amount\n", string(data))
	assert.Equal(t, info.ID, got.ID)

	list, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, a.Delete(ctx, info.ID))
	_, err = os.Stat(filepath.Join(dir, info.Path))
	assert.True(t, os.IsNotExist(err))

	_, _, err = a.Open(ctx, info.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalArchive_ListOrder(t *testing.T) {
	ctx := context.Background()
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a.csv", "b.csv", "c.csv"} {
		offset := time.Duration(i) * time.Hour
		a.now = func() time.Time { return base.Add(offset) }
		_, err := a.Save(ctx, name, "", strings.NewReader(name))
		require.NoError(t, err)
	}

	list, err := a.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "a.csv", list[0].Name)
	assert.Equal(t, "c.csv", list[2].Name)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"statement.csv":     "statement.csv",
		"a/b/c.xlsx":        "c.xlsx",
		`C:\Users\me\x.csv`: "x.csv",
		"what?*.csv":        "what__.csv",
		"":                  "statement",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestLocalArchive_DeleteUnknown(t *testing.T) {
	a, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, a.Delete(context.Background(), uuid.New()), ErrNotFound)
}
