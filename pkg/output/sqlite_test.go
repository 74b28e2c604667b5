package output

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flickrgeo/pkg/config"
)

func readPhotos(t *testing.T, path string) map[string][3]sql.NullString {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT id, CAST(x AS TEXT), CAST(y AS TEXT), url FROM photos`)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string][3]sql.NullString{}
	for rows.Next() {
		var id string
		var x, y, url sql.NullString
		require.NoError(t, rows.Scan(&id, &x, &y, &url))
		out[id] = [3]sql.NullString{x, y, url}
	}
	require.NoError(t, rows.Err())
	return out
}

func TestSQLiteSink(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		name := "buffered"
		if streaming {
			name = "streaming"
		}
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photos.db")

			sink, err := Open("sqlite", path, streaming)
			require.NoError(t, err)
			require.NoError(t, sink.WriteHeader(Columns))
			require.NoError(t, sink.AppendRow([]string{"a", "2.35", "48.85", "ua"}))
			require.NoError(t, sink.AppendRow([]string{"b", "", "", "ub"}))
			require.NoError(t, sink.Close())

			photos := readPhotos(t, path)
			require.Len(t, photos, 2)
			assert.Equal(t, "2.35", photos["a"][0].String)
			assert.Equal(t, "48.85", photos["a"][1].String)
			assert.Equal(t, "ua", photos["a"][2].String)
			assert.False(t, photos["b"][0].Valid, "empty x is stored as NULL")
			assert.False(t, photos["b"][1].Valid)
		})
	}
}

func TestSQLiteSinkAbortRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.db")

	sink, err := NewSQLiteSink(path, false)
	require.NoError(t, err)
	require.NoError(t, sink.WriteHeader(Columns))
	require.NoError(t, sink.AppendRow([]string{"a", "1", "2", "ua"}))
	require.NoError(t, sink.Abort())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "aborted buffered run must not leave a database")
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary database must be removed")
}

func TestSQLiteSinkBufferedPublishesOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photos.db")

	sink, err := NewSQLiteSink(path, false)
	require.NoError(t, err)
	require.NoError(t, sink.WriteHeader(Columns))
	require.NoError(t, sink.AppendRow([]string{"a", "1", "2", "ua"}))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing is published before Close")

	require.NoError(t, sink.Close())
	assert.Len(t, readPhotos(t, path), 1)
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteSinkReplacesPreviousRun(t *testing.T) {
	for _, streaming := range []bool{false, true} {
		mode := config.ModeBuffered
		if streaming {
			mode = config.ModeStreaming
		}
		t.Run(mode, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "photos.db")

			run := func(ids ...string) {
				sink, err := Open("sqlite", path, streaming)
				require.NoError(t, err)
				writer, err := NewWriter(sink, config.UnlocatedOmit, mode)
				require.NoError(t, err)
				require.NoError(t, writer.Start())
				for _, id := range ids {
					require.NoError(t, writer.Add(located(id, 48.85, 2.35)))
				}
				require.NoError(t, writer.Close())
			}

			run("old1", "old2")
			run("new")

			photos := readPhotos(t, path)
			require.Len(t, photos, 1)
			assert.Contains(t, photos, "new")
		})
	}
}

func TestSQLiteSinkRejectsBadRows(t *testing.T) {
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "photos.db"), true)
	require.NoError(t, err)
	defer sink.Close()

	assert.Error(t, sink.WriteHeader([]string{"id", "url"}))
	require.NoError(t, sink.WriteHeader(Columns))
	assert.Error(t, sink.AppendRow([]string{"a", "east", "2", "u"}))
	assert.Error(t, sink.AppendRow([]string{"a", "1"}))
}
