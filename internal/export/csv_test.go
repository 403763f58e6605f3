package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []Record{{0, 72}, {1, 58}, {2, 130.5}})
	require.NoError(t, err)
	assert.Equal(t, "time,heart_rate\n0,72\n1,58\n2,130.5\n", buf.String())
}

func TestWriteCSVEmptySession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "time,heart_rate\n", buf.String())
}

func TestSaveCSVTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session_heart_rate.csv")
	require.NoError(t, SaveCSV(path, []Record{{0, 1}, {1, 2}, {2, 3}}))
	require.NoError(t, SaveCSV(path, []Record{{5, 90}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time,heart_rate\n5,90\n", string(data))
}

func TestSaveCSVBadPath(t *testing.T) {
	err := SaveCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.ErrorContains(t, err, "open csv")
}
