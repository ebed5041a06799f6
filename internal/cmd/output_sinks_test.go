package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteRenderedStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRendered("", &buf, "hello"))
	require.Equal(t, "hello\n", buf.String())

	buf.Reset()
	require.NoError(t, writeRendered("-", &buf, "done\n"))
	require.Equal(t, "done\n", buf.String())
}

func TestWriteRenderedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "most-played.json")

	var buf bytes.Buffer
	require.NoError(t, writeRendered(path, &buf, "[]"))
	require.Empty(t, buf.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]\n", string(data))
}
