// File: cmd/compare_test.go
package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "page.html", testDoc)
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	wider := filepath.Join(dir, "wider.json")

	_, err := runRoot(t, "", "layout", doc, "-o", first)
	require.NoError(t, err)
	_, err = runRoot(t, "", "layout", doc, "-o", second)
	require.NoError(t, err)
	_, err = runRoot(t, "", "layout", doc, "-o", wider, "--width", "900")
	require.NoError(t, err)

	t.Run("Same Layout In Two Runs", func(t *testing.T) {
		out, err := runRoot(t, "", "compare", first, second)
		require.NoError(t, err)
		assert.Contains(t, out, "layouts are equivalent")
	})

	t.Run("Different Viewport", func(t *testing.T) {
		out, err := runRoot(t, "", "compare", first, wider)
		assert.ErrorIs(t, err, ErrLayoutsDiffer)
		assert.Contains(t, out, "900")
	})

	t.Run("Missing Dump", func(t *testing.T) {
		_, err := runRoot(t, "", "compare", first, filepath.Join(dir, "absent.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read dump")
	})
}
