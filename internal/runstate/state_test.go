package runstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, &State{}, s)
	assert.False(t, s.Unchanged("a", "", ""))
}

func TestSaveLoadAndDigest(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "prices.tsv")
	require.NoError(t, os.WriteFile(input, []byte("Month\tDay\n"), 0644))

	digest, err := FileDigest(input)
	require.NoError(t, err)
	assert.Len(t, digest, 64)

	path := filepath.Join(dir, "state", "last_run.json")
	require.NoError(t, Save(path, &State{
		Source: "file:" + input, InputDigest: digest, SettingsDigest: "s1",
		NewestDate: "2024-01-02", LastRunID: "r1",
	}))

	s, err := Load(path)
	require.NoError(t, err)
	assert.True(t, s.Unchanged("file:"+input, digest, "s1"))
	assert.False(t, s.UpdatedAt.IsZero())

	assert.False(t, s.Unchanged("file:"+input, digest, "s2"), "settings changed")
	assert.False(t, s.Unchanged("static", digest, "s1"), "source changed")

	require.NoError(t, os.WriteFile(input, []byte("Month\tDay\tYear\n"), 0644))
	changed, err := FileDigest(input)
	require.NoError(t, err)
	assert.False(t, s.Unchanged("file:"+input, changed, "s1"))

	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestJSONDigest(t *testing.T) {
	type settings struct {
		Window int
		Edges  []float64
	}
	a, err := JSONDigest(settings{Window: 1400, Edges: []float64{-3, 0, 3}})
	require.NoError(t, err)
	b, err := JSONDigest(settings{Window: 1400, Edges: []float64{-3, 0, 3}})
	require.NoError(t, err)
	c, err := JSONDigest(settings{Window: 5, Edges: []float64{-3, 0, 3}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = JSONDigest(func() {})
	assert.Error(t, err)
}
