package prefs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/endless/internal/prefs"
)

func TestAutoLoad_DefaultsToFalseAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	p, err := prefs.Open(path)
	require.NoError(t, err)

	on, err := p.AutoLoad()
	require.NoError(t, err)
	assert.False(t, on)

	v, ok := p.Get("autoLoaderState")
	require.True(t, ok)
	assert.Equal(t, "false", v)

	require.NoError(t, p.SetAutoLoad(true))

	reopened, err := prefs.Open(path)
	require.NoError(t, err)
	on, err = reopened.AutoLoad()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestAutoLoad_GarbageIsOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autoLoaderState: maybe\n"), 0644))

	p, err := prefs.Open(path)
	require.NoError(t, err)

	on, err := p.AutoLoad()
	require.NoError(t, err)
	assert.False(t, on)
}

func TestOpen_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("[not a map"), 0644))

	_, err := prefs.Open(path)
	assert.Error(t, err)
}

func TestAppearance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")

	p, err := prefs.Open(path)
	require.NoError(t, err)
	assert.Equal(t, prefs.Appearance{}, p.Appearance())

	require.NoError(t, p.SetAppearance(prefs.Appearance{Theme: "Linen", LineSpacing: 2}))

	reopened, err := prefs.Open(path)
	require.NoError(t, err)
	assert.Equal(t, prefs.Appearance{Theme: "Linen", LineSpacing: 2}, reopened.Appearance())

	require.NoError(t, reopened.Set("readerLineSpacing", "wide"))
	assert.Equal(t, prefs.Appearance{Theme: "Linen"}, reopened.Appearance())
}
