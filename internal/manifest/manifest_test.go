package manifest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *BuildManifest {
	m := New("pass-1", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	m.Status = "built"
	m.Duration = 42
	m.Bundles["css"] = Entry{
		BuildID: "b-1",
		Status:  "built",
		Output:  "/srv/static/gen/site.7ca3f3a5.css",
		URL:     "/static/gen/site.7ca3f3a5.css",
		Hash:    "7ca3f3a5",
		Sources: []string{"/srv/static/a.css", "/srv/static/b.css"},
	}
	m.Bundles["app"] = Entry{Status: "disabled", URLs: []string{"/static/app.js"}}
	return m
}

func TestManifestSerialization(t *testing.T) {
	m := sample()
	data, err := m.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, m, restored)
}

func TestFromJSONInvalid(t *testing.T) {
	_, err := FromJSON([]byte("{"))
	require.Error(t, err)

	m, err := FromJSON([]byte(`{"id":"x"}`))
	require.NoError(t, err)
	assert.NotNil(t, m.Bundles)
}

func TestHashIgnoresRunMetadata(t *testing.T) {
	a := sample()
	b := sample()
	b.ID = "pass-2"
	b.Timestamp = b.Timestamp.Add(time.Hour)
	b.Duration = 7
	e := b.Bundles["css"]
	e.BuildID = "b-2"
	b.Bundles["css"] = e

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	e.Hash = "deadbeef"
	b.Bundles["css"] = e
	hb, err = b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestNamesSorted(t *testing.T) {
	assert.Equal(t, []string{"app", "css"}, sample().Names())
}

func TestWriteAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "manifest.json")

	missing, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, missing)

	m := sample()
	written, err := m.Write(path)
	require.NoError(t, err)
	assert.True(t, written)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Bundles, loaded.Bundles)

	again := sample()
	again.ID = "pass-2"
	written, err = again.Write(path)
	require.NoError(t, err)
	assert.False(t, written)

	loaded, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pass-1", loaded.ID)
}

func TestWriteReplacesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	written, err := sample().Write(path)
	require.NoError(t, err)
	assert.True(t, written)
}
