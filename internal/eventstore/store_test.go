package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetbuilder/internal/events"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPublishAndRecent(t *testing.T) {
	store := newStore(t)
	ctx := t.Context()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Publish(ctx, events.BundleEvent{
		BuildID: "b1", Bundle: "css", Status: "built", Hash: "7ca3f3a5",
		Output: "/srv/gen/site.7ca3f3a5.css", URL: "/static/gen/site.7ca3f3a5.css",
		Sources: 2, DurationMS: 12, Timestamp: ts,
	}))
	require.NoError(t, store.Publish(ctx, events.BundleEvent{BuildID: "b1", Bundle: "js", Status: "built"}))
	require.NoError(t, store.Publish(ctx, events.BundleEvent{BuildID: "b2", Bundle: "css", Status: "built", Hash: "0cc175b9"}))

	all, err := store.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "0cc175b9", all[0].Hash)
	assert.Equal(t, "js", all[1].Bundle)

	css, err := store.Recent(ctx, "css", 1)
	require.NoError(t, err)
	require.Len(t, css, 1)
	assert.Equal(t, "b2", css[0].BuildID)

	first, err := store.ByBuildID(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, first, 2)
	got := first[0]
	assert.Equal(t, events.TypeBundleBuilt, got.Type)
	assert.Equal(t, "/static/gen/site.7ca3f3a5.css", got.URL)
	assert.Equal(t, 2, got.Sources)
	assert.Equal(t, int64(12), got.DurationMS)
	assert.True(t, ts.Equal(got.Timestamp))
}

func TestHistoryPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Publish(t.Context(), events.BundleEvent{BuildID: "b1", Bundle: "css", Status: "built"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	recs, err := reopened.Recent(t.Context(), "css", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestUnknownBuildIsEmpty(t *testing.T) {
	recs, err := newStore(t).ByBuildID(t.Context(), "nope")
	require.NoError(t, err)
	assert.Empty(t, recs)
}
