//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/osudump/osudump/internal/config"
	"github.com/osudump/osudump/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{
		Path: filepath.Join(t.TempDir(), "history", "osudump.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestOpenMemoryHistory(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{Path: ":memory:"})
	require.NoError(t, err)
	require.NotNil(t, store)
	require.NoError(t, store.Migrate(ctx))

	snapshots, err := store.ListSnapshots(ctx, "", 0)
	require.NoError(t, err)
	require.Empty(t, snapshots)
	require.NoError(t, store.Close())
}

func TestOpenWithoutLocation(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{})
	require.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	sets := []core.BeatmapsetSummary{
		{
			SetID:     1,
			Artist:    "xi",
			Creator:   "Nakagawa-Kanon",
			Title:     "FREEDOM DiVE",
			PlayCount: 13,
			BeatmapBreakdown: []core.BeatmapSummary{
				{ID: 10, DifficultyRating: 5, Mode: "osu", Status: "ranked", PlayCount: 10},
				{ID: 11, DifficultyRating: 6.2, Mode: "osu", Status: "ranked", PlayCount: 3},
			},
		},
	}

	snapshot := &Snapshot{
		UserID:      "7562902",
		Modes:       []string{"standard"},
		Limit:       5,
		RecordCount: 3,
		Sets:        sets,
	}
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))
	require.NotEmpty(t, snapshot.ID)
	require.False(t, snapshot.FetchedAt.IsZero())
	require.Equal(t, 1, snapshot.SetCount)
	require.Equal(t, int64(13), snapshot.TotalPlays)

	loaded, err := store.GetSnapshot(ctx, snapshot.ID)
	require.NoError(t, err)
	require.Equal(t, snapshot.ID, loaded.ID)
	require.Equal(t, "7562902", loaded.UserID)
	require.Equal(t, []string{"standard"}, loaded.Modes)
	require.Equal(t, 5, loaded.Limit)
	require.False(t, loaded.Exact)
	require.Equal(t, 3, loaded.RecordCount)
	require.True(t, snapshot.FetchedAt.Equal(loaded.FetchedAt))
	require.Equal(t, sets, loaded.Sets)
}

func TestGetSnapshotNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetSnapshot(context.Background(), "missing")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestListSnapshots(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, user := range []string{"1", "2", "1"} {
		require.NoError(t, store.SaveSnapshot(ctx, &Snapshot{
			ID:        user + "-" + string(rune('a'+i)),
			UserID:    user,
			Exact:     i == 2,
			FetchedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, err := store.ListSnapshots(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"1-c", "2-b", "1-a"}, []string{all[0].ID, all[1].ID, all[2].ID})
	require.True(t, all[0].Exact)
	require.Nil(t, all[0].Sets)
	require.Equal(t, []string{}, all[0].Modes)

	mine, err := store.ListSnapshots(ctx, "1", 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	latest, err := store.ListSnapshots(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	require.Equal(t, "1-c", latest[0].ID)
}
