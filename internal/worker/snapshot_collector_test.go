package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"aucwatch/internal/domain/entity"
	"aucwatch/internal/domain/value"
)

func int64Ptr(v int64) *int64 { return &v }

func floatPtr(v float64) *float64 { return &v }

type snapshotUpdate struct {
	id       int64
	current  float64
	previous *float64
}

type fakeFavorites struct {
	mu      sync.Mutex
	active  []entity.Favorite
	listErr error
	updates []snapshotUpdate
	alerted []int64
}

func (f *fakeFavorites) ListActive(context.Context) ([]entity.Favorite, error) {
	return f.active, f.listErr
}

func (f *fakeFavorites) UpdateSnapshot(_ context.Context, id int64, current float64, previous *float64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, snapshotUpdate{id: id, current: current, previous: previous})
	return nil
}

func (f *fakeFavorites) MarkAlerted(_ context.Context, id int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerted = append(f.alerted, id)
	return nil
}

type fakeSnapshots struct {
	mu       sync.Mutex
	snaps    map[string]*value.Snapshot
	buildErr map[string]error
	built    []string
	saved    []string
	blockOn  chan struct{}
}

func (f *fakeSnapshots) BuildSnapshotForGroup(_ context.Context, key, _ string, _ entity.Favorite) (*value.Snapshot, error) {
	if f.blockOn != nil {
		<-f.blockOn
	}

	f.mu.Lock()
	f.built = append(f.built, key)
	f.mu.Unlock()

	if err, ok := f.buildErr[key]; ok {
		return nil, err
	}

	return f.snaps[key], nil
}

func (f *fakeSnapshots) SaveSnapshot(_ context.Context, key string, _ value.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, key)
	return nil
}

func marketFavorite(id, itemID int64) entity.Favorite {
	return entity.Favorite{
		ID:     id,
		Source: value.SourceMarket,
		Name:   "파괴석 결정",
		ItemID: int64Ptr(itemID),
		Active: true,
	}
}

func TestSnapshotCollectorGroupsFavorites(t *testing.T) {
	favorites := &fakeFavorites{active: []entity.Favorite{
		marketFavorite(1, 100),
		marketFavorite(2, 100), // same listing, must share one upstream call
		marketFavorite(3, 200),
		{ID: 4, Source: value.SourceMarket, Name: "깨진 것", Active: true}, // no item id
	}}

	snapshots := &fakeSnapshots{snaps: map[string]*value.Snapshot{
		"market:100": {CurrentPrice: 10, PreviousPrice: floatPtr(12)},
		"market:200": {CurrentPrice: 20},
	}}

	collector := NewSnapshotCollector(favorites, snapshots, 2)

	require.NoError(t, collector.Run(context.Background()))

	require.ElementsMatch(t, []string{"market:100", "market:200"}, snapshots.built)
	require.ElementsMatch(t, []string{"market:100", "market:200"}, snapshots.saved)

	require.Len(t, favorites.updates, 3, "the favorite without identity is skipped")

	byID := map[int64]snapshotUpdate{}
	for _, u := range favorites.updates {
		byID[u.id] = u
	}

	require.InDelta(t, 10, byID[1].current, 0)
	require.InDelta(t, 10, byID[2].current, 0)
	require.NotNil(t, byID[1].previous)
	require.InDelta(t, 12, *byID[1].previous, 0)
	require.InDelta(t, 20, byID[3].current, 0)
}

func TestSnapshotCollectorMissSkipsUpdate(t *testing.T) {
	favorites := &fakeFavorites{active: []entity.Favorite{marketFavorite(1, 100)}}
	snapshots := &fakeSnapshots{snaps: map[string]*value.Snapshot{}} // vanished listing

	collector := NewSnapshotCollector(favorites, snapshots, 1)

	require.NoError(t, collector.Run(context.Background()))
	require.Empty(t, favorites.updates, "stale prices are kept when the listing is gone")
	require.Empty(t, snapshots.saved)
}

func TestSnapshotCollectorGroupFailureIsolated(t *testing.T) {
	favorites := &fakeFavorites{active: []entity.Favorite{
		marketFavorite(1, 100),
		marketFavorite(2, 200),
	}}

	snapshots := &fakeSnapshots{
		snaps:    map[string]*value.Snapshot{"market:200": {CurrentPrice: 5}},
		buildErr: map[string]error{"market:100": errors.New("upstream exploded")},
	}

	collector := NewSnapshotCollector(favorites, snapshots, 2)

	require.NoError(t, collector.Run(context.Background()))
	require.Len(t, favorites.updates, 1)
	require.Equal(t, int64(2), favorites.updates[0].id)
}

func TestSnapshotCollectorRunGuard(t *testing.T) {
	favorites := &fakeFavorites{active: []entity.Favorite{marketFavorite(1, 100)}}
	snapshots := &fakeSnapshots{
		snaps:   map[string]*value.Snapshot{"market:100": {CurrentPrice: 1}},
		blockOn: make(chan struct{}),
	}

	collector := NewSnapshotCollector(favorites, snapshots, 1)

	done := make(chan error, 1)
	go func() { done <- collector.Run(context.Background()) }()

	require.Eventually(t, collector.IsRunning, time.Second, time.Millisecond)

	require.ErrorIs(t, collector.Run(context.Background()), ErrRunInProgress)

	close(snapshots.blockOn)
	require.NoError(t, <-done)

	require.False(t, collector.IsRunning())
	require.NoError(t, collector.Run(context.Background()), "guard must release after the run")
}

func TestSnapshotCollectorListError(t *testing.T) {
	listErr := errors.New("db down")
	favorites := &fakeFavorites{listErr: listErr}

	collector := NewSnapshotCollector(favorites, &fakeSnapshots{}, 1)

	require.ErrorIs(t, collector.Run(context.Background()), listErr)
	require.False(t, collector.IsRunning())
}
