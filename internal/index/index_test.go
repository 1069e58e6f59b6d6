package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trackpoint-dev/locations-backend-go/internal/models"
	"github.com/trackpoint-dev/locations-backend-go/internal/store"
)

func testPoint(user, device string, ts int64, lat float64) *models.Point {
	return &models.Point{User: user, Device: device, Latitude: lat, Longitude: 13.4, Timestamp: ts}
}

func TestUpdate_NewerWins(t *testing.T) {
	ix := New(store.New(t.TempDir()))

	require.True(t, ix.Update(testPoint("alice", "phone", 1000, 52.5)))
	require.True(t, ix.Update(testPoint("alice", "phone", 2000, 52.6)))

	point, err := ix.Get("alice", "phone")
	require.NoError(t, err)
	require.Equal(t, int64(2000), point.Timestamp)
}

func TestUpdate_OlderIsIgnored(t *testing.T) {
	ix := New(store.New(t.TempDir()))

	require.True(t, ix.Update(testPoint("alice", "phone", 2000, 52.6)))
	require.False(t, ix.Update(testPoint("alice", "phone", 1000, 52.5)))

	point, err := ix.Get("alice", "phone")
	require.NoError(t, err)
	require.Equal(t, int64(2000), point.Timestamp)
}

func TestUpdate_EqualTimestampLaterArrivalWins(t *testing.T) {
	ix := New(store.New(t.TempDir()))

	require.True(t, ix.Update(testPoint("alice", "phone", 1000, 52.5)))
	require.True(t, ix.Update(testPoint("alice", "phone", 1000, 52.6)))

	point, err := ix.Get("alice", "phone")
	require.NoError(t, err)
	require.Equal(t, 52.6, point.Latitude)
}

func TestGet_LazyRebuildFromStore(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Append(testPoint("alice", "phone", 1000, 52.5)))
	require.NoError(t, st.Append(testPoint("alice", "phone", 2000, 52.6)))

	// Fresh index for the same storage root: first Get must seed from disk.
	ix := New(st)
	point, err := ix.Get("alice", "phone")
	require.NoError(t, err)
	require.NotNil(t, point)
	require.Equal(t, int64(2000), point.Timestamp)
}

func TestSeedEntry_LosingRaceReturnsNewerEntry(t *testing.T) {
	ix := New(store.New(t.TempDir()))

	// An ingest lands after the store read but before the seed: the seed
	// must hand back the newer entry, not the stale point it read.
	require.True(t, ix.Update(testPoint("alice", "phone", 2000, 52.6)))

	point := ix.seedEntry(entryKey("alice", "phone"), testPoint("alice", "phone", 1000, 52.5))
	require.Equal(t, int64(2000), point.Timestamp)

	current, err := ix.Get("alice", "phone")
	require.NoError(t, err)
	require.Equal(t, int64(2000), current.Timestamp)
}

func TestGet_NeverReportedDevice(t *testing.T) {
	ix := New(store.New(t.TempDir()))

	point, err := ix.Get("alice", "ghost")
	require.NoError(t, err)
	require.Nil(t, point)
}

func TestGetAll(t *testing.T) {
	ix := New(store.New(t.TempDir()))
	ix.Update(testPoint("alice", "phone", 1000, 52.5))
	ix.Update(testPoint("alice", "tablet", 2000, 52.6))
	ix.Update(testPoint("bob", "phone", 3000, 48.1))

	all := ix.GetAll("alice")
	require.Len(t, all, 2)
	require.Equal(t, int64(1000), all["phone"].Timestamp)
	require.Equal(t, int64(2000), all["tablet"].Timestamp)
}

func TestAll_SortedByUserThenDevice(t *testing.T) {
	ix := New(store.New(t.TempDir()))
	ix.Update(testPoint("bob", "phone", 3000, 48.1))
	ix.Update(testPoint("alice", "tablet", 2000, 52.6))
	ix.Update(testPoint("alice", "phone", 1000, 52.5))

	points := ix.All()
	require.Len(t, points, 3)
	require.Equal(t, "alice", points[0].User)
	require.Equal(t, "phone", points[0].Device)
	require.Equal(t, "alice", points[1].User)
	require.Equal(t, "tablet", points[1].Device)
	require.Equal(t, "bob", points[2].User)
}

func TestWarm_SeedsAllKnownDevices(t *testing.T) {
	st := store.New(t.TempDir())
	require.NoError(t, st.Append(testPoint("alice", "phone", 1000, 52.5)))
	require.NoError(t, st.Append(testPoint("bob", "watch", 2000, 48.1)))

	ix := New(st)
	require.NoError(t, ix.Warm())
	require.Len(t, ix.All(), 2)
}
