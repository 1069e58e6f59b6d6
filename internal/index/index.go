package index

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/trackpoint-dev/locations-backend-go/internal/models"
	"github.com/trackpoint-dev/locations-backend-go/internal/store"
)

// Index is the in-memory last-known-location cache, keyed by (user, device).
// It is derived state: every entry is rebuildable from the store, so losing
// it is never data loss. Points handed out are treated as immutable.
type Index struct {
	store *store.Store

	mu      sync.RWMutex
	entries map[string]*models.Point

	// rebuild collapses concurrent lazy rebuilds of the same device into one
	// store read.
	rebuild singleflight.Group
}

// New creates an empty index backed by the given store.
func New(st *store.Store) *Index {
	return &Index{
		store:   st,
		entries: make(map[string]*models.Point),
	}
}

func entryKey(user, device string) string {
	return user + "/" + device
}

// Update replaces the entry for the point's device if the point is at least
// as new as the current entry: a strictly greater timestamp always wins, and
// an equal timestamp wins because the caller applies updates in durable
// arrival order. Reports whether the entry changed.
func (ix *Index) Update(p *models.Point) bool {
	key := entryKey(p.User, p.Device)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	current, ok := ix.entries[key]
	if ok && p.Timestamp < current.Timestamp {
		return false
	}
	ix.entries[key] = p
	return true
}

// Get returns the last known point for the device, rebuilding the entry from
// the store on first sight of a device this process. Returns (nil, nil) if
// the device has never reported.
func (ix *Index) Get(user, device string) (*models.Point, error) {
	key := entryKey(user, device)

	ix.mu.RLock()
	point, ok := ix.entries[key]
	ix.mu.RUnlock()
	if ok {
		return point, nil
	}

	result, err, _ := ix.rebuild.Do(key, func() (any, error) {
		// Re-check under the flight: an ingest may have raced us here.
		ix.mu.RLock()
		point, ok := ix.entries[key]
		ix.mu.RUnlock()
		if ok {
			return point, nil
		}

		latest, err := ix.store.Latest(user, device)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return nil, nil
		}
		return ix.seedEntry(key, latest), nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	return result.(*models.Point), nil
}

// seedEntry applies a point recovered from the store and returns the entry
// now held for the key. A newer ingest may land between the store read and
// the update, in which case its point wins and is returned.
func (ix *Index) seedEntry(key string, latest *models.Point) *models.Point {
	ix.Update(latest)

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.entries[key]
}

// GetAll returns the last known point of every known device of a user.
func (ix *Index) GetAll(user string) map[string]*models.Point {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	points := make(map[string]*models.Point)
	for _, point := range ix.entries {
		if point.User == user {
			points[point.Device] = point
		}
	}
	return points
}

// All returns the last known point of every device of every user, ordered by
// user then device for stable responses.
func (ix *Index) All() []models.Point {
	ix.mu.RLock()
	keys := make([]string, 0, len(ix.entries))
	for key := range ix.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	points := make([]models.Point, 0, len(keys))
	for _, key := range keys {
		points = append(points, *ix.entries[key])
	}
	ix.mu.RUnlock()
	return points
}

// Warm eagerly seeds the index for every device found in the storage
// namespace. Called once at startup; devices that fail to load are logged
// and skipped so one bad directory does not block serving the rest.
func (ix *Index) Warm() error {
	users, err := ix.store.ListUsers()
	if err != nil {
		return err
	}

	seeded := 0
	for _, user := range users {
		devices, err := ix.store.ListDevices(user)
		if err != nil {
			logrus.WithError(err).WithField("user", user).Warn("index warm-up: listing devices failed")
			continue
		}
		for _, device := range devices {
			if _, err := ix.Get(user, device); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"user":   user,
					"device": device,
				}).Warn("index warm-up: rebuild failed")
				continue
			}
			seeded++
		}
	}
	logrus.WithField("devices", seeded).Info("last-location index warmed")
	return nil
}
