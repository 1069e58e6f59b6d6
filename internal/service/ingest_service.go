package service

import (
	"github.com/trackpoint-dev/locations-backend-go/internal/codec"
	"github.com/trackpoint-dev/locations-backend-go/internal/index"
	"github.com/trackpoint-dev/locations-backend-go/internal/models"
	"github.com/trackpoint-dev/locations-backend-go/internal/store"
)

// IngestService is the single write path. It serializes concurrent writers
// per (user, device) and applies each accepted report to the store and the
// index in that order, so an acknowledged write is durable and immediately
// visible to last-location queries.
type IngestService struct {
	store *store.Store
	index *index.Index
	locks *deviceLocks
}

// NewIngestService creates a new ingest service.
func NewIngestService(st *store.Store, ix *index.Index) *IngestService {
	return &IngestService{
		store: st,
		index: ix,
		locks: newDeviceLocks(),
	}
}

// Ingest validates and persists one location report for the given routing
// keys. Malformed and out-of-range reports are rejected before any lock is
// taken. If the durable append fails the index is left untouched and the
// error surfaces for this request only.
func (s *IngestService) Ingest(user, device string, body []byte) (*models.Point, error) {
	point, err := codec.DecodeReport(user, device, body)
	if err != nil {
		return nil, err
	}

	key := user + "/" + device
	lock := s.locks.acquire(key)
	defer s.locks.release(key, lock)

	if err := s.store.Append(point); err != nil {
		return nil, err
	}
	s.index.Update(point)
	return point, nil
}
