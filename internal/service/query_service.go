package service

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/trackpoint-dev/locations-backend-go/internal/errs"
	"github.com/trackpoint-dev/locations-backend-go/internal/index"
	"github.com/trackpoint-dev/locations-backend-go/internal/models"
	"github.com/trackpoint-dev/locations-backend-go/internal/store"
)

// QueryService answers read intents over the store and the index. It holds
// no state of its own, so concurrent use needs no coordination here.
type QueryService struct {
	store *store.Store
	index *index.Index
}

// NewQueryService creates a new query service.
func NewQueryService(st *store.Store, ix *index.Index) *QueryService {
	return &QueryService{store: st, index: ix}
}

// LastForDevice returns the last known point for one device, or ErrNotFound
// if the device has never reported.
func (s *QueryService) LastForDevice(user, device string) (*models.Point, error) {
	point, err := s.index.Get(user, device)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return nil, fmt.Errorf("%w: no location for %s/%s", errs.ErrNotFound, user, device)
	}
	return point, nil
}

// LastForUser returns the last known point of every device of one user,
// ordered by device name. Returns ErrNotFound for an unknown user.
func (s *QueryService) LastForUser(user string) ([]models.Point, error) {
	devices, err := s.store.ListDevices(user)
	if err != nil {
		return nil, err
	}

	known := s.index.GetAll(user)
	for _, device := range devices {
		if _, ok := known[device]; ok {
			continue
		}
		// Device directory exists but was never seen this process; rebuild.
		point, err := s.index.Get(user, device)
		if err != nil {
			return nil, err
		}
		if point != nil {
			known[device] = point
		}
	}

	names := make([]string, 0, len(known))
	for device := range known {
		names = append(names, device)
	}
	sort.Strings(names)

	points := make([]models.Point, 0, len(names))
	for _, device := range names {
		points = append(points, *known[device])
	}
	return points, nil
}

// LastAll returns the last known point of every device of every user.
func (s *QueryService) LastAll() []models.Point {
	return s.index.All()
}

// History returns all points for a device inside [from, to], sorted by
// timestamp ascending with arrival order breaking ties. Returns
// ErrInvalidRange if from > to and ErrNotFound for an unknown device.
func (s *QueryService) History(user, device string, from, to int64) ([]models.Point, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from=%d to=%d", errs.ErrInvalidRange, from, to)
	}

	points, skipped, err := s.store.Scan(user, device, from, to)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"user":    user,
			"device":  device,
			"skipped": skipped,
		}).Warn("history scan skipped corrupt records")
	}

	// Segments come back in arrival order; clients expect chronological
	// tracks, and a stable sort keeps arrival order for equal timestamps.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
	return points, nil
}

// ListUsers enumerates all known users.
func (s *QueryService) ListUsers() ([]string, error) {
	users, err := s.store.ListUsers()
	if err != nil {
		return nil, err
	}
	sort.Strings(users)
	return users, nil
}

// ListDevices enumerates the devices of one user. Returns ErrNotFound for an
// unknown user.
func (s *QueryService) ListDevices(user string) ([]string, error) {
	devices, err := s.store.ListDevices(user)
	if err != nil {
		return nil, err
	}
	sort.Strings(devices)
	return devices, nil
}
