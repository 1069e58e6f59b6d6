package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/trackpoint-dev/locations-backend-go/internal/codec"
	"github.com/trackpoint-dev/locations-backend-go/internal/errs"
	"github.com/trackpoint-dev/locations-backend-go/internal/models"
)

// maxLineBytes bounds a single stored record during scans. Reports carry an
// open set of extra fields, so lines can be large but never unbounded.
const maxLineBytes = 1 << 20

// Store is the append-only device log store. Each (user, device) pair owns a
// directory of monthly segment files under the storage root:
//
//	<root>/<user>/<device>/<YYYY>-<MM>
//
// One record per line, ISO-8601 UTC tag, tab, JSON. Files are append-only and
// never rewritten in place; this layout is operator-visible and stable.
type Store struct {
	root string
}

// New creates a store over the given root directory. The directory must
// already exist; config validates that at startup.
func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) devicePath(user, device string) string {
	return filepath.Join(s.root, user, device)
}

// Append durably appends one point to the segment file addressed by the
// point's timestamp, creating directories and the segment as needed. The
// record is synced to disk before Append returns. I/O failures surface as
// ErrStoreUnavailable and fail only this append.
func (s *Store) Append(p *models.Point) error {
	line, err := codec.EncodeLine(p)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrStoreUnavailable, err)
	}

	dir := s.devicePath(p.User, p.Device)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create device directory: %v", errs.ErrStoreUnavailable, err)
	}

	path := filepath.Join(dir, segmentName(p.Timestamp))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open segment: %v", errs.ErrStoreUnavailable, err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("%w: append record: %v", errs.ErrStoreUnavailable, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: sync segment: %v", errs.ErrStoreUnavailable, err)
	}
	return nil
}

// Scan reads all points for (user, device) with timestamps inside [from, to],
// in arrival order per segment and calendar order across segments. Each call
// re-reads the files; there is no shared cursor. Lines that fail to decode
// are skipped and counted, never fatal. Returns ErrNotFound if the device has
// no log directory.
func (s *Store) Scan(user, device string, from, to int64) ([]models.Point, int, error) {
	dir := s.devicePath(user, device)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: no log for %s/%s", errs.ErrNotFound, user, device)
		}
		return nil, 0, fmt.Errorf("%w: read device directory: %v", errs.ErrStoreUnavailable, err)
	}

	var points []models.Point
	skipped := 0

	// os.ReadDir sorts by name, which for YYYY-MM names is calendar order.
	for _, entry := range entries {
		if entry.IsDir() || !segmentOverlaps(entry.Name(), from, to) {
			continue
		}
		segPoints, segSkipped, err := s.readSegment(user, device, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, skipped, err
		}
		skipped += segSkipped
		for i := range segPoints {
			if ts := segPoints[i].Timestamp; ts >= from && ts <= to {
				points = append(points, segPoints[i])
			}
		}
	}
	return points, skipped, nil
}

// readSegment reads one segment file in on-disk order, skipping and counting
// corrupt lines.
func (s *Store) readSegment(user, device, path string) ([]models.Point, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: open segment: %v", errs.ErrStoreUnavailable, err)
	}
	defer f.Close()

	var points []models.Point
	skipped := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		point, err := codec.DecodeLine(user, device, line)
		if err != nil {
			skipped++
			continue
		}
		points = append(points, *point)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("%w: read segment: %v", errs.ErrStoreUnavailable, err)
	}
	return points, skipped, nil
}

// Latest returns the most recently appended decodable point for the device,
// scanning segments newest month first. Returns (nil, nil) if the device has
// never reported. Used only for index rebuilds, never on the query hot path.
func (s *Store) Latest(user, device string) (*models.Point, error) {
	dir := s.devicePath(user, device)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read device directory: %v", errs.ErrStoreUnavailable, err)
	}

	var names []string
	for _, entry := range entries {
		if _, _, ok := segmentBounds(entry.Name()); ok && !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	for _, name := range names {
		points, _, err := s.readSegment(user, device, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if len(points) > 0 {
			return &points[len(points)-1], nil
		}
	}
	return nil, nil
}

// ListUsers enumerates users from the storage namespace.
func (s *Store) ListUsers() ([]string, error) {
	return listDir(s.root)
}

// ListDevices enumerates devices of one user. Returns ErrNotFound for a user
// with no directory, mirroring the established query API.
func (s *Store) ListDevices(user string) ([]string, error) {
	devices, err := listDir(filepath.Join(s.root, user))
	if err != nil {
		return nil, err
	}
	if devices == nil {
		return nil, fmt.Errorf("%w: no such user %q", errs.ErrNotFound, user)
	}
	return devices, nil
}

func listDir(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read directory: %v", errs.ErrStoreUnavailable, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
