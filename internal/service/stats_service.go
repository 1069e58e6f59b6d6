package service

import (
	"github.com/golang/geo/s2"

	"github.com/trackpoint-dev/locations-backend-go/internal/models"
)

// EarthRadiusMeters is Earth's mean radius, used to turn great-circle angles
// into distances.
const EarthRadiusMeters = 6371000.0

// StatsService summarizes a device's track over a time window.
type StatsService struct {
	query *QueryService
}

// NewStatsService creates a new stats service over the query engine.
func NewStatsService(query *QueryService) *StatsService {
	return &StatsService{query: query}
}

// Summarize computes point count, great-circle distance, duration and
// average speed over the chronologically ordered track inside [from, to].
// Range and existence errors propagate from the history query.
func (s *StatsService) Summarize(user, device string, from, to int64) (*models.TrackStats, error) {
	points, err := s.query.History(user, device, from, to)
	if err != nil {
		return nil, err
	}

	stats := &models.TrackStats{Count: len(points)}
	if len(points) == 0 {
		return stats, nil
	}

	stats.FirstTimestamp = points[0].Timestamp
	stats.LastTimestamp = points[len(points)-1].Timestamp
	stats.DurationSeconds = stats.LastTimestamp - stats.FirstTimestamp

	for i := 1; i < len(points); i++ {
		stats.DistanceMeters += greatCircleMeters(&points[i-1], &points[i])
	}
	if stats.DurationSeconds > 0 {
		stats.AvgSpeedKmh = stats.DistanceMeters / float64(stats.DurationSeconds) * 3.6
	}
	return stats, nil
}

// greatCircleMeters is the great-circle distance between two points.
func greatCircleMeters(a, b *models.Point) float64 {
	p1 := s2.LatLngFromDegrees(a.Latitude, a.Longitude)
	p2 := s2.LatLngFromDegrees(b.Latitude, b.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}
