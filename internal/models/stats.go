package models

// TrackStats summarizes the chronologically ordered track of one device over
// a time window.
type TrackStats struct {
	Count           int     `json:"count"`
	DistanceMeters  float64 `json:"distance_m"`
	DurationSeconds int64   `json:"duration_s"`
	AvgSpeedKmh     float64 `json:"avg_speed_kmh"`
	FirstTimestamp  int64   `json:"first_tst,omitempty"`
	LastTimestamp   int64   `json:"last_tst,omitempty"`
}
