package store

import (
	"time"
)

// segmentLayout names one monthly segment file, e.g. "2025-08". Segment
// files are addressed by the point's own timestamp, not arrival time.
const segmentLayout = "2006-01"

// segmentName returns the segment file name covering the given epoch second.
func segmentName(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(segmentLayout)
}

// segmentBounds returns the [start, end) epoch-second window of a segment
// file name, or ok=false if the name is not a segment.
func segmentBounds(name string) (start, end int64, ok bool) {
	month, err := time.Parse(segmentLayout, name)
	if err != nil {
		return 0, 0, false
	}
	return month.Unix(), month.AddDate(0, 1, 0).Unix(), true
}

// segmentOverlaps reports whether the named segment can contain timestamps
// inside [from, to].
func segmentOverlaps(name string, from, to int64) bool {
	start, end, ok := segmentBounds(name)
	if !ok {
		return false
	}
	return start <= to && end > from
}
