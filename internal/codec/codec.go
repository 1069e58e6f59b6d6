package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/trackpoint-dev/locations-backend-go/internal/errs"
	"github.com/trackpoint-dev/locations-backend-go/internal/models"
)

// lineTimeLayout is the fixed-width UTC tag written before each stored JSON
// record so operators can grep/sort segment files by time without parsing.
const lineTimeLayout = "2006-01-02T15:04:05Z"

// DecodeReport parses an incoming location report for the given routing keys
// into a Point. Required fields are lat, lon and tst; unknown fields are kept
// in Extra. Returns ErrMalformedReport or ErrOutOfRange on bad input.
func DecodeReport(user, device string, body []byte) (*models.Point, error) {
	if !ValidIdentifier(user) || !ValidIdentifier(device) {
		return nil, fmt.Errorf("%w: invalid user or device identifier", errs.ErrMalformedReport)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedReport, err)
	}
	for _, required := range []string{"lat", "lon", "tst"} {
		value, ok := raw[required]
		// A literal null would silently decode to a zero value, so it
		// counts as missing.
		if !ok || bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, fmt.Errorf("%w: missing required field %q", errs.ErrMalformedReport, required)
		}
	}

	var point models.Point
	if err := json.Unmarshal(body, &point); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedReport, err)
	}
	if !point.InRange() {
		return nil, fmt.Errorf("%w: lat=%v lon=%v", errs.ErrOutOfRange, point.Latitude, point.Longitude)
	}

	point.User = user
	point.Device = device
	return &point, nil
}

// EncodeLine serializes a Point to its on-disk form: a fixed-width ISO-8601
// UTC tag derived from tst, a tab, the JSON record, and a newline.
func EncodeLine(p *models.Point) ([]byte, error) {
	record, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode point: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(time.Unix(p.Timestamp, 0).UTC().Format(lineTimeLayout))
	buf.WriteByte('\t')
	buf.Write(record)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// DecodeLine parses one stored segment line back into a Point, attaching the
// routing keys it was stored under. Any failure marks the line corrupt; the
// caller decides whether to skip or surface it.
func DecodeLine(user, device string, line []byte) (*models.Point, error) {
	tab := bytes.IndexByte(line, '\t')
	if tab < 0 {
		return nil, fmt.Errorf("segment line has no timestamp tag")
	}

	var point models.Point
	if err := json.Unmarshal(line[tab+1:], &point); err != nil {
		return nil, fmt.Errorf("decode segment line: %w", err)
	}
	if !point.InRange() {
		return nil, fmt.Errorf("segment line out of range: lat=%v lon=%v", point.Latitude, point.Longitude)
	}

	point.User = user
	point.Device = device
	return &point, nil
}

// ValidIdentifier reports whether a user or device routing key is safe to use
// as a path element of the storage layout.
func ValidIdentifier(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
