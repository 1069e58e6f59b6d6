package models

import "encoding/json"

// BatteryStatus mirrors the numeric battery state of the wire protocol:
// 0=unknown, 1=unplugged, 2=charging, 3=full.
type BatteryStatus int

const (
	BatteryStatusUnknown   BatteryStatus = 0
	BatteryStatusUnplugged BatteryStatus = 1
	BatteryStatusCharging  BatteryStatus = 2
	BatteryStatusFull      BatteryStatus = 3
)

// MonitoringMode mirrors the numeric monitoring mode of the wire protocol:
// -1=quiet, 0=manual, 1=significant, 2=move.
type MonitoringMode int

const (
	MonitoringQuiet       MonitoringMode = -1
	MonitoringManual      MonitoringMode = 0
	MonitoringSignificant MonitoringMode = 1
	MonitoringMove        MonitoringMode = 2
)

// Trigger is the single-letter report trigger of the wire protocol.
type Trigger string

const (
	TriggerPing             Trigger = "p" // background ping
	TriggerCircularRegion   Trigger = "c" // circular region enter/leave
	TriggerBeaconRegion     Trigger = "b" // beacon region enter/leave (iOS)
	TriggerReportResponse   Trigger = "r" // response to a reportLocation cmd
	TriggerManual           Trigger = "u" // user-requested publish
	TriggerTimer            Trigger = "t" // timer based publish in move mode (iOS)
	TriggerLocationServices Trigger = "v" // frequent-locations monitoring (iOS)
)

// Connection is the single-letter connectivity state of the wire protocol.
type Connection string

const (
	ConnectionWifi    Connection = "w"
	ConnectionOffline Connection = "o"
	ConnectionMobile  Connection = "m"
)

// Point is one location report for a (user, device) pair. Field names and
// types follow the established tracking-client wire protocol exactly; only
// lat, lon and tst are required. Fields not known to this server are kept
// verbatim in Extra so newer clients round-trip through storage unchanged.
type Point struct {
	User   string `json:"-"`
	Device string `json:"-"`

	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Timestamp int64   `json:"tst"` // UNIX epoch seconds of the location fix

	// Optional report attributes. Units follow the protocol booklet:
	// acc/alt/rad/vac in meters, batt in percent, cog in degrees, vel in
	// km/h, p in kPa, created_at in epoch seconds (when the message was
	// built, vs. tst which is the time of the fix).
	Accuracy         *int            `json:"acc,omitempty"`
	Altitude         *int            `json:"alt,omitempty"`
	Battery          *int            `json:"batt,omitempty"`
	BatteryStatus    *BatteryStatus  `json:"bs,omitempty"`
	Course           *int            `json:"cog,omitempty"`
	RegionRadius     *int            `json:"rad,omitempty"`
	Trigger          *Trigger        `json:"t,omitempty"`
	TrackerID        *string         `json:"tid,omitempty"`
	VerticalAccuracy *int            `json:"vac,omitempty"`
	Velocity         *int            `json:"vel,omitempty"`
	Pressure         *float64        `json:"p,omitempty"`
	PointOfInterest  *string         `json:"poi,omitempty"`
	Connection       *Connection     `json:"conn,omitempty"`
	SSID             *string         `json:"SSID,omitempty"`
	BSSID            *string         `json:"BSSID,omitempty"`
	Tag              *string         `json:"tag,omitempty"`
	Topic            *string         `json:"topic,omitempty"`
	InRegions        []string        `json:"inregions,omitempty"`
	InRegionIDs      []string        `json:"inrids,omitempty"`
	CreatedAt        *int64          `json:"created_at,omitempty"`
	MonitoringMode   *MonitoringMode `json:"m,omitempty"`

	// Extra holds fields this server does not recognize, raw bytes preserved.
	Extra map[string]json.RawMessage `json:"-"`
}

// pointWire carries the known fields through encoding/json without the
// custom (Un)MarshalJSON recursing.
type pointWire Point

var knownKeys = map[string]struct{}{
	"lat": {}, "lon": {}, "tst": {},
	"acc": {}, "alt": {}, "batt": {}, "bs": {}, "cog": {}, "rad": {},
	"t": {}, "tid": {}, "vac": {}, "vel": {}, "p": {}, "poi": {},
	"conn": {}, "SSID": {}, "BSSID": {}, "tag": {}, "topic": {},
	"inregions": {}, "inrids": {}, "created_at": {}, "m": {},
}

// UnmarshalJSON decodes the known wire fields and collects everything else
// into Extra.
func (p *Point) UnmarshalJSON(data []byte) error {
	var wire pointWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range knownKeys {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*p = Point(wire)
	p.Extra = raw
	return nil
}

// MarshalJSON emits the known fields plus the preserved Extra fields as one
// flat object, matching what the client originally sent.
func (p Point) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(pointWire(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range p.Extra {
		if _, ok := merged[key]; !ok {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// InRange reports whether the coordinates are inside WGS84 bounds.
func (p *Point) InRange() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}
