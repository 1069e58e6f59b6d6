package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trackpoint-dev/locations-backend-go/internal/errs"
	"github.com/trackpoint-dev/locations-backend-go/internal/models"
)

func TestDecodeReport_RequiredFields(t *testing.T) {
	point, err := DecodeReport("alice", "phone", []byte(`{"lat":52.5,"lon":13.4,"tst":1000}`))
	require.NoError(t, err)
	require.Equal(t, "alice", point.User)
	require.Equal(t, "phone", point.Device)
	require.Equal(t, 52.5, point.Latitude)
	require.Equal(t, 13.4, point.Longitude)
	require.Equal(t, int64(1000), point.Timestamp)
}

func TestDecodeReport_MissingRequiredField(t *testing.T) {
	for _, body := range []string{
		`{"lon":13.4,"tst":1000}`,
		`{"lat":52.5,"tst":1000}`,
		`{"lat":52.5,"lon":13.4}`,
	} {
		_, err := DecodeReport("alice", "phone", []byte(body))
		require.ErrorIs(t, err, errs.ErrMalformedReport, "body %s", body)
	}
}

func TestDecodeReport_NullRequiredField(t *testing.T) {
	for _, body := range []string{
		`{"lat":null,"lon":13.4,"tst":1000}`,
		`{"lat":52.5,"lon":null,"tst":1000}`,
		`{"lat":52.5,"lon":13.4,"tst":null}`,
		`{"lat":null,"lon":null,"tst":null}`,
	} {
		_, err := DecodeReport("alice", "phone", []byte(body))
		require.ErrorIs(t, err, errs.ErrMalformedReport, "body %s", body)
	}
}

func TestDecodeReport_WrongFieldType(t *testing.T) {
	_, err := DecodeReport("alice", "phone", []byte(`{"lat":"north","lon":13.4,"tst":1000}`))
	require.ErrorIs(t, err, errs.ErrMalformedReport)

	_, err = DecodeReport("alice", "phone", []byte(`{"lat":52.5,"lon":13.4,"tst":1000,"acc":"high"}`))
	require.ErrorIs(t, err, errs.ErrMalformedReport)
}

func TestDecodeReport_NotJSON(t *testing.T) {
	_, err := DecodeReport("alice", "phone", []byte(`lat=52.5`))
	require.ErrorIs(t, err, errs.ErrMalformedReport)
}

func TestDecodeReport_OutOfRange(t *testing.T) {
	for _, body := range []string{
		`{"lat":90.5,"lon":13.4,"tst":1000}`,
		`{"lat":-91,"lon":13.4,"tst":1000}`,
		`{"lat":52.5,"lon":180.1,"tst":1000}`,
		`{"lat":52.5,"lon":-200,"tst":1000}`,
	} {
		_, err := DecodeReport("alice", "phone", []byte(body))
		require.ErrorIs(t, err, errs.ErrOutOfRange, "body %s", body)
		require.False(t, errors.Is(err, errs.ErrMalformedReport))
	}
}

func TestDecodeReport_BadIdentifiers(t *testing.T) {
	body := []byte(`{"lat":52.5,"lon":13.4,"tst":1000}`)
	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := DecodeReport(name, "phone", body)
		require.ErrorIs(t, err, errs.ErrMalformedReport, "user %q", name)
		_, err = DecodeReport("alice", name, body)
		require.ErrorIs(t, err, errs.ErrMalformedReport, "device %q", name)
	}
}

func TestDecodeReport_PreservesUnknownFields(t *testing.T) {
	body := []byte(`{"lat":52.5,"lon":13.4,"tst":1000,"_type":"location","future_field":{"a":[1,2]}}`)
	point, err := DecodeReport("alice", "phone", body)
	require.NoError(t, err)
	require.Len(t, point.Extra, 2)
	require.JSONEq(t, `"location"`, string(point.Extra["_type"]))
	require.JSONEq(t, `{"a":[1,2]}`, string(point.Extra["future_field"]))
}

func TestEncodeLine_TagFormat(t *testing.T) {
	point := &models.Point{User: "alice", Device: "phone", Latitude: 52.5, Longitude: 13.4, Timestamp: 1700000000}
	line, err := EncodeLine(point)
	require.NoError(t, err)

	tab := bytes.IndexByte(line, '\t')
	require.Equal(t, len("2006-01-02T15:04:05Z"), tab, "fixed-width tag before the tab")
	require.Equal(t, "2023-11-14T22:13:20Z", string(line[:tab]))
	require.Equal(t, byte('\n'), line[len(line)-1])

	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(line[tab+1:len(line)-1], &onDisk))
	require.Equal(t, 52.5, onDisk["lat"])
}

func TestLineRoundTrip(t *testing.T) {
	acc := 12
	batt := 77
	bs := models.BatteryStatusCharging
	trig := models.TriggerPing
	conn := models.ConnectionWifi
	ssid := "home-wifi"
	tid := "AP"
	vel := 4
	mode := models.MonitoringMove
	created := int64(1699999999)

	point := &models.Point{
		User:           "alice",
		Device:         "phone",
		Latitude:       52.5,
		Longitude:      13.4,
		Timestamp:      1700000000,
		Accuracy:       &acc,
		Battery:        &batt,
		BatteryStatus:  &bs,
		Trigger:        &trig,
		Connection:     &conn,
		SSID:           &ssid,
		TrackerID:      &tid,
		Velocity:       &vel,
		MonitoringMode: &mode,
		CreatedAt:      &created,
		InRegions:      []string{"Home", "Garage"},
		Extra: map[string]json.RawMessage{
			"_type":  json.RawMessage(`"location"`),
			"custom": json.RawMessage(`{"nested":true}`),
		},
	}

	line, err := EncodeLine(point)
	require.NoError(t, err)

	decoded, err := DecodeLine("alice", "phone", bytes.TrimSuffix(line, []byte("\n")))
	require.NoError(t, err)
	require.Equal(t, point, decoded)
}

func TestDecodeLine_Corrupt(t *testing.T) {
	for _, line := range []string{
		"no tab here",
		"2023-11-14T22:13:20Z\tnot json",
		"2023-11-14T22:13:20Z\t{\"lat\":52.5,\"lon\":13.4,\"tst\":1000",
		"2023-11-14T22:13:20Z\t{\"lat\":999,\"lon\":13.4,\"tst\":1000}",
	} {
		_, err := DecodeLine("alice", "phone", []byte(line))
		require.Error(t, err, "line %q", line)
	}
}

func TestValidIdentifier(t *testing.T) {
	require.True(t, ValidIdentifier("alice"))
	require.True(t, ValidIdentifier("phone-2.test"))
	require.False(t, ValidIdentifier(""))
	require.False(t, ValidIdentifier(".."))
	require.False(t, ValidIdentifier("a/b"))
	require.False(t, ValidIdentifier("a\x00b"))
}
