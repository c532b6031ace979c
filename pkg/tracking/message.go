package tracking

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/pasearch/trackd/pkg/types"
)

// Inbound message kinds consumed from the push channel
const (
	msgTrackingUpdate = "tracking_update"
	msgDeviceFrozen   = "device_frozen"
)

// envelope is the outer frame of every push-channel message
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// trackingUpdate is the raw wire form of a tracking_update payload.
// Numeric fields arrive as numbers or as strings depending on the tracker;
// flexFloat and flexTime absorb both.
type trackingUpdate struct {
	IMEI        string    `json:"imei"`
	Latitude    flexFloat `json:"latitude"`
	Longitude   flexFloat `json:"longitude"`
	Address     string    `json:"address"`
	TrackedAt   flexTime  `json:"trackedAt"`
	Status      string    `json:"status"`
	TrackerName string    `json:"trackerName"`
}

type deviceFrozen struct {
	IMEI string `json:"imei"`
}

// flexFloat is a float64 that tolerates string encoding and junk input.
// Unparseable values leave Valid false instead of failing the message.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		f.Value = n
		f.Valid = true
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f.Value = n
			f.Valid = true
		}
	}
	return nil
}

// flexTime accepts ISO-8601 strings, epoch seconds, or epoch strings
type flexTime struct {
	Value time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			t.Value = ts
			return nil
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			t.Value = time.Unix(int64(secs), 0)
		}
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err == nil {
		t.Value = time.Unix(int64(secs), 0)
	}
	return nil
}

// normalizeUpdate turns a raw tracking_update payload into the canonical
// event. The second return is false when the message is malformed (no
// IMEI) and must be dropped.
//
// Missing or non-numeric coordinates are coerced to 0 with HasFix unset,
// so the bad fix is flagged instead of rendered as a false (0,0) marker.
func normalizeUpdate(data []byte, receivedAt time.Time) (types.TrackingEvent, bool) {
	var raw trackingUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.TrackingEvent{}, false
	}
	if raw.IMEI == "" {
		return types.TrackingEvent{}, false
	}

	ev := types.TrackingEvent{
		IMEI:        raw.IMEI,
		Latitude:    raw.Latitude.Value,
		Longitude:   raw.Longitude.Value,
		HasFix:      raw.Latitude.Valid && raw.Longitude.Valid,
		Address:     raw.Address,
		Status:      types.ParseDeviceStatus(raw.Status),
		TrackerName: raw.TrackerName,
		TrackedAt:   raw.TrackedAt.Value,
	}
	if ev.TrackedAt.IsZero() {
		ev.TrackedAt = receivedAt
	}
	return ev, true
}
