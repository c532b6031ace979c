package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasearch/trackd/pkg/types"
)

func TestNormalizeUpdate(t *testing.T) {
	received := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payload  string
		ok       bool
		expected types.TrackingEvent
	}{
		{
			name:    "complete update",
			payload: `{"imei":"350000000000001","latitude":6.52,"longitude":3.37,"address":"Ikeja, Lagos","trackedAt":"2026-03-01T11:59:30Z","status":"Lost","trackerName":"patrol-7"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:        "350000000000001",
				Latitude:    6.52,
				Longitude:   3.37,
				HasFix:      true,
				Address:     "Ikeja, Lagos",
				Status:      types.StatusLost,
				TrackerName: "patrol-7",
				TrackedAt:   time.Date(2026, 3, 1, 11, 59, 30, 0, time.UTC),
			},
		},
		{
			name:    "missing imei is dropped",
			payload: `{"latitude":1,"longitude":2}`,
			ok:      false,
		},
		{
			name:    "empty imei is dropped",
			payload: `{"imei":"","latitude":1,"longitude":2}`,
			ok:      false,
		},
		{
			name:    "not json is dropped",
			payload: `tracking!`,
			ok:      false,
		},
		{
			name:    "string coordinates are accepted",
			payload: `{"imei":"1","latitude":"6.52","longitude":"3.37"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  6.52,
				Longitude: 3.37,
				HasFix:    true,
				Status:    types.StatusUnknown,
				TrackedAt: received,
			},
		},
		{
			name:    "junk coordinates coerce to zero without a fix",
			payload: `{"imei":"1","latitude":"not-a-number","longitude":3.37}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Longitude: 3.37,
				HasFix:    false,
				Status:    types.StatusUnknown,
				TrackedAt: received,
			},
		},
		{
			name:    "missing coordinates coerce to zero without a fix",
			payload: `{"imei":"1"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				HasFix:    false,
				Status:    types.StatusUnknown,
				TrackedAt: received,
			},
		},
		{
			name:    "epoch seconds timestamp",
			payload: `{"imei":"1","latitude":1,"longitude":2,"trackedAt":1767225600}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  1,
				Longitude: 2,
				HasFix:    true,
				Status:    types.StatusUnknown,
				TrackedAt: time.Unix(1767225600, 0),
			},
		},
		{
			name:    "epoch string timestamp",
			payload: `{"imei":"1","latitude":1,"longitude":2,"trackedAt":"1767225600"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  1,
				Longitude: 2,
				HasFix:    true,
				Status:    types.StatusUnknown,
				TrackedAt: time.Unix(1767225600, 0),
			},
		},
		{
			name:    "unparseable timestamp falls back to receipt time",
			payload: `{"imei":"1","latitude":1,"longitude":2,"trackedAt":"yesterday-ish"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  1,
				Longitude: 2,
				HasFix:    true,
				Status:    types.StatusUnknown,
				TrackedAt: received,
			},
		},
		{
			name:    "unrecognized status maps to unknown",
			payload: `{"imei":"1","latitude":1,"longitude":2,"status":"Vaporized"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  1,
				Longitude: 2,
				HasFix:    true,
				Status:    types.StatusUnknown,
				TrackedAt: received,
			},
		},
		{
			name:    "under investigation status",
			payload: `{"imei":"1","latitude":1,"longitude":2,"status":"Under Investigation"}`,
			ok:      true,
			expected: types.TrackingEvent{
				IMEI:      "1",
				Latitude:  1,
				Longitude: 2,
				HasFix:    true,
				Status:    types.StatusUnderInvestigation,
				TrackedAt: received,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := normalizeUpdate([]byte(tt.payload), received)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, ev)
			}
		})
	}
}
