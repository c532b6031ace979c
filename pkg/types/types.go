package types

import (
	"time"
)

// Role defines the authenticated user's role
type Role string

const (
	RoleReporter     Role = "reporter"
	RolePolice       Role = "police"
	RoleAdmin        Role = "admin"
	RoleUnrecognized Role = "unrecognized"
)

// ParseRole maps a backend role string to a Role. Values the client does
// not know about map to RoleUnrecognized rather than silently falling
// through authorization checks as a denial.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleReporter, RolePolice, RoleAdmin:
		return Role(s)
	default:
		return RoleUnrecognized
	}
}

// DeviceStatus represents the current case status of a tracked device
type DeviceStatus string

const (
	StatusUnknown            DeviceStatus = "Unknown"
	StatusLost               DeviceStatus = "Lost"
	StatusRecovered          DeviceStatus = "Recovered"
	StatusUnderInvestigation DeviceStatus = "Under Investigation"
)

// ParseDeviceStatus maps a backend status string to a DeviceStatus.
// Unrecognized values map to StatusUnknown.
func ParseDeviceStatus(s string) DeviceStatus {
	switch DeviceStatus(s) {
	case StatusLost, StatusRecovered, StatusUnderInvestigation:
		return DeviceStatus(s)
	default:
		return StatusUnknown
	}
}

// PathPoint is a single recorded position in a device's movement trail
type PathPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	TrackedAt time.Time `json:"trackedAt"`
}

// TrackedDevice is one device in the live registry.
//
// HasFix is false when the reporting tracker did not supply usable
// coordinates; the position fields then hold 0,0 and the point is excluded
// from bounding-box computation.
type TrackedDevice struct {
	IMEI        string       `json:"imei"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	HasFix      bool         `json:"hasFix"`
	Address     string       `json:"address,omitempty"`
	Status      DeviceStatus `json:"status"`
	TrackerName string       `json:"trackerName,omitempty"`
	TrackedAt   time.Time    `json:"trackedAt"`
	PathHistory []PathPoint  `json:"pathHistory"`
}

// TrackingEvent is the canonical normalized form of a push-channel
// tracking_update message. The channel owns normalization; the registry
// consumes events verbatim.
type TrackingEvent struct {
	IMEI        string
	Latitude    float64
	Longitude   float64
	HasFix      bool
	Address     string
	Status      DeviceStatus
	TrackerName string
	TrackedAt   time.Time
}

// User is the authenticated user's identity
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Session holds the bearer credential plus the user it belongs to
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ConnectivityState is the backend reachability signal
type ConnectivityState string

const (
	ConnUnknown ConnectivityState = "unknown"
	ConnOnline  ConnectivityState = "online"
	ConnOffline ConnectivityState = "offline"
)

// BoundingBox covers a set of device positions, used by map views to
// auto-fit the viewport
type BoundingBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// Extend grows the box to include the given position
func (b *BoundingBox) Extend(lat, lon float64) {
	if lat < b.MinLat {
		b.MinLat = lat
	}
	if lat > b.MaxLat {
		b.MaxLat = lat
	}
	if lon < b.MinLon {
		b.MinLon = lon
	}
	if lon > b.MaxLon {
		b.MaxLon = lon
	}
}
