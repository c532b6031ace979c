package registry

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/types"
)

const (
	// DefaultPathCap bounds each device's movement trail
	DefaultPathCap = 20

	// DefaultRegistryCap bounds the number of tracked devices
	DefaultRegistryCap = 50
)

// Snapshot is an immutable copy of the registry, most-recently-updated
// first. Consumers never observe in-place mutation.
type Snapshot []types.TrackedDevice

// Subscriber is a channel that receives registry snapshots
type Subscriber chan Snapshot

// Config bounds the registry
type Config struct {
	PathCap     int
	RegistryCap int
}

// DefaultConfig returns the standard registry bounds
func DefaultConfig() Config {
	return Config{
		PathCap:     DefaultPathCap,
		RegistryCap: DefaultRegistryCap,
	}
}

// Registry reconciles an unordered stream of tracking events into a
// bounded, render-ready collection of devices and their trails
type Registry struct {
	mu          sync.RWMutex
	devices     []*types.TrackedDevice
	pathCap     int
	registryCap int
	subscribers map[Subscriber]bool
	logger      zerolog.Logger
}

// New creates an empty registry
func New(cfg Config) *Registry {
	if cfg.PathCap <= 0 {
		cfg.PathCap = DefaultPathCap
	}
	if cfg.RegistryCap <= 0 {
		cfg.RegistryCap = DefaultRegistryCap
	}
	return &Registry{
		pathCap:     cfg.PathCap,
		registryCap: cfg.RegistryCap,
		subscribers: make(map[Subscriber]bool),
		logger:      log.WithComponent("registry"),
	}
}

// Merge folds one tracking event into the registry and returns the
// resulting snapshot.
//
// Known devices get the event appended to their trail (oldest points
// evicted past the path cap), all other fields overwritten from the event,
// and move to the front. Unknown devices are prepended as new entries;
// the least-recently-updated entries are evicted past the registry cap.
func (r *Registry) Merge(ev types.TrackingEvent) Snapshot {
	r.mu.Lock()

	point := types.PathPoint{
		Latitude:  ev.Latitude,
		Longitude: ev.Longitude,
		TrackedAt: ev.TrackedAt,
	}

	idx := r.indexOf(ev.IMEI)
	if idx >= 0 {
		dev := r.devices[idx]
		dev.PathHistory = append(dev.PathHistory, point)
		if over := len(dev.PathHistory) - r.pathCap; over > 0 {
			dev.PathHistory = append(dev.PathHistory[:0], dev.PathHistory[over:]...)
		}
		// Full overwrite: an event with no address/status clears them
		dev.Latitude = ev.Latitude
		dev.Longitude = ev.Longitude
		dev.HasFix = ev.HasFix
		dev.Address = ev.Address
		dev.Status = ev.Status
		dev.TrackerName = ev.TrackerName
		dev.TrackedAt = ev.TrackedAt

		copy(r.devices[1:idx+1], r.devices[:idx])
		r.devices[0] = dev
	} else {
		dev := &types.TrackedDevice{
			IMEI:        ev.IMEI,
			Latitude:    ev.Latitude,
			Longitude:   ev.Longitude,
			HasFix:      ev.HasFix,
			Address:     ev.Address,
			Status:      ev.Status,
			TrackerName: ev.TrackerName,
			TrackedAt:   ev.TrackedAt,
			PathHistory: []types.PathPoint{point},
		}
		r.devices = append([]*types.TrackedDevice{dev}, r.devices...)
		for len(r.devices) > r.registryCap {
			evicted := r.devices[len(r.devices)-1]
			r.devices = r.devices[:len(r.devices)-1]
			metrics.DevicesEvicted.Inc()
			r.logger.Debug().Str("imei", evicted.IMEI).Msg("device evicted by registry cap")
		}
	}

	metrics.EventsMerged.Inc()
	metrics.DevicesTracked.Set(float64(len(r.devices)))

	snap := r.snapshotLocked()
	r.mu.Unlock()

	r.publish(snap)
	return snap
}

// Snapshot returns a copy of the current registry state
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

// Len returns the number of tracked devices
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Subscribe registers a snapshot channel. Every Merge delivers the new
// snapshot to all subscribers; slow subscribers miss intermediate
// snapshots rather than blocking the merge path.
func (r *Registry) Subscribe() Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub := make(Subscriber, 16)
	r.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (r *Registry) Unsubscribe(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[sub]; !ok {
		return
	}
	delete(r.subscribers, sub)
	close(sub)
}

func (r *Registry) publish(snap Snapshot) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for sub := range r.subscribers {
		select {
		case sub <- snap:
		default:
			// Subscriber buffer full; it will catch up on the next merge
		}
	}
}

// indexOf does a linear scan; the registry is capped small enough that an
// index is not worth maintaining
func (r *Registry) indexOf(imei string) int {
	for i, dev := range r.devices {
		if dev.IMEI == imei {
			return i
		}
	}
	return -1
}

func (r *Registry) snapshotLocked() Snapshot {
	snap := make(Snapshot, len(r.devices))
	for i, dev := range r.devices {
		d := *dev
		d.PathHistory = make([]types.PathPoint, len(dev.PathHistory))
		copy(d.PathHistory, dev.PathHistory)
		snap[i] = d
	}
	return snap
}

// BoundsOf computes the bounding box covering every device position with a
// usable fix. The second return is false when no device contributes a
// position; the map view keeps its previous viewport in that case.
func BoundsOf(devices []types.TrackedDevice) (types.BoundingBox, bool) {
	var box types.BoundingBox
	found := false
	for _, dev := range devices {
		if !dev.HasFix {
			continue
		}
		if !found {
			box = types.BoundingBox{
				MinLat: dev.Latitude,
				MaxLat: dev.Latitude,
				MinLon: dev.Longitude,
				MaxLon: dev.Longitude,
			}
			found = true
			continue
		}
		box.Extend(dev.Latitude, dev.Longitude)
	}
	return box, found
}
