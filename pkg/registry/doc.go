/*
Package registry implements the live device registry, the reconciliation
engine that turns an unordered stream of per-device tracking events into a
bounded, render-ready snapshot of device positions and movement trails.

# Architecture

The registry is a pure reducer over the event stream delivered by the
tracking channel:

	┌─────────────────── DEVICE REGISTRY ───────────────────┐
	│                                                        │
	│  TrackingEvent ──▶ Merge                               │
	│                     │                                  │
	│                     ├─ known IMEI: append path point,  │
	│                     │  trim trail to 20, overwrite     │
	│                     │  fields, move to front           │
	│                     │                                  │
	│                     └─ new IMEI: prepend device,       │
	│                        evict past 50 entries           │
	│                     │                                  │
	│                     ▼                                  │
	│               Snapshot (deep copy)                     │
	│                     │                                  │
	│                     ▼                                  │
	│          Subscriber channels (non-blocking)            │
	│                                                        │
	└────────────────────────────────────────────────────────┘

# Invariants

  - Each device's path history holds at most 20 points, oldest first; the
    newest point always equals the device's current position.
  - The registry holds at most 50 devices, most-recently-updated first,
    with unique IMEIs.
  - Consumers only ever see complete snapshots; Merge never exposes a
    partially-updated collection.

Events are merged in arrival order. The channel's delivery order is taken
as truth; no reordering by event timestamp happens here.

# Usage

	reg := registry.New(registry.DefaultConfig())
	sub := reg.Subscribe()
	defer reg.Unsubscribe(sub)

	snap := reg.Merge(ev)
	if box, ok := registry.BoundsOf(snap); ok {
		fitViewport(box)
	}
*/
package registry
