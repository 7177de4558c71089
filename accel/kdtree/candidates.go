package kdtree

import (
	"sort"

	"github.com/achilleasa/kdtrace/types"
)

type eventKind uint8

// Event kinds are declared in sweep order: at equal positions primitives
// ending at the plane are processed before planar ones which are processed
// before primitives starting at the plane.
const (
	eventMax eventKind = iota
	eventPlanar
	eventMin
)

// A candidate split position generated by a primitive extent.
type splitEvent struct {
	pos  float64
	kind eventKind
	prim uint32

	// Set for primitives with a point bbox. These events are counted by the
	// sweep but never propose a split position.
	point bool
}

type eventList []splitEvent

func (l eventList) Len() int      { return len(l) }
func (l eventList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }
func (l eventList) Less(i, j int) bool {
	switch {
	case l[i].pos != l[j].pos:
		return l[i].pos < l[j].pos
	case l[i].kind != l[j].kind:
		return l[i].kind < l[j].kind
	}
	return l[i].prim < l[j].prim
}

// Generate the sorted split events along an axis for a set of primitives.
// Primitives with invalid bounding boxes do not generate events.
func (b *builder) splitEvents(prims []uint32, axis types.Axis) eventList {
	events := b.events[:0]
	for _, prim := range prims {
		bbox := &b.bboxes[prim]
		if !b.valid[prim] {
			continue
		}

		lo, hi := bbox.Min[axis], bbox.Max[axis]
		if lo == hi {
			events = append(events, splitEvent{pos: lo, kind: eventPlanar, prim: prim, point: b.point[prim]})
			continue
		}
		events = append(events,
			splitEvent{pos: lo, kind: eventMin, prim: prim},
			splitEvent{pos: hi, kind: eventMax, prim: prim},
		)
	}

	sort.Sort(events)
	b.events = events
	return events
}
