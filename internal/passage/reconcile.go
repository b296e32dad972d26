package passage

import (
	"river-tracker/internal/fleet"
	"river-tracker/internal/route"
)

type Entry struct {
	Waypoint    route.Waypoint      `json:"waypoint"`
	Passed      bool                `json:"passed"`
	Event       *fleet.PassageEvent `json:"event"`
	Origin      bool                `json:"origin"`
	Destination bool                `json:"destination"`
}

type Result struct {
	Timeline []Entry
	// Last is the highest-order waypoint with a passage, valid when HasLast.
	Last      string
	HasLast   bool
	LastEvent *fleet.PassageEvent
	// Unmatched holds the vessel's events whose waypoint is not on the route.
	Unmatched []fleet.PassageEvent
}

// Reconciler maps unordered passage events onto the ordered route.
type Reconciler struct {
	route *route.Route
}

func New(r *route.Route) *Reconciler { return &Reconciler{route: r} }

// Reconcile builds the vessel's timeline in route order and finds its last
// known waypoint. Duplicate events at one waypoint resolve to the latest
// timestamp; on equal timestamps the later event in the input wins.
//
// The last known waypoint is the highest route order passed, whatever the
// timestamps say: an apparent regression to an earlier waypoint does not
// move it back.
func (rc *Reconciler) Reconcile(vesselID string, events []fleet.PassageEvent) Result {
	byName := make(map[string]int, rc.route.Len())
	var res Result
	for i := range events {
		ev := events[i]
		if ev.VesselID != vesselID {
			continue
		}
		idx, err := rc.route.WaypointIndex(ev.WaypointName)
		if err != nil {
			res.Unmatched = append(res.Unmatched, ev)
			continue
		}
		name := rc.route.Waypoint(idx).Name
		if prev, ok := byName[name]; ok && ev.Timestamp.Before(events[prev].Timestamp) {
			continue
		}
		byName[name] = i
	}

	n := rc.route.Len()
	res.Timeline = make([]Entry, n)
	for i := 0; i < n; i++ {
		w := rc.route.Waypoint(i)
		e := Entry{Waypoint: w, Origin: i == 0, Destination: i == n-1}
		if j, ok := byName[w.Name]; ok {
			ev := events[j]
			e.Passed = true
			e.Event = &ev
			res.Last = w.Name
			res.HasLast = true
			res.LastEvent = e.Event
		}
		res.Timeline[i] = e
	}
	return res
}

// TimelineFor returns one entry per route waypoint, in route order.
func (rc *Reconciler) TimelineFor(vesselID string, events []fleet.PassageEvent) []Entry {
	return rc.Reconcile(vesselID, events).Timeline
}

// LastKnownWaypoint returns the highest-order waypoint the vessel has passed.
func (rc *Reconciler) LastKnownWaypoint(vesselID string, events []fleet.PassageEvent) (string, bool) {
	res := rc.Reconcile(vesselID, events)
	return res.Last, res.HasLast
}
