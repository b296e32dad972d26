// Package progress projects a vessel's progress along the route and its
// arrival time at the destination.
//
// Speeds are in knots and distances in nautical miles. One knot is one
// nautical mile per hour, so remaining hours are distance / speed with no
// unit conversion. Estimates assume constant speed along the fixed route.
package progress

import (
	"math"
	"time"

	"river-tracker/internal/route"
)

// ProgressPercent is the share of route waypoints reached, counting the
// waypoint at index as reached.
func ProgressPercent(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * float64(index+1) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// EstimateArrival returns now + remainingNM/speedKnots hours. The second
// result is false when no ETA can be given: speed absent, zero, negative or
// not finite, or an invalid distance.
func EstimateArrival(remainingNM float64, speedKnots *float64, now time.Time) (time.Time, bool) {
	hours, ok := HoursRemaining(remainingNM, speedKnots)
	if !ok {
		return time.Time{}, false
	}
	d, ok := travelTime(remainingNM, hours)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(d), true
}

// travelTime converts hours to a Duration. Results beyond the Duration range
// are unknown, and any positive distance takes at least one nanosecond so the
// ETA always lies after now.
func travelTime(remainingNM, hours float64) (time.Duration, bool) {
	ns := hours * float64(time.Hour)
	if ns >= float64(math.MaxInt64) {
		return 0, false
	}
	d := time.Duration(ns)
	if d < 1 && remainingNM > 0 {
		d = 1
	}
	return d, true
}

func HoursRemaining(remainingNM float64, speedKnots *float64) (float64, bool) {
	if speedKnots == nil {
		return 0, false
	}
	s := *speedKnots
	if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	if remainingNM < 0 || math.IsNaN(remainingNM) || math.IsInf(remainingNM, 0) {
		return 0, false
	}
	return remainingNM / s, true
}

type Estimate struct {
	Waypoint        string     `json:"waypoint"`
	Index           int        `json:"index"`
	ProgressPercent float64    `json:"progressPercent"`
	RemainingNM     float64    `json:"remainingNM"`
	HoursRemaining  *float64   `json:"hoursRemaining"`
	ETA             *time.Time `json:"eta"`
	// Defaulted is set when the vessel has no confirmed waypoint and the
	// origin was assumed.
	Defaulted bool `json:"defaulted"`
}

func (e Estimate) ETAAvailable() bool { return e.ETA != nil }

type Engine struct {
	route *route.Route
}

func NewEngine(r *route.Route) *Engine { return &Engine{route: r} }

// Estimate computes progress and ETA from the last confirmed waypoint. An
// empty lastWaypoint means the vessel has not been seen at any waypoint and
// is placed at the origin. Unknown names yield route.ErrNotFound.
func (e *Engine) Estimate(lastWaypoint string, speedKnots *float64, now time.Time) (Estimate, error) {
	est := Estimate{Waypoint: lastWaypoint}
	if lastWaypoint == "" {
		est.Waypoint = e.route.Origin().Name
		est.Defaulted = true
	}
	idx, err := e.route.WaypointIndex(est.Waypoint)
	if err != nil {
		return Estimate{}, err
	}
	remaining, err := e.route.RemainingDistance(est.Waypoint)
	if err != nil {
		return Estimate{}, err
	}
	est.Index = idx
	est.ProgressPercent = ProgressPercent(idx, e.route.Len())
	est.RemainingNM = remaining
	if h, ok := HoursRemaining(remaining, speedKnots); ok {
		if d, ok := travelTime(remaining, h); ok {
			eta := now.Add(d)
			est.HoursRemaining = &h
			est.ETA = &eta
		}
	}
	return est, nil
}
