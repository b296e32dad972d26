package tracker

import (
	"time"

	"river-tracker/internal/fleet"
	"river-tracker/internal/passage"
	"river-tracker/internal/progress"
	"river-tracker/internal/publisher"
)

// Board is one refresh worth of derived state. Each refresh builds a new
// Board; nothing is carried over except LastSuccess.
type Board struct {
	RefreshedAt time.Time
	LastSuccess time.Time
	Err         string
	Views       []View
	Stats       Stats
}

func (b *Board) Ready() bool { return !b.LastSuccess.IsZero() && b.Err == "" }

// Find returns the view for the given vessel ID or MMSI.
func (b *Board) Find(id string) (View, bool) {
	for _, v := range b.Views {
		if v.Vessel.ID == id || (v.Vessel.MMSI != "" && v.Vessel.MMSI == id) {
			return v, true
		}
	}
	return View{}, false
}

type View struct {
	Vessel      fleet.Vessel
	Estimate    *progress.Estimate // nil when progress cannot be computed
	Timeline    []passage.Entry
	LastPassage *fleet.PassageEvent
	Unmatched   int
	Err         string
}

func (v View) Message(at time.Time) publisher.EstimateMessage {
	msg := publisher.EstimateMessage{
		VesselID:   v.Vessel.ID,
		VesselName: v.Vessel.Name,
		Status:     string(v.Vessel.Status),
		Timestamp:  at,
		Lat:        v.Vessel.Lat,
		Lon:        v.Vessel.Lon,
		Speed:      v.Vessel.Speed,
	}
	if e := v.Estimate; e != nil {
		remaining := e.RemainingNM
		msg.LastWaypoint = e.Waypoint
		msg.ProgressPercent = e.ProgressPercent
		msg.RemainingNM = &remaining
		msg.HoursRemaining = e.HoursRemaining
		msg.ETA = e.ETA
		msg.ETAIsEstimate = e.ETA != nil
	}
	return msg
}

type Stats struct {
	Vessels       int                  `json:"vessels"`
	InTransit     int                  `json:"inTransit"`
	Arrived       int                  `json:"arrived"`
	ByStatus      map[fleet.Status]int `json:"byStatus"`
	TotalPassages int                  `json:"totalPassages"`
	// AverageSpeed counts vessels without a reported speed as 0 knots.
	AverageSpeed float64 `json:"averageSpeed"`
}

func ComputeStats(vessels []fleet.Vessel, passages []fleet.PassageEvent) Stats {
	s := Stats{
		Vessels:       len(vessels),
		ByStatus:      make(map[fleet.Status]int),
		TotalPassages: len(passages),
	}
	sum := 0.0
	for _, v := range vessels {
		s.ByStatus[v.Status]++
		if v.Speed != nil {
			sum += *v.Speed
		}
	}
	s.InTransit = s.ByStatus[fleet.StatusInTransit]
	s.Arrived = s.ByStatus[fleet.StatusArrived]
	if len(vessels) > 0 {
		s.AverageSpeed = sum / float64(len(vessels))
	}
	return s
}
