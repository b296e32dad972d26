package fleet

import (
	"math"
	"strings"
	"time"
)

type Status string

const (
	StatusInTransit Status = "in_transit"
	StatusMoored    Status = "moored"
	StatusAnchored  Status = "anchored"
	StatusArrived   Status = "arrived"
)

// ParseStatus accepts canonical values and the Portuguese values written by
// the original ingestion. Anything else is treated as in transit.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moored", "atracado":
		return StatusMoored
	case "anchored", "fundeado":
		return StatusAnchored
	case "arrived", "chegou":
		return StatusArrived
	default:
		return StatusInTransit
	}
}

// Terminal reports whether the vessel has finished the route. Terminal
// vessels get no ETA publication.
func (s Status) Terminal() bool { return s == StatusArrived }

type Vessel struct {
	ID                 string    `json:"id"`
	MMSI               string    `json:"mmsi"`
	Name               string    `json:"name"`
	ShipType           string    `json:"shipType,omitempty"`
	Flag               string    `json:"flag,omitempty"`
	Destination        string    `json:"destination,omitempty"`
	Speed              *float64  `json:"speed"`  // knots, nil if unreported
	Course             *float64  `json:"course"` // degrees, nil if unreported
	Lat                float64   `json:"lat"`
	Lon                float64   `json:"lon"`
	Status             Status    `json:"status"`
	LastPositionUpdate time.Time `json:"lastPositionUpdate"`
}

// PassageEvent records a vessel crossing a waypoint. Immutable once recorded.
type PassageEvent struct {
	ID             string    `json:"id"`
	VesselID       string    `json:"vesselId"`
	VesselName     string    `json:"vesselName,omitempty"`
	WaypointName   string    `json:"waypointName"`
	WaypointOrder  int       `json:"waypointOrder"`
	Timestamp      time.Time `json:"timestamp"`
	SpeedAtPassage *float64  `json:"speedAtPassage"`
}

func Float(v float64) *float64 { return &v }

// Finite returns p, or nil when p points at NaN or an infinity. Non-finite
// readings are treated as unreported.
func Finite(p *float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return p
}
