package route

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultDistanceNM is used for any consecutive pair without a configured distance.
const DefaultDistanceNM = 80.0

// ErrNotFound is returned when a waypoint name is not part of the route.
var ErrNotFound = errors.New("waypoint not found")

type Waypoint struct {
	Name  string  `yaml:"name" json:"name" validate:"required"`
	Order int     `yaml:"order" json:"order" validate:"min=1"`
	Lat   float64 `yaml:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lon   float64 `yaml:"lon" json:"lon" validate:"gte=-180,lte=180"`
}

type Segment struct {
	From       string  `yaml:"from" json:"from" validate:"required"`
	To         string  `yaml:"to" json:"to" validate:"required"`
	DistanceNM float64 `yaml:"distanceNM" json:"distanceNM" validate:"gt=0"`
}

type segmentKey struct{ from, to string }

// Route is the immutable, ordered sequence of waypoints plus the segment
// distance table. Safe for concurrent use.
type Route struct {
	waypoints   []Waypoint
	index       map[string]int
	distances   map[segmentKey]float64
	defaultDist float64
}

func New(cfg Config) (*Route, error) {
	if len(cfg.Waypoints) == 0 {
		return nil, errors.New("route has no waypoints")
	}
	r := &Route{
		waypoints:   make([]Waypoint, len(cfg.Waypoints)),
		index:       make(map[string]int, len(cfg.Waypoints)),
		distances:   make(map[segmentKey]float64, len(cfg.Segments)),
		defaultDist: cfg.DefaultDistanceNM,
	}
	if r.defaultDist <= 0 {
		r.defaultDist = DefaultDistanceNM
	}
	copy(r.waypoints, cfg.Waypoints)
	for i, w := range r.waypoints {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			return nil, fmt.Errorf("waypoint %d has no name", i+1)
		}
		if w.Order != i+1 {
			return nil, fmt.Errorf("waypoint %q has order %d, want %d", name, w.Order, i+1)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("duplicate waypoint %q", name)
		}
		r.waypoints[i].Name = name
		r.index[name] = i
	}
	for _, s := range cfg.Segments {
		from, to := strings.TrimSpace(s.From), strings.TrimSpace(s.To)
		if s.DistanceNM <= 0 {
			return nil, fmt.Errorf("segment %s-%s: distance must be positive, got %v", from, to, s.DistanceNM)
		}
		i, okFrom := r.index[from]
		j, okTo := r.index[to]
		if !okFrom || !okTo || j != i+1 {
			return nil, fmt.Errorf("segment %s-%s: not a pair of consecutive waypoints", from, to)
		}
		k := segmentKey{from, to}
		if _, dup := r.distances[k]; dup {
			return nil, fmt.Errorf("segment %s-%s configured twice", from, to)
		}
		r.distances[k] = s.DistanceNM
	}
	return r, nil
}

func (r *Route) Len() int { return len(r.waypoints) }

// Waypoints returns a copy of the ordered waypoints.
func (r *Route) Waypoints() []Waypoint {
	out := make([]Waypoint, len(r.waypoints))
	copy(out, r.waypoints)
	return out
}

func (r *Route) Waypoint(i int) Waypoint { return r.waypoints[i] }

func (r *Route) Origin() Waypoint      { return r.waypoints[0] }
func (r *Route) Destination() Waypoint { return r.waypoints[len(r.waypoints)-1] }

// WaypointIndex returns the 0-based position of the named waypoint. Names
// are matched after trimming surrounding whitespace, as in New.
func (r *Route) WaypointIndex(name string) (int, error) {
	i, ok := r.index[strings.TrimSpace(name)]
	if !ok {
		return -1, fmt.Errorf("%q: %w", name, ErrNotFound)
	}
	return i, nil
}

// SegmentDistance returns the configured distance in nautical miles between
// two adjacent waypoints, or the route default when the pair is unconfigured.
func (r *Route) SegmentDistance(from, to string) float64 {
	if d, ok := r.distances[segmentKey{strings.TrimSpace(from), strings.TrimSpace(to)}]; ok {
		return d
	}
	return r.defaultDist
}

// RemainingDistance sums the segment distances from the named waypoint to the
// destination. Distance already travelled past the waypoint is not subtracted.
func (r *Route) RemainingDistance(from string) (float64, error) {
	start, err := r.WaypointIndex(from)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for i := start; i < len(r.waypoints)-1; i++ {
		total += r.SegmentDistance(r.waypoints[i].Name, r.waypoints[i+1].Name)
	}
	return total, nil
}

func (r *Route) TotalDistance() float64 {
	d, _ := r.RemainingDistance(r.waypoints[0].Name)
	return d
}

// Segments lists every consecutive pair with its effective distance.
func (r *Route) Segments() []Segment {
	out := make([]Segment, 0, len(r.waypoints)-1)
	for i := 0; i+1 < len(r.waypoints); i++ {
		from, to := r.waypoints[i].Name, r.waypoints[i+1].Name
		out = append(out, Segment{From: from, To: to, DistanceNM: r.SegmentDistance(from, to)})
	}
	return out
}

// DefaultedSegments lists the consecutive pairs that fall back to the default distance.
func (r *Route) DefaultedSegments() []Segment {
	var out []Segment
	for i := 0; i+1 < len(r.waypoints); i++ {
		from, to := r.waypoints[i].Name, r.waypoints[i+1].Name
		if _, ok := r.distances[segmentKey{from, to}]; !ok {
			out = append(out, Segment{From: from, To: to, DistanceNM: r.defaultDist})
		}
	}
	return out
}
