package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"river-tracker/internal/fleet"
	"river-tracker/internal/passage"
	"river-tracker/internal/route"
	"river-tracker/internal/tracker"
)

// BoardProvider is satisfied by *tracker.Manager.
type BoardProvider interface {
	Board() *tracker.Board
	Route() *route.Route
}

type server struct {
	boards BoardProvider
}

func InitServer(p BoardProvider) http.Handler {
	s := server{boards: p}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/-/healthz", s.healthz).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/route", s.getRoute).Methods(http.MethodGet)
	apiV1.HandleFunc("/stats", s.stats).Methods(http.MethodGet)
	apiV1.HandleFunc("/vessels", s.vessels).Methods(http.MethodGet)
	apiV1.HandleFunc("/vessels/{id}", s.vessel).Methods(http.MethodGet)
	apiV1.HandleFunc("/vessels/{id}/timeline", s.timeline).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)
	return handlers.CombinedLoggingHandler(log.StandardLogger().Writer(), cors(router))
}

const unavailable = "unavailable"

type routeResponse struct {
	Waypoints       []route.Waypoint `json:"waypoints"`
	Segments        []route.Segment  `json:"segments"`
	TotalDistanceNM float64          `json:"totalDistanceNM"`
	Defaulted       []route.Segment  `json:"defaultedSegments"`
}

type vesselResponse struct {
	Vessel          fleet.Vessel        `json:"vessel"`
	LastWaypoint    *string             `json:"lastWaypoint"`
	AssumedOrigin   bool                `json:"assumedOrigin"`
	ProgressPercent *float64            `json:"progressPercent"`
	RemainingNM     *float64            `json:"remainingNM"`
	HoursRemaining  *float64            `json:"hoursRemaining"`
	ETA             *time.Time          `json:"eta"`
	ETAAvailable    bool                `json:"etaAvailable"`
	ETANote         string              `json:"etaNote"`
	LastPassage     *fleet.PassageEvent `json:"lastPassage"`
	Unmatched       int                 `json:"unmatchedPassages,omitempty"`
	Error           string              `json:"error,omitempty"`
	Timeline        []passage.Entry     `json:"timeline,omitempty"`
}

type boardResponse struct {
	RefreshedAt time.Time        `json:"refreshedAt"`
	LastSuccess *time.Time       `json:"lastSuccess"`
	Error       string           `json:"error,omitempty"`
	Vessels     []vesselResponse `json:"vessels"`
}

func newVesselResponse(v tracker.View, withTimeline bool) vesselResponse {
	r := vesselResponse{
		Vessel:      v.Vessel,
		LastPassage: v.LastPassage,
		Unmatched:   v.Unmatched,
		Error:       v.Err,
		ETANote:     unavailable,
	}
	if e := v.Estimate; e != nil {
		wp, pct, rem := e.Waypoint, e.ProgressPercent, e.RemainingNM
		r.LastWaypoint = &wp
		r.AssumedOrigin = e.Defaulted
		r.ProgressPercent = &pct
		r.RemainingNM = &rem
		r.HoursRemaining = e.HoursRemaining
		r.ETA = e.ETA
		if e.ETAAvailable() {
			r.ETAAvailable = true
			r.ETANote = "estimate assuming constant speed along the route"
		}
	}
	if withTimeline {
		r.Timeline = v.Timeline
	}
	return r
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if !s.boards.Board().Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

func (s *server) getRoute(w http.ResponseWriter, r *http.Request) {
	rt := s.boards.Route()
	writeJSON(w, http.StatusOK, routeResponse{
		Waypoints:       rt.Waypoints(),
		Segments:        rt.Segments(),
		TotalDistanceNM: rt.TotalDistance(),
		Defaulted:       rt.DefaultedSegments(),
	})
}

func (s *server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.boards.Board().Stats)
}

func (s *server) vessels(w http.ResponseWriter, r *http.Request) {
	b := s.boards.Board()
	resp := boardResponse{
		RefreshedAt: b.RefreshedAt,
		Error:       b.Err,
		Vessels:     make([]vesselResponse, 0, len(b.Views)),
	}
	if !b.LastSuccess.IsZero() {
		ls := b.LastSuccess
		resp.LastSuccess = &ls
	}
	for _, v := range b.Views {
		resp.Vessels = append(resp.Vessels, newVesselResponse(v, false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) vessel(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boards.Board().Find(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "vessel not found")
		return
	}
	writeJSON(w, http.StatusOK, newVesselResponse(v, true))
}

func (s *server) timeline(w http.ResponseWriter, r *http.Request) {
	v, ok := s.boards.Board().Find(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "vessel not found")
		return
	}
	writeJSON(w, http.StatusOK, v.Timeline)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Errorf("encode response: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
