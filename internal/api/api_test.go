package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"river-tracker/internal/fleet"
	"river-tracker/internal/route"
	"river-tracker/internal/tracker"
)

var t0 = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

type staticSource struct {
	vessels  []fleet.Vessel
	passages []fleet.PassageEvent
}

func (s staticSource) FetchVessels(context.Context) ([]fleet.Vessel, error) { return s.vessels, nil }
func (s staticSource) FetchPassages(context.Context) ([]fleet.PassageEvent, error) {
	return s.passages, nil
}

func newTestServer(t *testing.T, refresh bool) (http.Handler, *tracker.Manager) {
	t.Helper()
	r, err := route.Load("")
	if err != nil {
		t.Fatal(err)
	}
	src := staticSource{
		vessels: []fleet.Vessel{
			{ID: "v1", MMSI: "710000001", Name: "MOVING", Speed: fleet.Float(10), Status: fleet.StatusInTransit},
			{ID: "v2", MMSI: "710000002", Name: "STOPPED", Speed: fleet.Float(0), Status: fleet.StatusAnchored},
		},
		passages: []fleet.PassageEvent{
			{ID: "p1", VesselID: "v1", WaypointName: "Parintins", WaypointOrder: 6, Timestamp: t0.Add(-time.Hour)},
		},
	}
	m := tracker.NewManager(src, r, time.Minute, tracker.WithClock(func() time.Time { return t0 }))
	if refresh {
		if _, err := m.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return InitServer(m), m
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, false)
	if rec := get(t, h, "/-/healthz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("healthz before refresh = %d, want 503", rec.Code)
	}
	h, _ = newTestServer(t, true)
	if rec := get(t, h, "/-/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz after refresh = %d, want 200", rec.Code)
	}
}

func TestVesselWithETA(t *testing.T) {
	h, _ := newTestServer(t, true)
	rec := get(t, h, "/api/v1/vessels/v1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp vesselResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.ETAAvailable || resp.ETA == nil || !resp.ETA.Equal(t0.Add(14*time.Hour)) {
		t.Errorf("ETA = %v (available %v), want %s", resp.ETA, resp.ETAAvailable, t0.Add(14*time.Hour))
	}
	if resp.LastWaypoint == nil || *resp.LastWaypoint != "Parintins" {
		t.Errorf("LastWaypoint = %v, want Parintins", resp.LastWaypoint)
	}
	if resp.RemainingNM == nil || *resp.RemainingNM != 140 {
		t.Errorf("RemainingNM = %v, want 140", resp.RemainingNM)
	}
	if len(resp.Timeline) != 7 {
		t.Errorf("timeline has %d entries, want 7", len(resp.Timeline))
	}
}

func TestVesselWithoutETARendersUnavailable(t *testing.T) {
	h, _ := newTestServer(t, true)
	rec := get(t, h, "/api/v1/vessels/710000002")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatal(err)
	}
	if raw["eta"] != nil {
		t.Errorf("eta = %v, want null", raw["eta"])
	}
	if raw["hoursRemaining"] != nil {
		t.Errorf("hoursRemaining = %v, want null", raw["hoursRemaining"])
	}
	if raw["etaAvailable"] != false || raw["etaNote"] != unavailable {
		t.Errorf("etaAvailable = %v, etaNote = %v", raw["etaAvailable"], raw["etaNote"])
	}
	if raw["assumedOrigin"] != true {
		t.Errorf("assumedOrigin = %v, want true", raw["assumedOrigin"])
	}
}

func TestVesselNotFound(t *testing.T) {
	h, _ := newTestServer(t, true)
	for _, path := range []string{"/api/v1/vessels/nope", "/api/v1/vessels/nope/timeline"} {
		if rec := get(t, h, path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestListAndStats(t *testing.T) {
	h, _ := newTestServer(t, true)
	var board boardResponse
	rec := get(t, h, "/api/v1/vessels")
	if err := json.NewDecoder(rec.Body).Decode(&board); err != nil {
		t.Fatal(err)
	}
	if len(board.Vessels) != 2 || board.LastSuccess == nil {
		t.Errorf("vessels = %d, lastSuccess = %v", len(board.Vessels), board.LastSuccess)
	}
	for _, v := range board.Vessels {
		if len(v.Timeline) != 0 {
			t.Errorf("list includes timeline for %s", v.Vessel.ID)
		}
	}

	var stats tracker.Stats
	rec = get(t, h, "/api/v1/stats")
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Vessels != 2 || stats.InTransit != 1 || stats.TotalPassages != 1 || stats.AverageSpeed != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRoute(t *testing.T) {
	h, _ := newTestServer(t, false)
	var resp routeResponse
	rec := get(t, h, "/api/v1/route")
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Waypoints) != 7 || len(resp.Segments) != 6 || resp.TotalDistanceNM != 601 {
		t.Errorf("route = %d waypoints, %d segments, %v nm", len(resp.Waypoints), len(resp.Segments), resp.TotalDistanceNM)
	}
}

func TestTimeline(t *testing.T) {
	h, _ := newTestServer(t, true)
	rec := get(t, h, "/api/v1/vessels/v1/timeline")
	var entries []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 7 {
		t.Fatalf("timeline has %d entries, want 7", len(entries))
	}
	if entries[5]["passed"] != true || entries[6]["passed"] != false {
		t.Errorf("passed flags = %v, %v", entries[5]["passed"], entries[6]["passed"])
	}
}

func TestNonFiniteSpeedRendersAsUnreported(t *testing.T) {
	r, err := route.Load("")
	if err != nil {
		t.Fatal(err)
	}
	src := staticSource{vessels: []fleet.Vessel{
		{ID: "v1", Name: "GLITCH", Speed: fleet.Float(math.NaN()), Course: fleet.Float(math.Inf(1)), Status: fleet.StatusInTransit},
	}}
	m := tracker.NewManager(src, r, time.Minute, tracker.WithClock(func() time.Time { return t0 }))
	if _, err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	h := InitServer(m)

	for _, path := range []string{"/api/v1/stats", "/api/v1/vessels", "/api/v1/vessels/v1"} {
		rec := get(t, h, path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
			continue
		}
		var raw map[string]interface{}
		if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
			t.Errorf("GET %s: invalid JSON: %v", path, err)
		}
	}

	var resp vesselResponse
	if err := json.NewDecoder(get(t, h, "/api/v1/vessels/v1").Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Vessel.Speed != nil || resp.Vessel.Course != nil || resp.ETAAvailable {
		t.Errorf("speed = %v, course = %v, etaAvailable = %v; want unreported", resp.Vessel.Speed, resp.Vessel.Course, resp.ETAAvailable)
	}
}

func TestWriteJSONFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"speed": math.Inf(1)})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty body")
	}
}
