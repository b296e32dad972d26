package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type Collector struct {
	reg *prometheus.Registry

	VesselsTracked   prometheus.Gauge
	VesselsByStatus  *prometheus.GaugeVec // status label
	PassagesTotal    prometheus.Gauge
	AverageSpeed     prometheus.Gauge
	UnknownETAs      prometheus.Gauge
	UnmatchedEvents  prometheus.Gauge
	EstimateFailures prometheus.Gauge

	Refreshes      prometheus.Counter
	RefreshErrors  *prometheus.CounterVec // source label: vessels|passages
	LastRefreshOK  prometheus.Gauge
	RefreshSeconds prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	RouteWaypoints         prometheus.Gauge
	RouteDistanceNM        prometheus.Gauge
	RouteDefaultedSegments prometheus.Gauge
	RefreshInterval        prometheus.Gauge // seconds
}

func NewCollector(refreshInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		VesselsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_vessels",
			Help: "Number of vessels in the latest snapshot.",
		}),
		VesselsByStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tracker_vessels_by_status",
			Help: "Number of vessels per reported status.",
		}, []string{"status"}),
		PassagesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_passages",
			Help: "Number of recorded waypoint passages in the latest snapshot.",
		}),
		AverageSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_average_speed_knots",
			Help: "Average reported speed across all vessels (unreported counts as 0).",
		}),
		UnknownETAs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_unknown_etas",
			Help: "Vessels whose ETA could not be estimated.",
		}),
		UnmatchedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_unmatched_passages",
			Help: "Passages referencing a waypoint that is not on the route.",
		}),
		EstimateFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_estimate_failures",
			Help: "Vessels whose progress could not be computed.",
		}),
		Refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_refreshes_total",
			Help: "Total snapshot refreshes.",
		}),
		RefreshErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_refresh_errors_total",
			Help: "Snapshot refreshes that failed, by source.",
		}, []string{"source"}),
		LastRefreshOK: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_last_refresh_ok",
			Help: "1 if the latest refresh succeeded, 0 otherwise.",
		}),
		RefreshSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_refresh_duration_seconds",
			Help:    "Duration of a snapshot refresh.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		RouteWaypoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_route_waypoints",
			Help: "Number of waypoints on the configured route.",
		}),
		RouteDistanceNM: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_route_distance_nautical_miles",
			Help: "Total route distance.",
		}),
		RouteDefaultedSegments: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_route_defaulted_segments",
			Help: "Route segments using the default distance.",
		}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_refresh_interval_seconds",
			Help: "Snapshot refresh interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.VesselsTracked, c.VesselsByStatus, c.PassagesTotal, c.AverageSpeed,
		c.UnknownETAs, c.UnmatchedEvents, c.EstimateFailures,
		c.Refreshes, c.RefreshErrors, c.LastRefreshOK, c.RefreshSeconds,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.RouteWaypoints, c.RouteDistanceNM, c.RouteDefaultedSegments, c.RefreshInterval,
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())

	return c
}

// SetRoute records static facts about the configured route.
func (c *Collector) SetRoute(waypoints int, distanceNM float64, defaulted int) {
	c.RouteWaypoints.Set(float64(waypoints))
	c.RouteDistanceNM.Set(distanceNM)
	c.RouteDefaultedSegments.Set(float64(defaulted))
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
