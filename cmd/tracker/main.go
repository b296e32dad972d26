package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"river-tracker/internal/api"
	"river-tracker/internal/config"
	"river-tracker/internal/db"
	"river-tracker/internal/fleet"
	"river-tracker/internal/metrics"
	"river-tracker/internal/publisher"
	"river-tracker/internal/route"
	"river-tracker/internal/tracker"
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt, err := route.Load(cfg.RouteFile)
	if err != nil {
		log.Fatalf("route error: %v", err)
	}
	log.Printf("route %s → %s: %d waypoints, %.0f nm", rt.Origin().Name, rt.Destination().Name, rt.Len(), rt.TotalDistance())
	defaulted := rt.DefaultedSegments()
	for _, s := range defaulted {
		log.Warnf("no distance configured for %s-%s, assuming %.0f nm", s.From, s.To, s.DistanceNM)
	}

	// Snapshot source: PostgreSQL, or the demo fleet
	var src tracker.Source
	if cfg.DemoMode {
		log.Printf("demo mode: serving the built-in demo fleet")
		src = fleet.NewDemoSource()
	} else {
		sqlDB, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			// The tracker still starts; refreshes report "no data" until the database answers.
			log.Errorf("db ping error: %v", err)
		}
		if redacted, err := db.Redacted(cfg.DatabaseURL); err == nil {
			log.Printf("using database %s", redacted)
		}
		src = db.NewStore(sqlDB)
	}

	// Metrics setup
	var mcol *metrics.Collector
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mcol = metrics.NewCollector(cfg.RefreshInterval)
		mcol.SetRoute(rt.Len(), rt.TotalDistance(), len(defaulted))
		metricsSrv = mcol.Serve(cfg.MetricsAddr)
	}

	opts := []tracker.Option{tracker.WithMetrics(mcol)}

	// NATS publisher is optional
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
		opts = append(opts, tracker.WithPublisher(pub))
	}

	tz := cfg.Location
	opts = append(opts, tracker.WithClock(func() time.Time { return time.Now().In(tz) }))

	mgr := tracker.NewManager(src, rt, cfg.RefreshInterval, opts...)
	mgr.StartRefresher(ctx)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: api.InitServer(mgr)}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("http server error: %v", err)
			cancel()
		}
	}()
	log.Printf("api listening on %s", cfg.HTTPAddr)

	// Block until context cancelled
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	mgr.Stop()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Println("shutdown complete")
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
