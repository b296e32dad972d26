package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"river-tracker/internal/fleet"
	mmetrics "river-tracker/internal/metrics"
	"river-tracker/internal/passage"
	"river-tracker/internal/progress"
	"river-tracker/internal/publisher"
	"river-tracker/internal/route"
)

// Source returns the current vessels and passages. Either call may fail;
// a failure leaves the refresh with no data.
type Source interface {
	FetchVessels(ctx context.Context) ([]fleet.Vessel, error)
	FetchPassages(ctx context.Context) ([]fleet.PassageEvent, error)
}

type Publisher interface {
	PublishEstimate(msg publisher.EstimateMessage) error
}

type Manager struct {
	source          Source
	route           *route.Route
	engine          *progress.Engine
	reconciler      *passage.Reconciler
	pub             Publisher
	refreshInterval time.Duration
	metrics         *mmetrics.Collector
	now             func() time.Time

	mu    sync.RWMutex
	board *Board

	refreshCancel context.CancelFunc
	refreshWG     sync.WaitGroup
}

type Option func(*Manager)

// WithPublisher publishes the estimate of every vessel still under way after
// each refresh.
func WithPublisher(p Publisher) Option { return func(m *Manager) { m.pub = p } }

func WithMetrics(c *mmetrics.Collector) Option { return func(m *Manager) { m.metrics = c } }

// WithClock replaces time.Now as the source of "now" for estimates.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func NewManager(src Source, r *route.Route, refreshInterval time.Duration, opts ...Option) *Manager {
	m := &Manager{
		source:          src,
		route:           r,
		engine:          progress.NewEngine(r),
		reconciler:      passage.New(r),
		refreshInterval: refreshInterval,
		now:             time.Now,
		board:           &Board{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) Route() *route.Route { return m.route }

// Board returns the latest snapshot. The returned value must not be modified.
func (m *Manager) Board() *Board {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.board
}

// Refresh reads a fresh snapshot from the source and replaces the board. On
// a source error the board is replaced by an empty one carrying the error.
func (m *Manager) Refresh(ctx context.Context) (*Board, error) {
	start := time.Now()
	now := m.now()

	b, err := m.build(ctx, now)
	if err != nil {
		b = &Board{RefreshedAt: now, Err: err.Error()}
	}

	m.mu.Lock()
	if err != nil {
		b.LastSuccess = m.board.LastSuccess
	}
	m.board = b
	m.mu.Unlock()

	m.record(b, err, time.Since(start))
	if err != nil {
		return b, err
	}
	m.publish(b)
	return b, nil
}

func (m *Manager) build(ctx context.Context, now time.Time) (*Board, error) {
	vessels, err := m.source.FetchVessels(ctx)
	if err != nil {
		m.countError("vessels")
		return nil, fmt.Errorf("fetch vessels: %w", err)
	}
	passages, err := m.source.FetchPassages(ctx)
	if err != nil {
		m.countError("passages")
		return nil, fmt.Errorf("fetch passages: %w", err)
	}

	vessels, passages = finiteReadings(vessels, passages)

	b := &Board{
		RefreshedAt: now,
		LastSuccess: now,
		Views:       make([]View, 0, len(vessels)),
		Stats:       ComputeStats(vessels, passages),
	}
	for _, v := range vessels {
		b.Views = append(b.Views, m.view(v, passages, now))
	}
	return b, nil
}

// finiteReadings copies the snapshot with non-finite speeds and courses
// cleared, so they count as unreported downstream.
func finiteReadings(vessels []fleet.Vessel, passages []fleet.PassageEvent) ([]fleet.Vessel, []fleet.PassageEvent) {
	vs := make([]fleet.Vessel, len(vessels))
	for i, v := range vessels {
		v.Speed = fleet.Finite(v.Speed)
		v.Course = fleet.Finite(v.Course)
		vs[i] = v
	}
	ps := make([]fleet.PassageEvent, len(passages))
	for i, p := range passages {
		p.SpeedAtPassage = fleet.Finite(p.SpeedAtPassage)
		ps[i] = p
	}
	return vs, ps
}

func (m *Manager) view(v fleet.Vessel, passages []fleet.PassageEvent, now time.Time) View {
	res := m.reconciler.Reconcile(v.ID, passages)
	view := View{
		Vessel:      v,
		Timeline:    res.Timeline,
		LastPassage: res.LastEvent,
		Unmatched:   len(res.Unmatched),
	}
	if view.Unmatched > 0 {
		log.WithFields(log.Fields{"vessel": v.ID, "unmatched": view.Unmatched}).
			Warn("passages reference waypoints not on the route")
	}
	est, err := m.engine.Estimate(res.Last, v.Speed, now)
	if err != nil {
		// Reconcile only reports waypoints on the route, so this means the
		// route itself is inconsistent.
		view.Err = "cannot compute progress: " + err.Error()
		log.WithField("vessel", v.ID).Errorf("estimate: %v", err)
		return view
	}
	view.Estimate = &est
	return view
}

func (m *Manager) publish(b *Board) {
	if m.pub == nil {
		return
	}
	for i := range b.Views {
		if b.Views[i].Vessel.Status.Terminal() {
			continue
		}
		if err := m.pub.PublishEstimate(b.Views[i].Message(b.RefreshedAt)); err != nil {
			log.Errorf("publish error for %s: %v", b.Views[i].Vessel.ID, err)
		}
	}
}

func (m *Manager) countError(source string) {
	if m.metrics != nil {
		m.metrics.RefreshErrors.WithLabelValues(source).Inc()
	}
}

func (m *Manager) record(b *Board, err error, d time.Duration) {
	if err != nil {
		log.Errorf("refresh failed: %v", err)
	} else {
		log.Debugf("refreshed %d vessels, %d passages in %s", len(b.Views), b.Stats.TotalPassages, d)
	}
	if m.metrics == nil {
		return
	}
	m.metrics.Refreshes.Inc()
	m.metrics.RefreshSeconds.Observe(d.Seconds())
	if err != nil {
		m.metrics.LastRefreshOK.Set(0)
	} else {
		m.metrics.LastRefreshOK.Set(1)
	}
	unknown, unmatched, failures := 0, 0, 0
	for _, v := range b.Views {
		if v.Estimate == nil {
			failures++
		} else if !v.Estimate.ETAAvailable() {
			unknown++
		}
		unmatched += v.Unmatched
	}
	m.metrics.VesselsTracked.Set(float64(len(b.Views)))
	for _, s := range []fleet.Status{fleet.StatusInTransit, fleet.StatusMoored, fleet.StatusAnchored, fleet.StatusArrived} {
		m.metrics.VesselsByStatus.WithLabelValues(string(s)).Set(float64(b.Stats.ByStatus[s]))
	}
	m.metrics.PassagesTotal.Set(float64(b.Stats.TotalPassages))
	m.metrics.AverageSpeed.Set(b.Stats.AverageSpeed)
	m.metrics.UnknownETAs.Set(float64(unknown))
	m.metrics.UnmatchedEvents.Set(float64(unmatched))
	m.metrics.EstimateFailures.Set(float64(failures))
}

// StartRefresher launches a background loop that refreshes the board now and
// then every refresh interval.
func (m *Manager) StartRefresher(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	m.refreshCancel = cancel
	m.refreshWG.Add(1)
	go func() {
		defer m.refreshWG.Done()
		// immediate refresh on start
		_, _ = m.Refresh(ctx)
		if m.refreshInterval <= 0 {
			return
		}
		ticker := time.NewTicker(m.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = m.Refresh(ctx)
			}
		}
	}()
}

func (m *Manager) Stop() {
	if m.refreshCancel != nil {
		m.refreshCancel()
	}
	m.refreshWG.Wait()
}
