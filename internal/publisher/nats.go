package publisher

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("river-tracker"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warnf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// EstimateMessage is the JSON payload published for each vessel on every
// refresh. ETA, HoursRemaining and Speed are null when unavailable.
type EstimateMessage struct {
	VesselID        string     `json:"vesselId"`
	VesselName      string     `json:"vesselName"`
	Status          string     `json:"status"`
	Timestamp       time.Time  `json:"timestamp"`
	Lat             float64    `json:"lat"`
	Lon             float64    `json:"lon"`
	Speed           *float64   `json:"speed"`
	LastWaypoint    string     `json:"lastWaypoint"`
	ProgressPercent float64    `json:"progressPercent"`
	RemainingNM     *float64   `json:"remainingNM"`
	HoursRemaining  *float64   `json:"hoursRemaining"`
	ETA             *time.Time `json:"eta"`
	ETAIsEstimate   bool       `json:"etaIsEstimate"`
}

func (p *NATSPublisher) Subject(vesselID string) string {
	return subjectToken(p.prefix, true) + "." + subjectToken(vesselID, false)
}

func (p *NATSPublisher) PublishEstimate(msg EstimateMessage) error {
	subject := p.Subject(msg.VesselID)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// subjectToken makes s safe as NATS subject token(s). Dots are kept only
// when keepDots is set, so a prefix may span several tokens.
func subjectToken(s string, keepDots bool) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if keepDots {
		s = strings.Trim(s, ".")
	} else {
		s = strings.ReplaceAll(s, ".", "_")
	}
	if s == "" {
		s = "_"
	}
	return s
}
