package fleet

import (
	"context"
	"time"
)

// DemoSource serves a fixed demonstration fleet, with timestamps relative to Now.
type DemoSource struct {
	Now func() time.Time
}

func NewDemoSource() *DemoSource { return &DemoSource{Now: time.Now} }

func (d *DemoSource) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *DemoSource) FetchVessels(_ context.Context) ([]Vessel, error) {
	now := d.now()
	return []Vessel{
		{ID: "710001234", MMSI: "710001234", Name: "NAVIO AMAZONAS", ShipType: "Cargo", Flag: "BR", Destination: "ITACOATIARA",
			Lat: -1.8, Lon: -55.0, Speed: Float(8.5), Course: Float(270), Status: StatusInTransit, LastPositionUpdate: now},
		{ID: "710005678", MMSI: "710005678", Name: "BARCO SOLIMÕES", ShipType: "Passenger", Flag: "BR", Destination: "ITACOATIARA",
			Lat: -2.3, Lon: -56.2, Speed: Float(12.3), Course: Float(265), Status: StatusInTransit, LastPositionUpdate: now},
		{ID: "710009012", MMSI: "710009012", Name: "FERRY NEGRO", ShipType: "Ferry", Flag: "BR", Destination: "ITACOATIARA",
			Lat: -0.5, Lon: -52.0, Speed: Float(6.8), Course: Float(260), Status: StatusInTransit, LastPositionUpdate: now},
	}, nil
}

func (d *DemoSource) FetchPassages(_ context.Context) ([]PassageEvent, error) {
	now := d.now()
	ago := func(h int) time.Time { return now.Add(-time.Duration(h) * time.Hour) }
	p := func(id, vessel, name, city string, order, hoursAgo int, speed float64) PassageEvent {
		return PassageEvent{ID: id, VesselID: vessel, VesselName: name, WaypointName: city, WaypointOrder: order,
			Timestamp: ago(hoursAgo), SpeedAtPassage: Float(speed)}
	}
	return []PassageEvent{
		p("p1", "710001234", "NAVIO AMAZONAS", "Macapá", 1, 48, 8.2),
		p("p2", "710001234", "NAVIO AMAZONAS", "Almeirim", 2, 36, 9.0),
		p("p3", "710001234", "NAVIO AMAZONAS", "Monte Alegre", 3, 28, 8.8),
		p("p4", "710001234", "NAVIO AMAZONAS", "Santarém", 4, 22, 8.5),
		p("p5", "710001234", "NAVIO AMAZONAS", "Óbidos", 5, 12, 8.5),
		p("p6", "710005678", "BARCO SOLIMÕES", "Macapá", 1, 36, 12.0),
		p("p7", "710005678", "BARCO SOLIMÕES", "Almeirim", 2, 24, 11.8),
		p("p8", "710005678", "BARCO SOLIMÕES", "Monte Alegre", 3, 18, 12.3),
		p("p9", "710005678", "BARCO SOLIMÕES", "Santarém", 4, 12, 12.0),
		p("p10", "710005678", "BARCO SOLIMÕES", "Óbidos", 5, 8, 12.1),
		p("p11", "710005678", "BARCO SOLIMÕES", "Parintins", 6, 2, 12.3),
		p("p12", "710009012", "FERRY NEGRO", "Macapá", 1, 24, 6.5),
		p("p13", "710009012", "FERRY NEGRO", "Almeirim", 2, 12, 6.8),
	}, nil
}
