package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"river-tracker/internal/fleet"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// Store reads vessel and passage snapshots. It never writes.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, timeout: 15 * time.Second}
}

func (s *Store) FetchVessels(ctx context.Context) ([]fleet.Vessel, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := `
SELECT id::text, COALESCE(mmsi, ''), COALESCE(name, ''), COALESCE(ship_type, ''), COALESCE(flag, ''),
       COALESCE(destination, ''), speed, course,
       COALESCE(latitude, 0), COALESCE(longitude, 0), COALESCE(status, ''), last_position_update
FROM vessels
ORDER BY last_position_update DESC NULLS LAST`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query vessels: %w", err)
	}
	defer rows.Close()

	var out []fleet.Vessel
	for rows.Next() {
		var v fleet.Vessel
		var speed, course sql.NullFloat64
		var status string
		var updated sql.NullTime
		if err := rows.Scan(&v.ID, &v.MMSI, &v.Name, &v.ShipType, &v.Flag, &v.Destination,
			&speed, &course, &v.Lat, &v.Lon, &status, &updated); err != nil {
			return nil, err
		}
		v.Speed = nullFloat(speed)
		v.Course = nullFloat(course)
		v.Status = fleet.ParseStatus(status)
		if updated.Valid {
			v.LastPositionUpdate = updated.Time
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) FetchPassages(ctx context.Context) ([]fleet.PassageEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := `
SELECT id::text, vessel_id::text, COALESCE(vessel_name, ''), city_name, COALESCE(city_order, 0),
       passage_time, speed_at_passage
FROM city_passages
ORDER BY passage_time DESC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query city_passages: %w", err)
	}
	defer rows.Close()

	var out []fleet.PassageEvent
	for rows.Next() {
		var p fleet.PassageEvent
		var speed sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.VesselID, &p.VesselName, &p.WaypointName, &p.WaypointOrder,
			&p.Timestamp, &speed); err != nil {
			return nil, err
		}
		p.SpeedAtPassage = nullFloat(speed)
		out = append(out, p)
	}
	return out, rows.Err()
}

// nullFloat maps NULL and the non-finite values double precision can hold
// ('NaN', 'Infinity') to nil.
func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return fleet.Finite(&v)
}
