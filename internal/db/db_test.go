package db

import (
	"database/sql"
	"math"
	"testing"
)

func TestRedacted(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{"password masked", "postgres://river:secret@db:5432/tracker?sslmode=disable", "postgres://river:xxxxx@db:5432/tracker?sslmode=disable", false},
		{"no password", "postgresql://river@db/tracker", "postgresql://river@db/tracker", false},
		{"missing scheme", "river@db/tracker", "postgres://river@db/tracker", false},
		{"wrong scheme", "mysql://river@db/tracker", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Redacted(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Redacted() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Redacted() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNullFloat(t *testing.T) {
	if got := nullFloat(sql.NullFloat64{}); got != nil {
		t.Errorf("nullFloat(invalid) = %v, want nil", *got)
	}
	if got := nullFloat(sql.NullFloat64{Float64: 8.5, Valid: true}); got == nil || *got != 8.5 {
		t.Errorf("nullFloat(8.5) = %v", got)
	}
	// zero is a reported speed, not an absent one
	if got := nullFloat(sql.NullFloat64{Float64: 0, Valid: true}); got == nil || *got != 0 {
		t.Errorf("nullFloat(0) = %v, want pointer to 0", got)
	}
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := nullFloat(sql.NullFloat64{Float64: v, Valid: true}); got != nil {
			t.Errorf("nullFloat(%v) = %v, want nil", v, *got)
		}
	}
}
