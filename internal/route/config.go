package route

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Waypoints         []Waypoint `yaml:"waypoints" validate:"required,min=1,dive"`
	Segments          []Segment  `yaml:"segments" validate:"dive"`
	DefaultDistanceNM float64    `yaml:"defaultDistanceNM" validate:"gte=0"`
}

// DefaultConfig is the Macapá → Itacoatiara route on the Amazon.
func DefaultConfig() Config {
	return Config{
		Waypoints: []Waypoint{
			{Name: "Macapá", Order: 1, Lat: 0.0356, Lon: -51.0705},
			{Name: "Almeirim", Order: 2, Lat: -1.5283, Lon: -52.5817},
			{Name: "Monte Alegre", Order: 3, Lat: -2.0075, Lon: -54.0725},
			{Name: "Santarém", Order: 4, Lat: -2.4306, Lon: -54.7081},
			{Name: "Óbidos", Order: 5, Lat: -1.9025, Lon: -55.5175},
			{Name: "Parintins", Order: 6, Lat: -2.6283, Lon: -56.7358},
			{Name: "Itacoatiara", Order: 7, Lat: -3.1428, Lon: -58.4442},
		},
		Segments: []Segment{
			{From: "Macapá", To: "Almeirim", DistanceNM: 150},
			{From: "Almeirim", To: "Monte Alegre", DistanceNM: 96},
			{From: "Monte Alegre", To: "Santarém", DistanceNM: 60},
			{From: "Santarém", To: "Óbidos", DistanceNM: 65},
			{From: "Óbidos", To: "Parintins", DistanceNM: 90},
			{From: "Parintins", To: "Itacoatiara", DistanceNM: 140},
		},
		DefaultDistanceNM: DefaultDistanceNM,
	}
}

// LoadConfig reads and validates a YAML route file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read route file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse route file %s: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid route file %s: %w", path, err)
	}
	return cfg, nil
}

// Load builds a Route from the given file, or from DefaultConfig when path is empty.
func Load(path string) (*Route, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	return New(cfg)
}
