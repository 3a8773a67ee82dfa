// Package geo holds the static city coordinate table and the great-circle
// distance used for geo-velocity features.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Model maps known location names to coordinates. It is read-only after
// construction and safe for concurrent readers.
type Model struct {
	cities map[string]Coordinates
}

var defaultModel = NewModel(map[string]Coordinates{
	"Mumbai":    {Latitude: 19.0760, Longitude: 72.8777},
	"Delhi":     {Latitude: 28.7041, Longitude: 77.1025},
	"Bangalore": {Latitude: 12.9716, Longitude: 77.5946},
	"Chennai":   {Latitude: 13.0827, Longitude: 80.2707},
	"Kolkata":   {Latitude: 22.5726, Longitude: 88.3639},
	"Pune":      {Latitude: 18.5204, Longitude: 73.8567},
	"Hyderabad": {Latitude: 17.3850, Longitude: 78.4867},
	"Ahmedabad": {Latitude: 23.0225, Longitude: 72.5714},
})

// Default returns the process-wide city table the models were trained with
func Default() *Model {
	return defaultModel
}

// NewModel copies the given table into a new immutable model
func NewModel(cities map[string]Coordinates) *Model {
	m := &Model{cities: make(map[string]Coordinates, len(cities))}
	for name, c := range cities {
		m.cities[name] = c
	}
	return m
}

// Lookup returns the coordinates of a known location
func (m *Model) Lookup(name string) (Coordinates, bool) {
	c, ok := m.cities[name]
	return c, ok
}

// Locations returns the known location names in alphabetical order
func (m *Model) Locations() []string {
	names := make([]string, 0, len(m.cities))
	for name := range m.cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Known reports whether the location is in the table
func (m *Model) Known(name string) bool {
	_, ok := m.cities[name]
	return ok
}

// DistanceKm returns the great-circle distance between two named locations.
// Unknown locations mean "no detectable travel" and yield 0.
func (m *Model) DistanceKm(a, b string) float64 {
	ca, ok := m.cities[a]
	if !ok {
		return 0
	}
	cb, ok := m.cities[b]
	if !ok {
		return 0
	}
	return Haversine(ca, cb)
}

// Haversine computes the great-circle distance in kilometers
func Haversine(p1, p2 Coordinates) float64 {
	lat1Rad := p1.Latitude * math.Pi / 180
	lat2Rad := p2.Latitude * math.Pi / 180
	deltaLat := (p2.Latitude - p1.Latitude) * math.Pi / 180
	deltaLon := (p2.Longitude - p1.Longitude) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}
