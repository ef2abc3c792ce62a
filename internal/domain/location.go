package domain

import "sort"

// DefaultLocations is the catalog the service ships with.
var DefaultLocations = []string{
	"Albuquerque, New Mexico", "Carlsbad, California", "Chula Vista, California",
	"Colorado Springs, Colorado", "Denver, Colorado", "El Cajon, California",
	"El Paso, Texas", "Escondido, California", "Fresno, California", "La Mesa, California",
	"Las Vegas, Nevada", "Los Angeles, California", "Oceanside, California",
	"Phoenix, Arizona", "Sacramento, California", "Salt Lake City, Utah",
	"San Diego, California", "Tucson, Arizona",
}

// LocationCatalog is an immutable set of accepted location strings.
// The zero value accepts nothing.
type LocationCatalog struct{ set map[string]struct{} }

func NewLocationCatalog(locs ...string) LocationCatalog {
	set := make(map[string]struct{}, len(locs))
	for _, l := range locs {
		set[l] = struct{}{}
	}
	return LocationCatalog{set: set}
}

func (c LocationCatalog) Contains(loc string) bool {
	_, ok := c.set[loc]
	return ok
}

func (c LocationCatalog) Len() int { return len(c.set) }

// Locations returns the catalog entries sorted.
func (c LocationCatalog) Locations() []string {
	out := make([]string, 0, len(c.set))
	for l := range c.set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
