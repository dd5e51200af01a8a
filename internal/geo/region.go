// Package geo provides pure geometry for user-drawn map regions: haversine
// distance, point-in-circle and point-in-polygon membership, region-list
// filtering, and tolerant region equality.
package geo

import (
	"encoding/json"
	"math"
)

// earthRadiusMeters is the mean Earth radius used by the haversine formula.
const earthRadiusMeters = 6_371_000.0

// Point is a WGS-84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RegionType identifies the shape of a region.
type RegionType string

const (
	RegionTypeCircle  RegionType = "circle"
	RegionTypePolygon RegionType = "polygon"
)

// Region is a user-authored map shape: a circle (center + radius) or a
// polygon (ordered vertex ring). Shapes arrive as loosely-typed persisted
// JSON; run them through Normalize before use.
type Region struct {
	Type         RegionType `json:"type"`
	Center       Point      `json:"center,omitempty"`
	RadiusMeters float64    `json:"radius_m,omitempty"`
	Points       []Point    `json:"points,omitempty"`
}

// DistanceMeters returns the great-circle distance between two points via
// the haversine formula. Symmetric; zero for equal points.
func DistanceMeters(a, b Point) float64 {
	latA := radians(a.Lat)
	latB := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLng*sinLng
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// PointInRegion reports whether p falls inside the region. Circles include
// their boundary (distance ≤ radius). Polygons use a ray-casting parity
// test; the result for a point exactly on a polygon edge is unspecified.
func PointInRegion(p Point, region Region) bool {
	switch region.Type {
	case RegionTypeCircle:
		return DistanceMeters(p, region.Center) <= region.RadiusMeters
	case RegionTypePolygon:
		return pointInPolygon(p, region.Points)
	default:
		return false
	}
}

// pointInPolygon is a standard ray-casting parity test over a possibly
// non-convex vertex ring.
func pointInPolygon(p Point, vertices []Point) bool {
	if len(vertices) < 3 {
		return false
	}
	inside := false
	j := len(vertices) - 1
	for i := range vertices {
		vi, vj := vertices[i], vertices[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			crossLng := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// PointInAnyRegion reports whether p falls in at least one region. An empty
// region list means no spatial restriction and always matches.
func PointInAnyRegion(p Point, regions []Region) bool {
	if len(regions) == 0 {
		return true
	}
	for _, region := range regions {
		if PointInRegion(p, region) {
			return true
		}
	}
	return false
}

// FilterByRegions returns the items whose location falls in at least one
// region, preserving order. With no regions it returns items unchanged
// (identity). Once any region is defined, items without a location
// (ok=false from the accessor) are excluded.
func FilterByRegions[T any](items []T, regions []Region, location func(T) (Point, bool)) []T {
	if len(regions) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		p, ok := location(item)
		if !ok {
			continue
		}
		if PointInAnyRegion(p, regions) {
			out = append(out, item)
		}
	}
	return out
}

// RegionsEqual reports structural equality of two region lists with
// coordinate tolerance epsilon, used to detect no-op region edits before
// persisting.
func RegionsEqual(a, b []Region, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !RegionEqual(a[i], b[i], epsilon) {
			return false
		}
	}
	return true
}

// RegionEqual compares two regions structurally with coordinate tolerance.
func RegionEqual(a, b Region, epsilon float64) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case RegionTypeCircle:
		return pointsClose(a.Center, b.Center, epsilon) &&
			math.Abs(a.RadiusMeters-b.RadiusMeters) <= epsilon
	case RegionTypePolygon:
		if len(a.Points) != len(b.Points) {
			return false
		}
		for i := range a.Points {
			if !pointsClose(a.Points[i], b.Points[i], epsilon) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Normalize validates and cleans a loosely-typed region, returning nil for
// malformed shapes: non-finite coordinates, a non-positive circle radius,
// or a polygon with fewer than 3 vertices after removing consecutive
// duplicates and a closing duplicate. Malformed shapes are dropped silently
// on the read path; authoring-time validation is the caller's concern.
func Normalize(region Region) *Region {
	switch region.Type {
	case RegionTypeCircle:
		if !finitePoint(region.Center) {
			return nil
		}
		if !finite(region.RadiusMeters) || region.RadiusMeters <= 0 {
			return nil
		}
		return &Region{Type: RegionTypeCircle, Center: region.Center, RadiusMeters: region.RadiusMeters}
	case RegionTypePolygon:
		points := dedupeVertices(region.Points)
		if len(points) < 3 {
			return nil
		}
		for _, p := range points {
			if !finitePoint(p) {
				return nil
			}
		}
		return &Region{Type: RegionTypePolygon, Points: points}
	default:
		return nil
	}
}

// ParseRegions decodes a persisted JSON region list, normalizing each shape
// and dropping malformed entries silently.
func ParseRegions(data []byte) []Region {
	if len(data) == 0 {
		return nil
	}
	var raw []Region
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	out := make([]Region, 0, len(raw))
	for _, region := range raw {
		if normalized := Normalize(region); normalized != nil {
			out = append(out, *normalized)
		}
	}
	return out
}

// dedupeVertices drops consecutive duplicate vertices and a closing
// duplicate (first == last).
func dedupeVertices(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}

func pointsClose(a, b Point, epsilon float64) bool {
	return math.Abs(a.Lat-b.Lat) <= epsilon && math.Abs(a.Lng-b.Lng) <= epsilon
}

func finitePoint(p Point) bool {
	return finite(p.Lat) && finite(p.Lng)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
