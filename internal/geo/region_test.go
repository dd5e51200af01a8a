package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	breck := Point{Lat: 39.4817, Lng: -106.0384}
	frisco := Point{Lat: 39.5744, Lng: -106.0975}

	t.Run("zero for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceMeters(breck, breck))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, DistanceMeters(breck, frisco), DistanceMeters(frisco, breck), 1e-9)
	})

	t.Run("breckenridge to frisco is about 11.5km", func(t *testing.T) {
		d := DistanceMeters(breck, frisco)
		assert.InDelta(t, 11_500, d, 500)
	})

	t.Run("one degree of latitude is about 111km", func(t *testing.T) {
		d := DistanceMeters(Point{Lat: 39, Lng: -106}, Point{Lat: 40, Lng: -106})
		assert.InDelta(t, 111_195, d, 100)
	})
}

func TestPointInRegionCircle(t *testing.T) {
	center := Point{Lat: 39.4817, Lng: -106.0384}
	region := Region{Type: RegionTypeCircle, Center: center, RadiusMeters: 1000}

	assert.True(t, PointInRegion(center, region), "center is inside")
	assert.True(t, PointInRegion(Point{Lat: 39.4860, Lng: -106.0384}, region), "500m north is inside")
	assert.False(t, PointInRegion(Point{Lat: 39.5744, Lng: -106.0975}, region), "next town over is outside")

	t.Run("boundary is inclusive", func(t *testing.T) {
		// A point whose haversine distance equals the radius exactly.
		p := Point{Lat: center.Lat, Lng: center.Lng}
		exact := Region{Type: RegionTypeCircle, Center: center, RadiusMeters: DistanceMeters(center, p)}
		assert.True(t, PointInRegion(p, exact))
	})
}

func TestPointInRegionPolygon(t *testing.T) {
	square := Region{Type: RegionTypePolygon, Points: []Point{
		{Lat: 39.0, Lng: -106.0},
		{Lat: 39.0, Lng: -105.0},
		{Lat: 40.0, Lng: -105.0},
		{Lat: 40.0, Lng: -106.0},
	}}

	assert.True(t, PointInRegion(Point{Lat: 39.5, Lng: -105.5}, square))
	assert.False(t, PointInRegion(Point{Lat: 38.5, Lng: -105.5}, square))
	assert.False(t, PointInRegion(Point{Lat: 39.5, Lng: -104.5}, square))

	t.Run("degenerate ring never matches", func(t *testing.T) {
		line := Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 39, Lng: -106}, {Lat: 40, Lng: -106},
		}}
		assert.False(t, PointInRegion(Point{Lat: 39.5, Lng: -106}, line))
	})

	t.Run("concave polygon", func(t *testing.T) {
		// L-shape with the notch at the top right.
		lShape := Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: 0, Lng: 4}, {Lat: 2, Lng: 4},
			{Lat: 2, Lng: 2}, {Lat: 4, Lng: 2}, {Lat: 4, Lng: 0},
		}}
		assert.True(t, PointInRegion(Point{Lat: 1, Lng: 1}, lShape))
		assert.False(t, PointInRegion(Point{Lat: 3, Lng: 3}, lShape), "notch is outside")
	})

	t.Run("unknown type never matches", func(t *testing.T) {
		assert.False(t, PointInRegion(Point{}, Region{Type: "rectangle"}))
	})
}

func TestPointInAnyRegion(t *testing.T) {
	inside := Point{Lat: 39.5, Lng: -105.5}
	square := Region{Type: RegionTypePolygon, Points: []Point{
		{Lat: 39, Lng: -106}, {Lat: 39, Lng: -105}, {Lat: 40, Lng: -105}, {Lat: 40, Lng: -106},
	}}
	farCircle := Region{Type: RegionTypeCircle, Center: Point{Lat: 0, Lng: 0}, RadiusMeters: 10}

	t.Run("empty list matches everything", func(t *testing.T) {
		assert.True(t, PointInAnyRegion(inside, nil))
		assert.True(t, PointInAnyRegion(Point{Lat: -89, Lng: 170}, []Region{}))
	})

	t.Run("any single match wins", func(t *testing.T) {
		assert.True(t, PointInAnyRegion(inside, []Region{farCircle, square}))
	})

	t.Run("no match", func(t *testing.T) {
		assert.False(t, PointInAnyRegion(Point{Lat: 10, Lng: 10}, []Region{farCircle, square}))
	})
}

func TestFilterByRegions(t *testing.T) {
	type place struct {
		name string
		loc  *Point
	}
	locOf := func(p place) (Point, bool) {
		if p.loc == nil {
			return Point{}, false
		}
		return *p.loc, true
	}

	in := Point{Lat: 39.5, Lng: -105.5}
	out := Point{Lat: 10, Lng: 10}
	places := []place{
		{name: "inside", loc: &in},
		{name: "outside", loc: &out},
		{name: "unknown"},
	}
	square := Region{Type: RegionTypePolygon, Points: []Point{
		{Lat: 39, Lng: -106}, {Lat: 39, Lng: -105}, {Lat: 40, Lng: -105}, {Lat: 40, Lng: -106},
	}}

	t.Run("no regions is identity", func(t *testing.T) {
		got := FilterByRegions(places, nil, locOf)
		assert.Len(t, got, 3)
	})

	t.Run("filters and drops locationless items", func(t *testing.T) {
		got := FilterByRegions(places, []Region{square}, locOf)
		require.Len(t, got, 1)
		assert.Equal(t, "inside", got[0].name)
	})
}

func TestRegionEqual(t *testing.T) {
	circle := Region{Type: RegionTypeCircle, Center: Point{Lat: 39.5, Lng: -106}, RadiusMeters: 500}

	t.Run("within epsilon", func(t *testing.T) {
		nudged := circle
		nudged.Center.Lat += 1e-7
		assert.True(t, RegionEqual(circle, nudged, 1e-6))
	})

	t.Run("beyond epsilon", func(t *testing.T) {
		nudged := circle
		nudged.RadiusMeters += 0.01
		assert.False(t, RegionEqual(circle, nudged, 1e-6))
	})

	t.Run("type mismatch", func(t *testing.T) {
		poly := Region{Type: RegionTypePolygon, Points: []Point{{}, {}, {}}}
		assert.False(t, RegionEqual(circle, poly, 1e-6))
	})

	t.Run("polygon length mismatch", func(t *testing.T) {
		a := Region{Type: RegionTypePolygon, Points: []Point{{Lat: 0}, {Lat: 1}, {Lat: 2}}}
		b := Region{Type: RegionTypePolygon, Points: []Point{{Lat: 0}, {Lat: 1}}}
		assert.False(t, RegionEqual(a, b, 1e-6))
	})

	t.Run("lists compare pairwise in order", func(t *testing.T) {
		other := Region{Type: RegionTypeCircle, Center: Point{Lat: 40, Lng: -105}, RadiusMeters: 200}
		assert.True(t, RegionsEqual([]Region{circle, other}, []Region{circle, other}, 1e-6))
		assert.False(t, RegionsEqual([]Region{circle, other}, []Region{other, circle}, 1e-6))
		assert.False(t, RegionsEqual([]Region{circle}, []Region{circle, other}, 1e-6))
	})
}

func TestNormalize(t *testing.T) {
	t.Run("valid circle passes through", func(t *testing.T) {
		got := Normalize(Region{Type: RegionTypeCircle, Center: Point{Lat: 39.5, Lng: -106}, RadiusMeters: 100})
		require.NotNil(t, got)
		assert.Equal(t, RegionTypeCircle, got.Type)
		assert.Equal(t, 100.0, got.RadiusMeters)
	})

	t.Run("rejects non-positive radius", func(t *testing.T) {
		assert.Nil(t, Normalize(Region{Type: RegionTypeCircle, Center: Point{Lat: 1, Lng: 1}, RadiusMeters: 0}))
		assert.Nil(t, Normalize(Region{Type: RegionTypeCircle, Center: Point{Lat: 1, Lng: 1}, RadiusMeters: -5}))
	})

	t.Run("rejects non-finite coordinates", func(t *testing.T) {
		assert.Nil(t, Normalize(Region{Type: RegionTypeCircle, Center: Point{Lat: math.NaN()}, RadiusMeters: 10}))
		assert.Nil(t, Normalize(Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: math.Inf(1), Lng: 1}, {Lat: 2, Lng: 2},
		}}))
	})

	t.Run("rejects two-vertex polygon", func(t *testing.T) {
		assert.Nil(t, Normalize(Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1},
		}}))
	})

	t.Run("accepts three-vertex polygon", func(t *testing.T) {
		got := Normalize(Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 1},
		}})
		require.NotNil(t, got)
		assert.Len(t, got.Points, 3)
	})

	t.Run("drops closing and consecutive duplicates", func(t *testing.T) {
		got := Normalize(Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 1}, {Lat: 0, Lng: 0},
		}})
		require.NotNil(t, got)
		assert.Len(t, got.Points, 3)
	})

	t.Run("triangle collapsing below three vertices is rejected", func(t *testing.T) {
		assert.Nil(t, Normalize(Region{Type: RegionTypePolygon, Points: []Point{
			{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 0, Lng: 0},
		}}))
	})

	t.Run("unknown type is rejected", func(t *testing.T) {
		assert.Nil(t, Normalize(Region{Type: "square"}))
	})
}

func TestParseRegions(t *testing.T) {
	t.Run("drops malformed entries silently", func(t *testing.T) {
		data := []byte(`[
			{"type":"circle","center":{"lat":39.5,"lng":-106},"radius_m":250},
			{"type":"circle","center":{"lat":1,"lng":1},"radius_m":0},
			{"type":"polygon","points":[{"lat":0,"lng":0},{"lat":1,"lng":1}]},
			{"type":"polygon","points":[{"lat":0,"lng":0},{"lat":1,"lng":1},{"lat":0,"lng":1}]}
		]`)
		got := ParseRegions(data)
		require.Len(t, got, 2)
		assert.Equal(t, RegionTypeCircle, got[0].Type)
		assert.Equal(t, RegionTypePolygon, got[1].Type)
	})

	t.Run("empty or invalid input yields nil", func(t *testing.T) {
		assert.Nil(t, ParseRegions(nil))
		assert.Nil(t, ParseRegions([]byte("not json")))
	})
}
