package arcgis

import (
	"errors"
	"math"
)

// Envelope is a WGS-84 bounding box in the shape the query endpoint expects.
type Envelope struct {
	XMin             float64          `json:"xmin"`
	XMax             float64          `json:"xmax"`
	YMin             float64          `json:"ymin"`
	YMax             float64          `json:"ymax"`
	SpatialReference spatialReference `json:"spatialReference"`
}

type spatialReference struct {
	WKID int `json:"wkid"`
}

const metersPerDegreeLat = 111_320.0

// SearchEnvelope builds a WGS-84 envelope of the given radius around a
// coordinate, using the flat-earth meters-per-degree approximation that is
// plenty accurate at county scale.
func SearchEnvelope(lat, lng, radiusM float64) (*Envelope, error) {
	metersPerDegreeLng := metersPerDegreeLat * math.Cos(lat*math.Pi/180)
	if metersPerDegreeLng == 0 {
		return nil, errors.New("unable to compute longitude delta for the provided latitude")
	}

	deltaLat := radiusM / metersPerDegreeLat
	deltaLng := radiusM / metersPerDegreeLng
	return &Envelope{
		XMin:             lng - deltaLng,
		XMax:             lng + deltaLng,
		YMin:             lat - deltaLat,
		YMax:             lat + deltaLat,
		SpatialReference: spatialReference{WKID: 4326},
	}, nil
}
