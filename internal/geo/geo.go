// Package geo turns report locations into GeoJSON for map clients.
package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"

	"civic_trust/internal/models"
)

var ErrNotCoordinates = errors.New("location is not a lat,lon pair")

// ParseLocation reads a "lat,lon" location string into a WGS84 point.
// Free-text locations such as street names return ErrNotCoordinates.
func ParseLocation(loc string) (*geom.Point, error) {
	parts := strings.Split(loc, ",")
	if len(parts) != 2 {
		return nil, ErrNotCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, ErrNotCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, ErrNotCoordinates
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, ErrNotCoordinates
	}
	// GeoJSON orders coordinates lon, lat.
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{lon, lat}).SetSRID(4326), nil
}

// FeatureCollection maps every report with a coordinate location to a point
// feature. Reports with free-text locations are left out.
func FeatureCollection(reports []models.Report) *gjson.FeatureCollection {
	fc := &gjson.FeatureCollection{Features: make([]*gjson.Feature, 0, len(reports))}
	for _, r := range reports {
		pt, err := ParseLocation(r.Location)
		if err != nil {
			continue
		}
		fc.Features = append(fc.Features, &gjson.Feature{
			ID:       r.ID,
			Geometry: pt,
			Properties: map[string]interface{}{
				"type":            r.Type,
				"status":          string(r.Status),
				"validationCount": r.ValidationCount,
				"realVotes":       r.RealVotes,
				"fakeVotes":       r.FakeVotes,
				"ward":            r.Ward,
				"zone":            r.Zone,
			},
		})
	}
	return fc
}
