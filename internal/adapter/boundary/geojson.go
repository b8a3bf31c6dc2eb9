package boundary

import (
	"fmt"
	"os"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func loadGeoJSON(path string, fields Fields) ([]domain.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	regions := make([]domain.Region, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			// ABS files include null-geometry rows for "No usual address" and
			// "Migratory - Offshore - Shipping" pseudo-LGAs.
			continue
		}
		var mp orb.MultiPolygon
		switch g := f.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			return nil, fmt.Errorf("feature %d: unsupported geometry %s", i, f.Geometry.GeoJSONType())
		}
		code := propertyString(f.Properties, fields.Code)
		if code == "" {
			return nil, fmt.Errorf("feature %d: missing %s", i, fields.Code)
		}
		regions = append(regions, domain.Region{
			Code:     code,
			Name:     propertyString(f.Properties, fields.Name),
			State:    propertyString(f.Properties, fields.State),
			Geometry: mp,
		})
	}
	return regions, nil
}

// propertyString reads a property as text; numeric codes are formatted
// without a fractional part.
func propertyString(props geojson.Properties, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
