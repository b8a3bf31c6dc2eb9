// Package boundary loads LGA boundary polygons and the region
// classification lookup table.
package boundary

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
)

// Fields names the attribute columns carrying each region's code, name and
// state. The ABS 2021 LGA files use LGA_CODE21, LGA_NAME21 and STE_NAME21.
type Fields struct {
	Code  string
	Name  string
	State string
}

// DefaultFields matches the ABS ASGS Edition 3 LGA boundary files.
var DefaultFields = Fields{Code: "LGA_CODE21", Name: "LGA_NAME21", State: "STE_NAME21"}

// LoadBoundaries reads every polygon feature in path. The format is chosen
// by extension: ".shp" for an ESRI shapefile (with its .dbf alongside),
// ".geojson" or ".json" for a GeoJSON FeatureCollection. Returned regions
// are unclassified.
func LoadBoundaries(path string, fields Fields) ([]domain.Region, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return loadShapefile(path, fields)
	case ".geojson", ".json":
		return loadGeoJSON(path, fields)
	default:
		return nil, fmt.Errorf("unsupported boundary file %q: want .shp, .geojson or .json", path)
	}
}
