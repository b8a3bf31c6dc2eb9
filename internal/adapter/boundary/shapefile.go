package boundary

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/nsw-covid-lga-map/internal/domain"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

func loadShapefile(path string, fields Fields) ([]domain.Region, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	codeCol, nameCol, stateCol := -1, -1, -1
	for i, f := range r.Fields() {
		switch strings.TrimSpace(f.String()) {
		case fields.Code:
			codeCol = i
		case fields.Name:
			nameCol = i
		case fields.State:
			stateCol = i
		}
	}
	if codeCol < 0 {
		return nil, fmt.Errorf("shapefile %s: missing field %s", path, fields.Code)
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("shapefile %s: missing field %s", path, fields.Name)
	}

	var regions []domain.Region
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly.NumParts == 0 {
			continue
		}
		region := domain.Region{
			Code:     attribute(r, n, codeCol),
			Name:     attribute(r, n, nameCol),
			Geometry: polygonToMulti(poly),
		}
		if stateCol >= 0 {
			region.State = attribute(r, n, stateCol)
		}
		regions = append(regions, region)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}
	return regions, nil
}

// attribute reads a DBF cell. Cells are padded with spaces or NULs
// depending on the writer.
func attribute(r *shp.Reader, row, col int) string {
	return strings.Trim(r.ReadAttribute(row, col), " \x00")
}

// polygonToMulti converts shapefile parts into one single-ring polygon per
// part. Shapefile holes are wound opposite to their shells, so filling
// every ring with the non-zero rule still leaves them empty.
func polygonToMulti(p *shp.Polygon) orb.MultiPolygon {
	mp := make(orb.MultiPolygon, 0, len(p.Parts))
	for i, start := range p.Parts {
		end := len(p.Points)
		if i+1 < len(p.Parts) {
			end = int(p.Parts[i+1])
		}
		ring := make(orb.Ring, 0, end-int(start))
		for _, pt := range p.Points[start:end] {
			ring = append(ring, orb.Point{pt.X, pt.Y})
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}
