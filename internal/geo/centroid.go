package geo

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Centroid returns the (lon, lat) centroid of a shapefile polygon.
// Multi-part polygons use the largest ring; degenerate geometries fall back
// to the bounding-box center.
func Centroid(p *shp.Polygon) (float64, float64, error) {
	if p == nil || len(p.Points) == 0 {
		return 0, 0, eris.New("geo: empty polygon")
	}

	ring := largestRing(p)
	if len(ring) >= 4 {
		flat := make([]float64, 0, len(ring)*2)
		for _, pt := range ring {
			flat = append(flat, pt.X, pt.Y)
		}
		poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		c, err := xy.Centroid(poly)
		if err == nil && len(c) >= 2 {
			return c[0], c[1], nil
		}
	}

	// Bounding-box fallback.
	box := p.BBox()
	return (box.MinX + box.MaxX) / 2, (box.MinY + box.MaxY) / 2, nil
}

// largestRing returns the ring of p with the most points.
func largestRing(p *shp.Polygon) []shp.Point {
	if len(p.Parts) <= 1 {
		return p.Points
	}
	var best []shp.Point
	for i, start := range p.Parts {
		end := int32(len(p.Points))
		if i+1 < len(p.Parts) {
			end = p.Parts[i+1]
		}
		ring := p.Points[start:end]
		if len(ring) > len(best) {
			best = ring
		}
	}
	return best
}
