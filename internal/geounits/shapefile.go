package geounits

import (
	"context"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShapefileSpec names one shapefile to ingest and the geolevel its units
// belong to. IDField and NameField are dbf column names; TIGER/Line products
// carry GEOID and NAME.
type ShapefileSpec struct {
	Path       string
	GeolevelID int
	IDField    string
	NameField  string
}

// LoadShapefiles ingests shapefiles into the index, one goroutine per file.
// Returns the number of units loaded.
func LoadShapefiles(ctx context.Context, ix *Index, specs []ShapefileSpec) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	counts := make([]int, len(specs))

	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			units, err := ParseShapefile(spec)
			if err != nil {
				return err
			}
			for _, u := range units {
				ix.Insert(u)
			}
			counts[i] = len(units)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// ParseShapefile reads one shapefile and returns its units. Records without
// geometry or without an id attribute are skipped.
func ParseShapefile(spec ShapefileSpec) ([]Unit, error) {
	reader, err := shp.Open(spec.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "geounits: open shapefile %s", spec.Path)
	}
	defer func() { _ = reader.Close() }()

	idField := spec.IDField
	if idField == "" {
		idField = "GEOID"
	}
	nameField := spec.NameField
	if nameField == "" {
		nameField = "NAME"
	}

	// Build field name → index map; dbf headers are NUL-padded.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	idIdx, ok := fieldIdx[strings.ToLower(idField)]
	if !ok {
		return nil, eris.Errorf("geounits: shapefile %s has no %q field", spec.Path, idField)
	}
	nameIdx, hasName := fieldIdx[strings.ToLower(nameField)]

	var units []Unit
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		id := strings.TrimSpace(strings.TrimRight(reader.Attribute(idIdx), "\x00"))
		if id == "" {
			skipped++
			continue
		}

		poly, ok := shapeToPolygon(shape)
		if !ok {
			skipped++
			continue
		}

		u := Unit{ID: id, GeolevelID: spec.GeolevelID, Geom: poly}
		if hasName {
			u.Name = strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		}
		units = append(units, u)
	}

	if skipped > 0 {
		zap.L().Debug("skipped shapefile records",
			zap.String("path", spec.Path),
			zap.Int("skipped", skipped),
		)
	}
	return units, nil
}

// shapeToPolygon converts a shapefile polygon to a go-geom polygon. Each part
// becomes a linear ring; the first part is the exterior.
func shapeToPolygon(shape shp.Shape) (*geom.Polygon, bool) {
	var points []shp.Point
	var parts []int32

	switch s := shape.(type) {
	case *shp.Polygon:
		points, parts = s.Points, s.Parts
	case *shp.PolygonZ:
		points, parts = s.Points, s.Parts
	default:
		return nil, false
	}
	if len(points) == 0 {
		return nil, false
	}
	if len(parts) == 0 {
		parts = []int32{0}
	}

	rings := make([][]geom.Coord, 0, len(parts))
	for i, start := range parts {
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if int(start) >= end {
			continue
		}
		ring := make([]geom.Coord, 0, end-int(start))
		for _, p := range points[start:end] {
			ring = append(ring, geom.Coord{p.X, p.Y})
		}
		// Shapefile rings repeat the first point; go-geom requires it too,
		// so append the closure when the source omitted it.
		if len(ring) > 0 && !ring[0].Equal(geom.XY, ring[len(ring)-1]) {
			ring = append(ring, ring[0])
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, false
	}

	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords(rings); err != nil {
		return nil, false
	}
	return poly, true
}
