// Package geounits holds the client-side geounit feature index: geometries
// loaded from TIGER/Line shapefiles, queryable by point, box, and lasso so
// the selection tools can resolve gestures without a server round trip.
package geounits

import (
	"sync"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Unit is one indexed geounit at a single geolevel.
type Unit struct {
	ID         string
	GeolevelID int
	Name       string
	Geom       *geom.Polygon
}

// Index is an in-memory feature index keyed by geolevel. Queries prefilter on
// bounding boxes and refine with point-in-polygon tests.
type Index struct {
	mu      sync.RWMutex
	byLevel map[int][]*Unit
	byID    map[string]*Unit
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		byLevel: make(map[int][]*Unit),
		byID:    make(map[string]*Unit),
	}
}

// Insert adds a unit to the index, replacing any unit with the same id.
func (ix *Index) Insert(u Unit) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.byID[u.ID]; ok {
		level := ix.byLevel[old.GeolevelID]
		for i, candidate := range level {
			if candidate.ID == u.ID {
				ix.byLevel[old.GeolevelID] = append(level[:i], level[i+1:]...)
				break
			}
		}
	}
	stored := u
	ix.byID[u.ID] = &stored
	ix.byLevel[u.GeolevelID] = append(ix.byLevel[u.GeolevelID], &stored)
}

// Get returns the unit with the given id.
func (ix *Index) Get(id string) (Unit, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	u, ok := ix.byID[id]
	if !ok {
		return Unit{}, false
	}
	return *u, true
}

// Size returns the number of indexed units across all geolevels.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byID)
}

// LevelSize returns the number of units indexed at one geolevel.
func (ix *Index) LevelSize(geolevel int) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.byLevel[geolevel])
}

// At returns the units at a geolevel containing the point (x, y).
func (ix *Index) At(geolevel int, x, y float64) []Unit {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Unit
	for _, u := range ix.byLevel[geolevel] {
		if u.Geom == nil {
			continue
		}
		b := u.Geom.Bounds()
		if x < b.Min(0) || x > b.Max(0) || y < b.Min(1) || y > b.Max(1) {
			continue
		}
		if polygonContains(u.Geom, x, y) {
			out = append(out, *u)
		}
	}
	return out
}

// Box returns the units at a geolevel whose bounds intersect the rectangle
// (minX, minY)-(maxX, maxY). Box selection operates on extents, matching the
// rubber-band gesture; exact clipping happens server-side.
func (ix *Index) Box(geolevel int, minX, minY, maxX, maxY float64) []Unit {
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	box := geom.NewBounds(geom.XY)
	box.SetCoords(geom.Coord{minX, minY}, geom.Coord{maxX, maxY})

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Unit
	for _, u := range ix.byLevel[geolevel] {
		if u.Geom == nil {
			continue
		}
		if u.Geom.Bounds().Overlaps(geom.XY, box) {
			out = append(out, *u)
		}
	}
	return out
}

// RingPolygon builds a lasso polygon from the freehand gesture's vertices,
// closing the ring when the gesture leaves it open.
func RingPolygon(ring [][2]float64) (*geom.Polygon, error) {
	if len(ring) < 3 {
		return nil, eris.New("geounits: lasso ring needs at least 3 points")
	}
	coords := make([]geom.Coord, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, geom.Coord{p[0], p[1]})
	}
	if !coords[0].Equal(geom.XY, coords[len(coords)-1]) {
		coords = append(coords, coords[0])
	}
	poly := geom.NewPolygon(geom.XY)
	if _, err := poly.SetCoords([][]geom.Coord{coords}); err != nil {
		return nil, eris.Wrap(err, "geounits: lasso ring")
	}
	return poly, nil
}

// Lasso returns the units at a geolevel whose centroid falls inside the lasso
// polygon. Centroid membership mirrors how the freehand tool snaps units.
func (ix *Index) Lasso(geolevel int, lasso *geom.Polygon) []Unit {
	if lasso == nil || lasso.NumLinearRings() == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Unit
	for _, u := range ix.byLevel[geolevel] {
		if u.Geom == nil {
			continue
		}
		if !u.Geom.Bounds().Overlaps(geom.XY, lasso.Bounds()) {
			continue
		}
		c, err := xy.Centroid(u.Geom)
		if err != nil {
			continue
		}
		if polygonContains(lasso, c.X(), c.Y()) {
			out = append(out, *u)
		}
	}
	return out
}

// polygonContains reports whether (x, y) lies inside the polygon: in the
// exterior ring and outside every hole.
func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	pt := geom.Coord{x, y}
	if !xy.IsPointInRing(p.Layout(), pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), pt, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
