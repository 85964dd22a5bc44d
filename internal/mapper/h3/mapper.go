package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/geoserver-catalog/internal/mapper"
	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

var _ mapper.Interface = (*Mapper)(nil)

type Mapper struct{}

func New() *Mapper { return &Mapper{} }

// CellsForBox covers a lon/lat (EPSG:4326) box. A box too small to contain
// a cell center maps to the cell holding its centroid.
func (m *Mapper) CellsForBox(b *bbox.BoundingBox, res int) (mapper.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if b == nil || b.IsEmpty() {
		return nil, errors.New("empty bounding box")
	}
	cells, err := m.CellsForGeometry(b.ToGeometry(), res)
	if err != nil {
		return nil, err
	}
	if len(cells) > 0 {
		return cells, nil
	}
	c := b.Centroid()
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c[1], Lng: c[0]}, res)
	if err != nil {
		return nil, fmt.Errorf("h3 cell for centroid: %w", err)
	}
	return mapper.Cells{cell.String()}, nil
}

// CellsForGeometry covers a Polygon, MultiPolygon or Bound in degrees.
func (m *Mapper) CellsForGeometry(g orb.Geometry, res int) (mapper.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	switch v := g.(type) {
	case orb.Bound:
		return m.CellsForGeometry(v.ToPolygon(), res)
	case orb.Polygon:
		outer, holes, err := toLoops(v)
		if err != nil {
			return nil, err
		}
		return polyfillOne(outer, holes, res)
	case orb.MultiPolygon:
		if len(v) == 0 {
			return nil, errors.New("empty multipolygon")
		}
		seen := make(map[string]struct{})
		var out []string
		for pi, poly := range v {
			outer, holes, err := toLoops(poly)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", pi, err)
			}
			cells, err := polyfillOne(outer, holes, res)
			if err != nil {
				return nil, err
			}
			for _, c := range cells {
				if _, ok := seen[c]; !ok {
					seen[c] = struct{}{}
					out = append(out, c)
				}
			}
		}
		sort.Strings(out)
		return out, nil
	case nil:
		return nil, errors.New("nil geometry")
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.GeoJSONType())
	}
}

// Cover maps the box at res and walks up the hierarchy until at most
// maxCells remain. It returns the cells and the resolution they are at.
func (m *Mapper) Cover(b *bbox.BoundingBox, res, maxCells int) (mapper.Cells, int, error) {
	cells, err := m.CellsForBox(b, res)
	if err != nil {
		return nil, 0, err
	}
	for maxCells > 0 && len(cells) > maxCells && res > 0 {
		res--
		if cells, err = m.toParents(cells, res); err != nil {
			return nil, 0, err
		}
	}
	return cells, res, nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func toLoops(p orb.Polygon) (h3.GeoLoop, []h3.GeoLoop, error) {
	if len(p) == 0 {
		return nil, nil, errors.New("empty polygon")
	}
	outer := toLoop(p[0])
	if len(outer) < 3 {
		return nil, nil, errors.New("outer ring has < 3 distinct vertices")
	}
	var holes []h3.GeoLoop
	for i := 1; i < len(p); i++ {
		h := toLoop(p[i])
		if len(h) < 3 {
			return nil, nil, fmt.Errorf("hole %d has < 3 distinct vertices", i-1)
		}
		holes = append(holes, h)
	}
	return outer, holes, nil
}

// Convert an orb ring of [lon,lat] points to an h3.GeoLoop (in degrees).
// If the ring is explicitly closed (last == first), drop the trailing duplicate.
func toLoop(ring orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(ring))
	for _, pt := range ring {
		loop = append(loop, h3.LatLng{Lat: pt.Lat(), Lng: pt.Lon()})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) (mapper.Cells, error) {
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}
	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}
	return uniqueSorted(indexes), nil
}

func (m *Mapper) toParents(cells mapper.Cells, res int) (mapper.Cells, error) {
	parents := make([]h3.Cell, 0, len(cells))
	for _, s := range cells {
		var c h3.Cell
		if err := c.UnmarshalText([]byte(s)); err != nil {
			return nil, fmt.Errorf("parse cell: %w", err)
		}
		if !c.IsValid() {
			return nil, fmt.Errorf("invalid h3 cell %q", s)
		}
		p, err := c.Parent(res)
		if err != nil {
			return nil, fmt.Errorf("h3 parent: %w", err)
		}
		parents = append(parents, p)
	}
	return uniqueSorted(parents), nil
}

func uniqueSorted(cells []h3.Cell) mapper.Cells {
	out := make([]string, 0, len(cells))
	seen := make(map[string]struct{}, len(cells))
	for _, c := range cells {
		s := c.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
