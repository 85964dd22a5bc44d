// Package bbox accumulates axis-aligned 2D envelopes from points and geometries.
package bbox

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Epsilon is the default margin used by ExpandDefault, ConstrictDefault and
// by ToGeometry when the box collapses to a single point.
var Epsilon = 0.0001

// ErrDegenerate is returned when a derived value is undefined for the box shape.
var ErrDegenerate = errors.New("degenerate bounding box")

type BoundingBox struct {
	MinX, MinY float64
	MaxX, MaxY float64
	empty      bool
}

func New() *BoundingBox {
	b := &BoundingBox{}
	return b.Reset()
}

// Reset returns the box to the empty state with all scalars at 0.
func (b *BoundingBox) Reset() *BoundingBox {
	b.MinX, b.MinY, b.MaxX, b.MaxY = 0, 0, 0, 0
	b.empty = true
	return b
}

func (b *BoundingBox) IsEmpty() bool { return b.empty }

func (b *BoundingBox) Add(x, y float64) *BoundingBox {
	if b.empty {
		b.MinX, b.MaxX = x, x
		b.MinY, b.MaxY = y, y
		b.empty = false
		return b
	}
	b.MinX = min(b.MinX, x)
	b.MinY = min(b.MinY, y)
	b.MaxX = max(b.MaxX, x)
	b.MaxY = max(b.MaxY, y)
	return b
}

// AddGeometry folds the bound of g into the box.
func (b *BoundingBox) AddGeometry(g orb.Geometry) *BoundingBox {
	if g == nil {
		return b
	}
	bound := g.Bound()
	b.Add(bound.Min.X(), bound.Min.Y())
	b.Add(bound.Max.X(), bound.Max.Y())
	return b
}

// Expand grows the box outward by rate on every side. A negative rate shrinks it.
func (b *BoundingBox) Expand(rate float64) *BoundingBox {
	minx, miny := b.MinX-rate, b.MinY-rate
	maxx, maxy := b.MaxX+rate, b.MaxY+rate
	b.Reset()
	b.Add(minx, miny)
	b.Add(maxx, maxy)
	return b
}

func (b *BoundingBox) Constrict(rate float64) *BoundingBox {
	return b.Expand(-rate)
}

func (b *BoundingBox) ExpandDefault() *BoundingBox    { return b.Expand(Epsilon) }
func (b *BoundingBox) ConstrictDefault() *BoundingBox { return b.Constrict(Epsilon) }

func (b *BoundingBox) Min() [2]float64 { return [2]float64{b.MinX, b.MinY} }
func (b *BoundingBox) Max() [2]float64 { return [2]float64{b.MaxX, b.MaxY} }

func (b *BoundingBox) Centroid() [2]float64 {
	return [2]float64{(b.MaxX + b.MinX) / 2, (b.MaxY + b.MinY) / 2}
}

// Ratio is width over height.
func (b *BoundingBox) Ratio() (float64, error) {
	h := b.MaxY - b.MinY
	if h == 0 {
		return 0, fmt.Errorf("ratio of %s: %w", b, ErrDegenerate)
	}
	return (b.MaxX - b.MinX) / h, nil
}

// Includes reports whether other lies strictly inside b on all four sides.
func (b *BoundingBox) Includes(other *BoundingBox) bool {
	if other == nil {
		return false
	}
	return b.MinX < other.MinX && b.MinY < other.MinY &&
		b.MaxX > other.MaxX && b.MaxY > other.MaxY
}

// ToA returns (minx, miny, maxx, maxy).
func (b *BoundingBox) ToA() [4]float64 {
	return [4]float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

// ToGeometry returns the rectangle spanning the box. A box collapsed to a
// single point is widened by Epsilon so the polygon never has zero area.
// A box with zero width or height but not both is returned as is.
func (b *BoundingBox) ToGeometry() orb.Polygon {
	minx, miny, maxx, maxy := b.MinX, b.MinY, b.MaxX, b.MaxY
	if minx == maxx && miny == maxy {
		minx, miny = minx-Epsilon, miny-Epsilon
		maxx, maxy = maxx+Epsilon, maxy+Epsilon
	}
	ring := orb.Ring{
		{minx, miny},
		{maxx, miny},
		{maxx, maxy},
		{minx, maxy},
		{minx, miny},
	}
	return orb.Polygon{ring}
}

// Bound converts the box to an orb.Bound.
func (b *BoundingBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

func (b *BoundingBox) String() string {
	return fmt.Sprintf("%v, %v, %v, %v", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

type corner struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FromParams builds a box from {"topLeft":{"x":..,"y":..},"bottomRight":{"x":..,"y":..}}.
func FromParams(raw []byte) (*BoundingBox, error) {
	var p struct {
		TopLeft     *corner `json:"topLeft"`
		BottomRight *corner `json:"bottomRight"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse bbox params: %w", err)
	}
	if p.TopLeft == nil || p.BottomRight == nil {
		return nil, errors.New("bbox params need topLeft and bottomRight")
	}
	b := New()
	b.Add(p.TopLeft.X, p.TopLeft.Y)
	b.Add(p.BottomRight.X, p.BottomRight.Y)
	return b, nil
}
