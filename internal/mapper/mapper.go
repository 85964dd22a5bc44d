// Package mapper converts catalog extents to H3 cells.
package mapper

import (
	"github.com/paulmach/orb"

	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Cells is a sorted, de-duplicated set of H3 cell ids.
type Cells []string

type Interface interface {
	CellsForBox(b *bbox.BoundingBox, res int) (Cells, error)
	CellsForGeometry(g orb.Geometry, res int) (Cells, error)
}
