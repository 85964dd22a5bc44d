// Package shapefile extracts the spatial envelope and reference system of ESRI
// shapefiles, plain or packaged in zip archives.
package shapefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// ErrUnexpectedGeometry is returned for records whose envelope is neither a
// point nor a polygon.
var ErrUnexpectedGeometry = errors.New("unexpected geometry")

type Info struct {
	path string
}

func Open(path string) *Info {
	return &Info{path: path}
}

func (i *Info) Path() string { return i.path }

// Bounds folds the envelope of every record into a bounding box.
func (i *Info) Bounds() (*bbox.BoundingBox, error) {
	r, err := shp.Open(i.path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", i.path, err)
	}
	defer func() { _ = r.Close() }()

	box := bbox.New()
	for r.Next() {
		n, shape := r.Shape()
		if err := addEnvelope(box, shape); err != nil {
			return nil, fmt.Errorf("record %d of %s: %w", n, i.path, err)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", i.path, err)
	}
	return box, nil
}

// Envelope returns the bounding box declared in the file header without
// reading any record.
func (i *Info) Envelope() (*bbox.BoundingBox, error) {
	r, err := shp.Open(i.path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", i.path, err)
	}
	defer func() { _ = r.Close() }()
	h := r.BBox()
	return bbox.New().Add(h.MinX, h.MinY).Add(h.MaxX, h.MaxY), nil
}

func addEnvelope(box *bbox.BoundingBox, shape shp.Shape) error {
	if shape == nil {
		return fmt.Errorf("%w: empty record", ErrUnexpectedGeometry)
	}
	if _, ok := shape.(*shp.Null); ok {
		return fmt.Errorf("%w: null shape", ErrUnexpectedGeometry)
	}
	env := shape.BBox()
	w, h := env.MaxX-env.MinX, env.MaxY-env.MinY
	switch {
	case w == 0 && h == 0:
		box.Add(env.MinX, env.MinY)
	case w > 0 && h > 0:
		box.Add(env.MinX, env.MinY)
		box.Add(env.MaxX, env.MinY)
		box.Add(env.MaxX, env.MaxY)
		box.Add(env.MinX, env.MaxY)
	default:
		return fmt.Errorf("%w: line envelope %v", ErrUnexpectedGeometry, env)
	}
	return nil
}

var epsgAuthority = regexp.MustCompile(`AUTHORITY\[\s*"EPSG"\s*,\s*"?(\d+)"?\s*\]`)

// SRID reads the EPSG code of the root CRS from the sidecar .prj file.
// It is 0 when there is no .prj or it carries no EPSG authority.
func (i *Info) SRID() (int, error) {
	prj := strings.TrimSuffix(i.path, filepath.Ext(i.path)) + ".prj"
	b, err := os.ReadFile(prj)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", prj, err)
	}
	matches := epsgAuthority.FindAllSubmatch(b, -1)
	if len(matches) == 0 {
		return 0, nil
	}
	// the root CRS authority closes the WKT, so it is the last one
	code, err := strconv.Atoi(string(matches[len(matches)-1][1]))
	if err != nil {
		return 0, fmt.Errorf("parse srid in %s: %w", prj, err)
	}
	return code, nil
}
