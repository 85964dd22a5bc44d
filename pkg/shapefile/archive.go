package shapefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/mohammed-shakir/geoserver-catalog/pkg/bbox"
)

// Archive is a zipped shapefile extracted into a private temporary directory.
type Archive struct {
	*Info
	dir string
}

// OpenArchive extracts every member of the zip into a fresh temporary
// directory and locates the single .shp member. Callers must Close the
// archive; on error nothing is left behind.
func OpenArchive(zipPath string) (a *Archive, err error) {
	dir, err := os.MkdirTemp("", "shapefile-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer func() { _ = zr.Close() }()

	var shpPath string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// members are flattened so nothing escapes dir
		name := filepath.Base(f.Name)
		if name == "." || name == string(filepath.Separator) || strings.HasPrefix(name, "._") {
			continue
		}
		dst := filepath.Join(dir, name)
		if err := extract(f, dst); err != nil {
			return nil, err
		}
		if strings.EqualFold(filepath.Ext(name), ".shp") {
			if shpPath != "" {
				return nil, fmt.Errorf("archive %s holds more than one .shp", zipPath)
			}
			shpPath = dst
		}
	}
	if shpPath == "" {
		return nil, fmt.Errorf("archive %s holds no .shp member", zipPath)
	}
	return &Archive{Info: Open(shpPath), dir: dir}, nil
}

func extract(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open member %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// Dir is the temporary extraction directory.
func (a *Archive) Dir() string { return a.dir }

func (a *Archive) Close() error {
	if a == nil || a.dir == "" {
		return nil
	}
	err := os.RemoveAll(a.dir)
	a.dir = ""
	return err
}

// BoundsFromArchive extracts zipPath, computes the record bounds and removes
// the extracted files on every exit path.
func BoundsFromArchive(zipPath string) (box *bbox.BoundingBox, err error) {
	a, err := OpenArchive(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { err = errors.Join(err, a.Close()) }()
	return a.Bounds()
}

func SRIDFromArchive(zipPath string) (srid int, err error) {
	a, err := OpenArchive(zipPath)
	if err != nil {
		return 0, err
	}
	defer func() { err = errors.Join(err, a.Close()) }()
	return a.SRID()
}

// BoundsOf accepts either a .shp or a .zip path.
func BoundsOf(path string) (*bbox.BoundingBox, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return BoundsFromArchive(path)
	}
	return Open(path).Bounds()
}

func SRIDOf(path string) (int, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return SRIDFromArchive(path)
	}
	return Open(path).SRID()
}
