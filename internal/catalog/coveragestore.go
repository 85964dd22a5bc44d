package catalog

import (
	"context"
	"encoding/xml"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// CoverageStore is a raster data source inside a workspace.
type CoverageStore struct {
	Resource
	workspace *Workspace

	enabled     field[bool]
	url         field[string]
	dataType    field[string]
	description field[string]
}

type coverageStoreXML struct {
	XMLName     xml.Name `xml:"coverageStore"`
	Name        string   `xml:"name"`
	Workspace   *nameXML `xml:"workspace,omitempty"`
	Enabled     *bool    `xml:"enabled"`
	Type        string   `xml:"type,omitempty"`
	Description string   `xml:"description,omitempty"`
	URL         string   `xml:"url,omitempty"`
	Coverages   *linkXML `xml:"coverages,omitempty"`
}

func NewCoverageStore(c *Catalog, ws WorkspaceRef, name string) (*CoverageStore, error) {
	s := &CoverageStore{
		enabled:     newField("enabled", "enabled", true),
		url:         newField("url", "url", ""),
		dataType:    newField("data_type", "type", "GeoTIFF"),
		description: newField("description", "description", ""),
	}
	w, err := ws.resolve(c, s.kind())
	if err != nil {
		return nil, err
	}
	s.workspace = w
	if err := s.bind(c, s, name); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CoverageStore) kind() string { return "CoverageStore" }

func (s *CoverageStore) route() rest.Route {
	return rest.Collection("workspaces").Named(s.workspace.Name()).Child("coveragestores", "")
}

func (s *CoverageStore) Workspace() *Workspace { return s.workspace }

func (s *CoverageStore) Enabled(ctx context.Context) (bool, error) {
	return s.enabled.get(ctx, &s.Resource)
}
func (s *CoverageStore) SetEnabled(ctx context.Context, v bool) error {
	return s.enabled.put(ctx, &s.Resource, v)
}

// URL locates the raster, e.g. file:data/sfdem.tif.
func (s *CoverageStore) URL(ctx context.Context) (string, error) { return s.url.get(ctx, &s.Resource) }
func (s *CoverageStore) SetURL(ctx context.Context, v string) error {
	return s.url.put(ctx, &s.Resource, v)
}

// DataType is the raster format, GeoTIFF unless set.
func (s *CoverageStore) DataType(ctx context.Context) (string, error) {
	return s.dataType.get(ctx, &s.Resource)
}
func (s *CoverageStore) SetDataType(ctx context.Context, v string) error {
	return s.dataType.put(ctx, &s.Resource, v)
}

func (s *CoverageStore) Description(ctx context.Context) (string, error) {
	return s.description.get(ctx, &s.Resource)
}
func (s *CoverageStore) SetDescription(ctx context.Context, v string) error {
	return s.description.put(ctx, &s.Resource, v)
}

func (s *CoverageStore) message(ctx context.Context) ([]byte, error) {
	doc := coverageStoreXML{Name: s.name, Workspace: nameRef(s.workspace.Name())}
	enabled, err := s.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	doc.Enabled = boolPtr(enabled)
	if doc.Type, err = s.DataType(ctx); err != nil {
		return nil, err
	}
	if doc.Description, err = s.Description(ctx); err != nil {
		return nil, err
	}
	if doc.URL, err = s.URL(ctx); err != nil {
		return nil, err
	}
	return xml.Marshal(doc)
}

func (s *CoverageStore) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc coverageStoreXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":        doc.Name,
		"workspace":   s.workspace.Name(),
		"type":        doc.Type,
		"description": doc.Description,
		"url":         doc.URL,
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	putIf(p, linkKey("coverages"), doc.Coverages.href(), doc.Coverages != nil)
	return p, nil
}

// Coverages lists the coverages published from the store, each with its
// profile resolved.
func (s *CoverageStore) Coverages(ctx context.Context) ([]*Coverage, error) {
	names, err := s.children(ctx, "coverages")
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Coverage, error) {
		return NewCoverage(s.catalog, WorkspaceOf(s.workspace), CoverageStoreOf(s), n)
	}, true)
}
