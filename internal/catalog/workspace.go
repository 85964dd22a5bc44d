package catalog

import (
	"context"
	"encoding/xml"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

type Workspace struct {
	Resource
	enabled field[bool]
}

type workspaceXML struct {
	XMLName        xml.Name `xml:"workspace"`
	Name           string   `xml:"name"`
	Enabled        *bool    `xml:"enabled,omitempty"`
	DataStores     *linkXML `xml:"dataStores,omitempty"`
	CoverageStores *linkXML `xml:"coverageStores,omitempty"`
	WmsStores      *linkXML `xml:"wmsStores,omitempty"`
}

func NewWorkspace(c *Catalog, name string) (*Workspace, error) {
	w := &Workspace{enabled: newField("enabled", "enabled", true)}
	if err := w.bind(c, w, name); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Workspace) kind() string      { return "Workspace" }
func (w *Workspace) route() rest.Route { return rest.Collection("workspaces") }

func (w *Workspace) Enabled(ctx context.Context) (bool, error) { return w.enabled.get(ctx, &w.Resource) }

func (w *Workspace) SetEnabled(ctx context.Context, v bool) error {
	return w.enabled.put(ctx, &w.Resource, v)
}

func (w *Workspace) message(ctx context.Context) ([]byte, error) {
	doc := workspaceXML{Name: w.name}
	if w.FieldChanged("enabled") {
		v, err := w.Enabled(ctx)
		if err != nil {
			return nil, err
		}
		doc.Enabled = boolPtr(v)
	}
	return xml.Marshal(doc)
}

func (w *Workspace) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc workspaceXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{"name": doc.Name}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	putIf(p, linkKey("dataStores"), doc.DataStores.href(), doc.DataStores != nil)
	putIf(p, linkKey("coverageStores"), doc.CoverageStores.href(), doc.CoverageStores != nil)
	putIf(p, linkKey("wmsStores"), doc.WmsStores.href(), doc.WmsStores != nil)
	return p, nil
}

// DataStores lists the workspace's data stores, each with its profile
// resolved.
func (w *Workspace) DataStores(ctx context.Context) ([]*DataStore, error) {
	names, err := w.children(ctx, "dataStores")
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*DataStore, error) {
		return NewDataStore(w.catalog, WorkspaceOf(w), n)
	}, true)
}

func (w *Workspace) CoverageStores(ctx context.Context) ([]*CoverageStore, error) {
	names, err := w.children(ctx, "coverageStores")
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*CoverageStore, error) {
		return NewCoverageStore(w.catalog, WorkspaceOf(w), n)
	}, true)
}

func (w *Workspace) WmsStores(ctx context.Context) ([]*WmsStore, error) {
	names, err := w.children(ctx, "wmsStores")
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*WmsStore, error) {
		return NewWmsStore(w.catalog, WorkspaceOf(w), n)
	}, true)
}

// Namespace returns the namespace sharing the workspace's name.
func (w *Workspace) Namespace() (*Namespace, error) {
	return NewNamespace(w.catalog, w.name, "")
}
