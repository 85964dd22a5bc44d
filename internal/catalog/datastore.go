package catalog

import (
	"context"
	"encoding/xml"
	"maps"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// DataStore is a vector data source inside a workspace.
type DataStore struct {
	Resource
	workspace *Workspace

	enabled     field[bool]
	description field[string]
	storeType   field[string]
	params      field[map[string]string]
}

type dataStoreXML struct {
	XMLName              xml.Name    `xml:"dataStore"`
	Name                 string      `xml:"name"`
	Description          string      `xml:"description,omitempty"`
	Type                 string      `xml:"type,omitempty"`
	Enabled              *bool       `xml:"enabled"`
	Workspace            *nameXML    `xml:"workspace,omitempty"`
	ConnectionParameters *entriesXML `xml:"connectionParameters"`
	FeatureTypes         *linkXML    `xml:"featureTypes,omitempty"`
}

func NewDataStore(c *Catalog, ws WorkspaceRef, name string) (*DataStore, error) {
	d := &DataStore{
		enabled:     newField("enabled", "enabled", true),
		description: newField("description", "description", ""),
		storeType:   newField("type", "type", ""),
		params:      newField("connection_parameters", "connectionParameters", map[string]string{}),
	}
	w, err := ws.resolve(c, d.kind())
	if err != nil {
		return nil, err
	}
	d.workspace = w
	if err := d.bind(c, d, name); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *DataStore) kind() string { return "DataStore" }

func (d *DataStore) route() rest.Route {
	return rest.Collection("workspaces").Named(d.workspace.Name()).Child("datastores", "")
}

func (d *DataStore) Workspace() *Workspace { return d.workspace }

func (d *DataStore) Enabled(ctx context.Context) (bool, error) { return d.enabled.get(ctx, &d.Resource) }

func (d *DataStore) SetEnabled(ctx context.Context, v bool) error {
	return d.enabled.put(ctx, &d.Resource, v)
}

func (d *DataStore) Description(ctx context.Context) (string, error) {
	return d.description.get(ctx, &d.Resource)
}

func (d *DataStore) SetDescription(ctx context.Context, v string) error {
	return d.description.put(ctx, &d.Resource, v)
}

// Type is the store factory name, e.g. "Shapefile" or "PostGIS".
func (d *DataStore) Type(ctx context.Context) (string, error) { return d.storeType.get(ctx, &d.Resource) }

func (d *DataStore) SetType(ctx context.Context, v string) error {
	return d.storeType.put(ctx, &d.Resource, v)
}

// ConnectionParameters returns the store's connection map. The result is
// shared with the cached profile and must not be modified.
func (d *DataStore) ConnectionParameters(ctx context.Context) (map[string]string, error) {
	return d.params.get(ctx, &d.Resource)
}

func (d *DataStore) SetConnectionParameters(ctx context.Context, v map[string]string) error {
	if v == nil {
		v = map[string]string{}
	}
	return d.params.put(ctx, &d.Resource, maps.Clone(v))
}

func (d *DataStore) message(ctx context.Context) ([]byte, error) {
	enabled, err := d.Enabled(ctx)
	if err != nil {
		return nil, err
	}
	desc, err := d.Description(ctx)
	if err != nil {
		return nil, err
	}
	typ, err := d.Type(ctx)
	if err != nil {
		return nil, err
	}
	params, err := d.ConnectionParameters(ctx)
	if err != nil {
		return nil, err
	}
	return xml.Marshal(dataStoreXML{
		Name:                 d.name,
		Description:          desc,
		Type:                 typ,
		Enabled:              boolPtr(enabled),
		Workspace:            nameRef(d.workspace.Name()),
		ConnectionParameters: toEntries(params),
	})
}

func (d *DataStore) parseProfile(_ context.Context, raw []byte) (Profile, error) {
	var doc dataStoreXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	p := Profile{
		"name":                 doc.Name,
		"workspace":            d.workspace.Name(),
		"description":          doc.Description,
		"type":                 doc.Type,
		"connectionParameters": doc.ConnectionParameters.toMap(),
	}
	if doc.Enabled != nil {
		p["enabled"] = *doc.Enabled
	}
	putIf(p, linkKey("featureTypes"), doc.FeatureTypes.href(), doc.FeatureTypes != nil)
	return p, nil
}

// FeatureTypes lists the feature types configured on the store.
func (d *DataStore) FeatureTypes(ctx context.Context) ([]*FeatureType, error) {
	names, err := d.children(ctx, "featureTypes")
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*FeatureType, error) {
		return NewFeatureType(d.catalog, WorkspaceOf(d.workspace), DataStoreOf(d), n)
	}, false)
}
