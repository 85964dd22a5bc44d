package catalog

import (
	"context"
	"errors"
	"iter"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

// collection lists the member names of a collection route. A missing
// collection is empty.
func (c *Catalog) collection(ctx context.Context, route rest.Route) ([]string, error) {
	raw, err := c.transport.Search(ctx, route, rest.Options{})
	if errors.Is(err, rest.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return memberNames(raw)
}

// existing resolves r and returns it only when the server has it.
func existing[R remote](ctx context.Context, r R, err error) (R, error) {
	var zero R
	if err != nil {
		return zero, err
	}
	isNew, err := r.IsNew(ctx)
	if err != nil || isNew {
		return zero, err
	}
	return r, nil
}

func (c *Catalog) Workspaces(ctx context.Context) ([]*Workspace, error) {
	names, err := c.collection(ctx, rest.Collection("workspaces"))
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Workspace, error) { return NewWorkspace(c, n) }, false)
}

// Workspace returns the named workspace, or nil when it does not exist.
func (c *Catalog) Workspace(ctx context.Context, name string) (*Workspace, error) {
	w, err := NewWorkspace(c, name)
	return existing(ctx, w, err)
}

// DefaultWorkspace returns the workspace the server uses when none is
// given, or nil when none is set.
func (c *Catalog) DefaultWorkspace(ctx context.Context) (*Workspace, error) {
	raw, err := c.transport.Search(ctx, rest.Collection("workspaces").Named("default"), rest.Options{})
	if errors.Is(err, rest.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc workspaceXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Name == "" {
		return nil, nil
	}
	return NewWorkspace(c, doc.Name)
}

// SetDefaultWorkspace points the default workspace at name by renaming
// the "default" alias.
func (c *Catalog) SetDefaultWorkspace(ctx context.Context, name string) (*Workspace, error) {
	alias, err := NewWorkspace(c, "default")
	if err != nil {
		return nil, err
	}
	ws, err := NewWorkspace(c, name)
	if err != nil {
		return nil, err
	}
	if err := alias.SetName(ws.Name()); err != nil {
		return nil, err
	}
	if err := alias.Save(ctx, rest.Options{}); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Catalog) Namespaces(ctx context.Context) ([]*Namespace, error) {
	names, err := c.collection(ctx, rest.Collection("namespaces"))
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Namespace, error) { return NewNamespace(c, n, "") }, false)
}

func (c *Catalog) Namespace(ctx context.Context, prefix string) (*Namespace, error) {
	n, err := NewNamespace(c, prefix, "")
	return existing(ctx, n, err)
}

func (c *Catalog) DefaultNamespace(ctx context.Context) (*Namespace, error) {
	raw, err := c.transport.Search(ctx, rest.Collection("namespaces").Named("default"), rest.Options{})
	if errors.Is(err, rest.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc namespaceXML
	if err := decode(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Prefix == "" {
		return nil, nil
	}
	return NewNamespace(c, doc.Prefix, doc.URI)
}

func (c *Catalog) Layers(ctx context.Context) ([]*Layer, error) {
	names, err := c.collection(ctx, rest.Collection("layers"))
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Layer, error) { return NewLayer(c, n) }, false)
}

// EachLayer yields every layer with its profile resolved.
func (c *Catalog) EachLayer(ctx context.Context) iter.Seq2[*Layer, error] {
	return func(yield func(*Layer, error) bool) {
		names, err := c.collection(ctx, rest.Collection("layers"))
		if err != nil {
			yield(nil, err)
			return
		}
		for l, err := range Each(ctx, names, func(n string) (*Layer, error) { return NewLayer(c, n) }, true) {
			if !yield(l, err) {
				return
			}
		}
	}
}

func (c *Catalog) Layer(ctx context.Context, name string) (*Layer, error) {
	l, err := NewLayer(c, name)
	return existing(ctx, l, err)
}

func (c *Catalog) Styles(ctx context.Context) ([]*Style, error) {
	names, err := c.collection(ctx, rest.Collection("styles"))
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*Style, error) { return NewStyle(c, n) }, false)
}

func (c *Catalog) Style(ctx context.Context, name string) (*Style, error) {
	s, err := NewStyle(c, name)
	return existing(ctx, s, err)
}

// LayerGroups lists the global layer groups.
func (c *Catalog) LayerGroups(ctx context.Context) ([]*LayerGroup, error) {
	names, err := c.collection(ctx, rest.Collection("layergroups"))
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*LayerGroup, error) { return NewLayerGroup(c, n) }, false)
}

func (c *Catalog) LayerGroup(ctx context.Context, name string) (*LayerGroup, error) {
	g, err := NewLayerGroup(c, name)
	return existing(ctx, g, err)
}

func (c *Catalog) WorkspaceLayerGroups(ctx context.Context, ws string) ([]*LayerGroup, error) {
	route := rest.Collection("workspaces").Named(ws).Child("layergroups", "")
	names, err := c.collection(ctx, route)
	if err != nil {
		return nil, err
	}
	return List(ctx, names, func(n string) (*LayerGroup, error) {
		return NewWorkspaceLayerGroup(c, WorkspaceName(ws), n)
	}, false)
}

func (c *Catalog) WorkspaceLayerGroup(ctx context.Context, ws, name string) (*LayerGroup, error) {
	g, err := NewWorkspaceLayerGroup(c, WorkspaceName(ws), name)
	return existing(ctx, g, err)
}

// scope returns the named workspaces, or every workspace when none is given.
func (c *Catalog) scope(ctx context.Context, names []string) ([]*Workspace, error) {
	if len(names) == 0 {
		return c.Workspaces(ctx)
	}
	return List(ctx, names, func(n string) (*Workspace, error) { return NewWorkspace(c, n) }, false)
}

// DataStores lists the data stores of the given workspaces, or of all of
// them.
func (c *Catalog) DataStores(ctx context.Context, workspaces ...string) ([]*DataStore, error) {
	ws, err := c.scope(ctx, workspaces)
	if err != nil {
		return nil, err
	}
	var out []*DataStore
	for _, w := range ws {
		ds, err := w.DataStores(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}

func (c *Catalog) DataStore(ctx context.Context, ws, name string) (*DataStore, error) {
	d, err := NewDataStore(c, WorkspaceName(ws), name)
	return existing(ctx, d, err)
}

func (c *Catalog) FeatureTypes(ctx context.Context, ws, ds string) ([]*FeatureType, error) {
	d, err := NewDataStore(c, WorkspaceName(ws), ds)
	if err != nil {
		return nil, err
	}
	return d.FeatureTypes(ctx)
}

func (c *Catalog) FeatureType(ctx context.Context, ws, ds, name string) (*FeatureType, error) {
	f, err := NewFeatureType(c, WorkspaceName(ws), DataStoreName(ds), name)
	return existing(ctx, f, err)
}

func (c *Catalog) CoverageStores(ctx context.Context, workspaces ...string) ([]*CoverageStore, error) {
	ws, err := c.scope(ctx, workspaces)
	if err != nil {
		return nil, err
	}
	var out []*CoverageStore
	for _, w := range ws {
		cs, err := w.CoverageStores(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, cs...)
	}
	return out, nil
}

func (c *Catalog) CoverageStore(ctx context.Context, ws, name string) (*CoverageStore, error) {
	s, err := NewCoverageStore(c, WorkspaceName(ws), name)
	return existing(ctx, s, err)
}

func (c *Catalog) Coverages(ctx context.Context, ws, cs string) ([]*Coverage, error) {
	s, err := NewCoverageStore(c, WorkspaceName(ws), cs)
	if err != nil {
		return nil, err
	}
	return s.Coverages(ctx)
}

func (c *Catalog) Coverage(ctx context.Context, ws, cs, name string) (*Coverage, error) {
	v, err := NewCoverage(c, WorkspaceName(ws), CoverageStoreName(cs), name)
	return existing(ctx, v, err)
}

func (c *Catalog) WmsStores(ctx context.Context, workspaces ...string) ([]*WmsStore, error) {
	ws, err := c.scope(ctx, workspaces)
	if err != nil {
		return nil, err
	}
	var out []*WmsStore
	for _, w := range ws {
		s, err := w.WmsStores(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, s...)
	}
	return out, nil
}

func (c *Catalog) WmsStore(ctx context.Context, ws, name string) (*WmsStore, error) {
	s, err := NewWmsStore(c, WorkspaceName(ws), name)
	return existing(ctx, s, err)
}
