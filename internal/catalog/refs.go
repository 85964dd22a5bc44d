package catalog

import "strings"

// WorkspaceRef names a parent workspace either by name or by value.
type WorkspaceRef struct {
	name string
	ws   *Workspace
}

func WorkspaceName(name string) WorkspaceRef { return WorkspaceRef{name: name} }

func WorkspaceOf(ws *Workspace) WorkspaceRef { return WorkspaceRef{ws: ws} }

func (r WorkspaceRef) IsZero() bool { return r.ws == nil && strings.TrimSpace(r.name) == "" }

func (r WorkspaceRef) resolve(c *Catalog, kind string) (*Workspace, error) {
	if r.ws != nil {
		return r.ws, nil
	}
	if strings.TrimSpace(r.name) == "" {
		return nil, configErr(kind, "not a valid workspace")
	}
	return NewWorkspace(c, r.name)
}

// DataStoreRef names a parent data store either by name or by value.
type DataStoreRef struct {
	name string
	ds   *DataStore
}

func DataStoreName(name string) DataStoreRef { return DataStoreRef{name: name} }

func DataStoreOf(ds *DataStore) DataStoreRef { return DataStoreRef{ds: ds} }

func (r DataStoreRef) resolve(c *Catalog, ws *Workspace, kind string) (*DataStore, error) {
	if r.ds != nil {
		return r.ds, nil
	}
	if strings.TrimSpace(r.name) == "" {
		return nil, configErr(kind, "not a valid data store")
	}
	return NewDataStore(c, WorkspaceOf(ws), r.name)
}

// CoverageStoreRef names a parent coverage store either by name or by value.
type CoverageStoreRef struct {
	name string
	cs   *CoverageStore
}

func CoverageStoreName(name string) CoverageStoreRef { return CoverageStoreRef{name: name} }

func CoverageStoreOf(cs *CoverageStore) CoverageStoreRef { return CoverageStoreRef{cs: cs} }

func (r CoverageStoreRef) resolve(c *Catalog, ws *Workspace, kind string) (*CoverageStore, error) {
	if r.cs != nil {
		return r.cs, nil
	}
	if strings.TrimSpace(r.name) == "" {
		return nil, configErr(kind, "not a valid coverage store")
	}
	return NewCoverageStore(c, WorkspaceOf(ws), r.name)
}
