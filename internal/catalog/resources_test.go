package catalog

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	shp "github.com/jonas-p/go-shp"

	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

const statesLayer = `<layer>
  <name>states</name>
  <path>/</path>
  <type>VECTOR</type>
  <defaultStyle><name>population</name></defaultStyle>
  <styles class="linked-hash-set">
    <style><name>polygon</name></style>
    <style><name>pophatch</name></style>
  </styles>
  <resource class="featureType">
    <name>topp:states</name>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp/datastores/states_shapefile/featuretypes/states.xml" type="application/xml"/>
  </resource>
  <enabled>true</enabled>
  <attribution><title>TOPP</title><logoWidth>0</logoWidth><logoHeight>0</logoHeight></attribution>
</layer>`

const demLayer = `<layer>
  <name>dem</name>
  <type>RASTER</type>
  <resource class="coverage">
    <name>nurc:dem</name>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/nurc/coveragestores/dem_store/coverages/dem.xml" type="application/xml"/>
  </resource>
</layer>`

const pointStyle = `<style>
  <name>point</name>
  <format>sld</format>
  <languageVersion><version>1.0.0</version></languageVersion>
  <filename>default_point.sld</filename>
</style>`

const pointSLD = `<?xml version="1.0" encoding="UTF-8"?>
<StyledLayerDescriptor version="1.0.0" xmlns="http://www.opengis.net/sld">
  <NamedLayer>
    <Name>default_point</Name>
    <UserStyle>
      <Name>Default Point</Name>
      <Title>A boring default style</Title>
    </UserStyle>
  </NamedLayer>
</StyledLayerDescriptor>`

func TestDataStore_ConnectionParametersFromOneFetch(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp/datastores/old_ds.xml", oldDataStore)
	ds, _ := NewDataStore(New(ft), WorkspaceName("topp"), "old_ds")

	got, err := ds.ConnectionParameters(ctx)
	if err != nil {
		t.Fatalf("ConnectionParameters: %v", err)
	}
	if want := map[string]string{"url": "file:data/x.shp"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("params=%v want %v", got, want)
	}
	if n := ft.count("search"); n != 1 {
		t.Fatalf("search calls=%d want 1", n)
	}
	if n := ft.count("fetch"); n != 0 {
		t.Fatalf("fetch calls=%d want 0", n)
	}
}

func TestDataStore_NewHasEmptyConnectionParameters(t *testing.T) {
	ctx := context.Background()
	ds, _ := NewDataStore(New(newFake()), WorkspaceName("topp"), "fresh")

	got, err := ds.ConnectionParameters(ctx)
	if err != nil {
		t.Fatalf("ConnectionParameters: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("params=%#v want empty non-nil map", got)
	}
	if err := ds.SetConnectionParameters(ctx, nil); err != nil {
		t.Fatalf("SetConnectionParameters: %v", err)
	}
	if ds.FieldChanged("connection_parameters") {
		t.Fatalf("nil assignment over the empty default marked dirty")
	}
}

func TestDataStore_CreateMessage(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ds, _ := NewDataStore(New(ft), WorkspaceName("topp"), "roads")
	_ = ds.SetType(ctx, "Shapefile")
	_ = ds.SetConnectionParameters(ctx, map[string]string{"url": "file:data/roads.shp", "charset": "UTF-8"})

	if err := ds.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	add := ft.last(t, "add")
	if add.Path != "workspaces/topp/datastores.xml" {
		t.Fatalf("path=%s", add.Path)
	}
	mustContain(t, add.Body,
		"<name>roads</name>",
		"<type>Shapefile</type>",
		"<enabled>true</enabled>",
		"<workspace><name>topp</name></workspace>",
		`<entry key="charset">UTF-8</entry><entry key="url">file:data/roads.shp</entry>`,
	)
}

func TestDataStore_FeatureTypesFollowLink(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp/datastores/old_ds.xml", oldDataStore)
	ft.put("http://localhost:8080/geoserver/rest/workspaces/topp/datastores/old_ds/featuretypes.xml",
		`<featureTypes><featureType><name>x</name></featureType><featureType><name>y</name></featureType></featureTypes>`)
	ds, _ := NewDataStore(New(ft), WorkspaceName("topp"), "old_ds")

	fts, err := ds.FeatureTypes(ctx)
	if err != nil {
		t.Fatalf("FeatureTypes: %v", err)
	}
	if len(fts) != 2 || fts[0].Name() != "x" || fts[1].PrefixedName() != "topp:y" {
		t.Fatalf("feature types=%v", fts)
	}
	if fts[0].DataStore() != ds {
		t.Fatalf("feature type not bound to its store")
	}
	if r := fts[1].Route().Path("xml"); r != "workspaces/topp/datastores/old_ds/featuretypes/y.xml" {
		t.Fatalf("route=%s", r)
	}
}

func TestWorkspace_DataStores(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ft.put("http://localhost:8080/geoserver/rest/workspaces/topp/datastores.xml", `<dataStores>
  <dataStore>
    <name>old_ds</name>
    <atom:link xmlns:atom="http://www.w3.org/2005/Atom" rel="alternate" href="http://localhost:8080/geoserver/rest/workspaces/topp/datastores/old_ds.xml" type="application/xml"/>
  </dataStore>
</dataStores>`)
	ft.put("workspaces/topp/datastores/old_ds.xml", oldDataStore)
	ws, _ := NewWorkspace(New(ft), "topp")

	stores, err := ws.DataStores(ctx)
	if err != nil {
		t.Fatalf("DataStores: %v", err)
	}
	if len(stores) != 1 || stores[0].Name() != "old_ds" {
		t.Fatalf("stores=%v", stores)
	}
	// resolved while listing
	before := ft.count("search")
	if typ, _ := stores[0].Type(ctx); typ != "Shapefile" {
		t.Fatalf("type=%q", typ)
	}
	if ft.count("search") != before {
		t.Fatalf("listed store fetched its profile again")
	}

	// the coverage store link answers 404
	cs, err := ws.CoverageStores(ctx)
	if err != nil || len(cs) != 0 {
		t.Fatalf("CoverageStores=%v err=%v want empty", cs, err)
	}
	// no wms store link at all
	wms, err := ws.WmsStores(ctx)
	if err != nil || len(wms) != 0 {
		t.Fatalf("WmsStores=%v err=%v want empty", wms, err)
	}
}

func TestWorkspace_MessageOmitsUnchangedEnabled(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ws, _ := NewWorkspace(New(ft), "foo")
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if body := ft.last(t, "add").Body; body != "<workspace><name>foo</name></workspace>" {
		t.Fatalf("body=%s", body)
	}
}

func TestNamespace_Create(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ns, err := NewNamespace(New(ft), "topp", "http://www.openplans.org/topp")
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	if ns.Changed() {
		t.Fatalf("constructor uri marked dirty")
	}
	if err := ns.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	add := ft.last(t, "add")
	if add.Path != "namespaces.xml" {
		t.Fatalf("path=%s", add.Path)
	}
	mustContain(t, add.Body, "<prefix>topp</prefix>", "<uri>http://www.openplans.org/topp</uri>")
}

func TestFeatureType_CreateWithRecalculate(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	c := New(ft)
	ds, _ := NewDataStore(c, WorkspaceName("topp"), "roads")
	f, err := NewFeatureType(c, WorkspaceRef{}, DataStoreOf(ds), "roads")
	if err != nil {
		t.Fatalf("NewFeatureType: %v", err)
	}
	if f.Workspace().Name() != "topp" {
		t.Fatalf("workspace not inferred from store")
	}
	_ = f.SetTitle(ctx, "Roads")
	_ = f.SetKeywords(ctx, []string{"roads", "transport"})

	if err := f.Save(ctx, Recalculate("nativebbox", "latlonbbox")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	add := ft.last(t, "add")
	if add.Path != "workspaces/topp/datastores/roads/featuretypes.xml" {
		t.Fatalf("path=%s", add.Path)
	}
	if got := add.Query.Get("recalculate"); got != "nativebbox,latlonbbox" {
		t.Fatalf("recalculate=%q", got)
	}
	mustContain(t, add.Body,
		"<name>roads</name>",
		"<title>Roads</title>",
		"<string>roads</string><string>transport</string>",
	)
}

func writeStates(t *testing.T, withPRJ bool) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "states.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, r := range [][4]float64{{-110, 30, -100, 40}, {-105, 35, -95, 45}} {
		p := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
			{X: r[0], Y: r[1]}, {X: r[0], Y: r[3]}, {X: r[2], Y: r[3]}, {X: r[2], Y: r[1]}, {X: r[0], Y: r[1]},
		}}))
		w.Write(&p)
	}
	w.Close()
	if withPRJ {
		prj := `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433],AUTHORITY["EPSG","4326"]]`
		if err := os.WriteFile(filepath.Join(dir, "states.prj"), []byte(prj), 0o600); err != nil {
			t.Fatalf("write prj: %v", err)
		}
	}
	return path
}

func TestFeatureType_SetBoundsFromShapefile(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	n := &recordingNotifier{}
	f, _ := NewFeatureType(New(ft, WithNotifier(n)), WorkspaceName("topp"), DataStoreName("states_shapefile"), "states")

	if err := f.SetBoundsFromShapefile(ctx, writeStates(t, true)); err != nil {
		t.Fatalf("SetBoundsFromShapefile: %v", err)
	}
	want := Envelope{MinX: -110, MinY: 30, MaxX: -95, MaxY: 45, CRS: "EPSG:4326"}
	if got, _ := f.NativeBounds(ctx); got != want {
		t.Fatalf("native=%+v want %+v", got, want)
	}
	if got, _ := f.LatLonBounds(ctx); got != want {
		t.Fatalf("latlon=%+v want %+v", got, want)
	}
	if srs, _ := f.SRS(ctx); srs != "EPSG:4326" {
		t.Fatalf("srs=%q", srs)
	}

	if err := f.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mustContain(t, ft.last(t, "add").Body, "<srs>EPSG:4326</srs>", "<minx>-110</minx>", "<maxy>45</maxy>")
	if len(n.events) != 1 || n.events[0].Bounds == nil {
		t.Fatalf("events=%+v want one with bounds", n.events)
	}
	if b := n.events[0].Bounds; b.MinX != -110 || b.MaxY != 45 {
		t.Fatalf("event bounds=%v", b)
	}
}

func TestFeatureType_SetBoundsWithoutProjection(t *testing.T) {
	ctx := context.Background()
	f, _ := NewFeatureType(New(newFake()), WorkspaceName("topp"), DataStoreName("states_shapefile"), "states")

	if err := f.SetBoundsFromShapefile(ctx, writeStates(t, false)); err != nil {
		t.Fatalf("SetBoundsFromShapefile: %v", err)
	}
	if f.FieldChanged("srs") || f.FieldChanged("latlon_bounds") {
		t.Fatalf("changed=%v", f.ChangedFields())
	}
	if got, _ := f.NativeBounds(ctx); got.CRS != "" || got.MinX != -110 {
		t.Fatalf("native=%+v", got)
	}
}

func TestLayer_Profile(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers/states.xml", statesLayer)
	l, _ := NewLayer(New(ft), "states")

	if def, _ := l.DefaultStyle(ctx); def != "population" {
		t.Fatalf("default style=%q", def)
	}
	if alts, _ := l.AlternateStyles(ctx); !reflect.DeepEqual(alts, []string{"polygon", "pophatch"}) {
		t.Fatalf("alternate styles=%v", alts)
	}
	if typ, _ := l.Type(ctx); typ != "VECTOR" {
		t.Fatalf("type=%q", typ)
	}
	if a, _ := l.Attribution(ctx); a.Title != "TOPP" {
		t.Fatalf("attribution=%+v", a)
	}
	ok, _ := l.UsesStyle(ctx, "pophatch")
	if !ok {
		t.Fatalf("UsesStyle(pophatch)=false")
	}

	res, err := l.ResourceInfo(ctx)
	if err != nil {
		t.Fatalf("ResourceInfo: %v", err)
	}
	want := LayerResource{Kind: "featureType", Name: "states", Store: "states_shapefile", Workspace: "topp"}
	if res != want {
		t.Fatalf("resource=%+v want %+v", res, want)
	}
	pub, err := l.PublishedResource(ctx)
	if err != nil {
		t.Fatalf("PublishedResource: %v", err)
	}
	f, ok := pub.(*FeatureType)
	if !ok {
		t.Fatalf("published=%T want *FeatureType", pub)
	}
	if f.Route().Path("xml") != "workspaces/topp/datastores/states_shapefile/featuretypes/states.xml" {
		t.Fatalf("route=%s", f.Route().Path("xml"))
	}
	if n := ft.count("search"); n != 1 {
		t.Fatalf("search calls=%d want 1", n)
	}
}

func TestLayer_PublishedCoverage(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers/dem.xml", demLayer)
	l, _ := NewLayer(New(ft), "dem")

	pub, err := l.PublishedResource(ctx)
	if err != nil {
		t.Fatalf("PublishedResource: %v", err)
	}
	cov, ok := pub.(*Coverage)
	if !ok {
		t.Fatalf("published=%T want *Coverage", pub)
	}
	if cov.PrefixedName() != "nurc:dem" || cov.CoverageStore().Name() != "dem_store" {
		t.Fatalf("coverage=%s store=%s", cov.PrefixedName(), cov.CoverageStore().Name())
	}
}

func TestLayer_UpdateSerializesFullState(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers/states.xml", statesLayer)
	l, _ := NewLayer(New(ft), "states")

	if err := l.SetDefaultStyle(ctx, "polygon"); err != nil {
		t.Fatalf("SetDefaultStyle: %v", err)
	}
	if err := l.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mod := ft.last(t, "modify")
	if mod.Path != "layers/states.xml" {
		t.Fatalf("path=%s", mod.Path)
	}
	mustContain(t, mod.Body,
		"<defaultStyle><name>polygon</name></defaultStyle>",
		"<style><name>pophatch</name></style>",
		"<enabled>true</enabled>",
	)
}

func TestLayer_Seed(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers/states.xml", statesLayer)
	l, _ := NewLayer(New(ft), "states")

	if err := l.Seed(ctx, SeedRequest{ZoomStart: 0, ZoomStop: 5}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	g := ft.last(t, "gwc")
	if g.Method != http.MethodPost || g.Path != "seed/topp:states.xml" {
		t.Fatalf("gwc=%s %s", g.Method, g.Path)
	}
	mustContain(t, g.Body,
		"<name>topp:states</name>",
		"<gridSetId>EPSG:4326</gridSetId>",
		"<zoomStop>5</zoomStop>",
		"<format>image/png</format>",
		"<type>seed</type>",
		"<threadCount>1</threadCount>",
	)

	if err := l.Truncate(ctx, SeedRequest{}); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	mustContain(t, ft.last(t, "gwc").Body, "<type>truncate</type>")

	bare, _ := NewLayer(New(bareTransport{ft}), "topp:states")
	if err := bare.Seed(ctx, SeedRequest{}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}

func TestStyle_SLDInfo(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("styles/point.xml", pointStyle)
	ft.put("styles/point.sld", pointSLD)
	s, _ := NewStyle(New(ft), "point")

	info, err := s.SLDInfo(ctx)
	if err != nil {
		t.Fatalf("SLDInfo: %v", err)
	}
	if info != (SLDInfo{Name: "Default Point", Title: "A boring default style"}) {
		t.Fatalf("info=%+v", info)
	}
	if fn, _ := s.Filename(ctx); fn != "default_point.sld" {
		t.Fatalf("filename=%q", fn)
	}
	if v, _ := s.SLDVersion(ctx); v != "1.0.0" {
		t.Fatalf("version=%q", v)
	}
}

func TestStyle_MissingSLDIsEmpty(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("styles/point.xml", pointStyle)
	s, _ := NewStyle(New(ft), "point")

	info, err := s.SLDInfo(ctx)
	if err != nil || info != (SLDInfo{}) {
		t.Fatalf("info=%+v err=%v", info, err)
	}
	if isNew, _ := s.IsNew(ctx); isNew {
		t.Fatalf("style with missing body reported new")
	}
}

func TestStyle_UploadSLD(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	s, _ := NewStyle(New(ft), "my style")

	if err := s.UploadSLD(ctx, []byte(pointSLD)); err != nil {
		t.Fatalf("UploadSLD: %v", err)
	}
	mod := ft.last(t, "modify")
	if mod.Path != "styles/my%20style" || mod.Method != http.MethodPut {
		t.Fatalf("upload=%s %s", mod.Method, mod.Path)
	}
	if ct := mod.Header.Get("Content-Type"); ct != rest.ContentSLD {
		t.Fatalf("content type=%q", ct)
	}
}

func TestStyle_Layers(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers.xml", `<layers><layer><name>states</name></layer><layer><name>dem</name></layer></layers>`)
	ft.put("layers/states.xml", statesLayer)
	ft.put("layers/dem.xml", demLayer)
	s, _ := NewStyle(New(ft), "polygon")

	layers, err := s.Layers(ctx)
	if err != nil {
		t.Fatalf("Layers: %v", err)
	}
	if len(layers) != 1 || layers[0].Name() != "states" {
		t.Fatalf("layers=%v", layers)
	}
}

func TestLayerGroup_StyleArity(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	c := New(ft)
	g, _ := NewLayerGroup(c, "basemap")
	a, _ := NewLayer(c, "a")
	b, _ := NewLayer(c, "b")
	s, _ := NewStyle(c, "line")

	if err := g.SetLayers(ctx, []*Layer{a, b}); err != nil {
		t.Fatalf("SetLayers: %v", err)
	}
	if err := g.SetStyles(ctx, []*Style{s}); err != nil {
		t.Fatalf("SetStyles: %v", err)
	}
	err := g.Save(ctx, rest.Options{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if ft.count("add") != 0 {
		t.Fatalf("invalid group reached the server")
	}

	if err := g.SetStyles(ctx, []*Style{s, nil}); err != nil {
		t.Fatalf("SetStyles: %v", err)
	}
	if err := g.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	add := ft.last(t, "add")
	if add.Path != "layergroups.xml" {
		t.Fatalf("path=%s", add.Path)
	}
	mustContain(t, add.Body, "<layer><name>a</name></layer><layer><name>b</name></layer>", "<style><name>line</name></style>")

	if err := g.SetLayers(ctx, []*Layer{a, nil}); !errors.Is(err, ErrValidation) {
		t.Fatalf("nil layer: want ErrValidation, got %v", err)
	}
}

func TestLayerGroup_WorkspaceScoped(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp/layergroups/tasmania.xml", `<layerGroup>
  <name>tasmania</name>
  <workspace><name>topp</name></workspace>
  <publishables>
    <published type="layer"><name>topp:tasmania_state_boundaries</name></published>
    <published type="layer"><name>topp:tasmania_roads</name></published>
  </publishables>
  <styles><style><name>green</name></style><style/></styles>
  <bounds><minx>143.8</minx><maxx>148.5</maxx><miny>-43.6</miny><maxy>-39.6</maxy><crs>EPSG:4326</crs></bounds>
</layerGroup>`)
	g, err := NewWorkspaceLayerGroup(New(ft), WorkspaceName("topp"), "tasmania")
	if err != nil {
		t.Fatalf("NewWorkspaceLayerGroup: %v", err)
	}
	names, _ := g.LayerNames(ctx)
	if !reflect.DeepEqual(names, []string{"topp:tasmania_state_boundaries", "topp:tasmania_roads"}) {
		t.Fatalf("layers=%v", names)
	}
	styles, err := g.Styles(ctx)
	if err != nil || len(styles) != 2 || styles[0].Name() != "green" || styles[1] != nil {
		t.Fatalf("styles=%v err=%v", styles, err)
	}
	b, _ := g.Bounds(ctx)
	if b.CRS != "EPSG:4326" || b.MinX != 143.8 || b.MaxY != -39.6 {
		t.Fatalf("bounds=%+v", b)
	}
	if h := g.boundsHint(); h == nil || h.MinY != -43.6 {
		t.Fatalf("bounds hint=%v", h)
	}
}

func TestCatalog_SetDefaultWorkspace(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ws, err := New(ft).SetDefaultWorkspace(ctx, "topp")
	if err != nil {
		t.Fatalf("SetDefaultWorkspace: %v", err)
	}
	if ws.Name() != "topp" {
		t.Fatalf("workspace=%s", ws.Name())
	}
	mod := ft.last(t, "modify")
	if mod.Method != http.MethodPut || mod.Path != "workspaces/default.xml" {
		t.Fatalf("update=%s %s", mod.Method, mod.Path)
	}
	mustContain(t, mod.Body, "<name>topp</name>")
	if ft.count("search") != 0 {
		t.Fatalf("rename should not fetch")
	}
}

func TestCatalog_Lookups(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces.xml", `<workspaces><workspace><name>topp</name></workspace><workspace><name>nurc</name></workspace></workspaces>`)
	ft.put("workspaces/topp.xml", toppWorkspace)
	ft.put("workspaces/default.xml", `<workspace><name>topp</name></workspace>`)
	c := New(ft)

	all, err := c.Workspaces(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("Workspaces=%v err=%v", all, err)
	}
	ws, err := c.Workspace(ctx, "topp")
	if err != nil || ws == nil {
		t.Fatalf("Workspace(topp)=%v err=%v", ws, err)
	}
	missing, err := c.Workspace(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Workspace(nope)=%v err=%v want nil", missing, err)
	}
	def, err := c.DefaultWorkspace(ctx)
	if err != nil || def == nil || def.Name() != "topp" {
		t.Fatalf("DefaultWorkspace=%v err=%v", def, err)
	}
	styles, err := c.Styles(ctx)
	if err != nil || len(styles) != 0 {
		t.Fatalf("Styles on empty server=%v err=%v", styles, err)
	}
}

func TestCatalog_EachLayer(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("layers.xml", `<layers><layer><name>states</name></layer><layer><name>dem</name></layer></layers>`)
	ft.put("layers/states.xml", statesLayer)
	ft.put("layers/dem.xml", demLayer)

	var names []string
	for l, err := range New(ft).EachLayer(ctx) {
		if err != nil {
			t.Fatalf("EachLayer: %v", err)
		}
		names = append(names, l.Name())
	}
	if !reflect.DeepEqual(names, []string{"states", "dem"}) {
		t.Fatalf("names=%v", names)
	}
	if n := ft.count("search"); n != 3 {
		t.Fatalf("search calls=%d want 3", n)
	}
}

func TestCatalog_ReloadReset(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	c := New(ft)
	if err := c.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if ft.count("reload") != 1 || ft.count("reset") != 1 {
		t.Fatalf("calls=%+v", ft.calls)
	}

	bare := New(bareTransport{ft})
	if err := bare.Reload(ctx); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
}
