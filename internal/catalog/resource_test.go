package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/mohammed-shakir/geoserver-catalog/internal/logger"
	"github.com/mohammed-shakir/geoserver-catalog/internal/rest"
)

func TestProfile_FetchedOnceAndCached(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, err := NewWorkspace(New(ft), "topp")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if ft.count("search") != 0 {
		t.Fatalf("constructor must not contact the server")
	}

	p1, err := ws.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	p2, err := ws.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if reflect.ValueOf(p1).UnsafePointer() != reflect.ValueOf(p2).UnsafePointer() {
		t.Fatalf("second Profile returned a different map")
	}
	if got := ft.count("search"); got != 1 {
		t.Fatalf("search calls=%d want 1", got)
	}
	if p1.String("name") != "topp" {
		t.Fatalf("profile=%v", p1)
	}
	isNew, err := ws.IsNew(ctx)
	if err != nil || isNew {
		t.Fatalf("IsNew=%v err=%v want false", isNew, err)
	}
}

func TestProfile_NotFoundMeansNew(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ws, _ := NewWorkspace(New(ft), "foo")

	isNew, err := ws.IsNew(ctx)
	if err != nil || !isNew {
		t.Fatalf("IsNew=%v err=%v want true", isNew, err)
	}
	p, _ := ws.Profile(ctx)
	if p == nil || len(p) != 0 {
		t.Fatalf("profile=%v want empty", p)
	}
	if got := ft.count("search"); got != 1 {
		t.Fatalf("search calls=%d want 1", got)
	}
}

func TestProfile_TransportErrorPropagatesAndIsNotCached(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ft.fail["search"] = &rest.InvalidRequestError{Op: "listing", Method: http.MethodGet, Path: "workspaces/topp.xml", Status: 500}
	ws, _ := NewWorkspace(New(ft), "topp")

	if _, err := ws.Profile(ctx); !errors.Is(err, rest.ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
	delete(ft.fail, "search")
	isNew, err := ws.IsNew(ctx)
	if err != nil || isNew {
		t.Fatalf("IsNew=%v err=%v after recovery", isNew, err)
	}
	if got := ft.count("search"); got != 2 {
		t.Fatalf("search calls=%d want 2", got)
	}
}

func TestField_ReadOrder(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp/datastores/old_ds.xml", oldDataStore)
	ds, err := NewDataStore(New(ft), WorkspaceName("topp"), "old_ds")
	if err != nil {
		t.Fatalf("NewDataStore: %v", err)
	}

	// default when absent locally and remotely
	desc, err := ds.Description(ctx)
	if err != nil || desc != "" {
		t.Fatalf("description=%q err=%v", desc, err)
	}
	// profile value
	typ, _ := ds.Type(ctx)
	if typ != "Shapefile" {
		t.Fatalf("type=%q", typ)
	}
	// local override wins
	if err := ds.SetType(ctx, "PostGIS"); err != nil {
		t.Fatalf("SetType: %v", err)
	}
	typ, _ = ds.Type(ctx)
	if typ != "PostGIS" {
		t.Fatalf("type=%q after set", typ)
	}
}

func TestField_AssignSameValueIsNotDirty(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")

	cur, err := ws.Enabled(ctx)
	if err != nil {
		t.Fatalf("Enabled: %v", err)
	}
	if err := ws.SetEnabled(ctx, cur); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if ws.Changed() || ws.FieldChanged("enabled") {
		t.Fatalf("equal assignment marked dirty: %v", ws.Changes())
	}
	if err := ws.SetName("topp"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if ws.Changed() {
		t.Fatalf("same name marked dirty")
	}
}

func TestField_RoundTripStaysDirty(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")

	_ = ws.SetEnabled(ctx, false)
	_ = ws.SetEnabled(ctx, true)
	if !ws.FieldChanged("enabled") {
		t.Fatalf("round trip cleared the dirty set")
	}
	want := Change{Prev: true, Next: true}
	if got := ws.Changes()["enabled"]; got != want {
		t.Fatalf("change=%+v want %+v", got, want)
	}
	if got := ws.ChangedFields(); !reflect.DeepEqual(got, []string{"enabled"}) {
		t.Fatalf("changed fields=%v", got)
	}
}

func TestSave_NewIssuesOneCreate(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ws, _ := NewWorkspace(New(ft), "foo")

	isNew, err := ws.IsNew(ctx)
	if err != nil || !isNew {
		t.Fatalf("IsNew=%v err=%v", isNew, err)
	}
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := ft.count("add"); got != 1 {
		t.Fatalf("add calls=%d want 1", got)
	}
	if got := ft.count("modify"); got != 0 {
		t.Fatalf("modify calls=%d want 0", got)
	}
	add := ft.last(t, "add")
	if add.Method != http.MethodPost || add.Path != "workspaces.xml" {
		t.Fatalf("create=%s %s", add.Method, add.Path)
	}
	mustContain(t, add.Body, "<name>foo</name>")

	// cache invalidated: the next read fetches again
	_, _ = ws.IsNew(ctx)
	if got := ft.count("search"); got != 2 {
		t.Fatalf("search calls=%d want 2 after create", got)
	}
}

func TestSave_RenameUpdatesOldName(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/old.xml", `<workspace><name>old</name></workspace>`)
	ws, _ := NewWorkspace(New(ft), "old")
	if _, err := ws.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	if err := ws.SetName("renamed"); err != nil {
		t.Fatalf("SetName: %v", err)
	}
	if got := ws.Changes()["name"]; got != (Change{Prev: "old", Next: "renamed"}) {
		t.Fatalf("name change=%+v", got)
	}
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := ft.count("modify"); got != 1 {
		t.Fatalf("modify calls=%d want 1", got)
	}
	if ft.count("add") != 0 {
		t.Fatalf("rename must not create")
	}
	mod := ft.last(t, "modify")
	if mod.Method != http.MethodPut || mod.Path != "workspaces/old.xml" {
		t.Fatalf("update=%s %s", mod.Method, mod.Path)
	}
	mustContain(t, mod.Body, "<name>renamed</name>")
	if ws.Changed() {
		t.Fatalf("dirty set not cleared after save")
	}
	if _, ok := ws.PreviousChanges()["name"]; !ok {
		t.Fatalf("previous changes=%v", ws.PreviousChanges())
	}
}

func TestSave_ExistingUpdatesCurrentName(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")

	if err := ws.SetEnabled(ctx, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mod := ft.last(t, "modify")
	if mod.Path != "workspaces/topp.xml" {
		t.Fatalf("path=%s", mod.Path)
	}
	mustContain(t, mod.Body, "<name>topp</name>", "<enabled>false</enabled>")
}

func TestSave_FailureKeepsDirtySet(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ft.fail["modify"] = &rest.InvalidRequestError{Op: "modifying", Method: http.MethodPut, Path: "workspaces/topp.xml", Status: 500}
	ws, _ := NewWorkspace(New(ft), "topp")

	_ = ws.SetEnabled(ctx, false)
	err := ws.Save(ctx, rest.Options{})
	if !errors.Is(err, rest.ErrInvalidRequest) {
		t.Fatalf("want ErrInvalidRequest, got %v", err)
	}
	if !ws.FieldChanged("enabled") {
		t.Fatalf("failed save cleared the dirty set")
	}
	if len(ws.PreviousChanges()) != 0 {
		t.Fatalf("failed save recorded previous changes")
	}

	delete(ft.fail, "modify")
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if ws.Changed() {
		t.Fatalf("dirty after successful retry")
	}
}

func TestSave_LayerCannotBeCreated(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	l, _ := NewLayer(New(ft), "states")

	err := l.Save(ctx, rest.Options{})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
	if ft.count("add") != 0 {
		t.Fatalf("no create call expected")
	}
}

func TestDelete_NewResourceMakesNoCalls(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ws, _ := NewWorkspace(New(ft), "ghost")
	if _, err := ws.IsNew(ctx); err != nil {
		t.Fatalf("IsNew: %v", err)
	}
	ft.reset()

	if err := ws.Delete(ctx, rest.Options{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := len(ft.calls); n != 0 {
		t.Fatalf("calls=%d want 0: %+v", n, ft.calls)
	}
}

func TestDelete_PersistedPurgesOnceThenNew(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")

	if err := ws.Delete(ctx, rest.Recurse()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := ft.count("purge"); got != 1 {
		t.Fatalf("purge calls=%d want 1", got)
	}
	p := ft.last(t, "purge")
	if p.Path != "workspaces/topp.xml" || p.Query.Get("recurse") != "true" {
		t.Fatalf("purge=%+v", p)
	}
	isNew, err := ws.IsNew(ctx)
	if err != nil || !isNew {
		t.Fatalf("IsNew=%v err=%v want true after delete", isNew, err)
	}
}

func TestClear_ForcesRefetch(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")

	_, _ = ws.Profile(ctx)
	_ = ws.SetEnabled(ctx, false)
	ws.Clear()
	if ws.Changed() {
		t.Fatalf("Clear kept the dirty set")
	}
	_, _ = ws.Profile(ctx)
	if got := ft.count("search"); got != 2 {
		t.Fatalf("search calls=%d want 2", got)
	}
	// local values survive Clear
	if v, _ := ws.Enabled(ctx); v {
		t.Fatalf("local override lost")
	}
}

func TestNotifier(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	n := &recordingNotifier{}
	c := New(ft, WithNotifier(n))

	ws, _ := NewWorkspace(c, "foo")
	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ft.put("workspaces/foo.xml", `<workspace><name>foo</name></workspace>`)
	if err := ws.Delete(ctx, rest.Options{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(n.events) != 2 {
		t.Fatalf("events=%+v", n.events)
	}
	if ev := n.events[0]; ev.Op != OpCreate || ev.Kind != "Workspace" || ev.Path != "workspaces/foo" || ev.At.IsZero() {
		t.Fatalf("create event=%+v", ev)
	}
	if ev := n.events[1]; ev.Op != OpDelete {
		t.Fatalf("delete event=%+v", ev)
	}

	// a failing notifier never fails the operation
	n.err = errors.New("broker down")
	ws2, _ := NewWorkspace(c, "bar")
	if err := ws2.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save with failing notifier: %v", err)
	}
}

func TestConstructors_ConfigurationErrors(t *testing.T) {
	c := New(newFake())
	cases := []struct {
		name string
		fn   func() error
	}{
		{"empty workspace name", func() error { _, err := NewWorkspace(c, "  "); return err }},
		{"nil catalog", func() error { _, err := NewWorkspace(nil, "topp"); return err }},
		{"zero workspace ref", func() error { _, err := NewDataStore(c, WorkspaceRef{}, "x"); return err }},
		{"zero store ref", func() error {
			_, err := NewFeatureType(c, WorkspaceName("topp"), DataStoreRef{}, "states")
			return err
		}},
		{"zero coverage store ref", func() error {
			_, err := NewCoverage(c, WorkspaceName("topp"), CoverageStoreRef{}, "dem")
			return err
		}},
		{"empty layer name", func() error { _, err := NewLayer(c, ""); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fn(); !errors.Is(err, ErrConfiguration) {
				t.Fatalf("want ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	c := New(ft)
	build := func(n string) (*Workspace, error) { return NewWorkspace(c, n) }

	got, err := List(ctx, nil, build, true)
	if err != nil || len(got) != 0 {
		t.Fatalf("List(nil)=%v err=%v", got, err)
	}
	if len(ft.calls) != 0 {
		t.Fatalf("empty list contacted the server")
	}

	got, err = List(ctx, []string{"a", "b"}, build, false)
	if err != nil || len(got) != 2 || got[1].Name() != "b" {
		t.Fatalf("List=%v err=%v", got, err)
	}
	if len(ft.calls) != 0 {
		t.Fatalf("unchecked list contacted the server")
	}

	_, err = List(ctx, []string{"a", "b"}, build, true)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := ft.count("search"); got != 2 {
		t.Fatalf("search calls=%d want 2", got)
	}

	_, err = List(ctx, []string{"a", ""}, build, false)
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration for empty name, got %v", err)
	}
}

func TestEach_StopsEarly(t *testing.T) {
	ctx := context.Background()
	c := New(newFake())
	seen := 0
	for ws, err := range Each(ctx, []string{"a", "b", "c"}, func(n string) (*Workspace, error) { return NewWorkspace(c, n) }, false) {
		if err != nil {
			t.Fatalf("Each: %v", err)
		}
		seen++
		if ws.Name() == "b" {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("seen=%d want 2", seen)
	}
}

func TestSetName_EmptyIsRejectedWithoutCalls(t *testing.T) {
	ctx := context.Background()
	ft := newFake()
	ft.put("workspaces/topp.xml", toppWorkspace)
	ws, _ := NewWorkspace(New(ft), "topp")
	if _, err := ws.Profile(ctx); err != nil {
		t.Fatalf("Profile: %v", err)
	}
	ft.reset()

	if err := ws.SetName("  "); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("want ErrConfiguration, got %v", err)
	}
	if ws.Name() != "topp" || ws.Changed() {
		t.Fatalf("name=%q changes=%v", ws.Name(), ws.Changes())
	}
	if got := ws.Route().Path(""); got != "workspaces/topp" {
		t.Fatalf("route=%s", got)
	}
	if n := len(ft.calls); n != 0 {
		t.Fatalf("calls=%d want 0: %+v", n, ft.calls)
	}

	if err := ws.Delete(ctx, rest.Recurse()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if p := ft.last(t, "purge"); p.Path != "workspaces/topp.xml" {
		t.Fatalf("purge=%s", p.Path)
	}
}

func TestSaveAndDelete_LogResourcePath(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	zl := logger.Build(logger.Config{Level: "debug"}, &buf)
	ft := newFake()
	ws, _ := NewWorkspace(New(ft, WithLogger(logger.NewSlog(&zl))), "sf")

	if err := ws.Save(ctx, rest.Options{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ft.put("workspaces/sf.xml", `<workspace><name>sf</name></workspace>`)
	if err := ws.Delete(ctx, rest.Options{}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var saved, deleted bool
	for line := range strings.Lines(buf.String()) {
		if !strings.Contains(line, `"resource":"workspaces/sf"`) {
			continue
		}
		saved = saved || strings.Contains(line, `"msg":"saved"`)
		deleted = deleted || strings.Contains(line, `"msg":"deleted"`)
	}
	if !saved || !deleted {
		t.Fatalf("resource not tagged in logs:\n%s", buf.String())
	}
}
