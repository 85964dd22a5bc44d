package gstest

import (
	"net/http"
	"slices"
	"strings"
)

// state is the in-memory catalog. Callers hold Server.mu.
type state struct {
	docs map[string]*document
	slds map[string][]byte
	// published maps a layer name to the key of the resource it publishes.
	published map[string]string
	defaultWS string
}

func newState() *state {
	return &state{
		docs:      map[string]*document{},
		slds:      map[string][]byte{},
		published: map[string]string{},
	}
}

func (s *state) exists(key string) bool {
	if key == "" {
		return true
	}
	_, ok := s.docs[key]
	return ok
}

// resolve maps the workspaces/default and namespaces/default aliases.
func (s *state) resolve(t target) (target, error) {
	if len(t.segs) != 2 || t.segs[1] != "default" || (t.segs[0] != "workspaces" && t.segs[0] != "namespaces") {
		return t, nil
	}
	if s.defaultWS == "" {
		return t, fail(http.StatusNotFound, "no default %s", kinds[t.segs[0]].element)
	}
	return t.member(s.defaultWS), nil
}

// members lists the names directly under a collection key.
func (s *state) members(collKey string) []string {
	prefix := collKey + "/"
	var out []string
	for k := range s.docs {
		if rest, ok := strings.CutPrefix(k, prefix); ok && !strings.Contains(rest, "/") {
			out = append(out, rest)
		}
	}
	slices.Sort(out)
	return out
}

// subtree lists the keys strictly below key.
func (s *state) subtree(key string) []string {
	var out []string
	for k := range s.docs {
		if strings.HasPrefix(k, key+"/") {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// layersOver lists the layers publishing key or anything below it.
func (s *state) layersOver(key string) []string {
	var out []string
	for name, res := range s.published {
		if res == key || strings.HasPrefix(res, key+"/") {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func (s *state) create(coll target, d *document) (target, error) {
	c := coll.collection()
	k := kinds[c]
	if c == "layers" {
		return target{}, fail(http.StatusMethodNotAllowed, "layers are published by creating a feature type or coverage")
	}
	if d.root != k.element {
		return target{}, fail(http.StatusBadRequest, "expected <%s>, got <%s>", k.element, d.root)
	}
	name := d.text(k.key)
	if name == "" || strings.Contains(name, "/") {
		return target{}, fail(http.StatusBadRequest, "%s needs a valid <%s>", k.element, k.key)
	}
	if !s.exists(coll.parentKey()) {
		return target{}, fail(http.StatusNotFound, "%s not found", coll.parentKey())
	}
	m := coll.member(name)
	if s.exists(m.key()) {
		return target{}, fail(http.StatusConflict, "%s '%s' already exists", k.element, name)
	}

	switch c {
	case "datastores", "coveragestores", "wmsstores":
		d.setDefault("enabled", "true")
	case "featuretypes", "coverages", "wmslayers":
		d.setDefault("enabled", "true")
		d.setDefault("nativeName", name)
	}
	s.docs[m.key()] = d

	switch c {
	case "workspaces":
		if !s.exists("namespaces/" + name) {
			s.docs["namespaces/"+name] = newDocument("namespace").setText("prefix", name).setText("uri", "http://"+name)
		}
		if s.defaultWS == "" {
			s.defaultWS = name
		}
	case "namespaces":
		d.setDefault("uri", "http://"+name)
		if !s.exists("workspaces/" + name) {
			s.docs["workspaces/"+name] = newDocument("workspace").setText("name", name)
		}
		if s.defaultWS == "" {
			s.defaultWS = name
		}
	case "featuretypes", "coverages", "wmslayers":
		s.publish(m)
	}
	return m, nil
}

// publish adds the layer GeoServer creates alongside a new resource.
func (s *state) publish(res target) {
	name := res.name()
	if s.exists("layers/" + name) {
		return
	}
	l := newDocument("layer").setText("name", name)
	switch res.collection() {
	case "featuretypes":
		l.setText("type", "VECTOR").set("defaultStyle", nameInner("polygon"))
	case "coverages":
		l.setText("type", "RASTER").set("defaultStyle", nameInner("raster"))
	default:
		l.setText("type", "WMS")
	}
	l.setText("enabled", "true")
	s.docs["layers/"+name] = l
	s.published[name] = res.key()
}

func (s *state) update(t target, patch *document) (target, error) {
	d, ok := s.docs[t.key()]
	if !ok {
		return target{}, fail(http.StatusNotFound, "%s not found", t.key())
	}
	k := kinds[t.collection()]
	if patch.root != k.element {
		return target{}, fail(http.StatusBadRequest, "expected <%s>, got <%s>", k.element, patch.root)
	}
	merged := d.clone()
	merged.merge(patch)

	final := t
	if name := patch.text(k.key); name != "" && name != t.name() {
		if strings.Contains(name, "/") || name == "default" {
			return target{}, fail(http.StatusBadRequest, "invalid name %q", name)
		}
		final = t.member(name)
		if s.exists(final.key()) {
			return target{}, fail(http.StatusConflict, "%s '%s' already exists", k.element, name)
		}
		s.rename(t, final)
	}
	s.docs[final.key()] = merged
	return final, nil
}

func (s *state) rename(from, to target) {
	s.move(from.key(), to.key())
	oldName, newName := from.name(), to.name()
	switch from.collection() {
	case "workspaces":
		if s.exists("namespaces/"+oldName) && !s.exists("namespaces/"+newName) {
			s.move("namespaces/"+oldName, "namespaces/"+newName)
		}
		if s.defaultWS == oldName {
			s.defaultWS = newName
		}
	case "namespaces":
		if s.exists("workspaces/"+oldName) && !s.exists("workspaces/"+newName) {
			s.move("workspaces/"+oldName, "workspaces/"+newName)
		}
		if s.defaultWS == oldName {
			s.defaultWS = newName
		}
	case "styles":
		if b, ok := s.slds[oldName]; ok {
			delete(s.slds, oldName)
			s.slds[newName] = b
		}
	case "layers":
		if res, ok := s.published[oldName]; ok {
			delete(s.published, oldName)
			s.published[newName] = res
		}
	}
}

// move rekeys key and everything below it, including layer references.
func (s *state) move(from, to string) {
	for _, k := range append([]string{from}, s.subtree(from)...) {
		d := s.docs[k]
		delete(s.docs, k)
		s.docs[to+strings.TrimPrefix(k, from)] = d
	}
	for name, res := range s.published {
		if res == from || strings.HasPrefix(res, from+"/") {
			s.published[name] = to + strings.TrimPrefix(res, from)
		}
	}
}

func (s *state) remove(t target, recurse bool) error {
	key := t.key()
	if !s.exists(key) {
		return fail(http.StatusNotFound, "%s not found", key)
	}
	below := s.subtree(key)
	layers := s.layersOver(key)
	if !recurse && (len(below) > 0 || len(layers) > 0) {
		return fail(http.StatusForbidden, "%s '%s' is not empty", kinds[t.collection()].element, t.name())
	}
	for _, k := range append(below, key) {
		delete(s.docs, k)
	}
	for _, l := range layers {
		delete(s.docs, "layers/"+l)
		delete(s.published, l)
	}

	name := t.name()
	switch t.collection() {
	case "layers":
		delete(s.published, name)
	case "styles":
		delete(s.slds, name)
	case "workspaces":
		delete(s.docs, "namespaces/"+name)
		if s.defaultWS == name {
			s.defaultWS = ""
			if rest := s.members("workspaces"); len(rest) > 0 {
				s.defaultWS = rest[0]
			}
		}
	}
	return nil
}

func (s *state) setDefault(name string) error {
	if !s.exists("workspaces/" + name) {
		return fail(http.StatusNotFound, "workspace '%s' not found", name)
	}
	s.defaultWS = name
	return nil
}

// render returns the member document with the references and links the
// server derives from where the member lives.
func (s *state) render(t target, base string) []byte {
	d := s.docs[t.key()].clone()
	coll := t.collection()
	k := kinds[coll]
	d.setText(k.key, t.name())

	ws := t.workspace()
	switch coll {
	case "datastores", "coveragestores", "wmsstores":
		d.set("workspace", append(nameInner(ws), atomLink(href(base, "workspaces/"+ws, "xml"))...))
	case "featuretypes", "coverages", "wmslayers":
		storeKey := t.parentKey()
		store := targetOf(storeKey).name()
		d.set("namespace", append(nameInner(ws), atomLink(href(base, "namespaces/"+ws, "xml"))...))
		d.set("store", append(nameInner(ws+":"+store), atomLink(href(base, storeKey, "xml"))...), classAttr(k.store))
	case "layergroups":
		if ws != "" {
			d.set("workspace", nameInner(ws))
		}
	case "layers":
		if res, ok := s.published[t.name()]; ok {
			rt := targetOf(res)
			class := kinds[rt.collection()].element
			d.set("resource", append(nameInner(rt.workspace()+":"+rt.name()), atomLink(href(base, res, "xml"))...), classAttr(class))
		}
	}
	for _, l := range k.links {
		d.set(kinds[l].list, atomLink(href(base, t.key()+"/"+l, "xml")))
	}
	return d.bytes()
}

func (s *state) listing(t target, base string) []byte {
	k := kinds[t.collection()]
	d := newDocument(k.list)
	for _, name := range s.members(t.key()) {
		inner := append(nameInner(name), atomLink(href(base, t.key()+"/"+name, "xml"))...)
		d.children = append(d.children, element{XMLName: nameOf(k.element), Inner: inner})
	}
	return d.bytes()
}

// counts reports members per collection.
func (s *state) counts() map[string]int {
	out := map[string]int{}
	for k := range s.docs {
		out[targetOf(k).collection()]++
	}
	return out
}
