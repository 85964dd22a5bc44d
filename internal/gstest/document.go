package gstest

import (
	"bytes"
	"encoding/xml"
	"slices"
	"strings"
)

const atomNS = "http://www.w3.org/2005/Atom"

// element is one top level child of a catalog document, kept as raw inner
// XML so nested structures round-trip untouched.
type element struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Inner   []byte     `xml:",innerxml"`
}

// document is a catalog object as an ordered list of top level elements.
// A PUT body is merged into it element by element, which is how GeoServer
// applies partial updates.
type document struct {
	root     string
	children []element
}

func parseDocument(raw []byte) (*document, error) {
	var v struct {
		XMLName  xml.Name
		Children []element `xml:",any"`
	}
	if err := xml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &document{root: v.XMLName.Local, children: v.Children}, nil
}

func newDocument(root string) *document { return &document{root: root} }

func (d *document) clone() *document {
	out := &document{root: d.root, children: make([]element, len(d.children))}
	for i, c := range d.children {
		out.children[i] = element{
			XMLName: c.XMLName,
			Attrs:   slices.Clone(c.Attrs),
			Inner:   bytes.Clone(c.Inner),
		}
	}
	return out
}

func (d *document) find(local string) (element, bool) {
	for _, c := range d.children {
		if c.XMLName.Local == local {
			return c, true
		}
	}
	return element{}, false
}

func (d *document) has(local string) bool {
	_, ok := d.find(local)
	return ok
}

// text returns the character data of the first element named local.
func (d *document) text(local string) string {
	c, ok := d.find(local)
	if !ok {
		return ""
	}
	var v struct {
		Text string `xml:",chardata"`
	}
	raw := append(append([]byte("<v>"), c.Inner...), "</v>"...)
	if err := xml.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return strings.TrimSpace(v.Text)
}

// set replaces every element named local with one holding inner.
func (d *document) set(local string, inner []byte, attrs ...xml.Attr) *document {
	el := element{XMLName: xml.Name{Local: local}, Attrs: attrs, Inner: inner}
	for i, c := range d.children {
		if c.XMLName.Local == local {
			d.children[i] = el
			d.drop(local, i+1)
			return d
		}
	}
	d.children = append(d.children, el)
	return d
}

func (d *document) setText(local, value string) *document {
	return d.set(local, escape(value))
}

// setDefault sets local only when the document lacks it.
func (d *document) setDefault(local, value string) *document {
	if d.has(local) {
		return d
	}
	return d.setText(local, value)
}

// drop removes the elements named local found at or after index from.
func (d *document) drop(local string, from int) {
	out := d.children[:from]
	for _, c := range d.children[from:] {
		if c.XMLName.Local != local {
			out = append(out, c)
		}
	}
	d.children = out
}

// merge applies the elements of patch on top of d.
func (d *document) merge(patch *document) {
	for _, c := range patch.children {
		d.set(c.XMLName.Local, c.Inner, c.Attrs...)
	}
}

func (d *document) bytes() []byte {
	var b bytes.Buffer
	b.WriteString("<" + d.root + ">")
	for _, c := range d.children {
		writeElement(&b, c)
	}
	b.WriteString("</" + d.root + ">")
	return b.Bytes()
}

func writeElement(b *bytes.Buffer, c element) {
	b.WriteString("<" + c.XMLName.Local)
	for _, a := range c.Attrs {
		var name string
		switch {
		case a.Name.Space == "":
			name = a.Name.Local
		case a.Name.Space == "xmlns":
			name = "xmlns:" + a.Name.Local
		default:
			continue
		}
		b.WriteString(" " + name + `="`)
		b.Write(escape(a.Value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	b.Write(c.Inner)
	b.WriteString("</" + c.XMLName.Local + ">")
}

func escape(s string) []byte {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.Bytes()
}

func nameInner(name string) []byte {
	return append(append([]byte("<name>"), escape(name)...), "</name>"...)
}

func atomLink(href string) []byte {
	return []byte(`<atom:link xmlns:atom="` + atomNS + `" rel="alternate" href="` + string(escape(href)) + `" type="application/xml"/>`)
}

func classAttr(class string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: "class"}, Value: class}
}

func nameOf(local string) xml.Name { return xml.Name{Local: local} }
