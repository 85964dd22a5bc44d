package gstest

import "fmt"

// mustCreate adds a fixture document; fixtures are static so failure is a
// programming error.
func (s *Server) mustCreate(collection, doc string) {
	if err := s.Add(collection, doc); err != nil {
		panic(fmt.Sprintf("gstest: fixture %s: %v", collection, err))
	}
}

func sampleSLD(name, title, symbolizer string) []byte {
	return []byte(`<?xml version="1.0" encoding="UTF-8"?>
<StyledLayerDescriptor version="1.0.0" xmlns="http://www.opengis.net/sld">
  <NamedLayer>
    <Name>` + name + `</Name>
    <UserStyle>
      <Name>` + name + `</Name>
      <Title>` + title + `</Title>
      <FeatureTypeStyle><Rule>` + symbolizer + `</Rule></FeatureTypeStyle>
    </UserStyle>
  </NamedLayer>
</StyledLayerDescriptor>`)
}

// loadSamples mirrors the demo data a fresh GeoServer ships with: topp
// states on a shapefile store, nurc Arc_Sample on an ArcGrid store and the
// four default styles.
func (s *Server) loadSamples() {
	styles := []struct{ name, title, sym string }{
		{"point", "Red Square point", `<PointSymbolizer/>`},
		{"line", "Blue line", `<LineSymbolizer/>`},
		{"polygon", "Grey Polygon", `<PolygonSymbolizer/>`},
		{"raster", "Opaque Raster", `<RasterSymbolizer/>`},
	}
	for _, st := range styles {
		s.mustCreate("styles", `<style><name>`+st.name+`</name><format>sld</format><filename>`+st.name+`.sld</filename><sldVersion><version>1.0.0</version></sldVersion></style>`)
		s.mu.Lock()
		s.st.slds[st.name] = sampleSLD(st.name, st.title, st.sym)
		s.mu.Unlock()
	}

	s.mustCreate("namespaces", `<namespace><prefix>topp</prefix><uri>http://www.openplans.org/topp</uri></namespace>`)
	s.mustCreate("workspaces/topp/datastores", `<dataStore>
  <name>states_shapefile</name>
  <type>Shapefile</type>
  <enabled>true</enabled>
  <connectionParameters>
    <entry key="url">file:data/shapefiles/states.shp</entry>
    <entry key="namespace">http://www.openplans.org/topp</entry>
    <entry key="charset">ISO-8859-1</entry>
  </connectionParameters>
</dataStore>`)
	s.mustCreate("workspaces/topp/datastores/states_shapefile/featuretypes", `<featureType>
  <name>states</name>
  <title>USA Population</title>
  <abstract>This is some census data on the states.</abstract>
  <keywords><string>census</string><string>united</string><string>states</string></keywords>
  <srs>EPSG:4326</srs>
  <nativeBoundingBox><minx>-124.731422</minx><maxx>-66.969849</maxx><miny>24.955967</miny><maxy>49.371735</maxy><crs>EPSG:4326</crs></nativeBoundingBox>
  <latLonBoundingBox><minx>-124.731422</minx><maxx>-66.969849</maxx><miny>24.955967</miny><maxy>49.371735</maxy><crs>EPSG:4326</crs></latLonBoundingBox>
</featureType>`)

	s.mustCreate("namespaces", `<namespace><prefix>nurc</prefix><uri>http://www.nurc.nato.int</uri></namespace>`)
	s.mustCreate("workspaces/nurc/coveragestores", `<coverageStore>
  <name>arcGridSample</name>
  <type>ArcGrid</type>
  <enabled>true</enabled>
  <description>Sample ASCII GRID coverage of Global rainfall.</description>
  <url>file:coverages/arc_sample/precip30min.asc</url>
</coverageStore>`)
	s.mustCreate("workspaces/nurc/coveragestores/arcGridSample/coverages", `<coverage>
  <name>Arc_Sample</name>
  <title>A sample ArcGrid file</title>
  <latLonBoundingBox><minx>-180</minx><maxx>180</maxx><miny>-90</miny><maxy>90</maxy><crs>EPSG:4326</crs></latLonBoundingBox>
  <supportedFormats><string>ArcGrid</string><string>GEOTIFF</string></supportedFormats>
</coverage>`)
}
