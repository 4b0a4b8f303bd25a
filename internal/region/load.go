package region

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a YAML region table.
type tableFile struct {
	Regions []Region `yaml:"regions"`
}

// Load reads a region table from path. Files ending in .shp are read as
// polygon shapefiles (see LoadShapefile); anything else is parsed as YAML.
// An empty path returns the built-in Vancouver table.
func Load(path, nameField string) (*Index, error) {
	if path == "" {
		return NewIndex(Vancouver())
	}
	var (
		regions []Region
		err     error
	)
	if strings.EqualFold(filepath.Ext(path), ".shp") {
		regions, err = LoadShapefile(path, nameField)
	} else {
		regions, err = LoadYAML(path)
	}
	if err != nil {
		return nil, err
	}
	return NewIndex(regions)
}

// LoadYAML reads regions from a YAML document of the form
//
//	regions:
//	  - name: Kitsilano
//	    centroid: {lat: 49.268, lng: -123.168}
func LoadYAML(path string) ([]Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: read %s", path)
	}
	var tf tableFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, eris.Wrapf(err, "region: parse %s", path)
	}
	return tf.Regions, nil
}

// LoadShapefile reads neighbourhood polygons in WGS84 and derives each
// region's centroid and bounding box. nameField selects the attribute that
// holds the region name (case-insensitive).
func LoadShapefile(path, nameField string) ([]Region, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := -1
	for i, f := range reader.Fields() {
		name := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(name, nameField) {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, eris.Errorf("region: shapefile %s has no %q field", path, nameField)
	}

	var (
		regions []Region
		skipped int
	)
	for reader.Next() {
		_, shape := reader.Shape()
		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		poly, ok := shape.(*shp.Polygon)
		if !ok || name == "" {
			skipped++
			continue
		}
		g := polygonGeometry(poly)
		if g == nil {
			skipped++
			continue
		}
		c, err := xy.Centroid(g)
		if err != nil {
			return nil, eris.Wrapf(err, "region: centroid of %q", name)
		}
		box := poly.BBox()
		regions = append(regions, Region{
			Name:     name,
			Centroid: Point{Lat: c.Y(), Lng: c.X()},
			Bounds:   &BBox{MinLng: box.MinX, MinLat: box.MinY, MaxLng: box.MaxX, MaxLat: box.MaxY},
		})
	}

	if skipped > 0 {
		zap.L().Debug("region: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return regions, nil
}

// polygonGeometry converts each shapefile ring into its own polygon.
func polygonGeometry(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		flat := make([]float64, 0, 2*(end-start))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
