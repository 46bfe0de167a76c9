// Package gpkg reads feature layers out of GeoPackage files. A GeoPackage
// is an SQLite database with registry tables describing its feature layers
// and geometry blobs wrapping standard WKB.
package gpkg

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/pkg/models"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// ReadFeatureCollection opens the GeoPackage at path, locates its feature
// layer and converts every row into a GeoJSON feature. Geometry and
// attributes are carried over as-is; nothing is reprojected or simplified.
func ReadFeatureCollection(path string) (*models.FeatureCollection, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, apperrors.NewReadError("failed to open output dataset", err)
	}
	defer db.Close()

	table, geomColumn, err := featureLayer(db)
	if err != nil {
		return nil, apperrors.NewReadError("failed to locate feature layer", err)
	}

	fc, err := readFeatures(db, table, geomColumn)
	if err != nil {
		return nil, apperrors.NewReadError("failed to read feature layer", err)
	}
	return fc, nil
}

// featureLayer finds the first features table and its geometry column via
// the GeoPackage registry tables.
func featureLayer(db *sql.DB) (table, geomColumn string, err error) {
	row := db.QueryRow(`SELECT table_name FROM gpkg_contents WHERE data_type = 'features' LIMIT 1`)
	if err = row.Scan(&table); err != nil {
		return "", "", fmt.Errorf("no feature layer registered: %w", err)
	}

	row = db.QueryRow(`SELECT column_name FROM gpkg_geometry_columns WHERE table_name = ?`, table)
	if err = row.Scan(&geomColumn); err != nil {
		return "", "", fmt.Errorf("no geometry column registered for %q: %w", table, err)
	}
	return table, geomColumn, nil
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func readFeatures(db *sql.DB, table, geomColumn string) (*models.FeatureCollection, error) {
	rows, err := db.Query(`SELECT * FROM ` + quoteIdent(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	fc := models.NewFeatureCollection()
	values := make([]interface{}, len(columns))
	for i := range values {
		values[i] = new(interface{})
	}

	for rows.Next() {
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}

		feature := models.Feature{
			Type:       "Feature",
			Properties: map[string]interface{}{},
		}
		for i, name := range columns {
			value := *(values[i].(*interface{}))
			if name == geomColumn {
				blob, ok := value.([]byte)
				if !ok {
					return nil, fmt.Errorf("geometry column %q is not a blob", name)
				}
				geom, gerr := parseGeometryBlob(blob)
				if gerr != nil {
					return nil, fmt.Errorf("row %d: %w", fc.Count(), gerr)
				}
				feature.Geometry = geom
				continue
			}
			feature.Properties[name] = value
		}
		fc.Features = append(fc.Features, feature)
	}
	return fc, rows.Err()
}

// parseGeometryBlob unwraps the GeoPackage binary header and parses the WKB
// geometry inside it.
func parseGeometryBlob(blob []byte) (*models.Geometry, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, fmt.Errorf("not a GeoPackage geometry blob")
	}

	flags := blob[3]
	if flags&0x20 != 0 {
		return nil, fmt.Errorf("extended geometry encoding not supported")
	}
	if flags&0x10 != 0 {
		return nil, fmt.Errorf("empty geometry")
	}

	// Envelope size from the envelope contents indicator (flags bits 1-3).
	var envelopeSize int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelopeSize = 0
	case 1:
		envelopeSize = 32
	case 2, 3:
		envelopeSize = 48
	case 4:
		envelopeSize = 64
	default:
		return nil, fmt.Errorf("invalid envelope indicator in flags %#x", flags)
	}

	offset := 8 + envelopeSize
	if len(blob) < offset {
		return nil, fmt.Errorf("geometry blob truncated at envelope")
	}
	return parseWKB(&wkbReader{buf: blob[offset:]})
}

// wkbReader walks a WKB buffer tracking the byte order declared in each
// geometry header.
type wkbReader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func (r *wkbReader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("WKB truncated at byte %d", r.pos)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *wkbReader) readUint32() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("WKB truncated at byte %d", r.pos)
	}
	v := r.order.Uint32(r.buf[r.pos : r.pos+4])
	r.pos += 4
	return v, nil
}

func (r *wkbReader) readFloat64() (float64, error) {
	if r.pos+8 > len(r.buf) {
		return 0, fmt.Errorf("WKB truncated at byte %d", r.pos)
	}
	v := math.Float64frombits(r.order.Uint64(r.buf[r.pos : r.pos+8]))
	r.pos += 8
	return v, nil
}

// readHeader consumes a geometry's byte-order marker and type word,
// returning the base geometry type and its extra per-point dimensions.
func (r *wkbReader) readHeader() (baseType uint32, extraDims int, err error) {
	orderByte, err := r.readByte()
	if err != nil {
		return 0, 0, err
	}
	switch orderByte {
	case 0:
		r.order = binary.BigEndian
	case 1:
		r.order = binary.LittleEndian
	default:
		return 0, 0, fmt.Errorf("invalid WKB byte order %d", orderByte)
	}

	typ, err := r.readUint32()
	if err != nil {
		return 0, 0, err
	}

	// ISO WKB encodes Z/M as type offsets (1000/2000/3000).
	baseType = typ % 1000
	switch typ / 1000 {
	case 0:
		extraDims = 0
	case 1, 2:
		extraDims = 1
	case 3:
		extraDims = 2
	default:
		return 0, 0, fmt.Errorf("unsupported WKB type %d", typ)
	}
	return baseType, extraDims, nil
}

const (
	wkbPolygon      = 3
	wkbMultiPolygon = 6
)

func parseWKB(r *wkbReader) (*models.Geometry, error) {
	baseType, extraDims, err := r.readHeader()
	if err != nil {
		return nil, err
	}

	switch baseType {
	case wkbPolygon:
		rings, err := r.readPolygonBody(extraDims)
		if err != nil {
			return nil, err
		}
		return &models.Geometry{Type: "Polygon", Coordinates: rings}, nil

	case wkbMultiPolygon:
		n, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		polygons := make([][][][]float64, 0, n)
		for i := uint32(0); i < n; i++ {
			// Each member polygon carries its own full WKB header.
			memberType, memberDims, err := r.readHeader()
			if err != nil {
				return nil, err
			}
			if memberType != wkbPolygon {
				return nil, fmt.Errorf("multipolygon member %d has type %d", i, memberType)
			}
			rings, err := r.readPolygonBody(memberDims)
			if err != nil {
				return nil, err
			}
			polygons = append(polygons, rings)
		}
		return &models.Geometry{Type: "MultiPolygon", Coordinates: polygons}, nil

	default:
		return nil, fmt.Errorf("unsupported geometry type %d", baseType)
	}
}

// readPolygonBody reads the ring list of a polygon whose header has already
// been consumed. Extra per-point dimensions (Z, M) are read and dropped;
// GeoJSON output stays 2D like the raster the engine saw.
func (r *wkbReader) readPolygonBody(extraDims int) ([][][]float64, error) {
	numRings, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	rings := make([][][]float64, 0, numRings)
	for i := uint32(0); i < numRings; i++ {
		numPoints, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		ring := make([][]float64, 0, numPoints)
		for j := uint32(0); j < numPoints; j++ {
			x, err := r.readFloat64()
			if err != nil {
				return nil, err
			}
			y, err := r.readFloat64()
			if err != nil {
				return nil, err
			}
			for d := 0; d < extraDims; d++ {
				if _, err := r.readFloat64(); err != nil {
					return nil, err
				}
			}
			ring = append(ring, []float64{x, y})
		}
		rings = append(rings, ring)
	}
	return rings, nil
}
