package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// Register decoders for the payload formats clients send.
	_ "image/gif"
	_ "image/jpeg"

	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/pkg/models"
)

// wgs84WKT is the only coordinate system this service speaks. The bounding
// box is always interpreted as WGS84 degrees; no reprojection happens here.
const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

// Transform maps pixel coordinates to WGS84 degrees. It follows the usual
// north-up affine convention: the origin is the outer corner of pixel (0,0),
// x grows east with the column, y shrinks south with the row.
type Transform struct {
	OriginLon   float64
	OriginLat   float64
	PixelWidth  float64
	PixelHeight float64
}

// NewTransform derives the affine transform from a bounding box and grid
// dimensions by linear interpolation. This is the sole source of geographic
// truth for everything downstream.
func NewTransform(bbox models.BoundingBox, width, height int) Transform {
	return Transform{
		OriginLon:   bbox.West,
		OriginLat:   bbox.North,
		PixelWidth:  (bbox.East - bbox.West) / float64(width),
		PixelHeight: (bbox.North - bbox.South) / float64(height),
	}
}

// Apply maps a pixel (col, row) to (lat, lon).
func (t Transform) Apply(col, row float64) (lat, lon float64) {
	lon = t.OriginLon + col*t.PixelWidth
	lat = t.OriginLat - row*t.PixelHeight
	return lat, lon
}

// Raster is a georeferenced raster artifact written into a job workspace.
// Immutable once written.
type Raster struct {
	Path      string
	Width     int
	Height    int
	Transform Transform
}

// DecodePayload turns an encoded image payload (raw base64 or a data URL)
// into a decoded image. Anything that does not decode to a well-formed
// image fails with a decode error.
func DecodePayload(payload string) (image.Image, error) {
	// Data URLs carry "data:image/png;base64," before the payload.
	if idx := strings.Index(payload, ","); idx >= 0 {
		payload = payload[idx+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, apperrors.NewDecodeError("image payload is not valid base64", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewDecodeError("image payload is not a decodable image", err)
	}
	return img, nil
}

// Encode decodes the payload and writes a georeferenced raster into dir:
// the pixel grid as input.png plus input.pgw / input.prj sidecars carrying
// the affine transform and coordinate system. The raster write is atomic,
// the file is either complete or absent.
func Encode(payload string, bbox models.BoundingBox, dir string) (*Raster, error) {
	img, err := DecodePayload(payload)
	if err != nil {
		return nil, err
	}

	rgb := toRGB(img)
	bounds := rgb.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, apperrors.NewDecodeError("image payload has zero dimensions", nil)
	}

	transform := NewTransform(bbox, width, height)
	dst := filepath.Join(dir, "input.png")

	if err := writeAtomic(dst, func(f *os.File) error {
		return png.Encode(f, rgb)
	}); err != nil {
		return nil, apperrors.NewInternalError("failed to write raster", err)
	}
	if err := writeWorldFile(filepath.Join(dir, "input.pgw"), transform); err != nil {
		return nil, apperrors.NewInternalError("failed to write world file", err)
	}
	if err := writeAtomic(filepath.Join(dir, "input.prj"), func(f *os.File) error {
		_, werr := f.WriteString(wgs84WKT + "\n")
		return werr
	}); err != nil {
		return nil, apperrors.NewInternalError("failed to write projection file", err)
	}

	return &Raster{
		Path:      dst,
		Width:     width,
		Height:    height,
		Transform: transform,
	}, nil
}

// toRGB converts any decoded color model to a 3-band 8-bit grid (stored as
// opaque NRGBA, alpha is discarded).
func toRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	rgb := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgb, rgb.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), img, bounds.Min, draw.Over)
	return rgb
}

// writeWorldFile writes the six-line ESRI world file for the raster. World
// files reference the center of the top-left pixel, not its corner.
func writeWorldFile(path string, t Transform) error {
	return writeAtomic(path, func(f *os.File) error {
		_, err := fmt.Fprintf(f, "%.12f\n0.0\n0.0\n%.12f\n%.12f\n%.12f\n",
			t.PixelWidth,
			-t.PixelHeight,
			t.OriginLon+t.PixelWidth/2,
			t.OriginLat-t.PixelHeight/2,
		)
		return err
	})
}

// writeAtomic writes through a temp file in the same directory and renames
// it into place so readers never observe a partial file.
func writeAtomic(dst string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
