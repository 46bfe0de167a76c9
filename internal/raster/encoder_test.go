package raster

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/pkg/models"
)

func testBBox() models.BoundingBox {
	return models.BoundingBox{South: 10, West: 20, North: 11, East: 21}
}

func testPayload(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestNewTransform_CornerMapping(t *testing.T) {
	tr := NewTransform(testBBox(), 100, 100)

	lat, lon := tr.Apply(0, 0)
	if math.Abs(lat-11) > 1e-9 || math.Abs(lon-20) > 1e-9 {
		t.Errorf("pixel (0,0) mapped to (%v, %v), want (11, 20)", lat, lon)
	}

	lat, lon = tr.Apply(99, 99)
	if math.Abs(lat-10) > 0.02 || math.Abs(lon-21) > 0.02 {
		t.Errorf("pixel (99,99) mapped to (%v, %v), want near (10, 21)", lat, lon)
	}
}

func TestDecodePayload_RawBase64(t *testing.T) {
	img, err := DecodePayload(testPayload(t, 8, 4))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Errorf("unexpected dimensions: %v", img.Bounds())
	}
}

func TestDecodePayload_DataURL(t *testing.T) {
	payload := "data:image/png;base64," + testPayload(t, 6, 6)
	img, err := DecodePayload(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if img.Bounds().Dx() != 6 {
		t.Errorf("unexpected width: %d", img.Bounds().Dx())
	}
}

func TestDecodePayload_InvalidBase64(t *testing.T) {
	_, err := DecodePayload("!!not base64!!")
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Errorf("expected decode error type, got %v", err)
	}
}

func TestDecodePayload_NotAnImage(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("plain text, not pixels"))
	_, err := DecodePayload(payload)
	if err == nil {
		t.Fatal("expected decode error, got nil")
	}
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Errorf("expected decode error type, got %v", err)
	}
}

func TestEncode_WritesArtifacts(t *testing.T) {
	dir := t.TempDir()

	rst, err := Encode(testPayload(t, 100, 100), testBBox(), dir)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if rst.Width != 100 || rst.Height != 100 {
		t.Errorf("unexpected raster dimensions: %dx%d", rst.Width, rst.Height)
	}

	for _, name := range []string{"input.png", "input.pgw", "input.prj"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected artifact %s: %v", name, err)
		}
	}

	// No temp files may survive the atomic writes.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected exactly 3 files in workspace input dir, got %d", len(entries))
	}

	// The written raster must decode back to the same grid.
	f, err := os.Open(rst.Path)
	if err != nil {
		t.Fatalf("open raster: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode written raster: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("written raster has wrong dimensions: %v", img.Bounds())
	}
}

func TestEncode_TransformMatchesBBox(t *testing.T) {
	dir := t.TempDir()

	rst, err := Encode(testPayload(t, 50, 25), testBBox(), dir)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	tr := rst.Transform
	if math.Abs(tr.PixelWidth-(1.0/50)) > 1e-12 {
		t.Errorf("unexpected pixel width: %v", tr.PixelWidth)
	}
	if math.Abs(tr.PixelHeight-(1.0/25)) > 1e-12 {
		t.Errorf("unexpected pixel height: %v", tr.PixelHeight)
	}
	if tr.OriginLat != 11 || tr.OriginLon != 20 {
		t.Errorf("unexpected origin: (%v, %v)", tr.OriginLat, tr.OriginLon)
	}
}

func TestEncode_InvalidPayload(t *testing.T) {
	dir := t.TempDir()

	_, err := Encode("definitely-not-an-image", testBBox(), dir)
	if err == nil {
		t.Fatal("expected error for invalid payload")
	}

	// Nothing may be left behind on failure.
	entries, rerr := os.ReadDir(dir)
	if rerr != nil {
		t.Fatalf("read dir: %v", rerr)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty dir after failed encode, got %d entries", len(entries))
	}
}
