package models

import (
	"encoding/json"
	"fmt"
)

// DefaultModelID is used when a request names no model at all.
const DefaultModelID = "delineate-v1"

// BoundingBox is a geographic extent in WGS84 degrees. The wire format is
// [[south, west], [north, east]].
type BoundingBox struct {
	South float64
	West  float64
	North float64
	East  float64
}

// BoundingBoxFromPairs builds a BoundingBox from the wire representation.
// Exactly two coordinate pairs are required, ordered and well-formed.
func BoundingBoxFromPairs(pairs [][]float64) (BoundingBox, error) {
	var bbox BoundingBox
	if len(pairs) != 2 {
		return bbox, fmt.Errorf("bbox must contain exactly 2 coordinate pairs, got %d", len(pairs))
	}
	for i, pair := range pairs {
		if len(pair) != 2 {
			return bbox, fmt.Errorf("bbox pair %d must contain exactly 2 values, got %d", i, len(pair))
		}
	}
	bbox = BoundingBox{
		South: pairs[0][0],
		West:  pairs[0][1],
		North: pairs[1][0],
		East:  pairs[1][1],
	}
	if bbox.South >= bbox.North {
		return bbox, fmt.Errorf("bbox south (%v) must be less than north (%v)", bbox.South, bbox.North)
	}
	if bbox.West >= bbox.East {
		return bbox, fmt.Errorf("bbox west (%v) must be less than east (%v)", bbox.West, bbox.East)
	}
	return bbox, nil
}

// InferenceRequest is the canonical internal form of a delineation request.
type InferenceRequest struct {
	ImageData    string
	BBox         [][]float64
	ModelID      string
	ModelVersion string
	Parameters   map[string]interface{}
}

// requestAliases maps every accepted wire spelling to its canonical key.
// Clients send both camelCase and snake_case; aliasing is resolved here in
// one explicit table rather than through struct-tag reflection tricks.
var requestAliases = map[string]string{
	"imageData":     "imageData",
	"image_data":    "imageData",
	"bbox":          "bbox",
	"modelId":       "modelId",
	"model_id":      "modelId",
	"modelVersion":  "modelVersion",
	"model_version": "modelVersion",
	"parameters":    "parameters",
}

// UnmarshalJSON decodes a request accepting the declared alias set. When a
// client sends both spellings of the same field the canonical (camelCase)
// one wins. Unknown keys are ignored.
func (r *InferenceRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	canonical := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		name, ok := requestAliases[key]
		if !ok {
			continue
		}
		if _, exists := canonical[name]; exists && key != name {
			continue
		}
		canonical[name] = value
	}

	if v, ok := canonical["imageData"]; ok {
		if err := json.Unmarshal(v, &r.ImageData); err != nil {
			return fmt.Errorf("imageData: %w", err)
		}
	}
	if v, ok := canonical["bbox"]; ok {
		if err := json.Unmarshal(v, &r.BBox); err != nil {
			return fmt.Errorf("bbox: %w", err)
		}
	}
	if v, ok := canonical["modelId"]; ok {
		if err := json.Unmarshal(v, &r.ModelID); err != nil {
			return fmt.Errorf("modelId: %w", err)
		}
	}
	if v, ok := canonical["modelVersion"]; ok {
		if err := json.Unmarshal(v, &r.ModelVersion); err != nil {
			return fmt.Errorf("modelVersion: %w", err)
		}
	}
	if v, ok := canonical["parameters"]; ok {
		if err := json.Unmarshal(v, &r.Parameters); err != nil {
			return fmt.Errorf("parameters: %w", err)
		}
	}
	return nil
}

// Validate checks required fields and returns the parsed bounding box.
// Rejection happens here, before any workspace or raster work.
func (r *InferenceRequest) Validate() (BoundingBox, error) {
	if r.ImageData == "" {
		return BoundingBox{}, fmt.Errorf("imageData is required")
	}
	if r.BBox == nil {
		return BoundingBox{}, fmt.Errorf("bbox is required")
	}
	return BoundingBoxFromPairs(r.BBox)
}

// ResolvedModelID returns the requested model id or the default.
func (r *InferenceRequest) ResolvedModelID() string {
	if r.ModelID == "" {
		return DefaultModelID
	}
	return r.ModelID
}
