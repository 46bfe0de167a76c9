package models

// Geometry is a GeoJSON geometry. Coordinates carry whatever nesting the
// geometry type requires; they are passed through as-is, no reprojection or
// simplification happens on this side of the engine boundary.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// Feature is a single GeoJSON feature with its attribute mapping.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *Geometry              `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is an ordered set of features in standard GeoJSON shape.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// NewFeatureCollection returns an empty, well-formed collection.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: []Feature{},
	}
}

// Count returns the number of features in the collection.
func (fc *FeatureCollection) Count() int {
	return len(fc.Features)
}
