package models

// ResultMetadata summarizes a completed delineation run.
type ResultMetadata struct {
	FieldCount int `json:"fieldCount"`
	// ProcessingTimeMs covers raster encoding through result reading.
	ProcessingTimeMs int64 `json:"processingTimeMs"`
	// Confidence is a fixed placeholder: the engine exposes no aggregate
	// confidence signal, so there is nothing to compute it from.
	Confidence float64 `json:"confidence"`
}

// InferenceResponse is the body of a successful blocking inference call.
type InferenceResponse struct {
	Boundaries *FeatureCollection `json:"boundaries"`
	Metadata   ResultMetadata     `json:"metadata"`
}

// Streaming statuses. A stream is a sequence of processing events closed by
// exactly one terminal event: completed or error.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// ProgressEvent is one server-push event on the streaming endpoint. The
// progress values are synthetic checkpoints around the blocking pipeline,
// not real sub-progress from the engine, which offers no progress channel.
type ProgressEvent struct {
	Status     string             `json:"status"`
	Progress   int                `json:"progress"`
	Message    string             `json:"message"`
	Boundaries *FeatureCollection `json:"boundaries,omitempty"`
	Metadata   *ResultMetadata    `json:"metadata,omitempty"`
}
