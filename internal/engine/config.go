package engine

// Config is the fully-resolved parameter record handed to the delineation
// engine. It is derived deterministically from the model id and workspace
// paths and has no identity beyond the request it serves. All thresholds are
// fixed defaults; tuning them per request is an accepted gap for now.
type Config struct {
	Model             []string           `json:"model"`
	Method            string             `json:"method"`
	ExecutionArgs     ExecutionArgs      `json:"execution_args"`
	DataLoader        DataLoaderArgs     `json:"data_loader"`
	ExecutionPlanner  ExecutionPlanner   `json:"execution_planner"`
	Passes            []Pass             `json:"passes"`
	Polygonization    PolygonizationArgs `json:"polygonization_args"`
	Simplification    SimplificationArgs `json:"simplification_args"`
	Filtering         FilteringArgs      `json:"filtering_args"`
	PostprocessLimits PostprocessLimits  `json:"postprocess_limits"`
}

type ExecutionArgs struct {
	SrcFolder  string `json:"src_folder"`
	TempFolder string `json:"temp_folder"`
	OutputPath string `json:"output_path"`
	KeepTemp   bool   `json:"keep_temp"`
}

type DataLoaderArgs struct {
	Skip        bool  `json:"skip"`
	Bands       []int `json:"bands"`
	NodataValue []int `json:"nodata_value"`
}

type ExecutionPlanner struct {
	RegionWidth  int   `json:"region_width"`
	RegionHeight int   `json:"region_height"`
	PixelOffset  []int `json:"pixel_offset"`
}

type Pass struct {
	BatchSize      int                `json:"batch_size"`
	TileStep       float64            `json:"tile_step"`
	ModelArgs      []ModelArgs        `json:"model_args"`
	Delineation    DelineationConfig  `json:"delineation_config"`
	Polygonization PolygonizationArgs `json:"polygonization_args"`
}

type ModelArgs struct {
	Name              string  `json:"name"`
	MinimalConfidence float64 `json:"minimal_confidence"`
	UseHalf           bool    `json:"use_half"`
}

type DelineationConfig struct {
	PixelAreaThreshold      int     `json:"pixel_area_threshold"`
	RemainingAreaThreshold  float64 `json:"remaining_area_threshold"`
	ComposeMergeIOU         float64 `json:"compose_merge_iou"`
	MergeIOU                float64 `json:"merge_iou"`
	MergeRelativeAreaThresh float64 `json:"merge_relative_area_threshold"`
	MergingEdgeWidth        int     `json:"merging_edge_width"`
	MergeEdgeIOU            float64 `json:"merge_edge_iou"`
	MergeEdgePixels         int     `json:"merge_edge_pixels"`
}

type PolygonizationArgs struct {
	LayerName        string `json:"layer_name"`
	OverrideIfExists bool   `json:"override_if_exists"`
	MinBackgroundM2  int    `json:"minimum_background_field_area_m2"`
}

type SimplificationArgs struct {
	Simplify         bool    `json:"simplify"`
	EpsilonScale     float64 `json:"epsilon_scale"`
	NumWorkers       int     `json:"num_workers"`
	RasterResolution []int   `json:"raster_resolution"`
}

type FilteringArgs struct {
	MinimumAreaM2     int `json:"minimum_area_m2"`
	MinimumPartAreaM2 int `json:"minimum_part_area_m2"`
	MinimumHoleAreaM2 int `json:"minimum_hole_area_m2"`
}

type PostprocessLimits struct {
	NumWorkers        []int `json:"num_workers"`
	QueueTileCapacity int   `json:"queue_tiles_capacity"`
	MaxTilesInflight  int   `json:"max_tiles_inflight"`
}

// Paths names the workspace locations the engine reads from and writes to.
type Paths struct {
	InputDir   string
	ScratchDir string
	OutputPath string
}

// Logical model ids accepted on the wire. Anything else resolves to the
// default model; requests never fail on an unknown id.
const (
	modelLarge = "large"
	modelSmall = "small"
)

// Builder maps logical model identifiers to engine model names. Local
// checkpoint paths, when configured, replace the named models so the engine
// does not reach out to download weights.
type Builder struct {
	localLarge string
	localSmall string
}

// NewBuilder creates a configuration builder with optional local checkpoint
// overrides.
func NewBuilder(localLarge, localSmall string) *Builder {
	return &Builder{localLarge: localLarge, localSmall: localSmall}
}

func (b *Builder) large() string {
	if b.localLarge != "" {
		return b.localLarge
	}
	return modelLarge
}

func (b *Builder) small() string {
	if b.localSmall != "" {
		return b.localSmall
	}
	return modelSmall
}

// resolveModel maps a logical model id to an engine model name or checkpoint
// path. Unknown ids silently resolve to the large default.
func (b *Builder) resolveModel(modelID string) string {
	switch modelID {
	case "delineate-v1", "delineate-v2":
		return b.large()
	case "delineate-hd":
		return b.small()
	default:
		return b.large()
	}
}

// Build produces the engine configuration for one request. Pure function of
// its inputs: no side effects, no I/O, never fails.
func (b *Builder) Build(modelID string, paths Paths) *Config {
	model := b.resolveModel(modelID)
	polygonization := PolygonizationArgs{
		LayerName:        "fields",
		OverrideIfExists: true,
	}

	return &Config{
		Model:  []string{model},
		Method: "main",
		ExecutionArgs: ExecutionArgs{
			SrcFolder:  paths.InputDir,
			TempFolder: paths.ScratchDir,
			OutputPath: paths.OutputPath,
			KeepTemp:   false,
		},
		DataLoader: DataLoaderArgs{
			Skip:        false,
			Bands:       []int{1, 2, 3},
			NodataValue: []int{0, 0, 0},
		},
		ExecutionPlanner: ExecutionPlanner{
			RegionWidth:  4096,
			RegionHeight: 4096,
			PixelOffset:  []int{-1, -1},
		},
		Passes: []Pass{
			{
				BatchSize: 4,
				TileStep:  0.5,
				ModelArgs: []ModelArgs{
					{Name: model, MinimalConfidence: 0.005, UseHalf: false},
				},
				Delineation: DelineationConfig{
					PixelAreaThreshold:      512,
					RemainingAreaThreshold:  0.8,
					ComposeMergeIOU:         0.8,
					MergeIOU:                0.8,
					MergeRelativeAreaThresh: 0.5,
					MergingEdgeWidth:        4,
					MergeEdgeIOU:            0.6,
					MergeEdgePixels:         192,
				},
				Polygonization: polygonization,
			},
		},
		Polygonization: polygonization,
		Simplification: SimplificationArgs{
			Simplify:         true,
			EpsilonScale:     1,
			NumWorkers:       -1,
			RasterResolution: []int{4096, 4096},
		},
		Filtering: FilteringArgs{
			MinimumAreaM2:     2500,
			MinimumPartAreaM2: 0,
			MinimumHoleAreaM2: 2500,
		},
		PostprocessLimits: PostprocessLimits{
			NumWorkers:        []int{2, 2},
			QueueTileCapacity: 32,
			MaxTilesInflight:  64,
		},
	}
}
