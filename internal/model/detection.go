package model

// Box is an axis-aligned rectangle given as fractions (0..1) of the image size,
// origin top-left. It has no meaning without the pixel size of an image.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Instance is one located occurrence of a Detection.
type Instance struct {
	BoundingBox *Box    `json:"boundingBox,omitempty"`
	Confidence  float64 `json:"confidence"` // Range [0, 100]
}

// Detection is one labeled object class returned by the detector.
type Detection struct {
	Name       string     `json:"name"`
	Confidence float64    `json:"confidence"` // Range [0, 100]
	Instances  []Instance `json:"instances"`
}

// DetectorOutput is the full, unranked response of a detector call.
type DetectorOutput struct {
	Labels       []Detection `json:"labels"`
	ModelVersion string      `json:"modelVersion,omitempty"`
}

// RankedBox is an instance flattened into a single record. Geometry fields are
// nil when the source instance carried no bounding box.
type RankedBox struct {
	Confidence float64  `json:"confidence"`
	Left       *float64 `json:"left,omitempty"`
	Top        *float64 `json:"top,omitempty"`
	Width      *float64 `json:"width,omitempty"`
	Height     *float64 `json:"height,omitempty"`
}

// HasGeometry reports whether the box carries coordinates.
func (b RankedBox) HasGeometry() bool {
	return b.Left != nil && b.Top != nil && b.Width != nil && b.Height != nil
}

// RankedLabel is a rounded, capped view of a Detection.
type RankedLabel struct {
	Name       string      `json:"name"`
	Confidence float64     `json:"confidence"`
	Boxes      []RankedBox `json:"boxes"`
}

// ObjectRef identifies a persisted image that the detector can read directly.
type ObjectRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// DetectionResult is the response payload of an upload detection.
// It is built once per request and not modified afterwards.
type DetectionResult struct {
	TopLabels  []RankedLabel  `json:"topLabels"`
	StorageRef *ObjectRef     `json:"storageRef"`
	Raw        DetectorOutput `json:"raw"`
}

// ImageSource is what a detector analyses: raw bytes or a persisted object.
// Exactly one of Bytes and Object is set.
type ImageSource struct {
	Bytes  []byte
	Object *ObjectRef
}

// DetectParams are the fixed per-call detector parameters.
type DetectParams struct {
	MaxLabels     int
	MinConfidence float64
}
