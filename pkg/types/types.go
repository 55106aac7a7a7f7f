package types

// NormalizedBox is a bounding box with coordinates in [0,1] range,
// as reported by vision models
type NormalizedBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FaceCandidate is a single face reported by the vision model
type FaceCandidate struct {
	Box        NormalizedBox `json:"box"`
	Confidence float64       `json:"confidence"`
}

// DetectionReply is the complete detection payload expected from the vision model
type DetectionReply struct {
	Faces []FaceCandidate `json:"faces"`
}

// FaceBox is a face bounding box in pixel coordinates
type FaceBox struct {
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float64
}

// Center returns the center point of the box
func (b FaceBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Area returns the area of the box in pixels
func (b FaceBox) Area() int {
	return b.Width * b.Height
}

// ToPixels converts a normalized box to pixel coordinates against the
// given image dimensions
func (n NormalizedBox) ToPixels(imgWidth, imgHeight int, confidence float64) FaceBox {
	return FaceBox{
		X:          int(n.X*float64(imgWidth) + 0.5),
		Y:          int(n.Y*float64(imgHeight) + 0.5),
		Width:      int(n.W*float64(imgWidth) + 0.5),
		Height:     int(n.H*float64(imgHeight) + 0.5),
		Confidence: confidence,
	}
}
