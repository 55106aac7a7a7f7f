package cropper

import (
	"image"

	"github.com/nexoria/badgephoto/pkg/types"
)

// Radius bounds accepted by the crop geometry. Callers validate the
// percentage before asking for a crop window.
const (
	MinRadiusPercent     = 5
	MaxRadiusPercent     = 100
	DefaultRadiusPercent = 50
)

// ValidRadius reports whether a radius percentage is inside the accepted range.
func ValidRadius(radiusPercent int) bool {
	return radiusPercent >= MinRadiusPercent && radiusPercent <= MaxRadiusPercent
}

// ComputeCrop computes the crop window around a detected face. The margin
// scales with the face itself: the radius is min(width, height) of the face
// times radiusPercent/100, with 1.5x the radius of headroom above the face
// (hair and forehead) and 0.5x below, clamped to the image bounds.
func ComputeCrop(imgWidth, imgHeight int, face types.FaceBox, radiusPercent int) image.Rectangle {
	radius := min(face.Width, face.Height) * radiusPercent / 100
	topPadding := radius * 3 / 2
	bottomPadding := radius / 2

	cropX := max(0, face.X-radius)
	cropY := max(0, face.Y-topPadding)
	cropWidth := min(imgWidth-cropX, face.Width+2*radius)
	cropHeight := min(imgHeight-cropY, face.Height+topPadding+bottomPadding)

	return image.Rect(cropX, cropY, cropX+cropWidth, cropY+cropHeight)
}

// LargestFace returns the face with the greatest area. Ties keep the earliest
// box since detector output order carries no meaning of its own.
func LargestFace(boxes []types.FaceBox) (types.FaceBox, bool) {
	if len(boxes) == 0 {
		return types.FaceBox{}, false
	}

	largest := boxes[0]
	for _, b := range boxes[1:] {
		if b.Area() > largest.Area() {
			largest = b
		}
	}
	return largest, true
}
