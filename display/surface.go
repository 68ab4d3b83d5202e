package display

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Surface is the window the final frame is presented to.
type Surface struct {
	// Width and Height are in logical pixels.
	Width  int
	Height int
	// PixelRatio maps logical to device pixels.
	PixelRatio float64
}

// PixelSize returns the surface size in device pixels.
func (s Surface) PixelSize() (int, int) {
	ratio := s.PixelRatio
	if ratio <= 0 {
		ratio = 1
	}
	return int(math.Round(float64(s.Width) * ratio)), int(math.Round(float64(s.Height) * ratio))
}

// RecommendedUISize is the size UI overlays are laid out at: the logical
// window size.
func (s Surface) RecommendedUISize() (int, int) {
	return s.Width, s.Height
}

// ViewportForSourceSize fits a srcW x srcH image into the surface keeping
// its aspect ratio, centered with letterbox or pillarbox bars. The result
// is x, y, width, height in device pixels.
func (s Surface) ViewportForSourceSize(srcW, srcH int) mgl32.Vec4 {
	winW, winH := s.PixelSize()
	if winW <= 0 || winH <= 0 || srcW <= 0 || srcH <= 0 {
		return mgl32.Vec4{}
	}

	windowAspect := float64(winW) / float64(winH)
	sceneAspect := float64(srcW) / float64(srcH)
	ratio := sceneAspect / windowAspect

	w, h := winW, winH
	if ratio < 1 {
		w = int(float64(w) * ratio)
	} else {
		h = int(float64(h) / ratio)
	}

	var x, y int
	if w < winW {
		x = (winW - w) / 2
	} else if h < winH {
		y = (winH - h) / 2
	}
	return mgl32.Vec4{float32(x), float32(y), float32(w), float32(h)}
}

// Stereo holds per-eye projection and eye-from-head offsets.
type Stereo struct {
	Projections [2]mgl32.Mat4
	EyeOffsets  [2]mgl32.Mat4
}

// DefaultIPD is the interpupillary distance used when none is configured.
const DefaultIPD = 0.0655

// NewStereo builds symmetric per-eye projections for a side-by-side target
// of the given full size, with eyes ipd meters apart.
func NewStereo(fovY float32, width, height int, ipd float32) Stereo {
	aspect := float32(1)
	if height > 0 {
		aspect = float32(width) / 2 / float32(height)
	}
	proj := mgl32.Perspective(fovY, aspect, 0.1, 1000)
	half := ipd / 2
	return Stereo{
		Projections: [2]mgl32.Mat4{proj, proj},
		EyeOffsets: [2]mgl32.Mat4{
			mgl32.Translate3D(-half, 0, 0.015),
			mgl32.Translate3D(half, 0, 0.015),
		},
	}
}
