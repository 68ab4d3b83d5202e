package display

import (
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Hand indexes the two controllers.
type Hand int

const (
	LeftHand Hand = iota
	RightHand
)

// LaserMode selects how a hand laser is drawn.
type LaserMode int

const (
	LaserNone LaserMode = iota
	LaserOverlay
)

// HandLaser describes the pointer ray drawn from a hand.
type HandLaser struct {
	Mode  LaserMode
	Color mgl32.Vec4
}

// FrameInfo is the pose snapshot one frame is rendered and presented with.
// It holds only values, so assignment copies it completely.
type FrameInfo struct {
	FrameIndex           uint64
	SensorSampleTime     time.Time
	PredictedDisplayTime time.Time
	RenderPose           mgl32.Mat4
	PresentPose          mgl32.Mat4
	HandPoses            [2]mgl32.Mat4
	HandLasers           [2]HandLaser
}

// NewFrameInfo returns a FrameInfo with identity poses.
func NewFrameInfo(frameIndex uint64) FrameInfo {
	id := mgl32.Ident4()
	return FrameInfo{
		FrameIndex:  frameIndex,
		RenderPose:  id,
		PresentPose: id,
		HandPoses:   [2]mgl32.Mat4{id, id},
	}
}

// HandActive reports whether hand has a laser to draw.
func (fi FrameInfo) HandActive(hand Hand) bool {
	return fi.HandLasers[hand].Mode != LaserNone
}
