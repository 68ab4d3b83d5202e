package display

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// PredictionOffset is how far ahead of the sensor sample poses are
// predicted.
const PredictionOffset = 50 * time.Millisecond

// Pose is one sensor sample.
type Pose struct {
	Time            time.Time
	Head            mgl32.Mat4
	LinearVelocity  mgl32.Vec3
	AngularVelocity mgl32.Vec3
	Hands           [2]mgl32.Mat4
	HandsTracked    [2]bool
}

// PoseSource samples head and hand poses.
type PoseSource interface {
	Sample(ctx context.Context) (Pose, error)
}

// Predictor turns raw samples into FrameInfo predicted for display time.
type Predictor struct {
	Source PoseSource
	Offset time.Duration
	// Lasers styles the hand lasers of tracked hands.
	Lasers [2]HandLaser
}

// NewPredictor predicts PredictionOffset ahead with the default laser
// colors (left red, right cyan).
func NewPredictor(src PoseSource) *Predictor {
	return &Predictor{
		Source: src,
		Offset: PredictionOffset,
		Lasers: [2]HandLaser{
			{Mode: LaserOverlay, Color: mgl32.Vec4{1, 0, 0, 1}},
			{Mode: LaserOverlay, Color: mgl32.Vec4{0, 1, 1, 1}},
		},
	}
}

// FrameInfo samples the source and extrapolates the head pose to the
// predicted display time.
func (p *Predictor) FrameInfo(ctx context.Context, frameIndex uint64) (FrameInfo, error) {
	pose, err := p.Source.Sample(ctx)
	if err != nil {
		return FrameInfo{}, fmt.Errorf("sampling pose for frame %d: %w", frameIndex, err)
	}

	info := NewFrameInfo(frameIndex)
	info.SensorSampleTime = pose.Time
	info.PredictedDisplayTime = pose.Time.Add(p.Offset)
	info.RenderPose = Extrapolate(pose.Head, pose.LinearVelocity, pose.AngularVelocity, p.Offset)
	info.PresentPose = info.RenderPose
	for h := range info.HandPoses {
		if !pose.HandsTracked[h] {
			continue
		}
		info.HandPoses[h] = pose.Hands[h]
		info.HandLasers[h] = p.Lasers[h]
	}
	return info, nil
}

// Extrapolate advances pose by dt at constant linear and angular velocity.
// Angular velocity is an axis scaled by radians per second.
func Extrapolate(pose mgl32.Mat4, linear, angular mgl32.Vec3, dt time.Duration) mgl32.Mat4 {
	s := float32(dt.Seconds())
	out := pose
	if speed := angular.Len(); speed > 1e-6 {
		rot := mgl32.HomogRotate3D(speed*s, angular.Mul(1/speed))
		out = rot.Mul4(pose)
	}
	pos := pose.Col(3).Vec3().Add(linear.Mul(s))
	out.SetCol(3, pos.Vec4(1))
	return out
}

// OrbitSource is a synthetic PoseSource for headless runs: the head yaws
// around +Y at Rate radians per second from Start, and the hands hold
// fixed offsets.
type OrbitSource struct {
	Start time.Time
	Rate  float64
	Clock func() time.Time
}

// NewOrbitSource starts an orbit now.
func NewOrbitSource(rate float64) *OrbitSource {
	return &OrbitSource{Start: time.Now(), Rate: rate, Clock: time.Now}
}

// Sample implements PoseSource.
func (o *OrbitSource) Sample(ctx context.Context) (Pose, error) {
	if err := ctx.Err(); err != nil {
		return Pose{}, err
	}
	now := o.Clock()

	angle := math.Mod(o.Rate*now.Sub(o.Start).Seconds(), 2*math.Pi)
	head := mgl32.HomogRotate3DY(float32(angle))
	return Pose{
		Time:            now,
		Head:            head,
		AngularVelocity: mgl32.Vec3{0, float32(o.Rate), 0},
		Hands: [2]mgl32.Mat4{
			mgl32.Translate3D(-0.2, -0.3, -0.4),
			mgl32.Translate3D(0.1, 0.3, 0),
		},
		HandsTracked: [2]bool{true, true},
	}, nil
}
