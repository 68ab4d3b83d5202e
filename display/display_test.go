package display

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"

	fgerrors "github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/gpu"
)

func TestFrameState_CaptureSnapshot(t *testing.T) {
	fs := NewFrameState(3)
	for i := uint64(1); i <= 5; i++ {
		fs.Capture(NewFrameInfo(i))
	}
	if fs.Len() != 3 {
		t.Fatalf("expected 3 retained frames, got %d", fs.Len())
	}
	if _, ok := fs.Snapshot(2); ok {
		t.Error("frame 2 should have been evicted")
	}
	if info, ok := fs.Snapshot(4); !ok || info.FrameIndex != 4 {
		t.Errorf("Snapshot(4) = %v, %v", info.FrameIndex, ok)
	}
	if latest, ok := fs.Latest(); !ok || latest.FrameIndex != 5 {
		t.Errorf("Latest() = %v, %v", latest.FrameIndex, ok)
	}
}

func TestFrameState_SnapshotIsCopy(t *testing.T) {
	fs := NewFrameState(0)
	info := NewFrameInfo(1)
	fs.Capture(info)

	info.RenderPose = mgl32.Translate3D(9, 9, 9)
	got, _ := fs.Snapshot(1)
	if !got.RenderPose.ApproxEqual(mgl32.Ident4()) {
		t.Fatal("mutating the caller's value must not change the stored snapshot")
	}

	got.HandPoses[0] = mgl32.Translate3D(1, 1, 1)
	again, _ := fs.Snapshot(1)
	if !again.HandPoses[0].ApproxEqual(mgl32.Ident4()) {
		t.Fatal("mutating a snapshot must not change the stored value")
	}
}

func TestFrameState_UpdatePresentPose(t *testing.T) {
	fs := NewFrameState(2)
	fs.Capture(NewFrameInfo(7))
	pose := mgl32.HomogRotate3DY(0.5)
	if !fs.UpdatePresentPose(7, pose) {
		t.Fatal("expected update of captured frame")
	}
	info, _ := fs.Snapshot(7)
	if !info.PresentPose.ApproxEqual(pose) || !info.RenderPose.ApproxEqual(mgl32.Ident4()) {
		t.Error("only the present pose should change")
	}
	if fs.UpdatePresentPose(99, pose) {
		t.Error("unknown frame must report false")
	}
}

func TestFrameState_Concurrent(t *testing.T) {
	fs := NewFrameState(4)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 500; i++ {
			fs.Capture(NewFrameInfo(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 500; i++ {
			if info, ok := fs.Snapshot(i); ok && info.FrameIndex != i {
				t.Errorf("snapshot %d returned frame %d", i, info.FrameIndex)
			}
			fs.Latest()
		}
	}()
	wg.Wait()
}

type fixedSource struct {
	pose Pose
	err  error
}

func (f fixedSource) Sample(context.Context) (Pose, error) { return f.pose, f.err }

func TestPredictor_FrameInfo(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	src := fixedSource{pose: Pose{
		Time:           t0,
		Head:           mgl32.Ident4(),
		LinearVelocity: mgl32.Vec3{1, 0, 0},
		Hands:          [2]mgl32.Mat4{mgl32.Translate3D(0, 1, 0), mgl32.Translate3D(0, 2, 0)},
		HandsTracked:   [2]bool{false, true},
	}}

	info, err := NewPredictor(src).FrameInfo(context.Background(), 42)
	if err != nil {
		t.Fatalf("FrameInfo: %v", err)
	}
	if info.FrameIndex != 42 {
		t.Errorf("frame index = %d", info.FrameIndex)
	}
	if got := info.PredictedDisplayTime.Sub(info.SensorSampleTime); got != 50*time.Millisecond {
		t.Errorf("prediction offset = %v", got)
	}
	pos := info.RenderPose.Col(3).Vec3()
	if !pos.ApproxEqual(mgl32.Vec3{0.05, 0, 0}) {
		t.Errorf("predicted head position = %v", pos)
	}
	if info.HandActive(LeftHand) || !info.HandActive(RightHand) {
		t.Errorf("only the tracked hand should carry a laser: %+v", info.HandLasers)
	}
	if !info.HandPoses[LeftHand].ApproxEqual(mgl32.Ident4()) {
		t.Error("untracked hand keeps the identity pose")
	}
}

func TestPredictor_SampleError(t *testing.T) {
	boom := errors.New("sensor lost")
	_, err := NewPredictor(fixedSource{err: boom}).FrameInfo(context.Background(), 1)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped sensor error, got %v", err)
	}
}

func TestExtrapolate_Rotation(t *testing.T) {
	// Quarter turn per second around Y for one second.
	got := Extrapolate(mgl32.Ident4(), mgl32.Vec3{}, mgl32.Vec3{0, mgl32.DegToRad(90), 0}, time.Second)
	want := mgl32.HomogRotate3DY(mgl32.DegToRad(90))
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestOrbitSource_Deterministic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(500 * time.Millisecond)
	src := &OrbitSource{Start: start, Rate: 1, Clock: func() time.Time { return now }}

	a, err := src.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	b, _ := src.Sample(context.Background())
	if !a.Head.ApproxEqual(b.Head) {
		t.Error("same clock must give the same pose")
	}
	if !a.Head.ApproxEqualThreshold(mgl32.HomogRotate3DY(0.5), 1e-6) {
		t.Errorf("unexpected head pose %v", a.Head)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Sample(ctx); err == nil {
		t.Error("expected error on cancelled context")
	}
}

func TestSurface_ViewportForSourceSize(t *testing.T) {
	tests := []struct {
		name    string
		surface Surface
		srcW    int
		srcH    int
		want    mgl32.Vec4
	}{
		{"same aspect", Surface{Width: 1280, Height: 720, PixelRatio: 1}, 1920, 1080, mgl32.Vec4{0, 0, 1280, 720}},
		{"pillarbox", Surface{Width: 1600, Height: 800, PixelRatio: 1}, 800, 800, mgl32.Vec4{400, 0, 800, 800}},
		{"letterbox", Surface{Width: 800, Height: 800, PixelRatio: 1}, 1600, 800, mgl32.Vec4{0, 200, 800, 400}},
		{"pixel ratio", Surface{Width: 400, Height: 400, PixelRatio: 2}, 200, 100, mgl32.Vec4{0, 200, 800, 400}},
		{"empty source", Surface{Width: 400, Height: 400, PixelRatio: 1}, 0, 100, mgl32.Vec4{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.surface.ViewportForSourceSize(tc.srcW, tc.srcH)
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSurface_Sizes(t *testing.T) {
	s := Surface{Width: 640, Height: 360, PixelRatio: 1.5}
	if w, h := s.PixelSize(); w != 960 || h != 540 {
		t.Errorf("PixelSize = %dx%d", w, h)
	}
	if w, h := s.RecommendedUISize(); w != 640 || h != 360 {
		t.Errorf("RecommendedUISize = %dx%d", w, h)
	}
	if w, h := (Surface{Width: 10, Height: 10}).PixelSize(); w != 10 || h != 10 {
		t.Errorf("zero ratio should count as 1, got %dx%d", w, h)
	}
}

func TestNewStereo(t *testing.T) {
	st := NewStereo(mgl32.DegToRad(90), 2000, 1000, DefaultIPD)
	left := st.EyeOffsets[0].Col(3).Vec3()
	right := st.EyeOffsets[1].Col(3).Vec3()
	if d := right.Sub(left).Len(); d < DefaultIPD-1e-6 || d > DefaultIPD+1e-6 {
		t.Errorf("eye separation = %v", d)
	}
	if !st.Projections[0].ApproxEqual(st.Projections[1]) {
		t.Error("symmetric projections expected")
	}
}

func TestPresenter_Present(t *testing.T) {
	rec := gpu.NewRecorder()
	fb, _ := rec.NewFramebuffer("primary", 320, 240, gpu.FormatSRGBA8)
	p := NewPresenter(rec)
	rec.Reset()

	if err := p.Present(rec, fb, Surface{Width: 320, Height: 240, PixelRatio: 1}); err != nil {
		t.Fatalf("Present: %v", err)
	}
	want := []gpu.Op{
		gpu.OpNewPipeline,
		gpu.OpEnableStereo,
		gpu.OpResetView,
		gpu.OpSetViewport,
		gpu.OpSetScissor,
		gpu.OpSetResourceTexture,
		gpu.OpSetPipeline,
		gpu.OpDraw,
	}
	var got []gpu.Op
	for _, c := range rec.Commands() {
		got = append(got, c.Op)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("present sequence (-want +got):\n%s", diff)
	}

	rec.Reset()
	_ = p.Present(rec, fb, Surface{Width: 320, Height: 240, PixelRatio: 1})
	if rec.Count(gpu.OpNewPipeline) != 0 {
		t.Error("present pipeline must be reused")
	}
	if p.Presents() != 2 {
		t.Errorf("Presents() = %d", p.Presents())
	}
}

func TestPresenter_SoftFailures(t *testing.T) {
	rec := gpu.NewRecorder()
	p := NewPresenter(rec)

	err := p.Present(rec, nil, Surface{Width: 1, Height: 1})
	if !fgerrors.IsCode(err, fgerrors.ErrCodeResourceMissing) {
		t.Fatalf("expected RESOURCE_MISSING for nil framebuffer, got %v", err)
	}

	fb, _ := rec.NewFramebuffer("primary", 1, 1, gpu.FormatRGBA8)
	rec.FailOn(gpu.OpNewPipeline, errors.New("no shader"))
	rec.Reset()
	err = p.Present(rec, fb, Surface{Width: 1, Height: 1})
	if !fgerrors.IsCode(err, fgerrors.ErrCodeResourceMissing) {
		t.Fatalf("expected RESOURCE_MISSING without pipeline, got %v", err)
	}
	if rec.Count(gpu.OpDraw) != 0 {
		t.Error("a failed present must not draw")
	}
}
