package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/scene"
)

const fovY = 60

// renderLoop renders the pipeline at a fixed rate against a recorder,
// reading poses captured by the pose producer.
type renderLoop struct {
	pipeline *render.Pipeline
	rec      *gpu.Recorder
	scene    *scene.Static
	poses    *display.FrameState
	cfg      config.RenderConfig
	log      *logger.Logger

	rendered int
	failed   int
	last     *render.FrameResult
}

// Run renders until cfg.Frames frames are done or ctx is cancelled.
func (l *renderLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(l.cfg.FrameRate))
	defer ticker.Stop()

	for {
		if err := l.frame(ctx); err != nil {
			return err
		}
		if l.cfg.Frames > 0 && l.rendered >= l.cfg.Frames {
			l.log.Info("render finished", logger.Fields(
				"frames", l.rendered,
				"framesWithFailures", l.failed,
			))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *renderLoop) frame(ctx context.Context) error {
	l.rec.Reset()
	args := l.args()
	res, err := l.pipeline.RenderFrame(ctx, args)
	if err != nil {
		return err
	}
	l.rendered++
	l.last = res
	if len(res.Failed()) > 0 {
		l.failed++
	}

	// Late latch: present with the newest pose captured while rendering.
	if latest, ok := l.poses.Latest(); ok && latest.FrameIndex != args.Frame.FrameIndex {
		l.poses.UpdatePresentPose(args.Frame.FrameIndex, latest.RenderPose)
	}
	return nil
}

// args builds the per-frame inputs. The view is the inverse of the latest
// head pose; before the first pose arrives the head sits at the origin.
func (l *renderLoop) args() render.Args {
	surface := display.Surface{Width: l.cfg.Width, Height: l.cfg.Height, PixelRatio: l.cfg.PixelRatio}
	w, h := surface.PixelSize()

	info, ok := l.poses.Latest()
	if !ok {
		info = display.NewFrameInfo(0)
	}

	args := render.Args{
		Batch:      l.rec,
		Device:     l.rec,
		Scene:      l.scene,
		Surface:    surface,
		Viewport:   mgl32.Vec4{0, 0, float32(w), float32(h)},
		Stereo:     l.cfg.Stereo,
		View:       info.RenderPose.Inv(),
		Projection: mgl32.Perspective(mgl32.DegToRad(fovY), float32(w)/float32(h), 0.1, 1000),
		Frame:      info,
	}
	if l.cfg.Stereo {
		args.Eyes = display.NewStereo(mgl32.DegToRad(fovY), w, h, display.DefaultIPD)
	}
	return args
}

// producePoses samples the predictor at rate Hz and captures each
// prediction for the render loop.
func producePoses(ctx context.Context, predictor *display.Predictor, state *display.FrameState, rate int) error {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	var index uint64
	for {
		index++
		info, err := predictor.FrameInfo(ctx, index)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		state.Capture(info)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
