package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/framegraph/bootstrap"
	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/debugserver"
	"github.com/kbukum/framegraph/display"
	"github.com/kbukum/framegraph/forward"
	"github.com/kbukum/framegraph/gpu"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/observability"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/util"
)

var runFlags struct {
	frames     int
	profile    string
	set        []string
	stereo     bool
	debug      bool
	debugAddr  string
	crates     int
	cursorSize int
	dump       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Render frames headlessly against the recording backend",
	Long: `Builds the configured pipeline, applies the override profile and --set
overrides, then renders at render.frame_rate until --frames frames are done
or the process is interrupted.

  framegraph run --frames=120 --set Forward.Draw.maxDrawn=8
  framegraph run --profile=low --debug --debug-addr=127.0.0.1:8089

With --debug the configuration tree is served over HTTP while rendering;
changes take effect on the next frame.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.frames, "frames", -1, "Frames to render, 0 renders until interrupted (default: render.frames)")
	f.StringVar(&runFlags.profile, "profile", "", "Override profile loaded from render.profile_dir")
	f.StringArrayVar(&runFlags.set, "set", nil, "Override as path=value, applied after the profile (repeatable)")
	f.BoolVar(&runFlags.stereo, "stereo", false, "Render side-by-side stereo")
	f.BoolVar(&runFlags.debug, "debug", false, "Serve the configuration tree over HTTP")
	f.StringVar(&runFlags.debugAddr, "debug-addr", "", "Debug server address (default: debug.addr)")
	f.IntVar(&runFlags.crates, "crates", 12, "Opaque items in the demo scene")
	f.IntVar(&runFlags.cursorSize, "cursor-size", 32, "Edge of the pointer cursor texture; 0 disables the pointer")
	f.BoolVar(&runFlags.dump, "dump", false, "Print the last frame's command log")
}

// applyRunFlags layers explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, cfg *config.AppConfig) {
	flags := cmd.Flags()
	if flags.Changed("frames") {
		cfg.Render.Frames = runFlags.frames
	}
	if runFlags.profile != "" {
		cfg.Render.Profile = runFlags.profile
	}
	cfg.Render.Set = append(cfg.Render.Set, runFlags.set...)
	if flags.Changed("stereo") {
		cfg.Render.Stereo = runFlags.stereo
	}
	if flags.Changed("debug") {
		cfg.Debug.Enabled = runFlags.debug
	}
	if runFlags.debugAddr != "" {
		cfg.Debug.Addr = runFlags.debugAddr
		cfg.Debug.Enabled = true
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	log := app.Logger

	var opts []render.Option
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.Setup(cmd.Context(), observability.Settings{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
		})
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		app.OnStop(bootstrap.Hook(shutdown))

		metrics, err := observability.NewMetrics(observability.Meter(appName))
		if err != nil {
			return fmt.Errorf("telemetry metrics: %w", err)
		}
		opts = append(opts, render.WithMetrics(metrics), render.WithTracing())
		app.Summary.Track(bootstrap.SectionServices, "telemetry", cfg.Telemetry.Endpoint)
	}

	pointer := forward.NewCompositePointer()
	pipeline, err := buildPipeline(cfg.Render, pointer, opts...)
	if err != nil {
		return err
	}

	world := demoScene(runFlags.crates)
	if err := render.Feed(pipeline, forward.SelectInputs(world)); err != nil {
		return err
	}
	trackRender(app.Summary, cfg.Render, pipeline)

	poses := display.NewFrameState(8)
	loop := &renderLoop{
		pipeline: pipeline,
		rec:      gpu.NewRecorder(),
		scene:    world,
		poses:    poses,
		cfg:      cfg.Render,
		log:      logger.Get("loop"),
	}

	predictor := display.NewPredictor(display.NewOrbitSource(0.5))
	app.Go("poses", func(ctx context.Context) error {
		return producePoses(ctx, predictor, poses, cfg.Render.FrameRate)
	})
	if runFlags.cursorSize > 0 {
		app.Go("cursor", func(ctx context.Context) error {
			return loadCursor(ctx, pipeline.Mailbox(), pointer, runFlags.cursorSize)
		})
	}
	if cfg.Debug.Enabled {
		dcfg := cfg.Debug.Config
		srv := debugserver.New(dcfg, pipeline, cfg.Version, log)
		app.Go("debugserver", srv.Run)
		trackDebug(app.Summary, dcfg)
	}

	err = app.RunTask(cmd.Context(), loop.Run)
	if runFlags.dump {
		fmt.Fprint(cmd.OutOrStdout(), loop.rec.Dump())
	}
	return err
}

// loadCursor stands in for an asynchronous texture decode: the texture is
// created by the render thread on the frame after the decode finishes.
func loadCursor(ctx context.Context, mailbox *render.Mailbox, pointer *forward.CompositePointer, size int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}
	mailbox.Post(pointer.LoadCursor(size))
	return nil
}

func trackRender(s *bootstrap.Summary, rc config.RenderConfig, p *render.Pipeline) {
	s.Track(bootstrap.SectionRender, "pipeline", p.Name()+" ("+strconv.Itoa(len(p.Config().Paths()))+" nodes)")
	s.Track(bootstrap.SectionRender, "surface", fmt.Sprintf("%dx%d @%gx", rc.Width, rc.Height, rc.PixelRatio))
	frames := "until interrupted"
	if rc.Frames > 0 {
		frames = strconv.Itoa(rc.Frames)
	}
	s.Track(bootstrap.SectionRender, "frames", fmt.Sprintf("%s at %d Hz", frames, rc.FrameRate))
	if rc.Stereo {
		s.Track(bootstrap.SectionRender, "stereo", "")
	}
	if rc.Profile != "" {
		s.Track(bootstrap.SectionRender, "profile", rc.Profile)
	}
	if len(rc.Set) > 0 {
		s.Track(bootstrap.SectionRender, "overrides", strconv.Itoa(len(rc.Set)))
	}
}

func trackDebug(s *bootstrap.Summary, dc debugserver.Config) {
	scheme := "http://"
	if dc.TLS.Enabled() {
		scheme = "https://"
	}
	s.Track(bootstrap.SectionDebug, "addr", scheme+dc.Addr)
	s.Track(bootstrap.SectionDebug, "events", scheme+dc.Addr+"/events")
	if dc.TLS.ClientCAFile != "" {
		s.Track(bootstrap.SectionDebug, "client certs", "required")
	}
	if dc.JWTSecret != "" {
		s.Track(bootstrap.SectionDebug, "auth", "bearer HS256, secret "+util.MaskSecret(dc.JWTSecret, 4))
	} else {
		s.Track(bootstrap.SectionDebug, "auth", "none")
	}
}
