package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/framegraph/config"
	"github.com/kbukum/framegraph/logger"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	cfg := &config.AppConfig{Name: "framegraph-test", Version: "1.0.0"}
	opts = append([]Option{WithLogger(logger.NewNop()), WithSummaryWriter(io.Discard)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "framegraph-test" {
		t.Errorf("expected name 'framegraph-test', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Cfg.Render.Pipeline != "forward" {
		t.Errorf("expected defaults applied, got pipeline %q", app.Cfg.Render.Pipeline)
	}
	if app.gracefulTimeout != 10*time.Second {
		t.Errorf("expected default 10s timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &config.AppConfig{Environment: "qa"}
	if _, err := NewApp(cfg, WithLogger(logger.NewNop())); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
}

func TestRunTaskSuccess(t *testing.T) {
	app := newTestApp(t)
	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !ran {
		t.Error("expected task to run")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	want := errors.New("device lost")
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := app.RunTask(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("expected a cancelled task to shut down cleanly, got %v", err)
	}
}

func TestRunTaskWithoutSignals(t *testing.T) {
	app := newTestApp(t, WithSignals())
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
}

func TestRunTaskStopsServices(t *testing.T) {
	app := newTestApp(t)
	var stopped atomic.Bool
	app.Go("debug", func(ctx context.Context) error {
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if !stopped.Load() {
		t.Error("expected service to be stopped when the task returned")
	}
}

func TestRunTaskServiceFailureCancelsTask(t *testing.T) {
	app := newTestApp(t)
	app.Go("debug", func(ctx context.Context) error {
		return errors.New("address in use")
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if err == nil || !strings.Contains(err.Error(), "service debug: address in use") {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestRunTaskHooks(t *testing.T) {
	app := newTestApp(t)
	var order []string
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if strings.Join(order, ",") != "start,task,stop" {
		t.Errorf("unexpected hook order: %v", order)
	}
}

func TestRunTaskStartHookError(t *testing.T) {
	app := newTestApp(t)
	app.OnStart(func(ctx context.Context) error { return errors.New("telemetry down") })
	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected start hook error")
	}
	if ran {
		t.Error("task must not run after a failed start hook")
	}
}

func TestRunTaskStopHookErrors(t *testing.T) {
	app := newTestApp(t)
	calls := 0
	app.OnStop(
		func(ctx context.Context) error { calls++; return errors.New("flush failed") },
		func(ctx context.Context) error { calls++; return nil },
	)

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil || !strings.Contains(err.Error(), "flush failed") {
		t.Fatalf("expected stop hook error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected every stop hook to run, got %d", calls)
	}

	// A task error wins over a stop hook error.
	app = newTestApp(t)
	app.OnStop(func(ctx context.Context) error { return errors.New("flush failed") })
	want := errors.New("render failed")
	if err := app.RunTask(context.Background(), func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected task error, got %v", err)
	}
}

func TestSummaryWrite(t *testing.T) {
	s := NewSummary("framegraph", "")
	s.SetStartupDuration(1500 * time.Millisecond)
	s.Track(SectionDebug, "addr", "127.0.0.1:8089")
	s.Track(SectionRender, "pipeline", "forward")
	s.Track(SectionRender, "stereo", "")

	var buf bytes.Buffer
	s.Write(&buf)
	out := buf.String()

	for _, want := range []string{
		"framegraph dev started in 1.50s",
		"├── pipeline: forward",
		"└── stereo\n",
		"└── addr: 127.0.0.1:8089",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
	if strings.Index(out, SectionRender) > strings.Index(out, SectionDebug) {
		t.Error("expected render section before debug section")
	}
	if strings.Contains(out, SectionServices) {
		t.Error("empty sections must be omitted")
	}
}

func TestGoTracksService(t *testing.T) {
	app := newTestApp(t)
	app.Go("debug", func(ctx context.Context) error { return nil })
	var buf bytes.Buffer
	app.Summary.Write(&buf)
	if !strings.Contains(buf.String(), "debug: running") {
		t.Errorf("expected service in summary, got:\n%s", buf.String())
	}
}
