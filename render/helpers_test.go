package render

import (
	"context"
	"testing"

	"github.com/kbukum/framegraph/logger"
)

// --- test helpers ---

type callLog struct {
	calls []string
}

func (l *callLog) add(name string) { l.calls = append(l.calls, name) }

// frameCounter writes the frame index.
func frameCounter(log *callLog, name string) OutputFunc[int] {
	return func(rc *Context, out *int) error {
		log.add(name)
		*out = int(rc.Args.FrameIndex)
		return nil
	}
}

func doubler(log *callLog, name string) IOFunc[int, int] {
	return func(rc *Context, in int, out *int) error {
		log.add(name)
		*out = in * 2
		return nil
	}
}

func collector(log *callLog, name string, seen *[]int) InputFunc[int] {
	return func(rc *Context, in int) error {
		log.add(name)
		*seen = append(*seen, in)
		return nil
	}
}

func mustBuild(t *testing.T, b *Builder) *Task {
	t.Helper()
	task, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return task
}

func mustPipeline(t *testing.T, task *Task, opts ...Option) *Pipeline {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewNop())}, opts...)
	p, err := NewPipeline(task, opts...)
	if err != nil {
		t.Fatalf("NewPipeline() error: %v", err)
	}
	return p
}

func renderFrames(t *testing.T, p *Pipeline, n int) []*FrameResult {
	t.Helper()
	out := make([]*FrameResult, 0, n)
	for i := 0; i < n; i++ {
		res, err := p.RenderFrame(context.Background(), Args{})
		if err != nil {
			t.Fatalf("RenderFrame() error: %v", err)
		}
		out = append(out, res)
	}
	return out
}

// chain builds A -> B -> C where A counts frames, B doubles and C collects.
func chain(t *testing.T, log *callLog, seen *[]int, opts ...JobOption) *Task {
	t.Helper()
	b := NewBuilder("Chain")
	a := AddJobO[int](b, "A", frameCounter(log, "A"), opts...)
	d := AddJobIO[int, int](b, "B", doubler(log, "B"), a)
	AddJobI[int](b, "C", collector(log, "C", seen), d)
	return mustBuild(t, b)
}
