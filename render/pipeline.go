package render

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/observability"
)

// Pipeline owns a built root task and everything needed to render it
// frame after frame. RenderFrame and Feed must be called from one
// goroutine; Config, Mailbox and LastResult may be used from any.
type Pipeline struct {
	id      uuid.UUID
	name    string
	root    *Task
	config  *ConfigTree
	engine  *Engine
	rc      *Context
	mailbox *Mailbox
	log     *logger.Logger
	frame   uint64

	mu   sync.RWMutex
	last *FrameResult
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger replaces the pipeline logger.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithObserver adds an engine observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.engine.Observe(o) }
}

// WithMetrics records frame, job and configuration-change instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) {
		p.engine.Observe(NewMetricsObserver(m, p.name))
		p.config.OnChange(func(path, source string) {
			m.RecordConfigChange(context.Background(), path, source)
		})
	}
}

// WithTracing opens spans for frames and nodes.
func WithTracing() Option {
	return func(p *Pipeline) { p.engine.Observe(NewTracingObserver(p.name)) }
}

// NewPipeline takes ownership of root, which must be a built task not
// nested in another task or already rooting a pipeline.
func NewPipeline(root *Task, opts ...Option) (*Pipeline, error) {
	if root == nil {
		return nil, errors.InvalidGraph("", "nil root task")
	}
	if root.owner != nil || root.attached {
		return nil, errors.AlreadyBuilt(root.name)
	}
	root.attached = true

	p := &Pipeline{
		id:      uuid.New(),
		name:    strings.ToLower(root.name),
		root:    root,
		config:  NewConfigTree(root),
		engine:  NewEngine(),
		rc:      NewContext(),
		mailbox: NewMailbox(),
		log:     logger.Get("render"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithFields(logger.Fields(logger.FieldPipeline, p.name))
	p.engine.observers = append([]Observer{NewLoggingObserver(p.log, p.name)}, p.engine.observers...)
	p.config.OnChange(func(path, source string) {
		p.log.Info("configuration changed", logger.Fields(logger.FieldPath, path, "source", source))
	})
	return p, nil
}

// ID identifies this pipeline instance.
func (p *Pipeline) ID() uuid.UUID { return p.id }

// Name is the lower-cased root task name.
func (p *Pipeline) Name() string { return p.name }

// Root returns the root task.
func (p *Pipeline) Root() *Task { return p.root }

// Config returns the live configuration tree.
func (p *Pipeline) Config() *ConfigTree { return p.config }

// Mailbox returns the completion queue drained at the start of every frame.
func (p *Pipeline) Mailbox() *Mailbox { return p.mailbox }

// Observe adds an engine observer. Call it before the first frame.
func (p *Pipeline) Observe(o Observer) { p.engine.Observe(o) }

// Frame returns the index of the last rendered frame.
func (p *Pipeline) Frame() uint64 { return p.frame }

// Feed sets the root task input for the next frame.
func Feed[T any](p *Pipeline, value T) error {
	if p.root.input == nil {
		return errors.InvalidGraph(p.root.name, "pipeline has no input")
	}
	return Set(Varying{c: p.root.input}, value)
}

// RootOutput reads the designated output of the root task.
func RootOutput[T any](p *Pipeline) (T, error) {
	if p.root.output == nil {
		var zero T
		return zero, errors.InvalidGraph(p.root.name, "pipeline has no output")
	}
	return Get[T](Varying{c: p.root.output})
}

// RenderFrame renders one frame. The frame index in args is replaced by the
// pipeline's own counter, which starts at 1. Job failures do not fail the
// frame; they are reported in the result.
func (p *Pipeline) RenderFrame(ctx context.Context, args Args) (*FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.frame++
	args.FrameIndex = p.frame
	p.rc.reset(ctx, args)

	if n := p.mailbox.Drain(p.rc); n > 0 {
		p.log.Debug("drained completions", logger.Fields(logger.FieldFrame, p.frame, "count", n))
	}
	res := p.engine.Run(p.rc, p.root)

	p.mu.Lock()
	p.last = res
	p.mu.Unlock()
	return res, nil
}

// LastResult returns the result of the most recent frame.
func (p *Pipeline) LastResult() (*FrameResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.last, p.last != nil
}

// CheckHealth reports degraded while the latest frame had failed jobs.
func (p *Pipeline) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{Name: p.name, Status: observability.HealthStatusUp}
	last, ok := p.LastResult()
	if !ok {
		h.Message = "no frame rendered yet"
		return h
	}
	failed := last.Failed()
	if len(failed) == 0 {
		return h
	}
	h.Status = observability.HealthStatusDegraded
	h.Message = "jobs failed in the latest frame"
	h.Details = make(map[string]string, len(failed))
	for _, f := range failed {
		h.Details[f.Path] = f.Err.Error()
	}
	return h
}
