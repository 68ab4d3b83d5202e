package render

import (
	"time"

	"github.com/kbukum/framegraph/errors"
)

// Engine walks a task tree once per frame on the calling goroutine.
type Engine struct {
	observers []Observer
}

// NewEngine creates an engine notifying observers in order.
func NewEngine(observers ...Observer) *Engine {
	return &Engine{observers: observers}
}

// Observe adds an observer. Not safe while a frame is running.
func (e *Engine) Observe(o Observer) {
	e.observers = append(e.observers, o)
}

// Run executes root once. Nodes run strictly in declaration order; a
// disabled node is skipped together with its subtree, and a failing or
// panicking job only affects its own outputs.
func (e *Engine) Run(rc *Context, root *Task) *FrameResult {
	if root.cfg == nil {
		NewConfigTree(root)
	}
	start := time.Now()
	res := &FrameResult{Frame: rc.Args.FrameIndex, Nodes: make([]NodeResult, 0, 16)}
	for _, o := range e.observers {
		o.FrameStarted(rc)
	}

	e.runNode(rc, root, res)

	res.Duration = time.Since(start)
	rc.Stats.Duration = res.Duration
	res.Stats = rc.Stats.clone()
	for _, o := range e.observers {
		o.FrameFinished(rc, res)
	}
	return res
}

func (e *Engine) runNode(rc *Context, n Node, res *FrameResult) {
	if !n.base().cfg.Enabled() {
		e.skip(rc, n, res)
		return
	}
	switch node := n.(type) {
	case *Job:
		e.runJob(rc, node, res)
	case *Task:
		e.runTask(rc, node, res)
	}
}

func (e *Engine) skip(rc *Context, n Node, res *FrameResult) {
	switch node := n.(type) {
	case *Job:
		node.skipOutputs()
		rc.Stats.JobsSkipped++
	case *Task:
		for _, j := range node.jobs() {
			j.skipOutputs()
			rc.Stats.JobsSkipped++
		}
	}
	e.finish(rc, res, NodeResult{Path: n.base().path, Kind: n.Kind(), Status: StatusSkipped})
}

func (e *Engine) runTask(rc *Context, t *Task, res *FrameResult) {
	idx := len(res.Nodes)
	res.Nodes = append(res.Nodes, NodeResult{Path: t.path, Kind: KindTask})
	e.started(rc, t.path)
	start := time.Now()

	t.forward()
	for _, c := range t.children {
		e.runNode(rc, c, res)
	}

	nr := NodeResult{Path: t.path, Kind: KindTask, Status: StatusCompleted, Duration: time.Since(start)}
	res.Nodes[idx] = nr
	for _, o := range e.observers {
		o.NodeFinished(rc, nr)
	}
}

func (e *Engine) runJob(rc *Context, j *Job, res *FrameResult) {
	e.started(rc, j.path)
	start := time.Now()
	err := e.invoke(rc, j)
	nr := NodeResult{Path: j.path, Kind: KindJob, Status: StatusCompleted, Duration: time.Since(start)}
	if err != nil {
		j.skipOutputs()
		nr.Status = StatusFailed
		nr.Err = err
		rc.Stats.JobsFailed++
	} else {
		rc.Stats.JobsRun++
	}
	e.finish(rc, res, nr)
}

// invoke runs one job with its capability set, reconfiguring it first if
// its parameters changed. Panics come back as JOB_PANIC errors.
func (e *Engine) invoke(rc *Context, j *Job) (err error) {
	rc.enter(j.path, j.setup)
	defer rc.leave()
	defer func() {
		if r := recover(); r != nil {
			err = errors.JobPanic(j.path, r)
		}
	}()

	if j.params != nil {
		_, params, version := j.cfg.state()
		if version != j.applied {
			j.params.apply(params)
			j.applied = version
		}
	}
	return j.exec(rc)
}

func (e *Engine) started(rc *Context, path string) {
	for _, o := range e.observers {
		o.NodeStarted(rc, path)
	}
}

func (e *Engine) finish(rc *Context, res *FrameResult, nr NodeResult) {
	res.Nodes = append(res.Nodes, nr)
	for _, o := range e.observers {
		o.NodeFinished(rc, nr)
	}
}

func (j *Job) skipOutputs() {
	for _, c := range j.outputs {
		c.skip()
	}
}
