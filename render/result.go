package render

import "time"

// Status is the outcome of one node visit.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// NodeResult holds the outcome of a single node in one frame.
type NodeResult struct {
	Path     string
	Kind     NodeKind
	Status   Status
	Duration time.Duration
	Err      error
}

// FrameResult holds the outcome of one frame. Nodes are listed in
// execution order, a task before its children.
type FrameResult struct {
	Frame    uint64
	Nodes    []NodeResult
	Duration time.Duration
	Stats    Stats
}

// Node returns the result for path.
func (r *FrameResult) Node(path string) (NodeResult, bool) {
	for _, n := range r.Nodes {
		if n.Path == path {
			return n, true
		}
	}
	return NodeResult{}, false
}

// Failed returns the nodes that failed this frame.
func (r *FrameResult) Failed() []NodeResult {
	var out []NodeResult
	for _, n := range r.Nodes {
		if n.Status == StatusFailed {
			out = append(out, n)
		}
	}
	return out
}

// Count returns how many nodes ended with status.
func (r *FrameResult) Count(status Status) int {
	c := 0
	for _, n := range r.Nodes {
		if n.Status == status {
			c++
		}
	}
	return c
}

// Paths returns the node paths in execution order.
func (r *FrameResult) Paths() []string {
	out := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i] = n.Path
	}
	return out
}
