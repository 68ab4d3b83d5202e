package debugserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/framegraph/debugserver/middleware"
	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/observability"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/validation"
)

// Pipeline is what the debug surface inspects. *render.Pipeline
// implements it.
type Pipeline interface {
	Name() string
	Config() *render.ConfigTree
	LastResult() (*render.FrameResult, bool)
	CheckHealth(ctx context.Context) observability.Health
	Observe(o render.Observer)
}

// NodeView is the JSON form of a render.NodeResult.
type NodeView struct {
	Path       string  `json:"path"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status"`
	DurationMs float64 `json:"durationMs"`
	Code       string  `json:"code,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// FrameView is the JSON form of a render.FrameResult.
type FrameView struct {
	Pipeline   string         `json:"pipeline"`
	Frame      uint64         `json:"frame"`
	DurationMs float64        `json:"durationMs"`
	JobsRun    int            `json:"jobsRun"`
	JobsFailed int            `json:"jobsFailed"`
	Counters   map[string]int `json:"counters,omitempty"`
	Nodes      []NodeView     `json:"nodes"`
}

func millis(d time.Duration) float64 { return float64(d.Microseconds()) / 1000 }

func frameView(name string, r *render.FrameResult) FrameView {
	v := FrameView{
		Pipeline:   name,
		Frame:      r.Frame,
		DurationMs: millis(r.Duration),
		JobsRun:    r.Stats.JobsRun,
		JobsFailed: r.Stats.JobsFailed,
		Counters:   r.Stats.Counters,
		Nodes:      make([]NodeView, 0, len(r.Nodes)),
	}
	for _, n := range r.Nodes {
		nv := NodeView{
			Path:       n.Path,
			Kind:       string(n.Kind),
			Status:     string(n.Status),
			DurationMs: millis(n.Duration),
		}
		if n.Err != nil {
			nv.Code = string(errors.Wrap(n.Err).Code)
			nv.Error = n.Err.Error()
		}
		v.Nodes = append(v.Nodes, nv)
	}
	return v
}

// API serves the routes of one pipeline.
type API struct {
	pipeline Pipeline
	service  string
	version  string
	secured  bool
}

// NewAPI creates the handlers for p.
func NewAPI(p Pipeline, service, version string) *API {
	return &API{pipeline: p, service: service, version: version}
}

// Register mounts the routes on engine.
func (a *API) Register(engine *gin.Engine) {
	engine.GET("/health", a.health)
	engine.GET("/stats", a.stats)
	engine.GET("/config", a.listConfig)
	engine.GET("/config/*path", a.getConfig)
	engine.PATCH("/config/*path", a.requireWrite, a.patchConfig)
	engine.PUT("/config/*path", a.requireWrite, a.putConfig)
}

func (a *API) health(c *gin.Context) {
	h := observability.NewServiceHealth(a.service, a.version).Check(c.Request.Context(), a.pipeline)
	status := http.StatusOK
	if h.Status == observability.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, h)
}

func (a *API) stats(c *gin.Context) {
	last, ok := a.pipeline.LastResult()
	if !ok {
		RespondWithError(c, errors.ResourceMissing("frame result"))
		return
	}
	RespondOK(c, frameView(a.pipeline.Name(), last))
}

func (a *API) listConfig(c *gin.Context) {
	RespondOK(c, a.pipeline.Config().Snapshot())
}

func nodePath(c *gin.Context) string {
	return strings.Trim(c.Param("path"), "/")
}

func (a *API) getConfig(c *gin.Context) {
	path := nodePath(c)
	if path == "" {
		a.listConfig(c)
		return
	}
	if err := validation.ConfigPath("path", path); err != nil {
		RespondWithError(c, err)
		return
	}
	snap, err := a.pipeline.Config().SnapshotOf(path)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, snap)
}

func (a *API) patchConfig(c *gin.Context) {
	path := nodePath(c)
	if err := validation.ConfigPath("path", path); err != nil {
		RespondWithError(c, err)
		return
	}
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		RespondWithError(c, errors.InvalidConfig(path, "body must be a JSON object").WithCause(err))
		return
	}

	ctx, span := observability.StartSpan(c.Request.Context(), observability.SpanConfigApply)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrNodePath, path)

	tree := a.pipeline.Config()
	if err := tree.Apply(path, fields); err != nil {
		observability.SetSpanError(ctx, err)
		RespondWithError(c, err)
		return
	}
	snap, err := tree.SnapshotOf(path)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, snap)
}

type enabledBody struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (a *API) putConfig(c *gin.Context) {
	path, ok := strings.CutSuffix(nodePath(c), "/"+render.EnabledKey)
	if !ok {
		RespondWithError(c, errors.New(errors.ErrCodeInvalidConfig, "only <path>/enabled can be replaced", http.StatusMethodNotAllowed))
		return
	}
	var body enabledBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondWithError(c, errors.InvalidConfig(path, `body must be {"enabled": bool}`).WithCause(err))
		return
	}
	tree := a.pipeline.Config()
	if err := tree.SetEnabled(path, *body.Enabled); err != nil {
		RespondWithError(c, err)
		return
	}
	snap, err := tree.SnapshotOf(path)
	if err != nil {
		RespondWithError(c, err)
		return
	}
	RespondOK(c, snap)
}

// requireWrite checks the write scope when auth is on.
func (a *API) requireWrite(c *gin.Context) {
	if !a.secured {
		c.Next()
		return
	}
	raw, _ := middleware.ClaimsFromContext(c.Request.Context())
	claims, _ := raw.(*Claims)
	if !claims.HasScope(ScopeWrite) {
		subject := ""
		if claims != nil {
			subject = claims.Subject
		}
		RespondWithError(c, errors.NotPermitted(subject, "edit configuration"))
		return
	}
	c.Next()
}
