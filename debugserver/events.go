package debugserver

import (
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/framegraph/debugserver/middleware"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/sse"
)

// ConfigEvent is the payload of a config event.
type ConfigEvent struct {
	Path   string              `json:"path"`
	Source string              `json:"source"`
	Node   render.NodeSnapshot `json:"node"`
}

// frameEvents publishes finished frames, at most one per interval.
type frameEvents struct {
	render.NopObserver
	pub      sse.Publisher
	name     string
	interval time.Duration
	last     atomic.Int64
}

func (o *frameEvents) FrameFinished(_ *render.Context, r *render.FrameResult) {
	now := time.Now().UnixNano()
	if prev := o.last.Load(); prev != 0 && now-prev < int64(o.interval) {
		return
	}
	o.last.Store(now)
	data, err := json.Marshal(frameView(o.name, r))
	if err != nil {
		return
	}
	o.pub.Publish(sse.Event{Type: sse.EventFrame, Data: data})
}

// publishEvents forwards frames and accepted config changes of p to pub.
func publishEvents(p Pipeline, pub sse.Publisher, interval time.Duration, log *logger.Logger) {
	p.Observe(&frameEvents{pub: pub, name: p.Name(), interval: interval})

	tree := p.Config()
	tree.OnChange(func(path, source string) {
		node, err := tree.SnapshotOf(path)
		if err != nil {
			log.Warn("config event dropped", logger.ErrorFields("snapshot", err))
			return
		}
		data, err := json.Marshal(ConfigEvent{Path: path, Source: source, Node: node})
		if err != nil {
			return
		}
		pub.Publish(sse.Event{Type: sse.EventConfig, Data: data})
	})
}

// events streams hub events. ?types= is a glob over event types.
func events(hub *sse.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(middleware.HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		sse.Serve(hub, c.Writer, c.Request, id, c.DefaultQuery("types", "*"))
	}
}
