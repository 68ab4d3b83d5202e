package debugserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/framegraph/debugserver/middleware"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/security"
	"github.com/kbukum/framegraph/sse"
)

// Server is the gin-backed debug HTTP server. It speaks HTTP/1.1 and
// cleartext HTTP/2.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	handler    http.Handler
	hub        *sse.Hub
	tls        security.TLSConfig
	log        *logger.Logger
	listener   net.Listener
}

// New creates a server for p and subscribes it to p's frames and config
// changes, so it must be called before rendering starts. cfg defaults are
// applied by the caller.
func New(cfg Config, p Pipeline, version string, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.WithComponent("debugserver")

	engine := gin.New()
	api := NewAPI(p, "framegraph", version)

	chain := []middleware.Middleware{
		middleware.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.CORS(cfg.CORS),
		middleware.BodySizeLimit(cfg.MaxBodySize),
		middleware.RequestLogger(log),
	}
	if cfg.JWTSecret != "" {
		chain = append(chain, middleware.Auth(NewTokens(cfg.JWTSecret).Validator(), "/health"))
		api.secured = true
	}
	api.Register(engine)

	hub := sse.NewHub(log)
	publishEvents(p, hub, time.Duration(cfg.FrameEvents)*time.Millisecond, log)
	engine.GET("/events", events(hub))

	h2s := &http2.Server{
		MaxConcurrentStreams: 64,
		IdleTimeout:          time.Duration(cfg.IdleTimeout) * time.Second,
	}
	handler := h2c.NewHandler(middleware.Chain(chain...)(engine), h2s)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
		},
		engine:  engine,
		handler: handler,
		hub:     hub,
		tls:     cfg.TLS,
		log:     log,
	}
}

// Handler returns the full handler, middleware included.
func (s *Server) Handler() http.Handler { return s.handler }

// Engine returns the gin engine for extra routes.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Start binds the listener and serves in the background. It returns once
// the port is bound. With TLS configured the server speaks HTTPS and h2.
func (s *Server) Start(_ context.Context) error {
	tlsCfg, err := s.tls.Build()
	if err != nil {
		return fmt.Errorf("debugserver: %w", err)
	}
	s.httpServer.TLSConfig = tlsCfg

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("debugserver: bind %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	s.log.Info("debug server listening", logger.Fields("addr", ln.Addr().String(), "tls", tlsCfg != nil))

	go func() {
		var err error
		if tlsCfg != nil {
			err = s.httpServer.ServeTLS(ln, "", "")
		} else {
			err = s.httpServer.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			s.log.Error("debug server error", logger.ErrorFields("serve", err))
		}
	}()
	return nil
}

// Hub returns the event hub behind /events.
func (s *Server) Hub() *sse.Hub { return s.hub }

// Stop shuts the server down, waiting at most five seconds for requests.
// Open event streams are closed first.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Stop()
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("debugserver: shutdown: %w", err)
	}
	s.log.Info("debug server stopped")
	return nil
}

// Run serves and delivers events until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	go s.hub.Run(ctx)
	<-ctx.Done()
	return s.Stop(context.WithoutCancel(ctx))
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
