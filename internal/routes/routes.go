package routes

import (
	"io"
	"os"
	"strings"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"gelift/internal/controllers"
	"gelift/internal/metrics"
)

type Options struct {
	// AccessLog receives one line per request. Nil means stdout.
	AccessLog io.Writer
	Metrics   *metrics.Metrics
	// MediaRoot is served under MediaURL when pictures are kept on disk.
	MediaRoot string
	MediaURL  string
}

func SetupRouter(ctl *controllers.Controller, opts Options) *gin.Engine {
	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Request logging middleware
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}
	r.Use(ginlog.SetLogger(
		ginlog.WithWriter(accessLog),
		ginlog.WithSkipPath([]string{"/metrics"}),
		ginlog.WithUTC(true),
	))

	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	if opts.MediaRoot != "" && strings.HasPrefix(opts.MediaURL, "/") {
		r.Static(strings.TrimRight(opts.MediaURL, "/"), opts.MediaRoot)
	}

	AuthRoutes(r, ctl)
	TeamRoutes(r, ctl)
	AdminRoutes(r, ctl)
	PublicRoutes(r, ctl)
	WebSocketRoutes(r, ctl)

	return r
}
