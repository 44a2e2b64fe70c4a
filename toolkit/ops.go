package toolkit

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/wisp/internal/logging"
	"github.com/danmuck/wisp/internal/observability"
)

// opsServer is the optional local introspection endpoint of a running
// toolkit daemon: health, registered actions, prometheus metrics.
type opsServer struct {
	svc    *Service
	engine *gin.Engine
	http   *http.Server
}

func newOpsServer(svc *Service, addr string, corsOrigins []string) *opsServer {
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(svc.cfg.Toolkit))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"toolkit": svc.cfg.Toolkit,
			"uptime":  svc.Uptime().String(),
			"session": svc.SessionState().String(),
			"actions": svc.registry.Len(),
		})
	})

	r.GET("/actions", func(c *gin.Context) {
		defs, err := svc.registry.Definitions(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"actions": defs})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &opsServer{
		svc:    svc,
		engine: r,
		http:   &http.Server{Addr: addr, Handler: r},
	}
}

// run serves until ctx is canceled, then shuts down cleanly.
func (o *opsServer) run(ctx context.Context) {
	logging.Infof("toolkit.opsServer.run toolkit=%q addr=%q", o.svc.cfg.Toolkit, o.http.Addr)
	errCh := make(chan error, 1)
	go func() { errCh <- o.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.http.Shutdown(shutdownCtx); err != nil {
			logging.Warnf("toolkit.opsServer.run shutdown toolkit=%q err=%v", o.svc.cfg.Toolkit, err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Errf("toolkit.opsServer.run toolkit=%q addr=%q err=%v", o.svc.cfg.Toolkit, o.http.Addr, err)
		}
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
