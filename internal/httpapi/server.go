// Package httpapi exposes the twin as a JSON chat endpoint.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"digitaltwin/internal/logger"
	"digitaltwin/internal/retriever"
	"digitaltwin/internal/service"
)

// Twin is what the handlers need from *service.Twin.
type Twin interface {
	Ask(ctx context.Context, question string) (service.Answer, error)
	State() service.State
	Mode() retriever.Mode
}

// Options configures the router.
type Options struct {
	Mode       string
	RatePerSec float64
	Burst      int
}

// NewRouter builds the gin engine with logging, recovery and rate limiting.
func NewRouter(twin Twin, opts Options) *gin.Engine {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	h := NewChatHandler(twin)
	r.GET("/healthz", h.Health)
	api := r.Group("/api")
	api.Use(RateLimit(opts.RatePerSec, opts.Burst))
	{
		api.GET("/chat", h.Usage)
		api.POST("/chat", h.Chat)
	}
	return r
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http api listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
