package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/shopchat-server/internal/config"
	"github.com/vovakirdan/shopchat-server/internal/core"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewServer builds an HTTP server with the websocket endpoint and a few
// introspection routes.
//
// /ws sits on a plain ServeMux in front of gin: gin's response writer marks
// the 101 status as written and then refuses to hijack the connection.
func NewServer(hub Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/api/stats", statsHandler(hub, logger))

	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// statsHandler reports broker counters.
// GET /api/stats
func statsHandler(hub Hub, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := hub.Stats(c.Request.Context())
		if err != nil {
			if errors.Is(err, core.ErrHubStopped) {
				c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: "shutting down"})
				return
			}
			logger.Error().Err(err).Msg("failed to read stats")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		c.JSON(stdhttp.StatusOK, stats)
	}
}
