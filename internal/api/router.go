package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// requestLogger logs every request with zap in place of gin's default
// writer.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// NewRouter wires the API routes, the event stream and the static
// files under webDir. events may be nil to disable the websocket.
func NewRouter(h *Handler, events http.HandlerFunc, webDir string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	api := r.Group("/api")
	api.GET("/conversations", h.GetConversations)
	api.PUT("/search", h.SetSearch)
	api.GET("/users", h.SearchUsers)
	api.POST("/navigate", h.Navigate)
	api.POST("/back", h.Back)
	api.GET("/thread", h.GetThread)
	api.PUT("/draft", h.UpdateDraft)
	api.POST("/draft/submit", h.SubmitDraft)
	api.POST("/draft/suggest", h.SuggestDraft)
	api.POST("/toggles/:name", h.Toggle)
	api.GET("/affordances", h.GetAffordances)
	api.GET("/messages/search", h.SearchMessages)
	if events != nil {
		api.GET("/events", gin.WrapF(events))
	}

	if webDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(webDir))))
	}
	return r
}
