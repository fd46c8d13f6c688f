package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bz888/oblaka/internal/api"
)

const requestIDHeader = "X-Request-ID"

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(log zerolog.Logger, metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if metrics != nil {
			metrics.RecordRequest(c.FullPath(), c.Request.Method, status)
		}
		log.Info().
			Str("request_id", c.GetString(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// recovery turns a panic into a generic 500 and keeps the server alive.
func recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, err any) {
		log.Error().
			Str("request_id", c.GetString(requestIDHeader)).
			Interface("panic", err).
			Msg("unhandled error in request pipeline")
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorBody{Error: labelInternal})
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, api.ErrorBody{Error: labelNotFound})
}
