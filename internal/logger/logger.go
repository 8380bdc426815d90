// Package logger builds the process-wide structured logger: a go-logr/logr façade backed by zerolog, and
// the Gin middleware that injects a request-scoped logger into the request context.
package logger

import (
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"

	"github.com/gin-gonic/gin"
)

func init() {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
}

// NewZeroLogr returns a logr.Logger writing structured JSON to stderr via zerolog, timestamped in RFC3339.
func NewZeroLogr() logr.Logger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return zerologr.New(&zl)
}

const loggerContextKey = "logr"

// WithLogr returns Gin middleware that stores log into the request context under a fixed key, reachable
// via FromContext in request handlers.
func WithLogr(log logr.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(loggerContextKey, log.WithValues("path", c.Request.URL.Path, "method", c.Request.Method))
		c.Next()
		FromContext(c).V(1).Info("request handled", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}

// FromContext returns the request-scoped logger stored by WithLogr, or the discard logger if none was set.
func FromContext(c *gin.Context) logr.Logger {
	v, ok := c.Get(loggerContextKey)
	if !ok {
		return logr.Discard()
	}
	log, ok := v.(logr.Logger)
	if !ok {
		return logr.Discard()
	}
	return log
}
