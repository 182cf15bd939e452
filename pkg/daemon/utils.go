package daemon

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ginLogger logs one entry per request. Event streams are logged when
// they end, with how long the subscriber stayed connected.
func ginLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handlers may rewrite the path.
		path := c.Request.URL.Path
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   path,
			"status": status,
			"bytes":  max(c.Writer.Size(), 0),
		})

		if len(c.Errors) > 0 {
			entry.WithField("latency", elapsed.Round(time.Millisecond).String()).
				Error(c.Errors.ByType(gin.ErrorTypePrivate).String())
			return
		}

		if isEventStream(c) {
			entry.WithField("connected", elapsed.Round(time.Second).String()).Debug("event subscriber left")
			return
		}

		entry = entry.WithField("latency", elapsed.Round(time.Millisecond).String())
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("bad request")
		default:
			entry.Debug("request served")
		}
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/event-stream")
}
