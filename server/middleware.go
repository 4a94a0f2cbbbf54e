package main

import (
	"strconv"
	"time"

	"bookly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// processTimeWriter stamps X-Process-Time on the response just before the
// headers go out.
type processTimeWriter struct {
	gin.ResponseWriter
	start   time.Time
	stamped bool
}

func (w *processTimeWriter) stamp() {
	if w.stamped || w.ResponseWriter.Written() {
		return
	}
	w.stamped = true
	w.Header().Set("X-Process-Time", strconv.FormatFloat(time.Since(w.start).Seconds(), 'f', 6, 64))
}

func (w *processTimeWriter) WriteHeaderNow() {
	w.stamp()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *processTimeWriter) Write(data []byte) (int, error) {
	w.stamp()
	return w.ResponseWriter.Write(data)
}

func (w *processTimeWriter) WriteString(s string) (int, error) {
	w.stamp()
	return w.ResponseWriter.WriteString(s)
}

// RequestLoggerMiddleware logs every request and reports the handling time in
// seconds through the X-Process-Time header.
func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		writer := &processTimeWriter{ResponseWriter: c.Writer, start: start}
		c.Writer = writer

		c.Next()

		// bodiless responses are flushed by the engine after the chain returns
		writer.stamp()
		l.LogHTTPRequest(c, time.Since(start))
	}
}
