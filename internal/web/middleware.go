package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"moocdash/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID берёт X-Request-ID клиента или выдаёт новый uuid.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []interface{}{
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request", kv...)
		case c.Writer.Status() >= http.StatusBadRequest:
			log.Warn("request", kv...)
		default:
			log.Debug("request", kv...)
		}
	}
}

// recovery превращает панику обработчика в страницу 500.
func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic recovered", "request_id", c.GetString(requestIDKey), "panic", r, "path", c.Request.URL.Path)
				s.renderError(c, Internal(fmt.Errorf("panic: %v", r)))
				c.Abort()
			}
		}()
		c.Next()
	}
}

// errorHandler рисует последнюю ошибку из c.Errors, если ответ ещё не начат.
func (s *Server) errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		ae := asAppError(c.Errors.Last().Err)
		if ae.Code >= http.StatusInternalServerError {
			s.log.Error("handler failed", "request_id", c.GetString(requestIDKey), "error", ae)
		}
		s.renderError(c, ae)
	}
}

func (s *Server) renderError(c *gin.Context, ae *AppError) {
	c.HTML(ae.Code, "error.html", gin.H{
		"Code":      ae.Code,
		"Message":   ae.Message,
		"RequestID": c.GetString(requestIDKey),
	})
}

// fail: ошибка обработчика; ответ рисует errorHandler.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
