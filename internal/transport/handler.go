package transport

import (
	"net/http"
	"time"

	"go-field-delineator/internal/config"
	apperrors "go-field-delineator/internal/errors"
	"go-field-delineator/internal/logger"
	"go-field-delineator/internal/service"
	"go-field-delineator/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every non-200 response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewHandler wires the HTTP surface: a liveness probe, the blocking
// inference endpoint and the streaming inference endpoint.
func NewHandler(svc service.DelineationService, cfg *config.Config) http.Handler {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/", healthCheck)
	r.POST("/infer", infer(svc))
	r.POST("/infer-stream", inferStream(svc))

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Field boundary delineation service is running",
	})
}

func infer(svc service.DelineationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing inference request")

		var req models.InferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request body", err)
			return
		}

		resp, err := svc.Delineate(c.Request.Context(), &req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "inference failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"field_count": resp.Metadata.FieldCount,
			"duration_ms": time.Since(startTime).Milliseconds(),
		}).Info("Inference request completed")

		c.JSON(http.StatusOK, resp)
	}
}

func inferStream(svc service.DelineationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing streaming inference request")

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		var req models.InferenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			// The streaming path never fails past its boundary: a body that
			// does not parse still yields a single terminal error event.
			logger.WithError(err).Error("Invalid streaming request body")
			c.SSEvent("message", models.ProgressEvent{
				Status:   models.StatusError,
				Progress: 0,
				Message:  "invalid request body: " + err.Error(),
			})
			return
		}

		events := svc.DelineateStream(c.Request.Context(), &req)
		for event := range events {
			c.SSEvent("message", event)
			c.Writer.Flush()
		}
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	detail := message
	if err != nil {
		detail = message + ": " + err.Error()
	}
	c.AbortWithStatusJSON(code, ErrorResponse{Detail: detail})
}
