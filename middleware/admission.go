// middleware/admission.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	dx_errors "github.com/datakaveri/dx-resource-server-sub002/errors"
	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
	"github.com/datakaveri/dx-resource-server-sub002/metrics"
	"github.com/datakaveri/dx-resource-server-sub002/pipeline"
)

const admissionKey = "admission"

// ResourceIDResolver extracts the resource id a request targets.
type ResourceIDResolver func(c *gin.Context) string

// DefaultResourceID reads the ":id" path parameter, falling back to the "id"
// query parameter for routes without one.
func DefaultResourceID(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	return c.Query("id")
}

// Admission gates a route behind the admission pipeline. On success the
// Admission result is stored on the request context for the handler; on any
// rejection the handler is never invoked and the caller receives the kind's
// fixed status with a structured body.
func Admission(p *pipeline.Pipeline, ep pipeline.Endpoint, resolve ResourceIDResolver) gin.HandlerFunc {
	if resolve == nil {
		resolve = DefaultResourceID
	}
	return func(c *gin.Context) {
		resourceID := resolve(c)
		if resourceID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"type":   "urn:dx:rs:badRequest",
				"title":  "bad request",
				"detail": "no resource id in request",
			})
			return
		}

		adm, aerr := p.Admit(c.Request.Context(), c.GetHeader("Authorization"), resourceID, ep)
		if aerr != nil {
			reject(c, aerr)
			return
		}

		metrics.AdmissionDecisions.WithLabelValues("admitted").Inc()
		c.Set(admissionKey, adm)
		c.Next()
	}
}

// AdmissionFromContext returns the pipeline result stored for this request.
func AdmissionFromContext(c *gin.Context) (*pipeline.Admission, bool) {
	value, exists := c.Get(admissionKey)
	if !exists {
		return nil, false
	}
	adm, ok := value.(*pipeline.Admission)
	return adm, ok
}

func reject(c *gin.Context, aerr *dx_errors.AdmissionError) {
	metrics.AdmissionDecisions.WithLabelValues(aerr.Kind.String()).Inc()

	status := aerr.Kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("Admission pipeline failed",
			zap.Error(aerr),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))
	} else {
		logger.Info("Request rejected",
			zap.String("reason", aerr.Kind.String()),
			zap.String("detail", aerr.Detail),
			zap.String("path", c.Request.URL.Path))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"type":   aerr.Kind.URN(),
		"title":  aerr.Kind.String(),
		"detail": aerr.Detail,
	})
}
