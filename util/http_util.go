// util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/datakaveri/dx-resource-server-sub002/logging"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// RespondWithResult wraps results in the structured success envelope.
func RespondWithResult(c *gin.Context, code int, results interface{}) {
	c.JSON(code, gin.H{
		"type":    "urn:dx:rs:success",
		"title":   "success",
		"results": results,
	})
}
