package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
)

// respond writes err to the client and logs anything that is not a business
// error.
func respond(c *gin.Context, logger *zap.Logger, err error) {
	if _, ok := httperr.KindOf(err); !ok {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	httperr.Respond(c, err)
}

func invalidRequest(c *gin.Context, err error) {
	httperr.BadRequest(c, "invalid_request", err.Error())
}
