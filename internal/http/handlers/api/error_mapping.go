package api

import (
	"errors"

	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/logger"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError maps one business error to an API error response.
type mappedHandlerError struct {
	target  error
	code    int
	message string
}

func respondError(c *gin.Context, code int, message string, err error) {
	if err != nil {
		logger.Warnw("api_request_failed",
			"path", c.Request.URL.Path,
			"code", code,
			"error", err,
		)
	}
	response.Error(c, code, message)
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMessage string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.message, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMessage, err)
}
