package api

import (
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"

	"github.com/gin-gonic/gin"
)

// Context keys set by the router middleware.
const retailerContextKey = "retailer"
const operatorContextKey = "operator_name"

// retailerFromRequest returns the authenticated retailer, responding 401 and
// returning nil when the middleware did not resolve one.
func retailerFromRequest(c *gin.Context) *models.Retailer {
	value, ok := c.Get(retailerContextKey)
	if ok {
		if retailer, ok := value.(*models.Retailer); ok && retailer != nil {
			return retailer
		}
	}
	respondError(c, response.CodeUnauthorized, "retailer not resolved", nil)
	return nil
}

func operatorFromRequest(c *gin.Context) string {
	return c.GetString(operatorContextKey)
}
