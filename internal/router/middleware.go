package router

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/http/response"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const apiKeyHeader = "X-API-Key"

const retailerContextKey = "retailer"
const operatorContextKey = "operator_name"

// CORSMiddleware cross-origin middleware
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			apiKeyHeader,
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware request id middleware
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware structured request log middleware
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// RetailerAPIKeyMiddleware authenticates the calling retailer by URL slug
// plus API key header and stores the resolved retailer on the context.
func RetailerAPIKeyMiddleware(retailerService *service.RetailerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if retailerService == nil {
			response.Unauthorized(c, "retailer authentication unavailable")
			c.Abort()
			return
		}
		slug := strings.TrimSpace(c.Param("retailer"))
		if slug == "" {
			response.Unauthorized(c, "retailer missing")
			c.Abort()
			return
		}
		apiKey := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if apiKey == "" {
			response.Unauthorized(c, "api key missing")
			c.Abort()
			return
		}
		retailer, err := retailerService.GetBySlug(c.Request.Context(), slug)
		if err != nil || retailer == nil {
			response.Unauthorized(c, "invalid api key")
			c.Abort()
			return
		}
		if !retailerService.VerifyAPIKey(retailer, apiKey) {
			response.Unauthorized(c, "invalid api key")
			c.Abort()
			return
		}
		c.Set(retailerContextKey, retailer)
		c.Next()
	}
}

// OperatorJWTAuthMiddleware validates the operator bearer token on campaign
// management requests and records the operator name on the context.
func OperatorJWTAuthMiddleware(secretKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			response.Unauthorized(c, "operator token secret not configured")
			c.Abort()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "authorization header missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			response.Unauthorized(c, "authorization header invalid")
			c.Abort()
			return
		}

		tokenString := parts[1]
		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		claims := &service.OperatorClaims{}
		token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		})
		if err != nil || !token.Valid || strings.TrimSpace(claims.Name) == "" {
			response.Unauthorized(c, "token invalid")
			c.Abort()
			return
		}

		c.Set(operatorContextKey, claims.Name)
		c.Next()
	}
}

// RetailerFromContext returns the retailer stored by the API key middleware
func RetailerFromContext(c *gin.Context) *models.Retailer {
	value, exists := c.Get(retailerContextKey)
	if !exists {
		return nil
	}
	if retailer, ok := value.(*models.Retailer); ok {
		return retailer
	}
	return nil
}

// OperatorFromContext returns the operator name stored by the JWT middleware
func OperatorFromContext(c *gin.Context) string {
	value, exists := c.Get(operatorContextKey)
	if !exists {
		return ""
	}
	if name, ok := value.(string); ok {
		return name
	}
	return ""
}
