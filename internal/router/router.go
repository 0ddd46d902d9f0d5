package router

import (
	"fmt"
	"strings"

	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	apihandlers "github.com/loyalty-next/internal/http/handlers/api"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter initialises the HTTP routes
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	apiHandler := apihandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "loyalty"
	}
	redisClient := cache.Client()
	transactionRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:transaction", redisPrefix),
		WindowSeconds: cfg.Security.TransactionRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.TransactionRateLimit.MaxRequests,
		Message:       "transaction rate limit exceeded",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		retailer := apiV1.Group("/:retailer")

		// Enrolment is open so retailer sites can sign shoppers up directly
		retailer.POST("/account-holders", apiHandler.Enrol)

		// Retailer system endpoints, API key authenticated
		authed := retailer.Group("")
		authed.Use(RetailerAPIKeyMiddleware(c.RetailerService))
		{
			authed.POST("/transaction",
				RateLimitMiddleware(redisClient, transactionRule, KeyByRetailerAndIP),
				apiHandler.ProcessTransaction)
			authed.GET("/account-holders/:uuid", apiHandler.GetAccountHolder)
			authed.GET("/account-holders/:uuid/transactions", apiHandler.ListAccountTransactions)
			authed.GET("/account-holders/:uuid/rewards", apiHandler.ListAccountRewards)
		}

		// Campaign management, operator token on top of the retailer key
		ops := retailer.Group("/campaigns")
		ops.Use(RetailerAPIKeyMiddleware(c.RetailerService), OperatorJWTAuthMiddleware(cfg.JWT.SecretKey))
		{
			ops.POST("/status", apiHandler.ChangeCampaignStatus)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
