package provider

import (
	"time"

	"github.com/loyalty-next/internal/activity"
	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"
)

// Container dependency injection container
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	Emitter     activity.Emitter

	// Repositories
	RetailerRepo        repository.RetailerRepository
	AccountHolderRepo   repository.AccountHolderRepository
	CampaignRepo        repository.CampaignRepository
	CampaignBalanceRepo repository.CampaignBalanceRepository
	PendingRewardRepo   repository.PendingRewardRepository
	RewardRepo          repository.RewardRepository
	TransactionRepo     repository.TransactionRepository

	// Services
	RetailerService    *service.RetailerService
	AccountService     *service.AccountService
	TransactionService *service.TransactionService
	CampaignService    *service.CampaignService
	RewardService      *service.RewardService
	EmailService       *service.EmailService
}

// NewContainer initialises the container
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		Emitter:     activity.NewQueueEmitter(queueClient),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.RetailerRepo = repository.NewRetailerRepository(db)
	c.AccountHolderRepo = repository.NewAccountHolderRepository(db)
	c.CampaignRepo = repository.NewCampaignRepository(db)
	c.CampaignBalanceRepo = repository.NewCampaignBalanceRepository(db)
	c.PendingRewardRepo = repository.NewPendingRewardRepository(db)
	c.RewardRepo = repository.NewRewardRepository(db)
	c.TransactionRepo = repository.NewTransactionRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config
	c.RetailerService = service.NewRetailerService(
		c.RetailerRepo,
		time.Duration(cfg.Cache.RetailerTTLSeconds)*time.Second,
	)
	c.EmailService = service.NewEmailService(&cfg.Email)
	c.AccountService = service.NewAccountService(
		c.AccountHolderRepo,
		c.RetailerRepo,
		c.CampaignRepo,
		c.CampaignBalanceRepo,
		c.Emitter,
		c.QueueClient,
	)
	c.TransactionService = service.NewTransactionService(
		c.TransactionRepo,
		c.RetailerRepo,
		c.AccountHolderRepo,
		c.CampaignRepo,
		c.CampaignBalanceRepo,
		c.PendingRewardRepo,
		c.Emitter,
		c.QueueClient,
		cfg.Ledger.MaxRetries,
		time.Duration(cfg.Ledger.RetryBackoffMS)*time.Millisecond,
	)
	c.CampaignService = service.NewCampaignService(
		c.CampaignRepo,
		c.RetailerRepo,
		c.AccountHolderRepo,
		c.CampaignBalanceRepo,
		c.PendingRewardRepo,
		c.RewardRepo,
		c.Emitter,
		c.QueueClient,
	)
	c.RewardService = service.NewRewardService(
		c.RewardRepo,
		c.AccountHolderRepo,
		c.RetailerRepo,
		c.CampaignRepo,
		c.PendingRewardRepo,
		c.Emitter,
		c.QueueClient,
	)
}
