package worker

import (
	"context"
	"errors"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	balanceResetInterval = time.Hour
)

// Service asynchronous queue service
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService creates the queue service
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name service name
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start starts the service
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.AccountService != nil {
		go s.runBalanceResetLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop stops the service
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runBalanceResetLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.AccountService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.AccountService.ResetDueBalances(time.Now()); err != nil {
			logger.Warnw("worker_balance_reset_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(balanceResetInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
