package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty-next/internal/activity"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
)

const (
	rewardCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // no 0/O/1/I
	rewardCodeLength   = 10
	rewardCodeAttempts = 10
)

// RewardService issues rewards and converts pending rewards
type RewardService struct {
	rewardRepo   repository.RewardRepository
	holderRepo   repository.AccountHolderRepository
	retailerRepo repository.RetailerRepository
	campaignRepo repository.CampaignRepository
	pendingRepo  repository.PendingRewardRepository
	emitter      activity.Emitter
	queueClient  *queue.Client
}

// NewRewardService creates the reward service
func NewRewardService(
	rewardRepo repository.RewardRepository,
	holderRepo repository.AccountHolderRepository,
	retailerRepo repository.RetailerRepository,
	campaignRepo repository.CampaignRepository,
	pendingRepo repository.PendingRewardRepository,
	emitter activity.Emitter,
	queueClient *queue.Client,
) *RewardService {
	return &RewardService{
		rewardRepo:   rewardRepo,
		holderRepo:   holderRepo,
		retailerRepo: retailerRepo,
		campaignRepo: campaignRepo,
		pendingRepo:  pendingRepo,
		emitter:      emitter,
		queueClient:  queueClient,
	}
}

// Issue creates one reward for an account holder. Called from the worker for
// goal crossings and pending reward conversions.
func (s *RewardService) Issue(payload queue.RewardIssuancePayload) error {
	holder, err := s.holderRepo.GetByID(payload.AccountHolderID)
	if err != nil {
		return err
	}
	if holder == nil {
		return ErrAccountHolderNotFound
	}
	retailer, err := s.retailerRepo.GetByID(holder.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil {
		return ErrRetailerNotFound
	}
	config, err := s.rewardRepo.GetConfigByID(payload.RewardConfigID)
	if err != nil {
		return err
	}
	if config == nil {
		return ErrRewardNotFound
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	reward := &models.Reward{
		Code:            code,
		AccountHolderID: holder.ID,
		RetailerID:      retailer.ID,
		RewardConfigID:  config.ID,
		Reason:          payload.Reason,
		IssuedDate:      now,
	}
	if payload.CampaignID != 0 {
		campaignID := payload.CampaignID
		reward.CampaignID = &campaignID
	}
	if config.ValidityDays > 0 {
		expiry := now.AddDate(0, 0, config.ValidityDays)
		reward.ExpiryDate = &expiry
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return err
	}

	s.emitter.Emit(activity.Activity{
		Type:              constants.ActivityRewardStatus,
		RetailerSlug:      retailer.Slug,
		AccountHolderUUID: holder.UUID.String(),
		Data: map[string]any{
			"reward_uuid": reward.UUID.String(),
			"status":      "issued",
			"reason":      payload.Reason,
		},
	})
	if err := s.queueClient.EnqueueSendEmail(queue.SendEmailPayload{
		AccountHolderID: holder.ID,
		EmailType:       constants.EmailTypeRewardIssuance,
		Data:            map[string]any{"reward_uuid": reward.UUID.String()},
	}); err != nil {
		logger.Warnw("reward email enqueue failed", "reward", reward.UUID.String(), "error", err)
	}
	return nil
}

// ConvertPending converts one pending reward whose allocation window has
// elapsed into issuance tasks. A pending reward already removed, for example
// by a refund or a campaign end, is treated as done.
func (s *RewardService) ConvertPending(pendingUUID string) error {
	id, err := uuid.Parse(pendingUUID)
	if err != nil {
		return err
	}
	pending, err := s.pendingRepo.GetByUUID(id)
	if err != nil {
		return err
	}
	if pending == nil {
		return nil
	}

	campaign, err := s.campaignRepo.GetWithRules(pending.CampaignID)
	if err != nil {
		return err
	}
	if campaign == nil || campaign.RewardRule == nil {
		return ErrMissingCampaignComponents
	}

	count := pending.Count
	holderID := pending.AccountHolderID
	campaignID := pending.CampaignID
	rewardConfigID := campaign.RewardRule.RewardConfigID

	err = s.campaignRepo.Transaction(func(tx *gorm.DB) error {
		return s.pendingRepo.WithTx(tx).Delete(pending)
	})
	if err != nil {
		return err
	}

	for n := 0; n < count; n++ {
		if err := s.queueClient.EnqueueRewardIssuance(queue.RewardIssuancePayload{
			AccountHolderID: holderID,
			CampaignID:      campaignID,
			RewardConfigID:  rewardConfigID,
			Reason:          constants.RewardReasonConverted,
		}); err != nil {
			return err
		}
	}

	holder, err := s.holderRepo.GetByID(holderID)
	if err == nil && holder != nil {
		s.emitter.Emit(activity.Activity{
			Type:              constants.ActivityPendingRewardStatus,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"pending_reward_uuid": pendingUUID,
				"status":              "converted",
				"count":               count,
			},
		})
	}
	return nil
}

func (s *RewardService) generateCode() (string, error) {
	for attempt := 0; attempt < rewardCodeAttempts; attempt++ {
		buf := make([]byte, rewardCodeLength)
		for i := range buf {
			buf[i] = rewardCodeAlphabet[rand.Intn(len(rewardCodeAlphabet))]
		}
		code := string(buf)
		existing, err := s.rewardRepo.GetByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("reward code space exhausted")
}
