package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/loyalty-next/internal/activity"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
)

// CampaignService drives the campaign status state machine
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	retailerRepo repository.RetailerRepository
	holderRepo   repository.AccountHolderRepository
	balanceRepo  repository.CampaignBalanceRepository
	pendingRepo  repository.PendingRewardRepository
	rewardRepo   repository.RewardRepository
	emitter      activity.Emitter
	queueClient  *queue.Client
}

// NewCampaignService creates the campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	retailerRepo repository.RetailerRepository,
	holderRepo repository.AccountHolderRepository,
	balanceRepo repository.CampaignBalanceRepository,
	pendingRepo repository.PendingRewardRepository,
	rewardRepo repository.RewardRepository,
	emitter activity.Emitter,
	queueClient *queue.Client,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		retailerRepo: retailerRepo,
		holderRepo:   holderRepo,
		balanceRepo:  balanceRepo,
		pendingRepo:  pendingRepo,
		rewardRepo:   rewardRepo,
		emitter:      emitter,
		queueClient:  queueClient,
	}
}

// ChangeStatusRequest one requested campaign status transition
type ChangeStatusRequest struct {
	RetailerSlug         string
	CampaignSlug         string
	RequestedStatus      string
	PendingRewardsAction string // remove / convert, ENDED only
	Requester            string // operator identity for the activity record
}

// ChangeStatus applies one transition of the campaign state machine. The
// campaign row is locked for the whole transaction so concurrent requests
// for the same campaign serialize; the loser then fails the edge check.
func (s *CampaignService) ChangeStatus(req ChangeStatusRequest) error {
	switch req.RequestedStatus {
	case constants.CampaignStatusActive, constants.CampaignStatusEnded, constants.CampaignStatusCancelled:
	default:
		return ErrInvalidStatusRequested
	}
	action := req.PendingRewardsAction
	if action == "" {
		action = constants.PendingRewardActionRemove
	}
	if action != constants.PendingRewardActionRemove && action != constants.PendingRewardActionConvert {
		return ErrInvalidStatusRequested
	}

	retailer, err := s.retailerRepo.GetBySlug(req.RetailerSlug)
	if err != nil {
		return err
	}
	if retailer == nil {
		return ErrRetailerNotFound
	}

	var post postCommit
	err = s.campaignRepo.Transaction(func(tx *gorm.DB) error {
		campaignRepo := s.campaignRepo.WithTx(tx)
		campaign, err := campaignRepo.GetBySlugForUpdate(retailer.ID, req.CampaignSlug)
		if err != nil {
			return err
		}
		if campaign == nil {
			return ErrCampaignNotFound
		}
		if !campaign.CanTransitionTo(req.RequestedStatus) {
			return ErrInvalidStatusRequested
		}

		previous := campaign.Status
		switch req.RequestedStatus {
		case constants.CampaignStatusActive:
			if err := s.activate(tx, retailer, campaign); err != nil {
				return err
			}
		case constants.CampaignStatusEnded:
			if err := s.deactivate(tx, retailer, campaign, action, &post); err != nil {
				return err
			}
		case constants.CampaignStatusCancelled:
			if err := s.cancel(tx, retailer, campaign, &post); err != nil {
				return err
			}
		}

		campaign.Status = req.RequestedStatus
		if err := campaignRepo.Update(campaign); err != nil {
			return err
		}

		post.activities = append(post.activities, activity.Activity{
			Type:         constants.ActivityCampaignChange,
			RetailerSlug: retailer.Slug,
			Data: map[string]any{
				"campaign_slug": campaign.Slug,
				"from":          previous,
				"to":            req.RequestedStatus,
				"requester":     req.Requester,
			},
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.dispatch(&post)
	return nil
}

// activate checks the campaign is complete, stamps the start date and gives
// every active account holder a zero balance.
func (s *CampaignService) activate(tx *gorm.DB, retailer *models.Retailer, campaign *models.Campaign) error {
	withRules, err := s.campaignRepo.WithTx(tx).GetWithRules(campaign.ID)
	if err != nil {
		return err
	}
	if withRules == nil || withRules.EarnRule == nil || withRules.RewardRule == nil {
		return ErrMissingCampaignComponents
	}

	if campaign.StartDate == nil {
		now := time.Now()
		campaign.StartDate = &now
	}

	holderIDs, err := s.holderRepo.WithTx(tx).ListActiveIDsByRetailer(retailer.ID)
	if err != nil {
		return err
	}
	if len(holderIDs) == 0 {
		return nil
	}
	var resetDate *time.Time
	if retailer.BalanceLifespan > 0 {
		reset := time.Now().AddDate(0, 0, retailer.BalanceLifespan)
		resetDate = &reset
	}
	balances := make([]models.CampaignBalance, 0, len(holderIDs))
	for _, holderID := range holderIDs {
		balances = append(balances, models.CampaignBalance{
			AccountHolderID: holderID,
			CampaignID:      campaign.ID,
			ResetDate:       resetDate,
		})
	}
	return s.balanceRepo.WithTx(tx).CreateBatch(balances)
}

// deactivate ends a campaign, honouring the pending rewards action, and
// removes its balances. The last active campaign of a non-test retailer
// cannot be ended.
func (s *CampaignService) deactivate(
	tx *gorm.DB,
	retailer *models.Retailer,
	campaign *models.Campaign,
	action string,
	post *postCommit,
) error {
	if err := s.guardLastActive(tx, retailer, campaign); err != nil {
		return err
	}

	now := time.Now()
	campaign.EndDate = &now

	switch action {
	case constants.PendingRewardActionConvert:
		if err := s.convertPendings(tx, campaign, post); err != nil {
			return err
		}
	default:
		if err := s.removePendings(tx, retailer, campaign, post); err != nil {
			return err
		}
	}

	return s.balanceRepo.WithTx(tx).DeleteByCampaign(campaign.ID)
}

// cancel cancels a campaign: pending rewards are always removed and issued
// rewards soft-cancelled.
func (s *CampaignService) cancel(
	tx *gorm.DB,
	retailer *models.Retailer,
	campaign *models.Campaign,
	post *postCommit,
) error {
	// a draft campaign has no balances, rewards or pendings yet, but the
	// cleanup below is idempotent either way
	if campaign.Status == constants.CampaignStatusActive {
		if err := s.guardLastActive(tx, retailer, campaign); err != nil {
			return err
		}
	}

	now := time.Now()
	campaign.EndDate = &now

	if err := s.removePendings(tx, retailer, campaign, post); err != nil {
		return err
	}

	cancelled, err := s.rewardRepo.WithTx(tx).CancelByCampaign(campaign.ID, now)
	if err != nil {
		return err
	}
	if cancelled > 0 {
		post.activities = append(post.activities, activity.Activity{
			Type:         constants.ActivityRewardStatus,
			RetailerSlug: retailer.Slug,
			Data: map[string]any{
				"campaign_slug": campaign.Slug,
				"status":        "cancelled",
				"count":         cancelled,
			},
		})
	}

	return s.balanceRepo.WithTx(tx).DeleteByCampaign(campaign.ID)
}

// guardLastActive refuses to deactivate the only active campaign of a
// non-test retailer.
func (s *CampaignService) guardLastActive(tx *gorm.DB, retailer *models.Retailer, campaign *models.Campaign) error {
	if retailer.IsTest() {
		return nil
	}
	others, err := s.campaignRepo.WithTx(tx).CountActiveByRetailer(retailer.ID, campaign.ID)
	if err != nil {
		return err
	}
	if others == 0 {
		return ErrInvalidStatusRequested
	}
	return nil
}

// convertPendings turns every pending reward of the campaign into issuance
// tasks, one per reward unit, then deletes the pending rows.
func (s *CampaignService) convertPendings(tx *gorm.DB, campaign *models.Campaign, post *postCommit) error {
	withRules, err := s.campaignRepo.WithTx(tx).GetWithRules(campaign.ID)
	if err != nil {
		return err
	}
	if withRules == nil || withRules.RewardRule == nil {
		return ErrMissingCampaignComponents
	}
	rewardConfigID := withRules.RewardRule.RewardConfigID

	pendingRepo := s.pendingRepo.WithTx(tx)
	pendings, err := pendingRepo.ListByCampaign(campaign.ID)
	if err != nil {
		return err
	}
	for i := range pendings {
		pending := pendings[i]
		for n := 0; n < pending.Count; n++ {
			payload := queue.RewardIssuancePayload{
				AccountHolderID: pending.AccountHolderID,
				CampaignID:      campaign.ID,
				RewardConfigID:  rewardConfigID,
				Reason:          constants.RewardReasonConverted,
			}
			post.tasks = append(post.tasks, func() error {
				return s.queueClient.EnqueueRewardIssuance(payload)
			})
		}
		if err := pendingRepo.Delete(&pendings[i]); err != nil {
			return err
		}
	}
	return nil
}

// removePendings deletes the campaign's pending rewards, recording one
// activity per account holder batch removed.
func (s *CampaignService) removePendings(tx *gorm.DB, retailer *models.Retailer, campaign *models.Campaign, post *postCommit) error {
	pendingRepo := s.pendingRepo.WithTx(tx)
	pendings, err := pendingRepo.ListByCampaign(campaign.ID)
	if err != nil {
		return err
	}
	for i := range pendings {
		post.activities = append(post.activities, activity.Activity{
			Type:         constants.ActivityPendingRewardStatus,
			RetailerSlug: retailer.Slug,
			Data: map[string]any{
				"campaign_slug": campaign.Slug,
				"status":        "deleted",
				"count":         pendings[i].Count,
			},
		})
	}
	return pendingRepo.DeleteByCampaign(campaign.ID)
}

// dispatch fires buffered activities and tasks after commit
func (s *CampaignService) dispatch(post *postCommit) {
	if len(post.activities) > 0 && s.emitter != nil {
		s.emitter.Emit(post.activities...)
	}
	for _, task := range post.tasks {
		if err := task(); err != nil {
			logger.Errorw("post-commit task enqueue failed", "error", err)
		}
	}
}
