package service

import (
	"errors"
	"strings"
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

const ledgerInsertSavepoint = "before_ledger_insert"

// TransactionService processes inbound transactions against active campaigns
type TransactionService struct {
	txRepo       repository.TransactionRepository
	retailerRepo repository.RetailerRepository
	holderRepo   repository.AccountHolderRepository
	campaignRepo repository.CampaignRepository
	balanceRepo  repository.CampaignBalanceRepository
	pendingRepo  repository.PendingRewardRepository
	emitter      activity.Emitter
	queueClient  *queue.Client
	maxRetries   int
	retryBackoff time.Duration
}

// NewTransactionService creates the transaction service
func NewTransactionService(
	txRepo repository.TransactionRepository,
	retailerRepo repository.RetailerRepository,
	holderRepo repository.AccountHolderRepository,
	campaignRepo repository.CampaignRepository,
	balanceRepo repository.CampaignBalanceRepository,
	pendingRepo repository.PendingRewardRepository,
	emitter activity.Emitter,
	queueClient *queue.Client,
	maxRetries int,
	retryBackoff time.Duration,
) *TransactionService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &TransactionService{
		txRepo:       txRepo,
		retailerRepo: retailerRepo,
		holderRepo:   holderRepo,
		campaignRepo: campaignRepo,
		balanceRepo:  balanceRepo,
		pendingRepo:  pendingRepo,
		emitter:      emitter,
		queueClient:  queueClient,
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
	}
}

// ProcessRequest one inbound transaction
type ProcessRequest struct {
	RetailerSlug         string
	TransactionID        string
	AccountHolderUUID    uuid.UUID
	Amount               int64 // signed pence, negative = refund
	MID                  string
	Datetime             time.Time
	PaymentTransactionID string
}

// ProcessResult outcome of a processed transaction
type ProcessResult struct {
	Response string
	Earns    []EarnResult
}

// postCommit effects buffered during the database transaction and dispatched
// only after a successful commit.
type postCommit struct {
	activities []activity.Activity
	tasks      []func() error
}

// Process validates, evaluates and applies one transaction. The whole ledger
// mutation runs in a single database transaction with balance rows locked in
// ascending campaign id order; activities and queue tasks fire after commit.
func (s *TransactionService) Process(req ProcessRequest) (*ProcessResult, error) {
	retailer, err := s.retailerRepo.GetBySlug(req.RetailerSlug)
	if err != nil {
		return nil, err
	}
	if retailer == nil {
		return nil, ErrRetailerNotFound
	}
	if retailer.Status == constants.RetailerStatusInactive {
		return nil, ErrRetailerInactive
	}

	holder, err := s.holderRepo.GetByUUID(req.AccountHolderUUID)
	if err != nil {
		return nil, err
	}
	if holder == nil || holder.RetailerID != retailer.ID {
		return nil, ErrAccountHolderNotFound
	}
	if holder.Status != constants.AccountHolderStatusActive {
		return nil, ErrAccountHolderNotActive
	}
	if req.Datetime.Before(holder.CreatedAt) {
		return nil, ErrInvalidTxDate
	}

	campaigns, err := s.campaignRepo.ListActiveByRetailer(retailer.ID)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, ErrNoActiveCampaigns
	}

	store, err := s.retailerRepo.GetStoreByMID(retailer.ID, req.MID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrNoMatchingStore
	}

	// campaigns come back in ascending id order, which fixes the lock order
	earns := ComputeEarns(req.Amount, campaigns)

	var duplicate bool
	var post postCommit
	err = s.withRetry(func() error {
		duplicate = false
		post = postCommit{}
		return s.txRepo.Transaction(func(tx *gorm.DB) error {
			return s.apply(tx, retailer, holder, req, earns, &duplicate, &post)
		})
	})
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, ErrDuplicateTransaction
	}

	s.dispatch(&post)

	return &ProcessResult{
		Response: classifyResponse(req.Amount, earns),
		Earns:    earns,
	}, nil
}

// apply inserts the ledger row and walks every accepted earn. A duplicate
// insert is rolled back to a savepoint and re-inserted with processed NULL so
// the attempt itself stays on record.
func (s *TransactionService) apply(
	tx *gorm.DB,
	retailer *models.Retailer,
	holder *models.AccountHolder,
	req ProcessRequest,
	earns []EarnResult,
	duplicate *bool,
	post *postCommit,
) error {
	processed := true
	txn := &models.Transaction{
		TransactionID:        req.TransactionID,
		RetailerID:           retailer.ID,
		AccountHolderID:      holder.ID,
		Amount:               req.Amount,
		MID:                  req.MID,
		Datetime:             req.Datetime,
		PaymentTransactionID: req.PaymentTransactionID,
		Processed:            &processed,
	}

	txRepo := s.txRepo.WithTx(tx)
	if err := tx.SavePoint(ledgerInsertSavepoint).Error; err != nil {
		return err
	}
	if err := txRepo.Create(txn); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if err := tx.RollbackTo(ledgerInsertSavepoint).Error; err != nil {
			return err
		}
		txn.ID = 0
		txn.Processed = nil
		if err := txRepo.Create(txn); err != nil {
			return err
		}
		*duplicate = true
		post.activities = append(post.activities, activity.Activity{
			Type:              constants.ActivityTxImport,
			RetailerSlug:      retailer.Slug,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"transaction_id": req.TransactionID,
				"amount":         req.Amount,
				"reason":         "duplicate",
			},
		})
		return nil
	}

	for i := range earns {
		if !earns[i].Accepted {
			continue
		}
		earn := &earns[i]
		if err := txRepo.CreateEarn(&models.TransactionEarn{
			TransactionID: txn.ID,
			CampaignID:    earn.Campaign.ID,
			LoyaltyType:   earn.Campaign.LoyaltyType,
			EarnAmount:    earn.Amount,
		}); err != nil {
			return err
		}
		if err := s.applyEarn(tx, retailer, holder, earn, post); err != nil {
			return err
		}
	}

	post.activities = append(post.activities, activity.Activity{
		Type:              constants.ActivityTxHistory,
		RetailerSlug:      retailer.Slug,
		AccountHolderUUID: holder.UUID.String(),
		Data: map[string]any{
			"transaction_id": req.TransactionID,
			"amount":         req.Amount,
			"mid":            req.MID,
			"datetime":       req.Datetime,
			"response":       classifyResponse(req.Amount, earns),
		},
	})
	return nil
}

// applyEarn locks the balance row, applies the delta and handles reward
// crossings or refund absorption.
func (s *TransactionService) applyEarn(
	tx *gorm.DB,
	retailer *models.Retailer,
	holder *models.AccountHolder,
	earn *EarnResult,
	post *postCommit,
) error {
	balanceRepo := s.balanceRepo.WithTx(tx)
	balance, err := balanceRepo.GetForUpdate(holder.ID, earn.Campaign.ID)
	if err != nil {
		return err
	}
	if balance == nil {
		balance = &models.CampaignBalance{
			AccountHolderID: holder.ID,
			CampaignID:      earn.Campaign.ID,
		}
		if retailer.BalanceLifespan > 0 {
			reset := time.Now().AddDate(0, 0, retailer.BalanceLifespan)
			balance.ResetDate = &reset
		}
		if err := balanceRepo.Create(balance); err != nil {
			return err
		}
	}

	original := balance.Balance
	var updated int64
	if earn.Amount >= 0 {
		updated, err = s.processRewards(tx, holder, earn.Campaign, earn.Amount, original+earn.Amount, post)
	} else {
		updated, err = s.absorbRefund(tx, retailer, holder, earn.Campaign, -earn.Amount, original, post)
	}
	if err != nil {
		return err
	}

	balance.Balance = updated
	if err := balanceRepo.Update(balance); err != nil {
		return err
	}

	post.activities = append(post.activities, activity.Activity{
		Type:              constants.ActivityBalanceChange,
		RetailerSlug:      retailer.Slug,
		AccountHolderUUID: holder.UUID.String(),
		Data: map[string]any{
			"campaign_slug":    earn.Campaign.Slug,
			"loyalty_type":     earn.Campaign.LoyaltyType,
			"earn":             earn.Amount,
			"original_balance": original,
			"new_balance":      updated,
		},
	})
	return nil
}

// processRewards converts reward goal crossings into a pending reward or
// immediate issuance tasks. When the per-transaction cap kicks in the whole
// earn is consumed as cost, leaving the balance where it started.
func (s *TransactionService) processRewards(
	tx *gorm.DB,
	holder *models.AccountHolder,
	campaign *models.Campaign,
	earnAmount int64,
	newBalance int64,
	post *postCommit,
) (int64, error) {
	rule := campaign.RewardRule
	if rule == nil || rule.RewardGoal <= 0 || newBalance < rule.RewardGoal {
		return newBalance, nil
	}

	crossings := newBalance / rule.RewardGoal
	capReached := false
	if rule.RewardCap > 0 && crossings > int64(rule.RewardCap) {
		crossings = int64(rule.RewardCap)
		capReached = true
	}

	var totalCost int64
	if capReached {
		totalCost = earnAmount
	} else {
		totalCost = crossings * rule.RewardGoal
	}
	remaining := newBalance - totalCost

	if rule.AllocationWindow > 0 {
		now := time.Now()
		pending := &models.PendingReward{
			AccountHolderID: holder.ID,
			CampaignID:      campaign.ID,
			Value:           rule.RewardGoal,
			Count:           int(crossings),
			TotalCostToUser: totalCost,
			CreatedDate:     now,
			ConversionDate:  now.AddDate(0, 0, rule.AllocationWindow),
		}
		if err := s.pendingRepo.WithTx(tx).Create(pending); err != nil {
			return 0, err
		}
		pendingUUID := pending.UUID.String()
		conversionDate := pending.ConversionDate
		post.tasks = append(post.tasks, func() error {
			return s.queueClient.EnqueuePendingRewardConvert(
				queue.PendingRewardConvertPayload{PendingRewardUUID: pendingUUID},
				time.Until(conversionDate),
			)
		})
		post.activities = append(post.activities, activity.Activity{
			Type:              constants.ActivityPendingRewardStatus,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"campaign_slug":   campaign.Slug,
				"status":          "created",
				"count":           int(crossings),
				"value":           rule.RewardGoal,
				"conversion_date": conversionDate,
			},
		})
	} else {
		for i := int64(0); i < crossings; i++ {
			payload := queue.RewardIssuancePayload{
				AccountHolderID: holder.ID,
				CampaignID:      campaign.ID,
				RewardConfigID:  rule.RewardConfigID,
				Reason:          constants.RewardReasonGoalMet,
			}
			post.tasks = append(post.tasks, func() error {
				return s.queueClient.EnqueueRewardIssuance(payload)
			})
		}
	}

	return remaining, nil
}

// absorbRefund recoups a refund in order: slush of a single pending reward,
// collective slush, the balance itself, then pending reward value via count
// reduction. Whatever is left drives the balance negative and is reported as
// not recouped.
func (s *TransactionService) absorbRefund(
	tx *gorm.DB,
	retailer *models.Retailer,
	holder *models.AccountHolder,
	campaign *models.Campaign,
	shortfall int64,
	current int64,
	post *postCommit,
) (int64, error) {
	pendingRepo := s.pendingRepo.WithTx(tx)
	pendings, err := pendingRepo.ListForUpdate(holder.ID, campaign.ID)
	if err != nil {
		return 0, err
	}

	// one pending reward whose slush covers the whole refund
	for i := range pendings {
		if pendings[i].Slush() >= shortfall {
			pendings[i].TotalCostToUser -= shortfall
			if err := pendingRepo.Update(&pendings[i]); err != nil {
				return 0, err
			}
			return current, nil
		}
	}

	var totalSlush int64
	for i := range pendings {
		if slush := pendings[i].Slush(); slush > 0 {
			totalSlush += slush
		}
	}

	if totalSlush >= shortfall {
		// drain slush oldest first until the refund is covered
		remaining := shortfall
		for i := range pendings {
			if remaining == 0 {
				break
			}
			slush := pendings[i].Slush()
			if slush <= 0 {
				continue
			}
			take := slush
			if take > remaining {
				take = remaining
			}
			pendings[i].TotalCostToUser -= take
			remaining -= take
			if err := pendingRepo.Update(&pendings[i]); err != nil {
				return 0, err
			}
		}
		return current, nil
	}

	// slush alone is not enough: drain it all, then fall through
	remaining := shortfall - totalSlush
	for i := range pendings {
		if pendings[i].Slush() > 0 {
			pendings[i].TotalCostToUser = pendings[i].TotalValue()
			if err := pendingRepo.Update(&pendings[i]); err != nil {
				return 0, err
			}
		}
	}

	if current >= remaining {
		return current - remaining, nil
	}
	if current > 0 {
		remaining -= current
		current = 0
	}

	// recoup from pending reward value, removing whole rewards oldest first
	for i := range pendings {
		if remaining <= 0 {
			break
		}
		pending := &pendings[i]
		totalValue := pending.TotalValue()
		if totalValue <= 0 {
			continue
		}
		if totalValue <= remaining {
			remaining -= totalValue
			if err := pendingRepo.Delete(pending); err != nil {
				return 0, err
			}
			post.activities = append(post.activities, activity.Activity{
				Type:              constants.ActivityPendingRewardStatus,
				RetailerSlug:      retailer.Slug,
				AccountHolderUUID: holder.UUID.String(),
				Data: map[string]any{
					"campaign_slug": campaign.Slug,
					"status":        "deleted",
					"count":         pending.Count,
				},
			})
			continue
		}
		removed := (remaining + pending.Value - 1) / pending.Value
		recouped := removed * pending.Value
		pending.Count -= int(removed)
		pending.TotalCostToUser -= recouped
		if recouped > remaining {
			// over-recouped by removing whole rewards, credit the difference back
			current += recouped - remaining
		}
		remaining = 0
		if err := pendingRepo.Update(pending); err != nil {
			return 0, err
		}
		post.activities = append(post.activities, activity.Activity{
			Type:              constants.ActivityPendingRewardStatus,
			RetailerSlug:      retailer.Slug,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"campaign_slug": campaign.Slug,
				"status":        "count_reduced",
				"removed":       removed,
				"count":         pending.Count,
			},
		})
	}

	if remaining > 0 {
		current -= remaining
		post.activities = append(post.activities, activity.Activity{
			Type:              constants.ActivityRefundNotRecouped,
			RetailerSlug:      retailer.Slug,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"campaign_slug": campaign.Slug,
				"amount":        remaining,
			},
		})
	}
	return current, nil
}

// dispatch fires buffered activities and tasks after commit. Failures are
// logged and never unwind the committed transaction.
func (s *TransactionService) dispatch(post *postCommit) {
	if len(post.activities) > 0 && s.emitter != nil {
		s.emitter.Emit(post.activities...)
	}
	for _, task := range post.tasks {
		if err := task(); err != nil {
			logger.Errorw("post-commit task enqueue failed", "error", err)
		}
	}
}

// withRetry retries the whole operation on lock contention
func (s *TransactionService) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 && s.retryBackoff > 0 {
			time.Sleep(s.retryBackoff * time.Duration(attempt))
		}
		err = fn()
		if err == nil || !isRetryableTxError(err) {
			return err
		}
	}
	return err
}

func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "database is locked")
}

func classifyResponse(amount int64, earns []EarnResult) string {
	accepted := false
	for i := range earns {
		if earns[i].Accepted {
			accepted = true
			break
		}
	}
	switch {
	case amount < 0 && accepted:
		return constants.TxResponseRefundAccepted
	case amount < 0:
		return constants.TxResponseRefundsNotAccepted
	case accepted:
		return constants.TxResponseAwarded
	default:
		return constants.TxResponseThresholdNotMet
	}
}
