package service

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loyalty-next/internal/activity"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/queue"
	"github.com/loyalty-next/internal/repository"
)

const accountNumberAttempts = 10

// AccountService enrols and activates account holders
type AccountService struct {
	holderRepo   repository.AccountHolderRepository
	retailerRepo repository.RetailerRepository
	campaignRepo repository.CampaignRepository
	balanceRepo  repository.CampaignBalanceRepository
	emitter      activity.Emitter
	queueClient  *queue.Client
}

// NewAccountService creates the account service
func NewAccountService(
	holderRepo repository.AccountHolderRepository,
	retailerRepo repository.RetailerRepository,
	campaignRepo repository.CampaignRepository,
	balanceRepo repository.CampaignBalanceRepository,
	emitter activity.Emitter,
	queueClient *queue.Client,
) *AccountService {
	return &AccountService{
		holderRepo:   holderRepo,
		retailerRepo: retailerRepo,
		campaignRepo: campaignRepo,
		balanceRepo:  balanceRepo,
		emitter:      emitter,
		queueClient:  queueClient,
	}
}

// Enrol creates a pending account holder and queues the activation work
func (s *AccountService) Enrol(retailerSlug, email string) (*models.AccountHolder, error) {
	retailer, err := s.retailerRepo.GetBySlug(retailerSlug)
	if err != nil {
		return nil, err
	}
	if retailer == nil {
		return nil, ErrRetailerNotFound
	}
	if retailer.Status == constants.RetailerStatusInactive {
		return nil, ErrRetailerInactive
	}

	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.holderRepo.GetByEmail(retailer.ID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAccountHolderExists
	}

	holder := &models.AccountHolder{
		RetailerID: retailer.ID,
		Email:      email,
		Status:     constants.AccountHolderStatusPending,
	}
	if err := s.holderRepo.Create(holder); err != nil {
		return nil, err
	}

	s.emitter.Emit(activity.Activity{
		Type:              constants.ActivityAccountRequest,
		RetailerSlug:      retailer.Slug,
		AccountHolderUUID: holder.UUID.String(),
		Data: map[string]any{
			"email": holder.Email,
		},
	})

	if err := s.queueClient.EnqueueAccountActivation(queue.AccountActivationPayload{
		AccountHolderID: holder.ID,
	}); err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueSendEmail(queue.SendEmailPayload{
		AccountHolderID: holder.ID,
		EmailType:       constants.EmailTypeWelcome,
	}); err != nil {
		return nil, err
	}
	if retailer.CallbackURL != "" {
		if err := s.queueClient.EnqueueEnrolmentCallback(queue.EnrolmentCallbackPayload{
			AccountHolderID: holder.ID,
		}); err != nil {
			return nil, err
		}
	}

	return holder, nil
}

// Activate assigns an account number, creates balances for the retailer's
// active campaigns and flips the holder to active. Called from the worker,
// idempotent for already-active holders.
func (s *AccountService) Activate(accountHolderID uint) error {
	holder, err := s.holderRepo.GetByID(accountHolderID)
	if err != nil {
		return err
	}
	if holder == nil {
		return ErrAccountHolderNotFound
	}
	if holder.Status == constants.AccountHolderStatusActive {
		return nil
	}

	retailer, err := s.retailerRepo.GetByID(holder.RetailerID)
	if err != nil {
		return err
	}
	if retailer == nil {
		return ErrRetailerNotFound
	}

	if holder.AccountNumber == nil {
		number, err := s.generateAccountNumber(retailer)
		if err != nil {
			holder.Status = constants.AccountHolderStatusFailed
			_ = s.holderRepo.Update(holder)
			return err
		}
		holder.AccountNumber = &number
	}

	campaigns, err := s.campaignRepo.ListActiveByRetailer(retailer.ID)
	if err != nil {
		return err
	}
	if len(campaigns) > 0 {
		var resetDate *time.Time
		if retailer.BalanceLifespan > 0 {
			reset := time.Now().AddDate(0, 0, retailer.BalanceLifespan)
			resetDate = &reset
		}
		balances := make([]models.CampaignBalance, 0, len(campaigns))
		for i := range campaigns {
			balances = append(balances, models.CampaignBalance{
				AccountHolderID: holder.ID,
				CampaignID:      campaigns[i].ID,
				ResetDate:       resetDate,
			})
		}
		if err := s.balanceRepo.CreateBatch(balances); err != nil {
			return err
		}
	}

	holder.Status = constants.AccountHolderStatusActive
	if err := s.holderRepo.Update(holder); err != nil {
		return err
	}

	s.emitter.Emit(activity.Activity{
		Type:              constants.ActivityAccountActivated,
		RetailerSlug:      retailer.Slug,
		AccountHolderUUID: holder.UUID.String(),
		Data: map[string]any{
			"account_number": *holder.AccountNumber,
		},
	})
	return nil
}

// GetAccount fetches one account holder of a retailer by public UUID
func (s *AccountService) GetAccount(retailerSlug string, holderUUID uuid.UUID) (*models.AccountHolder, error) {
	retailer, err := s.retailerRepo.GetBySlug(retailerSlug)
	if err != nil {
		return nil, err
	}
	if retailer == nil {
		return nil, ErrRetailerNotFound
	}
	holder, err := s.holderRepo.GetByUUID(holderUUID)
	if err != nil {
		return nil, err
	}
	if holder == nil || holder.RetailerID != retailer.ID {
		return nil, ErrAccountHolderNotFound
	}
	return holder, nil
}

// ResetDueBalances zeroes balances whose lifespan elapsed, scheduling the
// next reset from the retailer's balance lifespan. Called periodically from
// the worker.
func (s *AccountService) ResetDueBalances(now time.Time) error {
	due, err := s.balanceRepo.ListDueForReset(now, 500)
	if err != nil {
		return err
	}
	for i := range due {
		balance := &due[i]
		holder, err := s.holderRepo.GetByID(balance.AccountHolderID)
		if err != nil {
			return err
		}
		if holder == nil {
			continue
		}
		retailer, err := s.retailerRepo.GetByID(holder.RetailerID)
		if err != nil {
			return err
		}
		if retailer == nil {
			continue
		}

		original := balance.Balance
		balance.Balance = 0
		if retailer.BalanceLifespan > 0 {
			next := now.AddDate(0, 0, retailer.BalanceLifespan)
			balance.ResetDate = &next
		} else {
			balance.ResetDate = nil
		}
		if err := s.balanceRepo.Update(balance); err != nil {
			return err
		}

		s.emitter.Emit(activity.Activity{
			Type:              constants.ActivityBalanceReset,
			RetailerSlug:      retailer.Slug,
			AccountHolderUUID: holder.UUID.String(),
			Data: map[string]any{
				"campaign_id":      balance.CampaignID,
				"original_balance": original,
			},
		})
		if err := s.queueClient.EnqueueSendEmail(queue.SendEmailPayload{
			AccountHolderID: holder.ID,
			EmailType:       constants.EmailTypeBalanceReset,
		}); err != nil {
			logger.Warnw("balance reset email enqueue failed", "account_holder_id", holder.ID, "error", err)
		}
	}
	return nil
}

// generateAccountNumber builds prefix + zero-padded random digits, retrying
// on collision with an existing number.
func (s *AccountService) generateAccountNumber(retailer *models.Retailer) (string, error) {
	digits := retailer.AccountNumberLength - len(retailer.AccountNumberPrefix)
	if digits < 1 {
		digits = 1
	}
	max := int64(1)
	for i := 0; i < digits && max < 1e17; i++ {
		max *= 10
	}
	for attempt := 0; attempt < accountNumberAttempts; attempt++ {
		number := fmt.Sprintf("%s%0*d", retailer.AccountNumberPrefix, digits, rand.Int63n(max))
		exists, err := s.holderRepo.AccountNumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("account number space exhausted for retailer %s", retailer.Slug)
}
