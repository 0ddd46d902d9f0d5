package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

func newTestAccountService(db *gorm.DB, emitter *captureEmitter) *AccountService {
	return NewAccountService(
		repository.NewAccountHolderRepository(db),
		repository.NewRetailerRepository(db),
		repository.NewCampaignRepository(db),
		repository.NewCampaignBalanceRepository(db),
		emitter,
		nil,
	)
}

func TestEnrolCreatesPendingHolder(t *testing.T) {
	db := newServiceTestDB(t, "account_enrol")
	retailer := createTestRetailer(t, db, "account-enrol", constants.RetailerStatusActive)
	emitter := &captureEmitter{}
	svc := newTestAccountService(db, emitter)

	holder, err := svc.Enrol(retailer.Slug, "  Shopper@Example.COM ")
	if err != nil {
		t.Fatalf("enrol failed: %v", err)
	}
	if holder.Status != constants.AccountHolderStatusPending {
		t.Fatalf("status want pending got %s", holder.Status)
	}
	if holder.Email != "shopper@example.com" {
		t.Fatalf("email should be normalised, got %s", holder.Email)
	}
	if holder.UUID == uuid.Nil {
		t.Fatalf("holder UUID should be assigned")
	}
	if holder.AccountNumber != nil {
		t.Fatalf("account number is assigned on activation, got %v", *holder.AccountNumber)
	}
	if len(emitter.byType(constants.ActivityAccountRequest)) != 1 {
		t.Fatalf("expected an account request activity, got %+v", emitter.activities)
	}
}

func TestEnrolDuplicateEmail(t *testing.T) {
	db := newServiceTestDB(t, "account_enrol_dup")
	retailer := createTestRetailer(t, db, "account-enrol-dup", constants.RetailerStatusActive)
	svc := newTestAccountService(db, &captureEmitter{})

	if _, err := svc.Enrol(retailer.Slug, "dup@example.com"); err != nil {
		t.Fatalf("first enrol failed: %v", err)
	}
	// same address in a different case still collides
	if _, err := svc.Enrol(retailer.Slug, "DUP@example.com"); !errors.Is(err, ErrAccountHolderExists) {
		t.Fatalf("want ErrAccountHolderExists got %v", err)
	}
}

func TestEnrolRetailerChecks(t *testing.T) {
	db := newServiceTestDB(t, "account_enrol_retailer")
	createTestRetailer(t, db, "account-enrol-inactive", constants.RetailerStatusInactive)
	svc := newTestAccountService(db, &captureEmitter{})

	if _, err := svc.Enrol("nope", "a@example.com"); !errors.Is(err, ErrRetailerNotFound) {
		t.Fatalf("want ErrRetailerNotFound got %v", err)
	}
	if _, err := svc.Enrol("account-enrol-inactive", "a@example.com"); !errors.Is(err, ErrRetailerInactive) {
		t.Fatalf("want ErrRetailerInactive got %v", err)
	}
}

func TestActivateAssignsNumberAndBalances(t *testing.T) {
	db := newServiceTestDB(t, "account_activate")
	retailer := createTestRetailer(t, db, "account-activate", constants.RetailerStatusActive)
	config := createTestRewardConfig(t, db, retailer.ID, "account-activate-voucher", 0)
	first := createAccumulatorCampaign(t, db, retailer.ID, config.ID, "account-activate-c1", 1000, 0, 0)
	second := createAccumulatorCampaign(t, db, retailer.ID, config.ID, "account-activate-c2", 1000, 0, 0)
	holder := createTestHolder(t, db, retailer.ID, "activate@example.com", constants.AccountHolderStatusPending)
	emitter := &captureEmitter{}
	svc := newTestAccountService(db, emitter)

	if err := svc.Activate(holder.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	var reloaded models.AccountHolder
	if err := db.First(&reloaded, holder.ID).Error; err != nil {
		t.Fatalf("reload holder failed: %v", err)
	}
	if reloaded.Status != constants.AccountHolderStatusActive {
		t.Fatalf("status want active got %s", reloaded.Status)
	}
	if reloaded.AccountNumber == nil {
		t.Fatalf("account number should be assigned")
	}
	number := *reloaded.AccountNumber
	if !strings.HasPrefix(number, retailer.AccountNumberPrefix) {
		t.Fatalf("account number %s should start with %s", number, retailer.AccountNumberPrefix)
	}
	if len(number) != retailer.AccountNumberLength {
		t.Fatalf("account number length want %d got %d", retailer.AccountNumberLength, len(number))
	}

	for _, campaign := range []*models.Campaign{first, second} {
		balance := loadBalance(t, db, holder.ID, campaign.ID)
		if balance == nil || balance.Balance != 0 {
			t.Fatalf("zero balance expected for campaign %d, got %+v", campaign.ID, balance)
		}
	}
	if len(emitter.byType(constants.ActivityAccountActivated)) != 1 {
		t.Fatalf("expected an account activated activity, got %+v", emitter.activities)
	}

	// a second run is a no-op
	if err := svc.Activate(holder.ID); err != nil {
		t.Fatalf("repeat activate failed: %v", err)
	}
	var balanceCount int64
	if err := db.Model(&models.CampaignBalance{}).Where("account_holder_id = ?", holder.ID).Count(&balanceCount).Error; err != nil {
		t.Fatalf("count balances failed: %v", err)
	}
	if balanceCount != 2 {
		t.Fatalf("balance rows want 2 got %d", balanceCount)
	}
}

func TestActivateSetsResetDateFromLifespan(t *testing.T) {
	db := newServiceTestDB(t, "account_lifespan")
	retailer := createTestRetailer(t, db, "account-lifespan", constants.RetailerStatusActive)
	if err := db.Model(retailer).Update("balance_lifespan", 30).Error; err != nil {
		t.Fatalf("set lifespan failed: %v", err)
	}
	config := createTestRewardConfig(t, db, retailer.ID, "account-lifespan-voucher", 0)
	campaign := createAccumulatorCampaign(t, db, retailer.ID, config.ID, "account-lifespan-c1", 1000, 0, 0)
	holder := createTestHolder(t, db, retailer.ID, "lifespan@example.com", constants.AccountHolderStatusPending)
	svc := newTestAccountService(db, &captureEmitter{})

	if err := svc.Activate(holder.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	balance := loadBalance(t, db, holder.ID, campaign.ID)
	if balance == nil || balance.ResetDate == nil {
		t.Fatalf("reset date should be scheduled, got %+v", balance)
	}
	want := time.Now().AddDate(0, 0, 30)
	if balance.ResetDate.Before(want.Add(-time.Hour)) || balance.ResetDate.After(want.Add(time.Hour)) {
		t.Fatalf("reset date want about %v got %v", want, balance.ResetDate)
	}
}

func TestActivateUnknownHolder(t *testing.T) {
	db := newServiceTestDB(t, "account_activate_missing")
	svc := newTestAccountService(db, &captureEmitter{})

	if err := svc.Activate(12345); !errors.Is(err, ErrAccountHolderNotFound) {
		t.Fatalf("want ErrAccountHolderNotFound got %v", err)
	}
}

func TestGetAccount(t *testing.T) {
	db := newServiceTestDB(t, "account_get")
	retailer := createTestRetailer(t, db, "account-get", constants.RetailerStatusActive)
	other := createTestRetailer(t, db, "account-get-other", constants.RetailerStatusActive)
	holder := createTestHolder(t, db, retailer.ID, "get@example.com", constants.AccountHolderStatusActive)
	svc := newTestAccountService(db, &captureEmitter{})

	found, err := svc.GetAccount(retailer.Slug, holder.UUID)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if found.ID != holder.ID {
		t.Fatalf("holder id want %d got %d", holder.ID, found.ID)
	}

	// holders are scoped to their retailer
	if _, err := svc.GetAccount(other.Slug, holder.UUID); !errors.Is(err, ErrAccountHolderNotFound) {
		t.Fatalf("want ErrAccountHolderNotFound got %v", err)
	}
	if _, err := svc.GetAccount("nope", holder.UUID); !errors.Is(err, ErrRetailerNotFound) {
		t.Fatalf("want ErrRetailerNotFound got %v", err)
	}
}

func TestResetDueBalances(t *testing.T) {
	db := newServiceTestDB(t, "account_reset")
	retailer := createTestRetailer(t, db, "account-reset", constants.RetailerStatusActive)
	if err := db.Model(retailer).Update("balance_lifespan", 30).Error; err != nil {
		t.Fatalf("set lifespan failed: %v", err)
	}
	config := createTestRewardConfig(t, db, retailer.ID, "account-reset-voucher", 0)
	campaign := createAccumulatorCampaign(t, db, retailer.ID, config.ID, "account-reset-c1", 1000, 0, 0)
	holder := createTestHolder(t, db, retailer.ID, "reset@example.com", constants.AccountHolderStatusActive)

	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.AddDate(0, 0, 10)
	due := models.CampaignBalance{
		AccountHolderID: holder.ID,
		CampaignID:      campaign.ID,
		Balance:         750,
		ResetDate:       &past,
	}
	if err := db.Create(&due).Error; err != nil {
		t.Fatalf("create due balance failed: %v", err)
	}
	otherHolder := createTestHolder(t, db, retailer.ID, "reset-later@example.com", constants.AccountHolderStatusActive)
	notDue := models.CampaignBalance{
		AccountHolderID: otherHolder.ID,
		CampaignID:      campaign.ID,
		Balance:         400,
		ResetDate:       &future,
	}
	if err := db.Create(&notDue).Error; err != nil {
		t.Fatalf("create future balance failed: %v", err)
	}

	emitter := &captureEmitter{}
	svc := newTestAccountService(db, emitter)
	if err := svc.ResetDueBalances(now); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	var reloaded models.CampaignBalance
	if err := db.First(&reloaded, due.ID).Error; err != nil {
		t.Fatalf("reload due balance failed: %v", err)
	}
	if reloaded.Balance != 0 {
		t.Fatalf("due balance should be zeroed, got %d", reloaded.Balance)
	}
	if reloaded.ResetDate == nil || !reloaded.ResetDate.After(now.AddDate(0, 0, 29)) {
		t.Fatalf("next reset should be scheduled from the lifespan, got %v", reloaded.ResetDate)
	}

	var untouched models.CampaignBalance
	if err := db.First(&untouched, notDue.ID).Error; err != nil {
		t.Fatalf("reload future balance failed: %v", err)
	}
	if untouched.Balance != 400 {
		t.Fatalf("future balance should be untouched, got %d", untouched.Balance)
	}
	if len(emitter.byType(constants.ActivityBalanceReset)) != 1 {
		t.Fatalf("expected one balance reset activity, got %+v", emitter.activities)
	}
}
