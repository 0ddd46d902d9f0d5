package service

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/loyalty-next/internal/activity"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

func newServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Retailer{},
		&models.RetailerStore{},
		&models.AccountHolder{},
		&models.Campaign{},
		&models.EarnRule{},
		&models.RewardRule{},
		&models.RewardConfig{},
		&models.CampaignBalance{},
		&models.PendingReward{},
		&models.Reward{},
		&models.Transaction{},
		&models.TransactionEarn{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

// captureEmitter records emitted activities for assertions
type captureEmitter struct {
	activities []activity.Activity
}

func (e *captureEmitter) Emit(activities ...activity.Activity) {
	e.activities = append(e.activities, activities...)
}

func (e *captureEmitter) byType(activityType string) []activity.Activity {
	var matched []activity.Activity
	for _, a := range e.activities {
		if a.Type == activityType {
			matched = append(matched, a)
		}
	}
	return matched
}

func createTestRetailer(t *testing.T, db *gorm.DB, slug, status string) *models.Retailer {
	t.Helper()

	retailer := models.Retailer{
		Name:                "Test Retailer " + slug,
		Slug:                slug,
		Status:              status,
		LoyaltyName:         "Test Points",
		AccountNumberPrefix: "TP",
		AccountNumberLength: 10,
	}
	if err := db.Create(&retailer).Error; err != nil {
		t.Fatalf("create retailer failed: %v", err)
	}
	return &retailer
}

func createTestStore(t *testing.T, db *gorm.DB, retailerID uint, mid string) {
	t.Helper()

	store := models.RetailerStore{
		RetailerID: retailerID,
		MID:        mid,
		StoreName:  "Store " + mid,
	}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store failed: %v", err)
	}
}

var testAccountNumbers atomic.Int64

func createTestHolder(t *testing.T, db *gorm.DB, retailerID uint, email, status string) *models.AccountHolder {
	t.Helper()

	holder := models.AccountHolder{
		RetailerID: retailerID,
		Email:      email,
		Status:     status,
	}
	if status == constants.AccountHolderStatusActive {
		number := fmt.Sprintf("TP%08d", testAccountNumbers.Add(1))
		holder.AccountNumber = &number
	}
	if err := db.Create(&holder).Error; err != nil {
		t.Fatalf("create account holder failed: %v", err)
	}
	return &holder
}

func createTestRewardConfig(t *testing.T, db *gorm.DB, retailerID uint, slug string, validityDays int) *models.RewardConfig {
	t.Helper()

	config := models.RewardConfig{
		RetailerID:   retailerID,
		Slug:         slug,
		ValidityDays: validityDays,
	}
	if err := db.Create(&config).Error; err != nil {
		t.Fatalf("create reward config failed: %v", err)
	}
	return &config
}

func createTestCampaign(t *testing.T, db *gorm.DB, campaign models.Campaign) *models.Campaign {
	t.Helper()

	if err := db.Create(&campaign).Error; err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return &campaign
}

func createTestBalance(t *testing.T, db *gorm.DB, holderID, campaignID uint, balance int64) {
	t.Helper()

	row := models.CampaignBalance{
		AccountHolderID: holderID,
		CampaignID:      campaignID,
		Balance:         balance,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create balance failed: %v", err)
	}
}

func createTestPending(t *testing.T, db *gorm.DB, holderID, campaignID uint, count int, value, cost int64, createdDate time.Time) *models.PendingReward {
	t.Helper()

	pending := models.PendingReward{
		AccountHolderID: holderID,
		CampaignID:      campaignID,
		Value:           value,
		Count:           count,
		TotalCostToUser: cost,
		CreatedDate:     createdDate,
		ConversionDate:  createdDate.AddDate(0, 0, 7),
	}
	if err := db.Create(&pending).Error; err != nil {
		t.Fatalf("create pending reward failed: %v", err)
	}
	return &pending
}

func newTestTransactionService(db *gorm.DB, emitter activity.Emitter) *TransactionService {
	return NewTransactionService(
		repository.NewTransactionRepository(db),
		repository.NewRetailerRepository(db),
		repository.NewAccountHolderRepository(db),
		repository.NewCampaignRepository(db),
		repository.NewCampaignBalanceRepository(db),
		repository.NewPendingRewardRepository(db),
		emitter,
		nil,
		3,
		0,
	)
}

func loadBalance(t *testing.T, db *gorm.DB, holderID, campaignID uint) *models.CampaignBalance {
	t.Helper()

	var balance models.CampaignBalance
	err := db.Where("account_holder_id = ? AND campaign_id = ?", holderID, campaignID).First(&balance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		t.Fatalf("load balance failed: %v", err)
	}
	return &balance
}

// accumulator campaign earning 10% of spend over a pound, high goal so no
// reward crossing happens unless a test wants one
func createAccumulatorCampaign(t *testing.T, db *gorm.DB, retailerID, configID uint, slug string, goal int64, window, cap int) *models.Campaign {
	t.Helper()

	return createTestCampaign(t, db, models.Campaign{
		RetailerID:  retailerID,
		Slug:        slug,
		Name:        "Accumulator " + slug,
		Status:      constants.CampaignStatusActive,
		LoyaltyType: constants.LoyaltyTypeAccumulator,
		EarnRule: &models.EarnRule{
			Threshold:           100,
			IncrementMultiplier: decimal.NewFromFloat(0.1),
		},
		RewardRule: &models.RewardRule{
			RewardGoal:       goal,
			AllocationWindow: window,
			RewardCap:        cap,
			RewardConfigID:   configID,
		},
	})
}

type txFixture struct {
	db       *gorm.DB
	svc      *TransactionService
	emitter  *captureEmitter
	retailer *models.Retailer
	holder   *models.AccountHolder
	campaign *models.Campaign
}

func setupTransactionTest(t *testing.T, name string, goal int64, window, cap int) *txFixture {
	t.Helper()

	db := newServiceTestDB(t, name)
	retailer := createTestRetailer(t, db, name, constants.RetailerStatusActive)
	createTestStore(t, db, retailer.ID, name+"-mid")
	holder := createTestHolder(t, db, retailer.ID, name+"@example.com", constants.AccountHolderStatusActive)
	config := createTestRewardConfig(t, db, retailer.ID, name+"-voucher", 90)
	campaign := createAccumulatorCampaign(t, db, retailer.ID, config.ID, name+"-campaign", goal, window, cap)
	emitter := &captureEmitter{}
	return &txFixture{
		db:       db,
		svc:      newTestTransactionService(db, emitter),
		emitter:  emitter,
		retailer: retailer,
		holder:   holder,
		campaign: campaign,
	}
}

func (f *txFixture) request(transactionID string, amount int64) ProcessRequest {
	return ProcessRequest{
		RetailerSlug:      f.retailer.Slug,
		TransactionID:     transactionID,
		AccountHolderUUID: f.holder.UUID,
		Amount:            amount,
		MID:               f.retailer.Slug + "-mid",
		Datetime:          time.Now().Add(time.Minute),
	}
}

func TestProcessAccumulatorAwarded(t *testing.T) {
	f := setupTransactionTest(t, "tx_awarded", 1000000, 0, 0)

	result, err := f.svc.Process(f.request("tx-1", 2499))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Response != constants.TxResponseAwarded {
		t.Fatalf("response want %s got %s", constants.TxResponseAwarded, result.Response)
	}
	if len(result.Earns) != 1 || !result.Earns[0].Accepted || result.Earns[0].Amount != 250 {
		t.Fatalf("unexpected earns: %+v", result.Earns)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 250 {
		t.Fatalf("balance want 250 got %+v", balance)
	}

	var txn models.Transaction
	if err := f.db.Where("transaction_id = ?", "tx-1").First(&txn).Error; err != nil {
		t.Fatalf("load transaction failed: %v", err)
	}
	if txn.Processed == nil || !*txn.Processed {
		t.Fatalf("transaction should be marked processed, got %+v", txn.Processed)
	}
	var earnCount int64
	if err := f.db.Model(&models.TransactionEarn{}).Where("transaction_id = ?", txn.ID).Count(&earnCount).Error; err != nil {
		t.Fatalf("count earns failed: %v", err)
	}
	if earnCount != 1 {
		t.Fatalf("earn rows want 1 got %d", earnCount)
	}

	if len(f.emitter.byType(constants.ActivityBalanceChange)) != 1 {
		t.Fatalf("expected one balance change activity, got %+v", f.emitter.activities)
	}
	if len(f.emitter.byType(constants.ActivityTxHistory)) != 1 {
		t.Fatalf("expected one tx history activity, got %+v", f.emitter.activities)
	}
}

func TestProcessBelowThresholdNotEarned(t *testing.T) {
	f := setupTransactionTest(t, "tx_threshold", 1000000, 0, 0)

	result, err := f.svc.Process(f.request("tx-1", 99))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Response != constants.TxResponseThresholdNotMet {
		t.Fatalf("response want %s got %s", constants.TxResponseThresholdNotMet, result.Response)
	}
	if result.Earns[0].Accepted {
		t.Fatalf("earn should not be accepted: %+v", result.Earns)
	}
	if balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID); balance != nil {
		t.Fatalf("no balance row expected, got %+v", balance)
	}

	// the attempt still lands in the ledger
	var txn models.Transaction
	if err := f.db.Where("transaction_id = ?", "tx-1").First(&txn).Error; err != nil {
		t.Fatalf("load transaction failed: %v", err)
	}
	if txn.Processed == nil || !*txn.Processed {
		t.Fatalf("transaction should be marked processed, got %+v", txn.Processed)
	}
}

func TestProcessRefundMirrorsSpend(t *testing.T) {
	f := setupTransactionTest(t, "tx_refund", 1000000, 0, 0)

	if _, err := f.svc.Process(f.request("tx-spend", 2499)); err != nil {
		t.Fatalf("spend failed: %v", err)
	}
	result, err := f.svc.Process(f.request("tx-refund", -2499))
	if err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	if result.Response != constants.TxResponseRefundAccepted {
		t.Fatalf("response want %s got %s", constants.TxResponseRefundAccepted, result.Response)
	}
	if result.Earns[0].Amount != -250 {
		t.Fatalf("refund earn want -250 got %d", result.Earns[0].Amount)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 0 {
		t.Fatalf("balance should return to zero, got %+v", balance)
	}
}

func TestProcessRefundBelowThresholdNotAccepted(t *testing.T) {
	f := setupTransactionTest(t, "tx_refund_small", 1000000, 0, 0)

	result, err := f.svc.Process(f.request("tx-1", -50))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Response != constants.TxResponseRefundsNotAccepted {
		t.Fatalf("response want %s got %s", constants.TxResponseRefundsNotAccepted, result.Response)
	}
}

func TestProcessDuplicateTransaction(t *testing.T) {
	f := setupTransactionTest(t, "tx_duplicate", 1000000, 0, 0)

	if _, err := f.svc.Process(f.request("tx-dup", 2000)); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	_, err := f.svc.Process(f.request("tx-dup", 2000))
	if !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("want ErrDuplicateTransaction got %v", err)
	}

	// both attempts stay on record, the rejected one with processed NULL
	var rows []models.Transaction
	if err := f.db.Where("transaction_id = ?", "tx-dup").Order("id asc").Find(&rows).Error; err != nil {
		t.Fatalf("load transactions failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("transaction rows want 2 got %d", len(rows))
	}
	if rows[0].Processed == nil || !*rows[0].Processed {
		t.Fatalf("first row should be processed, got %+v", rows[0].Processed)
	}
	if rows[1].Processed != nil {
		t.Fatalf("duplicate row should have processed NULL, got %+v", rows[1].Processed)
	}

	// the duplicate earns nothing
	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 200 {
		t.Fatalf("balance want 200 got %+v", balance)
	}
}

func TestProcessRewardCrossingLeavesRemainder(t *testing.T) {
	// goal 1000, no window, no cap: a 25000 spend earns 2500, crosses twice
	// and leaves 500 on the balance
	f := setupTransactionTest(t, "tx_crossing", 1000, 0, 0)

	result, err := f.svc.Process(f.request("tx-1", 25000))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Response != constants.TxResponseAwarded {
		t.Fatalf("response want %s got %s", constants.TxResponseAwarded, result.Response)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 500 {
		t.Fatalf("balance want 500 got %+v", balance)
	}
	var pendingCount int64
	if err := f.db.Model(&models.PendingReward{}).Count(&pendingCount).Error; err != nil {
		t.Fatalf("count pendings failed: %v", err)
	}
	if pendingCount != 0 {
		t.Fatalf("no pending rewards expected without a window, got %d", pendingCount)
	}
}

func TestProcessRewardCapConsumesWholeEarn(t *testing.T) {
	// cap 1: the earn crosses three times but only one reward is allowed, the
	// whole earn is consumed and the balance ends where it started
	f := setupTransactionTest(t, "tx_cap", 1000, 0, 1)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 900)

	if _, err := f.svc.Process(f.request("tx-1", 21000)); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 900 {
		t.Fatalf("balance should stay at 900 when the cap bites, got %+v", balance)
	}
}

func TestProcessAllocationWindowCreatesPending(t *testing.T) {
	f := setupTransactionTest(t, "tx_window", 1000, 7, 0)

	if _, err := f.svc.Process(f.request("tx-1", 25000)); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	var pending models.PendingReward
	if err := f.db.First(&pending).Error; err != nil {
		t.Fatalf("load pending reward failed: %v", err)
	}
	if pending.Count != 2 || pending.Value != 1000 || pending.TotalCostToUser != 2000 {
		t.Fatalf("unexpected pending reward: %+v", pending)
	}
	wantConversion := time.Now().AddDate(0, 0, 7)
	if pending.ConversionDate.Before(wantConversion.Add(-time.Hour)) || pending.ConversionDate.After(wantConversion.Add(time.Hour)) {
		t.Fatalf("conversion date want about %v got %v", wantConversion, pending.ConversionDate)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 500 {
		t.Fatalf("balance want 500 got %+v", balance)
	}
	if len(f.emitter.byType(constants.ActivityPendingRewardStatus)) != 1 {
		t.Fatalf("expected a pending reward activity, got %+v", f.emitter.activities)
	}
}

func TestRefundAbsorbedBySinglePendingSlush(t *testing.T) {
	f := setupTransactionTest(t, "tx_slush_one", 1000, 7, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 300)
	pending := createTestPending(t, f.db, f.holder.ID, f.campaign.ID, 1, 1000, 1200, time.Now().Add(-time.Hour))

	// refund of 1500 pence earns -150, fully covered by the 200 slush
	if _, err := f.svc.Process(f.request("tx-refund", -1500)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 300 {
		t.Fatalf("balance should be untouched, got %+v", balance)
	}
	var reloaded models.PendingReward
	if err := f.db.First(&reloaded, pending.ID).Error; err != nil {
		t.Fatalf("reload pending failed: %v", err)
	}
	if reloaded.TotalCostToUser != 1050 {
		t.Fatalf("pending cost want 1050 got %d", reloaded.TotalCostToUser)
	}
	if reloaded.Count != 1 {
		t.Fatalf("pending count should be unchanged, got %d", reloaded.Count)
	}
}

func TestRefundAbsorbedByCollectiveSlush(t *testing.T) {
	f := setupTransactionTest(t, "tx_slush_many", 1000, 7, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 300)
	older := createTestPending(t, f.db, f.holder.ID, f.campaign.ID, 1, 1000, 1100, time.Now().Add(-2*time.Hour))
	newer := createTestPending(t, f.db, f.holder.ID, f.campaign.ID, 1, 1000, 1100, time.Now().Add(-time.Hour))

	// shortfall 150 against two slushes of 100: oldest drained first
	if _, err := f.svc.Process(f.request("tx-refund", -1500)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var first, second models.PendingReward
	if err := f.db.First(&first, older.ID).Error; err != nil {
		t.Fatalf("reload older pending failed: %v", err)
	}
	if err := f.db.First(&second, newer.ID).Error; err != nil {
		t.Fatalf("reload newer pending failed: %v", err)
	}
	if first.TotalCostToUser != 1000 {
		t.Fatalf("older pending should be fully drained to 1000, got %d", first.TotalCostToUser)
	}
	if second.TotalCostToUser != 1050 {
		t.Fatalf("newer pending cost want 1050 got %d", second.TotalCostToUser)
	}
	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 300 {
		t.Fatalf("balance should be untouched, got %+v", balance)
	}
}

func TestRefundFallsThroughToBalance(t *testing.T) {
	f := setupTransactionTest(t, "tx_refund_balance", 1000000, 0, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 500)

	if _, err := f.svc.Process(f.request("tx-refund", -2000)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 300 {
		t.Fatalf("balance want 300 got %+v", balance)
	}
}

func TestRefundRecoupsFromPendingValue(t *testing.T) {
	f := setupTransactionTest(t, "tx_recoup_value", 1000, 7, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 100)
	pending := createTestPending(t, f.db, f.holder.ID, f.campaign.ID, 3, 1000, 3000, time.Now().Add(-time.Hour))

	// shortfall 1600: no slush, balance covers 100, the remaining 1500 removes
	// two whole rewards (2000) and the 500 over-recoup is credited back
	if _, err := f.svc.Process(f.request("tx-refund", -16000)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var reloaded models.PendingReward
	if err := f.db.First(&reloaded, pending.ID).Error; err != nil {
		t.Fatalf("reload pending failed: %v", err)
	}
	if reloaded.Count != 1 {
		t.Fatalf("pending count want 1 got %d", reloaded.Count)
	}
	if reloaded.TotalCostToUser != 1000 {
		t.Fatalf("pending cost want 1000 got %d", reloaded.TotalCostToUser)
	}
	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 500 {
		t.Fatalf("balance want 500 (over-recoup credit) got %+v", balance)
	}
}

func TestRefundDeletesWhollyConsumedPending(t *testing.T) {
	f := setupTransactionTest(t, "tx_recoup_delete", 1000, 7, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 0)
	createTestPending(t, f.db, f.holder.ID, f.campaign.ID, 1, 1000, 1000, time.Now().Add(-time.Hour))

	// shortfall exactly one reward value: the pending row goes away entirely
	if _, err := f.svc.Process(f.request("tx-refund", -10000)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	var count int64
	if err := f.db.Model(&models.PendingReward{}).Count(&count).Error; err != nil {
		t.Fatalf("count pendings failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("pending reward should be deleted, got %d rows", count)
	}
	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != 0 {
		t.Fatalf("balance want 0 got %+v", balance)
	}
}

func TestRefundNotRecoupedGoesNegative(t *testing.T) {
	f := setupTransactionTest(t, "tx_negative", 1000000, 0, 0)
	createTestBalance(t, f.db, f.holder.ID, f.campaign.ID, 50)

	if _, err := f.svc.Process(f.request("tx-refund", -2000)); err != nil {
		t.Fatalf("refund failed: %v", err)
	}

	balance := loadBalance(t, f.db, f.holder.ID, f.campaign.ID)
	if balance == nil || balance.Balance != -150 {
		t.Fatalf("balance want -150 got %+v", balance)
	}
	notRecouped := f.emitter.byType(constants.ActivityRefundNotRecouped)
	if len(notRecouped) != 1 {
		t.Fatalf("expected one not-recouped activity, got %+v", f.emitter.activities)
	}
	if amount, ok := notRecouped[0].Data["amount"].(int64); !ok || amount != 150 {
		t.Fatalf("not-recouped amount want 150 got %+v", notRecouped[0].Data["amount"])
	}
}

func TestProcessValidation(t *testing.T) {
	f := setupTransactionTest(t, "tx_validation", 1000000, 0, 0)

	createTestRetailer(t, f.db, "tx-validation-inactive", constants.RetailerStatusInactive)
	otherRetailer := createTestRetailer(t, f.db, "tx-validation-other", constants.RetailerStatusActive)
	pendingHolder := createTestHolder(t, f.db, f.retailer.ID, "pending@example.com", constants.AccountHolderStatusPending)

	cases := []struct {
		name    string
		mutate  func(req *ProcessRequest)
		wantErr error
	}{
		{
			name:    "unknown retailer",
			mutate:  func(req *ProcessRequest) { req.RetailerSlug = "nope" },
			wantErr: ErrRetailerNotFound,
		},
		{
			name:    "inactive retailer",
			mutate:  func(req *ProcessRequest) { req.RetailerSlug = "tx-validation-inactive" },
			wantErr: ErrRetailerInactive,
		},
		{
			name:    "unknown account holder",
			mutate:  func(req *ProcessRequest) { req.AccountHolderUUID = uuid.New() },
			wantErr: ErrAccountHolderNotFound,
		},
		{
			name:    "holder of another retailer",
			mutate:  func(req *ProcessRequest) { req.RetailerSlug = otherRetailer.Slug },
			wantErr: ErrAccountHolderNotFound,
		},
		{
			name:    "holder not active",
			mutate:  func(req *ProcessRequest) { req.AccountHolderUUID = pendingHolder.UUID },
			wantErr: ErrAccountHolderNotActive,
		},
		{
			name:    "transaction predates account",
			mutate:  func(req *ProcessRequest) { req.Datetime = time.Now().AddDate(-1, 0, 0) },
			wantErr: ErrInvalidTxDate,
		},
		{
			name:    "unknown mid",
			mutate:  func(req *ProcessRequest) { req.MID = "nope" },
			wantErr: ErrNoMatchingStore,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.request("tx-"+tc.name, 2000)
			tc.mutate(&req)
			if _, err := f.svc.Process(req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestProcessNoActiveCampaigns(t *testing.T) {
	db := newServiceTestDB(t, "tx_no_campaigns")
	retailer := createTestRetailer(t, db, "tx-no-campaigns", constants.RetailerStatusActive)
	createTestStore(t, db, retailer.ID, "tx-no-campaigns-mid")
	holder := createTestHolder(t, db, retailer.ID, "nc@example.com", constants.AccountHolderStatusActive)
	svc := newTestTransactionService(db, activity.NopEmitter{})

	_, err := svc.Process(ProcessRequest{
		RetailerSlug:      retailer.Slug,
		TransactionID:     "tx-1",
		AccountHolderUUID: holder.UUID,
		Amount:            2000,
		MID:               "tx-no-campaigns-mid",
		Datetime:          time.Now().Add(time.Minute),
	})
	if !errors.Is(err, ErrNoActiveCampaigns) {
		t.Fatalf("want ErrNoActiveCampaigns got %v", err)
	}
}

func TestProcessLocksBalancesInCampaignIDOrder(t *testing.T) {
	// two active campaigns must come back ascending by id, since that order
	// fixes the lock order across concurrent transactions
	f := setupTransactionTest(t, "tx_lock_order", 1000000, 0, 0)
	config := createTestRewardConfig(t, f.db, f.retailer.ID, "tx-lock-order-second", 0)
	second := createAccumulatorCampaign(t, f.db, f.retailer.ID, config.ID, "tx-lock-order-2", 1000000, 0, 0)

	result, err := f.svc.Process(f.request("tx-1", 2000))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(result.Earns) != 2 {
		t.Fatalf("earns want 2 got %d", len(result.Earns))
	}
	if result.Earns[0].Campaign.ID != f.campaign.ID || result.Earns[1].Campaign.ID != second.ID {
		t.Fatalf("earns out of campaign id order: %d then %d", result.Earns[0].Campaign.ID, result.Earns[1].Campaign.ID)
	}
}
