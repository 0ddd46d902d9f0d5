package main

import (
	"fmt"
	"time"

	"github.com/loyalty-next/internal/config"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
	"github.com/loyalty-next/internal/service"

	"github.com/shopspring/decimal"
)

const seedAPIKey = "acme-dev-api-key"

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	retailerService := service.NewRetailerService(repository.NewRetailerRepository(models.DB), 0)

	// Retailers
	retailers := []models.Retailer{
		{
			Name:                "Acme Supermarkets",
			Slug:                "acme",
			Status:              constants.RetailerStatusActive,
			LoyaltyName:         "Acme Points",
			AccountNumberPrefix: "ACME",
			AccountNumberLength: 12,
			BalanceLifespan:     365,
		},
		{
			Name:                "Acme Staging",
			Slug:                "acme-test",
			Status:              constants.RetailerStatusTest,
			LoyaltyName:         "Acme Points (staging)",
			AccountNumberPrefix: "ACMT",
			AccountNumberLength: 12,
			BalanceLifespan:     0,
		},
	}
	for i := range retailers {
		seedRetailer := retailers[i]
		var existing models.Retailer
		if err := models.DB.Where("slug = ?", seedRetailer.Slug).First(&existing).Error; err != nil {
			if err := retailerService.Create(&seedRetailer, seedAPIKey); err != nil {
				stdLog.Printf("Failed to create retailer %s: %v", seedRetailer.Slug, err)
			} else {
				stdLog.Printf("Created retailer: %s", seedRetailer.Slug)
			}
		} else {
			stdLog.Printf("Retailer already exists: %s", seedRetailer.Slug)
		}
	}

	var acme models.Retailer
	if err := models.DB.Where("slug = ?", "acme").First(&acme).Error; err != nil {
		stdLog.Fatalf("Failed to load seeded retailer: %v", err)
	}

	// Stores
	stores := []models.RetailerStore{
		{RetailerID: acme.ID, MID: "acme-1001", StoreName: "Acme High Street"},
		{RetailerID: acme.ID, MID: "acme-1002", StoreName: "Acme Riverside"},
	}
	for _, store := range stores {
		var existing models.RetailerStore
		if err := models.DB.Where("mid = ?", store.MID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&store).Error; err != nil {
				stdLog.Printf("Failed to create store %s: %v", store.MID, err)
			} else {
				stdLog.Printf("Created store: %s", store.MID)
			}
		} else {
			stdLog.Printf("Store already exists: %s", store.MID)
		}
	}

	// Reward config
	rewardConfig := models.RewardConfig{
		RetailerID:   acme.ID,
		Slug:         "ten-pound-voucher",
		ValidityDays: 90,
	}
	var existingConfig models.RewardConfig
	if err := models.DB.Where("slug = ?", rewardConfig.Slug).First(&existingConfig).Error; err != nil {
		if err := models.DB.Create(&rewardConfig).Error; err != nil {
			stdLog.Fatalf("Failed to create reward config: %v", err)
		}
		stdLog.Printf("Created reward config: %s", rewardConfig.Slug)
	} else {
		rewardConfig = existingConfig
		stdLog.Printf("Reward config already exists: %s", rewardConfig.Slug)
	}

	// Campaigns with earn and reward rules
	now := time.Now()
	campaigns := []models.Campaign{
		{
			RetailerID:  acme.ID,
			Slug:        "points-2026",
			Name:        "Acme Points 2026",
			Status:      constants.CampaignStatusActive,
			LoyaltyType: constants.LoyaltyTypeAccumulator,
			StartDate:   &now,
			EarnRule: &models.EarnRule{
				Threshold:           100,
				IncrementMultiplier: decimal.NewFromFloat(0.1),
				MaxAmount:           5000,
			},
			RewardRule: &models.RewardRule{
				RewardGoal:     1000,
				RewardCap:      3,
				RewardConfigID: rewardConfig.ID,
			},
		},
		{
			RetailerID:  acme.ID,
			Slug:        "coffee-stamps",
			Name:        "Coffee Stamps",
			Status:      constants.CampaignStatusActive,
			LoyaltyType: constants.LoyaltyTypeStamps,
			StartDate:   &now,
			EarnRule: &models.EarnRule{
				Threshold:           300,
				Increment:           1,
				IncrementMultiplier: decimal.NewFromInt(1),
			},
			RewardRule: &models.RewardRule{
				RewardGoal:       10,
				AllocationWindow: 7,
				RewardCap:        1,
				RewardConfigID:   rewardConfig.ID,
			},
		},
	}
	for _, campaign := range campaigns {
		var existing models.Campaign
		if err := models.DB.Where("slug = ?", campaign.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&campaign).Error; err != nil {
				stdLog.Printf("Failed to create campaign %s: %v", campaign.Slug, err)
			} else {
				stdLog.Printf("Created campaign: %s", campaign.Slug)
			}
		} else {
			stdLog.Printf("Campaign already exists: %s", campaign.Slug)
		}
	}

	var campaignList []models.Campaign
	if err := models.DB.Where("retailer_id = ?", acme.ID).Order("id asc").Find(&campaignList).Error; err != nil {
		stdLog.Fatalf("Failed to load campaigns: %v", err)
	}

	// Test account holders, pre-activated with zero balances
	holders := []struct {
		Email  string
		Number string
	}{
		{Email: "alice@example.com", Number: "ACME00000001"},
		{Email: "bob@example.com", Number: "ACME00000002"},
	}
	for _, seed := range holders {
		var existing models.AccountHolder
		if err := models.DB.Where("retailer_id = ? AND email = ?", acme.ID, seed.Email).First(&existing).Error; err == nil {
			stdLog.Printf("Account holder already exists: %s", seed.Email)
			continue
		}
		number := seed.Number
		holder := models.AccountHolder{
			RetailerID:    acme.ID,
			Email:         seed.Email,
			Status:        constants.AccountHolderStatusActive,
			AccountNumber: &number,
		}
		if err := models.DB.Create(&holder).Error; err != nil {
			stdLog.Printf("Failed to create account holder %s: %v", seed.Email, err)
			continue
		}
		balances := make([]models.CampaignBalance, 0, len(campaignList))
		for i := range campaignList {
			balances = append(balances, models.CampaignBalance{
				AccountHolderID: holder.ID,
				CampaignID:      campaignList[i].ID,
			})
		}
		if err := models.DB.Create(&balances).Error; err != nil {
			stdLog.Printf("Failed to create balances for %s: %v", seed.Email, err)
			continue
		}
		stdLog.Printf("Created account holder: %s (%s)", seed.Email, holder.UUID)
	}

	fmt.Println("\nSeed data created.")
	fmt.Println("Summary:")
	fmt.Println("- 2 Retailers (acme, acme-test)")
	fmt.Println("- 2 Stores (acme-1001, acme-1002)")
	fmt.Println("- 2 Campaigns (points-2026 accumulator, coffee-stamps stamps)")
	fmt.Println("- 1 Reward config (ten-pound-voucher)")
	fmt.Println("- 2 Account holders (alice, bob)")
	fmt.Printf("- API key: %s\n", seedAPIKey)

	if cfg.JWT.SecretKey != "" {
		token, err := service.SignOperatorToken(cfg.JWT.SecretKey, "seed-operator", cfg.JWT.ExpireHours)
		if err != nil {
			stdLog.Printf("Failed to sign operator token: %v", err)
		} else {
			fmt.Printf("- Operator token: %s\n", token)
		}
	}
}
