package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/loyalty-next/internal/cache"
	"github.com/loyalty-next/internal/constants"
	"github.com/loyalty-next/internal/logger"
	"github.com/loyalty-next/internal/models"
	"github.com/loyalty-next/internal/repository"
)

// RetailerService retailer lookup, caching and API key auth
type RetailerService struct {
	retailerRepo repository.RetailerRepository
	cacheTTL     time.Duration
}

// NewRetailerService creates the retailer service
func NewRetailerService(retailerRepo repository.RetailerRepository, cacheTTL time.Duration) *RetailerService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &RetailerService{retailerRepo: retailerRepo, cacheTTL: cacheTTL}
}

// GetBySlug fetches a retailer, serving from the redis cache when possible
func (s *RetailerService) GetBySlug(ctx context.Context, slug string) (*models.Retailer, error) {
	key := retailerCacheKey(slug)
	var cached models.Retailer
	hit, err := cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.Warnw("retailer cache read failed", "slug", slug, "error", err)
	}
	if hit {
		return &cached, nil
	}

	retailer, err := s.retailerRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if retailer == nil {
		return nil, ErrRetailerNotFound
	}
	if err := cache.SetJSON(ctx, key, retailer, s.cacheTTL); err != nil {
		logger.Warnw("retailer cache write failed", "slug", slug, "error", err)
	}
	return retailer, nil
}

// Create creates a retailer with a bcrypt-hashed API key
func (s *RetailerService) Create(retailer *models.Retailer, apiKey string) error {
	if apiKey != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		retailer.APIKeyHash = string(hash)
	}
	if retailer.Status == "" {
		retailer.Status = constants.RetailerStatusActive
	}
	return s.retailerRepo.Create(retailer)
}

// RotateAPIKey replaces the retailer's API key and invalidates the cache
func (s *RetailerService) RotateAPIKey(ctx context.Context, slug, apiKey string) error {
	retailer, err := s.retailerRepo.GetBySlug(slug)
	if err != nil {
		return err
	}
	if retailer == nil {
		return ErrRetailerNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	retailer.APIKeyHash = string(hash)
	if err := s.retailerRepo.Update(retailer); err != nil {
		return err
	}
	if err := cache.Del(ctx, retailerCacheKey(slug)); err != nil {
		logger.Warnw("retailer cache invalidate failed", "slug", slug, "error", err)
	}
	return nil
}

// VerifyAPIKey checks a presented API key against the stored hash
func (s *RetailerService) VerifyAPIKey(retailer *models.Retailer, apiKey string) bool {
	if retailer == nil || retailer.APIKeyHash == "" || apiKey == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(retailer.APIKeyHash), []byte(apiKey)) == nil
}

func retailerCacheKey(slug string) string {
	return fmt.Sprintf("retailer:%s", slug)
}
