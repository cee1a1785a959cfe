// Package loyalty computes informational loyalty points. Points are never
// deducted from order totals.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

var ErrInvalidSettings = errors.New("invalid loyalty settings")

var validate = validator.New()

// EarnedPoints is floor(total × pointsPerPeso) for active settings.
func EarnedPoints(settings *domain.LoyaltySettings, total float64) int64 {
	if settings == nil || !settings.IsActive || settings.PointsPerPeso <= 0 || total <= 0 {
		return 0
	}
	return decimal.NewFromFloat(total).
		Mul(decimal.NewFromFloat(settings.PointsPerPeso)).
		Floor().
		IntPart()
}

// Redeemable lists, in configured order, the rules a balance of points
// satisfies. Duplicate thresholds are kept as configured.
func Redeemable(settings *domain.LoyaltySettings, points int64) []domain.RedemptionRule {
	if settings == nil || !settings.IsActive {
		return nil
	}
	var rules []domain.RedemptionRule
	for _, r := range settings.RedemptionRules {
		if r.PointsRequired <= points {
			rules = append(rules, r)
		}
	}
	return rules
}

type Service struct {
	repo repository.LoyaltySettingsRepository
}

func NewService(repo repository.LoyaltySettingsRepository) *Service {
	return &Service{repo: repo}
}

// Settings returns the vendor's settings, or inactive defaults when the
// vendor never configured loyalty.
func (s *Service) Settings(ctx context.Context, vendorID string) (*domain.LoyaltySettings, error) {
	settings, err := s.repo.Get(ctx, repository.Key{VendorID: vendorID, ID: vendorID})
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.LoyaltySettings{ID: vendorID, VendorID: vendorID, RedemptionRules: []domain.RedemptionRule{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load loyalty settings: %w", err)
	}
	return settings, nil
}

func (s *Service) Save(ctx context.Context, vendorID string, settings *domain.LoyaltySettings) (*domain.LoyaltySettings, error) {
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	settings.ID = vendorID
	settings.VendorID = vendorID
	settings.UpdatedAt = time.Now().UTC()
	if settings.RedemptionRules == nil {
		settings.RedemptionRules = []domain.RedemptionRule{}
	}

	err := s.repo.Update(ctx, settings)
	if errors.Is(err, repository.ErrNotFound) {
		err = s.repo.Create(ctx, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save loyalty settings: %w", err)
	}
	return settings, nil
}
