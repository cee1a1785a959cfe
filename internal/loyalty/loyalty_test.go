package loyalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository/memory"
)

func TestEarnedPoints(t *testing.T) {
	active := &domain.LoyaltySettings{PointsPerPeso: 0.1, IsActive: true}

	tests := []struct {
		name     string
		settings *domain.LoyaltySettings
		total    float64
		want     int64
	}{
		{"nil settings", nil, 100, 0},
		{"inactive", &domain.LoyaltySettings{PointsPerPeso: 1}, 100, 0},
		{"floors", active, 129.99, 12},
		{"exact", active, 120, 12},
		{"zero total", active, 0, 0},
		{"one per peso", &domain.LoyaltySettings{PointsPerPeso: 1, IsActive: true}, 12.5, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EarnedPoints(tt.settings, tt.total))
		})
	}
}

func TestRedeemable_KeepsOrderAndDuplicates(t *testing.T) {
	settings := &domain.LoyaltySettings{
		IsActive: true,
		RedemptionRules: []domain.RedemptionRule{
			{PointsRequired: 200, DiscountAmount: 25},
			{PointsRequired: 100, DiscountAmount: 10},
			{PointsRequired: 100, DiscountAmount: 12},
			{PointsRequired: 500, DiscountAmount: 80},
		},
	}

	rules := Redeemable(settings, 250)
	require.Len(t, rules, 3)
	assert.Equal(t, int64(200), rules[0].PointsRequired)
	assert.Equal(t, 12.0, rules[2].DiscountAmount)

	assert.Empty(t, Redeemable(settings, 50))
	settings.IsActive = false
	assert.Empty(t, Redeemable(settings, 1000))
}

func TestService_DefaultsAndSave(t *testing.T) {
	svc := NewService(memory.NewStore().Loyalty)
	ctx := context.Background()

	settings, err := svc.Settings(ctx, "vendor-1")
	require.NoError(t, err)
	assert.False(t, settings.IsActive)
	assert.Empty(t, settings.RedemptionRules)

	saved, err := svc.Save(ctx, "vendor-1", &domain.LoyaltySettings{
		PointsPerPeso:   0.5,
		IsActive:        true,
		RedemptionRules: []domain.RedemptionRule{{PointsRequired: 100, DiscountAmount: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, "vendor-1", saved.ID)

	saved.PointsPerPeso = 2
	_, err = svc.Save(ctx, "vendor-1", saved)
	require.NoError(t, err)

	settings, err = svc.Settings(ctx, "vendor-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, settings.PointsPerPeso)
	assert.Len(t, settings.RedemptionRules, 1)
}

func TestService_RejectsInvalidRules(t *testing.T) {
	svc := NewService(memory.NewStore().Loyalty)

	_, err := svc.Save(context.Background(), "vendor-1", &domain.LoyaltySettings{
		IsActive:        true,
		RedemptionRules: []domain.RedemptionRule{{PointsRequired: 0, DiscountAmount: 10}},
	})
	assert.ErrorIs(t, err, ErrInvalidSettings)
}
