package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/mkmonette/dish-nation-suite-sub001/internal/cart"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/domain"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/logger"
	"github.com/mkmonette/dish-nation-suite-sub001/internal/repository"
)

var (
	ErrItemNotFound     = errors.New("menu item not found")
	ErrItemUnavailable  = errors.New("menu item is not available")
	ErrUnknownVariation = errors.New("unknown variation")
	ErrUnknownAddOn     = errors.New("unknown add-on")
	ErrInvalidItem      = errors.New("invalid menu item")
)

var validate = validator.New()

type Service struct {
	items repository.MenuItemRepository
	cache MenuCache
	sfg   singleflight.Group
}

func NewService(items repository.MenuItemRepository, cache MenuCache) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		items: items,
		cache: cache,
	}
}

// Menu returns the vendor's available items. Concurrent cache misses for
// one vendor share a single repository read.
func (s *Service) Menu(ctx context.Context, vendorID string) ([]*domain.MenuItem, error) {
	v, err, _ := s.sfg.Do(vendorID, func() (interface{}, error) {
		items, err := s.cache.Get(ctx, vendorID)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			logger.FromContext(ctx).WithError(err).Warn("menu cache get failed")
		}

		items, err = s.items.GetAll(ctx, vendorID)
		if err != nil {
			return nil, err
		}

		if errSet := s.cache.Set(ctx, vendorID, items); errSet != nil {
			logger.FromContext(ctx).WithError(errSet).Warn("menu cache set failed")
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}

	all := v.([]*domain.MenuItem)
	available := make([]*domain.MenuItem, 0, len(all))
	for _, item := range all {
		if item.IsAvailable {
			available = append(available, item)
		}
	}
	return available, nil
}

// Resolve prices a cart against the current menu. Every selection must name
// an available item and only variations and add-ons that item offers.
func (s *Service) Resolve(ctx context.Context, vendorID string, selections []cart.Selection) ([]cart.Line, error) {
	lines := make([]cart.Line, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity < 1 || sel.Quantity > cart.MaxLineQuantity {
			return nil, cart.ErrInvalidQuantity
		}
		item, err := s.GetItem(ctx, vendorID, sel.MenuItemID)
		if err != nil {
			return nil, err
		}
		if !item.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}

		line := cart.Line{MenuItem: item, Quantity: sel.Quantity}
		if sel.VariationID != "" {
			variation, ok := item.Variation(sel.VariationID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownVariation, sel.VariationID)
			}
			line.Variation = variation
		}
		for _, id := range sel.AddOnIDs {
			addOn, ok := item.AddOn(id)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAddOn, id)
			}
			line.AddOns = append(line.AddOns, *addOn)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) GetItem(ctx context.Context, vendorID, id string) (*domain.MenuItem, error) {
	item, err := s.items.Get(ctx, repository.Key{VendorID: vendorID, ID: id})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	return item, nil
}

func (s *Service) ListItems(ctx context.Context, vendorID string) ([]*domain.MenuItem, error) {
	return s.items.GetAll(ctx, vendorID)
}

func (s *Service) CreateItem(ctx context.Context, vendorID string, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := validate.Struct(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	now := time.Now().UTC()
	item.ID = uuid.NewString()
	item.VendorID = vendorID
	item.CreatedAt = now
	item.UpdatedAt = now
	assignOptionIDs(item)

	if err := s.items.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}
	s.invalidate(ctx, vendorID)
	return item, nil
}

// UpdateItem replaces a menu item. Stored orders keep their own snapshot.
func (s *Service) UpdateItem(ctx context.Context, vendorID string, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := validate.Struct(item); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	existing, err := s.GetItem(ctx, vendorID, item.ID)
	if err != nil {
		return nil, err
	}
	item.VendorID = vendorID
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	assignOptionIDs(item)

	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}
	s.invalidate(ctx, vendorID)
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, vendorID, id string) error {
	err := s.items.Delete(ctx, repository.Key{VendorID: vendorID, ID: id})
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	s.invalidate(ctx, vendorID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, vendorID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, vendorID); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("menu cache invalidate failed")
	}
}

func assignOptionIDs(item *domain.MenuItem) {
	for i := range item.Variations {
		if item.Variations[i].ID == "" {
			item.Variations[i].ID = uuid.NewString()
		}
	}
	for i := range item.AddOns {
		if item.AddOns[i].ID == "" {
			item.AddOns[i].ID = uuid.NewString()
		}
	}
}
