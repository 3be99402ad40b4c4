package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"
)

type CartRepo interface {
	GetOrCreateCart(ctx context.Context, userID string) (entities.Cart, error)
	// SaveCartItem upserts by (cart, variant).
	SaveCartItem(ctx context.Context, item entities.CartItem) error
	RemoveCartItem(ctx context.Context, cartID, itemID string) error
	ClearCart(ctx context.Context, cartID string) error
}

type VariantReader interface {
	GetVariantByID(ctx context.Context, variantID string) (entities.Variant, error)
}

type cartService struct {
	logger   *slog.Logger
	repo     CartRepo
	variants VariantReader
}

func NewCartService(logger *slog.Logger, repo CartRepo, variants VariantReader) *cartService {
	return &cartService{
		logger:   logger.With(slog.String("service", "cart")),
		repo:     repo,
		variants: variants,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID string) (entities.Cart, error) {
	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}

// AddItem puts quantity units of the variant into the cart, merging with an
// existing line for the same variant.
func (s *cartService) AddItem(ctx context.Context, userID, variantID string, quantity int) (entities.Cart, error) {
	if err := entities.ValidateLineQuantity(quantity); err != nil {
		return entities.Cart{}, err
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, err
	}

	if existing, ok := cart.ItemByVariant(variantID); ok {
		quantity += existing.Quantity
		if err := entities.ValidateLineQuantity(quantity); err != nil {
			return entities.Cart{}, err
		}
	}

	variant, err := s.purchasable(ctx, variantID, quantity)
	if err != nil {
		return entities.Cart{}, err
	}

	err = s.repo.SaveCartItem(ctx, entities.CartItem{
		CartID:     cart.ID,
		VariantID:  variant.ID,
		Quantity:   quantity,
		PriceAtAdd: variant.Price,
	})
	if err != nil {
		return entities.Cart{}, fmt.Errorf("failed to add cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (entities.Cart, error) {
	if err := entities.ValidateLineQuantity(quantity); err != nil {
		return entities.Cart{}, err
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, err
	}
	item, ok := cart.Item(itemID)
	if !ok {
		return entities.Cart{}, entities.NotFound("cart item", itemID)
	}

	if _, err := s.purchasable(ctx, item.VariantID, quantity); err != nil {
		return entities.Cart{}, err
	}

	item.Quantity = quantity
	if err := s.repo.SaveCartItem(ctx, item); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to update cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID string) (entities.Cart, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return entities.Cart{}, err
	}
	if err := s.repo.RemoveCartItem(ctx, cart.ID, itemID); err != nil {
		return entities.Cart{}, err
	}
	return s.GetCart(ctx, userID)
}

func (s *cartService) ClearCart(ctx context.Context, userID string) error {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// purchasable checks the variant can be sold in quantity right now. Stock is
// only reserved at checkout, so this is advisory.
func (s *cartService) purchasable(ctx context.Context, variantID string, quantity int) (entities.Variant, error) {
	variant, err := s.variants.GetVariantByID(ctx, variantID)
	if err != nil {
		return entities.Variant{}, err
	}
	if !variant.Purchasable() {
		return entities.Variant{}, entities.Invalid("variant_id", "%s is currently unavailable", variant.DisplayName())
	}
	if variant.StockQuantity < quantity {
		return entities.Variant{}, &entities.InsufficientStockError{
			VariantID: variant.ID,
			Requested: quantity,
			Remaining: variant.StockQuantity,
		}
	}
	return variant, nil
}
