package repo

import (
	"context"
	"fmt"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// GetOrCreateCart returns the buyer's cart, creating it on first use. Two
// concurrent first calls end up with the same cart thanks to the unique
// user_id constraint.
func (r *postgresRepo) GetOrCreateCart(ctx context.Context, userID string) (entities.Cart, error) {
	return r.loadCart(ctx, userID, false)
}

// LockCart is GetOrCreateCart holding the carts row FOR UPDATE until the
// transaction ends, so two checkouts of one buyer run one after another.
func (r *postgresRepo) LockCart(ctx context.Context, userID string) (entities.Cart, error) {
	if err := requireTx(ctx); err != nil {
		return entities.Cart{}, err
	}
	return r.loadCart(ctx, userID, true)
}

func (r *postgresRepo) loadCart(ctx context.Context, userID string, forUpdate bool) (entities.Cart, error) {
	query, args := r.qb.Insert("carts").
		Columns("id", "user_id").
		Values(uuid.NewString(), userID).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}

	cartQuery := r.qb.Select("id", "user_id", "created_at").
		From("carts").
		Where(sq.Eq{"user_id": userID})
	if forUpdate {
		cartQuery = cartQuery.Suffix("FOR UPDATE")
	}
	query, args = cartQuery.MustSql()

	var cart Cart
	if err := r.getContext(ctx, &cart, query, args...); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to get cart: %w", err)
	}

	query, args = r.qb.Select(
		"ci.id", "ci.cart_id", "ci.variant_id", "p.name AS product_name", "v.name AS variant_name",
		"ci.quantity", "ci.price_at_add").
		From("cart_items ci").
		Join("product_variants v ON v.id = ci.variant_id").
		Join("products p ON p.id = v.product_id").
		Where(sq.Eq{"ci.cart_id": cart.ID}).
		OrderBy("ci.created_at", "ci.id").
		MustSql()

	var items []CartItem
	if err := r.selectContext(ctx, &items, query, args...); err != nil {
		return entities.Cart{}, fmt.Errorf("failed to select cart items: %w", err)
	}
	return CartToEntity(cart, items), nil
}

// SaveCartItem inserts the line or, when the cart already holds the variant,
// overwrites its quantity and price.
func (r *postgresRepo) SaveCartItem(ctx context.Context, item entities.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	query, args := r.qb.Insert("cart_items").
		Columns("id", "cart_id", "variant_id", "quantity", "price_at_add").
		Values(item.ID, item.CartID, item.VariantID, item.Quantity, item.PriceAtAdd).
		Suffix("ON CONFLICT (cart_id, variant_id) DO UPDATE SET quantity = EXCLUDED.quantity, price_at_add = EXCLUDED.price_at_add").
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

func (r *postgresRepo) RemoveCartItem(ctx context.Context, cartID, itemID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"id": itemID, "cart_id": cartID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted cart item: %w", err)
	}
	if n == 0 {
		return entities.NotFound("cart item", itemID)
	}
	return nil
}

func (r *postgresRepo) ClearCart(ctx context.Context, cartID string) error {
	query, args := r.qb.Delete("cart_items").
		Where(sq.Eq{"cart_id": cartID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
