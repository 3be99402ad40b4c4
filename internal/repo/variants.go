package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

func (r *postgresRepo) selectVariants() sq.SelectBuilder {
	return r.qb.Select(
		"v.id", "v.product_id", "p.name AS product_name", "v.name", "v.sku",
		"v.price", "v.stock_quantity", "v.is_available", "p.is_available AS product_available").
		From("product_variants v").
		Join("products p ON p.id = v.product_id")
}

func (r *postgresRepo) GetVariantByID(ctx context.Context, variantID string) (entities.Variant, error) {
	query, args := r.selectVariants().
		Where(sq.Eq{"v.id": variantID}).
		MustSql()

	var variant Variant
	err := r.getContext(ctx, &variant, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Variant{}, entities.NotFound("variant", variantID)
	}
	if err != nil {
		return entities.Variant{}, fmt.Errorf("failed to get variant: %w", err)
	}
	return VariantToEntity(variant), nil
}

// lockVariant reads the variant row under FOR UPDATE. Only the variant row is
// locked, the product row stays free for catalog edits.
func (r *postgresRepo) lockVariant(ctx context.Context, variantID string) (entities.Variant, error) {
	query, args := r.selectVariants().
		Where(sq.Eq{"v.id": variantID}).
		Suffix("FOR UPDATE OF v").
		MustSql()

	var variant Variant
	err := r.getContext(ctx, &variant, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Variant{}, entities.NotFound("variant", variantID)
	}
	if err != nil {
		return entities.Variant{}, fmt.Errorf("failed to lock variant: %w", err)
	}
	return VariantToEntity(variant), nil
}

func (r *postgresRepo) saveStock(ctx context.Context, variant entities.Variant) error {
	query, args := r.qb.Update("product_variants").
		Set("stock_quantity", variant.StockQuantity).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": variant.ID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}

// ReserveStock takes quantity units of the variant. The row stays locked until
// the surrounding transaction ends, so concurrent reservations of one variant
// run one after another and the later one sees the decremented stock.
func (r *postgresRepo) ReserveStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error) {
	if err := requireTx(ctx); err != nil {
		return entities.Variant{}, err
	}
	if quantity < 1 {
		return entities.Variant{}, entities.Invalid("quantity", "quantity must be at least 1, got %d", quantity)
	}

	variant, err := r.lockVariant(ctx, variantID)
	if err != nil {
		return entities.Variant{}, err
	}
	if err := variant.Reserve(quantity); err != nil {
		return entities.Variant{}, err
	}
	if err := r.saveStock(ctx, variant); err != nil {
		return entities.Variant{}, err
	}
	return variant, nil
}

func (r *postgresRepo) RestoreStock(ctx context.Context, variantID string, quantity int) (entities.Variant, error) {
	if err := requireTx(ctx); err != nil {
		return entities.Variant{}, err
	}

	variant, err := r.lockVariant(ctx, variantID)
	if err != nil {
		return entities.Variant{}, err
	}
	if err := variant.Restock(quantity); err != nil {
		return entities.Variant{}, err
	}
	if err := r.saveStock(ctx, variant); err != nil {
		return entities.Variant{}, err
	}
	return variant, nil
}
