package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
)

var addressColumns = []string{
	"id", "user_id", "label", "street", "city", "pincode", "landmark", "latitude", "longitude",
}

// GetAddressByID returns the address only when it belongs to userID.
func (r *postgresRepo) GetAddressByID(ctx context.Context, userID, addressID string) (entities.Address, error) {
	query, args := r.qb.Select(addressColumns...).
		From("addresses").
		Where(sq.Eq{"id": addressID, "user_id": userID}).
		MustSql()

	var address Address
	err := r.getContext(ctx, &address, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Address{}, entities.NotFound("address", addressID)
	}
	if err != nil {
		return entities.Address{}, fmt.Errorf("failed to get address: %w", err)
	}
	return AddressToEntity(address), nil
}
