// internal/repository/postgres/listing_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"fumo-economy/internal/domain"
	"fumo-economy/internal/repository"
	"fumo-economy/internal/util"
)

// ListingRepository implements repository.ListingRepository for PostgreSQL.
type ListingRepository struct {
	q repository.DBExecutor
}

// NewListingRepository creates a ListingRepository bound to q.
func NewListingRepository(q repository.DBExecutor) *ListingRepository {
	return &ListingRepository{q: q}
}

const listingColumns = `id, seller_id, item_name, rarity, coin_price, gem_price, listed_at`

// CreateListing inserts a new listing.
func (r *ListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	query := `INSERT INTO market_listings (` + listingColumns + `)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.ExecContext(ctx, query,
		listing.ID,
		listing.SellerID,
		listing.ItemName,
		listing.Rarity,
		listing.CoinPrice,
		listing.GemPrice,
		listing.ListedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

// GetListing retrieves a listing by ID.
func (r *ListingRepository) GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	var listing domain.Listing
	query := `SELECT ` + listingColumns + ` FROM market_listings WHERE id = $1`
	if err := r.q.GetContext(ctx, &listing, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get listing %s: %w", id, err)
	}
	return &listing, nil
}

// ListListings retrieves a filtered, paginated page of listings.
// It performs two queries: one for the data and one for the total count.
func (r *ListingRepository) ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int64, error) {
	var conds []string
	var args []interface{}
	if filter.SellerID != "" {
		args = append(args, filter.SellerID)
		conds = append(conds, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if filter.Rarity != "" {
		args = append(args, filter.Rarity)
		conds = append(conds, fmt.Sprintf("rarity = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var totalCount int64
	if err := r.q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM market_listings`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	listings := []domain.Listing{}
	pageArgs := append(append([]interface{}{}, args...), filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM market_listings%s ORDER BY listed_at DESC, id LIMIT $%d OFFSET $%d`,
		listingColumns, where, len(args)+1, len(args)+2)
	if err := r.q.SelectContext(ctx, &listings, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, totalCount, nil
}

// CountBySeller returns the number of active listings a seller has.
func (r *ListingRepository) CountBySeller(ctx context.Context, sellerID string) (int64, error) {
	var n int64
	if err := r.q.GetContext(ctx, &n, `SELECT COUNT(*) FROM market_listings WHERE seller_id = $1`, sellerID); err != nil {
		return 0, fmt.Errorf("failed to count listings of %s: %w", sellerID, err)
	}
	return n, nil
}

// DeleteListing removes a listing.
func (r *ListingRepository) DeleteListing(ctx context.Context, id uuid.UUID) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM market_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after deleting listing %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
