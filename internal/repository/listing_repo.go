// internal/repository/listing_repo.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"fumo-economy/internal/domain"
)

// ListingRepository defines the interface for global marketplace listings.
type ListingRepository interface {
	CreateListing(ctx context.Context, listing *domain.Listing) error
	// GetListing returns util.ErrNotFound once the listing is sold or removed.
	GetListing(ctx context.Context, id uuid.UUID) (*domain.Listing, error)
	// ListListings returns one page, newest first, plus the total matching count.
	ListListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, int64, error)
	CountBySeller(ctx context.Context, sellerID string) (int64, error)
	// DeleteListing returns util.ErrNotFound when no row was deleted.
	DeleteListing(ctx context.Context, id uuid.UUID) error
}
