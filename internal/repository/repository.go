package repository

import (
	"context"

	"github.com/utafrali/wishlist/internal/domain"
)

// WishlistRepository is the persistence contract for wishlist entries.
// Driver failures are returned as *apperrors.StoreError.
type WishlistRepository interface {
	// Upsert inserts entry or, when its key already exists, refreshes the
	// stored metadata and created_at. A nil metadata field keeps the stored
	// value unless it is in reset. entry is overwritten with the stored row.
	// created reports whether a new row was inserted.
	Upsert(ctx context.Context, entry *domain.WishlistEntry, reset domain.MetadataFields) (created bool, err error)

	// Remove deletes the entry matching key exactly, or every variant of the
	// product when key.VariantID is nil. It returns the number of rows removed.
	Remove(ctx context.Context, key domain.Key) (int64, error)

	// ListByUser returns one page of a user's entries, newest first, and the
	// user's total entry count.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.WishlistEntry, int, error)

	// Exists reports whether an entry with the exact key exists.
	Exists(ctx context.Context, userID, productID, variantID string) (bool, error)

	// Browse returns one page of entries across all users, newest first.
	Browse(ctx context.Context, filter domain.BrowseFilter, limit, offset int) ([]domain.WishlistEntry, int, error)

	// DeleteByID removes one entry and returns it. A missing id yields a
	// NotFound error.
	DeleteByID(ctx context.Context, id int64) (*domain.WishlistEntry, error)
}

// Membership is the result of a cache lookup. Generation is the user's
// cache generation when the lookup ran and must be handed back to Set.
type Membership struct {
	Present    bool
	Found      bool
	Generation int64
}

// MembershipCache remembers Exists answers per user.
type MembershipCache interface {
	// Get returns the cached answer, if any, with the user's generation.
	Get(ctx context.Context, userID, productID, variantID string) (Membership, error)

	// Set caches an answer unless the user was invalidated after the lookup
	// that produced generation. stored is false when the answer was dropped.
	Set(ctx context.Context, userID, productID, variantID string, present bool, generation int64) (stored bool, err error)

	// Invalidate drops every cached answer for the user and advances the
	// user's generation.
	Invalidate(ctx context.Context, userID string) error
}
