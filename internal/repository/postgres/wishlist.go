package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/pkg/database"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
)

const entryColumns = `id, user_id, product_id, variant_id, product_title, product_handle,
		product_image, variant_title, variant_image, created_at`

// On conflict a nil metadata value keeps the stored one unless its reset
// flag ($9-$13) is set.
const upsertQuery = `
	INSERT INTO wishlist (user_id, product_id, variant_id, product_title, product_handle,
		product_image, variant_title, variant_image)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT ON CONSTRAINT wishlist_user_product_variant_key DO UPDATE SET
		product_title  = CASE WHEN $9::boolean THEN NULL ELSE COALESCE(EXCLUDED.product_title, wishlist.product_title) END,
		product_handle = CASE WHEN $10::boolean THEN NULL ELSE COALESCE(EXCLUDED.product_handle, wishlist.product_handle) END,
		product_image  = CASE WHEN $11::boolean THEN NULL ELSE COALESCE(EXCLUDED.product_image, wishlist.product_image) END,
		variant_title  = CASE WHEN $12::boolean THEN NULL ELSE COALESCE(EXCLUDED.variant_title, wishlist.variant_title) END,
		variant_image  = CASE WHEN $13::boolean THEN NULL ELSE COALESCE(EXCLUDED.variant_image, wishlist.variant_image) END,
		created_at     = NOW()
	RETURNING ` + entryColumns + `, (xmax = 0) AS created`

// WishlistRepository implements repository.WishlistRepository on PostgreSQL.
type WishlistRepository struct {
	db database.DBTX
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(db database.DBTX) *WishlistRepository {
	return &WishlistRepository{db: db}
}

// Upsert inserts the entry or refreshes an existing one in a single
// statement, so concurrent adds of the same key never produce two rows.
// Fields in reset are cleared to null on refresh. xmax is zero only for a
// freshly inserted tuple.
func (r *WishlistRepository) Upsert(ctx context.Context, entry *domain.WishlistEntry, reset domain.MetadataFields) (created bool, err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertEntry", upsertQuery)
	defer func() { end(err) }()

	row := r.db.QueryRow(ctx, upsertQuery,
		entry.UserID, entry.ProductID, entry.VariantID,
		entry.ProductTitle, entry.ProductHandle, entry.ProductImage,
		entry.VariantTitle, entry.VariantImage,
		reset.Has(domain.FieldProductTitle), reset.Has(domain.FieldProductHandle),
		reset.Has(domain.FieldProductImage), reset.Has(domain.FieldVariantTitle),
		reset.Has(domain.FieldVariantImage),
	)

	var stored domain.WishlistEntry
	if err := row.Scan(
		&stored.ID, &stored.UserID, &stored.ProductID, &stored.VariantID,
		&stored.ProductTitle, &stored.ProductHandle, &stored.ProductImage,
		&stored.VariantTitle, &stored.VariantImage, &stored.CreatedAt,
		&created,
	); err != nil {
		return false, database.Classify("upsert wishlist entry", err)
	}

	*entry = stored
	return created, nil
}

// Remove deletes by exact key, or across all variants when key.VariantID is nil.
func (r *WishlistRepository) Remove(ctx context.Context, key domain.Key) (removed int64, err error) {
	query := `DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2`
	args := []any{key.UserID, key.ProductID}
	op := "RemoveEntriesBroad"
	if key.VariantID != nil {
		query += ` AND variant_id = $3`
		args = append(args, *key.VariantID)
		op = "RemoveEntryExact"
	}

	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, database.Classify("remove wishlist entries", err)
	}
	return tag.RowsAffected(), nil
}

// ListByUser returns a page of the user's entries, newest first, plus the
// user's total entry count.
func (r *WishlistRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.WishlistEntry, int, error) {
	return r.page(ctx, "ListByUser", "list wishlist entries", []string{"user_id = $1"}, []any{userID}, limit, offset)
}

// Exists reports whether an entry with exactly this key is stored.
func (r *WishlistRepository) Exists(ctx context.Context, userID, productID, variantID string) (exists bool, err error) {
	const query = `SELECT EXISTS(SELECT 1 FROM wishlist WHERE user_id = $1 AND product_id = $2 AND variant_id = $3)`

	ctx, end := database.TraceQuery(ctx, "EntryExists", query)
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, query, userID, productID, variantID).Scan(&exists); err != nil {
		return false, database.Classify("check wishlist entry", err)
	}
	return exists, nil
}

// Browse returns a page of entries across all users, optionally filtered by
// user or product.
func (r *WishlistRepository) Browse(ctx context.Context, filter domain.BrowseFilter, limit, offset int) ([]domain.WishlistEntry, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.ProductID != "" {
		args = append(args, filter.ProductID)
		conds = append(conds, "product_id = $"+strconv.Itoa(len(args)))
	}
	return r.page(ctx, "BrowseEntries", "browse wishlist entries", conds, args, limit, offset)
}

// DeleteByID removes one entry by its identifier and returns the removed row.
func (r *WishlistRepository) DeleteByID(ctx context.Context, id int64) (entry *domain.WishlistEntry, err error) {
	query := `DELETE FROM wishlist WHERE id = $1 RETURNING ` + entryColumns

	ctx, end := database.TraceQuery(ctx, "DeleteEntryByID", query)
	defer func() { end(err) }()

	e, err := scanEntry(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("wishlist entry", strconv.FormatInt(id, 10))
		}
		return nil, database.Classify("delete wishlist entry", err)
	}
	return &e, nil
}

// page runs the COUNT and the LIMIT/OFFSET select for the same filter.
// Rows are ordered newest first with id as the tie-break so pages are stable.
func (r *WishlistRepository) page(ctx context.Context, op, desc string, conds []string, args []any, limit, offset int) (entries []domain.WishlistEntry, total int, err error) {
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	countQuery := `SELECT COUNT(*) FROM wishlist` + where
	n := len(args)
	selectQuery := fmt.Sprintf(`SELECT %s FROM wishlist%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		entryColumns, where, n+1, n+2)

	ctx, end := database.TraceQuery(ctx, op, selectQuery)
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, database.Classify(desc, fmt.Errorf("count: %w", err))
	}

	rows, err := r.db.Query(ctx, selectQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, database.Classify(desc, err)
	}
	defer rows.Close()

	entries = make([]domain.WishlistEntry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, database.Classify("scan wishlist entry", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, database.Classify("iterate wishlist rows", err)
	}

	return entries, total, nil
}

func scanEntry(row pgx.Row) (domain.WishlistEntry, error) {
	var e domain.WishlistEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.ProductID, &e.VariantID,
		&e.ProductTitle, &e.ProductHandle, &e.ProductImage,
		&e.VariantTitle, &e.VariantImage, &e.CreatedAt,
	)
	return e, err
}
