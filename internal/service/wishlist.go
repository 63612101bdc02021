package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	"github.com/utafrali/wishlist/pkg/database"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
	"github.com/utafrali/wishlist/pkg/pagination"
	"github.com/utafrali/wishlist/pkg/validator"
)

// EventPublisher publishes wishlist domain events. *event.Producer
// satisfies it.
type EventPublisher interface {
	PublishItemAdded(ctx context.Context, entry *domain.WishlistEntry, created bool) error
	PublishItemRemoved(ctx context.Context, key domain.Key, removed int64) error
	PublishEntryDeleted(ctx context.Context, entry *domain.WishlistEntry) error
}

// Config tunes store access.
type Config struct {
	// OperationTimeout bounds each store call, pool acquisition included.
	OperationTimeout time.Duration
	// RetryAttempts is the total number of tries for Add, Remove and Exists
	// when the store reports a transient error.
	RetryAttempts uint
	// RetryInitialInterval is the first backoff delay; later delays grow
	// exponentially.
	RetryInitialInterval time.Duration
	Limits               pagination.Limits
}

// DefaultConfig returns a 3s operation timeout, 3 attempts starting at 50ms,
// and the default page limits.
func DefaultConfig() Config {
	return Config{
		OperationTimeout:     3 * time.Second,
		RetryAttempts:        3,
		RetryInitialInterval: 50 * time.Millisecond,
		Limits:               pagination.DefaultLimits(),
	}
}

// AddInput holds the parameters for adding or refreshing an entry.
type AddInput struct {
	domain.Key
	domain.Metadata
}

// WishlistService implements the wishlist contract on top of the repository.
// The cache and event publisher are optional.
type WishlistService struct {
	repo   repository.WishlistRepository
	cache  repository.MembershipCache
	events EventPublisher
	cfg    Config
	logger *slog.Logger
}

// NewWishlistService creates a new wishlist service. cache and events may
// be nil.
func NewWishlistService(
	repo repository.WishlistRepository,
	cache repository.MembershipCache,
	events EventPublisher,
	cfg Config,
	logger *slog.Logger,
) *WishlistService {
	defaults := DefaultConfig()
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = defaults.OperationTimeout
	}
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryInitialInterval <= 0 {
		cfg.RetryInitialInterval = defaults.RetryInitialInterval
	}
	if cfg.Limits.DefaultPerPage <= 0 {
		cfg.Limits = defaults.Limits
	}

	return &WishlistService{
		repo:   repo,
		cache:  cache,
		events: events,
		cfg:    cfg,
		logger: logger,
	}
}

// Add stores the entry or, if the key already exists, refreshes its
// metadata and moves it to the front of the user's list. created reports
// whether a new entry was inserted. Invalid input never reaches the store.
func (s *WishlistService) Add(ctx context.Context, in AddInput) (entry *domain.WishlistEntry, created bool, err error) {
	defer func() { observe("add", err) }()

	in.Key = in.Key.Normalize()
	if err := validator.Validate(in); err != nil {
		return nil, false, err
	}

	proposed := domain.NewEntry(in.Key, in.Metadata)
	reset := in.Clear.Without(in.Metadata)
	var stored domain.WishlistEntry
	created, err = retry(ctx, s, "add", func(ctx context.Context) (bool, error) {
		stored = *proposed
		return s.repo.Upsert(ctx, &stored, reset)
	})
	if err != nil {
		return nil, false, err
	}

	s.invalidate(ctx, stored.UserID)
	if s.events != nil {
		if err := s.events.PublishItemAdded(ctx, &stored, created); err != nil {
			s.logEventFailure(ctx, "item_added", err)
		}
	}

	s.logger.InfoContext(ctx, "wishlist entry saved",
		slog.Int64("entry_id", stored.ID),
		slog.String("user_id", stored.UserID),
		slog.String("product_id", stored.ProductID),
		slog.Bool("created", created),
	)
	return &stored, created, nil
}

// Remove deletes the entry with the exact key, or every variant of the
// product when key.VariantID is nil. Removing nothing is not an error.
func (s *WishlistService) Remove(ctx context.Context, key domain.Key) (removed int64, err error) {
	defer func() { observe("remove", err) }()

	key = key.Normalize()
	if err := validator.Validate(key); err != nil {
		return 0, err
	}

	removed, err = retry(ctx, s, "remove", func(ctx context.Context) (int64, error) {
		return s.repo.Remove(ctx, key)
	})
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.invalidate(ctx, key.UserID)
		if s.events != nil {
			if err := s.events.PublishItemRemoved(ctx, key, removed); err != nil {
				s.logEventFailure(ctx, "item_removed", err)
			}
		}
	}
	return removed, nil
}

// Exists reports whether the exact key is stored. A nil variant means the
// empty variant. Answers are served from the membership cache when one is
// configured.
func (s *WishlistService) Exists(ctx context.Context, key domain.Key) (exists bool, err error) {
	defer func() { observe("exists", err) }()

	key = key.Normalize()
	if err := validator.Validate(key); err != nil {
		return false, err
	}
	variant := key.Variant()

	// lookup is set only after a successful miss; its generation guards the
	// write below against a concurrent invalidation.
	var lookup *repository.Membership
	if s.cache != nil {
		m, err := s.cache.Get(ctx, key.UserID, key.ProductID, variant)
		switch {
		case err != nil:
			cacheLookups.WithLabelValues("error").Inc()
			s.logger.WarnContext(ctx, "membership cache read failed",
				slog.String("user_id", key.UserID),
				slog.String("error", err.Error()),
			)
		case m.Found:
			cacheLookups.WithLabelValues("hit").Inc()
			return m.Present, nil
		default:
			cacheLookups.WithLabelValues("miss").Inc()
			lookup = &m
		}
	}

	exists, err = retry(ctx, s, "exists", func(ctx context.Context) (bool, error) {
		return s.repo.Exists(ctx, key.UserID, key.ProductID, variant)
	})
	if err != nil {
		return false, err
	}

	if lookup != nil {
		stored, err := s.cache.Set(ctx, key.UserID, key.ProductID, variant, exists, lookup.Generation)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "membership cache write failed",
				slog.String("user_id", key.UserID),
				slog.String("error", err.Error()),
			)
		case !stored:
			s.logger.DebugContext(ctx, "membership answer not cached, wishlist changed during lookup",
				slog.String("user_id", key.UserID),
			)
		}
	}
	return exists, nil
}

type listInput struct {
	UserID string `json:"user_id" validate:"required,max=255,nocontrol"`
}

// List returns one page of the user's entries, newest first.
func (s *WishlistService) List(ctx context.Context, userID string, params pagination.Params) (result pagination.Result[domain.WishlistEntry], err error) {
	defer func() { observe("list", err) }()

	in := listInput{UserID: strings.TrimSpace(userID)}
	if err := validator.Validate(in); err != nil {
		return result, err
	}
	params, err = s.cfg.Limits.Normalize(params)
	if err != nil {
		return result, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	items, total, err := s.repo.ListByUser(ctx, in.UserID, params.PerPage, params.Offset())
	if err != nil {
		return result, database.Classify("list wishlist entries", err)
	}
	return pagination.NewResult(items, total, params), nil
}

// Browse returns one page of entries across all users for the admin API.
func (s *WishlistService) Browse(ctx context.Context, filter domain.BrowseFilter, params pagination.Params) (result pagination.Result[domain.WishlistEntry], err error) {
	defer func() { observe("browse", err) }()

	filter.UserID = strings.TrimSpace(filter.UserID)
	filter.ProductID = strings.TrimSpace(filter.ProductID)
	if err := validator.Validate(filter); err != nil {
		return result, err
	}
	params, err = s.cfg.Limits.Normalize(params)
	if err != nil {
		return result, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	items, total, err := s.repo.Browse(ctx, filter, params.PerPage, params.Offset())
	if err != nil {
		return result, database.Classify("browse wishlist entries", err)
	}
	return pagination.NewResult(items, total, params), nil
}

// DeleteByID removes one entry for the admin API. It is not retried: a
// retry after a lost success would report NotFound.
func (s *WishlistService) DeleteByID(ctx context.Context, id int64) (err error) {
	defer func() { observe("delete_by_id", err) }()

	if id <= 0 {
		return apperrors.InvalidInput(fmt.Sprintf("invalid id: %d", id))
	}

	opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	entry, err := s.repo.DeleteByID(opCtx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return database.Classify("delete wishlist entry", err)
	}

	s.invalidate(ctx, entry.UserID)
	if s.events != nil {
		if err := s.events.PublishEntryDeleted(ctx, entry); err != nil {
			s.logEventFailure(ctx, "entry_deleted", err)
		}
	}

	s.logger.InfoContext(ctx, "wishlist entry deleted by admin",
		slog.String("entry_id", strconv.FormatInt(id, 10)),
		slog.String("user_id", entry.UserID),
	)
	return nil
}

func (s *WishlistService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "membership cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *WishlistService) logEventFailure(ctx context.Context, event string, err error) {
	eventFailures.WithLabelValues(event).Inc()
	s.logger.WarnContext(ctx, "failed to publish wishlist event",
		slog.String("event", event),
		slog.String("error", err.Error()),
	)
}

// retry runs fn under the operation timeout, retrying transient store
// errors with exponential backoff. Any other error stops immediately.
func retry[T any](ctx context.Context, s *WishlistService, op string, fn func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInitialInterval
	b.MaxInterval = time.Second

	v, err := backoff.Retry(ctx, func() (T, error) {
		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
		defer cancel()

		v, err := fn(opCtx)
		if err != nil && !apperrors.IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.cfg.RetryAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			storeRetries.WithLabelValues(op).Inc()
			s.logger.WarnContext(ctx, "transient store error, retrying",
				slog.String("operation", op),
				slog.Duration("backoff", next),
				slog.String("error", err.Error()),
			)
		}),
	)
	if err == nil {
		return v, nil
	}

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrInvalidInput) {
		return v, err
	}
	// Cancellation while waiting between attempts surfaces as a bare context
	// error.
	return v, database.Classify(op, err)
}
