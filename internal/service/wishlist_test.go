package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/wishlist/internal/domain"
	"github.com/utafrali/wishlist/internal/repository"
	apperrors "github.com/utafrali/wishlist/pkg/errors"
	"github.com/utafrali/wishlist/pkg/pagination"
	"github.com/utafrali/wishlist/pkg/validator"
)

// --- Mock Wishlist Repository ---

type mockWishlistRepository struct {
	mock.Mock
}

func (m *mockWishlistRepository) Upsert(ctx context.Context, entry *domain.WishlistEntry, reset domain.MetadataFields) (bool, error) {
	args := m.Called(ctx, entry, reset)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistRepository) Remove(ctx context.Context, key domain.Key) (int64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockWishlistRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.WishlistEntry, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.WishlistEntry), args.Int(1), args.Error(2)
}

func (m *mockWishlistRepository) Exists(ctx context.Context, userID, productID, variantID string) (bool, error) {
	args := m.Called(ctx, userID, productID, variantID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWishlistRepository) Browse(ctx context.Context, filter domain.BrowseFilter, limit, offset int) ([]domain.WishlistEntry, int, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.WishlistEntry), args.Int(1), args.Error(2)
}

func (m *mockWishlistRepository) DeleteByID(ctx context.Context, id int64) (*domain.WishlistEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WishlistEntry), args.Error(1)
}

// --- Mock Membership Cache ---

type mockMembershipCache struct {
	mock.Mock
}

func (m *mockMembershipCache) Get(ctx context.Context, userID, productID, variantID string) (repository.Membership, error) {
	args := m.Called(ctx, userID, productID, variantID)
	return args.Get(0).(repository.Membership), args.Error(1)
}

func (m *mockMembershipCache) Set(ctx context.Context, userID, productID, variantID string, present bool, generation int64) (bool, error) {
	args := m.Called(ctx, userID, productID, variantID, present, generation)
	return args.Bool(0), args.Error(1)
}

func (m *mockMembershipCache) Invalidate(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Event Publisher ---

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishItemAdded(ctx context.Context, entry *domain.WishlistEntry, created bool) error {
	args := m.Called(ctx, entry, created)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishItemRemoved(ctx context.Context, key domain.Key, removed int64) error {
	args := m.Called(ctx, key, removed)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishEntryDeleted(ctx context.Context, entry *domain.WishlistEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() Config {
	return Config{
		OperationTimeout:     time.Second,
		RetryAttempts:        3,
		RetryInitialInterval: time.Millisecond,
		Limits:               pagination.Limits{DefaultPerPage: 100, MaxPerPage: 500},
	}
}

type fixture struct {
	svc    *WishlistService
	repo   *mockWishlistRepository
	cache  *mockMembershipCache
	events *mockEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:   new(mockWishlistRepository),
		cache:  new(mockMembershipCache),
		events: new(mockEventPublisher),
	}
	f.svc = NewWishlistService(f.repo, f.cache, f.events, testConfig(), newTestLogger())
	t.Cleanup(func() {
		f.repo.AssertExpectations(t)
		f.cache.AssertExpectations(t)
		f.events.AssertExpectations(t)
	})
	return f
}

func strPtr(s string) *string { return &s }

func transientErr() error {
	return apperrors.NewStoreError("upsert wishlist entry", true, errors.New("connection refused"))
}

func permanentErr() error {
	return apperrors.NewStoreError("upsert wishlist entry", false, errors.New("relation does not exist"))
}

func fillStored(id int64, created time.Time) func(mock.Arguments) {
	return func(args mock.Arguments) {
		e := args.Get(1).(*domain.WishlistEntry)
		e.ID = id
		e.CreatedAt = created
	}
}

// ============================================================================
// Add Tests
// ============================================================================

func TestAdd_CreatesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	f.repo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *domain.WishlistEntry) bool {
		return e.UserID == "u1" && e.ProductID == "p1" && e.VariantID == "v1" &&
			e.ProductTitle != nil && *e.ProductTitle == "Shirt"
	}), domain.MetadataFields(0)).Run(fillStored(42, now)).Return(true, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.AnythingOfType("*domain.WishlistEntry"), true).Return(nil).Once()

	entry, created, err := f.svc.Add(ctx, AddInput{
		Key:      domain.Key{UserID: "u1", ProductID: "p1", VariantID: strPtr("v1")},
		Metadata: domain.Metadata{ProductTitle: strPtr("Shirt")},
	})

	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, entry)
	assert.Equal(t, int64(42), entry.ID)
	assert.Equal(t, "v1", entry.VariantID)
	assert.Equal(t, now, entry.CreatedAt)
}

func TestAdd_RepeatRefreshesExistingEntry(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Run(fillStored(42, time.Now())).Return(false, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, false).Return(nil).Once()

	entry, created, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(42), entry.ID)
	assert.Equal(t, "", entry.VariantID)
}

func TestAdd_TrimsIdentifiers(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.MatchedBy(func(e *domain.WishlistEntry) bool {
		return e.UserID == "u1" && e.ProductID == "p1" && e.VariantID == "v1"
	}), domain.MetadataFields(0)).Return(true, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, true).Return(nil).Once()

	_, _, err := f.svc.Add(context.Background(), AddInput{
		Key: domain.Key{UserID: "  u1 ", ProductID: "\tp1", VariantID: strPtr(" v1 ")},
	})
	require.NoError(t, err)
}

func TestAdd_PassesClearedMetadataToStore(t *testing.T) {
	f := newFixture(t)

	// A cleared field that also carries a value is not reset.
	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.FieldProductImage|domain.FieldVariantTitle).
		Return(false, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, false).Return(nil).Once()

	_, _, err := f.svc.Add(context.Background(), AddInput{
		Key: domain.Key{UserID: "u1", ProductID: "p1"},
		Metadata: domain.Metadata{
			ProductTitle: strPtr("Shirt"),
			Clear:        domain.FieldProductTitle | domain.FieldProductImage | domain.FieldVariantTitle,
		},
	})
	require.NoError(t, err)
}

func TestAdd_InvalidInputNeverReachesStore(t *testing.T) {
	tests := []struct {
		name  string
		input AddInput
		field string
	}{
		{"missing user", AddInput{Key: domain.Key{ProductID: "p1"}}, "user_id"},
		{"blank user", AddInput{Key: domain.Key{UserID: "   ", ProductID: "p1"}}, "user_id"},
		{"missing product", AddInput{Key: domain.Key{UserID: "u1"}}, "product_id"},
		{"control character", AddInput{Key: domain.Key{UserID: "u\x1f1", ProductID: "p1"}}, "user_id"},
		{"long title", AddInput{
			Key:      domain.Key{UserID: "u1", ProductID: "p1"},
			Metadata: domain.Metadata{ProductTitle: strPtr(strings.Repeat("x", 513))},
		}, "product_title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, _, err := f.svc.Add(context.Background(), tt.input)

			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			var valErr *validator.ValidationError
			require.ErrorAs(t, err, &valErr)
			assert.Contains(t, valErr.Fields(), tt.field)
			f.repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAdd_RetriesTransientStoreErrors(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Return(false, transientErr()).Twice()
	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Run(fillStored(9, time.Now())).Return(true, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, true).Return(nil).Once()

	entry, created, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(9), entry.ID)
}

func TestAdd_GivesUpAfterRetryAttempts(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Return(false, transientErr()).Times(3)

	_, _, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestAdd_PermanentStoreErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Return(false, permanentErr()).Once()

	_, _, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.Error(t, err)
	assert.False(t, apperrors.IsTransient(err))
	assert.ErrorIs(t, err, apperrors.ErrStore)
}

func TestAdd_CacheAndEventFailuresAreNotFatal(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Return(true, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(errors.New("redis down")).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, true).Return(errors.New("kafka down")).Once()

	_, created, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.NoError(t, err)
	assert.True(t, created)
}

func TestAdd_WorksWithoutCacheOrEvents(t *testing.T) {
	repo := new(mockWishlistRepository)
	svc := NewWishlistService(repo, nil, nil, testConfig(), newTestLogger())

	repo.On("Upsert", mock.Anything, mock.Anything, domain.MetadataFields(0)).Return(true, nil).Once()

	_, created, err := svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})

	require.NoError(t, err)
	assert.True(t, created)
	repo.AssertExpectations(t)
}

func TestAdd_AppliesOperationTimeout(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Upsert", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= time.Second
	}), mock.Anything, domain.MetadataFields(0)).Return(true, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemAdded", mock.Anything, mock.Anything, true).Return(nil).Once()

	_, _, err := f.svc.Add(context.Background(), AddInput{Key: domain.Key{UserID: "u1", ProductID: "p1"}})
	require.NoError(t, err)
}

// ============================================================================
// Remove Tests
// ============================================================================

func TestRemove_ExactVariant(t *testing.T) {
	f := newFixture(t)
	key := domain.Key{UserID: "u1", ProductID: "p1", VariantID: strPtr("")}

	f.repo.On("Remove", mock.Anything, key).Return(int64(1), nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemRemoved", mock.Anything, key, int64(1), domain.MetadataFields(0)).Return(nil).Once()

	n, err := f.svc.Remove(context.Background(), key)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRemove_AllVariantsWhenVariantOmitted(t *testing.T) {
	f := newFixture(t)
	key := domain.Key{UserID: "u1", ProductID: "p1"}

	f.repo.On("Remove", mock.Anything, mock.MatchedBy(func(k domain.Key) bool {
		return k.UserID == "u1" && k.ProductID == "p1" && k.VariantID == nil
	})).Return(int64(3), nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemRemoved", mock.Anything, mock.Anything, int64(3)).Return(nil).Once()

	n, err := f.svc.Remove(context.Background(), key)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestRemove_NothingToRemove(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Remove", mock.Anything, mock.Anything).Return(int64(0), nil).Once()

	n, err := f.svc.Remove(context.Background(), domain.Key{UserID: "u1", ProductID: "missing"})

	require.NoError(t, err)
	assert.Zero(t, n)
	f.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishItemRemoved", mock.Anything, mock.Anything, mock.Anything)
}

func TestRemove_ValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Remove(context.Background(), domain.Key{UserID: "u1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestRemove_RetriesTransientStoreErrors(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Remove", mock.Anything, mock.Anything).Return(int64(0), transientErr()).Once()
	f.repo.On("Remove", mock.Anything, mock.Anything).Return(int64(1), nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishItemRemoved", mock.Anything, mock.Anything, int64(1)).Return(nil).Once()

	n, err := f.svc.Remove(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// ============================================================================
// Exists Tests
// ============================================================================

func TestExists_CacheHit(t *testing.T) {
	f := newFixture(t)

	f.cache.On("Get", mock.Anything, "u1", "p1", "").
		Return(repository.Membership{Present: true, Found: true, Generation: 3}, nil).Once()

	ok, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.NoError(t, err)
	assert.True(t, ok)
	f.repo.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExists_CacheMissFillsCache(t *testing.T) {
	f := newFixture(t)

	f.cache.On("Get", mock.Anything, "u1", "p1", "v1").Return(repository.Membership{Generation: 4}, nil).Once()
	f.repo.On("Exists", mock.Anything, "u1", "p1", "v1").Return(false, nil).Once()
	f.cache.On("Set", mock.Anything, "u1", "p1", "v1", false, int64(4)).Return(true, nil).Once()

	ok, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1", VariantID: strPtr("v1")})

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExists_WriteDuringLookupKeepsStoreAnswer(t *testing.T) {
	f := newFixture(t)

	// An add lands between the cache miss and the store read; the cache
	// refuses the write because the generation moved on.
	f.cache.On("Get", mock.Anything, "u1", "p1", "").Return(repository.Membership{Generation: 1}, nil).Once()
	f.repo.On("Exists", mock.Anything, "u1", "p1", "").Return(true, nil).Once()
	f.cache.On("Set", mock.Anything, "u1", "p1", "", true, int64(1)).Return(false, nil).Once()

	ok, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_CacheFailureFallsBackToStore(t *testing.T) {
	f := newFixture(t)

	f.cache.On("Get", mock.Anything, "u1", "p1", "").Return(repository.Membership{}, errors.New("redis down")).Once()
	f.repo.On("Exists", mock.Anything, "u1", "p1", "").Return(true, nil).Once()

	ok, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.NoError(t, err)
	assert.True(t, ok)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExists_CacheWriteFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)

	f.cache.On("Get", mock.Anything, "u1", "p1", "").Return(repository.Membership{}, nil).Once()
	f.repo.On("Exists", mock.Anything, "u1", "p1", "").Return(true, nil).Once()
	f.cache.On("Set", mock.Anything, "u1", "p1", "", true, int64(0)).Return(false, errors.New("redis down")).Once()

	ok, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExists_ValidationError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Exists(context.Background(), domain.Key{ProductID: "p1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExists_StoreErrorIsNotCached(t *testing.T) {
	f := newFixture(t)

	f.cache.On("Get", mock.Anything, "u1", "p1", "").Return(repository.Membership{}, nil).Once()
	f.repo.On("Exists", mock.Anything, "u1", "p1", "").Return(false, permanentErr()).Once()

	_, err := f.svc.Exists(context.Background(), domain.Key{UserID: "u1", ProductID: "p1"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// ============================================================================
// List / Browse Tests
// ============================================================================

func TestList_DefaultPage(t *testing.T) {
	f := newFixture(t)
	items := []domain.WishlistEntry{{ID: 2, UserID: "u1", ProductID: "p2"}, {ID: 1, UserID: "u1", ProductID: "p1"}}

	f.repo.On("ListByUser", mock.Anything, "u1", 100, 0).Return(items, 2, nil).Once()

	result, err := f.svc.List(context.Background(), " u1 ", pagination.Params{})

	require.NoError(t, err)
	assert.Equal(t, items, result.Items)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 100, result.PerPage)
	assert.Equal(t, 1, result.TotalPages)
	assert.False(t, result.HasNext)
}

func TestList_ClampsPageSize(t *testing.T) {
	f := newFixture(t)

	f.repo.On("ListByUser", mock.Anything, "u1", 500, 500).Return([]domain.WishlistEntry{}, 501, nil).Once()

	result, err := f.svc.List(context.Background(), "u1", pagination.Params{Page: 2, PerPage: 10000})

	require.NoError(t, err)
	assert.Equal(t, 500, result.PerPage)
	assert.Equal(t, 2, result.TotalPages)
	assert.Empty(t, result.Items)
}

func TestList_EmptyWishlist(t *testing.T) {
	f := newFixture(t)

	f.repo.On("ListByUser", mock.Anything, "nobody", 100, 0).Return(nil, 0, nil).Once()

	result, err := f.svc.List(context.Background(), "nobody", pagination.Params{})

	require.NoError(t, err)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Zero(t, result.TotalPages)
}

func TestList_InvalidInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.List(context.Background(), "  ", pagination.Params{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.svc.List(context.Background(), "u1", pagination.Params{Page: -1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	f.repo.AssertNotCalled(t, "ListByUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestList_StoreErrorIsClassified(t *testing.T) {
	f := newFixture(t)

	f.repo.On("ListByUser", mock.Anything, "u1", 100, 0).Return(nil, 0, context.DeadlineExceeded).Once()

	_, err := f.svc.List(context.Background(), "u1", pagination.Params{})

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

func TestBrowse_WithFilter(t *testing.T) {
	f := newFixture(t)
	filter := domain.BrowseFilter{UserID: "u1", ProductID: "p1"}

	f.repo.On("Browse", mock.Anything, filter, 20, 20).Return([]domain.WishlistEntry{{ID: 5}}, 21, nil).Once()

	result, err := f.svc.Browse(context.Background(), domain.BrowseFilter{UserID: " u1", ProductID: "p1 "}, pagination.Params{Page: 2, PerPage: 20})

	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 21, result.Total)
	assert.Equal(t, 2, result.TotalPages)
	assert.False(t, result.HasNext)
}

func TestBrowse_Unfiltered(t *testing.T) {
	f := newFixture(t)

	f.repo.On("Browse", mock.Anything, domain.BrowseFilter{}, 100, 0).Return([]domain.WishlistEntry{}, 0, nil).Once()

	_, err := f.svc.Browse(context.Background(), domain.BrowseFilter{}, pagination.Params{})
	require.NoError(t, err)
}

// ============================================================================
// DeleteByID Tests
// ============================================================================

func TestDeleteByID_Success(t *testing.T) {
	f := newFixture(t)
	entry := &domain.WishlistEntry{ID: 7, UserID: "u1", ProductID: "p1"}

	f.repo.On("DeleteByID", mock.Anything, int64(7)).Return(entry, nil).Once()
	f.cache.On("Invalidate", mock.Anything, "u1").Return(nil).Once()
	f.events.On("PublishEntryDeleted", mock.Anything, entry).Return(nil).Once()

	require.NoError(t, f.svc.DeleteByID(context.Background(), 7))
}

func TestDeleteByID_NotFound(t *testing.T) {
	f := newFixture(t)

	f.repo.On("DeleteByID", mock.Anything, int64(404)).
		Return(nil, apperrors.NotFound("wishlist entry", "404")).Once()

	err := f.svc.DeleteByID(context.Background(), 404)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	f.events.AssertNotCalled(t, "PublishEntryDeleted", mock.Anything, mock.Anything)
}

func TestDeleteByID_InvalidID(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteByID(context.Background(), 0)

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.repo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

func TestDeleteByID_TransientErrorIsNotRetried(t *testing.T) {
	f := newFixture(t)

	f.repo.On("DeleteByID", mock.Anything, int64(7)).Return(nil, transientErr()).Once()

	err := f.svc.DeleteByID(context.Background(), 7)

	require.Error(t, err)
	assert.True(t, apperrors.IsTransient(err))
}

// ============================================================================
// Metrics
// ============================================================================

func TestOutcome(t *testing.T) {
	assert.Equal(t, "ok", outcome(nil))
	assert.Equal(t, "invalid", outcome(apperrors.InvalidInput("bad")))
	assert.Equal(t, "not_found", outcome(apperrors.NotFound("wishlist entry", "1")))
	assert.Equal(t, "unavailable", outcome(transientErr()))
	assert.Equal(t, "error", outcome(permanentErr()))
}
