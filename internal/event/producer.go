package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/utafrali/wishlist/internal/domain"
	pkgkafka "github.com/utafrali/wishlist/pkg/kafka"
	"github.com/utafrali/wishlist/pkg/logger"
)

// Kafka topics for wishlist domain events.
var (
	TopicItemAdded    = pkgkafka.Topic("wishlist", "item_added")
	TopicItemRemoved  = pkgkafka.Topic("wishlist", "item_removed")
	TopicEntryDeleted = pkgkafka.Topic("wishlist", "entry_deleted")
)

// Aggregate types. Item events are keyed by user so a user's events stay
// ordered; admin deletions are keyed by entry id.
const (
	AggregateTypeWishlist = "wishlist"
	AggregateTypeEntry    = "wishlist_entry"
)

// SourceWishlistService identifies events published by this service.
const SourceWishlistService = "wishlist-service"

// ItemAddedData is the payload for a wishlist.item_added event.
type ItemAddedData struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Created   bool   `json:"created"`
}

// ItemRemovedData is the payload for a wishlist.item_removed event. A nil
// VariantID means every variant of the product was removed.
type ItemRemovedData struct {
	UserID       string  `json:"user_id"`
	ProductID    string  `json:"product_id"`
	VariantID    *string `json:"variant_id,omitempty"`
	RemovedCount int64   `json:"removed_count"`
}

// EntryDeletedData is the payload for a wishlist.entry_deleted event.
type EntryDeletedData struct {
	ID        int64  `json:"id"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
}

// Publisher sends an envelope to a topic. *pkgkafka.Producer satisfies it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes wishlist domain events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer for the wishlist service.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishItemAdded publishes a wishlist.item_added event.
func (p *Producer) PublishItemAdded(ctx context.Context, entry *domain.WishlistEntry, created bool) error {
	data := ItemAddedData{
		ID:        entry.ID,
		UserID:    entry.UserID,
		ProductID: entry.ProductID,
		VariantID: entry.VariantID,
		Created:   created,
	}
	return p.publish(ctx, TopicItemAdded, entry.UserID, AggregateTypeWishlist, data)
}

// PublishItemRemoved publishes a wishlist.item_removed event.
func (p *Producer) PublishItemRemoved(ctx context.Context, key domain.Key, removed int64) error {
	data := ItemRemovedData{
		UserID:       key.UserID,
		ProductID:    key.ProductID,
		VariantID:    key.VariantID,
		RemovedCount: removed,
	}
	return p.publish(ctx, TopicItemRemoved, key.UserID, AggregateTypeWishlist, data)
}

// PublishEntryDeleted publishes a wishlist.entry_deleted event.
func (p *Producer) PublishEntryDeleted(ctx context.Context, entry *domain.WishlistEntry) error {
	data := EntryDeletedData{
		ID:        entry.ID,
		UserID:    entry.UserID,
		ProductID: entry.ProductID,
		VariantID: entry.VariantID,
	}
	return p.publish(ctx, TopicEntryDeleted, strconv.FormatInt(entry.ID, 10), AggregateTypeEntry, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceWishlistService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published wishlist event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
