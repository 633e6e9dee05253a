package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"floreria/internal/models"
	"floreria/internal/repositories/interfaces"
	"floreria/internal/utils"
	"floreria/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type deliveryQuoteRepository struct {
	collection *mongo.Collection
}

func NewDeliveryQuoteRepository(db *database.MongoDB) interfaces.DeliveryQuoteRepository {
	return &deliveryQuoteRepository{
		collection: db.Collection(database.DeliveryQuotesCollection),
	}
}

func (r *deliveryQuoteRepository) Create(ctx context.Context, quote *models.DeliveryQuote) error {
	if quote.ID.IsZero() {
		quote.ID = primitive.NewObjectID()
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, quote); err != nil {
		return fmt.Errorf("failed to create delivery quote: %w", err)
	}
	return nil
}

func (r *deliveryQuoteRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.DeliveryQuote, error) {
	var quote models.DeliveryQuote
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&quote)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get delivery quote: %w", err)
	}
	return &quote, nil
}

func (r *deliveryQuoteRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	filter := params.GetSearchFilter([]string{"commune", "zone_name", "order_id"})
	return r.findWithFilter(ctx, filter, params)
}

func (r *deliveryQuoteRepository) ListByCommune(ctx context.Context, commune string, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	return r.findWithFilter(ctx, bson.M{"commune": commune}, params)
}

func (r *deliveryQuoteRepository) findWithFilter(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count delivery quotes: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find delivery quotes: %w", err)
	}
	defer cursor.Close(ctx)

	quotes := make([]*models.DeliveryQuote, 0, params.GetLimit())
	for cursor.Next(ctx) {
		var quote models.DeliveryQuote
		if err := cursor.Decode(&quote); err != nil {
			return nil, 0, fmt.Errorf("failed to decode delivery quote: %w", err)
		}
		quotes = append(quotes, &quote)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate delivery quotes: %w", err)
	}

	return quotes, total, nil
}
