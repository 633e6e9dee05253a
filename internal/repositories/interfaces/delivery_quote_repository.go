package interfaces

import (
	"context"
	"errors"

	"floreria/internal/models"
	"floreria/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned by repositories when no document matches.
var ErrNotFound = errors.New("not found")

type DeliveryQuoteRepository interface {
	Create(ctx context.Context, quote *models.DeliveryQuote) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.DeliveryQuote, error)

	// Admin log, newest first unless params say otherwise
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error)
	ListByCommune(ctx context.Context, commune string, params *utils.PaginationParams) ([]*models.DeliveryQuote, int64, error)
}
