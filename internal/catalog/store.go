package catalog

import (
	"context"

	"MiniInventory/internal/store"
)

// ProductService is the product CRUD contract consumed by the HTTP handlers.
// Errors wrap store.ErrValidation, store.ErrConflict or store.ErrNotFound so
// every backend maps to the same status codes.
type ProductService interface {
	Ping(ctx context.Context) error
	List(ctx context.Context, f store.ProductFilter) ([]store.Product, error)
	Get(ctx context.Context, id int64) (store.Product, bool, error)
	Create(ctx context.Context, p store.Product) (store.Product, error)
	Update(ctx context.Context, p store.Product) (store.Product, error)
	Delete(ctx context.Context, id int64) error
}
