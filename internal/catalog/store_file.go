package catalog

import (
	"context"

	"MiniInventory/internal/store"
)

// FileStore serves products from the file-backed persistent store.
type FileStore struct {
	Store *store.Store
}

var _ ProductService = (*FileStore)(nil)

func NewFileStore(s *store.Store) *FileStore {
	return &FileStore{Store: s}
}

func (f *FileStore) Ping(ctx context.Context) error { return f.Store.Ping(ctx) }

func (f *FileStore) List(_ context.Context, filter store.ProductFilter) ([]store.Product, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return f.Store.FilterProducts(filter), nil
}

func (f *FileStore) Get(_ context.Context, id int64) (store.Product, bool, error) {
	p, ok := f.Store.GetProductByID(id)
	return p, ok, nil
}

func (f *FileStore) Create(_ context.Context, p store.Product) (store.Product, error) {
	return f.Store.CreateProduct(p)
}

func (f *FileStore) Update(_ context.Context, p store.Product) (store.Product, error) {
	return f.Store.UpdateProduct(p)
}

func (f *FileStore) Delete(_ context.Context, id int64) error {
	return f.Store.DeleteProductByID(id)
}
