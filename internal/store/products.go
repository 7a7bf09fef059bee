package store

import "fmt"

// UpsertProduct overwrites the mutable fields of the product with the same id,
// or appends p under a freshly assigned id when no such product exists.
func (s *Store) UpsertProduct(p Product, mode WriteMode) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	var saved Product
	err := s.mutate(mode, "", func() error {
		saved = s.upsertLocked(p)
		return nil
	})
	return saved, err
}

// CreateProduct validates p and appends it. A pre-set id that is already taken
// is a conflict.
func (s *Store) CreateProduct(p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	var saved Product
	err := s.mutate(WriteThrough, "", func() error {
		if p.ID != 0 && s.indexOfProductLocked(p.ID) >= 0 {
			return fmt.Errorf("%w: product %d already exists", ErrConflict, p.ID)
		}
		saved = s.upsertLocked(p)
		return nil
	})
	return saved, err
}

// UpdateProduct validates p and overwrites the existing product with p.ID.
func (s *Store) UpdateProduct(p Product) (Product, error) {
	if err := p.Validate(); err != nil {
		return Product{}, err
	}

	var saved Product
	err := s.mutate(WriteThrough, "", func() error {
		if s.indexOfProductLocked(p.ID) < 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, p.ID)
		}
		saved = s.upsertLocked(p)
		return nil
	})
	return saved, err
}

// DeleteProductByID removes the product if present. The durable file is
// rewritten either way.
func (s *Store) DeleteProductByID(id int64) error {
	return s.mutate(WriteThrough, "", func() error {
		if i := s.indexOfProductLocked(id); i >= 0 {
			s.products = append(s.products[:i], s.products[i+1:]...)
		}
		return nil
	})
}

// CompleteImport upserts ps and moves the store to Started in one critical
// section, then persists once. A store that is already Started is left
// untouched and ErrConflict is returned.
func (s *Store) CompleteImport(ps []Product, note string) ([]Product, error) {
	for _, p := range ps {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	if note == "" {
		note = noteBootstrapped
	}

	saved := make([]Product, 0, len(ps))
	err := s.mutate(WriteThrough, note, func() error {
		if s.boot == BootStarted {
			return fmt.Errorf("%w: store already bootstrapped", ErrConflict)
		}
		for _, p := range ps {
			saved = append(saved, s.upsertLocked(p))
		}
		s.boot = BootStarted
		return nil
	})
	return saved, err
}

func (s *Store) GetAllProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append(make([]Product, 0, len(s.products)), s.products...)
}

func (s *Store) GetProductByID(id int64) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOfProductLocked(id); i >= 0 {
		return s.products[i], true
	}
	return Product{}, false
}

// FilterProducts returns the products matching f in insertion order.
func (s *Store) FilterProducts(f ProductFilter) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) upsertLocked(p Product) Product {
	if i := s.indexOfProductLocked(p.ID); i >= 0 {
		cur := &s.products[i]
		cur.Name = p.Name
		cur.Description = p.Description
		cur.Price = p.Price
		cur.Quantity = p.Quantity
		return *cur
	}

	p.ID = s.nextProductID
	s.nextProductID++
	s.products = append(s.products, p)
	return p
}

func (s *Store) indexOfProductLocked(id int64) int {
	for i := range s.products {
		if s.products[i].ID == id {
			return i
		}
	}
	return -1
}
