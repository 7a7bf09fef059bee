package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

type Server struct {
	Products ProductService
	Log      *zap.Logger
}

type productRequest struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

func (p productRequest) toProduct() store.Product {
	return store.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    p.Quantity,
	}
}

// Routes serves list and get publicly. Mutations run behind guard, which the
// caller builds from the session resolver and the Manager role check.
func (s *Server) Routes(guard ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/{id}", s.get)

	r.Group(func(pr chi.Router) {
		pr.Use(guard...)
		pr.Post("/", s.create)
		pr.Put("/{id}", s.update)
		pr.Delete("/{id}", s.delete)
	})

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	products, err := s.Products.List(r.Context(), f)
	if err != nil {
		s.fail(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Products.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}

	p, err := s.Products.Create(r.Context(), req.toProduct())
	if err != nil {
		s.fail(w, r, "create product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid json", nil)
		return
	}
	p := req.toProduct()
	p.ID = id

	saved, err := s.Products.Update(r.Context(), p)
	if err != nil {
		s.fail(w, r, "update product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, saved)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	_, found, err := s.Products.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "delete product failed", err)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", map[string]any{"id": id})
		return
	}

	if err := s.Products.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "delete product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Item with id %d has been deleted.", id),
	})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, store.ErrConflict):
		kit.WriteError(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
	default:
		if s.Log != nil {
			s.Log.Error(msg, zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

func parseFilter(r *http.Request) (store.ProductFilter, error) {
	f := store.AnyProduct()
	q := r.URL.Query()

	bounds := []struct {
		key string
		dst *float64
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
		{"minStock", &f.MinStock},
		{"maxStock", &f.MaxStock},
	}
	for _, b := range bounds {
		raw := q.Get(b.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			return f, fmt.Errorf("%s must be a number", b.key)
		}
		*b.dst = v
	}
	return f, nil
}
