package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/mathstore/storefront-api/internal/auth"
	"github.com/mathstore/storefront-api/internal/catalog"
	"github.com/mathstore/storefront-api/internal/redisx"
)

type CatalogStore interface {
	List(ctx context.Context) ([]catalog.Product, error)
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
	Create(ctx context.Context, p *catalog.Product) error
	Update(ctx context.Context, p *catalog.Product) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (catalog.Stats, error)
}

type ProductsHandler struct {
	Catalog CatalogStore
	Auth    *auth.Service
	Redis   *redis.Client // optional list cache
	Log     *slog.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/stats", h.stats)
	r.Get("/products/{productID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(AdminAuth(h.Auth))
		r.Post("/products", h.create)
		r.Put("/products/{productID}", h.update)
		r.Delete("/products/{productID}", h.delete)
	})
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.Redis != nil {
		if cached, err := h.Redis.Get(r.Context(), redisx.KeyProductList).Result(); err == nil && cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(cached))
			return
		}
	}

	products, err := h.Catalog.List(r.Context())
	if err != nil {
		h.Log.Error("failed to list products", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	if h.Redis != nil {
		if b, err := json.Marshal(products); err == nil {
			_ = h.Redis.Set(r.Context(), redisx.KeyProductList, b, redisx.TTLProductList).Err()
		}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID supplied")
		return
	}
	p, err := h.Catalog.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.Log.Error("failed to get product", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.Catalog.Stats(r.Context())
	if err != nil {
		h.Log.Error("failed to load catalog stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.Title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}
	if err := h.Catalog.Create(r.Context(), &p); err != nil {
		h.Log.Error("failed to create product", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.invalidateListCache(r.Context())
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID supplied")
		return
	}
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	p.ID = id
	if err := h.Catalog.Update(r.Context(), &p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.Log.Error("failed to update product", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.invalidateListCache(r.Context())
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID supplied")
		return
	}
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "Product not found")
			return
		}
		h.Log.Error("failed to delete product", "product_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.invalidateListCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ProductsHandler) invalidateListCache(ctx context.Context) {
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, redisx.KeyProductList).Err()
	}
}
