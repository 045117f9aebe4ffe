package catalog

import (
	"context"
	"errors"

	"github.com/noah-isme/backend-kasir/internal/upstream"
)

const (
	listCacheKey      = "kasir:catalog:products:list:first"
	detailCachePrefix = "kasir:catalog:products:detail:"
)

// Service fronts the POS product catalog with a small Redis cache. Only the
// unfiltered first page and per-product details are cached; every admin
// mutation writes through and drops the affected keys.
type Service struct {
	Upstream     *upstream.Client
	Cache        *Cache
	DefaultLimit int
}

// List returns one catalog page. The unfiltered first page is served from
// cache when warm.
func (s *Service) List(ctx context.Context, page, limit int) ([]upstream.Product, error) {
	if s == nil || s.Upstream == nil {
		return nil, errors.New("catalog service not configured")
	}
	cacheable := page <= 1 && (limit == 0 || limit == s.DefaultLimit)
	if cacheable {
		var cached []upstream.Product
		if ok, err := s.Cache.GetJSON(ctx, listCacheKey, &cached); err == nil && ok {
			return cached, nil
		}
	}
	products, err := s.Upstream.ListProducts(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	if cacheable {
		_ = s.Cache.SetJSON(ctx, listCacheKey, products)
	}
	return products, nil
}

// Get returns one product, preferring the cache.
func (s *Service) Get(ctx context.Context, id string) (upstream.Product, error) {
	if s == nil || s.Upstream == nil {
		return upstream.Product{}, errors.New("catalog service not configured")
	}
	var cached upstream.Product
	if ok, err := s.Cache.GetJSON(ctx, detailCachePrefix+id, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.Upstream.GetProduct(ctx, id)
	if err != nil {
		return upstream.Product{}, err
	}
	_ = s.Cache.SetJSON(ctx, detailCachePrefix+id, p)
	return p, nil
}

// Create adds a product and invalidates the list cache.
func (s *Service) Create(ctx context.Context, in upstream.ProductInput) (upstream.Product, error) {
	if s == nil || s.Upstream == nil {
		return upstream.Product{}, errors.New("catalog service not configured")
	}
	p, err := s.Upstream.CreateProduct(ctx, in)
	if err != nil {
		return upstream.Product{}, err
	}
	_ = s.Cache.Del(ctx, listCacheKey)
	return p, nil
}

// Update mutates a product and drops its cached copies.
func (s *Service) Update(ctx context.Context, id string, in upstream.ProductInput) (upstream.Product, error) {
	if s == nil || s.Upstream == nil {
		return upstream.Product{}, errors.New("catalog service not configured")
	}
	p, err := s.Upstream.UpdateProduct(ctx, id, in)
	if err != nil {
		return upstream.Product{}, err
	}
	_ = s.Cache.Del(ctx, listCacheKey, detailCachePrefix+id)
	return p, nil
}

// Delete removes a product and drops its cached copies.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.Upstream == nil {
		return errors.New("catalog service not configured")
	}
	if err := s.Upstream.DeleteProduct(ctx, id); err != nil {
		return err
	}
	_ = s.Cache.Del(ctx, listCacheKey, detailCachePrefix+id)
	return nil
}
