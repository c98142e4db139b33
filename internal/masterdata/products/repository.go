package products

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/printdesk/printdesk/internal/masterdata/shared"
	"github.com/printdesk/printdesk/internal/platform/latency"
	internalShared "github.com/printdesk/printdesk/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id string) (Product, error)
	Save(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, fn func(*Product) error) (Product, error)
}

type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]Product
	latency  latency.Simulator
}

func NewMemoryRepository(sim latency.Simulator) *MemoryRepository {
	return &MemoryRepository{products: make(map[string]Product), latency: sim}
}

// List filters by name/category substring, category and active flag, then pages
// the sorted result.
func (r *MemoryRepository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return nil, 0, err
	}
	filters = filters.Normalize()
	term := strings.ToLower(strings.TrimSpace(filters.Search))

	r.mu.RLock()
	matched := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		if filters.Category != "" && !strings.EqualFold(p.Category, filters.Category) {
			continue
		}
		if filters.IsActive != nil && p.IsActive != *filters.IsActive {
			continue
		}
		matched = append(matched, p)
	}
	r.mu.RUnlock()

	less := func(a, b Product) bool {
		switch filters.SortBy {
		case shared.SortByPrice:
			if a.BasePrice != b.BasePrice {
				return a.BasePrice < b.BasePrice
			}
		case shared.SortByStock:
			if a.Stock != b.Stock {
				return a.Stock < b.Stock
			}
		case shared.SortByCategory:
			if a.Category != b.Category {
				return a.Category < b.Category
			}
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	}
	sort.Slice(matched, func(i, j int) bool {
		if filters.SortDir == shared.SortDesc {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	page := internalShared.NewPagination(filters.Page, filters.Limit, len(matched))
	start, end := page.Bounds()
	return matched[start:end], len(matched), nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Product, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Product{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepository) Save(ctx context.Context, product Product) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.products[product.ID] = product
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, fn func(*Product) error) (Product, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Product{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	if err := fn(&p); err != nil {
		return Product{}, err
	}
	r.products[id] = p
	return p, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}
