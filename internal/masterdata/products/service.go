package products

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/masterdata/shared"
	internalShared "github.com/printdesk/printdesk/internal/shared"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger.With(slog.String("module", "products")), now: time.Now}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	if err := s.validate(form); err != nil {
		return Product{}, err
	}
	now := s.now().UTC()
	product := Product{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(form.Name),
		Category:  strings.TrimSpace(form.Category),
		BasePrice: form.BasePrice,
		Stock:     form.Stock,
		IsActive:  form.IsActive == nil || *form.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created", slog.String("product", product.ID))
	return product, nil
}

func (s *Service) Update(ctx context.Context, id string, form ProductForm) (Product, error) {
	if err := s.validate(form); err != nil {
		return Product{}, err
	}
	return s.repo.Update(ctx, id, func(p *Product) error {
		p.Name = strings.TrimSpace(form.Name)
		p.Category = strings.TrimSpace(form.Category)
		p.BasePrice = form.BasePrice
		p.Stock = form.Stock
		if form.IsActive != nil {
			p.IsActive = *form.IsActive
		}
		p.UpdatedAt = s.now().UTC()
		return nil
	})
}

// AdjustStock applies a signed delta; stock never goes negative.
func (s *Service) AdjustStock(ctx context.Context, id string, adj StockAdjustment) (Product, error) {
	if err := internalShared.ValidateStruct(adj); err != nil {
		return Product{}, err
	}
	product, err := s.repo.Update(ctx, id, func(p *Product) error {
		if p.Stock+adj.Delta < 0 {
			return internalShared.FieldErrors{"delta": fmt.Sprintf("only %d in stock", p.Stock)}
		}
		p.Stock += adj.Delta
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.logger.Info("stock adjusted",
		slog.String("product", id),
		slog.Int("delta", adj.Delta),
		slog.String("reason", adj.Reason))
	return product, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
