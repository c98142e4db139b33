package clients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/printdesk/internal/shared"
)

// OrderCounter reports how many orders reference a client.
type OrderCounter interface {
	CountByClient(ctx context.Context, clientID string) (int, error)
}

// Invalidator drops cached read models after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

type Service struct {
	repo   Repository
	orders OrderCounter
	cache  Invalidator
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, cache Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger.With(slog.String("module", "clients")), now: time.Now}
}

// UseOrderCounter guards deletes against clients that still have orders.
func (s *Service) UseOrderCounter(counter OrderCounter) {
	s.orders = counter
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (Client, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Client{}, err
	}
	now := s.now().UTC()
	client := Client{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		ContactPerson:   strings.TrimSpace(req.ContactPerson),
		Phone:           strings.TrimSpace(req.Phone),
		Email:           strings.TrimSpace(req.Email),
		BillingAddress:  strings.TrimSpace(req.BillingAddress),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		SameAsBilling:   req.SameAsBilling,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if client.Name == "" || client.Phone == "" {
		fields := shared.FieldErrors{}
		if client.Name == "" {
			fields["name"] = "is required"
		}
		if client.Phone == "" {
			fields["phone"] = "is required"
		}
		return Client{}, fields
	}
	if client.SameAsBilling {
		client.ShippingAddress = client.BillingAddress
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return Client{}, fmt.Errorf("create client: %w", err)
	}
	s.logger.Info("client created", slog.String("client", client.ID))
	s.invalidate(ctx)
	return client, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateClientRequest) (Client, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return Client{}, err
	}
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return Client{}, err
	}
	if req.Name != nil {
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactPerson != nil {
		client.ContactPerson = strings.TrimSpace(*req.ContactPerson)
	}
	if req.Phone != nil {
		client.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Email != nil {
		client.Email = strings.TrimSpace(*req.Email)
	}
	if req.BillingAddress != nil {
		client.BillingAddress = strings.TrimSpace(*req.BillingAddress)
	}
	if req.ShippingAddress != nil {
		client.ShippingAddress = strings.TrimSpace(*req.ShippingAddress)
	}
	if req.SameAsBilling != nil {
		client.SameAsBilling = *req.SameAsBilling
	}
	if client.SameAsBilling {
		client.ShippingAddress = client.BillingAddress
	}
	fields := shared.FieldErrors{}
	if client.Name == "" {
		fields["name"] = "is required"
	}
	if client.Phone == "" {
		fields["phone"] = "is required"
	}
	if len(fields) > 0 {
		return Client{}, fields
	}
	client.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, client); err != nil {
		return Client{}, fmt.Errorf("update client: %w", err)
	}
	s.invalidate(ctx)
	return client, nil
}

func (s *Service) Get(ctx context.Context, id string) (Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a client. The order count is taken under the repository
// write lock, so an order created through Hold cannot slip in between.
func (s *Service) Delete(ctx context.Context, id string) error {
	var guard func(context.Context) error
	if s.orders != nil {
		guard = func(ctx context.Context) error {
			n, err := s.orders.CountByClient(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: client still has %d order(s)", shared.ErrConflict, n)
			}
			return nil
		}
	}
	if err := s.repo.DeleteIf(ctx, id, guard); err != nil {
		return err
	}
	s.logger.Info("client deleted", slog.String("client", id))
	s.invalidate(ctx)
	return nil
}

// Hold runs fn while the client cannot be deleted.
func (s *Service) Hold(ctx context.Context, id string, fn func(Client) error) error {
	return s.repo.Hold(ctx, id, fn)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("cache bump failed", slog.Any("error", err))
	}
}
