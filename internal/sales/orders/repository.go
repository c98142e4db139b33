package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/printdesk/printdesk/internal/platform/latency"
)

type Filter struct {
	Search   string
	Statuses []OrderStatus
	ClientID string
	Method   DeliveryMethod
}

type Repository interface {
	Create(ctx context.Context, order Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, filter Filter) ([]Order, error)
	Update(ctx context.Context, id string, fn func(*Order) error) (Order, error)
	Delete(ctx context.Context, id string) error
	NextNumber(ctx context.Context, day time.Time) (string, error)
}

type MemoryRepository struct {
	mu       sync.RWMutex
	orders   map[string]Order
	counters map[string]int
	latency  latency.Simulator
}

func NewMemoryRepository(sim latency.Simulator) *MemoryRepository {
	return &MemoryRepository{
		orders:   make(map[string]Order),
		counters: make(map[string]int),
		latency:  sim,
	}
}

func (r *MemoryRepository) Create(ctx context.Context, order Order) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.orders[order.ID] = order.Clone()
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Order, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Order{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return order.Clone(), nil
}

// List returns matching orders, newest first. Search is a case-insensitive
// substring over job name, id, order number and client name.
func (r *MemoryRepository) List(ctx context.Context, filter Filter) ([]Order, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	r.mu.RLock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		if term != "" && !matches(o, term) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, o.Status) {
			continue
		}
		if filter.ClientID != "" && o.ClientID != filter.ClientID {
			continue
		}
		if filter.Method != "" && o.DeliveryMethod != filter.Method {
			continue
		}
		out = append(out, o.Clone())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update applies fn to a copy of the order and stores it when fn succeeds.
func (r *MemoryRepository) Update(ctx context.Context, id string, fn func(*Order) error) (Order, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Order{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	draft := current.Clone()
	if err := fn(&draft); err != nil {
		return Order{}, err
	}
	r.orders[id] = draft
	return draft.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return ErrNotFound
	}
	delete(r.orders, id)
	return nil
}

// NextNumber hands out PD-YYYYMMDD-NNNN, sequential per day.
func (r *MemoryRepository) NextNumber(ctx context.Context, day time.Time) (string, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return "", err
	}
	key := day.Format("20060102")
	r.mu.Lock()
	r.counters[key]++
	seq := r.counters[key]
	r.mu.Unlock()
	return fmt.Sprintf("PD-%s-%04d", key, seq), nil
}

func matches(o Order, term string) bool {
	for _, field := range []string{o.JobName, o.ID, o.OrderNumber, o.ClientName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func containsStatus(list []OrderStatus, s OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
