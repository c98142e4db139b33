package clients

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/printdesk/printdesk/internal/platform/latency"
)

type Repository interface {
	Create(ctx context.Context, client Client) error
	Get(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, error)
	Save(ctx context.Context, client Client) error
	Delete(ctx context.Context, id string) error
	// DeleteIf removes the client when guard passes. Guard runs while no
	// Hold on the same repository is active.
	DeleteIf(ctx context.Context, id string, guard func(context.Context) error) error
	// Hold runs fn while the client is guaranteed to exist.
	Hold(ctx context.Context, id string, fn func(Client) error) error
}

type MemoryRepository struct {
	mu      sync.RWMutex
	clients map[string]Client
	latency latency.Simulator
}

func NewMemoryRepository(sim latency.Simulator) *MemoryRepository {
	return &MemoryRepository{clients: make(map[string]Client), latency: sim}
}

func (r *MemoryRepository) Create(ctx context.Context, client Client) error {
	return r.Save(ctx, client)
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Client, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return Client{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return Client{}, ErrNotFound
	}
	return client, nil
}

// List matches the search term against name and phone, case-insensitively.
func (r *MemoryRepository) List(ctx context.Context, req ListClientsRequest) ([]Client, error) {
	if err := r.latency.Wait(ctx); err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(req.Search))
	r.mu.RLock()
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		if term != "" && !strings.Contains(strings.ToLower(c.Name), term) && !strings.Contains(strings.ToLower(c.Phone), term) {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !strings.EqualFold(out[i].Name, out[j].Name) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Save(ctx context.Context, client Client) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	return r.DeleteIf(ctx, id, nil)
}

func (r *MemoryRepository) DeleteIf(ctx context.Context, id string, guard func(context.Context) error) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return ErrNotFound
	}
	if guard != nil {
		if err := guard(ctx); err != nil {
			return err
		}
	}
	delete(r.clients, id)
	return nil
}

func (r *MemoryRepository) Hold(ctx context.Context, id string, fn func(Client) error) error {
	if err := r.latency.Wait(ctx); err != nil {
		return err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[id]
	if !ok {
		return ErrNotFound
	}
	return fn(client)
}
