package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/platform/latency"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/shared"
)

type countingCache struct{ bumps int }

func (c *countingCache) Bump(context.Context) error {
	c.bumps++
	return nil
}

type fixedCounter map[string]int

func (f fixedCounter) CountByClient(_ context.Context, id string) (int, error) {
	return f[id], nil
}

func newService() (*Service, *countingCache) {
	cache := &countingCache{}
	return NewService(NewMemoryRepository(latency.New(0)), cache, nil), cache
}

func TestCreateTrimsAndCopiesBillingAddress(t *testing.T) {
	svc, cache := newService()
	client, err := svc.Create(context.Background(), CreateClientRequest{
		Name:            "  Harbor Running Club ",
		Phone:           "0812",
		BillingAddress:  "Jl. Pelabuhan 12",
		ShippingAddress: "ignored",
		SameAsBilling:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Harbor Running Club", client.Name)
	assert.Equal(t, "Jl. Pelabuhan 12", client.ShippingAddress)
	assert.NotEmpty(t, client.ID)
	assert.Equal(t, 1, cache.bumps)
}

func TestCreateRejectsBlankFields(t *testing.T) {
	svc, _ := newService()

	_, err := svc.Create(context.Background(), CreateClientRequest{Name: "   ", Phone: "  "})
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "is required", fields["phone"])

	_, err = svc.Create(context.Background(), CreateClientRequest{Name: "A", Phone: "1", Email: "nope"})
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "email")
}

func TestUpdateAppliesOnlyGivenFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateClientRequest{Name: "Northside", Phone: "0813", Email: "a@b.co"})
	require.NoError(t, err)

	phone := "0899"
	updated, err := svc.Update(ctx, created.ID, UpdateClientRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "0899", updated.Phone)
	assert.Equal(t, "Northside", updated.Name)
	assert.Equal(t, "a@b.co", updated.Email)

	_, err = svc.Update(ctx, "missing", UpdateClientRequest{Phone: &phone})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListSearchesNameAndPhone(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	for _, req := range []CreateClientRequest{
		{Name: "zeta sports", Phone: "111"},
		{Name: "Alpha Robotics", Phone: "222"},
		{Name: "Beta Cafe", Phone: "333-alpha"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, ListClientsRequest{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Alpha Robotics", all[0].Name)
	assert.Equal(t, "zeta sports", all[2].Name)

	found, err := svc.List(ctx, ListClientsRequest{Search: "ALPHA"})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestDeleteGuardsClientsWithOrders(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	busy, err := svc.Create(ctx, CreateClientRequest{Name: "Busy", Phone: "1"})
	require.NoError(t, err)
	idle, err := svc.Create(ctx, CreateClientRequest{Name: "Idle", Phone: "2"})
	require.NoError(t, err)
	svc.UseOrderCounter(fixedCounter{busy.ID: 2})

	assert.ErrorIs(t, svc.Delete(ctx, busy.ID), shared.ErrConflict)
	require.NoError(t, svc.Delete(ctx, idle.ID))
	assert.ErrorIs(t, svc.Delete(ctx, idle.ID), shared.ErrNotFound)
}

func TestUpdateRejectsBlankRequiredFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	client, err := svc.Create(ctx, CreateClientRequest{Name: "Harbor", Phone: "0812"})
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(ctx, client.ID, UpdateClientRequest{Name: &blank})
	var fields shared.FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "is required", fields["name"])

	_, err = svc.Update(ctx, client.ID, UpdateClientRequest{Phone: &blank})
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "is required", fields["phone"])

	stored, err := svc.Get(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbor", stored.Name)
	assert.Equal(t, "0812", stored.Phone)
}

func TestHoldAndGuardedDelete(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	client, err := svc.Create(ctx, CreateClientRequest{Name: "Held", Phone: "1"})
	require.NoError(t, err)

	counted := false
	svc.UseOrderCounter(counterFunc(func() int {
		counted = true
		return 0
	}))
	err = svc.Hold(ctx, client.ID, func(held Client) error {
		assert.Equal(t, "Held", held.Name)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, client.ID))
	assert.True(t, counted)

	err = svc.Hold(ctx, client.ID, func(Client) error { return nil })
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

type counterFunc func() int

func (f counterFunc) CountByClient(context.Context, string) (int, error) {
	return f(), nil
}

type principal rbac.Role

func (p principal) RoleName() rbac.Role             { return rbac.Role(p) }
func (p principal) DepartmentName() rbac.Department { return rbac.DeptSales }

func TestHandlerEnforcesPermissions(t *testing.T) {
	svc, _ := newService()
	role := rbac.RoleSalesExecutive
	mw := rbac.Middleware{Resolve: func(*http.Request) rbac.Principal { return principal(role) }}
	r := chi.NewRouter()
	NewHandler(nil, svc, mw).MountRoutes(r)

	post := httptest.NewRequest(http.MethodPost, "/clients", strings.NewReader(`{"name":"Walk-in","phone":"555"}`))
	res := httptest.NewRecorder()
	r.ServeHTTP(res, post)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())

	list, err := svc.List(context.Background(), ListClientsRequest{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/clients/"+list[0].ID, nil))
	assert.Equal(t, http.StatusForbidden, res.Code)

	role = rbac.RoleSalesManager
	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodDelete, "/clients/"+list[0].ID, nil))
	assert.Equal(t, http.StatusNoContent, res.Code)

	res = httptest.NewRecorder()
	r.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/clients/"+list[0].ID, nil))
	assert.Equal(t, http.StatusNotFound, res.Code)
}
