package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/printdesk/printdesk/internal/masterdata/products"
	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/rbac"
	"github.com/printdesk/printdesk/internal/sales/clients"
	"github.com/printdesk/printdesk/internal/sales/orders"
)

// SeedServices lists the services populated by SeedDemo.
type SeedServices struct {
	Products   *products.Service
	Clients    *clients.Service
	Orders     *orders.Service
	Production *production.Service
	Logger     *slog.Logger
}

var seedActor = production.Actor{
	ID:         "u-admin",
	Name:       "Aisha Admin",
	Role:       rbac.RoleAdmin,
	Department: rbac.DeptManagement,
}

// SeedDemo fills the in-memory stores with a small catalog, two clients and a
// handful of orders so a fresh console has something to show.
func SeedDemo(ctx context.Context, svc SeedServices) error {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalog := []products.ProductForm{
		{Name: "Classic Cotton Tee", Category: "t-shirt", BasePrice: 85000, Stock: 400},
		{Name: "Dry-Fit Jersey", Category: "jersey", BasePrice: 120000, Stock: 150},
		{Name: "Pullover Hoodie", Category: "hoodie", BasePrice: 210000, Stock: 60},
	}
	productIDs := make([]string, 0, len(catalog))
	for _, form := range catalog {
		p, err := svc.Products.Create(ctx, form)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", form.Name, err)
		}
		productIDs = append(productIDs, p.ID)
	}

	roster := []clients.CreateClientRequest{
		{Name: "Harbor Running Club", ContactPerson: "Mira", Phone: "+62 812 0000 1111", Email: "mira@harbor.run", BillingAddress: "Jl. Pelabuhan 12", SameAsBilling: true},
		{Name: "Northside Robotics", ContactPerson: "Tom", Phone: "+62 813 2222 3333", BillingAddress: "Jl. Utara 4", ShippingAddress: "Gudang Utara 9"},
	}
	clientIDs := make([]string, 0, len(roster))
	for _, req := range roster {
		c, err := svc.Clients.Create(ctx, req)
		if err != nil {
			return fmt.Errorf("seed client %s: %w", req.Name, err)
		}
		clientIDs = append(clientIDs, c.ID)
	}

	deposit := 500000.0
	plans := []struct {
		order orders.CreateOrderRequest
		jobs  []production.JobType
	}{
		{
			order: orders.CreateOrderRequest{
				JobName:  "Harbor 10K finisher tees",
				ClientID: clientIDs[0],
				Lines:    []orders.LineRequest{{ProductID: productIDs[0], Quantity: 120}},
				Payments: &orders.PaymentsRequest{DesignDeposit: &orders.PaymentRequest{Amount: deposit}},
			},
			jobs: []production.JobType{production.JobTypeDesign},
		},
		{
			order: orders.CreateOrderRequest{
				JobName:        "Robotics team jerseys",
				ClientID:       clientIDs[1],
				DeliveryMethod: orders.DeliveryShipping,
				Lines: []orders.LineRequest{
					{ProductID: productIDs[1], Quantity: 25},
					{ProductID: productIDs[2], Quantity: 10},
				},
			},
			jobs: []production.JobType{production.JobTypePrint},
		},
		{
			order: orders.CreateOrderRequest{
				JobName:  "Club volunteer hoodies",
				ClientID: clientIDs[0],
				Lines:    []orders.LineRequest{{ProductID: productIDs[2], Quantity: 15}},
			},
		},
	}
	for _, plan := range plans {
		order, err := svc.Orders.Create(ctx, plan.order, seedActor.ID)
		if err != nil {
			return fmt.Errorf("seed order %s: %w", plan.order.JobName, err)
		}
		for _, jobType := range plan.jobs {
			if _, err := svc.Production.CreateJob(ctx, production.CreateJobRequest{OrderID: order.ID, Type: jobType}, seedActor); err != nil {
				return fmt.Errorf("seed %s job for %s: %w", jobType, order.OrderNumber, err)
			}
		}
	}

	logger.Info("demo data seeded",
		slog.Int("products", len(productIDs)),
		slog.Int("clients", len(clientIDs)),
		slog.Int("orders", len(plans)))
	return nil
}
