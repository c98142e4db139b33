// Package dashboard builds the console summary and order receipts.
package dashboard

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/printdesk/printdesk/internal/production"
	"github.com/printdesk/printdesk/internal/sales/orders"
)

const recentOrderLimit = 5

// OrderSource lists and loads orders.
type OrderSource interface {
	List(ctx context.Context, req orders.ListOrdersRequest) ([]orders.Order, error)
	Get(ctx context.Context, id string) (orders.Order, error)
}

// JobSource lists production jobs.
type JobSource interface {
	List(ctx context.Context, filter production.ListFilter) ([]production.JobView, error)
}

// OrderStats counts orders per status.
type OrderStats struct {
	Total    int            `json:"total"`
	Open     int            `json:"open"`
	ByStatus map[string]int `json:"by_status"`
}

// Revenue aggregates money over non-cancelled orders.
type Revenue struct {
	Booked          float64 `json:"booked"`
	Collected       float64 `json:"collected"`
	Outstanding     float64 `json:"outstanding"`
	BookedText      string  `json:"booked_text"`
	CollectedText   string  `json:"collected_text"`
	OutstandingText string  `json:"outstanding_text"`
	Currency        string  `json:"currency"`
}

// JobStats summarises the shop floor.
type JobStats struct {
	Pending         int                `json:"pending"`
	Active          int                `json:"active"`
	Completed       int                `json:"completed"`
	AverageProgress int                `json:"average_progress"`
	PhaseMinutes    map[string]float64 `json:"avg_phase_minutes"`
}

// DeliveryStats counts orders waiting on the delivery board.
type DeliveryStats struct {
	ReadyForDelivery int `json:"ready_for_delivery"`
	InDelivery       int `json:"in_delivery"`
}

// RecentOrder is one row of the recent orders table.
type RecentOrder struct {
	ID          string    `json:"id"`
	OrderNumber string    `json:"order_number"`
	JobName     string    `json:"job_name"`
	ClientName  string    `json:"client_name"`
	Status      string    `json:"status"`
	Subtotal    string    `json:"subtotal"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary is the dashboard payload.
type Summary struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Orders       OrderStats    `json:"orders"`
	Revenue      Revenue       `json:"revenue"`
	Jobs         JobStats      `json:"jobs"`
	Deliveries   DeliveryStats `json:"deliveries"`
	RecentOrders []RecentOrder `json:"recent_orders"`
}

// Service assembles dashboard read models.
type Service struct {
	orders OrderSource
	jobs   JobSource
	cache  *Cache
	money  Money
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires the dashboard service.
func NewService(orderSrc OrderSource, jobSrc JobSource, cache *Cache, money Money, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		orders: orderSrc,
		jobs:   jobSrc,
		cache:  cache,
		money:  money,
		logger: logger.With(slog.String("module", "dashboard")),
		now:    time.Now,
	}
}

// Summary returns the cached summary, rebuilding it after any write.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary", s.money.Code())
	if err != nil {
		s.logger.Warn("dashboard cache unavailable", slog.Any("error", err))
		return s.build(ctx)
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.build(ctx)
	})
	return out, err
}

func (s *Service) build(ctx context.Context) (Summary, error) {
	var (
		list []orders.Order
		jobs []production.JobView
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.orders.List(gctx, orders.ListOrdersRequest{})
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = s.jobs.List(gctx, production.ListFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{GeneratedAt: s.now().UTC()}
	summary.Orders, summary.Revenue, summary.Deliveries = s.orderSections(list)
	summary.Jobs = jobSection(jobs)
	summary.RecentOrders = s.recent(list)
	return summary, nil
}

func (s *Service) orderSections(list []orders.Order) (OrderStats, Revenue, DeliveryStats) {
	stats := OrderStats{Total: len(list), ByStatus: make(map[string]int, len(orders.Statuses))}
	for _, st := range orders.Statuses {
		stats.ByStatus[string(st)] = 0
	}
	var rev Revenue
	var del DeliveryStats
	for _, o := range list {
		stats.ByStatus[string(o.Status)]++
		if !o.Status.Terminal() {
			stats.Open++
		}
		switch o.Status {
		case orders.StatusCancelled:
			continue
		case orders.StatusReadyForDelivery:
			del.ReadyForDelivery++
		case orders.StatusInDelivery:
			del.InDelivery++
		}
		rev.Booked += o.Subtotal
		rev.Collected += o.TotalPaid
		if o.BalanceToPay > 0 {
			rev.Outstanding += o.BalanceToPay
		}
	}
	rev.Booked = round2(rev.Booked)
	rev.Collected = round2(rev.Collected)
	rev.Outstanding = round2(rev.Outstanding)
	rev.BookedText = s.money.Format(rev.Booked)
	rev.CollectedText = s.money.Format(rev.Collected)
	rev.OutstandingText = s.money.Format(rev.Outstanding)
	rev.Currency = s.money.Code()
	return stats, rev, del
}

func jobSection(jobs []production.JobView) JobStats {
	stats := JobStats{PhaseMinutes: map[string]float64{}}
	progressSum := 0
	minutes := map[string]int{}
	samples := map[string]int{}
	for _, j := range jobs {
		switch j.Status {
		case production.JobPending:
			stats.Pending++
		case production.JobInProgress:
			stats.Active++
			progressSum += j.Progress
		case production.JobCompleted:
			stats.Completed++
		}
		for _, p := range j.Phases {
			if p.DurationMinutes == nil {
				continue
			}
			kind := string(p.Kind)
			if kind == "" {
				kind = "other"
			}
			minutes[kind] += *p.DurationMinutes
			samples[kind]++
		}
	}
	if stats.Active > 0 {
		stats.AverageProgress = int(math.Round(float64(progressSum) / float64(stats.Active)))
	}
	for kind, total := range minutes {
		stats.PhaseMinutes[kind] = round2(float64(total) / float64(samples[kind]))
	}
	return stats
}

func (s *Service) recent(list []orders.Order) []RecentOrder {
	sorted := append([]orders.Order(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.After(sorted[j].CreatedAt) })
	if len(sorted) > recentOrderLimit {
		sorted = sorted[:recentOrderLimit]
	}
	out := make([]RecentOrder, 0, len(sorted))
	for _, o := range sorted {
		out = append(out, RecentOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			JobName:     o.JobName,
			ClientName:  o.ClientName,
			Status:      string(o.Status),
			Subtotal:    s.money.Format(o.Subtotal),
			CreatedAt:   o.CreatedAt,
		})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
