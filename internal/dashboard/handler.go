package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/rbac"
)

// Handler serves the dashboard and receipts.
type Handler struct {
	logger  *slog.Logger
	service *Service
	pdf     *PDFExporter
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance. pdf may be nil.
func NewHandler(logger *slog.Logger, service *Service, pdf *PDFExporter, rbacMW rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pdf: pdf, rbac: rbacMW}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermDashboardView))
		r.Get("/dashboard", h.summary)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermOrdersView))
		r.Get("/receipts/{orderID}", h.receipt)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("dashboard summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Receipt(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		httpx.JSON(w, http.StatusOK, receipt)
	case "html":
		page, err := RenderHTML(receipt)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	case "pdf":
		if h.pdf == nil {
			httpx.Problem(w, http.StatusNotImplemented, "PDF export disabled", "no PDF renderer is configured")
			return
		}
		doc, err := h.pdf.RenderReceipt(r.Context(), receipt)
		if err != nil {
			h.logger.Error("receipt pdf failed", slog.String("order", receipt.OrderNumber), slog.Any("error", err))
			httpx.Problem(w, http.StatusBadGateway, "PDF export failed", err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "receipt-"+receipt.OrderNumber+".pdf"))
		_, _ = w.Write(doc)
	default:
		httpx.Problem(w, http.StatusBadRequest, "Unsupported format", "format must be json, html or pdf")
	}
}
