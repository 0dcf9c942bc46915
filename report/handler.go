package report

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/queenscorner/queenscorner-erp/internal/commerce/shared"
	"github.com/queenscorner/queenscorner-erp/internal/platform/httpx"
)

// Handler serves on-demand PDF downloads.
type Handler struct {
	client   *Client
	composer *Composer
	logger   *slog.Logger
}

func NewHandler(client *Client, composer *Composer, logger *slog.Logger) *Handler {
	return &Handler{client: client, composer: composer, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/quotations/{id}", h.quotationPDF)
	r.Get("/invoices/{id}", h.invoicePDF)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) quotationPDF(w http.ResponseWriter, r *http.Request) {
	h.renderPDF(w, r, shared.DocQuotation)
}

func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	h.renderPDF(w, r, shared.DocInvoice)
}

func (h *Handler) renderPDF(w http.ResponseWriter, r *http.Request, doc shared.DocumentType) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	html, err := h.composer.Compose(r.Context(), string(doc), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("render pdf", slog.String("document", string(doc)), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+string(doc)+"-"+strconv.FormatInt(id, 10)+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
