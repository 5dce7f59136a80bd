package comanda

import (
	"net/http"

	"github.com/appetiteclub/apt"
)

// GetReport handles GET /report: per-item sold quantities joined with
// the current menu, sorted by quantity, plus the grand total and the
// orders-served counter.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetReport")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	perItemCount, err := h.reportRepo.PerItemCount(ctx)
	if err != nil {
		log.Errorf("cannot load sales counters: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load report")
		return
	}

	catalog, err := h.loadCatalog(ctx)
	if err != nil {
		log.Errorf("cannot load menu catalog: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load report")
		return
	}

	ordersServed, err := h.reportRepo.OrdersServed(ctx)
	if err != nil {
		log.Errorf("cannot load orders served counter: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load report")
		return
	}

	entries, grandTotal := BuildReportView(perItemCount, catalog)

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"entries":             entries,
		"grand_total":         grandTotal,
		"orders_served_count": ordersServed,
	}, nil)
}

// ClearReport handles DELETE /report. Only the per-item counters reset;
// the orders-served counter and the orders themselves are untouched.
func (h *Handler) ClearReport(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ClearReport")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	if err := h.reportRepo.ClearReport(ctx); err != nil {
		log.Errorf("cannot clear report: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not clear report")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"cleared": true,
	}, nil)
}
