package comanda

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type menuItemPayload struct {
	Name      string `json:"name"`
	UnitValue int    `json:"unit_value"`
}

// UpsertMenuItem handles PUT /menu/items. Names are normalized to the
// canonical uppercase form before matching, so "pastel" and "PASTEL"
// address the same catalog entry.
func (h *Handler) UpsertMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpsertMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload menuItemPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Debug("invalid menu item payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	item := &MenuItem{
		Name:      NormalizeName(payload.Name),
		UnitValue: payload.UnitValue,
	}
	if validationErrors := ValidateMenuItem(item); len(validationErrors) > 0 {
		apt.RespondError(w, http.StatusBadRequest, validationErrors[0].Message)
		return
	}

	existing, err := h.menuRepo.GetByName(ctx, item.Name)
	if err != nil {
		log.Errorf("cannot look up menu item: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save menu item")
		return
	}

	status := http.StatusCreated
	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.UpdatedAt = time.Now()
		status = http.StatusOK
	} else {
		item.BeforeCreate()
	}

	if err := h.menuRepo.Upsert(ctx, item); err != nil {
		log.Errorf("cannot save menu item: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not save menu item")
		return
	}

	apt.Respond(w, status, item, nil)
}

// ListMenuItems handles GET /menu/items
func (h *Handler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListMenuItems")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	items, err := h.menuRepo.List(ctx)
	if err != nil {
		log.Errorf("cannot list menu items: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list menu items")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"items": items,
	}, nil)
}

// DeleteMenuItem handles DELETE /menu/items/{id}. Existing orders keep
// their line items; the removed entry simply stops contributing a unit
// value to new totals and report lines.
func (h *Handler) DeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteMenuItem")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid menu item ID")
		return
	}

	if err := h.menuRepo.Delete(ctx, id); err != nil {
		log.Errorf("cannot delete menu item: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete menu item")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"deleted": id.String(),
	}, nil)
}
