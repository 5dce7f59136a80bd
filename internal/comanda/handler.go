package comanda

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/comandaclub/comanda/pkg/enums/orderstatus"
	"github.com/comandaclub/comanda/pkg/event"
)

const MaxBodyBytes = 1 << 20

type Handler struct {
	repo       OrderRepo
	menuRepo   MenuRepo
	reportRepo ReportRepo
	cache      *OrderStateCache
	publisher  events.Publisher
	workflow   orderstatus.Workflow
	origin     string
	logger     apt.Logger
	config     *apt.Config
	tlm        *telemetry.HTTP
}

type HandlerDeps struct {
	Repo       OrderRepo
	MenuRepo   MenuRepo
	ReportRepo ReportRepo
	Cache      *OrderStateCache
	Publisher  events.Publisher
	Workflow   orderstatus.Workflow
	// Origin stamps published events with this instance's identity so
	// the event subscriber can ignore its own events replayed off the
	// topic. Defaults to a fresh UUID.
	Origin string
}

func NewHandler(hd HandlerDeps, config *apt.Config, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if hd.Origin == "" {
		hd.Origin = uuid.New().String()
	}
	return &Handler{
		repo:       hd.Repo,
		menuRepo:   hd.MenuRepo,
		reportRepo: hd.ReportRepo,
		cache:      hd.Cache,
		publisher:  hd.Publisher,
		workflow:   hd.Workflow,
		origin:     hd.Origin,
		logger:     logger,
		config:     config,
		tlm:        telemetry.NewHTTP(),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Delete("/", h.ResetOrders)
		r.Get("/{id}", h.GetOrder)
		r.Put("/{id}", h.EditOrder)
		r.Delete("/{id}", h.DeleteOrder)
		r.Patch("/{id}/advance", h.AdvanceOrder)
		r.Get("/number/{number}", h.GetOrderByNumber)
	})

	r.Route("/menu/items", func(r chi.Router) {
		r.Put("/", h.UpsertMenuItem)
		r.Get("/", h.ListMenuItems)
		r.Delete("/{id}", h.DeleteMenuItem)
	})

	r.Route("/report", func(r chi.Router) {
		r.Get("/", h.GetReport)
		r.Delete("/", h.ClearReport)
	})
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}

type orderPayload struct {
	CustomerName string     `json:"customer_name"`
	Items        []LineItem `json:"items"`
}

func (h *Handler) decodeOrderPayload(w http.ResponseWriter, r *http.Request, log apt.Logger) (*orderPayload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return nil, false
	}

	var payload orderPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Debug("invalid order payload", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}

	return &payload, true
}

// CreateOrder handles POST /orders. The submitted line items are merged
// through the builder semantics, priced against the current menu, and
// persisted as a new open order with the next sequential number. The
// sales counters are incremented exactly once per creation.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	payload, ok := h.decodeOrderPayload(w, r, log)
	if !ok {
		return
	}

	items := MergeLineItems(payload.Items)
	if validationErrors := ValidateOrderItems(items); len(validationErrors) > 0 {
		log.Debug("order validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, validationErrors[0].Message)
		return
	}

	catalog, err := h.loadCatalog(ctx)
	if err != nil {
		log.Errorf("cannot load menu catalog: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu")
		return
	}

	number, err := h.repo.NextNumber(ctx)
	if err != nil {
		log.Errorf("cannot reserve order number: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not assign order number")
		return
	}

	order := &Order{
		Number:       number,
		CustomerName: payload.CustomerName,
		Items:        items,
		Status:       orderstatus.Statuses.Open.Code(),
		TotalUnits:   ComputeTotal(items, catalog),
	}
	order.BeforeCreate()

	if err := h.repo.Create(ctx, order); err != nil {
		log.Errorf("cannot create order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not create order")
		return
	}

	// Aggregate increments happen after the order is durable. A failure
	// here leaves the report behind by one order; the order itself is
	// never rolled back.
	if err := h.reportRepo.RecordSale(ctx, items); err != nil {
		log.Errorf("cannot record sale for order %d: %v", order.Number, err)
	}
	if err := h.reportRepo.IncrementOrdersServed(ctx); err != nil {
		log.Errorf("cannot increment orders served: %v", err)
	}

	if h.cache != nil {
		h.cache.Set(order)
	}
	h.publish(ctx, NewOrderEvent(event.EventOrderCreated, order, ""))

	apt.Respond(w, http.StatusCreated, order, nil)
}

// ListOrders handles GET /orders, optionally filtered by ?status=.
// Served from the state cache once warmed; until then (or after a
// failed warm) the repository answers directly.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	status := r.URL.Query().Get("status")
	if status != "" && !h.workflow.Contains(status) {
		apt.RespondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	if h.cache != nil && h.cache.Warmed() {
		var orders []*Order
		if status != "" {
			orders = h.cache.GetByStatus(status)
		} else {
			orders = h.cache.GetAll()
		}
		apt.Respond(w, http.StatusOK, map[string]interface{}{
			"orders": orders,
		}, nil)
		return
	}

	filter := OrderFilter{}
	if status != "" {
		filter.Status = &status
	}

	orders, err := h.repo.List(ctx, filter)
	if err != nil {
		log.Errorf("cannot list orders: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not list orders")
		return
	}

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
	}, nil)
}

// GetOrder handles GET /orders/{id}
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.findOrder(ctx, id)
	if err != nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.Respond(w, http.StatusOK, order, nil)
}

// GetOrderByNumber handles GET /orders/number/{number}. Only orders that
// have not been delivered are matched, so numbers freed by finished
// orders do not shadow active ones.
func (h *Handler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderByNumber")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil || number < 1 {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order number")
		return
	}

	order, err := h.repo.FindActiveByNumber(ctx, number)
	if err != nil {
		log.Errorf("cannot find order by number: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	apt.Respond(w, http.StatusOK, order, nil)
}

// AdvanceOrder handles PATCH /orders/{id}/advance. Without a body the
// order moves to the successor of its current status; a body carrying
// {"status": ...} must name exactly that successor. Anything else is
// rejected, delivered orders included.
func (h *Handler) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.AdvanceOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Could not read request body")
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			apt.RespondError(w, http.StatusBadRequest, "Invalid JSON payload")
			return
		}
	}

	order, err := h.findOrder(ctx, id)
	if err != nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	newStatus := payload.Status
	if newStatus == "" {
		next, ok := h.workflow.Next(order.Status)
		if !ok {
			apt.RespondError(w, http.StatusConflict, "Order already delivered")
			return
		}
		newStatus = next
	}

	previousStatus := order.Status
	if err := order.Advance(h.workflow, newStatus, time.Now()); err != nil {
		if errors.Is(err, ErrTerminalStatus) {
			apt.RespondError(w, http.StatusConflict, "Order already delivered")
			return
		}
		apt.RespondError(w, http.StatusConflict, "Invalid status transition")
		return
	}

	if err := h.repo.Save(ctx, order); err != nil {
		log.Errorf("cannot update order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	if h.cache != nil {
		h.cache.Set(order)
	}
	h.publish(ctx, NewOrderEvent(event.EventOrderStatusChanged, order, previousStatus))

	apt.Respond(w, http.StatusOK, order, nil)
}

// EditOrder handles PUT /orders/{id}. Line items, customer name and
// total are replaced; number and status never change. The sales counters
// are reconciled by reversing the old items and recording the new ones.
func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.EditOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	payload, ok := h.decodeOrderPayload(w, r, log)
	if !ok {
		return
	}

	items := MergeLineItems(payload.Items)
	if validationErrors := ValidateOrderItems(items); len(validationErrors) > 0 {
		log.Debug("order validation failed", "errors", validationErrors)
		apt.RespondError(w, http.StatusBadRequest, validationErrors[0].Message)
		return
	}

	order, err := h.findOrder(ctx, id)
	if err != nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	catalog, err := h.loadCatalog(ctx)
	if err != nil {
		log.Errorf("cannot load menu catalog: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu")
		return
	}

	previousItems := order.Items

	order.Items = items
	order.CustomerName = payload.CustomerName
	order.TotalUnits = ComputeTotal(items, catalog)
	order.UpdatedAt = time.Now()

	if err := h.repo.Save(ctx, order); err != nil {
		log.Errorf("cannot update order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not update order")
		return
	}

	if err := h.reportRepo.ReverseSale(ctx, previousItems); err != nil {
		log.Errorf("cannot reverse sale for order %d: %v", order.Number, err)
	}
	if err := h.reportRepo.RecordSale(ctx, items); err != nil {
		log.Errorf("cannot record sale for order %d: %v", order.Number, err)
	}

	if h.cache != nil {
		h.cache.Set(order)
	}
	h.publish(ctx, NewOrderEvent(event.EventOrderUpdated, order, order.Status))

	apt.Respond(w, http.StatusOK, order, nil)
}

// DeleteOrder handles DELETE /orders/{id}. The order's contribution to
// the sales counters is reversed, orders-served included.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.DeleteOrder")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	id, ok := h.parseIDParam(w, r)
	if !ok {
		return
	}

	order, err := h.findOrder(ctx, id)
	if err != nil {
		log.Errorf("cannot find order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not load order")
		return
	}
	if order == nil {
		apt.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		log.Errorf("cannot delete order: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not delete order")
		return
	}

	if err := h.reportRepo.ReverseSale(ctx, order.Items); err != nil {
		log.Errorf("cannot reverse sale for order %d: %v", order.Number, err)
	}
	if err := h.reportRepo.DecrementOrdersServed(ctx); err != nil {
		log.Errorf("cannot decrement orders served: %v", err)
	}

	if h.cache != nil {
		h.cache.Remove(id)
	}
	h.publish(ctx, NewOrderEvent(event.EventOrderDeleted, order, order.Status))

	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"deleted": id.String(),
	}, nil)
}

// ResetOrders handles DELETE /orders: the bulk reset that empties the
// orders collection. The sales report is independent and stays intact.
func (h *Handler) ResetOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ResetOrders")
	defer finish()
	log := h.log(r)
	ctx := r.Context()

	count, err := h.repo.DeleteAll(ctx)
	if err != nil {
		log.Errorf("cannot reset orders: %v", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not reset orders")
		return
	}

	if h.cache != nil {
		h.cache.Clear()
	}

	log.Infof("Reset removed %d orders", count)
	apt.Respond(w, http.StatusOK, map[string]interface{}{
		"deleted_count": count,
	}, nil)
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) findOrder(ctx context.Context, id OrderID) (*Order, error) {
	if h.cache != nil {
		if o := h.cache.Get(id); o != nil {
			return o, nil
		}
	}
	return h.repo.Get(ctx, id)
}

func (h *Handler) loadCatalog(ctx context.Context) (Catalog, error) {
	items, err := h.menuRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return CatalogFrom(items), nil
}

func (h *Handler) publish(ctx context.Context, evt *event.OrderEvent) {
	if h.publisher == nil {
		return
	}
	evt.Origin = h.origin
	data, _ := json.Marshal(evt)
	if err := h.publisher.Publish(ctx, event.OrdersTopic, data); err != nil {
		h.logger.Errorf("Failed to publish %s event: %v", evt.EventType, err)
	}
}
