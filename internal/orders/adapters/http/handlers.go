package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dejobratic/dualwrite/internal/orders/app"
	"github.com/dejobratic/dualwrite/internal/orders/app/queries"
	"github.com/dejobratic/dualwrite/internal/orders/domain"
	"github.com/dejobratic/dualwrite/internal/orders/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register binds the order routes. The chaos route exists only in demonstration mode.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
	})

	if h.service.ChaosEnabled() {
		r.Post("/chaos/phantom-event", h.simulatePhantomEvent)
	}
}

type createOrderResponse struct {
	OrderID uuid.UUID `json:"orderId"`
}

type itemResponse struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type orderResponse struct {
	ID         uuid.UUID       `json:"id"`
	CustomerID uuid.UUID       `json:"customerId"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Items      []itemResponse  `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type listOrdersResponse struct {
	Orders   []orderResponse `json:"orders"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

type phantomEventResponse struct {
	OrderID          uuid.UUID `json:"orderId"`
	ExistsInDB       bool      `json:"existsInDb"`
	EventSentToKafka bool      `json:"eventSentToKafka"`
	DBRolledBack     bool      `json:"dbRolledBack"`
	Explanation      string    `json:"explanation"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]itemResponse, 0, len(order.Items()))
	for _, item := range order.Items() {
		items = append(items, itemResponse{
			ProductID: item.ProductID(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}
	return orderResponse{
		ID:         order.ID(),
		CustomerID: order.CustomerID(),
		Status:     string(order.Status()),
		Total:      order.Total(),
		Items:      items,
		CreatedAt:  order.CreatedAt(),
		UpdatedAt:  order.UpdatedAt(),
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))

	if idemKey != "" {
		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	var payload app.CreateOrderInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orderID, err := h.service.CreateOrder(ctx, payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(createOrderResponse{OrderID: orderID})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusCreated,
			Body:       body,
			OrderID:    orderID,
		}
		// The order already exists; a failed save only costs the replay.
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			h.logger.ErrorContext(ctx, "failed to store idempotent response",
				"idempotency_key", idemKey,
				"order_id", orderID,
				"error", err,
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/orders/"+orderID.String())
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	var query queries.ListOrdersQuery
	params := r.URL.Query()

	if statusParam := params.Get("status"); statusParam != "" {
		status, err := domain.ParseOrderStatus(strings.ToUpper(statusParam))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Status = &status
	}

	var err error
	if query.Page, err = intParam(params.Get("page")); err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	if query.PageSize, err = intParam(params.Get("page_size")); err != nil {
		writeError(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	resp := listOrdersResponse{
		Orders:   make([]orderResponse, 0, len(orders)),
		Page:     max(query.Page, 1),
		PageSize: query.PageSize,
	}
	if resp.PageSize == 0 {
		resp.PageSize = ports.DefaultPageSize
	}
	for _, order := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(order))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) simulatePhantomEvent(w http.ResponseWriter, r *http.Request) {
	var payload app.CreateOrderInput
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.SimulatePhantomEvent(r.Context(), payload)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, phantomEventResponse{
		OrderID:          report.OrderID,
		ExistsInDB:       report.ExistsInDB,
		EventSentToKafka: report.EventSentToKafka,
		DBRolledBack:     report.DBRolledBack,
		Explanation:      report.Explanation,
	})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
