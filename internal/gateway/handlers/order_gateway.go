package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartgadgets-system/internal/gateway/middleware"
	orderhandler "smartgadgets-system/internal/orders/handler"
)

type OrderHTTPHandler struct {
	orders    *orderhandler.OrderHandler
	jwtSecret []byte
}

func NewOrderHTTPHandler(orders *orderhandler.OrderHandler, jwtSecret []byte) *OrderHTTPHandler {
	return &OrderHTTPHandler{
		orders:    orders,
		jwtSecret: jwtSecret,
	}
}

// ListOrders gives admins the full filtered listing. Anyone else must
// supply an order number (optionally with the customer email to match)
// and gets at most that single order back.
func (s *OrderHTTPHandler) ListOrders(c *gin.Context) {
	isAdmin := middleware.IsAdminRequest(c, s.jwtSecret)

	if !isAdmin {
		orderNumber := c.Query("order_number")
		customerEmail := c.Query("customer_email")

		if orderNumber == "" {
			fail(c, http.StatusBadRequest, "Order number or customer email required for order lookup")
			return
		}

		order, err := s.orders.GetOrderByNumber(c.Request.Context(), orderNumber)
		if err != nil {
			respondError(c, err)
			return
		}
		if customerEmail != "" && order.CustomerEmail != customerEmail {
			fail(c, http.StatusNotFound, "Order not found")
			return
		}

		successPaginated(c, []interface{}{order}, 1, 1, 1)
		return
	}

	limit, page, offset := parsePagination(c)
	opts := orderhandler.ListOrdersOptions{
		Status:         c.Query("status"),
		PaymentStatus:  c.Query("payment_status"),
		ShippingMethod: c.Query("shipping_method"),
		Search:         c.Query("search"),
		DateFrom:       c.Query("date_from"),
		DateTo:         c.Query("date_to"),
		Limit:          limit,
		Offset:         offset,
	}

	orders, total, err := s.orders.ListOrders(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}

	successPaginated(c, orders, page, limit, total)
}

func (s *OrderHTTPHandler) GetOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := s.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, order)
}

func (s *OrderHTTPHandler) CreateOrder(c *gin.Context) {
	var req orderhandler.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	order, err := s.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusCreated, order)
}

type updateOrderStatusRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

func (s *OrderHTTPHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		fail(c, http.StatusBadRequest, "status is required")
		return
	}

	order, err := s.orders.UpdateOrderStatus(c.Request.Context(), id, req.Status, req.AdminNotes)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, order)
}

type updatePaymentStatusRequest struct {
	PaymentStatus    string  `json:"payment_status"`
	PaymentReference *string `json:"payment_reference"`
}

func (s *OrderHTTPHandler) UpdatePaymentStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req updatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PaymentStatus == "" {
		fail(c, http.StatusBadRequest, "payment_status is required")
		return
	}

	order, err := s.orders.UpdatePaymentStatus(c.Request.Context(), id, req.PaymentStatus, req.PaymentReference)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, order)
}

func (s *OrderHTTPHandler) GetOrderStats(c *gin.Context) {
	stats, err := s.orders.GetOrderStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, stats)
}
