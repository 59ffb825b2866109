package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	customerhandler "smartgadgets-system/internal/customers/handler"
)

type CustomerHTTPHandler struct {
	customers *customerhandler.CustomerHandler
}

func NewCustomerHTTPHandler(customers *customerhandler.CustomerHandler) *CustomerHTTPHandler {
	return &CustomerHTTPHandler{customers: customers}
}

func (s *CustomerHTTPHandler) ListCustomers(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		customer, err := s.customers.GetCustomerByEmail(c.Request.Context(), email)
		if err != nil {
			respondError(c, err)
			return
		}
		success(c, http.StatusOK, []interface{}{customer})
		return
	}

	customers, err := s.customers.ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, customers)
}

func (s *CustomerHTTPHandler) GetCustomer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := s.customers.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, customer)
}

func (s *CustomerHTTPHandler) CreateCustomer(c *gin.Context) {
	var req customerhandler.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer, err := s.customers.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusCreated, customer)
}

func (s *CustomerHTTPHandler) UpdateCustomer(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var req customerhandler.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer, err := s.customers.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	success(c, http.StatusOK, customer)
}
