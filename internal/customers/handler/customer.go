package handler

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smartgadgets-system/internal/database/models"
	"smartgadgets-system/internal/utils"
)

type CustomerHandler struct {
	db *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

// CustomerView carries the aggregates computed by joining orders; they are
// never stored on the customer row.
type CustomerView struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	OrderCount    int64      `json:"order_count"`
	TotalSpent    int64      `json:"total_spent"`
	LastOrderDate *time.Time `json:"last_order_date,omitempty"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Notes *string `json:"notes"`
}

type UpdateCustomerRequest struct {
	Name  utils.Optional[string] `json:"name"`
	Email utils.Optional[string] `json:"email"`
	Notes utils.Optional[string] `json:"notes"`
}

const customerAggregateSelect = "customers.*, " +
	"COUNT(orders.id) AS order_count, " +
	"COALESCE(SUM(orders.total_amount), 0) AS total_spent, " +
	"MAX(orders.order_date) AS last_order_date"

func (s *CustomerHandler) aggregateQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Customer{}).
		Select(customerAggregateSelect).
		Joins("LEFT JOIN orders ON orders.customer_id = customers.id").
		Group("customers.id")
}

func (s *CustomerHandler) ListCustomers(ctx context.Context) ([]CustomerView, error) {
	var customers []CustomerView
	err := s.aggregateQuery(ctx).
		Order("customers.id ASC").
		Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *CustomerHandler) GetCustomer(ctx context.Context, id int64) (*CustomerView, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}

	var customer CustomerView
	res := s.aggregateQuery(ctx).
		Where("customers.id = ?", id).
		Scan(&customer)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound
	}
	return &customer, nil
}

func (s *CustomerHandler) GetCustomerByEmail(ctx context.Context, email string) (*CustomerView, error) {
	if email == "" {
		return nil, utils.ErrInvalid
	}

	var customer CustomerView
	res := s.aggregateQuery(ctx).
		Where("customers.email = ?", email).
		Scan(&customer)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrNotFound
	}
	return &customer, nil
}

func (s *CustomerHandler) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*CustomerView, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", utils.ErrInvalid)
	}

	var existing models.Customer
	err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: customer with email %s already exists", utils.ErrConflict, req.Email)
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	customer := models.Customer{
		Name:  req.Name,
		Email: req.Email,
		Notes: req.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}

	return s.GetCustomer(ctx, customer.ID)
}

func (s *CustomerHandler) UpdateCustomer(ctx context.Context, id int64, req UpdateCustomerRequest) (*CustomerView, error) {
	if id <= 0 {
		return nil, utils.ErrInvalid
	}
	if req.Name.Set && (req.Name.Null || req.Name.Value == "") {
		return nil, fmt.Errorf("%w: name must not be empty", utils.ErrInvalid)
	}
	if req.Email.Set && (req.Email.Null || req.Email.Value == "") {
		return nil, fmt.Errorf("%w: email must not be empty", utils.ErrInvalid)
	}

	updates := map[string]interface{}{}
	req.Name.Apply(updates, "name")
	req.Email.Apply(updates, "email")
	req.Notes.Apply(updates, "notes")

	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, utils.ErrNotFound
		}
	}

	return s.GetCustomer(ctx, id)
}
