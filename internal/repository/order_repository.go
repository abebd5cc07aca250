package repository

import (
	"context"

	"github.com/rmejia/cobranza-api/internal/models"
	"gorm.io/gorm"
)

// OrderRepository gives the collections core read/patch access to the order
// balance fields. Orders are owned by the order-management side of the back
// office; nothing here creates or deletes them.
type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// UpdateBalances applies a partial update; nil patch fields are untouched.
	UpdateBalances(ctx context.Context, id string, patch models.OrderBalancePatch) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateBalances(ctx context.Context, id string, patch models.OrderBalancePatch) error {
	updates := make(map[string]interface{})
	if patch.AmountPaid != nil {
		updates["amount_paid"] = *patch.AmountPaid
	}
	if patch.CreditBalance != nil {
		updates["credit_balance"] = *patch.CreditBalance
	}
	if patch.ChequeBalance != nil {
		updates["cheque_balance"] = *patch.ChequeBalance
	}
	if patch.Notes != nil {
		updates["notes"] = *patch.Notes
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}
