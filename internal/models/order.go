package models

import "time"

// Order is the external order record the collections core reads balance
// fields from and patches. Order management itself lives elsewhere; only the
// fields touched by the lifecycle engine are mapped.
type Order struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	CustomerID    string    `gorm:"index" json:"customer_id"`
	AmountPaid    float64   `gorm:"type:decimal(12,2);default:0" json:"amount_paid"`
	CreditBalance float64   `gorm:"type:decimal(12,2);default:0" json:"credit_balance"`
	ChequeBalance float64   `gorm:"type:decimal(12,2);default:0" json:"cheque_balance"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for Order
func (Order) TableName() string {
	return "orders"
}

// OrderBalancePatch is a partial update to an order's balance fields. Nil
// fields are left untouched.
type OrderBalancePatch struct {
	AmountPaid    *float64
	CreditBalance *float64
	ChequeBalance *float64
	Notes         *string
}
