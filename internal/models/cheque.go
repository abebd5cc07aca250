package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cheque represents a physical instrument backing all or part of a
// cheque-kind collection. Its CollectionID may be reassigned when a converted
// collection is merged into an existing one for the same order.
type Cheque struct {
	ID           string     `gorm:"primaryKey;type:uuid" json:"id"`
	CollectionID string     `gorm:"not null;index" json:"collection_id"`
	OrderID      string     `gorm:"not null;index" json:"order_id"`
	PayerName    string     `gorm:"not null" json:"payer_name"`
	Bank         string     `gorm:"not null" json:"bank"`
	ChequeNumber string     `gorm:"not null" json:"cheque_number"`
	ChequeDate   time.Time  `gorm:"type:date;not null" json:"cheque_date"`
	DepositDate  *time.Time `gorm:"type:date" json:"deposit_date"`
	Amount       float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Notes        string     `gorm:"type:text" json:"notes"`
	Status       string     `gorm:"default:received;not null" json:"status"`
	CreatedBy    string     `json:"created_by"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Cheque
func (Cheque) TableName() string {
	return "cheques"
}

// Cheque instrument-tracking status constants. Only "received" is set by the
// collections core; later states belong to the cheque-management view.
const (
	ChequeStatusReceived  = "received"
	ChequeStatusDeposited = "deposited"
	ChequeStatusCleared   = "cleared"
	ChequeStatusBounced   = "bounced"
)

// BeforeCreate assigns an ID and the initial instrument status.
func (q *Cheque) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Status == "" {
		q.Status = ChequeStatusReceived
	}
	return nil
}

// ChequeForm is the caller-supplied input for one cheque when recording a
// collection. DepositDate is only required when converting a credit
// collection, to schedule the eventual deposit.
type ChequeForm struct {
	PayerName    string     `json:"payer_name"`
	Bank         string     `json:"bank"`
	ChequeNumber string     `json:"cheque_number"`
	ChequeDate   *time.Time `json:"cheque_date"`
	DepositDate  *time.Time `json:"deposit_date"`
	Amount       float64    `json:"amount"`
	Notes        string     `json:"notes"`
}

// ChequeResponse is the JSON response format for cheques
type ChequeResponse struct {
	ID           string     `json:"id"`
	CollectionID string     `json:"collection_id"`
	OrderID      string     `json:"order_id"`
	PayerName    string     `json:"payer_name"`
	Bank         string     `json:"bank"`
	ChequeNumber string     `json:"cheque_number"`
	ChequeDate   time.Time  `json:"cheque_date"`
	DepositDate  *time.Time `json:"deposit_date,omitempty"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ToResponse converts Cheque to ChequeResponse
func (q *Cheque) ToResponse() ChequeResponse {
	return ChequeResponse{
		ID:           q.ID,
		CollectionID: q.CollectionID,
		OrderID:      q.OrderID,
		PayerName:    q.PayerName,
		Bank:         q.Bank,
		ChequeNumber: q.ChequeNumber,
		ChequeDate:   q.ChequeDate,
		DepositDate:  q.DepositDate,
		Amount:       q.Amount,
		Status:       q.Status,
		Notes:        q.Notes,
		CreatedAt:    q.CreatedAt,
	}
}
