package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection represents a claim for money owed on an order, either as open
// credit or backed by one or more physical cheques.
type Collection struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	OrderID     string     `gorm:"not null;index" json:"order_id"`
	CustomerID  string     `gorm:"not null;index" json:"customer_id"`
	Kind        string     `gorm:"not null;index" json:"kind"`
	Amount      float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      string     `gorm:"default:pending;not null;index" json:"status"`
	CompletedBy *string    `json:"completed_by"`
	CompletedAt *time.Time `json:"completed_at"`
	Notes       string     `gorm:"type:text" json:"notes"`
	CollectedAt *time.Time `gorm:"type:date;index" json:"collected_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Associations
	Customer Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Cheques  []Cheque `gorm:"foreignKey:CollectionID" json:"cheques,omitempty"`
}

// TableName specifies the table name for Collection
func (Collection) TableName() string {
	return "collections"
}

// Collection status constants. The store may still hold the legacy value
// "collected" from the old back office; it is normalized to "complete" on read.
const (
	CollectionStatusPending  = "pending"
	CollectionStatusComplete = "complete"

	legacyStatusCollected = "collected"
)

// Collection kind constants
const (
	CollectionKindCredit = "credit"
	CollectionKindCheque = "cheque"
)

// NoteSeparator joins appended note entries so the audit trail is preserved.
const NoteSeparator = " | "

// NormalizeCollectionStatus maps legacy status strings to the closed enum.
func NormalizeCollectionStatus(status string) string {
	if status == legacyStatusCollected {
		return CollectionStatusComplete
	}
	return status
}

// BeforeCreate assigns an ID when the caller did not provide one.
func (c *Collection) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = CollectionStatusPending
	}
	return nil
}

// AfterFind normalizes legacy status values at the store boundary so the rest
// of the code never branches on raw strings.
func (c *Collection) AfterFind(tx *gorm.DB) error {
	c.Status = NormalizeCollectionStatus(c.Status)
	return nil
}

// IsPending returns true while the collection still has money outstanding.
func (c *Collection) IsPending() bool {
	return NormalizeCollectionStatus(c.Status) == CollectionStatusPending
}

// IsComplete returns true once the collection has been fully settled.
func (c *Collection) IsComplete() bool {
	return NormalizeCollectionStatus(c.Status) == CollectionStatusComplete
}

// MayRecognize returns true if the collection can be marked fully settled.
func (c *Collection) MayRecognize() bool {
	return c.IsPending()
}

// MayPartialPay returns true if a partial payment can be recorded.
// Only credit collections accept partial payments.
func (c *Collection) MayPartialPay() bool {
	return c.IsPending() && c.Kind == CollectionKindCredit
}

// MayRecordCheques returns true if cheques can be recorded against the
// collection. Cheque collections accept them directly; credit collections only
// through an explicit conversion.
func (c *Collection) MayRecordCheques(isConversion bool) bool {
	if !c.IsPending() {
		return false
	}
	if c.Kind == CollectionKindCheque {
		return !isConversion
	}
	return c.Kind == CollectionKindCredit && isConversion
}

// EffectiveDate is the display/sort date: collection date when present,
// creation date otherwise.
func (c *Collection) EffectiveDate() *time.Time {
	if c.CollectedAt != nil {
		return c.CollectedAt
	}
	if !c.CreatedAt.IsZero() {
		t := c.CreatedAt
		return &t
	}
	return nil
}

// AppendNote appends an entry to the collection's note trail instead of
// replacing it, preserving history.
func (c *Collection) AppendNote(note string) {
	c.Notes = AppendNote(c.Notes, note)
}

// AppendNote joins a prior note trail and a new entry.
func AppendNote(prior, note string) string {
	if note == "" {
		return prior
	}
	if prior == "" {
		return note
	}
	return prior + NoteSeparator + note
}

// CollectionResponse is the JSON response format for collections
type CollectionResponse struct {
	ID            string     `json:"id"`
	OrderID       string     `json:"order_id"`
	CustomerID    string     `json:"customer_id"`
	Kind          string     `json:"kind"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	CompletedBy   *string    `json:"completed_by,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Notes         string     `json:"notes"`
	CollectedAt   *time.Time `json:"collected_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CustomerName  string     `json:"customer_name,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
}

// ToResponse converts Collection to CollectionResponse
func (c *Collection) ToResponse() CollectionResponse {
	resp := CollectionResponse{
		ID:          c.ID,
		OrderID:     c.OrderID,
		CustomerID:  c.CustomerID,
		Kind:        c.Kind,
		Amount:      c.Amount,
		Status:      NormalizeCollectionStatus(c.Status),
		CompletedBy: c.CompletedBy,
		CompletedAt: c.CompletedAt,
		Notes:       c.Notes,
		CollectedAt: c.CollectedAt,
		CreatedAt:   c.CreatedAt,
	}

	if c.Customer.ID != "" {
		resp.CustomerName = c.Customer.Name
		resp.CustomerPhone = c.Customer.Phone
	}

	return resp
}
