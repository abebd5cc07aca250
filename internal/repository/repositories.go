package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Collection   CollectionRepository
	Cheque       ChequeRepository
	Order        OrderRepository
	Customer     CustomerRepository
	User         UserRepository
	Notification NotificationRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Collection:   NewCollectionRepository(db),
		Cheque:       NewChequeRepository(db),
		Order:        NewOrderRepository(db),
		Customer:     NewCustomerRepository(db),
		User:         NewUserRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// ListQuery represents common query parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery creates a ListQuery with defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}
