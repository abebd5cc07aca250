package handlers

import (
	"github.com/rmejia/cobranza-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Collection   *CollectionHandler
	Customer     *CustomerHandler
	Export       *ExportHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Collection:   NewCollectionHandler(svcs.Collection),
		Customer:     NewCustomerHandler(svcs.Customer),
		Export:       NewExportHandler(svcs.Collection, svcs.Export, svcs.Report),
		Notification: NewNotificationHandler(svcs.Notification),
	}
}
