package services

import (
	"github.com/rmejia/cobranza-api/internal/config"
	"github.com/rmejia/cobranza-api/internal/jobs"
	"github.com/rmejia/cobranza-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Collection   *CollectionService
	Customer     *CustomerService
	Notification *NotificationService
	Audit        *AuditService
	Export       *ExportService
	Report       *ReportService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config, db *gorm.DB) *Services {
	notificationSvc := NewNotificationService(repos.Notification, repos.User)
	auditSvc := NewAuditService(db)

	return &Services{
		Collection:   NewCollectionService(repos.Collection, repos.Cheque, repos.Order, notificationSvc, auditSvc, worker, cfg),
		Customer:     NewCustomerService(repos.Customer),
		Notification: notificationSvc,
		Audit:        auditSvc,
		Export:       NewExportService(),
		Report:       NewReportService(repos.Collection),
	}
}
