package repository

import (
	"context"

	"github.com/rmejia/cobranza-api/internal/models"
	"gorm.io/gorm"
)

// ChequeRepository defines the store adapter for the cheques record set
type ChequeRepository interface {
	// InsertBatch persists a set of cheques in one call and returns them with
	// generated IDs populated.
	InsertBatch(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error)
	FindByCollection(ctx context.Context, collectionID string) ([]models.Cheque, error)
	FindByOrder(ctx context.Context, orderID string) ([]models.Cheque, error)
	// Reassign moves cheques to another collection; used when a converted
	// collection is merged into an existing cheque collection.
	Reassign(ctx context.Context, chequeIDs []string, newCollectionID string) error
}

type chequeRepository struct {
	db *gorm.DB
}

// NewChequeRepository creates a new cheque repository
func NewChequeRepository(db *gorm.DB) ChequeRepository {
	return &chequeRepository{db: db}
}

func (r *chequeRepository) InsertBatch(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error) {
	if len(cheques) == 0 {
		return cheques, nil
	}
	if err := r.db.WithContext(ctx).Create(&cheques).Error; err != nil {
		return nil, err
	}
	return cheques, nil
}

func (r *chequeRepository) FindByCollection(ctx context.Context, collectionID string) ([]models.Cheque, error) {
	var cheques []models.Cheque
	err := r.db.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("cheque_date ASC, created_at ASC").
		Find(&cheques).Error
	return cheques, err
}

func (r *chequeRepository) FindByOrder(ctx context.Context, orderID string) ([]models.Cheque, error) {
	var cheques []models.Cheque
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("cheque_date ASC, created_at ASC").
		Find(&cheques).Error
	return cheques, err
}

func (r *chequeRepository) Reassign(ctx context.Context, chequeIDs []string, newCollectionID string) error {
	if len(chequeIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Cheque{}).
		Where("id IN ?", chequeIDs).
		Update("collection_id", newCollectionID).Error
}
