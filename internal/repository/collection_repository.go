package repository

import (
	"context"
	"errors"

	"github.com/rmejia/cobranza-api/internal/models"
	"gorm.io/gorm"
)

// CollectionRepository defines the store adapter for the collections record set
type CollectionRepository interface {
	// List returns all collections ordered by effective date descending
	// (collection date when present, creation date otherwise).
	List(ctx context.Context) ([]models.Collection, error)
	FindByID(ctx context.Context, id string) (*models.Collection, error)
	Create(ctx context.Context, collection *models.Collection) error
	Update(ctx context.Context, collection *models.Collection) error
	Delete(ctx context.Context, id string) error
	// FindExistingChequeCollection returns the cheque-kind collection for an
	// order if one exists, nil otherwise.
	FindExistingChequeCollection(ctx context.Context, orderID string) (*models.Collection, error)
	FindByOrder(ctx context.Context, orderID string) ([]models.Collection, error)
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.WithContext(ctx).
		Preload("Customer").
		Order("COALESCE(collected_at, created_at) DESC").
		Find(&collections).Error
	return collections, err
}

func (r *collectionRepository) FindByID(ctx context.Context, id string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Preload("Customer").
		First(&collection, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Create(collection).Error
}

func (r *collectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	return r.db.WithContext(ctx).Save(collection).Error
}

func (r *collectionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&models.Collection{}, "id = ?", id).Error
}

func (r *collectionRepository) FindExistingChequeCollection(ctx context.Context, orderID string) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND kind = ?", orderID, models.CollectionKindCheque).
		First(&collection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) FindByOrder(ctx context.Context, orderID string) ([]models.Collection, error) {
	var collections []models.Collection
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&collections).Error
	return collections, err
}
