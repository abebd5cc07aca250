package services

import (
	"context"

	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/internal/repository"
)

// CustomerService exposes read-only customer lookups for the collections
// views. Customer management lives in the order side of the back office.
type CustomerService struct {
	repo repository.CustomerRepository
}

func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) FindAll(ctx context.Context) ([]models.Customer, error) {
	return s.repo.FindAll(ctx)
}

func (s *CustomerService) FindByID(ctx context.Context, id string) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return customer, nil
}
