package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/rmejia/cobranza-api/internal/config"
	"github.com/rmejia/cobranza-api/internal/models"
)

// Mock CollectionRepository
type mockCollectionRepository struct {
	mockList                         func(ctx context.Context) ([]models.Collection, error)
	mockFindByID                     func(ctx context.Context, id string) (*models.Collection, error)
	mockUpdate                       func(ctx context.Context, collection *models.Collection) error
	mockDelete                       func(ctx context.Context, id string) error
	mockFindExistingChequeCollection func(ctx context.Context, orderID string) (*models.Collection, error)
}

func (m *mockCollectionRepository) List(ctx context.Context) ([]models.Collection, error) {
	if m.mockList != nil {
		return m.mockList(ctx)
	}
	return nil, nil
}
func (m *mockCollectionRepository) FindByID(ctx context.Context, id string) (*models.Collection, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return nil, errors.New("not found")
}
func (m *mockCollectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	return nil
}
func (m *mockCollectionRepository) Update(ctx context.Context, collection *models.Collection) error {
	if m.mockUpdate != nil {
		return m.mockUpdate(ctx, collection)
	}
	return nil
}
func (m *mockCollectionRepository) Delete(ctx context.Context, id string) error {
	if m.mockDelete != nil {
		return m.mockDelete(ctx, id)
	}
	return nil
}
func (m *mockCollectionRepository) FindExistingChequeCollection(ctx context.Context, orderID string) (*models.Collection, error) {
	if m.mockFindExistingChequeCollection != nil {
		return m.mockFindExistingChequeCollection(ctx, orderID)
	}
	return nil, nil
}
func (m *mockCollectionRepository) FindByOrder(ctx context.Context, orderID string) ([]models.Collection, error) {
	return nil, nil
}

// Mock ChequeRepository
type mockChequeRepository struct {
	mockInsertBatch func(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error)
	mockReassign    func(ctx context.Context, chequeIDs []string, newCollectionID string) error
}

func (m *mockChequeRepository) InsertBatch(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error) {
	if m.mockInsertBatch != nil {
		return m.mockInsertBatch(ctx, cheques)
	}
	return cheques, nil
}
func (m *mockChequeRepository) FindByCollection(ctx context.Context, collectionID string) ([]models.Cheque, error) {
	return nil, nil
}
func (m *mockChequeRepository) FindByOrder(ctx context.Context, orderID string) ([]models.Cheque, error) {
	return nil, nil
}
func (m *mockChequeRepository) Reassign(ctx context.Context, chequeIDs []string, newCollectionID string) error {
	if m.mockReassign != nil {
		return m.mockReassign(ctx, chequeIDs, newCollectionID)
	}
	return nil
}

// Mock OrderRepository
type mockOrderRepository struct {
	mockFindByID       func(ctx context.Context, id string) (*models.Order, error)
	mockUpdateBalances func(ctx context.Context, id string, patch models.OrderBalancePatch) error
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	if m.mockFindByID != nil {
		return m.mockFindByID(ctx, id)
	}
	return &models.Order{ID: id}, nil
}
func (m *mockOrderRepository) UpdateBalances(ctx context.Context, id string, patch models.OrderBalancePatch) error {
	if m.mockUpdateBalances != nil {
		return m.mockUpdateBalances(ctx, id, patch)
	}
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	verifyHash, err := bcrypt.GenerateFromPassword([]byte("verificar123"), bcrypt.MinCost)
	assert.NoError(t, err)
	deleteHash, err := bcrypt.GenerateFromPassword([]byte("eliminar123"), bcrypt.MinCost)
	assert.NoError(t, err)
	return &config.Config{
		VerificationSecretHash: string(verifyHash),
		DeleteSecretHash:       string(deleteHash),
	}
}

func newTestService(repo *mockCollectionRepository, chequeRepo *mockChequeRepository, orderRepo *mockOrderRepository, cfg *config.Config) *CollectionService {
	return NewCollectionService(repo, chequeRepo, orderRepo, nil, nil, nil, cfg)
}

func adminActor() Actor {
	return Actor{ID: 1, Name: "Rosa Mejía", Role: models.RoleAdmin}
}

func pendingCredit(id string, amount float64) *models.Collection {
	return &models.Collection{
		ID:         id,
		OrderID:    "ord-1",
		CustomerID: "cust-1",
		Kind:       models.CollectionKindCredit,
		Amount:     amount,
		Status:     models.CollectionStatusPending,
		CreatedAt:  time.Now().AddDate(0, 0, -3),
	}
}

func TestRecordPartialPayment_ReducesOutstandingAndPatchesOrder(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	order := &models.Order{ID: "ord-1", AmountPaid: 5000, CreditBalance: 1000}

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	var appliedPatch models.OrderBalancePatch
	orderRepo := &mockOrderRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Order, error) {
			return order, nil
		},
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			appliedPatch = patch
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	result, err := svc.RecordPartialPayment(context.Background(), adminActor(), "col-1", 400, "abono en efectivo")

	assert.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 600.0, result.Collection.Amount)
	// Partial payment never completes the collection.
	assert.True(t, result.Collection.IsPending())
	assert.Nil(t, result.Collection.CompletedBy)
	assert.Contains(t, result.Collection.Notes, "abono en efectivo")

	assert.NotNil(t, appliedPatch.AmountPaid)
	assert.Equal(t, 5400.0, *appliedPatch.AmountPaid)
	assert.NotNil(t, appliedPatch.CreditBalance)
	assert.Equal(t, 600.0, *appliedPatch.CreditBalance)
	assert.Nil(t, appliedPatch.ChequeBalance)
}

func TestRecordPartialPayment_RejectsOutOfRangeAmounts(t *testing.T) {
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return pendingCredit("col-1", 1000), nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	for _, amount := range []float64{0, -50, 1000, 1500} {
		_, err := svc.RecordPartialPayment(context.Background(), adminActor(), "col-1", amount, "")
		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, "amount %v should be rejected", amount)
	}
}

func TestRecordPartialPayment_ClampsCreditBalanceAtZero(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	order := &models.Order{ID: "ord-1", AmountPaid: 0, CreditBalance: 100}

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	var appliedPatch models.OrderBalancePatch
	orderRepo := &mockOrderRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Order, error) {
			return order, nil
		},
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			appliedPatch = patch
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	_, err := svc.RecordPartialPayment(context.Background(), adminActor(), "col-1", 400, "")

	assert.NoError(t, err)
	assert.NotNil(t, appliedPatch.CreditBalance)
	assert.Equal(t, 0.0, *appliedPatch.CreditBalance)
}

func TestRecordPartialPayment_OrderFailureIsNonFatal(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	orderRepo := &mockOrderRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Order, error) {
			return &models.Order{ID: id}, nil
		},
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			return errors.New("connection reset")
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	result, err := svc.RecordPartialPayment(context.Background(), adminActor(), "col-1", 400, "")

	// The collection update already succeeded, so the caller gets a result
	// with a reconciliation warning instead of an error.
	assert.NoError(t, err)
	assert.Equal(t, 600.0, result.Collection.Amount)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "update_order")
}

func TestRecognize_CreditZeroesBalanceAndReplacesNotes(t *testing.T) {
	collection := pendingCredit("col-1", 1500.50)
	collection.Notes = "nota vieja"
	order := &models.Order{ID: "ord-1", AmountPaid: 2000, CreditBalance: 1500.50}

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	var appliedPatch models.OrderBalancePatch
	orderRepo := &mockOrderRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Order, error) {
			return order, nil
		},
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			appliedPatch = patch
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	result, err := svc.Recognize(context.Background(), adminActor(), "col-1", "entrega confirmada")

	assert.NoError(t, err)
	assert.True(t, result.Collection.IsComplete())
	assert.NotNil(t, result.Collection.CompletedBy)
	assert.Equal(t, "Rosa Mejía", *result.Collection.CompletedBy)
	assert.NotNil(t, result.Collection.CompletedAt)
	// Recognition replaces the note trail instead of appending.
	assert.Equal(t, "entrega confirmada", result.Collection.Notes)

	assert.NotNil(t, appliedPatch.AmountPaid)
	assert.Equal(t, 3500.50, *appliedPatch.AmountPaid)
	assert.NotNil(t, appliedPatch.CreditBalance)
	assert.Equal(t, 0.0, *appliedPatch.CreditBalance)
	assert.Nil(t, appliedPatch.ChequeBalance)
}

func TestRecognize_ChequeKindLeavesChequeBalanceAlone(t *testing.T) {
	collection := pendingCredit("col-1", 800)
	collection.Kind = models.CollectionKindCheque

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	var appliedPatch models.OrderBalancePatch
	orderRepo := &mockOrderRepository{
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			appliedPatch = patch
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	_, err := svc.Recognize(context.Background(), adminActor(), "col-1", "")

	assert.NoError(t, err)
	assert.Nil(t, appliedPatch.CreditBalance)
	assert.Nil(t, appliedPatch.ChequeBalance)
}

func TestRecognize_RejectsCompletedCollection(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	collection.Status = models.CollectionStatusComplete

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	_, err := svc.Recognize(context.Background(), adminActor(), "col-1", "")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRecognize_CollectionUpdateFailureReportsStep(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
		mockUpdate: func(ctx context.Context, c *models.Collection) error {
			return errors.New("deadlock detected")
		},
	}
	orderUpdated := false
	orderRepo := &mockOrderRepository{
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			orderUpdated = true
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	_, err := svc.Recognize(context.Background(), adminActor(), "col-1", "")

	// The order was already credited; the error names the failed step so the
	// divergence can be reconciled.
	assert.True(t, orderUpdated)
	var persistErr *PersistenceError
	assert.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "update_collection", persistErr.Step)
}

func chequeFormsFor(parts []float64, withDeposit bool) []models.ChequeForm {
	chequeDate := time.Now()
	forms := make([]models.ChequeForm, 0, len(parts))
	for i, amount := range parts {
		f := models.ChequeForm{
			PayerName:    "Distribuidora El Paraíso",
			Bank:         "BANPAÍS",
			ChequeNumber: string(rune('A'+i)) + "-001",
			ChequeDate:   &chequeDate,
			Amount:       amount,
		}
		if withDeposit {
			deposit := chequeDate.AddDate(0, 0, 7)
			f.DepositDate = &deposit
		}
		forms = append(forms, f)
	}
	return forms
}

func TestRecordCheques_SumMismatchNothingPersisted(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	insertCalled := false
	chequeRepo := &mockChequeRepository{
		mockInsertBatch: func(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error) {
			insertCalled = true
			return cheques, nil
		},
	}

	svc := newTestService(repo, chequeRepo, &mockOrderRepository{}, testConfig(t))
	_, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{500, 400}, true), true)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.False(t, insertCalled, "no cheque may be persisted when validation fails")
	assert.True(t, collection.IsPending())
}

func TestRecordCheques_SingleChequeAboveCollectionAmountRejected(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	_, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{1200}, true), true)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "amount", validationErr.Field)
}

func TestRecordCheques_SumWithinToleranceAccepted(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	collection.Kind = models.CollectionKindCheque
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	result, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{500.005, 499.999}, false), false)

	assert.NoError(t, err)
	assert.True(t, result.Collection.IsComplete())
	assert.Len(t, result.Cheques, 2)
}

func TestRecordCheques_ConversionRequiresDepositDates(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	_, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{1000}, false), true)

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "deposit_date", validationErr.Field)
}

func TestRecordCheques_ConversionRepurposesInPlace(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	order := &models.Order{ID: "ord-1", AmountPaid: 0, CreditBalance: 1000, ChequeBalance: 200}

	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
		mockFindExistingChequeCollection: func(ctx context.Context, orderID string) (*models.Collection, error) {
			return nil, nil
		},
	}
	var appliedPatch models.OrderBalancePatch
	orderRepo := &mockOrderRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Order, error) {
			return order, nil
		},
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			appliedPatch = patch
			return nil
		},
	}

	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))
	result, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{600, 400}, true), true)

	assert.NoError(t, err)
	assert.Nil(t, result.MergedInto)
	assert.Equal(t, models.CollectionKindCheque, result.Collection.Kind)
	assert.True(t, result.Collection.IsComplete())
	assert.Len(t, result.Cheques, 2)
	assert.Equal(t, "col-1", result.Cheques[0].CollectionID)

	// Credit money moved to cheque money on the order.
	assert.NotNil(t, appliedPatch.CreditBalance)
	assert.Equal(t, 0.0, *appliedPatch.CreditBalance)
	assert.NotNil(t, appliedPatch.ChequeBalance)
	assert.Equal(t, 1200.0, *appliedPatch.ChequeBalance)
}

func TestRecordCheques_ConversionMergesIntoExisting(t *testing.T) {
	source := pendingCredit("col-src", 500)
	existing := &models.Collection{
		ID:      "col-chq",
		OrderID: "ord-1",
		Kind:    models.CollectionKindCheque,
		Amount:  300,
		Status:  models.CollectionStatusPending,
	}

	updated := map[string]*models.Collection{}
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return source, nil
		},
		mockFindExistingChequeCollection: func(ctx context.Context, orderID string) (*models.Collection, error) {
			return existing, nil
		},
		mockUpdate: func(ctx context.Context, c *models.Collection) error {
			updated[c.ID] = c
			return nil
		},
	}
	var reassignedIDs []string
	var reassignedTo string
	chequeRepo := &mockChequeRepository{
		mockReassign: func(ctx context.Context, chequeIDs []string, newCollectionID string) error {
			reassignedIDs = chequeIDs
			reassignedTo = newCollectionID
			return nil
		},
	}

	svc := newTestService(repo, chequeRepo, &mockOrderRepository{}, testConfig(t))
	result, err := svc.RecordCheques(context.Background(), adminActor(), "col-src",
		chequeFormsFor([]float64{500}, true), true)

	assert.NoError(t, err)
	assert.NotNil(t, result.MergedInto)
	assert.Equal(t, "col-chq", result.MergedInto.ID)
	assert.Equal(t, 800.0, result.MergedInto.Amount)

	// The new cheques belong to the existing collection now.
	assert.Len(t, reassignedIDs, 1)
	assert.Equal(t, "col-chq", reassignedTo)
	assert.Equal(t, "col-chq", result.Cheques[0].CollectionID)

	// Both sides of the merge were persisted and note the relation.
	assert.Contains(t, updated, "col-chq")
	assert.Contains(t, updated, "col-src")
	assert.Contains(t, updated["col-src"].Notes, "col-chq")
	assert.Contains(t, updated["col-chq"].Notes, "col-src")
}

func TestRecordCheques_OrderFailureKeepsCheques(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	inserted := false
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	chequeRepo := &mockChequeRepository{
		mockInsertBatch: func(ctx context.Context, cheques []models.Cheque) ([]models.Cheque, error) {
			inserted = true
			return cheques, nil
		},
	}
	orderRepo := &mockOrderRepository{
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			return errors.New("timeout")
		},
	}

	svc := newTestService(repo, chequeRepo, orderRepo, testConfig(t))
	result, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{1000}, true), true)

	assert.True(t, inserted)
	var persistErr *PersistenceError
	assert.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "update_order", persistErr.Step)
	// The inserted cheques are reported so the caller can reconcile.
	assert.Len(t, result.Cheques, 1)
	assert.True(t, collection.IsPending())
}

func TestRecordCheques_DirectOnChequeCollectionRejectsConversion(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	collection.Kind = models.CollectionKindCheque
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	_, err := svc.RecordCheques(context.Background(), adminActor(), "col-1",
		chequeFormsFor([]float64{1000}, true), true)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCapabilityGate_RejectsBeforeAnyStoreCall(t *testing.T) {
	repoCalled := false
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			repoCalled = true
			return pendingCredit(id, 1000), nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))
	viewer := Actor{ID: 2, Name: "Luis", Role: models.RoleViewer}

	var authErr *AuthorizationError

	_, err := svc.Recognize(context.Background(), viewer, "col-1", "")
	assert.ErrorAs(t, err, &authErr)

	_, err = svc.RecordPartialPayment(context.Background(), viewer, "col-1", 100, "")
	assert.ErrorAs(t, err, &authErr)

	_, err = svc.RecordCheques(context.Background(), viewer, "col-1", nil, false)
	assert.ErrorAs(t, err, &authErr)

	err = svc.Delete(context.Background(), viewer, "col-1", "eliminar123")
	assert.ErrorAs(t, err, &authErr)

	assert.False(t, repoCalled, "capability rejection must happen before store access")
}

func TestDelete_RequiresAdminAndSecret(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	deleted := false
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
		mockDelete: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	orderTouched := false
	orderRepo := &mockOrderRepository{
		mockUpdateBalances: func(ctx context.Context, id string, patch models.OrderBalancePatch) error {
			orderTouched = true
			return nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, orderRepo, testConfig(t))

	// Manager carries verify but not delete.
	manager := Actor{ID: 3, Name: "Carmen", Role: models.RoleManager}
	var authErr *AuthorizationError
	err := svc.Delete(context.Background(), manager, "col-1", "eliminar123")
	assert.ErrorAs(t, err, &authErr)

	// Wrong secret is rejected even for admins.
	err = svc.Delete(context.Background(), adminActor(), "col-1", "incorrecto")
	assert.ErrorAs(t, err, &authErr)
	assert.False(t, deleted)

	// Correct secret deletes the record without touching balances.
	err = svc.Delete(context.Background(), adminActor(), "col-1", "eliminar123")
	assert.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, orderTouched, "delete is a record correction, not a financial event")
}

func TestVerifyAndOpen_ChecksSecretWithoutMutation(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	updateCalled := false
	repo := &mockCollectionRepository{
		mockFindByID: func(ctx context.Context, id string) (*models.Collection, error) {
			return collection, nil
		},
		mockUpdate: func(ctx context.Context, c *models.Collection) error {
			updateCalled = true
			return nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	var authErr *AuthorizationError
	_, err := svc.VerifyAndOpen(context.Background(), adminActor(), "col-1", "incorrecto")
	assert.ErrorAs(t, err, &authErr)

	got, err := svc.VerifyAndOpen(context.Background(), adminActor(), "col-1", "verificar123")
	assert.NoError(t, err)
	assert.Equal(t, "col-1", got.ID)
	assert.False(t, updateCalled)
}

func TestVerifyAndOpen_EmptyHashRejects(t *testing.T) {
	svc := newTestService(&mockCollectionRepository{}, &mockChequeRepository{}, &mockOrderRepository{}, &config.Config{})

	var authErr *AuthorizationError
	_, err := svc.VerifyAndOpen(context.Background(), adminActor(), "col-1", "cualquiera")
	assert.ErrorAs(t, err, &authErr)
}

func TestBeginAndAbortConversion_RoundTrip(t *testing.T) {
	collection := pendingCredit("col-1", 1000)
	repo := &mockCollectionRepository{
		mockList: func(ctx context.Context) ([]models.Collection, error) {
			return []models.Collection{*collection}, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))

	_, err := svc.Refresh(context.Background())
	assert.NoError(t, err)

	patch, err := svc.BeginConversion(adminActor(), "col-1")
	assert.NoError(t, err)
	assert.Equal(t, models.CollectionKindCredit, patch.PriorKind)

	flipped, ok := svc.Projection().Get("col-1")
	assert.True(t, ok)
	assert.Equal(t, models.CollectionKindCheque, flipped.Kind)

	svc.AbortConversion(patch)
	restored, _ := svc.Projection().Get("col-1")
	assert.Equal(t, models.CollectionKindCredit, restored.Kind)
}

func TestBeginConversion_RejectsNonCreditOrComplete(t *testing.T) {
	chequeCol := pendingCredit("col-chq", 500)
	chequeCol.Kind = models.CollectionKindCheque
	completeCol := pendingCredit("col-done", 500)
	completeCol.Status = models.CollectionStatusComplete

	repo := &mockCollectionRepository{
		mockList: func(ctx context.Context) ([]models.Collection, error) {
			return []models.Collection{*chequeCol, *completeCol}, nil
		},
	}
	svc := newTestService(repo, &mockChequeRepository{}, &mockOrderRepository{}, testConfig(t))
	_, err := svc.Refresh(context.Background())
	assert.NoError(t, err)

	_, err = svc.BeginConversion(adminActor(), "col-chq")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.BeginConversion(adminActor(), "col-done")
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.BeginConversion(adminActor(), "no-such")
	assert.ErrorIs(t, err, ErrNotFound)
}
