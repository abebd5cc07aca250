package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rmejia/cobranza-api/internal/config"
	"github.com/rmejia/cobranza-api/internal/jobs"
	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/internal/repository"
	"github.com/rmejia/cobranza-api/internal/statemachine"
	"github.com/rmejia/cobranza-api/pkg/logger"
	"github.com/rmejia/cobranza-api/pkg/money"
)

// CollectionService is the lifecycle engine for collections. It is the sole
// writer of collection status, completion fields and kind transitions.
//
// Its persistence steps run sequentially against the store adapter without a
// wrapping transaction, matching the reference behavior of the back office: a
// failure partway through leaves earlier writes in place and is reported with
// the failed step name so it can be reconciled manually.
type CollectionService struct {
	repo            repository.CollectionRepository
	chequeRepo      repository.ChequeRepository
	orderRepo       repository.OrderRepository
	notificationSvc *NotificationService
	auditSvc        *AuditService
	worker          *jobs.Worker
	cfg             *config.Config
	projection      *Projection
}

// NewCollectionService creates the lifecycle engine.
func NewCollectionService(
	repo repository.CollectionRepository,
	chequeRepo repository.ChequeRepository,
	orderRepo repository.OrderRepository,
	notificationSvc *NotificationService,
	auditSvc *AuditService,
	worker *jobs.Worker,
	cfg *config.Config,
) *CollectionService {
	return &CollectionService{
		repo:            repo,
		chequeRepo:      chequeRepo,
		orderRepo:       orderRepo,
		notificationSvc: notificationSvc,
		auditSvc:        auditSvc,
		worker:          worker,
		cfg:             cfg,
		projection:      NewProjection(),
	}
}

// LifecycleResult reports the outcome of a lifecycle operation. Warnings are
// non-fatal reconciliation notes: the user-visible collection state and the
// order aggregate were left momentarily diverged and must be corrected
// out-of-band.
type LifecycleResult struct {
	Collection *models.Collection `json:"collection"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// RecordChequesResult reports the outcome of a cheque recording run.
type RecordChequesResult struct {
	Collection *models.Collection `json:"collection"`
	// MergedInto is set when a conversion merged the source into an existing
	// cheque collection for the same order.
	MergedInto *models.Collection `json:"merged_into,omitempty"`
	Cheques    []models.Cheque    `json:"cheques"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Projection returns the in-memory view the engine keeps consistent with the
// store. The presentation layer reads from it; only the engine writes to it.
func (s *CollectionService) Projection() *Projection {
	return s.projection
}

// Refresh reloads the projection from the store.
func (s *CollectionService) Refresh(ctx context.Context) ([]models.Collection, error) {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistError("list_collections", err)
	}
	s.projection.Load(collections)
	return collections, nil
}

// List returns all collections from the store (effective date descending).
func (s *CollectionService) List(ctx context.Context, actor Actor) ([]models.Collection, error) {
	if err := requireCapability(actor, CapabilityView); err != nil {
		return nil, err
	}
	return s.Refresh(ctx)
}

// Cheques lists the physical instruments recorded against a collection.
func (s *CollectionService) Cheques(ctx context.Context, actor Actor, collectionID string) ([]models.Cheque, error) {
	if err := requireCapability(actor, CapabilityView); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, collectionID); err != nil {
		return nil, ErrNotFound
	}
	cheques, err := s.chequeRepo.FindByCollection(ctx, collectionID)
	if err != nil {
		return nil, persistError("list_cheques", err)
	}
	return cheques, nil
}

// VerifyAndOpen checks the secondary verification secret and returns the
// collection for presentation. It never mutates persisted state.
func (s *CollectionService) VerifyAndOpen(ctx context.Context, actor Actor, collectionID, secret string) (*models.Collection, error) {
	if err := requireCapability(actor, CapabilityVerifyAndComplete); err != nil {
		return nil, err
	}
	if err := s.checkSecret(s.cfg.VerificationSecretHash, secret); err != nil {
		return nil, err
	}
	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, ErrNotFound
	}
	return collection, nil
}

// Recognize marks a pending collection fully settled and applies its amount to
// the order's paid total. Credit recognition also zeroes the order's credit
// balance; cheque recognition never touches the cheque balance, which only
// clears when the physical instrument clears.
func (s *CollectionService) Recognize(ctx context.Context, actor Actor, collectionID, notes string) (*LifecycleResult, error) {
	if err := requireCapability(actor, CapabilityVerifyAndComplete); err != nil {
		return nil, err
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !collection.MayRecognize() {
		return nil, ErrInvalidState
	}

	order, err := s.orderRepo.FindByID(ctx, collection.OrderID)
	if err != nil {
		return nil, persistError("load_order", err)
	}

	newPaid := money.Round(order.AmountPaid + collection.Amount)
	patch := models.OrderBalancePatch{AmountPaid: &newPaid}
	if collection.Kind == models.CollectionKindCredit {
		zero := 0.0
		patch.CreditBalance = &zero
	}
	orderNote := models.AppendNote(order.Notes, fmt.Sprintf(
		"Cobro %s reconocido por %s: %s. %s",
		kindLabel(collection.Kind), actor.Name, money.Format(collection.Amount), notes))
	patch.Notes = &orderNote

	if err := s.orderRepo.UpdateBalances(ctx, order.ID, patch); err != nil {
		// Nothing applied yet; the collection stays pending.
		return nil, persistError("update_order", err)
	}

	fsm := statemachine.NewCollectionFSM(collection)
	if err := fsm.Recognize(ctx); err != nil {
		return nil, ErrInvalidState
	}
	now := time.Now()
	collection.CompletedBy = &actor.Name
	collection.CompletedAt = &now
	collection.Notes = notes // recognition replaces the note trail

	if err := s.repo.Update(ctx, collection); err != nil {
		// The order is already credited; surface the divergence and leave the
		// projection untouched so the view still shows the collection pending.
		logger.Warn("Reconciliación pendiente: orden actualizada pero el cobro no se completó",
			"collection_id", collection.ID, "order_id", order.ID, "error", err)
		return nil, persistError("update_collection", err)
	}

	s.projection.Apply(*collection)
	s.audit(ctx, actor, "RECOGNIZE", collection.ID,
		fmt.Sprintf("Cobro de %s reconocido en orden %s", money.Format(collection.Amount), collection.OrderID))
	s.notifyAdminsAsync("Cobro completado",
		fmt.Sprintf("El cobro %s (%s) fue reconocido por %s", collection.ID, money.Format(collection.Amount), actor.Name),
		models.NotificationTypeCollectionComplete)

	return &LifecycleResult{Collection: collection}, nil
}

// RecordPartialPayment reduces a pending credit collection's outstanding
// amount without completing it. The collection never auto-completes even if
// the remainder reaches zero; completion is always an explicit action.
func (s *CollectionService) RecordPartialPayment(ctx context.Context, actor Actor, collectionID string, partialAmount float64, notes string) (*LifecycleResult, error) {
	if err := requireCapability(actor, CapabilityVerifyAndComplete); err != nil {
		return nil, err
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !collection.MayPartialPay() {
		return nil, ErrInvalidState
	}
	if partialAmount <= 0 || partialAmount >= collection.Amount {
		return nil, &ValidationError{
			Field:   "partial_amount",
			Message: fmt.Sprintf("el abono debe ser mayor que 0 y menor que %s", money.Format(collection.Amount)),
		}
	}

	remaining := money.Round(collection.Amount - partialAmount)
	collection.Amount = remaining
	collection.AppendNote(fmt.Sprintf("Abono parcial de %s registrado por %s. Saldo restante: %s. %s",
		money.Format(partialAmount), actor.Name, money.Format(remaining), notes))

	if err := s.repo.Update(ctx, collection); err != nil {
		return nil, persistError("update_collection", err)
	}
	s.projection.Apply(*collection)

	result := &LifecycleResult{Collection: collection}

	order, err := s.orderRepo.FindByID(ctx, collection.OrderID)
	if err != nil {
		result.Warnings = append(result.Warnings, reconciliationWarning("load_order", collection.ID, err))
		return result, nil
	}

	newPaid := money.Round(order.AmountPaid + partialAmount)
	patch := models.OrderBalancePatch{AmountPaid: &newPaid}
	switch collection.Kind {
	case models.CollectionKindCredit:
		balance := money.ClampFloor(order.CreditBalance, partialAmount)
		patch.CreditBalance = &balance
	case models.CollectionKindCheque:
		balance := money.ClampFloor(order.ChequeBalance, partialAmount)
		patch.ChequeBalance = &balance
	}
	if err := s.orderRepo.UpdateBalances(ctx, order.ID, patch); err != nil {
		result.Warnings = append(result.Warnings, reconciliationWarning("update_order", collection.ID, err))
		return result, nil
	}

	s.audit(ctx, actor, "PARTIAL_PAYMENT", collection.ID,
		fmt.Sprintf("Abono parcial de %s en orden %s, saldo %s",
			money.Format(partialAmount), collection.OrderID, money.Format(remaining)))
	s.notifyAdminsAsync("Abono parcial",
		fmt.Sprintf("Abono de %s al cobro %s, saldo restante %s",
			money.Format(partialAmount), collection.ID, money.Format(remaining)),
		models.NotificationTypePartialPayment)

	return result, nil
}

// RecordCheques settles a pending collection against a set of physical
// cheques. With isConversion it turns a credit collection into cheque money,
// merging into a pre-existing cheque collection for the same order when one
// exists. Validation is all-or-nothing: no store call happens until every
// cheque form passes.
func (s *CollectionService) RecordCheques(ctx context.Context, actor Actor, collectionID string, forms []models.ChequeForm, isConversion bool) (*RecordChequesResult, error) {
	if err := requireCapability(actor, CapabilityVerifyAndComplete); err != nil {
		return nil, err
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !collection.MayRecordCheques(isConversion) {
		return nil, ErrInvalidState
	}
	if err := validateChequeForms(collection, forms, isConversion); err != nil {
		return nil, err
	}

	now := time.Now()
	cheques := make([]models.Cheque, 0, len(forms))
	for _, f := range forms {
		cheques = append(cheques, models.Cheque{
			ID:           uuid.NewString(),
			CollectionID: collection.ID,
			OrderID:      collection.OrderID,
			PayerName:    f.PayerName,
			Bank:         f.Bank,
			ChequeNumber: f.ChequeNumber,
			ChequeDate:   *f.ChequeDate,
			DepositDate:  f.DepositDate,
			Amount:       money.Round(f.Amount),
			Notes:        f.Notes,
			Status:       models.ChequeStatusReceived,
			CreatedBy:    actor.Name,
		})
	}

	inserted, err := s.chequeRepo.InsertBatch(ctx, cheques)
	if err != nil {
		return nil, persistError("insert_cheques", err)
	}
	// Event surface: any successful cheque insertion notifies listeners (e.g.
	// the cheque-management view) even if a later step fails.
	s.notifyAdminsAsync("Cheques actualizados",
		fmt.Sprintf("%d cheque(s) registrados para la orden %s", len(inserted), collection.OrderID),
		models.NotificationTypeChequesUpdated)

	result := &RecordChequesResult{Collection: collection, Cheques: inserted}

	order, err := s.orderRepo.FindByID(ctx, collection.OrderID)
	if err != nil {
		return result, persistError("load_order", err)
	}
	newPaid := money.Round(order.AmountPaid + collection.Amount)
	patch := models.OrderBalancePatch{AmountPaid: &newPaid}
	if isConversion {
		credit := money.ClampFloor(order.CreditBalance, collection.Amount)
		cheque := money.Round(order.ChequeBalance + collection.Amount)
		patch.CreditBalance = &credit
		patch.ChequeBalance = &cheque
	}
	orderNote := models.AppendNote(order.Notes, fmt.Sprintf(
		"Cobro %s liquidado con %d cheque(s) por %s, total %s",
		collection.ID, len(inserted), actor.Name, money.Format(collection.Amount)))
	patch.Notes = &orderNote

	if err := s.orderRepo.UpdateBalances(ctx, order.ID, patch); err != nil {
		// The inserted cheques stay; the caller reverts any optimistic kind
		// flip through AbortConversion and reconciles the order manually.
		logger.Warn("Reconciliación pendiente: cheques insertados pero la orden no se actualizó",
			"collection_id", collection.ID, "order_id", order.ID, "error", err)
		return result, persistError("update_order", err)
	}

	fsm := statemachine.NewCollectionFSM(collection)
	if isConversion {
		err = fsm.Convert(ctx)
	} else {
		err = fsm.RecordCheques(ctx)
	}
	if err != nil {
		return result, ErrInvalidState
	}
	collection.CompletedBy = &actor.Name
	collection.CompletedAt = &now

	if !isConversion {
		collection.AppendNote(fmt.Sprintf("Liquidado con %d cheque(s) por un total de %s",
			len(inserted), money.Format(collection.Amount)))
		if err := s.repo.Update(ctx, collection); err != nil {
			return result, persistError("update_collection", err)
		}
		s.projection.Apply(*collection)
		s.auditCheques(ctx, actor, collection, len(inserted), false)
		return result, nil
	}

	existing, err := s.repo.FindExistingChequeCollection(ctx, collection.OrderID)
	if err != nil {
		return result, persistError("find_cheque_collection", err)
	}

	if existing != nil && existing.ID != collection.ID {
		// Merge: the cheque money lives in the pre-existing cheque collection.
		chequeIDs := make([]string, 0, len(inserted))
		for _, q := range inserted {
			chequeIDs = append(chequeIDs, q.ID)
		}
		if err := s.chequeRepo.Reassign(ctx, chequeIDs, existing.ID); err != nil {
			return result, persistError("reassign_cheques", err)
		}
		for i := range result.Cheques {
			result.Cheques[i].CollectionID = existing.ID
		}

		existing.Amount = money.Round(existing.Amount + collection.Amount)
		existing.AppendNote(fmt.Sprintf("Fusión del cobro %s convertido de crédito: %s agregados por %s",
			collection.ID, money.Format(collection.Amount), actor.Name))
		if err := s.repo.Update(ctx, existing); err != nil {
			return result, persistError("update_merged_collection", err)
		}

		collection.AppendNote(fmt.Sprintf("Convertido a cheque y fusionado con el cobro %s", existing.ID))
		if err := s.repo.Update(ctx, collection); err != nil {
			return result, persistError("update_collection", err)
		}

		s.projection.Apply(*existing)
		s.projection.Apply(*collection)
		result.MergedInto = existing
		s.auditCheques(ctx, actor, collection, len(inserted), true)
		s.notifyAdminsAsync("Cobro fusionado",
			fmt.Sprintf("El cobro %s fue convertido y fusionado con %s", collection.ID, existing.ID),
			models.NotificationTypeCollectionMerged)
		return result, nil
	}

	// No existing cheque collection: repurpose the source in place.
	collection.Kind = models.CollectionKindCheque
	collection.AppendNote(fmt.Sprintf("Convertido de crédito a cheque por %s", actor.Name))
	if err := s.repo.Update(ctx, collection); err != nil {
		return result, persistError("update_collection", err)
	}
	s.projection.Apply(*collection)
	s.auditCheques(ctx, actor, collection, len(inserted), true)
	return result, nil
}

// Delete hard-deletes a collection record. It is an administrative correction,
// not a financial event: linked cheques are kept and order balances are never
// touched.
func (s *CollectionService) Delete(ctx context.Context, actor Actor, collectionID, deleteSecret string) error {
	if err := requireCapability(actor, CapabilityDelete); err != nil {
		return err
	}
	if err := s.checkSecret(s.cfg.DeleteSecretHash, deleteSecret); err != nil {
		return err
	}

	collection, err := s.repo.FindByID(ctx, collectionID)
	if err != nil {
		return ErrNotFound
	}

	if err := s.repo.Delete(ctx, collection.ID); err != nil {
		return persistError("delete_collection", err)
	}

	s.projection.Remove(collection.ID)
	s.audit(ctx, actor, "DELETE", collection.ID,
		fmt.Sprintf("Cobro de %s eliminado (orden %s)", money.Format(collection.Amount), collection.OrderID))
	s.notifyAdminsAsync("Cobro eliminado",
		fmt.Sprintf("El cobro %s fue eliminado por %s", collection.ID, actor.Name),
		models.NotificationTypeCollectionDeleted)
	return nil
}

// BeginConversion optimistically flips the collection to cheque kind in the
// projection. The store is untouched until RecordCheques commits.
func (s *CollectionService) BeginConversion(actor Actor, collectionID string) (*ConversionPatch, error) {
	if err := requireCapability(actor, CapabilityVerifyAndComplete); err != nil {
		return nil, err
	}
	return s.projection.BeginConversion(collectionID)
}

// AbortConversion reverts the optimistic kind flip when the caller abandons
// the conversion or the commit fails.
func (s *CollectionService) AbortConversion(patch *ConversionPatch) {
	s.projection.AbortConversion(patch)
}

// NotifyOverdueCollections alerts active administrators about pending
// collections past the overdue threshold. Runs from the scheduled job.
func (s *CollectionService) NotifyOverdueCollections(ctx context.Context) error {
	collections, err := s.Refresh(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	var overdue int
	var total float64
	for i := range collections {
		c := &collections[i]
		if c.IsPending() && ClassifyAging(c, now) == AgingOverdue {
			overdue++
			total += c.Amount
		}
	}
	if overdue == 0 || s.notificationSvc == nil {
		return nil
	}

	return s.notificationSvc.NotifyAdmins(ctx,
		"Cobros vencidos",
		fmt.Sprintf("%d cobro(s) pendiente(s) con más de %d días sin completar, total %s", overdue, overdueThresholdDays, money.Format(total)),
		models.NotificationTypeCollectionOverdue)
}

// validateChequeForms applies the recording rules in order, each a hard stop:
// complete fields, no single cheque above the collection amount, the sum
// matching the collection amount within tolerance, and deposit dates present
// when converting.
func validateChequeForms(collection *models.Collection, forms []models.ChequeForm, isConversion bool) error {
	if len(forms) == 0 {
		return &ValidationError{Field: "cheques", Message: "se requiere al menos un cheque"}
	}

	for i, f := range forms {
		n := i + 1
		switch {
		case f.PayerName == "":
			return &ValidationError{Field: "payer_name", Message: fmt.Sprintf("cheque %d: falta el nombre del girador", n)}
		case f.Bank == "":
			return &ValidationError{Field: "bank", Message: fmt.Sprintf("cheque %d: falta el banco", n)}
		case f.ChequeNumber == "":
			return &ValidationError{Field: "cheque_number", Message: fmt.Sprintf("cheque %d: falta el número de cheque", n)}
		case f.ChequeDate == nil:
			return &ValidationError{Field: "cheque_date", Message: fmt.Sprintf("cheque %d: falta la fecha del cheque", n)}
		case f.Amount <= 0:
			return &ValidationError{Field: "amount", Message: fmt.Sprintf("cheque %d: el monto debe ser positivo", n)}
		}
	}

	var sum float64
	for i, f := range forms {
		if f.Amount > collection.Amount {
			return &ValidationError{
				Field:   "amount",
				Message: fmt.Sprintf("cheque %d: el monto %s excede el monto del cobro %s", i+1, money.Format(f.Amount), money.Format(collection.Amount)),
			}
		}
		sum += f.Amount
	}
	if !money.Equal(sum, collection.Amount) {
		return &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("la suma de los cheques (%s) no coincide con el monto del cobro (%s)", money.Format(sum), money.Format(collection.Amount)),
		}
	}

	if isConversion {
		for i, f := range forms {
			if f.DepositDate == nil {
				return &ValidationError{
					Field:   "deposit_date",
					Message: fmt.Sprintf("cheque %d: la conversión requiere fecha de depósito", i+1),
				}
			}
		}
	}
	return nil
}

func (s *CollectionService) checkSecret(hash, secret string) error {
	if hash == "" || secret == "" {
		return &AuthorizationError{Reason: "código de verificación no configurado o vacío"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return &AuthorizationError{Reason: ErrInvalidSecret.Error()}
	}
	return nil
}

func (s *CollectionService) audit(ctx context.Context, actor Actor, action, collectionID, details string) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.Log(ctx, actor.ID, action, "Collection", collectionID, details, "", ""); err != nil {
		logger.Warn("No se pudo registrar la auditoría", "action", action, "collection_id", collectionID, "error", err)
	}
}

func (s *CollectionService) auditCheques(ctx context.Context, actor Actor, collection *models.Collection, count int, conversion bool) {
	action := "RECORD_CHEQUES"
	if conversion {
		action = "CONVERT_TO_CHEQUES"
	}
	s.audit(ctx, actor, action, collection.ID,
		fmt.Sprintf("%d cheque(s) por %s en orden %s", count, money.Format(collection.Amount), collection.OrderID))
}

func (s *CollectionService) notifyAdminsAsync(title, message, notifType string) {
	if s.notificationSvc == nil || s.worker == nil {
		return
	}
	s.worker.EnqueueAsync(func(ctx context.Context) error {
		return s.notificationSvc.NotifyAdmins(ctx, title, message, notifType)
	})
}

func reconciliationWarning(step, collectionID string, err error) string {
	msg := fmt.Sprintf("la orden quedó pendiente de conciliar (paso %q, cobro %s): %v", step, collectionID, err)
	logger.Warn("Reconciliación pendiente", "step", step, "collection_id", collectionID, "error", err)
	return msg
}

func kindLabel(kind string) string {
	switch kind {
	case models.CollectionKindCredit:
		return "de crédito"
	case models.CollectionKindCheque:
		return "de cheque"
	default:
		return kind
	}
}
