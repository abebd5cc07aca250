package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rmejia/cobranza-api/internal/middleware"
	"github.com/rmejia/cobranza-api/internal/models"
	"github.com/rmejia/cobranza-api/internal/services"
)

type CollectionHandler struct {
	collectionService *services.CollectionService
}

func NewCollectionHandler(collectionService *services.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var authErr *services.AuthorizationError
	var persistErr *services.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusForbidden, gin.H{"error": authErr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &persistErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":       persistErr.Error(),
			"failed_step": persistErr.Step,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// parseDate parses a yyyy-mm-dd query parameter.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// @Summary List Collections
// @Description Get collections with optional filters. Totals are always computed over the full set.
// @Tags Collections
// @Produce json
// @Param status query string false "Filter by status (pending/complete)"
// @Param kind query string false "Filter by kind (credit/cheque)"
// @Param start_date query string false "Start date (yyyy-mm-dd)"
// @Param end_date query string false "End date, inclusive (yyyy-mm-dd)"
// @Param aging query string false "Aging bucket (due_soon/overdue)"
// @Param search_term query string false "Search term"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections [get]
func (h *CollectionHandler) Index(c *gin.Context) {
	actor := middleware.GetActor(c)

	all, err := h.collectionService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	// Totals come from the unfiltered set so active filters never change them.
	totals := services.ComputeTotals(all, now)

	filtered := all
	if status := c.Query("status"); status != "" {
		filtered = services.FilterByStatus(filtered, status)
	}
	if kind := c.Query("kind"); kind != "" {
		filtered = services.FilterByKind(filtered, kind)
	}

	aging := c.Query("aging")
	if aging != "" {
		// An active aging filter supersedes explicit date-range filters.
		filtered = services.FilterByAgingBucket(filtered, services.AgingBucket(aging), now)
	} else {
		from, okFrom := parseDate(c.Query("start_date"))
		to, okTo := parseDate(c.Query("end_date"))
		if okFrom && okTo {
			filtered = services.FilterByDateRange(filtered, from, to)
		}
	}

	if term := c.Query("search_term"); term != "" {
		filtered = services.FilterBySearchTerm(filtered, term)
	}

	filtered = services.SortByEffectiveDate(filtered)
	responses := make([]models.CollectionResponse, 0, len(filtered))
	for i := range filtered {
		responses = append(responses, filtered[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": responses,
		"totals":      totals,
	})
}

// @Summary Collections Grouped By Day
// @Description Get collections bucketed by calendar day with pending subtotals
// @Tags Collections
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections/grouped [get]
func (h *CollectionHandler) Grouped(c *gin.Context) {
	actor := middleware.GetActor(c)

	all, err := h.collectionService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": services.GroupByDay(all),
		"totals": services.ComputeTotals(all, time.Now()),
	})
}

// @Summary List Collection Cheques
// @Description Get the physical cheques recorded against a collection
// @Tags Collections
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections/{collection_id}/cheques [get]
func (h *CollectionHandler) Cheques(c *gin.Context) {
	actor := middleware.GetActor(c)

	cheques, err := h.collectionService.Cheques(c.Request.Context(), actor, c.Param("collection_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ChequeResponse, 0, len(cheques))
	for i := range cheques {
		responses = append(responses, cheques[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"cheques": responses})
}

type verifyRequest struct {
	Secret string `json:"secret" binding:"required"`
}

// @Summary Verify And Open Collection
// @Description Check the secondary verification secret and return the collection
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} models.CollectionResponse
// @Security BearerAuth
// @Router /collections/{collection_id}/verify [post]
func (h *CollectionHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	collection, err := h.collectionService.VerifyAndOpen(c.Request.Context(), actor, c.Param("collection_id"), req.Secret)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection.ToResponse())
}

type recognizeRequest struct {
	Notes string `json:"notes"`
}

// @Summary Recognize Collection
// @Description Mark a pending collection fully settled and credit the order
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} services.LifecycleResult
// @Security BearerAuth
// @Router /collections/{collection_id}/recognize [post]
func (h *CollectionHandler) Recognize(c *gin.Context) {
	var req recognizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	result, err := h.collectionService.Recognize(c.Request.Context(), actor, c.Param("collection_id"), req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type partialPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Notes  string  `json:"notes"`
}

// @Summary Record Partial Payment
// @Description Reduce a pending credit collection's outstanding amount
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} services.LifecycleResult
// @Security BearerAuth
// @Router /collections/{collection_id}/partial_payment [post]
func (h *CollectionHandler) PartialPayment(c *gin.Context) {
	var req partialPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	result, err := h.collectionService.RecordPartialPayment(c.Request.Context(), actor, c.Param("collection_id"), req.Amount, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type recordChequesRequest struct {
	Cheques      []models.ChequeForm `json:"cheques" binding:"required"`
	IsConversion bool                `json:"is_conversion"`
}

// @Summary Record Cheques
// @Description Settle a collection against physical cheques, optionally converting credit to cheque
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} services.RecordChequesResult
// @Security BearerAuth
// @Router /collections/{collection_id}/cheques [post]
func (h *CollectionHandler) RecordCheques(c *gin.Context) {
	var req recordChequesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActor(c)
	result, err := h.collectionService.RecordCheques(c.Request.Context(), actor, c.Param("collection_id"), req.Cheques, req.IsConversion)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// @Summary Begin Conversion
// @Description Optimistically flip a pending credit collection to cheque kind in the view
// @Tags Collections
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} services.ConversionPatch
// @Security BearerAuth
// @Router /collections/{collection_id}/conversion [post]
func (h *CollectionHandler) BeginConversion(c *gin.Context) {
	actor := middleware.GetActor(c)
	patch, err := h.collectionService.BeginConversion(actor, c.Param("collection_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, patch)
}

type abortConversionRequest struct {
	PriorKind string `json:"prior_kind" binding:"required"`
}

// @Summary Abort Conversion
// @Description Revert the optimistic kind flip after an abandoned conversion
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections/{collection_id}/conversion [delete]
func (h *CollectionHandler) AbortConversion(c *gin.Context) {
	var req abortConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.collectionService.AbortConversion(&services.ConversionPatch{
		CollectionID: c.Param("collection_id"),
		PriorKind:    req.PriorKind,
	})
	c.JSON(http.StatusOK, gin.H{"reverted": true})
}

type deleteRequest struct {
	Secret  string `json:"secret" binding:"required"`
	Confirm bool   `json:"confirm"`
}

// @Summary Delete Collection
// @Description Irreversibly delete a collection record. Requires the delete secret and explicit confirmation.
// @Tags Collections
// @Accept json
// @Produce json
// @Param collection_id path string true "Collection ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /collections/{collection_id} [delete]
func (h *CollectionHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "la eliminación requiere confirmación explícita"})
		return
	}

	actor := middleware.GetActor(c)
	if err := h.collectionService.Delete(c.Request.Context(), actor, c.Param("collection_id"), req.Secret); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
