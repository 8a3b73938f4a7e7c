package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles transaction history and reversal endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

// List handles GET /api/v1/transactions.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	records, err := h.ledgerSvc.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(records))
	for i := range records {
		items = append(items, toTransactionResponse(&records[i]))
	}

	response.OK(c, dto.TransactionListResponse{
		Items: items,
		Total: len(items),
	})
}

// Get handles GET /api/v1/transactions/:id. Records are only visible to
// their participants; anyone else sees NotFound.
func (h *TransactionHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	record, err := h.ledgerSvc.GetTransaction(c.Request.Context(), txID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !record.Involves(userID) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	response.OK(c, toTransactionResponse(record))
}

// Reverse handles POST /api/v1/transactions/:id/reverse.
func (h *TransactionHandler) Reverse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	txID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	var req dto.ReverseRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	original, err := h.ledgerSvc.GetTransaction(c.Request.Context(), txID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !original.Involves(userID) {
		response.Error(c, apperror.ErrNotFound("transaction"))
		return
	}

	record, err := h.ledgerSvc.Reverse(c.Request.Context(), ports.ReverseRequest{
		TransactionID: txID,
		Reason:        req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(record))
}

// toTransactionResponse converts a domain record to its wire shape.
func toTransactionResponse(t *domain.Transaction) dto.TransactionResponse {
	resp := dto.TransactionResponse{
		ID:          t.ID.String(),
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Status:      string(t.Status),
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.SenderID != nil {
		s := t.SenderID.String()
		resp.SenderID = &s
	}
	if t.ReceiverID != nil {
		r := t.ReceiverID.String()
		resp.ReceiverID = &r
	}
	if t.RelatedTransactionID != nil {
		r := t.RelatedTransactionID.String()
		resp.RelatedTransactionID = &r
	}
	return resp
}
