package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/pkg/response"
)

type PaymentHandler struct {
	service   LedgerService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewPaymentHandler(service LedgerService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// RecordPayment handles POST /fees/{id}/payments
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	feeID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	var req domain.RecordPaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid payment", err)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), feeID, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, payment)
}

// ListPayments handles GET /fees/{id}/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	feeID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), feeID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, payments)
}

// GetPayment handles GET /payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid payment ID", err)
		return
	}

	payment, err := h.service.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, payment)
}

// UpdatePayment handles PUT /payments/{id}. Only the amount can change.
func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid payment ID", err)
		return
	}

	var req domain.UpdatePaymentRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid payment", err)
		return
	}

	payment, err := h.service.EditPaymentAmount(r.Context(), id, req.Amount)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, payment)
}

// DeletePayment handles DELETE /payments/{id}
func (h *PaymentHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid payment ID", err)
		return
	}

	if err := h.service.DeletePayment(r.Context(), id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, map[string]string{"message": "Payment deleted"})
}

// AddAdjustment handles POST /fees/{id}/adjustments
func (h *PaymentHandler) AddAdjustment(w http.ResponseWriter, r *http.Request) {
	feeID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	var req domain.AdjustmentRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid adjustment", err)
		return
	}

	adj, err := h.service.AddAdjustment(r.Context(), feeID, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, adj)
}

// ListAdjustments handles GET /fees/{id}/adjustments
func (h *PaymentHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	feeID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	adjustments, err := h.service.ListAdjustments(r.Context(), feeID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, adjustments)
}

// Reconcile handles POST /fees/{id}/reconcile
func (h *PaymentHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	feeID, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	fee, err := h.service.Reconcile(r.Context(), feeID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, fee)
}
