package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/pkg/response"
)

type AutomationHandler struct {
	service   AutomationService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAutomationHandler(service AutomationService, logger *slog.Logger) *AutomationHandler {
	return &AutomationHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// EnrollmentFees handles POST /enrollments/{id}/fees. An empty body bills
// the full course fee in one payment.
func (h *AutomationHandler) EnrollmentFees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid enrollment ID", err)
		return
	}

	var req domain.EnrollmentFeesRequest
	if err := decode(r, h.validator, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid enrollment fee request", err)
		return
	}

	fees, err := h.service.CreateEnrollmentFees(r.Context(), id, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, fees)
}

// Sweep handles POST /automation/sweep
func (h *AutomationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SweepOverdue(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, result)
}

// Reminders handles POST /automation/reminders
func (h *AutomationHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SendDailyReminders(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, result)
}
