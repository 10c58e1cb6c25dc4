package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/pkg/response"
)

type FeeHandler struct {
	service   FeeService
	validator *validator.Validate
	logger    *slog.Logger
}

func NewFeeHandler(service FeeService, logger *slog.Logger) *FeeHandler {
	return &FeeHandler{
		service:   service,
		validator: newValidator(),
		logger:    logger,
	}
}

// CreateStructure handles POST /fee-structures
func (h *FeeHandler) CreateStructure(w http.ResponseWriter, r *http.Request) {
	var req domain.FeeStructureRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid fee structure", err)
		return
	}

	structure, err := h.service.CreateStructure(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, structure)
}

// ListStructures handles GET /fee-structures
func (h *FeeHandler) ListStructures(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryID(r, "course_id")
	if err != nil {
		response.BadRequest(w, "Invalid filter", err)
		return
	}

	filter := domain.FeeStructureFilter{
		CourseID:   courseID,
		ActiveOnly: r.URL.Query().Get("active") == "true",
	}
	if raw := r.URL.Query().Get("duration_months"); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid filter", err)
			return
		}
		filter.DurationMonths = &months
	}

	structures, err := h.service.ListStructures(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, structures)
}

// GetStructure handles GET /fee-structures/{id}
func (h *FeeHandler) GetStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee structure ID", err)
		return
	}

	structure, err := h.service.GetStructure(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, structure)
}

// UpdateStructure handles PUT /fee-structures/{id}
func (h *FeeHandler) UpdateStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee structure ID", err)
		return
	}

	var req domain.FeeStructureRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid fee structure", err)
		return
	}

	structure, err := h.service.UpdateStructure(r.Context(), id, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, structure)
}

// DeleteStructure handles DELETE /fee-structures/{id}
func (h *FeeHandler) DeleteStructure(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee structure ID", err)
		return
	}

	if err := h.service.DeleteStructure(r.Context(), id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, map[string]string{"message": "Fee structure deleted"})
}

// Quote handles POST /fees/quote
func (h *FeeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req domain.FeeQuoteRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid quote request", err)
		return
	}

	breakdown, err := h.service.QuoteFee(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, breakdown)
}

// Installments handles POST /fees/installments
func (h *FeeHandler) Installments(w http.ResponseWriter, r *http.Request) {
	var req domain.InstallmentPlanRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid installment request", err)
		return
	}

	plan, err := h.service.PlanInstallments(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, plan)
}

// CreateFee handles POST /fees
func (h *FeeHandler) CreateFee(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStudentFeeRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid fee", err)
		return
	}

	fee, err := h.service.CreateFee(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, fee)
}

// BulkCreate handles POST /fees/bulk-create
func (h *FeeHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkCreateFeesRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid bulk request", err)
		return
	}

	result, err := h.service.BulkCreateFees(r.Context(), &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, result)
}

// ListFees handles GET /fees
func (h *FeeHandler) ListFees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.StudentFeeFilter{
		Status: q.Get("status"),
		Batch:  q.Get("batch"),
	}

	var err error
	if filter.StudentID, err = queryID(r, "student_id"); err != nil {
		response.BadRequest(w, "Invalid filter", err)
		return
	}
	if filter.EnrollmentID, err = queryID(r, "enrollment_id"); err != nil {
		response.BadRequest(w, "Invalid filter", err)
		return
	}
	if filter.CourseID, err = queryID(r, "course_id"); err != nil {
		response.BadRequest(w, "Invalid filter", err)
		return
	}

	fees, err := h.service.ListFees(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, fees)
}

// GetFee handles GET /fees/{id}
func (h *FeeHandler) GetFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	fee, err := h.service.GetFee(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, fee)
}

// DeleteFee handles DELETE /fees/{id}
func (h *FeeHandler) DeleteFee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	if err := h.service.DeleteFee(r.Context(), id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, map[string]string{"message": "Fee deleted"})
}

// StudentFees handles GET /students/{id}/fees
func (h *FeeHandler) StudentFees(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid student ID", err)
		return
	}

	fees, err := h.service.ListStudentFees(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, fees)
}

// Overdue handles GET /fees/overdue
func (h *FeeHandler) Overdue(w http.ResponseWriter, r *http.Request) {
	fees, err := h.service.ListOverdue(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, fees)
}

// Stats handles GET /fees/stats
func (h *FeeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, stats)
}

// Reports handles GET /fees/reports
func (h *FeeHandler) Reports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.Reports(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, reports)
}

// RefundQuote handles POST /fees/{id}/refund-quote
func (h *FeeHandler) RefundQuote(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	var req domain.RefundQuoteRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid refund request", err)
		return
	}

	quote, err := h.service.QuoteRefund(r.Context(), id, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, quote)
}

// Reminders handles GET /fees/{id}/reminders
func (h *FeeHandler) Reminders(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	reminders, err := h.service.ListReminders(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Success(w, reminders)
}

// SendReminder handles POST /fees/{id}/send-reminder
func (h *FeeHandler) SendReminder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.BadRequest(w, "Invalid fee ID", err)
		return
	}

	var req domain.SendReminderRequest
	if err := decode(r, h.validator, &req); err != nil {
		response.BadRequest(w, "Invalid reminder request", err)
		return
	}

	reminder, err := h.service.SendReminder(r.Context(), id, &req)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	response.Created(w, reminder)
}
