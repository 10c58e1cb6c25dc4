package handler

import (
	"log/slog"

	"github.com/gorilla/mux"

	"github.com/segyhp/student-fees/pkg/response"
)

// Handlers groups everything NewRouter mounts
type Handlers struct {
	Fees       *FeeHandler
	Payments   *PaymentHandler
	Automation *AutomationHandler
	Health     *HealthHandler
}

func NewRouter(h Handlers, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	if h.Health != nil {
		router.HandleFunc("/health", h.Health.Health).Methods("GET")
		router.HandleFunc("/health/ready", h.Health.Ready).Methods("GET")
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)

	api.HandleFunc("/fee-structures", h.Fees.ListStructures).Methods("GET")
	api.HandleFunc("/fee-structures", h.Fees.CreateStructure).Methods("POST")
	api.HandleFunc("/fee-structures/{id}", h.Fees.GetStructure).Methods("GET")
	api.HandleFunc("/fee-structures/{id}", h.Fees.UpdateStructure).Methods("PUT")
	api.HandleFunc("/fee-structures/{id}", h.Fees.DeleteStructure).Methods("DELETE")

	// fixed paths before /fees/{id}
	api.HandleFunc("/fees/quote", h.Fees.Quote).Methods("POST")
	api.HandleFunc("/fees/installments", h.Fees.Installments).Methods("POST")
	api.HandleFunc("/fees/bulk-create", h.Fees.BulkCreate).Methods("POST")
	api.HandleFunc("/fees/overdue", h.Fees.Overdue).Methods("GET")
	api.HandleFunc("/fees/stats", h.Fees.Stats).Methods("GET")
	api.HandleFunc("/fees/reports", h.Fees.Reports).Methods("GET")

	api.HandleFunc("/fees", h.Fees.ListFees).Methods("GET")
	api.HandleFunc("/fees", h.Fees.CreateFee).Methods("POST")
	api.HandleFunc("/fees/{id}", h.Fees.GetFee).Methods("GET")
	api.HandleFunc("/fees/{id}", h.Fees.DeleteFee).Methods("DELETE")
	api.HandleFunc("/fees/{id}/refund-quote", h.Fees.RefundQuote).Methods("POST")
	api.HandleFunc("/fees/{id}/reminders", h.Fees.Reminders).Methods("GET")
	api.HandleFunc("/fees/{id}/send-reminder", h.Fees.SendReminder).Methods("POST")
	api.HandleFunc("/students/{id}/fees", h.Fees.StudentFees).Methods("GET")

	api.HandleFunc("/fees/{id}/payments", h.Payments.ListPayments).Methods("GET")
	api.HandleFunc("/fees/{id}/payments", h.Payments.RecordPayment).Methods("POST")
	api.HandleFunc("/fees/{id}/adjustments", h.Payments.ListAdjustments).Methods("GET")
	api.HandleFunc("/fees/{id}/adjustments", h.Payments.AddAdjustment).Methods("POST")
	api.HandleFunc("/fees/{id}/reconcile", h.Payments.Reconcile).Methods("POST")
	api.HandleFunc("/payments/{id}", h.Payments.GetPayment).Methods("GET")
	api.HandleFunc("/payments/{id}", h.Payments.UpdatePayment).Methods("PUT")
	api.HandleFunc("/payments/{id}", h.Payments.DeletePayment).Methods("DELETE")

	api.HandleFunc("/enrollments/{id}/fees", h.Automation.EnrollmentFees).Methods("POST")
	api.HandleFunc("/automation/sweep", h.Automation.Sweep).Methods("POST")
	api.HandleFunc("/automation/reminders", h.Automation.Reminders).Methods("POST")

	return router
}
