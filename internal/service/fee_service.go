package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/student-fees/internal/cache"
	"github.com/segyhp/student-fees/internal/config"
	"github.com/segyhp/student-fees/internal/domain"
	"github.com/segyhp/student-fees/internal/feecalc"
	"github.com/segyhp/student-fees/internal/notify"
	"github.com/segyhp/student-fees/internal/repository"
	customError "github.com/segyhp/student-fees/pkg/errors"
	"github.com/segyhp/student-fees/pkg/utils"
)

// FeeService administers the fee catalog and ledger entries and answers
// the read-only questions asked of them.
type FeeService struct {
	StructureRepo  repository.FeeStructureRepository
	FeeRepo        repository.StudentFeeRepository
	PaymentRepo    repository.PaymentRepository
	EnrollmentRepo repository.EnrollmentRepository
	ReminderRepo   repository.ReminderRepository
	calc           *feecalc.Calculator
	cache          Cache
	sender         *reminderSender
	config         *config.Config
	logger         *slog.Logger
	calendar       calendar
}

func NewFeeService(
	structureRepo repository.FeeStructureRepository,
	feeRepo repository.StudentFeeRepository,
	paymentRepo repository.PaymentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	reminderRepo repository.ReminderRepository,
	calc *feecalc.Calculator,
	cache Cache,
	notifier notify.Notifier,
	config *config.Config,
	logger *slog.Logger,
) *FeeService {
	return &FeeService{
		StructureRepo:  structureRepo,
		FeeRepo:        feeRepo,
		PaymentRepo:    paymentRepo,
		EnrollmentRepo: enrollmentRepo,
		ReminderRepo:   reminderRepo,
		calc:           calc,
		cache:          cache,
		sender: &reminderSender{
			enrollments: enrollmentRepo,
			reminders:   reminderRepo,
			notifier:    notifier,
			institute:   config.Notification.InstituteName,
			logger:      logger,
			now:         time.Now,
		},
		config:   config,
		logger:   logger,
		calendar: newCalendar(config),
	}
}

// SetClock pins the service to a fixed clock
func (s *FeeService) SetClock(c Clock) {
	s.calendar.now = c
	s.sender.now = c
}

// CreateStructure adds a catalog entry for a course and duration
func (s *FeeService) CreateStructure(ctx context.Context, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error) {
	now := time.Now()
	structure := &domain.FeeStructure{
		ID:                 uuid.New(),
		CourseID:           req.CourseID,
		DurationMonths:     req.DurationMonths,
		BaseFee:            req.BaseFee.Round(2),
		RegistrationFee:    req.RegistrationFee.Round(2),
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive == nil || *req.IsActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.StructureRepo.Create(ctx, structure); err != nil {
		return nil, dbError(err)
	}

	return domain.NewFeeStructureView(structure), nil
}

// GetStructure retrieves a catalog entry
func (s *FeeService) GetStructure(ctx context.Context, id uuid.UUID) (*domain.FeeStructureView, error) {
	structure, err := s.StructureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}
	return domain.NewFeeStructureView(structure), nil
}

// ListStructures retrieves catalog entries matching filter
func (s *FeeService) ListStructures(ctx context.Context, filter domain.FeeStructureFilter) ([]*domain.FeeStructureView, error) {
	structures, err := s.StructureRepo.List(ctx, filter)
	if err != nil {
		return nil, dbError(err)
	}

	views := make([]*domain.FeeStructureView, 0, len(structures))
	for _, st := range structures {
		views = append(views, domain.NewFeeStructureView(st))
	}
	return views, nil
}

// UpdateStructure edits a catalog entry. Fees already raised keep the
// amounts they were created with.
func (s *FeeService) UpdateStructure(ctx context.Context, id uuid.UUID, req *domain.FeeStructureRequest) (*domain.FeeStructureView, error) {
	structure, err := s.StructureRepo.GetByID(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}

	structure.CourseID = req.CourseID
	structure.DurationMonths = req.DurationMonths
	structure.BaseFee = req.BaseFee.Round(2)
	structure.RegistrationFee = req.RegistrationFee.Round(2)
	structure.DiscountPercentage = req.DiscountPercentage
	if req.IsActive != nil {
		structure.IsActive = *req.IsActive
	}

	if err := s.StructureRepo.Update(ctx, structure); err != nil {
		return nil, dbError(err)
	}

	return domain.NewFeeStructureView(structure), nil
}

// DeleteStructure removes a catalog entry. Fees pointing at it lose the
// reference but keep their amounts.
func (s *FeeService) DeleteStructure(ctx context.Context, id uuid.UUID) error {
	if err := s.StructureRepo.Delete(ctx, id); err != nil {
		return dbError(err)
	}
	return nil
}

// QuoteFee prices a course without writing anything
func (s *FeeService) QuoteFee(ctx context.Context, req *domain.FeeQuoteRequest) (*feecalc.FeeBreakdown, error) {
	batch := req.Batch
	if batch == "" {
		batch = feecalc.BatchMorning
	}

	breakdown, err := s.calc.ComputeFee(req.BaseFee, req.DurationMonths, batch, req.EarlyBird, req.CustomDiscount)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}
	return &breakdown, nil
}

// PlanInstallments splits a total into a schedule without writing anything.
// The schedule starts from AnchorDate, or today when none is given.
func (s *FeeService) PlanInstallments(ctx context.Context, req *domain.InstallmentPlanRequest) ([]feecalc.Installment, error) {
	anchor := s.calendar.today()
	if req.AnchorDate != "" {
		d, err := utils.ParseDate(req.AnchorDate)
		if err != nil {
			return nil, customError.WrapInvalidRequest(err)
		}
		anchor = d
	}

	plan, err := s.calc.PlanInstallments(req.TotalAmount, req.DurationMonths, req.Scheme, anchor)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}
	return plan, nil
}

// CreateFee raises a fee by hand. The student must own the enrollment and
// the structure must belong to the enrolled course.
func (s *FeeService) CreateFee(ctx context.Context, req *domain.CreateStudentFeeRequest) (*domain.StudentFeeView, error) {
	dueDate, err := utils.ParseDate(req.DueDate)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}

	enrollment, err := s.EnrollmentRepo.GetByID(ctx, req.EnrollmentID)
	if err != nil {
		return nil, dbError(err)
	}
	if enrollment.StudentID != req.StudentID {
		return nil, customError.WrapReferenceMismatch(fmt.Sprintf("enrollment %s does not belong to student %s", enrollment.ID, req.StudentID))
	}

	structure, err := s.StructureRepo.GetByID(ctx, req.FeeStructureID)
	if err != nil {
		return nil, dbError(err)
	}
	if structure.CourseID != enrollment.CourseID {
		return nil, customError.WrapReferenceMismatch(fmt.Sprintf("fee structure %s is not for course %s", structure.ID, enrollment.CourseCode))
	}

	amount := structure.TotalFee()
	if req.TotalAmount != nil {
		amount = req.TotalAmount.Round(2)
	}
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidRequest(fmt.Errorf("fee amount must be positive"))
	}

	today := s.calendar.today()
	fee := domain.NewStudentFee(enrollment.StudentID, enrollment.ID, uuid.NullUUID{UUID: structure.ID, Valid: true}, amount, dueDate)
	fee.Description = "Course fee - " + enrollment.CourseName
	fee.Recompute(today)

	if err := s.FeeRepo.Create(ctx, fee); err != nil {
		return nil, dbError(err)
	}

	invalidateAggregates(ctx, s.cache, s.logger)
	return domain.NewStudentFeeView(fee, []*domain.Payment{}, today), nil
}

// BulkCreateFees raises one fee per enrollment from a single structure.
// Enrollments that are missing, already billed or on another course are
// reported and skipped; the rest are still created.
func (s *FeeService) BulkCreateFees(ctx context.Context, req *domain.BulkCreateFeesRequest) (*domain.BulkCreateFeesResponse, error) {
	dueDate, err := utils.ParseDate(req.DueDate)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}

	structure, err := s.StructureRepo.GetByID(ctx, req.FeeStructureID)
	if err != nil {
		return nil, dbError(err)
	}

	today := s.calendar.today()
	resp := &domain.BulkCreateFeesResponse{
		CreatedFees: []*domain.StudentFeeView{},
		Errors:      []string{},
	}

	for _, enrollmentID := range req.EnrollmentIDs {
		enrollment, err := s.EnrollmentRepo.GetByID(ctx, enrollmentID)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Enrollment %s not found", enrollmentID))
			continue
		}

		exists, err := s.FeeRepo.ExistsForEnrollment(ctx, enrollment.ID)
		if err != nil {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Enrollment %s: %v", enrollmentID, err))
			continue
		}
		if exists {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Fee already exists for enrollment %s", enrollmentID))
			continue
		}

		if enrollment.CourseID != structure.CourseID {
			resp.Errors = append(resp.Errors, fmt.Sprintf("Enrollment %s is not on the fee structure's course", enrollmentID))
			continue
		}

		fee := domain.NewStudentFee(enrollment.StudentID, enrollment.ID, uuid.NullUUID{UUID: structure.ID, Valid: true}, structure.TotalFee(), dueDate)
		fee.Description = "Course fee - " + enrollment.CourseName
		fee.Recompute(today)

		if err := s.FeeRepo.Create(ctx, fee); err != nil {
			s.logger.ErrorContext(ctx, "bulk fee creation failed", "enrollment_id", enrollmentID, "error", err)
			resp.Errors = append(resp.Errors, fmt.Sprintf("Enrollment %s: could not create fee", enrollmentID))
			continue
		}

		resp.CreatedFees = append(resp.CreatedFees, domain.NewStudentFeeView(fee, []*domain.Payment{}, today))
	}

	resp.CreatedCount = len(resp.CreatedFees)
	if resp.CreatedCount > 0 {
		invalidateAggregates(ctx, s.cache, s.logger)
	}

	s.logger.InfoContext(ctx, "bulk fee creation",
		"structure_id", structure.ID,
		"created", resp.CreatedCount,
		"rejected", len(resp.Errors),
	)

	return resp, nil
}

// GetFee retrieves a fee with its payments
func (s *FeeService) GetFee(ctx context.Context, id uuid.UUID) (*domain.StudentFeeView, error) {
	fee, err := s.FeeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}

	payments, err := s.PaymentRepo.ListByFee(ctx, id)
	if err != nil {
		return nil, dbError(err)
	}

	return s.view(fee, payments), nil
}

// ListFees retrieves fees matching filter
func (s *FeeService) ListFees(ctx context.Context, filter domain.StudentFeeFilter) ([]*domain.StudentFeeView, error) {
	fees, err := s.FeeRepo.List(ctx, filter)
	if err != nil {
		return nil, dbError(err)
	}
	return s.views(fees), nil
}

// ListStudentFees retrieves every fee raised for a student
func (s *FeeService) ListStudentFees(ctx context.Context, studentID uuid.UUID) ([]*domain.StudentFeeView, error) {
	return s.ListFees(ctx, domain.StudentFeeFilter{StudentID: &studentID})
}

// ListOverdue retrieves unsettled fees past their due date
func (s *FeeService) ListOverdue(ctx context.Context) ([]*domain.StudentFeeView, error) {
	fees, err := s.FeeRepo.ListOverdue(ctx, s.calendar.today())
	if err != nil {
		return nil, dbError(err)
	}
	return s.views(fees), nil
}

// DeleteFee removes a fee with its payments, adjustments and reminders
func (s *FeeService) DeleteFee(ctx context.Context, id uuid.UUID) error {
	if err := s.FeeRepo.Delete(ctx, id); err != nil {
		return dbError(err)
	}

	s.logger.InfoContext(ctx, "fee deleted", "fee_id", id)
	invalidateAggregates(ctx, s.cache, s.logger)
	return nil
}

// Stats aggregates the whole ledger. Results are cached until the next
// ledger write or STATS_CACHE_TTL, whichever comes first.
func (s *FeeService) Stats(ctx context.Context) (*domain.FeeStats, error) {
	today := s.calendar.today()
	stats, err := cache.GetOrSet(ctx, s.cache, statsCacheKey, s.config.GetStatsCacheTTL(), func() (*domain.FeeStats, error) {
		st, err := s.FeeRepo.Stats(ctx, today)
		if err != nil {
			return nil, err
		}
		st.CollectionPercentage = utils.Percentage(st.CollectedFees, st.TotalFees)
		return st, nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	return stats, nil
}

// Reports aggregates the ledger per course, cached like Stats
func (s *FeeService) Reports(ctx context.Context) ([]*domain.CourseFeeReport, error) {
	reports, err := cache.GetOrSet(ctx, s.cache, reportsCacheKey, s.config.GetStatsCacheTTL(), func() ([]*domain.CourseFeeReport, error) {
		rows, err := s.FeeRepo.CourseReports(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			r.PendingFees = utils.MaxZero(r.TotalFees.Sub(r.CollectedFees))
			r.CollectionPercentage = utils.Percentage(r.CollectedFees, r.TotalFees)
		}
		return rows, nil
	})
	if err != nil {
		return nil, dbError(err)
	}
	return reports, nil
}

// QuoteRefund prices a withdrawal from the fee's course. The quote uses the
// contracted amount, so late fees charged since never change it.
func (s *FeeService) QuoteRefund(ctx context.Context, feeID uuid.UUID, req *domain.RefundQuoteRequest) (*feecalc.RefundResult, error) {
	withdrawal, err := utils.ParseDate(req.WithdrawalDate)
	if err != nil {
		return nil, customError.WrapInvalidRequest(err)
	}

	fee, err := s.FeeRepo.GetByID(ctx, feeID)
	if err != nil {
		return nil, dbError(err)
	}

	enrollment, err := s.EnrollmentRepo.GetByID(ctx, fee.EnrollmentID)
	if err != nil {
		return nil, dbError(err)
	}

	registration := s.calc.Policy().RegistrationFee
	if fee.FeeStructureID.Valid {
		structure, err := s.StructureRepo.GetByID(ctx, fee.FeeStructureID.UUID)
		switch {
		case err == nil:
			registration = structure.RegistrationFee
		case !customError.IsNotFound(err):
			return nil, dbError(err)
		}
	}

	result := s.calc.Refund(fee.OriginalAmount, registration, enrollment.StartDate, withdrawal)
	return &result, nil
}

// ListReminders retrieves the reminder log of a fee
func (s *FeeService) ListReminders(ctx context.Context, feeID uuid.UUID) ([]*domain.FeeReminder, error) {
	if _, err := s.FeeRepo.GetByID(ctx, feeID); err != nil {
		return nil, dbError(err)
	}

	reminders, err := s.ReminderRepo.ListByFee(ctx, feeID)
	if err != nil {
		return nil, dbError(err)
	}
	return reminders, nil
}

// SendReminder contacts the student about a fee on staff request. A
// delivery failure is recorded on the returned reminder, not returned.
func (s *FeeService) SendReminder(ctx context.Context, feeID uuid.UUID, req *domain.SendReminderRequest) (*domain.FeeReminder, error) {
	fee, err := s.FeeRepo.GetByID(ctx, feeID)
	if err != nil {
		return nil, dbError(err)
	}

	channel := req.Channel
	if channel == "" {
		channel = domain.ReminderChannelEmail
	}
	kind := req.Kind
	if kind == "" {
		kind = domain.ReminderKindGeneral
	}

	reminder, err := s.sender.send(ctx, fee, kind, channel, req.Message, req.CreatedBy, s.calendar.today())
	if err != nil {
		return nil, dbError(err)
	}
	return reminder, nil
}

// view refreshes the time-dependent status before presenting a fee
func (s *FeeService) view(fee *domain.StudentFee, payments []*domain.Payment) *domain.StudentFeeView {
	today := s.calendar.today()
	fee.Recompute(today)
	return domain.NewStudentFeeView(fee, payments, today)
}

func (s *FeeService) views(fees []*domain.StudentFee) []*domain.StudentFeeView {
	out := make([]*domain.StudentFeeView, 0, len(fees))
	for _, f := range fees {
		out = append(out, s.view(f, nil))
	}
	return out
}
