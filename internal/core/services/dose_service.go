package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

// Dose workflow errors
var (
	ErrInsufficientStock = errors.New("insufficient vaccine stock")
	ErrDuplicateDose     = errors.New("dose already registered for this user and vaccine")
	ErrHistoryNotFound   = errors.New("history record not found")
)

// DuplicateDoseError names the stored application date of the conflicting dose.
// errors.Is(err, ErrDuplicateDose) holds for it.
type DuplicateDoseError struct {
	Dose string
	Date string
}

func (e *DuplicateDoseError) Error() string {
	return fmt.Sprintf("the user already has dose %s of this vaccine registered (date: %s)", e.Dose, e.Date)
}

func (e *DuplicateDoseError) Is(target error) bool {
	return target == ErrDuplicateDose
}

// DoseService implements the dose application workflow and history maintenance
type DoseService struct {
	uow          repositories.UnitOfWork
	userRepo     repositories.UserRepository
	historyRepo  repositories.HistoryRepository
	auditor      Auditor
	restoreStock bool
}

// NewDoseService creates a new dose service.
// restoreStock makes DeleteHistoryRecord put the dose back into stock.
func NewDoseService(
	uow repositories.UnitOfWork,
	userRepo repositories.UserRepository,
	historyRepo repositories.HistoryRepository,
	auditor Auditor,
	restoreStock bool,
) *DoseService {
	return &DoseService{
		uow:          uow,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		auditor:      auditor,
		restoreStock: restoreStock,
	}
}

// ApplyDoseInput represents a dose application request
type ApplyDoseInput struct {
	UserID           uint   `json:"user_id"`
	VaccineID        uint   `json:"vaccine_id"`
	Dose             string `json:"dose"`
	ApplicationDate  string `json:"application_date"`
	Route            string `json:"route"`
	Site             string `json:"site"`
	ResponsibleParty string `json:"responsible_party"`
}

// EditHistoryInput represents an edit of an administered dose
type EditHistoryInput struct {
	ApplicationDate  string `json:"application_date"`
	ResponsibleParty string `json:"responsible_party"`
}

// PatientHistory is a user with every registered dose
type PatientHistory struct {
	User    *models.UserResponse      `json:"user"`
	Records []*models.HistoryResponse `json:"records"`
}

// ApplyDose registers one dose of a vaccine for a user.
// The duplicate check, insert, stock decrement and audit row share one transaction;
// any error leaves stock, history and audit untouched.
func (s *DoseService) ApplyDose(ctx context.Context, input *ApplyDoseInput) (*models.HistoryRecord, error) {
	record, err := s.applyDose(ctx, input)
	if err != nil {
		doseRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}
	dosesAppliedTotal.Inc()
	return record, nil
}

func (s *DoseService) applyDose(ctx context.Context, input *ApplyDoseInput) (*models.HistoryRecord, error) {
	// 1. Validate input
	var missing []string
	if input.UserID == 0 {
		missing = append(missing, "user_id")
	}
	if input.VaccineID == 0 {
		missing = append(missing, "vaccine_id")
	}
	if strings.TrimSpace(input.Dose) == "" {
		missing = append(missing, "dose")
	}
	if strings.TrimSpace(input.ApplicationDate) == "" {
		missing = append(missing, "application_date")
	}
	if err := domain.MissingFields(missing...); err != nil {
		return nil, err
	}

	dose, err := domain.NormalizeDoseLabel(input.Dose)
	if err != nil {
		return nil, err
	}
	applied, err := domain.ParseDate(input.ApplicationDate)
	if err != nil {
		return nil, err
	}

	// 2. The patient must exist
	if _, err := s.userRepo.GetByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	actor := actorOrSystem(input.ResponsibleParty)
	var record *models.HistoryRecord

	// 3. Check, insert, decrement and audit atomically
	err = s.uow.Do(ctx, func(tx *repositories.TxRepositories) error {
		vaccine, err := tx.Vaccines.GetForUpdate(ctx, input.VaccineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVaccineNotFound
			}
			return err
		}
		if !vaccine.IsActive {
			return ErrVaccineNotFound
		}

		existing, err := tx.History.FindByTriple(ctx, input.UserID, input.VaccineID, dose)
		if err == nil {
			return &DuplicateDoseError{Dose: dose, Date: domain.FormatDate(existing.ApplicationDate)}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if vaccine.StockAvailable <= 0 {
			return ErrInsufficientStock
		}

		record = &models.HistoryRecord{
			UserID:           input.UserID,
			VaccineID:        input.VaccineID,
			Dose:             dose,
			ApplicationDate:  applied,
			NextDueDate:      domain.NextDueDate(applied, vaccine.IntervalDays),
			Status:           domain.StatusApplied,
			ResponsibleParty: strings.TrimSpace(input.ResponsibleParty),
			Route:            strings.TrimSpace(input.Route),
			Site:             strings.TrimSpace(input.Site),
			Lot:              vaccine.Lot,
		}
		if err := tx.History.Create(ctx, record); err != nil {
			return err
		}

		ok, err := tx.Vaccines.DecrementStock(ctx, vaccine.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientStock
		}

		subject := input.UserID
		return tx.Audit.Create(ctx, &models.AuditEntry{
			Action:        fmt.Sprintf("Applied dose %s of %s (lot %s)", dose, vaccine.Name, vaccine.Lot),
			Actor:         actor,
			SubjectUserID: &subject,
		})
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateDose) && isUniqueViolation(err) {
			return nil, s.duplicateFromStore(ctx, input.UserID, input.VaccineID, dose)
		}
		return nil, err
	}

	log.Printf("✅ Dose %s of vaccine %d applied to user %d by %s", dose, input.VaccineID, input.UserID, actor)
	return s.historyRepo.GetByID(ctx, record.ID)
}

// duplicateFromStore builds the DuplicateDose error after the unique index refused an insert
func (s *DoseService) duplicateFromStore(ctx context.Context, userID, vaccineID uint, dose string) error {
	existing, err := s.historyRepo.FindByTriple(ctx, userID, vaccineID, dose)
	if err != nil {
		return &DuplicateDoseError{Dose: dose}
	}
	return &DuplicateDoseError{Dose: dose, Date: domain.FormatDate(existing.ApplicationDate)}
}

// EditHistoryRecord changes the application date and responsible party of a record.
// Stock is not touched.
func (s *DoseService) EditHistoryRecord(ctx context.Context, id uint, input *EditHistoryInput, actor string) (*models.HistoryRecord, error) {
	if err := domain.MissingFields(domain.Required(map[string]string{
		"application_date":  input.ApplicationDate,
		"responsible_party": input.ResponsibleParty,
	})...); err != nil {
		return nil, err
	}

	date, err := domain.ParseDate(input.ApplicationDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.historyRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHistoryNotFound
		}
		return nil, err
	}

	// MySQL reports changed rows, so an unchanged save affects none
	if _, err := s.historyRepo.UpdateApplication(ctx, id, date, strings.TrimSpace(input.ResponsibleParty)); err != nil {
		return nil, err
	}

	record, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	subject := record.UserID
	s.auditor.Record(fmt.Sprintf("Edited dose %s of %s", record.Dose, record.Vaccine.Name), actor, &subject)
	return record, nil
}

// DeleteHistoryRecord hard deletes a record. Stock is restored only when configured.
func (s *DoseService) DeleteHistoryRecord(ctx context.Context, id uint, actor string) error {
	if s.restoreStock {
		return s.deleteAndRestore(ctx, id, actor)
	}

	record, err := s.historyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHistoryNotFound
		}
		return err
	}

	ok, err := s.historyRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHistoryNotFound
	}

	subject := record.UserID
	s.auditor.Record(fmt.Sprintf("Deleted dose %s of %s", record.Dose, record.Vaccine.Name), actor, &subject)
	return nil
}

func (s *DoseService) deleteAndRestore(ctx context.Context, id uint, actor string) error {
	return s.uow.Do(ctx, func(tx *repositories.TxRepositories) error {
		record, err := tx.History.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrHistoryNotFound
			}
			return err
		}

		ok, err := tx.History.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrHistoryNotFound
		}

		if err := tx.Vaccines.IncrementStock(ctx, record.VaccineID); err != nil {
			return err
		}

		subject := record.UserID
		return tx.Audit.Create(ctx, &models.AuditEntry{
			Action:        fmt.Sprintf("Deleted dose %s of %s (stock restored)", record.Dose, record.Vaccine.Name),
			Actor:         actorOrSystem(actor),
			SubjectUserID: &subject,
		})
	})
}

// GetByNationalID returns a patient and their doses, newest first
func (s *DoseService) GetByNationalID(ctx context.Context, nationalID string) (*PatientHistory, error) {
	user, err := s.userRepo.GetByNationalID(ctx, strings.TrimSpace(nationalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.historyOf(ctx, user)
}

// GetByUserID returns a patient and their doses, newest first
func (s *DoseService) GetByUserID(ctx context.Context, userID uint) (*PatientHistory, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.historyOf(ctx, user)
}

func (s *DoseService) historyOf(ctx context.Context, user *models.User) (*PatientHistory, error) {
	records, err := s.historyRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result := &PatientHistory{
		User:    user.ToResponse(),
		Records: make([]*models.HistoryResponse, 0, len(records)),
	}
	for _, r := range records {
		r.User = *user
		result.Records = append(result.Records, r.ToResponse())
	}
	return result, nil
}

// List pages through every administered dose
func (s *DoseService) List(ctx context.Context, filter repositories.HistoryFilter, offset, limit int) ([]*models.HistoryResponse, int64, error) {
	records, total, err := s.historyRepo.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*models.HistoryResponse, 0, len(records))
	for _, r := range records {
		result = append(result, r.ToResponse())
	}
	return result, total, nil
}

// isUniqueViolation recognises a unique-key failure across drivers
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateDose):
		return "duplicate"
	case errors.Is(err, ErrInsufficientStock):
		return "stock"
	case errors.Is(err, ErrVaccineNotFound), errors.Is(err, ErrUserNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidDoseLabel), errors.Is(err, domain.ErrInvalidDate):
		return "validation"
	default:
		return "error"
	}
}
