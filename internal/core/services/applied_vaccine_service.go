package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

var ErrAppliedVaccineNotFound = errors.New("applied vaccine record not found")

// AppliedVaccineService manages the free-text applied vaccine register
type AppliedVaccineService struct {
	appliedRepo repositories.AppliedVaccineRepository
	userRepo    repositories.UserRepository
	auditor     Auditor
}

// NewAppliedVaccineService creates a new applied vaccine service
func NewAppliedVaccineService(
	appliedRepo repositories.AppliedVaccineRepository,
	userRepo repositories.UserRepository,
	auditor Auditor,
) *AppliedVaccineService {
	return &AppliedVaccineService{
		appliedRepo: appliedRepo,
		userRepo:    userRepo,
		auditor:     auditor,
	}
}

// AppliedVaccineInput represents register create / update input
type AppliedVaccineInput struct {
	UserID           uint   `json:"user_id"`
	VaccineName      string `json:"vaccine_name"`
	ApplicationDate  string `json:"application_date"`
	Dose             string `json:"dose"`
	Lot              string `json:"lot"`
	ResponsibleParty string `json:"responsible_party"`
	Notes            string `json:"notes"`
	Route            string `json:"route"`
	Site             string `json:"site"`
}

// AppliedVaccineQuery represents list filters as received from the client
type AppliedVaccineQuery struct {
	From   string
	To     string
	UserID *uint
}

func (in *AppliedVaccineInput) apply(a *models.AppliedVaccine) error {
	var missing []string
	if in.UserID == 0 {
		missing = append(missing, "user_id")
	}
	missing = append(missing, domain.Required(map[string]string{
		"vaccine_name":     in.VaccineName,
		"application_date": in.ApplicationDate,
	})...)
	if err := domain.MissingFields(missing...); err != nil {
		return err
	}

	date, err := domain.ParseDate(in.ApplicationDate)
	if err != nil {
		return err
	}

	a.UserID = in.UserID
	a.VaccineName = strings.TrimSpace(in.VaccineName)
	a.ApplicationDate = date
	a.Dose = strings.TrimSpace(in.Dose)
	a.Lot = strings.TrimSpace(in.Lot)
	a.ResponsibleParty = strings.TrimSpace(in.ResponsibleParty)
	a.Notes = strings.TrimSpace(in.Notes)
	a.Route = strings.TrimSpace(in.Route)
	a.Site = strings.TrimSpace(in.Site)
	return nil
}

// List pages through the register; "to" includes the whole day
func (s *AppliedVaccineService) List(ctx context.Context, query AppliedVaccineQuery, offset, limit int) ([]*models.AppliedVaccineResponse, int64, error) {
	from, err := domain.ParseOptionalDate(query.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := domain.ParseOptionalDate(query.To)
	if err != nil {
		return nil, 0, err
	}

	records, total, err := s.appliedRepo.List(ctx, repositories.HistoryFilter{
		From:   from,
		To:     to,
		UserID: query.UserID,
	}, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*models.AppliedVaccineResponse, 0, len(records))
	for _, r := range records {
		result = append(result, r.ToResponse())
	}
	return result, total, nil
}

func (s *AppliedVaccineService) Create(ctx context.Context, input *AppliedVaccineInput, actor string) (*models.AppliedVaccineResponse, error) {
	record := &models.AppliedVaccine{}
	if err := input.apply(record); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, record.UserID); err != nil {
		return nil, err
	}

	if err := s.appliedRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Vaccine application %s", record.VaccineName), actor, &record.UserID)
	return s.get(ctx, record.ID)
}

func (s *AppliedVaccineService) Update(ctx context.Context, id uint, input *AppliedVaccineInput, actor string) (*models.AppliedVaccineResponse, error) {
	record, err := s.appliedRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppliedVaccineNotFound
		}
		return nil, err
	}

	if input.UserID == 0 {
		input.UserID = record.UserID
	}
	if err := input.apply(record); err != nil {
		return nil, err
	}

	if err := s.appliedRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Updated vaccine application %s", record.VaccineName), actor, &record.UserID)
	return s.get(ctx, id)
}

func (s *AppliedVaccineService) Delete(ctx context.Context, id uint, actor string) error {
	ok, err := s.appliedRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAppliedVaccineNotFound
	}

	s.auditor.Record(fmt.Sprintf("Deleted vaccine application #%d", id), actor, nil)
	return nil
}

func (s *AppliedVaccineService) get(ctx context.Context, id uint) (*models.AppliedVaccineResponse, error) {
	record, err := s.appliedRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppliedVaccineNotFound
		}
		return nil, err
	}
	return record.ToResponse(), nil
}

func (s *AppliedVaccineService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
