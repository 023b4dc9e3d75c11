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

var ErrScheduleNotFound = errors.New("dose schedule not found")

// ScheduleService manages the recommended dose schedule (esquema)
type ScheduleService struct {
	scheduleRepo repositories.ScheduleRepository
	vaccineRepo  repositories.VaccineRepository
	auditor      Auditor
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	scheduleRepo repositories.ScheduleRepository,
	vaccineRepo repositories.VaccineRepository,
	auditor Auditor,
) *ScheduleService {
	return &ScheduleService{
		scheduleRepo: scheduleRepo,
		vaccineRepo:  vaccineRepo,
		auditor:      auditor,
	}
}

// ScheduleInput represents schedule create / update input
type ScheduleInput struct {
	VaccineID      uint   `json:"vaccine_id"`
	RecommendedAge string `json:"recommended_age"`
	RiskGroup      string `json:"risk_group"`
	DoseType       string `json:"dose_type"`
}

func (s *ScheduleService) List(ctx context.Context, vaccineID *uint) ([]*models.DoseSchedule, error) {
	return s.scheduleRepo.List(ctx, vaccineID)
}

func (s *ScheduleService) Create(ctx context.Context, input *ScheduleInput, actor string) (*models.DoseSchedule, error) {
	schedule := &models.DoseSchedule{}
	if err := s.fill(ctx, schedule, input); err != nil {
		return nil, err
	}

	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Created schedule for %s at %s", schedule.Vaccine.Name, schedule.RecommendedAge), actor, nil)
	return schedule, nil
}

func (s *ScheduleService) Update(ctx context.Context, id uint, input *ScheduleInput, actor string) (*models.DoseSchedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	if err := s.fill(ctx, schedule, input); err != nil {
		return nil, err
	}
	if err := s.scheduleRepo.Update(ctx, schedule); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Updated schedule #%d of %s", schedule.ID, schedule.Vaccine.Name), actor, nil)
	return schedule, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id uint, actor string) error {
	ok, err := s.scheduleRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrScheduleNotFound
	}

	s.auditor.Record(fmt.Sprintf("Deleted schedule #%d", id), actor, nil)
	return nil
}

// fill validates the input and resolves the referenced vaccine
func (s *ScheduleService) fill(ctx context.Context, schedule *models.DoseSchedule, input *ScheduleInput) error {
	var missing []string
	if input.VaccineID == 0 {
		missing = append(missing, "vaccine_id")
	}
	if strings.TrimSpace(input.RecommendedAge) == "" {
		missing = append(missing, "recommended_age")
	}
	if err := domain.MissingFields(missing...); err != nil {
		return err
	}

	vaccine, err := s.vaccineRepo.GetByID(ctx, input.VaccineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrVaccineNotFound
		}
		return err
	}

	schedule.VaccineID = vaccine.ID
	schedule.Vaccine = *vaccine
	schedule.RecommendedAge = strings.TrimSpace(input.RecommendedAge)
	schedule.RiskGroup = strings.TrimSpace(input.RiskGroup)
	schedule.DoseType = strings.TrimSpace(input.DoseType)
	return nil
}
