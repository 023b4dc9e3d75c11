package services

import (
	"context"
	"log"
	"math"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/dialect"
	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

// ReportService handles read-only aggregates for dashboards and exports
type ReportService struct {
	db        *gorm.DB
	auditRepo repositories.AuditRepository
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB, auditRepo repositories.AuditRepository) *ReportService {
	return &ReportService{db: db, auditRepo: auditRepo}
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// end is the exclusive upper bound of the range
func (r DateRange) end() time.Time {
	return r.To.AddDate(0, 0, 1)
}

// ParseRange parses from/to. Missing values default to the first day of the current month and today.
func ParseRange(from, to string) (DateRange, error) {
	today := domain.Today()
	r := DateRange{
		From: time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC),
		To:   today,
	}

	if from != "" {
		t, err := domain.ParseDate(from)
		if err != nil {
			return r, err
		}
		r.From = t
	}
	if to != "" {
		t, err := domain.ParseDate(to)
		if err != nil {
			return r, err
		}
		r.To = t
	}
	if r.To.Before(r.From) {
		return r, domain.Invalid("from must not be after to")
	}
	return r, nil
}

// GrowthRate is the month-over-month change in percent, rounded.
// A month following an empty one counts as 100% growth; two empty months as 0%.
func GrowthRate(previous, current int64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(current-previous) / float64(previous) * 100))
}

// ============================================================
// Dashboard
// ============================================================

// VaccineCount is the number of doses of one vaccine
type VaccineCount struct {
	Vaccine string `json:"vaccine"`
	Total   int64  `json:"total"`
}

// MonthCount is the number of events in a month ("YYYY-MM" or month number)
type MonthCount struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}

// MonthNumberCount is the number of events in a month of the year (1-12)
type MonthNumberCount struct {
	Month int   `json:"month"`
	Total int64 `json:"total"`
}

// DashboardData represents the admin dashboard
type DashboardData struct {
	Range          DateRange                `json:"range"`
	TotalUsers     int64                    `json:"total_users"`
	DosesInRange   int64                    `json:"doses_in_range"`
	DosesToday     int64                    `json:"doses_today"`
	CurrentMonth   int64                    `json:"current_month"`
	PreviousMonth  int64                    `json:"previous_month"`
	GrowthRate     int                      `json:"growth_rate"`
	DosesByVaccine []VaccineCount           `json:"doses_by_vaccine"`
	RecentActivity []*repositories.AuditRow `json:"recent_activity"`
}

// MonthlyProgress represents doses and registrations per month of a range
type MonthlyProgress struct {
	Doses         []MonthNumberCount `json:"doses"`
	Registrations []MonthNumberCount `json:"registrations"`
	DosesToday    int64              `json:"doses_today"`
}

// Dashboard returns the admin dashboard for a range
func (s *ReportService) Dashboard(ctx context.Context, r DateRange) (*DashboardData, error) {
	data := &DashboardData{Range: r}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&data.TotalUsers).Error; err != nil {
		return nil, err
	}

	var err error
	if data.DosesInRange, err = s.countDoses(ctx, r.From, r.end()); err != nil {
		return nil, err
	}

	today := domain.Today()
	if data.DosesToday, err = s.countDoses(ctx, today, today.AddDate(0, 0, 1)); err != nil {
		return nil, err
	}

	// current vs previous calendar month
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	if data.CurrentMonth, err = s.countDoses(ctx, monthStart, monthStart.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}
	if data.PreviousMonth, err = s.countDoses(ctx, monthStart.AddDate(0, -1, 0), monthStart); err != nil {
		return nil, err
	}
	data.GrowthRate = GrowthRate(data.PreviousMonth, data.CurrentMonth)

	byVaccine, err := s.VaccineTypes(ctx, r)
	if err != nil {
		return nil, err
	}
	data.DosesByVaccine = byVaccine

	recent, err := s.auditRepo.Recent(ctx, 5)
	if err != nil {
		return nil, err
	}
	data.RecentActivity = recent

	return data, nil
}

func (s *ReportService) countDoses(ctx context.Context, from, until time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.HistoryRecord{}).
		Where("application_date >= ? AND application_date < ?", from, until).
		Count(&count).Error
	return count, err
}

// VaccinesApplied lists every dose applied in a range, newest first
func (s *ReportService) VaccinesApplied(ctx context.Context, r DateRange) ([]*models.HistoryResponse, error) {
	var records []*models.HistoryRecord
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Vaccine").
		Where("application_date >= ? AND application_date < ?", r.From, r.end()).
		Order("application_date DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toHistoryResponses(records), nil
}

// VaccineTypes counts doses per vaccine name in a range, most applied first
func (s *ReportService) VaccineTypes(ctx context.Context, r DateRange) ([]VaccineCount, error) {
	counts := []VaccineCount{}
	err := s.db.WithContext(ctx).
		Table("dose_history").
		Select("vaccines.name AS vaccine, COUNT(dose_history.id) AS total").
		Joins("JOIN vaccines ON vaccines.id = dose_history.vaccine_id").
		Where("dose_history.application_date >= ? AND dose_history.application_date < ?", r.From, r.end()).
		Group("vaccines.name").
		Order("total DESC, vaccines.name").
		Scan(&counts).Error
	return counts, err
}

// MonthlyGrowth counts doses per "YYYY-MM", newest month first
func (s *ReportService) MonthlyGrowth(ctx context.Context) ([]MonthCount, error) {
	ym := dialect.YearMonth(s.db, "application_date")
	counts := []MonthCount{}
	err := s.db.WithContext(ctx).
		Table("dose_history").
		Select(ym + " AS month, COUNT(*) AS total").
		Group(ym).
		Order("month DESC").
		Scan(&counts).Error
	return counts, err
}

// MonthlyProgress counts doses and registrations per month number in a range
func (s *ReportService) MonthlyProgress(ctx context.Context, r DateRange) (*MonthlyProgress, error) {
	progress := &MonthlyProgress{
		Doses:         []MonthNumberCount{},
		Registrations: []MonthNumberCount{},
	}

	doseMonth := dialect.Month(s.db, "application_date")
	err := s.db.WithContext(ctx).
		Table("dose_history").
		Select(doseMonth+" AS month, COUNT(*) AS total").
		Where("application_date >= ? AND application_date < ?", r.From, r.end()).
		Group(doseMonth).
		Order("month").
		Scan(&progress.Doses).Error
	if err != nil {
		return nil, err
	}

	userMonth := dialect.Month(s.db, "created_at")
	err = s.db.WithContext(ctx).
		Table("users").
		Select(userMonth+" AS month, COUNT(*) AS total").
		Where("created_at >= ? AND created_at < ?", r.From, r.end()).
		Group(userMonth).
		Order("month").
		Scan(&progress.Registrations).Error
	if err != nil {
		return nil, err
	}

	today := domain.Today()
	if !today.Before(r.From) && !today.After(r.To) {
		if progress.DosesToday, err = s.countDoses(ctx, today, today.AddDate(0, 0, 1)); err != nil {
			return nil, err
		}
	}

	return progress, nil
}

// AvailableYears lists the distinct years with applied doses, ascending.
// On failure it falls back to the current year.
func (s *ReportService) AvailableYears(ctx context.Context) []int {
	year := dialect.Year(s.db, "application_date")
	var years []int
	err := s.db.WithContext(ctx).
		Table("dose_history").
		Distinct(year+" AS report_year").
		Order("report_year").
		Pluck("report_year", &years).Error
	if err != nil {
		log.Printf("⚠️ Failed to load report years: %v", err)
		return []int{time.Now().Year()}
	}
	if years == nil {
		years = []int{}
	}
	return years
}

// ============================================================
// Exports
// ============================================================

// UsersComplete exports every user
func (s *ReportService) UsersComplete(ctx context.Context) ([]*models.UserResponse, error) {
	var users []*models.User
	if err := s.db.WithContext(ctx).Preload("Roles").Order("id").Find(&users).Error; err != nil {
		return nil, err
	}

	result := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToResponse())
	}
	return result, nil
}

// VaccinesComplete exports the vaccine catalogue
func (s *ReportService) VaccinesComplete(ctx context.Context) ([]*models.VaccineResponse, error) {
	var vaccines []*models.Vaccine
	if err := s.db.WithContext(ctx).Order("id").Find(&vaccines).Error; err != nil {
		return nil, err
	}

	result := make([]*models.VaccineResponse, 0, len(vaccines))
	for _, v := range vaccines {
		result = append(result, v.ToResponse())
	}
	return result, nil
}

// AuditComplete exports the whole audit log, newest first
func (s *ReportService) AuditComplete(ctx context.Context) ([]*repositories.AuditRow, error) {
	return s.auditRepo.Recent(ctx, -1)
}

// UpcomingDoses lists doses whose next due date is today or later, soonest first
func (s *ReportService) UpcomingDoses(ctx context.Context) ([]*models.HistoryResponse, error) {
	var records []*models.HistoryRecord
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Vaccine").
		Where("next_due_date IS NOT NULL AND next_due_date >= ?", domain.Today()).
		Order("next_due_date, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toHistoryResponses(records), nil
}

func toHistoryResponses(records []*models.HistoryRecord) []*models.HistoryResponse {
	result := make([]*models.HistoryResponse, 0, len(records))
	for _, r := range records {
		result = append(result, r.ToResponse())
	}
	return result
}
