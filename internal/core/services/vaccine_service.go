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

// Vaccine errors
var (
	ErrVaccineNotFound = errors.New("vaccine not found")
	ErrNegativeStock   = errors.New("stock cannot be negative")
	ErrVaccineInUse    = errors.New("vaccine has registered doses and cannot be deleted")
)

// VaccineService handles the vaccine catalogue and its stock
type VaccineService struct {
	vaccineRepo repositories.VaccineRepository
	historyRepo repositories.HistoryRepository
	auditor     Auditor
}

// NewVaccineService creates a new vaccine service
func NewVaccineService(
	vaccineRepo repositories.VaccineRepository,
	historyRepo repositories.HistoryRepository,
	auditor Auditor,
) *VaccineService {
	return &VaccineService{
		vaccineRepo: vaccineRepo,
		historyRepo: historyRepo,
		auditor:     auditor,
	}
}

// VaccineInput represents vaccine create / update input
type VaccineInput struct {
	Name             string `json:"name"`
	Manufacturer     string `json:"manufacturer"`
	RequiredDoses    *int   `json:"required_doses"`
	IntervalDays     *int   `json:"interval_days"`
	Lot              string `json:"lot"`
	LotDate          string `json:"lot_date"`
	ResponsibleParty string `json:"responsible_party"`
	StockAvailable   *int   `json:"stock_available"`
}

// toModel validates the input and fills a vaccine
func (in *VaccineInput) toModel(v *models.Vaccine) error {
	missing := domain.Required(map[string]string{
		"name":              in.Name,
		"manufacturer":      in.Manufacturer,
		"lot":               in.Lot,
		"lot_date":          in.LotDate,
		"responsible_party": in.ResponsibleParty,
	})
	if in.RequiredDoses == nil {
		missing = append(missing, "required_doses")
	}
	if in.StockAvailable == nil {
		missing = append(missing, "stock_available")
	}
	if err := domain.MissingFields(missing...); err != nil {
		return err
	}

	if *in.RequiredDoses < 1 {
		return domain.Invalid("required_doses must be at least 1")
	}
	interval := 0
	if in.IntervalDays != nil {
		interval = *in.IntervalDays
	}
	if interval < 0 {
		return domain.Invalid("interval_days cannot be negative")
	}
	if *in.StockAvailable < 0 {
		return ErrNegativeStock
	}
	lotDate, err := domain.ParseDate(in.LotDate)
	if err != nil {
		return err
	}

	v.Name = strings.TrimSpace(in.Name)
	v.Manufacturer = strings.TrimSpace(in.Manufacturer)
	v.RequiredDoses = *in.RequiredDoses
	v.IntervalDays = interval
	v.Lot = strings.TrimSpace(in.Lot)
	v.LotDate = lotDate
	v.ResponsibleParty = strings.TrimSpace(in.ResponsibleParty)
	v.StockAvailable = *in.StockAvailable
	return nil
}

// Create registers a new active vaccine
func (s *VaccineService) Create(ctx context.Context, input *VaccineInput, actor string) (*models.Vaccine, error) {
	vaccine := &models.Vaccine{IsActive: true}
	if err := input.toModel(vaccine); err != nil {
		return nil, err
	}

	if err := s.vaccineRepo.Create(ctx, vaccine); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Created vaccine %s (lot %s)", vaccine.Name, vaccine.Lot), actor, nil)
	return vaccine, nil
}

func (s *VaccineService) List(ctx context.Context) ([]*models.Vaccine, error) {
	return s.vaccineRepo.List(ctx)
}

func (s *VaccineService) Get(ctx context.Context, id uint) (*models.Vaccine, error) {
	vaccine, err := s.vaccineRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVaccineNotFound
		}
		return nil, err
	}
	return vaccine, nil
}

// Update replaces every catalogue field, stock included (absolute value)
func (s *VaccineService) Update(ctx context.Context, id uint, input *VaccineInput, actor string) (*models.Vaccine, error) {
	vaccine, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := input.toModel(vaccine); err != nil {
		return nil, err
	}

	if err := s.vaccineRepo.Update(ctx, vaccine); err != nil {
		return nil, err
	}
	if _, err := s.vaccineRepo.SetStock(ctx, id, vaccine.StockAvailable); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Updated vaccine %s (stock %d)", vaccine.Name, vaccine.StockAvailable), actor, nil)
	return vaccine, nil
}

// Delete removes a vaccine nobody has received yet
func (s *VaccineService) Delete(ctx context.Context, id uint, actor string) error {
	vaccine, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.historyRepo.CountByVaccine(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrVaccineInUse
	}

	ok, err := s.vaccineRepo.Delete(ctx, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrVaccineInUse
		}
		return err
	}
	if !ok {
		return ErrVaccineNotFound
	}

	s.auditor.Record(fmt.Sprintf("Deleted vaccine %s", vaccine.Name), actor, nil)
	return nil
}

// ToggleStatus flips the active flag and returns the new value
func (s *VaccineService) ToggleStatus(ctx context.Context, id uint, actor string) (bool, error) {
	vaccine, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	active := !vaccine.IsActive
	if err := s.vaccineRepo.SetActive(ctx, id, active); err != nil {
		return false, err
	}

	state := "Deactivated"
	if active {
		state = "Activated"
	}
	s.auditor.Record(fmt.Sprintf("%s vaccine %s", state, vaccine.Name), actor, nil)
	return active, nil
}

// SetStock sets the stock to an absolute, non-negative value
func (s *VaccineService) SetStock(ctx context.Context, id uint, stock int, actor string) (*models.Vaccine, error) {
	if stock < 0 {
		return nil, ErrNegativeStock
	}

	vaccine, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.vaccineRepo.SetStock(ctx, id, stock); err != nil {
		return nil, err
	}
	vaccine.StockAvailable = stock

	s.auditor.Record(fmt.Sprintf("Set stock of %s to %d", vaccine.Name, stock), actor, nil)
	return vaccine, nil
}

// ReduceStock takes one unit out of stock; it fails at zero
func (s *VaccineService) ReduceStock(ctx context.Context, id uint, actor string) (*models.Vaccine, error) {
	vaccine, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.vaccineRepo.DecrementStock(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientStock
	}

	vaccine.StockAvailable--
	s.auditor.Record(fmt.Sprintf("Reduced stock of %s to %d", vaccine.Name, vaccine.StockAvailable), actor, nil)
	return vaccine, nil
}

// AppliedToday counts doses of a vaccine applied today
func (s *VaccineService) AppliedToday(ctx context.Context, id uint) (int64, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return 0, err
	}
	return s.historyRepo.CountByVaccineOn(ctx, id, domain.Today())
}

// LowStock lists active vaccines at or below the threshold
func (s *VaccineService) LowStock(ctx context.Context, threshold int) ([]*models.Vaccine, error) {
	return s.vaccineRepo.ListLowStock(ctx, threshold)
}

// isForeignKeyViolation recognises a restrict failure across drivers
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key")
}
