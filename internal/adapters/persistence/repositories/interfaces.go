package repositories

import (
	"context"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetWithRoles(ctx context.Context, id uint) (*models.User, error)
	GetByNationalID(ctx context.Context, nationalID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetActive(ctx context.Context, id uint, active bool) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	ListWithRoles(ctx context.Context) ([]*models.User, error)
	ReplaceRoles(ctx context.Context, user *models.User, roles []models.Role) error
	ExistsByNationalID(ctx context.Context, nationalID string, excludeID uint) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)
	PermissionNames(ctx context.Context, userID uint) ([]string, error)
}

// RoleRepository defines role repository interface
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	GetByName(ctx context.Context, name string) (*models.Role, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Role, error)
	List(ctx context.Context) ([]*models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id uint) error
	CountAssignments(ctx context.Context, roleID uint) (int64, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Role, error)
	ReplacePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error
}

// PermissionRepository defines permission repository interface
type PermissionRepository interface {
	List(ctx context.Context) ([]*models.Permission, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Permission, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// VaccineRepository defines vaccine repository interface
type VaccineRepository interface {
	Create(ctx context.Context, vaccine *models.Vaccine) error
	GetByID(ctx context.Context, id uint) (*models.Vaccine, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Vaccine, error)
	List(ctx context.Context) ([]*models.Vaccine, error)
	Update(ctx context.Context, vaccine *models.Vaccine) error
	Delete(ctx context.Context, id uint) (bool, error)
	SetActive(ctx context.Context, id uint, active bool) error
	SetStock(ctx context.Context, id uint, stock int) (bool, error)
	DecrementStock(ctx context.Context, id uint) (bool, error)
	IncrementStock(ctx context.Context, id uint) error
	ListLowStock(ctx context.Context, threshold int) ([]*models.Vaccine, error)
}

// ScheduleRepository defines dose schedule repository interface
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.DoseSchedule) error
	GetByID(ctx context.Context, id uint) (*models.DoseSchedule, error)
	List(ctx context.Context, vaccineID *uint) ([]*models.DoseSchedule, error)
	Update(ctx context.Context, schedule *models.DoseSchedule) error
	Delete(ctx context.Context, id uint) (bool, error)
}

// HistoryFilter narrows history listings
type HistoryFilter struct {
	From   *time.Time
	To     *time.Time
	UserID *uint
}

// HistoryRepository defines dose history repository interface
type HistoryRepository interface {
	Create(ctx context.Context, record *models.HistoryRecord) error
	GetByID(ctx context.Context, id uint) (*models.HistoryRecord, error)
	FindByTriple(ctx context.Context, userID, vaccineID uint, dose string) (*models.HistoryRecord, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.HistoryRecord, error)
	List(ctx context.Context, filter HistoryFilter, offset, limit int) ([]*models.HistoryRecord, int64, error)
	UpdateApplication(ctx context.Context, id uint, date time.Time, responsible string) (bool, error)
	Delete(ctx context.Context, id uint) (bool, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	CountByVaccine(ctx context.Context, vaccineID uint) (int64, error)
	CountByVaccineOn(ctx context.Context, vaccineID uint, day time.Time) (int64, error)
}

// AuditFilter narrows audit listings
type AuditFilter struct {
	From   *time.Time
	To     *time.Time // exclusive upper bound
	Actor  string
	Action string
}

// AuditRow is an audit entry joined with its subject user name
type AuditRow struct {
	ID            uint      `json:"id"`
	Action        string    `json:"action"`
	Actor         string    `json:"actor"`
	SubjectUserID *uint     `json:"subject_user_id"`
	SubjectName   *string   `json:"subject_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuditRepository defines audit log repository interface
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditEntry) error
	List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*AuditRow, int64, error)
	Recent(ctx context.Context, limit int) ([]*AuditRow, error)
}

// PageContentRepository defines page content repository interface
type PageContentRepository interface {
	GetBySlug(ctx context.Context, slug string) (*models.PageContent, error)
	Save(ctx context.Context, content *models.PageContent) error
}

// AppliedVaccineRepository defines applied vaccine register interface
type AppliedVaccineRepository interface {
	Create(ctx context.Context, record *models.AppliedVaccine) error
	GetByID(ctx context.Context, id uint) (*models.AppliedVaccine, error)
	List(ctx context.Context, filter HistoryFilter, offset, limit int) ([]*models.AppliedVaccine, int64, error)
	Update(ctx context.Context, record *models.AppliedVaccine) error
	Delete(ctx context.Context, id uint) (bool, error)
}

// TxRepositories are the repositories bound to one transaction
type TxRepositories struct {
	Vaccines VaccineRepository
	History  HistoryRepository
	Audit    AuditRepository
}

// UnitOfWork runs a function inside a single database transaction
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos *TxRepositories) error) error
}
