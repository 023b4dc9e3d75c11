package models

import (
	"time"

	"sistema-vacunacion/internal/core/domain"

	"gorm.io/gorm"
)

// ============================================================
// Auth, Users & Roles
// ============================================================

// User represents users table (patients and staff alike)
type User struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	FullName   string     `gorm:"size:150;not null;index" json:"full_name"`
	NationalID string     `gorm:"column:national_id;uniqueIndex;size:20;not null" json:"national_id"`
	Age        *int       `json:"age"`
	BirthDate  *time.Time `gorm:"type:date" json:"birth_date"`
	Sex        string     `gorm:"size:20" json:"sex"`
	Address    string     `gorm:"size:255" json:"address"`
	WorkArea   string     `gorm:"size:100" json:"work_area"`
	JobTitle   string     `gorm:"size:100" json:"job_title"`
	Phone      string     `gorm:"size:30" json:"phone"`
	Email      string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password   string     `gorm:"size:255;not null" json:"-"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	Roles      []Role     `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// RoleNames returns the names of the loaded roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// ActiveRoleNames returns the names of the loaded roles that are active
func (u *User) ActiveRoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.IsActive {
			names = append(names, r.Name)
		}
	}
	return names
}

// UserResponse DTO
type UserResponse struct {
	ID         uint            `json:"id"`
	FullName   string          `json:"full_name"`
	NationalID string          `json:"national_id"`
	Age        *int            `json:"age"`
	BirthDate  *string         `json:"birth_date"`
	Sex        string          `json:"sex,omitempty"`
	Address    string          `json:"address,omitempty"`
	WorkArea   string          `json:"work_area,omitempty"`
	JobTitle   string          `json:"job_title,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Email      string          `json:"email"`
	IsActive   bool            `json:"is_active"`
	Roles      []*RoleResponse `json:"roles"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	roles := make([]*RoleResponse, 0, len(u.Roles))
	for i := range u.Roles {
		roles = append(roles, u.Roles[i].ToResponse())
	}

	return &UserResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		NationalID: u.NationalID,
		Age:        u.Age,
		BirthDate:  domain.FormatDatePtr(u.BirthDate),
		Sex:        u.Sex,
		Address:    u.Address,
		WorkArea:   u.WorkArea,
		JobTitle:   u.JobTitle,
		Phone:      u.Phone,
		Email:      u.Email,
		IsActive:   u.IsActive,
		Roles:      roles,
		CreatedAt:  u.CreatedAt,
	}
}

// Role represents roles table
type Role struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"uniqueIndex;size:50;not null" json:"name"`
	IsActive    bool         `gorm:"default:true" json:"is_active"`
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"created_at"`
}

func (Role) TableName() string {
	return "roles"
}

// RoleResponse DTO
type RoleResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions,omitempty"`
}

func (r *Role) ToResponse() *RoleResponse {
	var perms []string
	for _, p := range r.Permissions {
		perms = append(perms, p.Name)
	}
	return &RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		IsActive:    r.IsActive,
		Permissions: perms,
	}
}

// Permission represents permissions table
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

func (Permission) TableName() string {
	return "permissions"
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Vaccines, Schedules & History
// ============================================================

// Vaccine represents vaccines table
type Vaccine struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"size:100;not null;index" json:"name"`
	Manufacturer     string    `gorm:"size:100;not null" json:"manufacturer"`
	RequiredDoses    int       `gorm:"not null" json:"required_doses"`
	IntervalDays     int       `gorm:"not null;default:0" json:"interval_days"`
	Lot              string    `gorm:"size:50;not null" json:"lot"`
	LotDate          time.Time `gorm:"type:date;not null" json:"lot_date"`
	ResponsibleParty string    `gorm:"size:150;not null" json:"responsible_party"`
	StockAvailable   int       `gorm:"not null;default:0;check:chk_vaccines_stock_non_negative,stock_available >= 0" json:"stock_available"`
	IsActive         bool      `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Vaccine) TableName() string {
	return "vaccines"
}

// VaccineResponse DTO
type VaccineResponse struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Manufacturer     string `json:"manufacturer"`
	RequiredDoses    int    `json:"required_doses"`
	IntervalDays     int    `json:"interval_days"`
	Lot              string `json:"lot"`
	LotDate          string `json:"lot_date"`
	ResponsibleParty string `json:"responsible_party"`
	StockAvailable   int    `json:"stock_available"`
	IsActive         bool   `json:"is_active"`
}

func (v *Vaccine) ToResponse() *VaccineResponse {
	return &VaccineResponse{
		ID:               v.ID,
		Name:             v.Name,
		Manufacturer:     v.Manufacturer,
		RequiredDoses:    v.RequiredDoses,
		IntervalDays:     v.IntervalDays,
		Lot:              v.Lot,
		LotDate:          domain.FormatDate(v.LotDate),
		ResponsibleParty: v.ResponsibleParty,
		StockAvailable:   v.StockAvailable,
		IsActive:         v.IsActive,
	}
}

// DoseSchedule represents dose_schedules table (reference data)
type DoseSchedule struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	VaccineID      uint      `gorm:"index;not null" json:"vaccine_id"`
	RecommendedAge string    `gorm:"size:50;not null" json:"recommended_age"`
	RiskGroup      string    `gorm:"size:100" json:"risk_group"`
	DoseType       string    `gorm:"size:50" json:"dose_type"`
	Vaccine        Vaccine   `gorm:"foreignKey:VaccineID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (DoseSchedule) TableName() string {
	return "dose_schedules"
}

// DoseScheduleResponse DTO
type DoseScheduleResponse struct {
	ID             uint   `json:"id"`
	VaccineID      uint   `json:"vaccine_id"`
	VaccineName    string `json:"vaccine_name,omitempty"`
	RecommendedAge string `json:"recommended_age"`
	RiskGroup      string `json:"risk_group"`
	DoseType       string `json:"dose_type"`
}

func (s *DoseSchedule) ToResponse() *DoseScheduleResponse {
	return &DoseScheduleResponse{
		ID:             s.ID,
		VaccineID:      s.VaccineID,
		VaccineName:    s.Vaccine.Name,
		RecommendedAge: s.RecommendedAge,
		RiskGroup:      s.RiskGroup,
		DoseType:       s.DoseType,
	}
}

// HistoryRecord represents dose_history table.
// A (user, vaccine, dose) triple appears at most once.
type HistoryRecord struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;uniqueIndex:ux_history_user_vaccine_dose,priority:1" json:"user_id"`
	VaccineID        uint       `gorm:"not null;index;uniqueIndex:ux_history_user_vaccine_dose,priority:2" json:"vaccine_id"`
	Dose             string     `gorm:"size:20;not null;uniqueIndex:ux_history_user_vaccine_dose,priority:3" json:"dose"`
	ApplicationDate  time.Time  `gorm:"type:date;not null;index" json:"application_date"`
	NextDueDate      *time.Time `gorm:"type:date;index" json:"next_due_date"`
	Status           string     `gorm:"size:30;not null" json:"status"`
	ResponsibleParty string     `gorm:"size:150" json:"responsible_party"`
	Route            string     `gorm:"size:50" json:"route"`
	Site             string     `gorm:"size:50" json:"site"`
	Lot              string     `gorm:"size:50" json:"lot"`
	User             User       `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Vaccine          Vaccine    `gorm:"foreignKey:VaccineID;constraint:OnDelete:RESTRICT" json:"-"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (HistoryRecord) TableName() string {
	return "dose_history"
}

// HistoryResponse DTO
type HistoryResponse struct {
	ID               uint    `json:"id"`
	UserID           uint    `json:"user_id"`
	PatientName      string  `json:"patient_name,omitempty"`
	VaccineID        uint    `json:"vaccine_id"`
	VaccineName      string  `json:"vaccine_name"`
	Manufacturer     string  `json:"manufacturer"`
	Dose             string  `json:"dose"`
	ApplicationDate  string  `json:"application_date"`
	NextDueDate      *string `json:"next_due_date"`
	Status           string  `json:"status"`
	ResponsibleParty string  `json:"responsible_party"`
	Route            string  `json:"route"`
	Site             string  `json:"site"`
	Lot              string  `json:"lot"`
}

func (h *HistoryRecord) ToResponse() *HistoryResponse {
	responsible := h.ResponsibleParty
	if responsible == "" {
		responsible = h.Vaccine.ResponsibleParty
	}

	return &HistoryResponse{
		ID:               h.ID,
		UserID:           h.UserID,
		PatientName:      h.User.FullName,
		VaccineID:        h.VaccineID,
		VaccineName:      h.Vaccine.Name,
		Manufacturer:     h.Vaccine.Manufacturer,
		Dose:             h.Dose,
		ApplicationDate:  domain.FormatDate(h.ApplicationDate),
		NextDueDate:      domain.FormatDatePtr(h.NextDueDate),
		Status:           h.Status,
		ResponsibleParty: responsible,
		Route:            h.Route,
		Site:             h.Site,
		Lot:              h.Lot,
	}
}

// AppliedVaccine represents applied_vaccines table, the free-text register
// used before vaccines were tracked as catalogue entries.
type AppliedVaccine struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	VaccineName      string    `gorm:"size:100;not null" json:"vaccine_name"`
	ApplicationDate  time.Time `gorm:"type:date;not null;index" json:"application_date"`
	Dose             string    `gorm:"size:20" json:"dose"`
	Lot              string    `gorm:"size:50" json:"lot"`
	ResponsibleParty string    `gorm:"size:150" json:"responsible_party"`
	Notes            string    `gorm:"type:text" json:"notes"`
	Route            string    `gorm:"size:50" json:"route"`
	Site             string    `gorm:"size:50" json:"site"`
	User             User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AppliedVaccine) TableName() string {
	return "applied_vaccines"
}

// AppliedVaccineResponse DTO
type AppliedVaccineResponse struct {
	ID               uint   `json:"id"`
	UserID           uint   `json:"user_id"`
	PatientName      string `json:"patient_name"`
	VaccineName      string `json:"vaccine_name"`
	ApplicationDate  string `json:"application_date"`
	Dose             string `json:"dose"`
	Lot              string `json:"lot"`
	ResponsibleParty string `json:"responsible_party"`
	Notes            string `json:"notes"`
	Route            string `json:"route"`
	Site             string `json:"site"`
}

func (a *AppliedVaccine) ToResponse() *AppliedVaccineResponse {
	return &AppliedVaccineResponse{
		ID:               a.ID,
		UserID:           a.UserID,
		PatientName:      a.User.FullName,
		VaccineName:      a.VaccineName,
		ApplicationDate:  domain.FormatDate(a.ApplicationDate),
		Dose:             a.Dose,
		Lot:              a.Lot,
		ResponsibleParty: a.ResponsibleParty,
		Notes:            a.Notes,
		Route:            a.Route,
		Site:             a.Site,
	}
}

// ============================================================
// Audit log & Page content
// ============================================================

// AuditEntry represents audit_log table (append only)
type AuditEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Action        string    `gorm:"size:255;not null" json:"action"`
	Actor         string    `gorm:"size:150;not null;index" json:"actor"`
	SubjectUserID *uint     `gorm:"index" json:"subject_user_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_log"
}

// PageContent represents page_contents table
type PageContent struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	Slug      string              `gorm:"uniqueIndex;size:50;not null" json:"slug"`
	Document  domain.PageDocument `gorm:"type:text;serializer:json" json:"document"`
	UpdatedBy string              `gorm:"size:150" json:"updated_by"`
	UpdatedAt time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PageContent) TableName() string {
	return "page_contents"
}

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Permission{},
		&Role{},
		&User{},
		&RefreshToken{},
		&Vaccine{},
		&DoseSchedule{},
		&HistoryRecord{},
		&AppliedVaccine{},
		&AuditEntry{},
		&PageContent{},
	)
}
