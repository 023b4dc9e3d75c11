package config

import (
	"errors"
	"log"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/password"

	"gorm.io/gorm"
)

// rolePermissions lists the permissions granted to each seeded role
var rolePermissions = map[string][]string{
	domain.RoleAdmin: {
		domain.PermUsersManage, domain.PermRolesManage, domain.PermVaccinesManage,
		domain.PermHistoryApply, domain.PermHistoryView, domain.PermReportsView,
		domain.PermAuditView, domain.PermContentManage,
	},
	domain.RoleDoctor:  {domain.PermHistoryApply, domain.PermHistoryView, domain.PermReportsView},
	domain.RoleNurse:   {domain.PermHistoryApply, domain.PermHistoryView},
	domain.RolePatient: {domain.PermHistoryView},
}

var permissionDescriptions = map[string]string{
	domain.PermUsersManage:    "Create, edit and deactivate users",
	domain.PermRolesManage:    "Manage roles and their permissions",
	domain.PermVaccinesManage: "Manage the vaccine catalogue, stock and schedules",
	domain.PermHistoryApply:   "Register and edit administered doses",
	domain.PermHistoryView:    "View vaccination history",
	domain.PermReportsView:    "View statistics and exports",
	domain.PermAuditView:      "View the audit log",
	domain.PermContentManage:  "Edit the about-us page and carousel",
}

// Seeder handles database seeding
type Seeder struct {
	db    *gorm.DB
	admin AdminSeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, admin AdminSeedConfig) *Seeder {
	return &Seeder{db: db, admin: admin}
}

// Run executes all seeders. Every step is idempotent.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	perms, err := s.seedPermissions()
	if err != nil {
		return err
	}

	roles, err := s.seedRoles(perms)
	if err != nil {
		return err
	}

	if err := s.seedAdminUser(roles[domain.RoleAdmin]); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

func (s *Seeder) seedPermissions() (map[string]models.Permission, error) {
	perms := make(map[string]models.Permission, len(permissionDescriptions))
	for name, description := range permissionDescriptions {
		perm := models.Permission{Name: name}
		if err := s.db.Where("name = ?", name).
			Attrs(models.Permission{Description: description}).
			FirstOrCreate(&perm).Error; err != nil {
			return nil, err
		}
		perms[name] = perm
	}
	return perms, nil
}

// seedRoles creates missing roles. Permissions are only attached to roles created here
// so that later edits made by an administrator survive a restart.
func (s *Seeder) seedRoles(perms map[string]models.Permission) (map[string]*models.Role, error) {
	roles := make(map[string]*models.Role, len(rolePermissions))
	for name, permNames := range rolePermissions {
		var role models.Role
		err := s.db.Where("name = ?", name).First(&role).Error
		if err == nil {
			roles[name] = &role
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		role = models.Role{Name: name, IsActive: true}
		for _, p := range permNames {
			role.Permissions = append(role.Permissions, perms[p])
		}
		if err := s.db.Create(&role).Error; err != nil {
			return nil, err
		}
		log.Printf("   Created role: %s", role.Name)
		roles[name] = &role
	}
	return roles, nil
}

// seedAdminUser creates the bootstrap administrator from ADMIN_DNI / ADMIN_PASSWORD
func (s *Seeder) seedAdminUser(adminRole *models.Role) error {
	if s.admin.NationalID == "" || s.admin.Password == "" {
		return errors.New("ADMIN_DNI and ADMIN_PASSWORD are not set")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("national_id = ?", s.admin.NationalID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash(s.admin.Password)
	if err != nil {
		return err
	}

	admin := &models.User{
		FullName:   "Administrador",
		NationalID: s.admin.NationalID,
		Email:      s.admin.Email,
		Password:   hashedPassword,
		IsActive:   true,
		Roles:      []models.Role{*adminRole},
	}
	if err := s.db.Omit("Roles.*").Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.NationalID)
	return nil
}
