package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNationalIDTaken   = errors.New("national_id is already registered")
	ErrEmailTaken        = errors.New("email is already registered")
	ErrOldPasswordWrong  = errors.New("current password is incorrect")
	ErrWeakPassword      = fmt.Errorf("password must be at least %d characters", password.MinLength)
	ErrCannotDeleteSelf  = errors.New("cannot delete your own account")
	ErrUserHasHistory    = errors.New("user has vaccination history and cannot be deleted")
	ErrUnknownRole       = errors.New("one or more roles do not exist")
	ErrDefaultRoleAbsent = errors.New("default patient role is not seeded")
)

// UserService handles user management business logic
type UserService struct {
	userRepo    repositories.UserRepository
	roleRepo    repositories.RoleRepository
	historyRepo repositories.HistoryRepository
	auditor     Auditor
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repositories.UserRepository,
	roleRepo repositories.RoleRepository,
	historyRepo repositories.HistoryRepository,
	auditor Auditor,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		historyRepo: historyRepo,
		auditor:     auditor,
	}
}

// UserInput represents the editable profile of a user
type UserInput struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Age        *int   `json:"age"`
	BirthDate  string `json:"birth_date"`
	Sex        string `json:"sex"`
	Address    string `json:"address"`
	WorkArea   string `json:"work_area"`
	JobTitle   string `json:"job_title"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// RegisterInput represents self-registration input
type RegisterInput struct {
	UserInput
	Password string `json:"password"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// SetRolesInput represents a role assignment replacement
type SetRolesInput struct {
	RoleIDs []uint `json:"role_ids"`
}

// apply validates the input and copies it onto a user
func (in *UserInput) apply(u *models.User, required map[string]string) error {
	if err := domain.MissingFields(domain.Required(required)...); err != nil {
		return err
	}
	if in.Age != nil && *in.Age < 0 {
		return domain.Invalid("age cannot be negative")
	}
	birth, err := domain.ParseOptionalDate(in.BirthDate)
	if err != nil {
		return err
	}

	u.FullName = strings.TrimSpace(in.FullName)
	u.NationalID = strings.TrimSpace(in.NationalID)
	u.Age = in.Age
	u.BirthDate = birth
	u.Sex = strings.TrimSpace(in.Sex)
	u.Address = strings.TrimSpace(in.Address)
	u.WorkArea = strings.TrimSpace(in.WorkArea)
	u.JobTitle = strings.TrimSpace(in.JobTitle)
	u.Phone = strings.TrimSpace(in.Phone)
	u.Email = strings.ToLower(strings.TrimSpace(in.Email))
	return nil
}

// Register creates a patient account through self-registration
func (s *UserService) Register(ctx context.Context, input *RegisterInput) (*models.UserResponse, error) {
	user := &models.User{IsActive: true}
	err := input.apply(user, map[string]string{
		"full_name":   input.FullName,
		"national_id": input.NationalID,
		"phone":       input.Phone,
		"email":       input.Email,
		"password":    input.Password,
		"work_area":   input.WorkArea,
		"job_title":   input.JobTitle,
	})
	if err != nil {
		return nil, err
	}

	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}
	if err := s.checkUnique(ctx, user.NationalID, user.Email, 0); err != nil {
		return nil, err
	}

	role, err := s.roleRepo.GetByName(ctx, domain.RolePatient)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefaultRoleAbsent
		}
		return nil, err
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash
	user.Roles = []models.Role{*role}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			if uerr := s.checkUnique(ctx, user.NationalID, user.Email, 0); uerr != nil {
				return nil, uerr
			}
			return nil, ErrNationalIDTaken
		}
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("User registered: %s", user.FullName), user.FullName, &user.ID)
	return user.ToResponse(), nil
}

// checkUnique reports which unique field another user already holds
func (s *UserService) checkUnique(ctx context.Context, nationalID, email string, excludeID uint) error {
	taken, err := s.userRepo.ExistsByNationalID(ctx, nationalID, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrNationalIDTaken
	}

	taken, err = s.userRepo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}

// GetByID gets a user with roles
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// GetByNationalID gets a user by national id
func (s *UserService) GetByNationalID(ctx context.Context, nationalID string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByNationalID(ctx, strings.TrimSpace(nationalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// List lists every user with roles
func (s *UserService) List(ctx context.Context) ([]*models.UserResponse, error) {
	users, err := s.userRepo.ListWithRoles(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToResponse())
	}
	return result, nil
}

// Update replaces a user's profile (admin)
func (s *UserService) Update(ctx context.Context, id uint, input *UserInput, actor string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	err = input.apply(user, map[string]string{
		"full_name":   input.FullName,
		"national_id": input.NationalID,
		"email":       input.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, user.NationalID, user.Email, id); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.auditor.Record(fmt.Sprintf("Updated user %s", user.FullName), actor, &user.ID)
	return user.ToResponse(), nil
}

// SetStatus sets the active flag; a nil value toggles it. It returns the new value.
func (s *UserService) SetStatus(ctx context.Context, id uint, active *bool, actor string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, err
	}

	next := !user.IsActive
	if active != nil {
		next = *active
	}

	if _, err := s.userRepo.SetActive(ctx, id, next); err != nil {
		return false, err
	}

	state := "Deactivated"
	if next {
		state = "Activated"
	}
	s.auditor.Record(fmt.Sprintf("%s user %s", state, user.FullName), actor, &user.ID)
	return next, nil
}

// Delete hard deletes a user without vaccination history
func (s *UserService) Delete(ctx context.Context, id, actorID uint, actor string) error {
	if id == actorID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	count, err := s.historyRepo.CountByUser(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserHasHistory
	}

	ok, err := s.userRepo.Delete(ctx, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserHasHistory
		}
		return err
	}
	if !ok {
		return ErrUserNotFound
	}

	s.auditor.Record(fmt.Sprintf("Deleted user %s (%s)", user.FullName, user.NationalID), actor, nil)
	return nil
}

// SetRoles replaces every role assignment of a user
func (s *UserService) SetRoles(ctx context.Context, id uint, input *SetRolesInput, actor string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetWithRoles(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ids := uniqueIDs(input.RoleIDs)
	roles, err := s.roleRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(ids) {
		return nil, ErrUnknownRole
	}

	if err := s.userRepo.ReplaceRoles(ctx, user, roles); err != nil {
		return nil, err
	}
	user.Roles = roles

	s.auditor.Record(fmt.Sprintf("Assigned roles [%s] to %s", strings.Join(user.RoleNames(), ", "), user.FullName), actor, &user.ID)
	return user.ToResponse(), nil
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UserInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Update(ctx, userID, input, user.FullName)
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := domain.MissingFields(domain.Required(map[string]string{
		"old_password": input.OldPassword,
		"new_password": input.NewPassword,
	})...); err != nil {
		return err
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}

	s.auditor.Record("Changed own password", user.FullName, &user.ID)
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
