package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"
	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/config"
	"sistema-vacunacion/internal/core/domain"
	"sistema-vacunacion/internal/pkg/jwt"
	"sistema-vacunacion/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Auth errors
var (
	ErrInvalidCredentials = errors.New("invalid national id or password")
	ErrMissingToken       = errors.New("missing token")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrEmailNotFound      = errors.New("no account is registered with that email")
	ErrInvalidCode        = errors.New("invalid recovery code")
	ErrCodeExpired        = errors.New("recovery code expired, request a new one")
	ErrTooManyAttempts    = errors.New("too many wrong attempts, request a new code")
)

// MaxCodeAttempts is how many wrong guesses a recovery code survives
const MaxCodeAttempts = 5

// AuthService handles authentication business logic
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	codes            CodeStore
	mailer           Mailer
	auditor          Auditor
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	codes CodeStore,
	mailer Mailer,
	auditor Auditor,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		codes:            codes,
		mailer:           mailer,
		auditor:          auditor,
		cfg:              cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	NationalID string `json:"national_id"`
	Password   string `json:"password"`
}

// ForgotPasswordInput starts password recovery
type ForgotPasswordInput struct {
	Email string `json:"email"`
}

// VerifyCodeInput checks a recovery code
type VerifyCodeInput struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ResetPasswordInput finishes password recovery
type ResetPasswordInput struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthUser is the identity returned to the client after login
type AuthUser struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	NationalID  string   `json:"national_id"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *AuthUser `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
}

// Login authenticates a user by national id
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	if err := domain.MissingFields(domain.Required(map[string]string{
		"national_id": input.NationalID,
		"password":    input.Password,
	})...); err != nil {
		return nil, err
	}

	// 1. Find user by national id
	user, err := s.userRepo.GetByNationalID(ctx, strings.TrimSpace(input.NationalID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	// 3. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Issue tokens
	resp, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.auditor.Record("Login", user.FullName, &user.ID)
	log.Printf("✅ User logged in: %s", user.NationalID)
	return resp, nil
}

// RefreshToken rotates the refresh token and issues a new access token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	// 2. Find the live token in DB
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, err
	}
	if storedToken.IsExpired() {
		return nil, ErrTokenExpired
	}

	// 3. Reload the user
	user, err := s.userRepo.GetWithRoles(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 4. Revoke old refresh token (rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	return s.issue(ctx, user)
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user ID: %d", userID)
	return nil
}

// Me returns the current user with roles and permissions
func (s *AuthService) Me(ctx context.Context, userID uint) (*AuthUser, error) {
	user, err := s.userRepo.GetWithRoles(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.authUser(ctx, user)
}

// Authenticate resolves a bearer token into the acting identity.
// The user and role membership are reloaded so deactivation takes effect at once.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	claims, err := jwt.ValidateAccessToken(token, s.cfg.JWT.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetWithRoles(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	perms, err := s.userRepo.PermissionNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.Identity{
		UserID:      user.ID,
		Name:        user.FullName,
		NationalID:  user.NationalID,
		Email:       user.Email,
		Roles:       user.ActiveRoleNames(),
		Permissions: perms,
	}, nil
}

// ForgotPassword mails a 6-digit recovery code to a registered email
func (s *AuthService) ForgotPassword(ctx context.Context, input *ForgotPasswordInput) error {
	email := normalizeEmail(input.Email)
	if email == "" {
		return domain.MissingFields("email")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	code, err := generateRecoveryCode()
	if err != nil {
		return fmt.Errorf("generate recovery code: %w", err)
	}

	ttl := time.Duration(s.cfg.Recovery.CodeMinutes) * time.Minute
	err = s.codes.Save(ctx, &RecoveryCode{
		Email:     email,
		CodeHash:  password.HashToken(code),
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return err
	}

	body := fmt.Sprintf(
		"Hola %s,\n\nTu código de recuperación es: %s\nVence en %d minutos.\n\nSi no solicitaste este cambio, ignora este mensaje.",
		user.FullName, code, s.cfg.Recovery.CodeMinutes,
	)
	if err := s.mailer.Send(ctx, email, "Recuperación de contraseña", body); err != nil {
		_ = s.codes.Delete(ctx, email)
		return err
	}

	recoveryCodesSentTotal.Inc()
	s.auditor.Record("Requested password recovery", user.FullName, &user.ID)
	return nil
}

// VerifyCode checks a recovery code without consuming it
func (s *AuthService) VerifyCode(ctx context.Context, input *VerifyCodeInput) error {
	email := normalizeEmail(input.Email)
	if err := domain.MissingFields(domain.Required(map[string]string{
		"email": email,
		"code":  input.Code,
	})...); err != nil {
		return err
	}
	return s.checkCode(ctx, email, strings.TrimSpace(input.Code))
}

// ResetPassword sets a new password, consumes the code and revokes every session
func (s *AuthService) ResetPassword(ctx context.Context, input *ResetPasswordInput) error {
	email := normalizeEmail(input.Email)
	if err := domain.MissingFields(domain.Required(map[string]string{
		"email":        email,
		"code":         input.Code,
		"new_password": input.NewPassword,
	})...); err != nil {
		return err
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	if err := s.checkCode(ctx, email, strings.TrimSpace(input.Code)); err != nil {
		return err
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmailNotFound
		}
		return err
	}

	hash, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := s.codes.Delete(ctx, email); err != nil {
		log.Printf("⚠️ Failed to delete recovery code for %s: %v", email, err)
	}
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		log.Printf("⚠️ Failed to revoke sessions of user %d: %v", user.ID, err)
	}

	s.auditor.Record("Reset password with recovery code", user.FullName, &user.ID)
	return nil
}

// checkCode validates a code, counting wrong attempts
func (s *AuthService) checkCode(ctx context.Context, email, code string) error {
	entry, err := s.codes.Get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if time.Now().After(entry.ExpiresAt) {
		_ = s.codes.Delete(ctx, email)
		return ErrCodeExpired
	}
	if entry.Attempts >= MaxCodeAttempts {
		_ = s.codes.Delete(ctx, email)
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(entry.CodeHash), []byte(password.HashToken(code))) != 1 {
		attempts, err := s.codes.IncrementAttempts(ctx, email)
		if err == nil && attempts >= MaxCodeAttempts {
			_ = s.codes.Delete(ctx, email)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}
	return nil
}

// issue generates a token pair and stores the refresh token
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	authUser, err := s.authUser(ctx, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.generateTokens(authUser)
	if err != nil {
		return nil, err
	}

	if err := s.storeRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         authUser,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

func (s *AuthService) authUser(ctx context.Context, user *models.User) (*AuthUser, error) {
	perms, err := s.userRepo.PermissionNames(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}

	return &AuthUser{
		ID:          user.ID,
		Name:        user.FullName,
		NationalID:  user.NationalID,
		Email:       user.Email,
		Roles:       user.ActiveRoleNames(),
		Permissions: perms,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(user *AuthUser) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(jwt.AccessSubject{
		UserID:      user.ID,
		NationalID:  user.NationalID,
		Name:        user.Name,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	}, s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.GenerateRefreshToken(
		user.ID,
		uuid.New().String(),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token hash in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID uint, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
