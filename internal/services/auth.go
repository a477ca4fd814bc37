package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const (
	verificationCodeTTL = 15 * time.Minute
	resetCodeTTL        = time.Hour
	codeDigits          = 6
)

// EmailValidator checks that an address can actually receive mail.
type EmailValidator interface {
	IsEmailValid(email string) (bool, error)
}

type AuthService struct {
	users     store.UserStore
	jwtSecret string
	validator EmailValidator
	mailer    Mailer
	sanctions SanctionCache
	now       func() time.Time
}

func NewAuthService(users store.UserStore, jwtSecret string, validator EmailValidator, mailer Mailer, sanctions SanctionCache) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		validator: validator,
		mailer:    mailer,
		sanctions: sanctions,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Age      int    `json:"age" binding:"required"`
	HasPlace bool   `json:"has_place"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"` // username or email
	Password   string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type AuthResponse struct {
	Token utils.TokenPair `json:"tokens"`
	User  *models.User    `json:"user"`
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	tokenPair, err := utils.GenerateTokenPair(user.ID, user.Username, user.IsAdmin, s.jwtSecret)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "failed to generate tokens")
	}
	return &AuthResponse{Token: *tokenPair, User: user}, nil
}

func (s *AuthService) newCode(ttl time.Duration) (string, *time.Time, error) {
	code, err := utils.GenerateNumericCode(codeDigits)
	if err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.Internal, "failed to generate code")
	}
	expiresAt := s.now().Add(ttl)
	return code, &expiresAt, nil
}

func codeMatches(stored, given string, expiresAt *time.Time, now time.Time) bool {
	if stored == "" || expiresAt == nil || !expiresAt.After(now) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.TrimSpace(given))) == 1
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	username := utils.NormalizeUsername(req.Username)
	email := utils.NormalizeUsername(req.Email)

	if !utils.IsValidUsername(username) {
		return nil, apperrors.Invalidf("username must be 3-30 characters of a-z, 0-9, '.' or '_'")
	}
	// Basic email format validation first
	if !utils.IsValidEmail(email) {
		return nil, apperrors.Invalidf("invalid email format")
	}
	if !utils.IsValidPassword(req.Password) {
		return nil, apperrors.Invalidf("password must be at least 8 characters")
	}
	if req.Age < 18 || req.Age > 99 {
		return nil, apperrors.Invalidf("age must be between 18 and 99")
	}

	// Deliverability check; an unreachable validation API does not block sign up.
	if s.validator != nil {
		valid, err := s.validator.IsEmailValid(email)
		if err != nil {
			logger.WithFields(logger.Fields{"email": email}).WithError(err).Warn("email validation unavailable")
		} else if !valid {
			return nil, apperrors.Invalidf("email address is not valid or deliverable")
		}
	}

	code, expiresAt, err := s.newCode(verificationCodeTTL)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:              username,
		Email:                 email,
		Name:                  utils.SanitizeString(req.Name),
		Age:                   req.Age,
		HasPlace:              req.HasPlace,
		AccountStatus:         models.AccountActive,
		VerificationCode:      code,
		VerificationExpiresAt: expiresAt,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "failed to hash password")
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.sendVerification(user.Email, user.Username, code)
	logger.WithFields(logger.Fields{"user": username, "has_place": req.HasPlace}).Info("user registered")
	return s.issueTokens(user)
}

func (s *AuthService) sendVerification(email, username, code string) {
	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendVerificationEmail(email, username, code); err != nil {
		logger.WithFields(logger.Fields{"user": username}).WithError(err).Warn("failed to send verification email")
	}
}

func (s *AuthService) VerifyEmail(ctx context.Context, username string, req VerifyEmailRequest) error {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return nil
	}
	if !codeMatches(user.VerificationCode, req.Code, user.VerificationExpiresAt, s.now()) {
		return apperrors.Invalidf("invalid or expired verification code")
	}
	return s.users.UpdateUser(ctx, username, store.Updates{
		store.FieldIsVerified:            true,
		store.FieldVerificationCode:      "",
		store.FieldVerificationExpiresAt: (*time.Time)(nil),
	})
}

func (s *AuthService) ResendVerification(ctx context.Context, username string) error {
	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return apperrors.Conflictf("email is already verified")
	}
	code, expiresAt, err := s.newCode(verificationCodeTTL)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUser(ctx, username, store.Updates{
		store.FieldVerificationCode:      code,
		store.FieldVerificationExpiresAt: expiresAt,
	}); err != nil {
		return err
	}
	s.sendVerification(user.Email, username, code)
	return nil
}

// checkStanding refuses banned and currently suspended accounts, and lifts
// suspensions that have run out.
func (s *AuthService) checkStanding(ctx context.Context, user *models.User) error {
	switch user.AccountStatus {
	case models.AccountBanned:
		return apperrors.Forbiddenf("account is banned")
	case models.AccountSuspended:
		if user.IsSuspendedAt(s.now()) {
			return apperrors.Forbiddenf("account is suspended until %s", user.SuspendedUntil.UTC().Format(time.RFC3339))
		}
		if err := s.users.UpdateUser(ctx, user.Username, store.Updates{
			store.FieldAccountStatus:  models.AccountActive,
			store.FieldSuspendedUntil: (*time.Time)(nil),
		}); err != nil {
			return err
		}
		if s.sanctions != nil {
			if err := s.sanctions.Lift(ctx, user.ID); err != nil {
				logger.WithFields(logger.Fields{"user": user.Username}).WithError(err).Warn("failed to lift cached suspension")
			}
		}
		user.AccountStatus = models.AccountActive
		user.SuspendedUntil = nil
		logger.WithFields(logger.Fields{"user": user.Username}).Info("expired suspension lifted")
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	identifier := utils.NormalizeUsername(req.Identifier)

	var user *models.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.users.FindUserByEmail(ctx, identifier)
	} else {
		user, err = s.users.FindUser(ctx, identifier)
	}
	if apperrors.Is(err, apperrors.NotFound) {
		return nil, apperrors.Unauthorizedf("invalid credentials")
	}
	if err != nil {
		return nil, err
	}

	// Check password
	if !user.CheckPassword(req.Password) {
		return nil, apperrors.Unauthorizedf("invalid credentials")
	}
	if err := s.checkStanding(ctx, user); err != nil {
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	claims, err := utils.ValidateToken(req.RefreshToken, s.jwtSecret)
	if err != nil {
		return nil, apperrors.Unauthorizedf("invalid refresh token")
	}
	if claims.Type != string(utils.RefreshToken) {
		return nil, apperrors.Unauthorizedf("invalid token type")
	}

	user, err := s.users.FindUser(ctx, claims.Username)
	if apperrors.Is(err, apperrors.NotFound) {
		return nil, apperrors.Unauthorizedf("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkStanding(ctx, user); err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// ForgotPassword mails a reset code. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	email := utils.NormalizeUsername(req.Email)
	if !utils.IsValidEmail(email) {
		return apperrors.Invalidf("invalid email format")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if apperrors.Is(err, apperrors.NotFound) {
		return nil // Don't reveal if email exists
	}
	if err != nil {
		return err
	}

	code, expiresAt, err := s.newCode(resetCodeTTL)
	if err != nil {
		return err
	}
	if err := s.users.UpdateUser(ctx, user.Username, store.Updates{
		store.FieldResetCode:          code,
		store.FieldResetCodeExpiresAt: expiresAt,
	}); err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(user.Email, code); err != nil {
			logger.WithFields(logger.Fields{"user": user.Username}).WithError(err).Warn("failed to send password reset email")
		}
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if !utils.IsValidPassword(req.NewPassword) {
		return apperrors.Invalidf("password must be at least 8 characters")
	}

	user, err := s.users.FindUserByEmail(ctx, utils.NormalizeUsername(req.Email))
	if apperrors.Is(err, apperrors.NotFound) {
		return apperrors.Invalidf("invalid or expired reset code")
	}
	if err != nil {
		return err
	}
	if !codeMatches(user.ResetCode, req.Code, user.ResetCodeExpiresAt, s.now()) {
		return apperrors.Invalidf("invalid or expired reset code")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "failed to hash password")
	}
	return s.users.UpdateUser(ctx, user.Username, store.Updates{
		store.FieldPassword:           user.Password,
		store.FieldResetCode:          "",
		store.FieldResetCodeExpiresAt: (*time.Time)(nil),
	})
}

func (s *AuthService) ChangePassword(ctx context.Context, username string, req ChangePasswordRequest) error {
	if !utils.IsValidPassword(req.NewPassword) {
		return apperrors.Invalidf("password must be at least 8 characters")
	}

	user, err := s.users.FindUser(ctx, username)
	if err != nil {
		return err
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return apperrors.Forbiddenf("current password is incorrect")
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "failed to hash password")
	}
	return s.users.UpdateUser(ctx, username, store.Updates{store.FieldPassword: user.Password})
}
