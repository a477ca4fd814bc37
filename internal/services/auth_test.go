package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/apperrors"
	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/princeprakhar/roomies-backend/internal/store"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type authFixture struct {
	svc       *AuthService
	store     *store.Memory
	mailer    *MockMailer
	sanctions *LocalSanctionCache
	now       time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		store:     store.NewMemory(),
		mailer:    new(MockMailer),
		sanctions: NewLocalSanctionCache(),
		now:       time.Now(),
	}
	f.svc = NewAuthService(f.store, testSecret, nil, f.mailer, f.sanctions)
	f.svc.now = func() time.Time { return f.now }
	return f
}

// captureCode records the code passed to the mailer at argument index idx.
func captureCode(call *mock.Call, idx int, code *string) {
	call.Run(func(args mock.Arguments) { *code = args.String(idx) }).Return(nil)
}

func validRegistration() RegisterRequest {
	return RegisterRequest{Username: " Ana_P ", Email: "Ana@Example.com", Password: "password123", Name: "Ana", Age: 27}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	var code string
	captureCode(f.mailer.On("SendVerificationEmail", "ana@example.com", "ana_p", mock.Anything), 2, &code)

	res, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "ana_p", res.User.Username)
	assert.Equal(t, "ana@example.com", res.User.Email)
	assert.NotEmpty(t, res.Token.AccessToken)
	assert.Len(t, code, codeDigits)

	claims, err := utils.ValidateToken(res.Token.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "ana_p", claims.Username)

	_, err = f.svc.Register(ctx, validRegistration())
	assert.True(t, apperrors.Is(err, apperrors.Conflict))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"short username", func(r *RegisterRequest) { r.Username = "ab" }},
		{"bad username chars", func(r *RegisterRequest) { r.Username = "ana perez" }},
		{"bad email", func(r *RegisterRequest) { r.Email = "ana.example.com" }},
		{"short password", func(r *RegisterRequest) { r.Password = "short" }},
		{"underage", func(r *RegisterRequest) { r.Age = 17 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegistration()
			tt.mutate(&req)
			_, err := f.svc.Register(context.Background(), req)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput), "got %v", err)
		})
	}
	f.mailer.AssertNotCalled(t, "SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RegisterEmailValidator(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	f.mailer.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	validator := new(MockEmailValidator)
	f.svc.validator = validator

	validator.On("IsEmailValid", "ana@example.com").Return(false, nil).Once()
	_, err := f.svc.Register(ctx, validRegistration())
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	// An unavailable validator does not block sign up.
	validator.On("IsEmailValid", "ana@example.com").Return(false, errors.New("timeout")).Once()
	_, err = f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	validator.AssertExpectations(t)
}

func TestAuthService_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	var code string
	captureCode(f.mailer.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything), 2, &code)

	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	err = f.svc.VerifyEmail(ctx, "ana_p", VerifyEmailRequest{Code: "wrong"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	require.NoError(t, f.svc.VerifyEmail(ctx, "ana_p", VerifyEmailRequest{Code: " " + code + " "}))
	user := mustFind(t, f.store, "ana_p")
	assert.True(t, user.IsVerified)
	assert.Empty(t, user.VerificationCode)

	err = f.svc.ResendVerification(ctx, "ana_p")
	assert.True(t, apperrors.Is(err, apperrors.Conflict))
}

func TestAuthService_VerificationCodeExpires(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	var code string
	captureCode(f.mailer.On("SendVerificationEmail", mock.Anything, mock.Anything, mock.Anything), 2, &code)

	_, err := f.svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	f.now = f.now.Add(verificationCodeTTL + time.Second)
	err = f.svc.VerifyEmail(ctx, "ana_p", VerifyEmailRequest{Code: code})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	require.NoError(t, f.svc.ResendVerification(ctx, "ana_p"))
	require.NoError(t, f.svc.VerifyEmail(ctx, "ana_p", VerifyEmailRequest{Code: code}))
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	seedUser(t, f.store, "ana", false)

	res, err := f.svc.Login(ctx, LoginRequest{Identifier: "ANA", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ana", res.User.Username)

	res, err = f.svc.Login(ctx, LoginRequest{Identifier: "ana@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "ana", res.User.Username)

	_, err = f.svc.Login(ctx, LoginRequest{Identifier: "ana", Password: "nope"})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))

	_, err = f.svc.Login(ctx, LoginRequest{Identifier: "ghost", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))
}

func TestAuthService_LoginStanding(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	ana := seedUser(t, f.store, "ana", false)
	seedUser(t, f.store, "beto", false)

	until := f.now.Add(24 * time.Hour)
	require.NoError(t, f.store.UpdateUser(ctx, "ana", store.Updates{
		store.FieldAccountStatus:  models.AccountSuspended,
		store.FieldSuspendedUntil: &until,
	}))
	require.NoError(t, f.sanctions.Suspend(ctx, ana.ID, until))
	require.NoError(t, f.store.UpdateUser(ctx, "beto", store.Updates{store.FieldAccountStatus: models.AccountBanned}))

	_, err := f.svc.Login(ctx, LoginRequest{Identifier: "ana", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))
	_, err = f.svc.Login(ctx, LoginRequest{Identifier: "beto", Password: "password123"})
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	// Once the suspension runs out the account is reactivated on login.
	f.now = until.Add(time.Minute)
	res, err := f.svc.Login(ctx, LoginRequest{Identifier: "ana", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, res.User.AccountStatus)
	assert.Equal(t, models.AccountActive, mustFind(t, f.store, "ana").AccountStatus)
	assert.Nil(t, mustFind(t, f.store, "ana").SuspendedUntil)
	_, ok := f.sanctions.sanctions[ana.ID]
	assert.False(t, ok)
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	seedUser(t, f.store, "ana", false)

	login, err := f.svc.Login(ctx, LoginRequest{Identifier: "ana", Password: "password123"})
	require.NoError(t, err)

	res, err := f.svc.RefreshToken(ctx, RefreshRequest{RefreshToken: login.Token.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token.AccessToken)

	_, err = f.svc.RefreshToken(ctx, RefreshRequest{RefreshToken: login.Token.AccessToken})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))

	_, err = f.svc.RefreshToken(ctx, RefreshRequest{RefreshToken: "garbage"})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))

	require.NoError(t, f.store.DeleteUser(ctx, "ana"))
	_, err = f.svc.RefreshToken(ctx, RefreshRequest{RefreshToken: login.Token.RefreshToken})
	assert.True(t, apperrors.Is(err, apperrors.Unauthorized))
}

func TestAuthService_PasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	seedUser(t, f.store, "ana", false)
	var code string
	captureCode(f.mailer.On("SendPasswordResetEmail", "ana@example.com", mock.Anything).Once(), 1, &code)

	require.NoError(t, f.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "ana@example.com"}))
	require.NoError(t, f.svc.ForgotPassword(ctx, ForgotPasswordRequest{Email: "ghost@example.com"}))
	require.Len(t, code, codeDigits)

	err := f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "ana@example.com", Code: "999999x", NewPassword: "newpassword1"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	require.NoError(t, f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "ana@example.com", Code: code, NewPassword: "newpassword1"}))
	_, err = f.svc.Login(ctx, LoginRequest{Identifier: "ana", Password: "newpassword1"})
	require.NoError(t, err)

	// Codes are single use.
	err = f.svc.ResetPassword(ctx, ResetPasswordRequest{Email: "ana@example.com", Code: code, NewPassword: "another123"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	f.mailer.AssertExpectations(t)
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(t)
	seedUser(t, f.store, "ana", false)

	err := f.svc.ChangePassword(ctx, "ana", ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpassword1"})
	assert.True(t, apperrors.Is(err, apperrors.Forbidden))

	err = f.svc.ChangePassword(ctx, "ana", ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "short"})
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	require.NoError(t, f.svc.ChangePassword(ctx, "ana", ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"}))
	assert.True(t, mustFind(t, f.store, "ana").CheckPassword("newpassword1"))
}
