package services

import (
	"context"
	"mime/multipart"
	"time"

	"github.com/princeprakhar/roomies-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerificationEmail(to, username, code string) error {
	args := m.Called(to, username, code)
	return args.Error(0)
}

func (m *MockMailer) SendPasswordResetEmail(to, code string) error {
	args := m.Called(to, code)
	return args.Error(0)
}

func (m *MockMailer) SendSanctionNotice(to, username, action, reason string, until *time.Time) error {
	args := m.Called(to, username, action, reason, until)
	return args.Error(0)
}

type MockSanctionCache struct {
	mock.Mock
}

func (m *MockSanctionCache) Suspend(ctx context.Context, userID string, until time.Time) error {
	args := m.Called(ctx, userID, until)
	return args.Error(0)
}

func (m *MockSanctionCache) Ban(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSanctionCache) Lift(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockSanctionCache) Check(ctx context.Context, userID string) (*Sanction, error) {
	args := m.Called(ctx, userID)
	if s := args.Get(0); s != nil {
		return s.(*Sanction), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, chatID string, msg models.Message) error {
	args := m.Called(ctx, chatID, msg)
	return args.Error(0)
}

func (m *MockBroker) Subscribe(ctx context.Context, chatID string) (<-chan models.Message, func()) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(<-chan models.Message), args.Get(1).(func())
}

type MockPhotoStorage struct {
	mock.Mock
}

func (m *MockPhotoStorage) UploadImage(file multipart.File, header *multipart.FileHeader, owner string) (*UploadResult, error) {
	args := m.Called(file, header, owner)
	if r := args.Get(0); r != nil {
		return r.(*UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPhotoStorage) DeleteImage(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

type MockEmailValidator struct {
	mock.Mock
}

func (m *MockEmailValidator) IsEmailValid(email string) (bool, error) {
	args := m.Called(email)
	return args.Bool(0), args.Error(1)
}
