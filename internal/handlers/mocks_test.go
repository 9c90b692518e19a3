package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

// MockReminderService is a mock implementation of ReminderService
type MockReminderService struct {
	mock.Mock
}

func (m *MockReminderService) Query(ctx context.Context, params reminders.QueryParams) (*models.Page[models.ServiceReminder], error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Page[models.ServiceReminder]), args.Error(1)
}

func (m *MockReminderService) Summary(ctx context.Context) (*reminders.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reminders.Summary), args.Error(1)
}

// MockScheduleCreator is a mock implementation of ScheduleCreator
type MockScheduleCreator struct {
	mock.Mock
}

func (m *MockScheduleCreator) CreateSchedule(ctx context.Context, s *models.ServiceSchedule) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// MockTokenIssuer is a mock implementation of TokenIssuer
type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenResponse), args.Error(1)
}
