// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/meetstack/backend/internal/broker"
	"github.com/carterperez-dev/meetstack/backend/internal/core"
	"github.com/carterperez-dev/meetstack/backend/internal/profile"
	"github.com/carterperez-dev/meetstack/backend/internal/subscription"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (*Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockProvider) DeleteUser(ctx context.Context, subject string) error {
	return m.Called(ctx, subject).Error(0)
}

type MockProfiles struct {
	mock.Mock
}

func (m *MockProfiles) CreateRegistered(ctx context.Context, subject, email string) (*profile.Profile, error) {
	args := m.Called(ctx, subject, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockProfiles) GetMe(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

type MockPlans struct {
	mock.Mock
}

func (m *MockPlans) AssignDefault(ctx context.Context, profileID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockQuota) Reserve(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockRevocations struct {
	mock.Mock
}

func (m *MockRevocations) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	return m.Called(ctx, token, expiresAt).Error(0)
}

func (m *MockRevocations) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

type recordingPublisher struct {
	messages []broker.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg broker.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	provider    *MockProvider
	profiles    *MockProfiles
	plans       *MockPlans
	quota       *MockQuota
	revocations *MockRevocations
	publisher   *recordingPublisher
	service     *Service
}

func newFixture() *fixture {
	f := &fixture{
		provider:    new(MockProvider),
		profiles:    new(MockProfiles),
		plans:       new(MockPlans),
		quota:       new(MockQuota),
		revocations: new(MockRevocations),
		publisher:   &recordingPublisher{},
	}
	f.service = NewService(ServiceConfig{
		Provider:    f.provider,
		Tx:          passthroughTx{},
		Profiles:    f.profiles,
		Plans:       f.plans,
		Quota:       f.quota,
		Revocations: f.revocations,
		Publisher:   f.publisher,
	})
	return f
}

func (f *fixture) assertAll(t *testing.T) {
	t.Helper()
	f.provider.AssertExpectations(t)
	f.profiles.AssertExpectations(t)
	f.plans.AssertExpectations(t)
	f.quota.AssertExpectations(t)
}

var signupSession = &Session{Subject: "subj-1", Email: "ada@example.com", AccessToken: "tok"}

func TestRegister_Success(t *testing.T) {
	f := newFixture()
	f.quota.On("Check", mock.Anything).Return(nil)
	f.provider.On("SignUp", mock.Anything, "ada@example.com", "password123").Return(signupSession, nil)
	f.profiles.On("CreateRegistered", mock.Anything, "subj-1", "ada@example.com").Return(&profile.Profile{ID: "subj-1"}, nil)
	f.plans.On("AssignDefault", mock.Anything, "subj-1").Return(&subscription.Subscription{}, nil)
	f.quota.On("Reserve", mock.Anything).Return(1, nil)

	resp, err := f.service.Register(context.Background(), RegisterRequest{
		Email:    "  Ada@Example.com ",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "subj-1", resp.ProfileID)
	assert.Equal(t, "tok", resp.AccessToken)

	require.Len(t, f.publisher.messages, 1)
	assert.Equal(t, broker.TypeProfileRegistered, f.publisher.messages[0].Type)

	f.provider.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
	f.assertAll(t)
}

func TestRegister_FullDaySkipsProvider(t *testing.T) {
	f := newFixture()
	f.quota.On("Check", mock.Anything).Return(core.ErrQuotaExceeded)

	_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "password123"})
	require.ErrorIs(t, err, core.ErrQuotaExceeded)

	appErr, ok := core.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 429, appErr.StatusCode)

	f.provider.AssertNotCalled(t, "SignUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_AlreadyRegistered(t *testing.T) {
	f := newFixture()
	f.quota.On("Check", mock.Anything).Return(nil)
	f.provider.On("SignUp", mock.Anything, "a@x.com", "password123").
		Return(nil, fmt.Errorf("signup: %w", ErrAlreadyRegistered))

	_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "password123"})

	appErr, ok := core.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "EMAIL_EXISTS", appErr.Code)
	f.profiles.AssertNotCalled(t, "CreateRegistered", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_ProviderFailureIsUpstream(t *testing.T) {
	f := newFixture()
	f.quota.On("Check", mock.Anything).Return(nil)
	f.provider.On("SignUp", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("502 bad gateway"))

	_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, core.ErrUpstream)
}

func TestRegister_CompensatesOnLocalFailure(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(f *fixture)
		wantStatus int
		wantCode   string
	}{
		{
			name: "quota filled meanwhile",
			setup: func(f *fixture) {
				f.profiles.On("CreateRegistered", mock.Anything, "subj-1", "a@x.com").Return(&profile.Profile{}, nil)
				f.plans.On("AssignDefault", mock.Anything, "subj-1").Return(&subscription.Subscription{}, nil)
				f.quota.On("Reserve", mock.Anything).Return(40, core.ErrQuotaExceeded)
			},
			wantStatus: 429,
			wantCode:   "QUOTA_EXCEEDED",
		},
		{
			name: "default plan missing",
			setup: func(f *fixture) {
				f.profiles.On("CreateRegistered", mock.Anything, "subj-1", "a@x.com").Return(&profile.Profile{}, nil)
				f.plans.On("AssignDefault", mock.Anything, "subj-1").
					Return(nil, fmt.Errorf("default plan %q is not seeded: %w", "free", core.ErrConfiguration))
			},
			wantStatus: 500,
			wantCode:   "CONFIGURATION_ERROR",
		},
		{
			name: "profile insert fails",
			setup: func(f *fixture) {
				f.profiles.On("CreateRegistered", mock.Anything, "subj-1", "a@x.com").
					Return(nil, errors.New("connection refused"))
			},
			wantStatus: 400,
			wantCode:   "UPSTREAM_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.quota.On("Check", mock.Anything).Return(nil)
			f.provider.On("SignUp", mock.Anything, "a@x.com", "password123").Return(signupSession, nil)
			f.provider.On("DeleteUser", mock.Anything, "subj-1").Return(nil).Once()
			tt.setup(f)

			_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "password123"})

			appErr, ok := core.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, appErr.StatusCode)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Empty(t, f.publisher.messages)
			f.assertAll(t)
		})
	}
}

func TestRegister_CompensationFailureKeepsOriginalError(t *testing.T) {
	f := newFixture()
	f.quota.On("Check", mock.Anything).Return(nil)
	f.provider.On("SignUp", mock.Anything, mock.Anything, mock.Anything).Return(signupSession, nil)
	f.provider.On("DeleteUser", mock.Anything, "subj-1").Return(errors.New("service key missing"))
	f.profiles.On("CreateRegistered", mock.Anything, mock.Anything, mock.Anything).Return(&profile.Profile{}, nil)
	f.plans.On("AssignDefault", mock.Anything, mock.Anything).Return(nil, core.ErrConfiguration)

	_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "password123"})
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	f.provider.On("SignIn", mock.Anything, "a@x.com", "right-password").
		Return(&Session{Subject: "subj-1", AccessToken: "tok"}, nil)
	f.provider.On("SignIn", mock.Anything, "a@x.com", "wrong-password").
		Return(nil, ErrInvalidCredentials)

	resp, err := f.service.Login(context.Background(), LoginRequest{Email: "A@x.com", Password: "right-password"})
	require.NoError(t, err)
	assert.Equal(t, &LoginResponse{AccessToken: "tok", UserID: "subj-1"}, resp)

	_, err = f.service.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	appErr, ok := core.FromError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLogout_RevokesPastLeeway(t *testing.T) {
	f := newFixture()
	exp := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)
	f.revocations.On("Revoke", mock.Anything, "tok", exp.Add(DefaultLeeway)).Return(nil)

	require.NoError(t, f.service.Logout(context.Background(), "tok", exp))
	f.revocations.AssertExpectations(t)
}

func TestRegister_ProfileConflicts(t *testing.T) {
	t.Run("existing subject keeps its provider account", func(t *testing.T) {
		f := newFixture()
		existing := &Session{Subject: "existing", Email: "a@x.com"}
		f.quota.On("Check", mock.Anything).Return(nil)
		f.provider.On("SignUp", mock.Anything, "a@x.com", "pw1").Return(existing, nil)
		f.profiles.On("CreateRegistered", mock.Anything, "existing", "a@x.com").
			Return(nil, fmt.Errorf("create profile: %w", profile.ErrSubjectExists))

		_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "pw1"})

		appErr, ok := core.FromError(err)
		require.True(t, ok)
		assert.Equal(t, "EMAIL_EXISTS", appErr.Code)
		f.provider.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
		f.assertAll(t)
	})

	t.Run("email taken by another profile is compensated", func(t *testing.T) {
		f := newFixture()
		f.quota.On("Check", mock.Anything).Return(nil)
		f.provider.On("SignUp", mock.Anything, "a@x.com", "pw1").Return(signupSession, nil)
		f.provider.On("DeleteUser", mock.Anything, "subj-1").Return(nil).Once()
		f.profiles.On("CreateRegistered", mock.Anything, "subj-1", "a@x.com").
			Return(nil, fmt.Errorf("create profile: %w", core.ErrDuplicateKey))

		_, err := f.service.Register(context.Background(), RegisterRequest{Email: "a@x.com", Password: "pw1"})

		appErr, ok := core.FromError(err)
		require.True(t, ok)
		assert.Equal(t, "EMAIL_EXISTS", appErr.Code)
		f.assertAll(t)
	})
}
