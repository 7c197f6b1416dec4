package ledger

import (
	"context"
	"testing"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, ledger *domain.Ledger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*domain.Ledger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

func (m *MockRepository) FindByIDNested(ctx context.Context, id string) (*domain.Ledger, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

func (m *MockRepository) ListAccessible(ctx context.Context, userID string) ([]domain.Ledger, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ledger), args.Error(1)
}

func (m *MockRepository) AccessibleIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, ledger *domain.Ledger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) GetCollaborator(ctx context.Context, ledgerID, userID string) (*domain.LedgerCollaborator, error) {
	args := m.Called(ctx, ledgerID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerCollaborator), args.Error(1)
}

func (m *MockRepository) ActionCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, ledgerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) CollaboratorCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, ledgerIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) AttachmentCounts(ctx context.Context, actionIDs []string) (map[string]int64, error) {
	args := m.Called(ctx, actionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockRepository) RecentStatusUpdates(ctx context.Context, ledgerID string, limit int) ([]domain.LedgerStatusUpdate, error) {
	args := m.Called(ctx, ledgerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerStatusUpdate), args.Error(1)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Append(ctx context.Context, update *domain.LedgerStatusUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// newAccessService builds a service on a mocked repository; the zero-value
// cache behaves as a degraded (redis-less) cache.
func newAccessService() (Service, *MockRepository) {
	repo := new(MockRepository)
	audit := new(MockAuditLogger)
	return NewService(repo, audit, &redis.Cache{}, nil), repo
}

func ownedLedger() *domain.Ledger {
	return &domain.Ledger{
		ID:          "ledger-1",
		OwnerUserID: "owner-1",
		Title:       "Funeral arrangements",
	}
}

func TestVerifyAccess_RoleMatrix(t *testing.T) {
	cases := []struct {
		name     string
		role     domain.LedgerRole
		required domain.LedgerRole
		allowed  bool
	}{
		{"viewer reads", domain.RoleViewer, domain.RoleViewer, true},
		{"viewer cannot edit", domain.RoleViewer, domain.RoleEditor, false},
		{"editor reads", domain.RoleEditor, domain.RoleViewer, true},
		{"editor edits", domain.RoleEditor, domain.RoleEditor, true},
		{"editor is not owner", domain.RoleEditor, domain.RoleOwner, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo := newAccessService()

			repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)
			repo.On("GetCollaborator", mock.Anything, "ledger-1", "user-2").Return(&domain.LedgerCollaborator{
				ID:       "collab-1",
				LedgerID: "ledger-1",
				UserID:   "user-2",
				Role:     tc.role,
			}, nil)

			err := service.VerifyAccess(context.Background(), "ledger-1", "user-2", tc.required)

			if tc.allowed {
				assert.NoError(t, err)
			} else {
				apiErr, ok := err.(*errors.APIError)
				assert.True(t, ok)
				assert.Equal(t, 403, apiErr.Status)
			}
		})
	}
}

// TestVerifyAccess_OwnerBypass tests that the owner passes any requirement
// without a collaborator lookup
func TestVerifyAccess_OwnerBypass(t *testing.T) {
	service, repo := newAccessService()

	repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)

	err := service.VerifyAccess(context.Background(), "ledger-1", "owner-1", domain.RoleOwner)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "GetCollaborator", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyAccess_LedgerNotFound(t *testing.T) {
	service, repo := newAccessService()

	repo.On("FindByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

	err := service.VerifyAccess(context.Background(), "missing", "user-2", domain.RoleViewer)

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}

func TestVerifyAccess_NotACollaborator(t *testing.T) {
	service, repo := newAccessService()

	repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)
	repo.On("GetCollaborator", mock.Anything, "ledger-1", "stranger").Return(nil, gorm.ErrRecordNotFound)

	err := service.VerifyAccess(context.Background(), "ledger-1", "stranger", domain.RoleViewer)

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 403, apiErr.Status)
}

func TestGetUserRole(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		service, repo := newAccessService()
		repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)

		role, err := service.GetUserRole(context.Background(), "ledger-1", "owner-1")

		assert.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, *role)
	})

	t.Run("collaborator", func(t *testing.T) {
		service, repo := newAccessService()
		repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)
		repo.On("GetCollaborator", mock.Anything, "ledger-1", "user-2").Return(&domain.LedgerCollaborator{
			ID:       "collab-1",
			LedgerID: "ledger-1",
			UserID:   "user-2",
			Role:     domain.RoleEditor,
		}, nil)

		role, err := service.GetUserRole(context.Background(), "ledger-1", "user-2")

		assert.NoError(t, err)
		assert.Equal(t, domain.RoleEditor, *role)
	})

	t.Run("no access", func(t *testing.T) {
		service, repo := newAccessService()
		repo.On("FindByID", mock.Anything, "ledger-1").Return(ownedLedger(), nil)
		repo.On("GetCollaborator", mock.Anything, "ledger-1", "stranger").Return(nil, gorm.ErrRecordNotFound)

		role, err := service.GetUserRole(context.Background(), "ledger-1", "stranger")

		assert.NoError(t, err)
		assert.Nil(t, role)
	})

	t.Run("missing ledger", func(t *testing.T) {
		service, repo := newAccessService()
		repo.On("FindByID", mock.Anything, "missing").Return(nil, gorm.ErrRecordNotFound)

		_, err := service.GetUserRole(context.Background(), "missing", "owner-1")

		apiErr, ok := err.(*errors.APIError)
		assert.True(t, ok)
		assert.Equal(t, 404, apiErr.Status)
	})
}
