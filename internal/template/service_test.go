package template

import (
	"context"
	"testing"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockExpansionRepository struct {
	mock.Mock
}

func (m *MockExpansionRepository) ExpandActions(ctx context.Context, ledgerID string, defs []ActionDefinition, actor domain.Principal) (*ExpansionResult, error) {
	args := m.Called(ctx, ledgerID, defs, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ExpansionResult), args.Error(1)
}

func (m *MockExpansionRepository) FindLedgerWithActions(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	args := m.Called(ctx, ledgerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ledger), args.Error(1)
}

type MockAccessControl struct {
	mock.Mock
}

func (m *MockAccessControl) VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error {
	args := m.Called(ctx, ledgerID, userID, required)
	return args.Error(0)
}

func newTestService(repo *MockExpansionRepository, access *MockAccessControl) Service {
	return NewService(repo, access, DefaultCatalog())
}

// TestDefaultCatalog_BasicTemplateShape tests the basic memorial template:
// three actions totalling eight slots
func TestDefaultCatalog_BasicTemplateShape(t *testing.T) {
	catalog := DefaultCatalog()

	tmpl, ok := catalog.Template("memorial-service-basic")
	assert.True(t, ok)
	assert.Len(t, tmpl.ActionTypes, 3)

	totalSlots := 0
	for _, key := range tmpl.ActionTypes {
		def, ok := catalog.ActionDefinition(key)
		assert.True(t, ok, key)
		totalSlots += len(def.ExpectedAttachments)
	}
	assert.Equal(t, 8, totalSlots)
}

// TestDefaultCatalog_SingleSlotKeysMatchTypes tests that catalog slot keys for
// single-slot types use the reserved keys
func TestDefaultCatalog_SingleSlotKeysMatchTypes(t *testing.T) {
	catalog := DefaultCatalog()

	for _, def := range catalog.ActionDefinitions() {
		for _, slot := range def.ExpectedAttachments {
			if fixed := slot.Type.FixedSlotKey(); fixed != "" {
				assert.Equal(t, fixed, slot.SlotKey, "%s/%s", def.Key, slot.SlotKey)
			}
		}
	}
}

// TestGetTemplate_Unknown tests that an unknown template id maps to 422
func TestGetTemplate_Unknown(t *testing.T) {
	service := newTestService(new(MockExpansionRepository), new(MockAccessControl))

	_, err := service.GetTemplate("no-such-template")

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
}

// TestApplyTemplate_Success tests template expansion with editor access
func TestApplyTemplate_Success(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)
	actor := domain.Principal{UserID: "user-1", Email: "user1@example.com"}

	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleEditor).Return(nil)
	repo.On("ExpandActions", mock.Anything, "ledger-1", mock.MatchedBy(func(defs []ActionDefinition) bool {
		return len(defs) == 3 && defs[0].Key == "BOOK_VENUE"
	}), actor).Return(&ExpansionResult{ActionsCreated: 3}, nil)

	result, err := service.ApplyTemplate(context.Background(), "ledger-1", "memorial-service-basic", actor)

	assert.NoError(t, err)
	assert.Equal(t, 3, result.ActionsCreated)
	repo.AssertExpectations(t)
	access.AssertExpectations(t)
}

// TestApplyTemplate_ViewerForbidden tests that a viewer cannot expand templates
func TestApplyTemplate_ViewerForbidden(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)
	actor := domain.Principal{UserID: "viewer-1"}

	access.On("VerifyAccess", mock.Anything, "ledger-1", "viewer-1", domain.RoleEditor).
		Return(errors.Forbidden("Insufficient role", nil))

	_, err := service.ApplyTemplate(context.Background(), "ledger-1", "memorial-service-basic", actor)

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 403, apiErr.Status)
	repo.AssertNotCalled(t, "ExpandActions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestApplyCustomActions_UnknownKeyFailsBeforeWrites tests that one bad key in
// a batch rejects the whole batch without touching the repository
func TestApplyCustomActions_UnknownKeyFailsBeforeWrites(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)
	actor := domain.Principal{UserID: "user-1"}

	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleEditor).Return(nil)

	_, err := service.ApplyCustomActions(context.Background(), "ledger-1",
		[]string{"BOOK_VENUE", "NO_SUCH_ACTION"}, actor)

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
	repo.AssertNotCalled(t, "ExpandActions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestApplyCustomActions_EmptyBatch tests that an empty action list is rejected
func TestApplyCustomActions_EmptyBatch(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)

	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleEditor).Return(nil)

	_, err := service.ApplyCustomActions(context.Background(), "ledger-1", nil,
		domain.Principal{UserID: "user-1"})

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
}

// TestSuggestActions_CoordinateHeuristic tests the missing-coordination
// suggestion for busy ledgers
func TestSuggestActions_CoordinateHeuristic(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)

	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleViewer).Return(nil)
	repo.On("FindLedgerWithActions", mock.Anything, "ledger-1").Return(&domain.Ledger{
		ID: "ledger-1",
		Actions: []domain.LedgerAction{
			{Title: "Book a venue"},
			{Title: "Arrange catering"},
			{Title: "Publish the obituary"},
		},
	}, nil)

	suggestions, err := service.SuggestActions(context.Background(), "ledger-1", "user-1")

	assert.NoError(t, err)
	assert.Len(t, suggestions, 1)
	assert.Equal(t, "COORDINATE_WITH_FAMILY", suggestions[0].Key)
}

// TestSuggestActions_MemorialHeuristic tests obituary and photo suggestions
// for memorial-linked ledgers
func TestSuggestActions_MemorialHeuristic(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)

	entityType := "memorial"
	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleViewer).Return(nil)
	repo.On("FindLedgerWithActions", mock.Anything, "ledger-1").Return(&domain.Ledger{
		ID:               "ledger-1",
		LinkedEntityType: &entityType,
		Actions:          []domain.LedgerAction{{Title: "Coordinate with family"}},
	}, nil)

	suggestions, err := service.SuggestActions(context.Background(), "ledger-1", "user-1")

	assert.NoError(t, err)
	assert.Len(t, suggestions, 2)
	assert.Equal(t, "PUBLISH_OBITUARY", suggestions[0].Key)
	assert.Equal(t, "COLLECT_PHOTOS", suggestions[1].Key)
}

// TestSuggestActions_NothingMissing tests that a covered ledger gets no
// suggestions
func TestSuggestActions_NothingMissing(t *testing.T) {
	repo := new(MockExpansionRepository)
	access := new(MockAccessControl)
	service := newTestService(repo, access)

	entityType := "memorial"
	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleViewer).Return(nil)
	repo.On("FindLedgerWithActions", mock.Anything, "ledger-1").Return(&domain.Ledger{
		ID:               "ledger-1",
		LinkedEntityType: &entityType,
		Actions: []domain.LedgerAction{
			{Title: "Coordinate with family"},
			{Title: "Publish the obituary"},
		},
	}, nil)

	suggestions, err := service.SuggestActions(context.Background(), "ledger-1", "user-1")

	assert.NoError(t, err)
	assert.Empty(t, suggestions)
}
