package attachment

import (
	"context"
	"encoding/json"
	"testing"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, attachment *domain.LedgerAttachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (*domain.LedgerAttachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAttachment), args.Error(1)
}

func (m *MockRepository) FindBySlotKey(ctx context.Context, actionID, slotKey string) (*domain.LedgerAttachment, error) {
	args := m.Called(ctx, actionID, slotKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAttachment), args.Error(1)
}

func (m *MockRepository) ListByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error) {
	args := m.Called(ctx, actionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAttachment), args.Error(1)
}

func (m *MockRepository) ListEmptyByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error) {
	args := m.Called(ctx, actionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LedgerAttachment), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, attachment *domain.LedgerAttachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockActionProvider struct {
	mock.Mock
}

func (m *MockActionProvider) FindByID(ctx context.Context, id string) (*domain.LedgerAction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerAction), args.Error(1)
}

type MockAccessControl struct {
	mock.Mock
}

func (m *MockAccessControl) VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error {
	args := m.Called(ctx, ledgerID, userID, required)
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) Append(ctx context.Context, update *domain.LedgerStatusUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

func newTestService() (Service, *MockRepository, *MockActionProvider, *MockAccessControl, *MockAuditLogger) {
	repo := new(MockRepository)
	actions := new(MockActionProvider)
	access := new(MockAccessControl)
	audit := new(MockAuditLogger)
	return NewService(repo, actions, access, audit), repo, actions, access, audit
}

func editorSetup(actions *MockActionProvider, access *MockAccessControl) {
	actions.On("FindByID", mock.Anything, "action-1").Return(&domain.LedgerAction{
		ID:       "action-1",
		LedgerID: "ledger-1",
	}, nil)
	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleEditor).Return(nil)
}

// TestCreateAttachment_EmptySlot tests creating an unfilled slot: no audit
// event and the generated key is used
func TestCreateAttachment_EmptySlot(t *testing.T) {
	service, repo, actions, access, audit := newTestService()
	editorSetup(actions, access)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.LedgerAttachment) bool {
		return a.SlotKey == "underworld-query" && a.Empty()
	})).Return(nil)

	attachment, err := service.CreateAttachment(context.Background(), "action-1",
		domain.Principal{UserID: "user-1"}, CreateAttachmentInput{Type: domain.TypeUnderworldQuery})

	assert.NoError(t, err)
	assert.True(t, attachment.Empty())
	audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// TestCreateAttachment_FilledSlotAudited tests that creating with data records
// an ATTACHMENT_FILLED event with wasEmpty=true
func TestCreateAttachment_FilledSlotAudited(t *testing.T) {
	service, repo, actions, access, audit := newTestService()
	editorSetup(actions, access)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	audit.On("Append", mock.Anything, mock.MatchedBy(func(u *domain.LedgerStatusUpdate) bool {
		if u.Type != domain.EventAttachmentFilled {
			return false
		}
		var meta map[string]any
		json.Unmarshal(u.Metadata, &meta)
		return meta["wasEmpty"] == true
	})).Return(nil).Once()

	_, err := service.CreateAttachment(context.Background(), "action-1",
		domain.Principal{UserID: "user-1"}, CreateAttachmentInput{
			Type: domain.TypeNote,
			Data: json.RawMessage(`{"text":"call the florist"}`),
		})

	assert.NoError(t, err)
	audit.AssertExpectations(t)
}

// TestCreateAttachment_DuplicateSlotConflict tests that the unique slot index
// maps to 409
func TestCreateAttachment_DuplicateSlotConflict(t *testing.T) {
	service, repo, actions, access, _ := newTestService()
	editorSetup(actions, access)

	repo.On("Create", mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)

	_, err := service.CreateAttachment(context.Background(), "action-1",
		domain.Principal{UserID: "user-1"}, CreateAttachmentInput{Type: domain.TypeUnderworldQuery})

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 409, apiErr.Status)
}

// TestCreateAttachment_InvalidDataRejected tests that payload validation runs
// before any write
func TestCreateAttachment_InvalidDataRejected(t *testing.T) {
	service, repo, actions, access, _ := newTestService()
	editorSetup(actions, access)

	_, err := service.CreateAttachment(context.Background(), "action-1",
		domain.Principal{UserID: "user-1"}, CreateAttachmentInput{
			Type: domain.TypeLink,
			Data: json.RawMessage(`{"url":"not a url"}`),
		})

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// TestCreateAttachment_CallerPinnedSlotKey tests that an explicit slot key
// wins over the generated one
func TestCreateAttachment_CallerPinnedSlotKey(t *testing.T) {
	service, repo, actions, access, _ := newTestService()
	editorSetup(actions, access)
	slotKey := "venue-notes"

	repo.On("Create", mock.Anything, mock.MatchedBy(func(a *domain.LedgerAttachment) bool {
		return a.SlotKey == "venue-notes"
	})).Return(nil)

	attachment, err := service.CreateAttachment(context.Background(), "action-1",
		domain.Principal{UserID: "user-1"}, CreateAttachmentInput{
			Type:    domain.TypeNote,
			SlotKey: &slotKey,
		})

	assert.NoError(t, err)
	assert.Equal(t, "venue-notes", attachment.SlotKey)
}

// TestFillAttachment_WasEmptySemantics tests that filling an empty slot and
// re-filling a full one are audited with the right wasEmpty flag
func TestFillAttachment_WasEmptySemantics(t *testing.T) {
	cases := []struct {
		name     string
		existing []byte
		wasEmpty bool
	}{
		{"first fill", nil, true},
		{"overwrite", []byte(`{"text":"old"}`), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service, repo, actions, access, audit := newTestService()
			editorSetup(actions, access)

			repo.On("FindByID", mock.Anything, "attachment-1").Return(&domain.LedgerAttachment{
				ID:       "attachment-1",
				ActionID: "action-1",
				Type:     domain.TypeNote,
				SlotKey:  "note-1",
				Data:     tc.existing,
			}, nil)
			repo.On("Save", mock.Anything, mock.Anything).Return(nil)
			audit.On("Append", mock.Anything, mock.MatchedBy(func(u *domain.LedgerStatusUpdate) bool {
				var meta map[string]any
				json.Unmarshal(u.Metadata, &meta)
				return u.Type == domain.EventAttachmentFilled && meta["wasEmpty"] == tc.wasEmpty
			})).Return(nil).Once()

			_, err := service.FillAttachment(context.Background(), "action-1", "attachment-1",
				domain.Principal{UserID: "user-1"}, json.RawMessage(`{"text":"new"}`))

			assert.NoError(t, err)
			audit.AssertExpectations(t)
		})
	}
}

// TestFillAttachment_ValidatesStoredType tests that the payload is checked
// against the slot's immutable type
func TestFillAttachment_ValidatesStoredType(t *testing.T) {
	service, repo, actions, access, _ := newTestService()
	editorSetup(actions, access)

	repo.On("FindByID", mock.Anything, "attachment-1").Return(&domain.LedgerAttachment{
		ID:       "attachment-1",
		ActionID: "action-1",
		Type:     domain.TypeFundraiserReference,
	}, nil)

	// valid NOTE payload, but the slot is a FUNDRAISER_REFERENCE
	_, err := service.FillAttachment(context.Background(), "action-1", "attachment-1",
		domain.Principal{UserID: "user-1"}, json.RawMessage(`{"text":"hello"}`))

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestFillAttachment_WrongAction tests that a slot cannot be filled through
// another action's route
func TestFillAttachment_WrongAction(t *testing.T) {
	service, repo, actions, access, audit := newTestService()

	actions.On("FindByID", mock.Anything, "action-2").Return(&domain.LedgerAction{
		ID:       "action-2",
		LedgerID: "ledger-1",
	}, nil)
	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleEditor).Return(nil)

	// attachment-1 belongs to action-1, not action-2
	repo.On("FindByID", mock.Anything, "attachment-1").Return(&domain.LedgerAttachment{
		ID:       "attachment-1",
		ActionID: "action-1",
		Type:     domain.TypeNote,
		SlotKey:  "note-1",
	}, nil)

	_, err := service.FillAttachment(context.Background(), "action-2", "attachment-1",
		domain.Principal{UserID: "user-1"}, json.RawMessage(`{"text":"hello"}`))

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	audit.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// TestGetAttachment_WrongAction tests that attachments are not reachable via
// another action
func TestGetAttachment_WrongAction(t *testing.T) {
	service, repo, actions, access, _ := newTestService()

	actions.On("FindByID", mock.Anything, "action-1").Return(&domain.LedgerAction{
		ID:       "action-1",
		LedgerID: "ledger-1",
	}, nil)
	access.On("VerifyAccess", mock.Anything, "ledger-1", "user-1", domain.RoleViewer).Return(nil)
	repo.On("FindByID", mock.Anything, "attachment-1").Return(&domain.LedgerAttachment{
		ID:       "attachment-1",
		ActionID: "action-9",
	}, nil)

	_, err := service.GetAttachment(context.Background(), "action-1", "attachment-1", "user-1")

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 404, apiErr.Status)
}

// TestDeleteAttachment_ViewerForbidden tests that viewers cannot delete slots
func TestDeleteAttachment_ViewerForbidden(t *testing.T) {
	service, repo, actions, access, _ := newTestService()

	actions.On("FindByID", mock.Anything, "action-1").Return(&domain.LedgerAction{
		ID:       "action-1",
		LedgerID: "ledger-1",
	}, nil)
	access.On("VerifyAccess", mock.Anything, "ledger-1", "viewer-1", domain.RoleEditor).
		Return(errors.Forbidden("Insufficient role", nil))

	err := service.DeleteAttachment(context.Background(), "action-1", "attachment-1",
		domain.Principal{UserID: "viewer-1"})

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 403, apiErr.Status)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
