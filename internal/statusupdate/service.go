package statusupdate

import (
	"context"
	defError "errors"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/gorm"
)

// DefaultListLimit is the page size applied when the caller doesn't pass one.
const DefaultListLimit = 50

type Service interface {
	CreateNote(ctx context.Context, ledgerID string, actor domain.Principal, input NoteInput) (*domain.LedgerStatusUpdate, error)
	FindAll(ctx context.Context, ledgerID, userID string, opts ListOptions) (*Page, error)
	FindByAction(ctx context.Context, actionID, userID string, opts ListOptions) (*Page, error)
	FindRecent(ctx context.Context, userID string, opts ListOptions) (*Page, error)
	FindOne(ctx context.Context, id, userID string) (*domain.LedgerStatusUpdate, error)
}

type AccessControl interface {
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
}

type ActionProvider interface {
	FindByID(ctx context.Context, id string) (*domain.LedgerAction, error)
}

type LedgerLister interface {
	AccessibleLedgerIDs(ctx context.Context, userID string) ([]string, error)
}

type NoteInput struct {
	Message  string
	ActionID *string
}

type ListOptions struct {
	Limit  int
	Cursor *string
	Type   *domain.StatusUpdateType
}

type Page struct {
	Data       []domain.LedgerStatusUpdate `json:"data"`
	HasMore    bool                        `json:"has_more"`
	NextCursor *string                     `json:"next_cursor"`
}

type DefaultService struct {
	repository StatusUpdateRepository
	access     AccessControl
	actions    ActionProvider
	ledgers    LedgerLister
}

func NewService(
	repository StatusUpdateRepository,
	access AccessControl,
	actions ActionProvider,
	ledgers LedgerLister,
) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		actions:    actions,
		ledgers:    ledgers,
	}
}

// CreateNote records a USER_NOTE. Any accessor may leave one.
func (s *DefaultService) CreateNote(ctx context.Context, ledgerID string, actor domain.Principal, input NoteInput) (*domain.LedgerStatusUpdate, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleViewer); err != nil {
		return nil, err
	}

	if input.ActionID != nil {
		action, err := s.actions.FindByID(ctx, *input.ActionID)
		if err != nil {
			if defError.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.NotFound("Action not found", err)
			}
			return nil, err
		}
		if action.LedgerID != ledgerID {
			return nil, errors.UnprocessableEntity("Action does not belong to this ledger", nil)
		}
	}

	update := &domain.LedgerStatusUpdate{
		LedgerID:    ledgerID,
		ActionID:    input.ActionID,
		Type:        domain.EventUserNote,
		ActorUserID: &actor.UserID,
		ActorEmail:  &actor.Email,
		Message:     &input.Message,
	}

	if err := s.repository.Append(ctx, update); err != nil {
		return nil, err
	}

	return update, nil
}

func (s *DefaultService) FindAll(ctx context.Context, ledgerID, userID string, opts ListOptions) (*Page, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	return s.page(ctx, ListQuery{
		LedgerIDs: []string{ledgerID},
		Type:      opts.Type,
		Limit:     normalizeLimit(opts.Limit),
		Cursor:    opts.Cursor,
	})
}

func (s *DefaultService) FindByAction(ctx context.Context, actionID, userID string, opts ListOptions) (*Page, error) {
	action, err := s.actions.FindByID(ctx, actionID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Action not found", err)
		}
		return nil, err
	}

	if err := s.access.VerifyAccess(ctx, action.LedgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	return s.page(ctx, ListQuery{
		LedgerIDs: []string{action.LedgerID},
		ActionID:  &actionID,
		Type:      opts.Type,
		Limit:     normalizeLimit(opts.Limit),
		Cursor:    opts.Cursor,
	})
}

// FindRecent pages audit rows across every ledger the caller can access.
func (s *DefaultService) FindRecent(ctx context.Context, userID string, opts ListOptions) (*Page, error) {
	ledgerIDs, err := s.ledgers.AccessibleLedgerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ledgerIDs) == 0 {
		return &Page{Data: []domain.LedgerStatusUpdate{}}, nil
	}

	return s.page(ctx, ListQuery{
		LedgerIDs: ledgerIDs,
		Type:      opts.Type,
		Limit:     normalizeLimit(opts.Limit),
		Cursor:    opts.Cursor,
	})
}

func (s *DefaultService) FindOne(ctx context.Context, id, userID string) (*domain.LedgerStatusUpdate, error) {
	update, err := s.repository.FindByID(ctx, id)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Status update not found", err)
		}
		return nil, err
	}

	if err := s.access.VerifyAccess(ctx, update.LedgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	return update, nil
}

// page runs the query and derives the cursor contract: hasMore iff exactly
// limit rows came back, nextCursor is then the last row's id.
func (s *DefaultService) page(ctx context.Context, q ListQuery) (*Page, error) {
	updates, err := s.repository.List(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &Page{Data: updates}
	if len(updates) == q.Limit {
		page.HasMore = true
		last := updates[len(updates)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

func normalizeLimit(limit int) int {
	if limit < 1 || limit > 100 {
		return DefaultListLimit
	}
	return limit
}
