package action

import (
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"log"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	CreateAction(ctx context.Context, ledgerID string, actor domain.Principal, input CreateActionInput) (*domain.LedgerAction, error)
	GetAction(ctx context.Context, ledgerID, actionID, userID string) (*domain.LedgerAction, error)
	ListActions(ctx context.Context, ledgerID, userID string) ([]domain.LedgerAction, error)
	UpdateAction(ctx context.Context, ledgerID, actionID string, actor domain.Principal, input UpdateActionInput) (*domain.LedgerAction, error)
	DeleteAction(ctx context.Context, ledgerID, actionID string, actor domain.Principal) error
}

type AccessControl interface {
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
}

type AuditLogger interface {
	Append(ctx context.Context, update *domain.LedgerStatusUpdate) error
}

type CreateActionInput struct {
	Title       string
	Description *string
}

type UpdateActionInput struct {
	Title       *string
	Description *string
	Status      *domain.ActionStatus
}

type DefaultService struct {
	repository ActionRepository
	access     AccessControl
	audit      AuditLogger
}

func NewService(repository ActionRepository, access AccessControl, audit AuditLogger) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		audit:      audit,
	}
}

func (s *DefaultService) CreateAction(ctx context.Context, ledgerID string, actor domain.Principal, input CreateActionInput) (*domain.LedgerAction, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleEditor); err != nil {
		return nil, err
	}

	action := &domain.LedgerAction{
		LedgerID:      ledgerID,
		Title:         input.Title,
		Description:   input.Description,
		Status:        domain.StatusNotHandled,
		CreatorUserID: actor.UserID,
		CreatorEmail:  actor.Email,
	}

	if err := s.repository.Create(ctx, action); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Action %q created", action.Title)
	err := s.audit.Append(ctx, &domain.LedgerStatusUpdate{
		LedgerID:    ledgerID,
		ActionID:    &action.ID,
		Type:        domain.EventActionCreated,
		ActorUserID: &actor.UserID,
		ActorEmail:  &actor.Email,
		Message:     &message,
	})
	if err != nil {
		log.Printf("Failed to record ACTION_CREATED for %s: %v", action.ID, err)
	}

	return action, nil
}

func (s *DefaultService) GetAction(ctx context.Context, ledgerID, actionID, userID string) (*domain.LedgerAction, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	return s.findInLedger(ctx, ledgerID, actionID, true)
}

func (s *DefaultService) ListActions(ctx context.Context, ledgerID, userID string) ([]domain.LedgerAction, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	return s.repository.ListByLedger(ctx, ledgerID)
}

func (s *DefaultService) UpdateAction(ctx context.Context, ledgerID, actionID string, actor domain.Principal, input UpdateActionInput) (*domain.LedgerAction, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleEditor); err != nil {
		return nil, err
	}

	action, err := s.findInLedger(ctx, ledgerID, actionID, false)
	if err != nil {
		return nil, err
	}

	oldStatus := action.Status
	statusChanged := input.Status != nil && *input.Status != oldStatus

	if input.Title != nil {
		action.Title = *input.Title
	}
	if input.Description != nil {
		action.Description = input.Description
	}
	if input.Status != nil {
		action.Status = *input.Status
	}

	if err := s.repository.Save(ctx, action); err != nil {
		return nil, err
	}

	if statusChanged {
		message := fmt.Sprintf("Status changed from %q to %q", oldStatus.Label(), action.Status.Label())
		metadata, _ := json.Marshal(map[string]any{
			"oldStatus": oldStatus,
			"newStatus": action.Status,
		})
		err := s.audit.Append(ctx, &domain.LedgerStatusUpdate{
			LedgerID:    ledgerID,
			ActionID:    &action.ID,
			Type:        domain.EventActionStatusChanged,
			ActorUserID: &actor.UserID,
			ActorEmail:  &actor.Email,
			Message:     &message,
			Metadata:    datatypes.JSON(metadata),
		})
		if err != nil {
			log.Printf("Failed to record ACTION_STATUS_CHANGED for %s: %v", action.ID, err)
		}
	}

	return action, nil
}

func (s *DefaultService) DeleteAction(ctx context.Context, ledgerID, actionID string, actor domain.Principal) error {
	if err := s.access.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleEditor); err != nil {
		return err
	}

	if _, err := s.findInLedger(ctx, ledgerID, actionID, false); err != nil {
		return err
	}

	return s.repository.Delete(ctx, actionID)
}

// findInLedger loads an action and checks it belongs to the routed ledger, so
// a valid action id can't be reached through someone else's ledger.
func (s *DefaultService) findInLedger(ctx context.Context, ledgerID, actionID string, withAttachments bool) (*domain.LedgerAction, error) {
	var action *domain.LedgerAction
	var err error
	if withAttachments {
		action, err = s.repository.FindByIDWithAttachments(ctx, actionID)
	} else {
		action, err = s.repository.FindByID(ctx, actionID)
	}
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Action not found", err)
		}
		return nil, err
	}

	if action.LedgerID != ledgerID {
		return nil, errors.NotFound("Action not found", nil)
	}

	return action, nil
}
