package collaborator

import (
	"context"
	"encoding/json"
	defError "errors"
	"fmt"
	"log"
	"net/http"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service interface {
	AddCollaborator(ctx context.Context, ledgerID string, actor domain.Principal, input AddCollaboratorInput) (*domain.LedgerCollaborator, error)
	UpdateRole(ctx context.Context, ledgerID, collaboratorID string, actor domain.Principal, newRole domain.LedgerRole) (*domain.LedgerCollaborator, error)
	RemoveCollaborator(ctx context.Context, ledgerID, collaboratorID string, actor domain.Principal) error
	ListCollaborators(ctx context.Context, ledgerID, userID string) ([]domain.LedgerCollaborator, error)
	GetCollaborator(ctx context.Context, ledgerID, collaboratorID, userID string) (*domain.LedgerCollaborator, error)
}

// LedgerProvider is the slice of the ledger service this package needs.
type LedgerProvider interface {
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
	OwnerOf(ctx context.Context, ledgerID string) (string, error)
	InvalidateListCache(ctx context.Context, userID string)
}

type AuditLogger interface {
	Append(ctx context.Context, update *domain.LedgerStatusUpdate) error
}

type AddCollaboratorInput struct {
	UserID string
	Role   domain.LedgerRole
}

type DefaultService struct {
	repository CollaboratorRepository
	ledgers    LedgerProvider
	audit      AuditLogger
}

func NewService(repository CollaboratorRepository, ledgers LedgerProvider, audit AuditLogger) Service {
	return &DefaultService{
		repository: repository,
		ledgers:    ledgers,
		audit:      audit,
	}
}

func (s *DefaultService) AddCollaborator(ctx context.Context, ledgerID string, actor domain.Principal, input AddCollaboratorInput) (*domain.LedgerCollaborator, error) {
	if err := s.ledgers.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleOwner); err != nil {
		return nil, err
	}

	if input.Role == domain.RoleOwner {
		return nil, errors.UnprocessableEntity("Cannot assign OWNER role via collaborators", nil)
	}

	owner, err := s.ledgers.OwnerOf(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	if input.UserID == owner {
		return nil, errors.UnprocessableEntity("Cannot add the ledger owner as a collaborator", nil)
	}

	collab := &domain.LedgerCollaborator{
		LedgerID:      ledgerID,
		UserID:        input.UserID,
		Role:          input.Role,
		AddedByUserID: actor.UserID,
	}

	if err := s.repository.Create(ctx, collab); err != nil {
		if defError.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Conflict("User is already a collaborator on this ledger", err)
		}
		return nil, err
	}

	message := fmt.Sprintf("Collaborator added with %s role", collab.Role)
	metadata, _ := json.Marshal(map[string]any{
		"collaboratorUserId": collab.UserID,
		"role":               collab.Role,
	})
	s.record(ctx, ledgerID, actor, domain.EventCollaboratorAdded, message, metadata)

	// the new collaborator's ledger list changed
	s.ledgers.InvalidateListCache(ctx, collab.UserID)

	return collab, nil
}

func (s *DefaultService) UpdateRole(ctx context.Context, ledgerID, collaboratorID string, actor domain.Principal, newRole domain.LedgerRole) (*domain.LedgerCollaborator, error) {
	if err := s.ledgers.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleOwner); err != nil {
		return nil, err
	}

	if newRole == domain.RoleOwner {
		return nil, errors.UnprocessableEntity("Cannot assign OWNER role via collaborators", nil)
	}

	collab, err := s.resolve(ctx, ledgerID, collaboratorID)
	if err != nil {
		return nil, err
	}

	oldRole := collab.Role
	collab.Role = newRole

	if err := s.repository.Save(ctx, collab); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Collaborator role changed from %s to %s", oldRole, newRole)
	metadata, _ := json.Marshal(map[string]any{
		"collaboratorUserId": collab.UserID,
		"oldRole":            oldRole,
		"newRole":            newRole,
	})
	s.record(ctx, ledgerID, actor, domain.EventCollaboratorRoleChanged, message, metadata)

	return collab, nil
}

// RemoveCollaborator is allowed for the ledger owner and for a collaborator
// removing themself.
func (s *DefaultService) RemoveCollaborator(ctx context.Context, ledgerID, collaboratorID string, actor domain.Principal) error {
	owner, err := s.ledgers.OwnerOf(ctx, ledgerID)
	if err != nil {
		return err
	}

	collab, err := s.resolve(ctx, ledgerID, collaboratorID)
	if err != nil {
		// a non-owner gets the same answer for a missing grant as for
		// someone else's, so grant ids cannot be probed
		var apiErr *errors.APIError
		if actor.UserID != owner && defError.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return errors.Forbidden("Only the owner or the collaborator themself can remove a collaborator", nil)
		}
		return err
	}

	removedBySelf := actor.UserID == collab.UserID
	if actor.UserID != owner && !removedBySelf {
		return errors.Forbidden("Only the owner or the collaborator themself can remove a collaborator", nil)
	}

	if err := s.repository.Delete(ctx, collab.ID); err != nil {
		return err
	}

	message := "Collaborator removed"
	if removedBySelf {
		message = "Collaborator left the ledger"
	}
	metadata, _ := json.Marshal(map[string]any{
		"collaboratorUserId": collab.UserID,
		"role":               collab.Role,
		"removedBySelf":      removedBySelf,
	})
	s.record(ctx, ledgerID, actor, domain.EventCollaboratorRemoved, message, metadata)

	s.ledgers.InvalidateListCache(ctx, collab.UserID)

	return nil
}

func (s *DefaultService) ListCollaborators(ctx context.Context, ledgerID, userID string) ([]domain.LedgerCollaborator, error) {
	if err := s.ledgers.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.repository.ListByLedger(ctx, ledgerID)
}

func (s *DefaultService) GetCollaborator(ctx context.Context, ledgerID, collaboratorID, userID string) (*domain.LedgerCollaborator, error) {
	if err := s.ledgers.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return s.resolve(ctx, ledgerID, collaboratorID)
}

func (s *DefaultService) resolve(ctx context.Context, ledgerID, collaboratorID string) (*domain.LedgerCollaborator, error) {
	collab, err := s.repository.FindByID(ctx, collaboratorID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Collaborator not found", err)
		}
		return nil, err
	}
	if collab.LedgerID != ledgerID {
		return nil, errors.NotFound("Collaborator not found", nil)
	}
	return collab, nil
}

func (s *DefaultService) record(ctx context.Context, ledgerID string, actor domain.Principal, eventType domain.StatusUpdateType, message string, metadata []byte) {
	err := s.audit.Append(ctx, &domain.LedgerStatusUpdate{
		LedgerID:    ledgerID,
		Type:        eventType,
		ActorUserID: &actor.UserID,
		ActorEmail:  &actor.Email,
		Message:     &message,
		Metadata:    datatypes.JSON(metadata),
	})
	if err != nil {
		log.Printf("Failed to record %s for ledger %s: %v", eventType, ledgerID, err)
	}
}
