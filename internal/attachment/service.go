package attachment

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
	CreateAttachment(ctx context.Context, actionID string, actor domain.Principal, input CreateAttachmentInput) (*domain.LedgerAttachment, error)
	FillAttachment(ctx context.Context, actionID, attachmentID string, actor domain.Principal, data json.RawMessage) (*domain.LedgerAttachment, error)
	GetAttachment(ctx context.Context, actionID, attachmentID, userID string) (*domain.LedgerAttachment, error)
	GetBySlotKey(ctx context.Context, actionID, slotKey, userID string) (*domain.LedgerAttachment, error)
	ListAttachments(ctx context.Context, actionID, userID string) ([]domain.LedgerAttachment, error)
	ListEmptySlots(ctx context.Context, actionID, userID string) ([]domain.LedgerAttachment, error)
	DeleteAttachment(ctx context.Context, actionID, attachmentID string, actor domain.Principal) error
}

type AccessControl interface {
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
}

type ActionProvider interface {
	FindByID(ctx context.Context, id string) (*domain.LedgerAction, error)
}

type AuditLogger interface {
	Append(ctx context.Context, update *domain.LedgerStatusUpdate) error
}

type CreateAttachmentInput struct {
	Type    domain.AttachmentType
	SlotKey *string
	Data    json.RawMessage
}

type DefaultService struct {
	repository AttachmentRepository
	actions    ActionProvider
	access     AccessControl
	audit      AuditLogger
}

func NewService(
	repository AttachmentRepository,
	actions ActionProvider,
	access AccessControl,
	audit AuditLogger,
) Service {
	return &DefaultService{
		repository: repository,
		actions:    actions,
		access:     access,
		audit:      audit,
	}
}

// CreateAttachment inserts a slot, empty or filled. The caller may pin the
// slot key; otherwise one is derived from the type.
func (s *DefaultService) CreateAttachment(ctx context.Context, actionID string, actor domain.Principal, input CreateAttachmentInput) (*domain.LedgerAttachment, error) {
	action, err := s.resolveAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if err := s.access.VerifyAccess(ctx, action.LedgerID, actor.UserID, domain.RoleEditor); err != nil {
		return nil, err
	}

	if err := ValidateData(input.Type, input.Data); err != nil {
		return nil, err
	}

	slotKey := GenerateSlotKey(input.Type)
	if input.SlotKey != nil && *input.SlotKey != "" {
		slotKey = *input.SlotKey
	}

	attachment := &domain.LedgerAttachment{
		ActionID:      actionID,
		Type:          input.Type,
		SlotKey:       slotKey,
		Data:          normalizeData(input.Data),
		CreatorUserID: actor.UserID,
		CreatorEmail:  actor.Email,
	}

	if err := s.repository.Create(ctx, attachment); err != nil {
		if defError.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Conflict(fmt.Sprintf("Slot %q already exists on this action", slotKey), err)
		}
		return nil, err
	}

	if !attachment.Empty() {
		s.recordFilled(ctx, action.LedgerID, actor, attachment, true)
	}

	return attachment, nil
}

// FillAttachment sets (or replaces) the slot's data. The type is immutable
// after creation, so the payload is validated against the stored type.
func (s *DefaultService) FillAttachment(ctx context.Context, actionID, attachmentID string, actor domain.Principal, data json.RawMessage) (*domain.LedgerAttachment, error) {
	action, err := s.resolveAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if err := s.access.VerifyAccess(ctx, action.LedgerID, actor.UserID, domain.RoleEditor); err != nil {
		return nil, err
	}

	attachment, err := s.resolveAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.ActionID != actionID {
		return nil, errors.NotFound("Attachment not found", nil)
	}

	if err := ValidateData(attachment.Type, data); err != nil {
		return nil, err
	}

	wasEmpty := attachment.Empty()
	attachment.Data = normalizeData(data)

	if err := s.repository.Save(ctx, attachment); err != nil {
		return nil, err
	}

	s.recordFilled(ctx, action.LedgerID, actor, attachment, wasEmpty)

	return attachment, nil
}

func (s *DefaultService) GetAttachment(ctx context.Context, actionID, attachmentID, userID string) (*domain.LedgerAttachment, error) {
	if _, err := s.verifyRead(ctx, actionID, userID); err != nil {
		return nil, err
	}

	attachment, err := s.resolveAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if attachment.ActionID != actionID {
		return nil, errors.NotFound("Attachment not found", nil)
	}
	return attachment, nil
}

func (s *DefaultService) GetBySlotKey(ctx context.Context, actionID, slotKey, userID string) (*domain.LedgerAttachment, error) {
	if _, err := s.verifyRead(ctx, actionID, userID); err != nil {
		return nil, err
	}

	attachment, err := s.repository.FindBySlotKey(ctx, actionID, slotKey)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Attachment not found", err)
		}
		return nil, err
	}
	return attachment, nil
}

func (s *DefaultService) ListAttachments(ctx context.Context, actionID, userID string) ([]domain.LedgerAttachment, error) {
	if _, err := s.verifyRead(ctx, actionID, userID); err != nil {
		return nil, err
	}
	return s.repository.ListByAction(ctx, actionID)
}

// ListEmptySlots returns the slots still waiting for data.
func (s *DefaultService) ListEmptySlots(ctx context.Context, actionID, userID string) ([]domain.LedgerAttachment, error) {
	if _, err := s.verifyRead(ctx, actionID, userID); err != nil {
		return nil, err
	}
	return s.repository.ListEmptyByAction(ctx, actionID)
}

func (s *DefaultService) DeleteAttachment(ctx context.Context, actionID, attachmentID string, actor domain.Principal) error {
	action, err := s.resolveAction(ctx, actionID)
	if err != nil {
		return err
	}

	if err := s.access.VerifyAccess(ctx, action.LedgerID, actor.UserID, domain.RoleEditor); err != nil {
		return err
	}

	attachment, err := s.resolveAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.ActionID != actionID {
		return errors.NotFound("Attachment not found", nil)
	}

	return s.repository.Delete(ctx, attachmentID)
}

func (s *DefaultService) verifyRead(ctx context.Context, actionID, userID string) (*domain.LedgerAction, error) {
	action, err := s.resolveAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if err := s.access.VerifyAccess(ctx, action.LedgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}
	return action, nil
}

func (s *DefaultService) resolveAction(ctx context.Context, actionID string) (*domain.LedgerAction, error) {
	action, err := s.actions.FindByID(ctx, actionID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Action not found", err)
		}
		return nil, err
	}
	return action, nil
}

func (s *DefaultService) resolveAttachment(ctx context.Context, attachmentID string) (*domain.LedgerAttachment, error) {
	attachment, err := s.repository.FindByID(ctx, attachmentID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Attachment not found", err)
		}
		return nil, err
	}
	return attachment, nil
}

func (s *DefaultService) recordFilled(ctx context.Context, ledgerID string, actor domain.Principal, attachment *domain.LedgerAttachment, wasEmpty bool) {
	verb := "updated"
	if wasEmpty {
		verb = "filled"
	}
	message := fmt.Sprintf("Slot %q %s", attachment.SlotKey, verb)
	metadata, _ := json.Marshal(map[string]any{
		"attachmentType": attachment.Type,
		"slotKey":        attachment.SlotKey,
		"wasEmpty":       wasEmpty,
	})

	err := s.audit.Append(ctx, &domain.LedgerStatusUpdate{
		LedgerID:    ledgerID,
		ActionID:    &attachment.ActionID,
		Type:        domain.EventAttachmentFilled,
		ActorUserID: &actor.UserID,
		ActorEmail:  &actor.Email,
		Message:     &message,
		Metadata:    datatypes.JSON(metadata),
	})
	if err != nil {
		log.Printf("Failed to record ATTACHMENT_FILLED for %s: %v", attachment.ID, err)
	}
}

// normalizeData maps JSON null to a nil column so empty slots are queryable
// with IS NULL.
func normalizeData(data json.RawMessage) datatypes.JSON {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return datatypes.JSON(data)
}
