package template

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"memorial-ledger-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExpandedAction reports one action created by an expansion.
type ExpandedAction struct {
	ActionID     string `json:"action_id"`
	ActionType   string `json:"action_type"`
	Title        string `json:"title"`
	SlotsCreated int    `json:"slots_created"`
}

type ExpansionResult struct {
	ActionsCreated int              `json:"actions_created"`
	Actions        []ExpandedAction `json:"actions"`
}

type ExpansionRepository interface {
	ExpandActions(ctx context.Context, ledgerID string, defs []ActionDefinition, actor domain.Principal) (*ExpansionResult, error)
	FindLedgerWithActions(ctx context.Context, ledgerID string) (*domain.Ledger, error)
}

type ExpansionRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ExpansionRepository {
	return &ExpansionRepositoryImpl{db: db}
}

// ExpandActions scaffolds actions and their empty attachment slots from
// catalog definitions. The whole expansion runs in one transaction: a failure
// anywhere rolls back every action, slot and audit row, so a ledger is never
// left partially scaffolded.
func (r *ExpansionRepositoryImpl) ExpandActions(ctx context.Context, ledgerID string, defs []ActionDefinition, actor domain.Principal) (*ExpansionResult, error) {
	result := &ExpansionResult{
		Actions: make([]ExpandedAction, 0, len(defs)),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		for _, def := range defs {
			description := def.Description
			action := &domain.LedgerAction{
				LedgerID:      ledgerID,
				Title:         def.Title,
				Description:   &description,
				Status:        domain.StatusNotHandled,
				CreatorUserID: actor.UserID,
				CreatorEmail:  actor.Email,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Create(action).Error; err != nil {
				return err
			}

			message := fmt.Sprintf("Action %q created from template", action.Title)
			metadata, _ := json.Marshal(map[string]any{
				"actionType":   def.Key,
				"fromTemplate": true,
			})
			update := &domain.LedgerStatusUpdate{
				LedgerID:    ledgerID,
				ActionID:    &action.ID,
				Type:        domain.EventActionCreated,
				ActorUserID: &actor.UserID,
				ActorEmail:  &actor.Email,
				Message:     &message,
				Metadata:    datatypes.JSON(metadata),
				CreatedAt:   now,
			}
			if err := tx.Create(update).Error; err != nil {
				return err
			}

			// slots are scaffolded empty; template application never
			// pre-fills data
			for _, slot := range def.ExpectedAttachments {
				attachment := &domain.LedgerAttachment{
					ActionID:      action.ID,
					Type:          slot.Type,
					SlotKey:       slot.SlotKey,
					Data:          nil,
					CreatorUserID: actor.UserID,
					CreatorEmail:  actor.Email,
					CreatedAt:     now,
					UpdatedAt:     now,
				}
				if err := tx.Create(attachment).Error; err != nil {
					return err
				}
			}

			result.Actions = append(result.Actions, ExpandedAction{
				ActionID:     action.ID,
				ActionType:   def.Key,
				Title:        action.Title,
				SlotsCreated: len(def.ExpectedAttachments),
			})
		}

		result.ActionsCreated = len(result.Actions)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ExpansionRepositoryImpl) FindLedgerWithActions(ctx context.Context, ledgerID string) (*domain.Ledger, error) {
	var ledger domain.Ledger
	err := r.db.WithContext(ctx).
		Preload("Actions").
		First(&ledger, "id = ?", ledgerID).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}
