package template

import (
	"context"
	defError "errors"
	"fmt"
	"strings"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/gorm"
)

type Service interface {
	GetTemplates() []TemplateDefinition
	GetTemplate(id string) (*TemplateDefinition, error)
	GetActionDefinitions() []ActionDefinition
	ApplyTemplate(ctx context.Context, ledgerID, templateID string, actor domain.Principal) (*ExpansionResult, error)
	ApplyCustomActions(ctx context.Context, ledgerID string, actionTypes []string, actor domain.Principal) (*ExpansionResult, error)
	SuggestActions(ctx context.Context, ledgerID, userID string) ([]ActionDefinition, error)
}

type AccessControl interface {
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
}

type DefaultService struct {
	repository ExpansionRepository
	access     AccessControl
	catalog    *Catalog
}

func NewService(repository ExpansionRepository, access AccessControl, catalog *Catalog) Service {
	return &DefaultService{
		repository: repository,
		access:     access,
		catalog:    catalog,
	}
}

func (s *DefaultService) GetTemplates() []TemplateDefinition {
	return s.catalog.Templates()
}

func (s *DefaultService) GetTemplate(id string) (*TemplateDefinition, error) {
	t, ok := s.catalog.Template(id)
	if !ok {
		return nil, errors.UnprocessableEntity(fmt.Sprintf("Unknown template %q", id), nil)
	}
	return &t, nil
}

func (s *DefaultService) GetActionDefinitions() []ActionDefinition {
	return s.catalog.ActionDefinitions()
}

func (s *DefaultService) ApplyTemplate(ctx context.Context, ledgerID, templateID string, actor domain.Principal) (*ExpansionResult, error) {
	t, ok := s.catalog.Template(templateID)
	if !ok {
		return nil, errors.UnprocessableEntity(fmt.Sprintf("Unknown template %q", templateID), nil)
	}
	return s.expand(ctx, ledgerID, t.ActionTypes, actor)
}

func (s *DefaultService) ApplyCustomActions(ctx context.Context, ledgerID string, actionTypes []string, actor domain.Principal) (*ExpansionResult, error) {
	return s.expand(ctx, ledgerID, actionTypes, actor)
}

// expand resolves every action-type key against the catalog before any write,
// then hands the definitions to the transactional expansion.
func (s *DefaultService) expand(ctx context.Context, ledgerID string, actionTypes []string, actor domain.Principal) (*ExpansionResult, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleEditor); err != nil {
		return nil, err
	}

	defs, err := s.previewActions(actionTypes)
	if err != nil {
		return nil, err
	}

	return s.repository.ExpandActions(ctx, ledgerID, defs, actor)
}

func (s *DefaultService) previewActions(actionTypes []string) ([]ActionDefinition, error) {
	if len(actionTypes) == 0 {
		return nil, errors.UnprocessableEntity("At least one action type is required", nil)
	}

	defs := make([]ActionDefinition, 0, len(actionTypes))
	for _, key := range actionTypes {
		def, ok := s.catalog.ActionDefinition(key)
		if !ok {
			return nil, errors.UnprocessableEntity(fmt.Sprintf("Unknown action type %q", key), nil)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// SuggestActions proposes catalog actions the ledger seems to be missing.
// Plain heuristics over titles; nothing is persisted.
func (s *DefaultService) SuggestActions(ctx context.Context, ledgerID, userID string) ([]ActionDefinition, error) {
	if err := s.access.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	ledger, err := s.repository.FindLedgerWithActions(ctx, ledgerID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Ledger not found", err)
		}
		return nil, err
	}

	suggestions := make([]ActionDefinition, 0, 3)

	if len(ledger.Actions) > 2 && !anyTitleContains(ledger.Actions, "coordinate") {
		if def, ok := s.catalog.ActionDefinition("COORDINATE_WITH_FAMILY"); ok {
			suggestions = append(suggestions, def)
		}
	}

	isMemorial := ledger.LinkedEntityType != nil && *ledger.LinkedEntityType == "memorial"
	if isMemorial && !anyTitleContains(ledger.Actions, "obituary") && !anyTitleContains(ledger.Actions, "photo") {
		if def, ok := s.catalog.ActionDefinition("PUBLISH_OBITUARY"); ok {
			suggestions = append(suggestions, def)
		}
		if def, ok := s.catalog.ActionDefinition("COLLECT_PHOTOS"); ok {
			suggestions = append(suggestions, def)
		}
	}

	return suggestions, nil
}

func anyTitleContains(actions []domain.LedgerAction, substr string) bool {
	for _, a := range actions {
		if strings.Contains(strings.ToLower(a.Title), substr) {
			return true
		}
	}
	return false
}
