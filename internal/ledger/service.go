package ledger

import (
	"context"
	defError "errors"
	"fmt"
	"log"
	"time"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/internal/worker"
	"memorial-ledger-backend/redis"

	"gorm.io/gorm"
)

// recentUpdatesLimit caps the status updates hydrated into a nested ledger read.
const recentUpdatesLimit = 50

type Service interface {
	CreateLedger(ctx context.Context, actor domain.Principal, input CreateLedgerInput) (*domain.Ledger, error)
	GetLedger(ctx context.Context, ledgerID, userID string, includeNested bool) (*LedgerDetail, error)
	ListLedgers(ctx context.Context, userID string) ([]LedgerSummary, error)
	UpdateLedger(ctx context.Context, ledgerID string, actor domain.Principal, input UpdateLedgerInput) (*domain.Ledger, error)
	DeleteLedger(ctx context.Context, ledgerID, userID string) error
	VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error
	GetUserRole(ctx context.Context, ledgerID, userID string) (*domain.LedgerRole, error)
	OwnerOf(ctx context.Context, ledgerID string) (string, error)
	AccessibleLedgerIDs(ctx context.Context, userID string) ([]string, error)
	InvalidateListCache(ctx context.Context, userID string)
}

// AuditLogger appends audit rows; implemented by the status-update repository.
type AuditLogger interface {
	Append(ctx context.Context, update *domain.LedgerStatusUpdate) error
}

type DefaultService struct {
	repository LedgerRepository
	audit      AuditLogger
	cache      *redis.Cache
	workers    *worker.Pool
}

func NewService(
	repository LedgerRepository,
	audit AuditLogger,
	cache *redis.Cache,
	workers *worker.Pool,
) Service {
	return &DefaultService{
		repository: repository,
		audit:      audit,
		cache:      cache,
		workers:    workers,
	}
}

type CreateLedgerInput struct {
	Title            string
	Description      *string
	LinkedEntityType *string
	LinkedEntityID   *string
}

type UpdateLedgerInput struct {
	Title       *string
	Description *string
}

type LedgerSummary struct {
	domain.Ledger
	ActionCount       int64             `json:"action_count"`
	CollaboratorCount int64             `json:"collaborator_count"`
	Role              domain.LedgerRole `json:"role"`
}

type LedgerDetail struct {
	*domain.Ledger
	Role                domain.LedgerRole           `json:"role"`
	RecentStatusUpdates []domain.LedgerStatusUpdate `json:"recent_status_updates,omitempty"`
}

func (s *DefaultService) CreateLedger(ctx context.Context, actor domain.Principal, input CreateLedgerInput) (*domain.Ledger, error) {
	ledger := &domain.Ledger{
		OwnerUserID:      actor.UserID,
		Title:            input.Title,
		Description:      input.Description,
		LinkedEntityType: input.LinkedEntityType,
		LinkedEntityID:   input.LinkedEntityID,
	}

	if err := s.repository.Create(ctx, ledger); err != nil {
		return nil, err
	}

	// The ledger stays valid even if the audit write fails.
	message := fmt.Sprintf("Ledger %q created", ledger.Title)
	err := s.audit.Append(ctx, &domain.LedgerStatusUpdate{
		LedgerID:    ledger.ID,
		Type:        domain.EventLedgerCreated,
		ActorUserID: &actor.UserID,
		ActorEmail:  &actor.Email,
		Message:     &message,
	})
	if err != nil {
		log.Printf("Failed to record LEDGER_CREATED for %s: %v", ledger.ID, err)
	}

	s.InvalidateListCache(ctx, actor.UserID)

	return ledger, nil
}

func (s *DefaultService) GetLedger(ctx context.Context, ledgerID, userID string, includeNested bool) (*LedgerDetail, error) {
	if err := s.VerifyAccess(ctx, ledgerID, userID, domain.RoleViewer); err != nil {
		return nil, err
	}

	role, err := s.GetUserRole(ctx, ledgerID, userID)
	if err != nil {
		return nil, err
	}

	if !includeNested {
		ledger, err := s.repository.FindByID(ctx, ledgerID)
		if err != nil {
			return nil, err
		}
		return &LedgerDetail{Ledger: ledger, Role: *role}, nil
	}

	ledger, err := s.repository.FindByIDNested(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	// annotate each action with its attachment count
	actionIDs := make([]string, 0, len(ledger.Actions))
	for _, a := range ledger.Actions {
		actionIDs = append(actionIDs, a.ID)
	}
	attachmentCounts, err := s.repository.AttachmentCounts(ctx, actionIDs)
	if err != nil {
		return nil, err
	}
	for i := range ledger.Actions {
		n := attachmentCounts[ledger.Actions[i].ID]
		ledger.Actions[i].AttachmentCount = &n
	}

	recent, err := s.repository.RecentStatusUpdates(ctx, ledgerID, recentUpdatesLimit)
	if err != nil {
		return nil, err
	}

	return &LedgerDetail{
		Ledger:              ledger,
		Role:                *role,
		RecentStatusUpdates: recent,
	}, nil
}

func (s *DefaultService) ListLedgers(ctx context.Context, userID string) ([]LedgerSummary, error) {
	// Versioned cache: any write bumps the version key, orphaning old entries.
	versionKey := fmt.Sprintf("user:%s:ledgers:version", userID)
	v := s.cache.GetVersion(ctx, versionKey)
	cacheKey := fmt.Sprintf("ledgers:u:%s:v:%d", userID, v)

	var cached []LedgerSummary
	found, _ := s.cache.Get(ctx, cacheKey, &cached)
	if found {
		return cached, nil
	}

	ledgers, err := s.repository.ListAccessible(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(ledgers))
	for _, l := range ledgers {
		ids = append(ids, l.ID)
	}

	actionCounts, err := s.repository.ActionCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	collaboratorCounts, err := s.repository.CollaboratorCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]LedgerSummary, 0, len(ledgers))
	for _, l := range ledgers {
		role := domain.RoleOwner
		if l.OwnerUserID != userID {
			collab, err := s.repository.GetCollaborator(ctx, l.ID, userID)
			if err != nil {
				return nil, err
			}
			role = collab.Role
		}
		summaries = append(summaries, LedgerSummary{
			Ledger:            l,
			ActionCount:       actionCounts[l.ID],
			CollaboratorCount: collaboratorCounts[l.ID],
			Role:              role,
		})
	}

	// populate the cache off the request path
	result := summaries
	s.workers.Submit(func(bgCtx context.Context) error {
		return s.cache.Set(bgCtx, cacheKey, result, 24*time.Hour)
	})

	return summaries, nil
}

func (s *DefaultService) UpdateLedger(ctx context.Context, ledgerID string, actor domain.Principal, input UpdateLedgerInput) (*domain.Ledger, error) {
	if err := s.VerifyAccess(ctx, ledgerID, actor.UserID, domain.RoleOwner); err != nil {
		return nil, err
	}

	ledger, err := s.repository.FindByID(ctx, ledgerID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		ledger.Title = *input.Title
	}
	if input.Description != nil {
		ledger.Description = input.Description
	}

	if err := s.repository.Save(ctx, ledger); err != nil {
		return nil, err
	}

	s.InvalidateListCache(ctx, actor.UserID)

	return ledger, nil
}

func (s *DefaultService) DeleteLedger(ctx context.Context, ledgerID, userID string) error {
	if err := s.VerifyAccess(ctx, ledgerID, userID, domain.RoleOwner); err != nil {
		return err
	}

	if err := s.repository.Delete(ctx, ledgerID); err != nil {
		return err
	}

	s.InvalidateListCache(ctx, userID)

	return nil
}

// VerifyAccess is the single authorization primitive: every other service
// routes through it before touching data. The owner always passes; otherwise
// the caller's collaborator role rank must be at least the required rank.
func (s *DefaultService) VerifyAccess(ctx context.Context, ledgerID, userID string, required domain.LedgerRole) error {
	ledger, err := s.repository.FindByID(ctx, ledgerID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Ledger not found", err)
		}
		return err
	}

	if ledger.OwnerUserID == userID {
		return nil
	}

	collab, err := s.repository.GetCollaborator(ctx, ledgerID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.Forbidden("You don't have access to this ledger", nil)
		}
		return err
	}

	if collab.Role.Rank() < required.Rank() {
		return errors.Forbidden(fmt.Sprintf("This operation requires %s access", required), nil)
	}

	return nil
}

// GetUserRole returns OWNER for the owner, the collaborator role otherwise,
// or nil when the user has no access at all.
func (s *DefaultService) GetUserRole(ctx context.Context, ledgerID, userID string) (*domain.LedgerRole, error) {
	ledger, err := s.repository.FindByID(ctx, ledgerID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Ledger not found", err)
		}
		return nil, err
	}

	if ledger.OwnerUserID == userID {
		role := domain.RoleOwner
		return &role, nil
	}

	collab, err := s.repository.GetCollaborator(ctx, ledgerID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &collab.Role, nil
}

func (s *DefaultService) OwnerOf(ctx context.Context, ledgerID string) (string, error) {
	ledger, err := s.repository.FindByID(ctx, ledgerID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.NotFound("Ledger not found", err)
		}
		return "", err
	}
	return ledger.OwnerUserID, nil
}

func (s *DefaultService) AccessibleLedgerIDs(ctx context.Context, userID string) ([]string, error) {
	return s.repository.AccessibleIDs(ctx, userID)
}

// InvalidateListCache bumps the user's ledger-list cache version. Collaborator
// changes call this for the affected user too.
func (s *DefaultService) InvalidateListCache(ctx context.Context, userID string) {
	versionKey := fmt.Sprintf("user:%s:ledgers:version", userID)
	s.cache.IncrementVersion(ctx, versionKey)
}
